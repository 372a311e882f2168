package recommendations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// CreateBatch inserts the records in one transaction.
func (r *PGRepo) CreateBatch(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const query = `
INSERT INTO recommendations (
	id, source_ref, description_text, benefit_text, annual_savings, term_years,
	resource_type, is_commitment, category, classified_at, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	for _, record := range records {
		var savings any
		if !record.AnnualSavings.IsZero() {
			savings = record.AnnualSavings.String()
		}
		var term any
		if record.TermYears != nil {
			term = *record.TermYears
		}
		if _, err := tx.ExecContext(ctx, query,
			record.ID,
			record.SourceRef,
			record.Description,
			record.Benefit,
			savings,
			term,
			record.ResourceType,
			record.IsCommitment,
			string(record.Category),
			record.ClassifiedAt,
			record.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert recommendation %s: %w", record.ID, err)
		}
	}
	return tx.Commit()
}

// GetByID returns a record by its id.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Record, error) {
	const query = selectColumns + ` WHERE id = $1 LIMIT 1`
	record, err := scanRecord(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return record, err
}

// ListBySource returns all records for a source ref, ordered by id.
func (r *PGRepo) ListBySource(ctx context.Context, sourceRef string) ([]Record, error) {
	const query = selectColumns + ` WHERE source_ref = $1 ORDER BY id`
	rows, err := r.DB.QueryContext(ctx, query, sourceRef)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

// UpdateClassification writes the classification result for a record.
func (r *PGRepo) UpdateClassification(ctx context.Context, id string, isCommitment bool, category Category, classifiedAt time.Time) error {
	const query = `
UPDATE recommendations
SET is_commitment = $2, category = $3, classified_at = $4
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, id, isCommitment, string(category), classifiedAt)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

const selectColumns = `
SELECT id, source_ref, description_text, benefit_text, annual_savings, term_years,
       resource_type, is_commitment, category, classified_at, created_at
FROM recommendations`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		record       Record
		savings      sql.NullString
		term         sql.NullInt64
		category     string
		classifiedAt sql.NullTime
	)
	if err := row.Scan(
		&record.ID,
		&record.SourceRef,
		&record.Description,
		&record.Benefit,
		&savings,
		&term,
		&record.ResourceType,
		&record.IsCommitment,
		&category,
		&classifiedAt,
		&record.CreatedAt,
	); err != nil {
		return Record{}, err
	}

	if savings.Valid {
		parsed, err := decimal.NewFromString(savings.String)
		if err != nil {
			return Record{}, fmt.Errorf("parse annual_savings for %s: %w", record.ID, err)
		}
		record.AnnualSavings = parsed
	}
	if term.Valid {
		years := int(term.Int64)
		record.TermYears = &years
	}
	record.Category = Category(category)
	if !record.Category.Valid() {
		record.Category = CategoryUncategorized
	}
	if classifiedAt.Valid {
		t := classifiedAt.Time
		record.ClassifiedAt = &t
	}
	return record, nil
}

var _ Repo = (*PGRepo)(nil)
