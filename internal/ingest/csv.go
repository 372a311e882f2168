// Package ingest parses uploaded recommendation exports into records ready
// for classification.
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finops-backend/internal/recommendations"
)

// RowError describes one input row that could not produce a record.
type RowError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// ParseResult is the outcome of parsing one CSV export.
type ParseResult struct {
	Records   []recommendations.Record
	RowErrors []RowError
}

// expected header columns, by canonical name
var columnAliases = map[string]string{
	"id":             "id",
	"recommendation": "description",
	"description":    "description",
	"benefit":        "benefit",
	"benefits":       "benefit",
	"annual_savings": "annual_savings",
	"annualsavings":  "annual_savings",
	"term_years":     "term_years",
	"term":           "term_years",
	"resource_type":  "resource_type",
	"resourcetype":   "resource_type",
}

// ParseCSV reads a recommendation export. The first row is a header; column
// order is free. Rows missing an id are reported as row errors and skipped.
// Malformed numeric cells degrade to absent values rather than failing the
// row, matching how exports with partial data are handled downstream.
func ParseCSV(sourceRef string, r io.Reader) (ParseResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return ParseResult{}, fmt.Errorf("empty input")
	}
	if err != nil {
		return ParseResult{}, fmt.Errorf("read header: %w", err)
	}

	columns := make(map[string]int)
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if canonical, ok := columnAliases[key]; ok {
			columns[canonical] = i
		}
	}
	if _, ok := columns["id"]; !ok {
		return ParseResult{}, fmt.Errorf("missing id column")
	}

	var result ParseResult
	now := time.Now().UTC()
	line := 1
	for {
		line++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.RowErrors = append(result.RowErrors, RowError{Line: line, Reason: "malformed row"})
			continue
		}

		id := strings.TrimSpace(cell(row, columns, "id"))
		if id == "" {
			result.RowErrors = append(result.RowErrors, RowError{Line: line, Reason: "missing id"})
			continue
		}

		record := recommendations.Record{
			ID:           id,
			SourceRef:    sourceRef,
			Description:  strings.TrimSpace(cell(row, columns, "description")),
			Benefit:      strings.TrimSpace(cell(row, columns, "benefit")),
			ResourceType: strings.TrimSpace(cell(row, columns, "resource_type")),
			CreatedAt:    now,
		}
		if raw := strings.TrimSpace(cell(row, columns, "annual_savings")); raw != "" {
			if savings, err := decimal.NewFromString(raw); err == nil && !savings.IsNegative() {
				record.AnnualSavings = savings
			}
		}
		if raw := strings.TrimSpace(cell(row, columns, "term_years")); raw != "" {
			if term, err := strconv.Atoi(raw); err == nil && recommendations.ValidTermYears(term) {
				record.TermYears = &term
			}
		}

		result.Records = append(result.Records, record)
	}
	return result, nil
}

func cell(row []string, columns map[string]int, name string) string {
	idx, ok := columns[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}
