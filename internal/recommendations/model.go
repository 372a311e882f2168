package recommendations

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category is the commitment-strategy taxonomy bucket for a record.
type Category string

const (
	CategoryPureReservation1Y Category = "pure_reservation_1y"
	CategoryPureReservation3Y Category = "pure_reservation_3y"
	CategoryPureSavingsPlan   Category = "pure_savings_plan"
	CategoryCombinedSP1Y      Category = "combined_sp_1y"
	CategoryCombinedSP3Y      Category = "combined_sp_3y"
	CategoryUncategorized     Category = "uncategorized"
)

// Categories lists every valid category value.
func Categories() []Category {
	return []Category{
		CategoryPureReservation1Y,
		CategoryPureReservation3Y,
		CategoryPureSavingsPlan,
		CategoryCombinedSP1Y,
		CategoryCombinedSP3Y,
		CategoryUncategorized,
	}
}

// Valid reports whether c is a known category value.
func (c Category) Valid() bool {
	switch c {
	case CategoryPureReservation1Y, CategoryPureReservation3Y, CategoryPureSavingsPlan,
		CategoryCombinedSP1Y, CategoryCombinedSP3Y, CategoryUncategorized:
		return true
	}
	return false
}

// Record is one cost-optimization recommendation.
//
// AnnualSavings is zero when the source did not report a figure; TermYears is
// nil when the source did not specify a commitment term. IsCommitment and
// Category are written once, at classification time.
type Record struct {
	ID            string          `json:"id"`
	SourceRef     string          `json:"sourceRef"`
	Description   string          `json:"description"`
	Benefit       string          `json:"benefit"`
	AnnualSavings decimal.Decimal `json:"annualSavings"`
	TermYears     *int            `json:"termYears,omitempty"`
	ResourceType  string          `json:"resourceType,omitempty"`
	IsCommitment  bool            `json:"isCommitment"`
	Category      Category        `json:"category"`
	ClassifiedAt  *time.Time      `json:"classifiedAt,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// ValidTermYears reports whether the given term is an allowed commitment term.
func ValidTermYears(years int) bool {
	return years == 1 || years == 3
}
