// Package reports computes category-scoped financial summaries from classified
// recommendation records and assembles them into persisted reports.
package reports

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"finops-backend/internal/recommendations"
)

// defaultMultiplierTermYears is the commitment-savings multiplier applied when
// a record carries no term. The classifier groups unknown terms into the
// 3-year category for display, but financial totals stay conservative and
// assume a single year rather than overstating savings.
const defaultMultiplierTermYears = 1

const (
	reservationTopN = 10
	savingsPlanTopN = 10
	combinedTopN    = 5
)

// RecordSummary is one record's contribution to a metrics bucket.
type RecordSummary struct {
	ID                string          `json:"id"`
	Description       string          `json:"description"`
	ResourceType      string          `json:"resourceType,omitempty"`
	TermYears         *int            `json:"termYears,omitempty"`
	AnnualSavings     decimal.Decimal `json:"annualSavings"`
	CommitmentSavings decimal.Decimal `json:"commitmentSavings"`
}

// CategoryMetrics summarizes the records in one category bucket.
type CategoryMetrics struct {
	Count                  int             `json:"count"`
	TotalAnnualSavings     decimal.Decimal `json:"totalAnnualSavings"`
	TotalCommitmentSavings decimal.Decimal `json:"totalCommitmentSavings"`
	AverageAnnualSavings   decimal.Decimal `json:"averageAnnualSavings"`
	TopRecords             []RecordSummary `json:"topRecords,omitempty"`
}

// TermMetrics is a per-term reservation bucket with a resource-type breakdown.
type TermMetrics struct {
	CategoryMetrics
	ByType map[string]CategoryMetrics `json:"byType,omitempty"`
}

// ReservationView splits pure reservations by commitment term.
type ReservationView struct {
	OneYear   TermMetrics `json:"oneYear"`
	ThreeYear TermMetrics `json:"threeYear"`
}

// SavingsPlanView summarizes pure savings plans with a term breakdown.
type SavingsPlanView struct {
	CategoryMetrics
	ByTerm map[string]CategoryMetrics `json:"byTerm,omitempty"`
}

// CombinedView splits combined commitments by sub-category.
type CombinedView struct {
	OneYear   CategoryMetrics `json:"oneYear"`
	ThreeYear CategoryMetrics `json:"threeYear"`
}

// CommitmentReport is the aggregated-metrics object handed to report
// consumers once a job completes.
type CommitmentReport struct {
	SourceRef     string          `json:"sourceRef"`
	GeneratedAt   time.Time       `json:"generatedAt"`
	RecordCount   int             `json:"recordCount"`
	Uncategorized int             `json:"uncategorized"`
	Reservations  ReservationView `json:"reservations"`
	SavingsPlans  SavingsPlanView `json:"savingsPlans"`
	Combined      CombinedView    `json:"combined"`
}

// CommitmentSavings returns the record's term-scaled savings contribution:
// annual savings multiplied by the record's own term, or by one year when the
// term is unknown.
func CommitmentSavings(record recommendations.Record) decimal.Decimal {
	years := defaultMultiplierTermYears
	if record.TermYears != nil && recommendations.ValidTermYears(*record.TermYears) {
		years = *record.TermYears
	}
	return record.AnnualSavings.Mul(decimal.NewFromInt(int64(years)))
}

// BuildReport computes all three aggregation views over the full classified
// record set. Each view is derived independently from the source records; no
// intermediate state is shared between them.
func BuildReport(sourceRef string, records []recommendations.Record, generatedAt time.Time) CommitmentReport {
	report := CommitmentReport{
		SourceRef:    sourceRef,
		GeneratedAt:  generatedAt.UTC(),
		RecordCount:  len(records),
		Reservations: buildReservationView(records),
		SavingsPlans: buildSavingsPlanView(records),
		Combined:     buildCombinedView(records),
	}
	for _, record := range records {
		if record.Category == recommendations.CategoryUncategorized {
			report.Uncategorized++
		}
	}
	return report
}

func buildReservationView(records []recommendations.Record) ReservationView {
	oneYear := filterByCategory(records, recommendations.CategoryPureReservation1Y)
	threeYear := filterByCategory(records, recommendations.CategoryPureReservation3Y)
	return ReservationView{
		OneYear: TermMetrics{
			CategoryMetrics: buildMetrics(oneYear, reservationTopN),
			ByType:          buildTypeBreakdown(oneYear),
		},
		ThreeYear: TermMetrics{
			CategoryMetrics: buildMetrics(threeYear, reservationTopN),
			ByType:          buildTypeBreakdown(threeYear),
		},
	}
}

func buildSavingsPlanView(records []recommendations.Record) SavingsPlanView {
	plans := filterByCategory(records, recommendations.CategoryPureSavingsPlan)
	return SavingsPlanView{
		CategoryMetrics: buildMetrics(plans, savingsPlanTopN),
		ByTerm:          buildTermBreakdown(plans),
	}
}

func buildCombinedView(records []recommendations.Record) CombinedView {
	return CombinedView{
		OneYear:   buildMetrics(filterByCategory(records, recommendations.CategoryCombinedSP1Y), combinedTopN),
		ThreeYear: buildMetrics(filterByCategory(records, recommendations.CategoryCombinedSP3Y), combinedTopN),
	}
}

// buildMetrics sums the bucket and selects the top-N records by commitment
// savings. A record without a savings figure contributes zero to the sums but
// still counts toward Count. topN <= 0 skips top-record selection.
func buildMetrics(records []recommendations.Record, topN int) CategoryMetrics {
	metrics := CategoryMetrics{
		TotalAnnualSavings:     decimal.Zero,
		TotalCommitmentSavings: decimal.Zero,
		AverageAnnualSavings:   decimal.Zero,
	}
	for _, record := range records {
		metrics.Count++
		metrics.TotalAnnualSavings = metrics.TotalAnnualSavings.Add(record.AnnualSavings)
		metrics.TotalCommitmentSavings = metrics.TotalCommitmentSavings.Add(CommitmentSavings(record))
	}
	if metrics.Count > 0 {
		metrics.AverageAnnualSavings = metrics.TotalAnnualSavings.Div(decimal.NewFromInt(int64(metrics.Count)))
	}
	if topN > 0 {
		metrics.TopRecords = topRecords(records, topN)
	}
	return metrics
}

// topRecords sorts the full bucket by commitment savings, descending, ties
// broken by record id so results are reproducible across runs.
func topRecords(records []recommendations.Record, n int) []RecordSummary {
	summaries := make([]RecordSummary, 0, len(records))
	for _, record := range records {
		summaries = append(summaries, RecordSummary{
			ID:                record.ID,
			Description:       record.Description,
			ResourceType:      record.ResourceType,
			TermYears:         record.TermYears,
			AnnualSavings:     record.AnnualSavings,
			CommitmentSavings: CommitmentSavings(record),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		cmp := summaries[i].CommitmentSavings.Cmp(summaries[j].CommitmentSavings)
		if cmp != 0 {
			return cmp > 0
		}
		return summaries[i].ID < summaries[j].ID
	})
	if len(summaries) > n {
		summaries = summaries[:n]
	}
	return summaries
}

func buildTypeBreakdown(records []recommendations.Record) map[string]CategoryMetrics {
	if len(records) == 0 {
		return nil
	}
	grouped := make(map[string][]recommendations.Record)
	for _, record := range records {
		key := record.ResourceType
		if key == "" {
			key = "unspecified"
		}
		grouped[key] = append(grouped[key], record)
	}
	out := make(map[string]CategoryMetrics, len(grouped))
	for key, bucket := range grouped {
		out[key] = buildMetrics(bucket, 0)
	}
	return out
}

func buildTermBreakdown(records []recommendations.Record) map[string]CategoryMetrics {
	if len(records) == 0 {
		return nil
	}
	grouped := make(map[string][]recommendations.Record)
	for _, record := range records {
		grouped[termKey(record.TermYears)] = append(grouped[termKey(record.TermYears)], record)
	}
	out := make(map[string]CategoryMetrics, len(grouped))
	for key, bucket := range grouped {
		out[key] = buildMetrics(bucket, 0)
	}
	return out
}

func termKey(termYears *int) string {
	if termYears == nil {
		return "unspecified"
	}
	switch *termYears {
	case 1:
		return "1y"
	case 3:
		return "3y"
	default:
		return "unspecified"
	}
}

func filterByCategory(records []recommendations.Record, categories ...recommendations.Category) []recommendations.Record {
	var out []recommendations.Record
	for _, record := range records {
		for _, category := range categories {
			if record.Category == category {
				out = append(out, record)
				break
			}
		}
	}
	return out
}
