// Package classifier assigns commitment-strategy categories to recommendation
// records using deterministic keyword matching. Classification is a pure
// function: identical text and term hint always produce the identical result,
// so records can be safely re-classified at any time.
package classifier

import (
	"strings"

	"finops-backend/internal/recommendations"
)

// defaultCategoryTermYears is the term used to pick a category bucket when the
// record carries no term hint. This is a display/grouping choice only; the
// financial multiplier applied during aggregation defaults to 1 year instead.
const defaultCategoryTermYears = 3

// Result is the outcome of classifying one record.
type Result struct {
	IsCommitment bool
	Category     recommendations.Category
}

// Classifier evaluates an ordered rule list against record text.
type Classifier struct {
	rules RuleSet
}

// New constructs a Classifier with the given rule set.
func New(rules RuleSet) *Classifier {
	return &Classifier{rules: rules}
}

// NewDefault constructs a Classifier with the built-in keyword rules.
func NewDefault() *Classifier {
	return New(DefaultRuleSet())
}

// Classify maps the record's text fields and optional term hint to a category.
// The rule order is a contract: combined commitments win over pure savings
// plans, which win over pure reservations. It never fails; unmatched text
// resolves to the uncategorized category.
func (c *Classifier) Classify(description, benefit string, termHint *int) Result {
	text := normalize(description + " " + benefit)

	for _, rule := range c.orderedRules() {
		if rule.matches(text) {
			return Result{
				IsCommitment: true,
				Category:     rule.categorize(termHint),
			}
		}
	}
	return Result{IsCommitment: false, Category: recommendations.CategoryUncategorized}
}

// ClassifyRecord is a convenience wrapper over Classify for a full record.
func (c *Classifier) ClassifyRecord(record recommendations.Record) Result {
	return c.Classify(record.Description, record.Benefit, record.TermYears)
}

type rule struct {
	name       string
	matches    func(text string) bool
	categorize func(termHint *int) recommendations.Category
}

func (c *Classifier) orderedRules() []rule {
	rs := c.rules
	return []rule{
		{
			name: "combined",
			matches: func(text string) bool {
				if containsAny(text, rs.SavingsPlanKeywords) && containsAny(text, rs.ReservationKeywords) {
					return true
				}
				return matchesCombinedPhrase(text, rs)
			},
			categorize: func(termHint *int) recommendations.Category {
				if effectiveCategoryTerm(termHint) == 1 {
					return recommendations.CategoryCombinedSP1Y
				}
				return recommendations.CategoryCombinedSP3Y
			},
		},
		{
			name: "savings_plan",
			matches: func(text string) bool {
				return containsAny(text, rs.SavingsPlanKeywords)
			},
			categorize: func(termHint *int) recommendations.Category {
				// Savings plans are flexible by nature; term does not split
				// this category further.
				return recommendations.CategoryPureSavingsPlan
			},
		},
		{
			name: "reservation",
			matches: func(text string) bool {
				return containsAny(text, rs.ReservationKeywords)
			},
			categorize: func(termHint *int) recommendations.Category {
				if effectiveCategoryTerm(termHint) == 1 {
					return recommendations.CategoryPureReservation1Y
				}
				return recommendations.CategoryPureReservation3Y
			},
		},
	}
}

func effectiveCategoryTerm(termHint *int) int {
	if termHint != nil && recommendations.ValidTermYears(*termHint) {
		return *termHint
	}
	return defaultCategoryTermYears
}

func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// matchesCombinedPhrase detects explicit "savings plan ... with ...
// reservation" phrasing in either order, even when the keyword sets alone
// would not both fire.
func matchesCombinedPhrase(text string, rs RuleSet) bool {
	for _, pair := range rs.CombinedPhrasePairs {
		first := strings.Index(text, pair[0])
		if first < 0 {
			continue
		}
		if strings.Contains(text[first+len(pair[0]):], pair[1]) {
			return true
		}
		second := strings.Index(text, pair[1])
		if second >= 0 && strings.Contains(text[second+len(pair[1]):], pair[0]) {
			return true
		}
	}
	return false
}
