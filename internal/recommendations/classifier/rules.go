package classifier

// RuleSet is the immutable keyword configuration the classifier evaluates.
// Injecting it keeps the rule data separate from the matching logic, so tests
// can swap rule sets without touching the classifier.
type RuleSet struct {
	// SavingsPlanKeywords signal a flexible, compute-wide spending commitment.
	SavingsPlanKeywords []string
	// ReservationKeywords signal a resource-scoped commitment.
	ReservationKeywords []string
	// CombinedPhrasePairs are ordered phrase pairs; a text that contains both
	// parts of a pair (in either order) is an explicit combined recommendation.
	CombinedPhrasePairs [][2]string
}

// DefaultRuleSet returns the built-in commitment keyword rules.
func DefaultRuleSet() RuleSet {
	return RuleSet{
		SavingsPlanKeywords: []string{
			"savings plan",
			"saving plan",
			"compute savings",
			"flexible spend",
		},
		ReservationKeywords: []string{
			"reserved instance",
			"reserved capacity",
			"reserved vm",
			"reservation",
			"reserve",
			"commit",
		},
		CombinedPhrasePairs: [][2]string{
			{"savings plan", "reservation"},
			{"savings plan", "reserved"},
			{"saving plan", "reservation"},
		},
	}
}
