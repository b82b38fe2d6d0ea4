package models

// Statistics is the terminal artifact of a reconciliation run: aggregate
// counts, value totals and the derived quality grade. Computed once from
// the matched/unmatched views, read-only afterwards.
type Statistics struct {
	TotalMatched   int `json:"total_matched"`
	TotalUnmatched int `json:"total_unmatched"`
	TotalRecords   int `json:"total_records"`

	PercentMatched   float64 `json:"percent_matched"`
	PercentUnmatched float64 `json:"percent_unmatched"`

	MatchedValueDian       float64 `json:"matched_value_dian"`
	MatchedValueContable   float64 `json:"matched_value_contable"`
	ValueDifference        float64 `json:"value_difference"`
	ValueDifferencePercent float64 `json:"value_difference_percent"`

	ExactMatches      int `json:"exact_matches"`
	SecondaryMatches  int `json:"secondary_matches"`
	SimilarityMatches int `json:"similarity_matches"`

	PerfectMatches        int `json:"perfect_matches"`
	MatchesWithValueDiff  int `json:"matches_with_value_diff"`
	MatchesWithDateDiff   int `json:"matches_with_date_diff"`

	UnmatchedDian          int     `json:"unmatched_dian"`
	UnmatchedContable      int     `json:"unmatched_contable"`
	UnmatchedDianValue     float64 `json:"unmatched_dian_value"`
	UnmatchedContableValue float64 `json:"unmatched_contable_value"`

	QualityScore int    `json:"quality_score"`
	QualityGrade string `json:"quality_grade"`
}

// Quality grades, from best to worst.
const (
	GradeExcellent = "Excellent"
	GradeGood      = "Good"
	GradeFair      = "Fair"
	GradePoor      = "Poor"
)
