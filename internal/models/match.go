package models

// MatchType tells which pipeline stage produced a candidate.
type MatchType string

const (
	MatchExact      MatchType = "exact"
	MatchSecondary  MatchType = "secondary"
	MatchSimilarity MatchType = "similarity"
)

// MatchCandidate pairs one DIAN row with one contable row. Accepted
// candidates form a partial injective pairing: no row index appears on
// either side of more than one candidate.
type MatchCandidate struct {
	IndexA int       `json:"dian_index"`
	IndexB int       `json:"contable_index"`
	Type   MatchType `json:"match_type"`
	Score  float64   `json:"score"`
	Reason string    `json:"reason"`
}

// ReconciliationResult partitions both tables into matched pairs and
// leftover rows. Row indices refer to the normalized tables.
type ReconciliationResult struct {
	Candidates []MatchCandidate `json:"candidates"`
	UnmatchedA []int            `json:"unmatched_dian"`
	UnmatchedB []int            `json:"unmatched_contable"`

	// Role resolution computed during matching, reused by the reporter.
	RolesA RoleMap `json:"-"`
	RolesB RoleMap `json:"-"`
}

// MatchedRow is one line of the matched view: both sides of a candidate
// plus the derived discrepancy fields.
type MatchedRow struct {
	DianFolio           string    `json:"dian_folio"`
	DianDate            string    `json:"dian_date"`
	DianValue           float64   `json:"dian_value"`
	DianDescription     string    `json:"dian_description"`
	DianDocumentType    string    `json:"dian_document_type"`
	ContableDocument    string    `json:"contable_document"`
	ContableDate        string    `json:"contable_date"`
	ContableValue       float64   `json:"contable_value"`
	ContableDescription string    `json:"contable_description"`
	ContableAccount     string    `json:"contable_account"`
	ValueDifference     float64   `json:"value_difference"`
	DateDifferenceDays  int       `json:"date_difference_days"`
	ValidationStatus    string    `json:"validation_status"`
	MatchType           MatchType `json:"match_type"`
	Confidence          float64   `json:"confidence"`
}

// Validation statuses, from best to worst.
const (
	StatusPerfect     = "Perfect"
	StatusGood        = "Good"
	StatusFair        = "Fair"
	StatusNeedsReview = "Needs Review"
)

// UnmatchedRow is one line of the unmatched view: a record from either
// source with a best-effort diagnosis of why it found no counterpart.
type UnmatchedRow struct {
	Origin      Source  `json:"origin"`
	Document    string  `json:"document"`
	Date        string  `json:"date"`
	Value       float64 `json:"value"`
	Description string  `json:"description"`
	Account     string  `json:"account"`
	Reason      string  `json:"reason"`
}
