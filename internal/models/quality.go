package models

// ColumnQuality reports missing values for one column.
type ColumnQuality struct {
	MissingCount   int     `json:"missing_count"`
	MissingPercent float64 `json:"missing_percent"`
}

// QualityReport is the data-quality diagnosis of one normalized source.
// It never blocks processing; warnings ride alongside the table.
type QualityReport struct {
	Source        Source                   `json:"source"`
	TotalRows     int                      `json:"total_rows"`
	TotalColumns  int                      `json:"total_columns"`
	MissingValues map[string]ColumnQuality `json:"missing_values"`
	Warnings      []string                 `json:"warnings"`
	Score         float64                  `json:"score"`
	IsValid       bool                     `json:"is_valid"`
}
