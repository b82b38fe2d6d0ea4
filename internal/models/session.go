package models

import (
	"time"

	"github.com/google/uuid"
)

// Session statuses.
const (
	SessionPending    = "pending"
	SessionProcessing = "processing"
	SessionCompleted  = "completed"
	SessionFailed     = "failed"
)

// SourceInfo describes one loaded and normalized source file.
type SourceInfo struct {
	Filename string         `json:"filename"`
	Rows     int            `json:"rows"`
	Columns  int            `json:"columns"`
	Quality  *QualityReport `json:"quality,omitempty"`
}

// Session holds everything belonging to one reconciliation run: the two
// normalized tables going in and the views and statistics coming out.
// Sessions live only in memory and die with the process.
type Session struct {
	ID        uuid.UUID `json:"id"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	Dian         *Table      `json:"-"`
	Contable     *Table      `json:"-"`
	DianInfo     *SourceInfo `json:"dian,omitempty"`
	ContableInfo *SourceInfo `json:"contable,omitempty"`

	Result     *ReconciliationResult `json:"-"`
	Matched    []MatchedRow          `json:"-"`
	Unmatched  []UnmatchedRow        `json:"-"`
	Statistics *Statistics           `json:"-"`

	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
