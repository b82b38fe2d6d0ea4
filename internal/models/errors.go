package models

import (
	"errors"
	"fmt"
)

// Structural failures abort a run. Everything below the structural level
// (unparseable cells, unresolvable roles) degrades to nulls or empty stage
// output and is reported through diagnostics instead.
var (
	ErrEmptyTable      = errors.New("table has no rows")
	ErrNoColumns       = errors.New("table has no columns")
	ErrSessionNotFound = errors.New("session not found")
	ErrSourceMissing   = errors.New("both source files must be loaded before running")
	ErrRunInProgress   = errors.New("reconciliation already running")
)

// DataError wraps a structural error with the source it came from.
type DataError struct {
	Source Source
	Err    error
}

func (e *DataError) Error() string {
	return fmt.Sprintf("%s data: %v", e.Source, e.Err)
}

func (e *DataError) Unwrap() error { return e.Err }
