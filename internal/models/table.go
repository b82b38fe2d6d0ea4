package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Source identifies which record set a table came from.
type Source string

const (
	SourceDIAN     Source = "DIAN"
	SourceContable Source = "contable"
)

// CellKind is the runtime type of a Cell.
type CellKind int

const (
	KindNull CellKind = iota
	KindText
	KindNumber
	KindDate
)

// Cell is a loosely-typed scalar: text, number, date or null.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
	Date   time.Time
}

func NullCell() Cell                 { return Cell{Kind: KindNull} }
func TextCell(s string) Cell         { return Cell{Kind: KindText, Text: s} }
func NumberCell(f float64) Cell      { return Cell{Kind: KindNumber, Number: f} }
func DateCell(t time.Time) Cell      { return Cell{Kind: KindDate, Date: t} }

func (c Cell) IsNull() bool {
	if c.Kind == KindNull {
		return true
	}
	if c.Kind == KindText {
		s := strings.TrimSpace(c.Text)
		return s == "" || strings.EqualFold(s, "nan")
	}
	return false
}

// String renders the cell for display and substring scans.
func (c Cell) String() string {
	switch c.Kind {
	case KindText:
		return c.Text
	case KindNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case KindDate:
		return c.Date.Format("02-01-2006")
	default:
		return ""
	}
}

// Numeric converts the cell to a float64, tolerating currency symbols and
// thousands separators in text cells. Returns false for anything that is
// not a usable number.
func (c Cell) Numeric() (float64, bool) {
	switch c.Kind {
	case KindNumber:
		return c.Number, true
	case KindText:
		cleaned := strings.TrimSpace(c.Text)
		cleaned = strings.ReplaceAll(cleaned, "$", "")
		cleaned = strings.ReplaceAll(cleaned, ",", "")
		if cleaned == "" {
			return 0, false
		}
		d, err := decimal.NewFromString(cleaned)
		if err != nil {
			return 0, false
		}
		return d.InexactFloat64(), true
	default:
		return 0, false
	}
}

// Datetime returns the cell as a date when it carries one.
func (c Cell) Datetime() (time.Time, bool) {
	if c.Kind == KindDate {
		return c.Date, true
	}
	return time.Time{}, false
}

// Table is an ordered sequence of rows sharing one column set. Row order is
// meaningful: it is the tiebreak for match claiming and the basis of stable
// output ordering.
type Table struct {
	Source  Source
	Columns []string
	Rows    [][]Cell
}

func NewTable(source Source, columns []string) *Table {
	return &Table{Source: source, Columns: columns}
}

func (t *Table) RowCount() int    { return len(t.Rows) }
func (t *Table) ColumnCount() int { return len(t.Columns) }

func (t *Table) IsEmpty() bool {
	return t == nil || len(t.Rows) == 0
}

// ColumnIndex returns the position of a named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, col := range t.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// Cell returns the cell at (row, column index), null when out of range.
func (t *Table) Cell(row, col int) Cell {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return NullCell()
	}
	return t.Rows[row][col]
}

// CellByName is Cell with a column-name lookup.
func (t *Table) CellByName(row int, name string) Cell {
	return t.Cell(row, t.ColumnIndex(name))
}

// ColumnRole is a logical role a physical column can fulfill. Roles are
// resolved once per table into a RoleMap so the match stages never do
// string-keyed lookups.
type ColumnRole int

const (
	RoleDocumentID ColumnRole = iota
	RoleValue
	RoleDate
	RoleDescription
	RoleAccount
)

func (r ColumnRole) String() string {
	switch r {
	case RoleDocumentID:
		return "document-id"
	case RoleValue:
		return "monetary-value"
	case RoleDate:
		return "date"
	case RoleDescription:
		return "description"
	case RoleAccount:
		return "account-code"
	default:
		return "unknown"
	}
}

// RoleMap maps resolved roles to column indices. A missing key means the
// role could not be filled for that table.
type RoleMap map[ColumnRole]int

// Column returns the column index for a role, or -1 when unfilled.
func (m RoleMap) Column(r ColumnRole) int {
	if idx, ok := m[r]; ok {
		return idx
	}
	return -1
}
