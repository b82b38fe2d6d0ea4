package normalizer

import (
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"invoice-reconciliation-backend/internal/models"
	"invoice-reconciliation-backend/internal/services/columns"
)

// Normalizer cleans one raw table into canonical form: trimmed text, typed
// dates, rounded numerics. It never mutates its input and never fails on a
// single cell; only structurally broken tables (no rows, no columns) abort.
type Normalizer struct {
	resolver     *columns.Resolver
	preambleRows int
	log          zerolog.Logger
}

func New(resolver *columns.Resolver, preambleRows int, log zerolog.Logger) *Normalizer {
	return &Normalizer{
		resolver:     resolver,
		preambleRows: preambleRows,
		log:          log.With().Str("component", "normalizer").Logger(),
	}
}

// Normalize cleans a raw table. Contable tables additionally lose their
// metadata preamble, get placeholder columns renamed by content inference,
// and gain a combined date column when year/month/day arrive separately.
// The returned quality report carries diagnostics; it never blocks.
func (n *Normalizer) Normalize(raw *models.Table, source models.Source) (*models.Table, *models.QualityReport, error) {
	if raw == nil || len(raw.Columns) == 0 {
		return nil, nil, &models.DataError{Source: source, Err: models.ErrNoColumns}
	}
	if raw.IsEmpty() {
		return nil, nil, &models.DataError{Source: source, Err: models.ErrEmptyTable}
	}

	t := cloneTable(raw, source)

	// Contable exports carry a fixed metadata preamble and unlabeled
	// columns. Placeholder headers are the signature of a raw export;
	// their absence means the table already went through this path, so
	// re-normalizing stays a no-op.
	if source == models.SourceContable && hasPlaceholderColumns(t) {
		n.dropPreamble(t)
		n.applyInference(t)
		n.combineDateColumns(t)
	}

	trimText(t)
	dropEmptyRows(t)

	if t.IsEmpty() {
		return nil, nil, &models.DataError{Source: source, Err: models.ErrEmptyTable}
	}

	n.parseDateColumns(t)
	cleanNumerics(t)

	report := n.qualityReport(t, source)

	n.log.Info().
		Str("source", string(source)).
		Int("rows", t.RowCount()).
		Int("columns", t.ColumnCount()).
		Float64("quality_score", report.Score).
		Msg("table normalized")

	return t, report, nil
}

func cloneTable(raw *models.Table, source models.Source) *models.Table {
	t := models.NewTable(source, append([]string(nil), raw.Columns...))
	t.Rows = make([][]models.Cell, len(raw.Rows))
	for i, row := range raw.Rows {
		cells := make([]models.Cell, len(t.Columns))
		copy(cells, row)
		t.Rows[i] = cells
	}
	return t
}

func hasPlaceholderColumns(t *models.Table) bool {
	for _, col := range t.Columns {
		if columns.IsPlaceholderName(col) {
			return true
		}
	}
	return false
}

func (n *Normalizer) dropPreamble(t *models.Table) {
	if len(t.Rows) <= n.preambleRows {
		return
	}
	t.Rows = t.Rows[n.preambleRows:]
	n.log.Info().Int("rows", n.preambleRows).Msg("metadata preamble discarded")
}

func (n *Normalizer) applyInference(t *models.Table) {
	renames := n.resolver.InferColumnNames(t)
	for idx, name := range renames {
		t.Columns[idx] = name
	}
}

// combineDateColumns synthesizes one date column from separate
// year/month/day columns: zero-padded concatenation, parsed, stored typed.
func (n *Normalizer) combineDateColumns(t *models.Table) {
	yearIdx := findNameColumn(t, []string{"año", "year"})
	monthIdx := findNameColumn(t, []string{"mes", "month"})
	dayIdx := findNameColumn(t, []string{"dia", "día", "day"})
	if yearIdx < 0 || monthIdx < 0 || dayIdx < 0 {
		return
	}

	t.Columns = append(t.Columns, "fecha_combinada")
	for i := range t.Rows {
		year := strings.TrimSpace(t.Cell(i, yearIdx).String())
		month := strings.TrimSpace(t.Cell(i, monthIdx).String())
		day := strings.TrimSpace(t.Cell(i, dayIdx).String())

		combined := fmt.Sprintf("%s-%s-%s", year, pad2(month), pad2(day))
		if parsed, ok := ParseDate(combined); ok {
			t.Rows[i] = append(t.Rows[i], models.DateCell(parsed))
		} else {
			t.Rows[i] = append(t.Rows[i], models.NullCell())
		}
	}
	n.log.Info().Msg("year/month/day columns combined into fecha_combinada")
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

func findNameColumn(t *models.Table, keywords []string) int {
	for i, col := range t.Columns {
		lower := strings.ToLower(col)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return i
			}
		}
	}
	return -1
}

func trimText(t *models.Table) {
	for i, row := range t.Rows {
		for j, cell := range row {
			if cell.Kind == models.KindText {
				t.Rows[i][j].Text = strings.TrimSpace(cell.Text)
			}
		}
	}
}

func dropEmptyRows(t *models.Table) {
	kept := t.Rows[:0]
	for _, row := range t.Rows {
		empty := true
		for _, cell := range row {
			if !cell.IsNull() {
				empty = false
				break
			}
		}
		if !empty {
			kept = append(kept, row)
		}
	}
	t.Rows = kept
}

// parseDateColumns types every date-keyword column. Unparseable values
// degrade to null; already-typed dates pass through unchanged.
func (n *Normalizer) parseDateColumns(t *models.Table) {
	for colIdx, col := range t.Columns {
		if !columns.IsDateColumn(col) {
			continue
		}
		for i := range t.Rows {
			cell := t.Cell(i, colIdx)
			switch cell.Kind {
			case models.KindDate, models.KindNull:
				continue
			}
			if cell.IsNull() {
				t.Rows[i][colIdx] = models.NullCell()
				continue
			}
			if parsed, ok := ParseDate(cell.String()); ok {
				t.Rows[i][colIdx] = models.DateCell(parsed)
			} else {
				t.Rows[i][colIdx] = models.NullCell()
			}
		}
	}
}

// cleanNumerics replaces infinities with null and rounds floats to two
// decimal places.
func cleanNumerics(t *models.Table) {
	for i, row := range t.Rows {
		for j, cell := range row {
			if cell.Kind != models.KindNumber {
				continue
			}
			if math.IsInf(cell.Number, 0) || math.IsNaN(cell.Number) {
				t.Rows[i][j] = models.NullCell()
				continue
			}
			t.Rows[i][j].Number = Round2(cell.Number)
		}
	}
}

// Round2 rounds to two decimal places with decimal arithmetic, avoiding
// float drift at tolerance boundaries.
func Round2(f float64) float64 {
	return decimal.NewFromFloat(f).Round(2).InexactFloat64()
}

// qualityReport diagnoses missing data per column. Warnings are
// informational; they never block processing.
func (n *Normalizer) qualityReport(t *models.Table, source models.Source) *models.QualityReport {
	report := &models.QualityReport{
		Source:        source,
		TotalRows:     t.RowCount(),
		TotalColumns:  t.ColumnCount(),
		MissingValues: make(map[string]models.ColumnQuality, t.ColumnCount()),
	}

	for colIdx, col := range t.Columns {
		missing := 0
		for i := range t.Rows {
			if t.Cell(i, colIdx).IsNull() {
				missing++
			}
		}
		pct := float64(missing) / float64(t.RowCount()) * 100
		report.MissingValues[col] = models.ColumnQuality{MissingCount: missing, MissingPercent: pct}
		if pct > 50 {
			report.Warnings = append(report.Warnings, fmt.Sprintf("column %q has %.1f%% missing values", col, pct))
		}
	}

	report.Score = math.Max(0, 100-float64(len(report.Warnings))*10)
	report.IsValid = report.Score >= 70

	if !report.IsValid {
		n.log.Warn().Str("source", string(source)).Float64("score", report.Score).Strs("warnings", report.Warnings).Msg("data quality below threshold")
	}
	return report
}
