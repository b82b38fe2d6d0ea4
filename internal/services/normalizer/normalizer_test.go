package normalizer

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoice-reconciliation-backend/internal/models"
	"invoice-reconciliation-backend/internal/services/columns"
)

func newTestNormalizer() *Normalizer {
	log := zerolog.Nop()
	return New(columns.NewResolver(log), 4, log)
}

func TestNormalizeDianTable(t *testing.T) {
	raw := models.NewTable(models.SourceDIAN, []string{"Folio", "Valor Total", "Fecha Emision", "Descripcion"})
	raw.Rows = [][]models.Cell{
		{models.TextCell("  800100  "), models.NumberCell(150.567), models.TextCell("15-03-2024"), models.TextCell(" factura uno ")},
		{models.NullCell(), models.NullCell(), models.NullCell(), models.NullCell()},
		{models.TextCell("800200"), models.NumberCell(math.Inf(1)), models.TextCell("no es fecha"), models.TextCell("factura dos")},
	}

	table, quality, err := newTestNormalizer().Normalize(raw, models.SourceDIAN)
	require.NoError(t, err)

	// Empty row dropped, text trimmed.
	require.Equal(t, 2, table.RowCount())
	assert.Equal(t, "800100", table.Cell(0, 0).Text)
	assert.Equal(t, "factura uno", table.Cell(0, 3).Text)

	// Numbers rounded to two decimals, infinities nulled.
	assert.Equal(t, 150.57, table.Cell(0, 1).Number)
	assert.True(t, table.Cell(1, 1).IsNull())

	// Date column typed, unparseable values nulled.
	parsed, ok := table.Cell(0, 2).Datetime()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), parsed)
	assert.True(t, table.Cell(1, 2).IsNull())

	require.NotNil(t, quality)
	assert.Equal(t, 2, quality.TotalRows)

	// Input untouched.
	assert.Equal(t, 3, raw.RowCount())
	assert.Equal(t, "  800100  ", raw.Cell(0, 0).Text)
}

func TestNormalizeContableRawExport(t *testing.T) {
	raw := models.NewTable(models.SourceContable, []string{"Unnamed: 0", "Unnamed: 1", "Unnamed: 2", "Unnamed: 3"})
	meta := func(s string) []models.Cell {
		return []models.Cell{models.TextCell(s), models.NullCell(), models.NullCell(), models.NullCell()}
	}
	data := func(doc, val, date, desc string) []models.Cell {
		return []models.Cell{models.TextCell(doc), models.TextCell(val), models.TextCell(date), models.TextCell(desc)}
	}
	raw.Rows = [][]models.Cell{
		meta("EMPRESA XYZ SAS"),
		meta("NIT 900.123.456-7"),
		meta("LIBRO AUXILIAR"),
		meta("PERIODO MARZO 2024"),
		data("80010001", "1500000.51", "15/03/2024", "pago de servicios enero"),
		data("80010002", "320000.00", "16/03/2024", "compra de insumos oficina"),
		data("80010003", "98000.10", "17/03/2024", "honorarios contador marzo"),
	}

	table, _, err := newTestNormalizer().Normalize(raw, models.SourceContable)
	require.NoError(t, err)

	// Preamble gone, placeholders renamed by content.
	require.Equal(t, 3, table.RowCount())
	assert.Equal(t, []string{"numero_documento", "valor", "fecha", "descripcion"}, table.Columns)
	assert.Equal(t, "80010001", table.Cell(0, 0).Text)

	// The renamed date column is parsed.
	parsed, ok := table.Cell(0, 2).Datetime()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), parsed)
}

func TestNormalizeIsIdempotent(t *testing.T) {
	raw := models.NewTable(models.SourceContable, []string{"Unnamed: 0", "Unnamed: 1", "Unnamed: 2", "Unnamed: 3"})
	meta := func(s string) []models.Cell {
		return []models.Cell{models.TextCell(s), models.NullCell(), models.NullCell(), models.NullCell()}
	}
	raw.Rows = [][]models.Cell{
		meta("EMPRESA XYZ SAS"),
		meta("NIT 900.123.456-7"),
		meta("LIBRO AUXILIAR"),
		meta("PERIODO MARZO 2024"),
		{models.TextCell("80010001"), models.TextCell("1500000.51"), models.TextCell("15/03/2024"), models.TextCell("pago de servicios enero")},
		{models.TextCell("80010002"), models.TextCell("320000.00"), models.TextCell("16/03/2024"), models.TextCell("compra de insumos oficina")},
	}

	n := newTestNormalizer()
	once, _, err := n.Normalize(raw, models.SourceContable)
	require.NoError(t, err)

	twice, _, err := n.Normalize(once, models.SourceContable)
	require.NoError(t, err)

	assert.Equal(t, once.Columns, twice.Columns)
	assert.Equal(t, once.Rows, twice.Rows)
}

func TestNormalizeCombinesSplitDateColumns(t *testing.T) {
	raw := models.NewTable(models.SourceContable, []string{"Unnamed: 0", "Año", "Mes", "Dia"})
	raw.Rows = [][]models.Cell{
		{models.TextCell("80010001"), models.TextCell("2024"), models.TextCell("3"), models.TextCell("5")},
		{models.TextCell("80010002"), models.TextCell("2024"), models.TextCell("12"), models.TextCell("31")},
	}

	table, _, err := newTestNormalizer().Normalize(raw, models.SourceContable)
	require.NoError(t, err)

	idx := table.ColumnIndex("fecha_combinada")
	require.GreaterOrEqual(t, idx, 0)

	first, ok := table.Cell(0, idx).Datetime()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), first)

	second, ok := table.Cell(1, idx).Datetime()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), second)
}

func TestNormalizeStructuralErrors(t *testing.T) {
	n := newTestNormalizer()

	t.Run("nil table", func(t *testing.T) {
		_, _, err := n.Normalize(nil, models.SourceDIAN)
		assert.ErrorIs(t, err, models.ErrNoColumns)
	})

	t.Run("no rows", func(t *testing.T) {
		raw := models.NewTable(models.SourceDIAN, []string{"Folio"})
		_, _, err := n.Normalize(raw, models.SourceDIAN)
		assert.ErrorIs(t, err, models.ErrEmptyTable)
	})

	t.Run("only empty rows", func(t *testing.T) {
		raw := models.NewTable(models.SourceDIAN, []string{"Folio"})
		raw.Rows = [][]models.Cell{{models.NullCell()}, {models.TextCell("   ")}}
		_, _, err := n.Normalize(raw, models.SourceDIAN)
		assert.ErrorIs(t, err, models.ErrEmptyTable)
	})
}

func TestQualityReportFlagsSparseColumns(t *testing.T) {
	raw := models.NewTable(models.SourceDIAN, []string{"Folio", "Valor"})
	raw.Rows = [][]models.Cell{
		{models.TextCell("800100"), models.NullCell()},
		{models.TextCell("800200"), models.NullCell()},
		{models.TextCell("800300"), models.NumberCell(10)},
	}

	_, quality, err := newTestNormalizer().Normalize(raw, models.SourceDIAN)
	require.NoError(t, err)

	require.Len(t, quality.Warnings, 1)
	assert.Contains(t, quality.Warnings[0], "Valor")
	assert.Equal(t, 90.0, quality.Score)
	assert.True(t, quality.IsValid)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 10.57, Round2(10.567))
	assert.Equal(t, 10.56, Round2(10.564))
	assert.Equal(t, -3.34, Round2(-3.335))
	assert.Equal(t, 0.0, Round2(0))
}
