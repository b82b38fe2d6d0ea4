package loader

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	"invoice-reconciliation-backend/internal/models"
)

// sniffBytes is how much of the stream the delimiter sniffer looks at.
const sniffBytes = 1024

// Loader reads uploaded spreadsheets into raw tables. It makes no attempt
// to clean the data; normalization happens downstream.
type Loader struct {
	log zerolog.Logger
}

func New(log zerolog.Logger) *Loader {
	return &Loader{log: log.With().Str("component", "loader").Logger()}
}

// FromUpload dispatches on the filename extension: .xlsx/.xlsm go through
// excelize, everything else is treated as delimited text.
func (l *Loader) FromUpload(r io.Reader, filename string, source models.Source) (*models.Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return l.FromXLSX(r, source)
	default:
		return l.FromCSV(r, source)
	}
}

// FromCSV reads delimited text. The delimiter is sniffed from the first
// kilobyte: semicolon beats comma beats tab, matching the export formats
// seen in practice. Ragged rows are padded to the header width.
func (l *Loader) FromCSV(r io.Reader, source models.Source) (*models.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.Comma = sniffDelimiter(data)

	headerRow, err := reader.Read()
	if err != nil {
		return nil, &models.DataError{Source: source, Err: models.ErrEmptyTable}
	}

	t := models.NewTable(source, normalizeHeader(headerRow))
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			l.log.Warn().Err(err).Msg("malformed row skipped")
			continue
		}
		t.Rows = append(t.Rows, recordToCells(record, len(t.Columns)))
	}

	if t.IsEmpty() {
		return nil, &models.DataError{Source: source, Err: models.ErrEmptyTable}
	}

	l.log.Info().Str("source", string(source)).Int("rows", t.RowCount()).Int("columns", t.ColumnCount()).Msg("delimited file loaded")
	return t, nil
}

// FromXLSX reads the first sheet of a workbook. The first row becomes the
// header; empty header cells get placeholder names so content inference
// can rename them later.
func (l *Loader) FromXLSX(r io.Reader, source models.Source) (*models.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &models.DataError{Source: source, Err: models.ErrNoColumns}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, &models.DataError{Source: source, Err: models.ErrEmptyTable}
	}

	t := models.NewTable(source, normalizeHeader(rows[0]))
	for _, record := range rows[1:] {
		t.Rows = append(t.Rows, recordToCells(record, len(t.Columns)))
	}

	if t.IsEmpty() {
		return nil, &models.DataError{Source: source, Err: models.ErrEmptyTable}
	}

	l.log.Info().Str("source", string(source)).Str("sheet", sheets[0]).Int("rows", t.RowCount()).Msg("workbook loaded")
	return t, nil
}

func sniffDelimiter(data []byte) rune {
	sample := data
	if len(sample) > sniffBytes {
		sample = sample[:sniffBytes]
	}
	s := string(sample)

	switch {
	case strings.Count(s, ";") > strings.Count(s, ","):
		return ';'
	case strings.Contains(s, ","):
		return ','
	case strings.Contains(s, "\t"):
		return '\t'
	default:
		return ','
	}
}

// normalizeHeader trims header cells and names the empty ones
// "Unnamed: N" by position.
func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		out[i] = h
	}
	return out
}

func recordToCells(record []string, width int) []models.Cell {
	cells := make([]models.Cell, width)
	for i := range cells {
		if i < len(record) {
			v := strings.TrimSpace(record[i])
			if v == "" {
				cells[i] = models.NullCell()
			} else {
				cells[i] = models.TextCell(v)
			}
		} else {
			cells[i] = models.NullCell()
		}
	}
	return cells
}
