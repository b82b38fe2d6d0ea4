package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"invoice-reconciliation-backend/internal/models"
)

// Sheet names of the result workbook.
const (
	sheetMatched   = "Coincidencias"
	sheetUnmatched = "No Coincidencias"
	sheetSummary   = "Resumen"
)

var matchedHeader = []interface{}{
	"Folio DIAN", "Fecha DIAN", "Valor DIAN", "Descripcion DIAN", "Tipo Documento",
	"Documento Contable", "Fecha Contable", "Valor Contable", "Descripcion Contable", "Cuenta Contable",
	"Diferencia Valor", "Diferencia Dias", "Estado", "Tipo Match", "Confianza",
}

var unmatchedHeader = []interface{}{
	"Origen", "Documento", "Fecha", "Valor", "Descripcion", "Cuenta", "Motivo",
}

// Workbook renders a completed session into a three-sheet result file:
// matched pairs, unmatched rows with reasons, and the summary statistics.
func Workbook(session *models.Session) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), sheetMatched)
	if _, err := f.NewSheet(sheetUnmatched); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	if err := writeMatched(f, session.Matched); err != nil {
		return nil, err
	}
	if err := writeUnmatched(f, session.Unmatched); err != nil {
		return nil, err
	}
	if err := writeSummary(f, session); err != nil {
		return nil, err
	}

	for _, sheet := range []string{sheetMatched, sheetUnmatched, sheetSummary} {
		if err := f.SetColWidth(sheet, "A", "O", 18); err != nil {
			return nil, fmt.Errorf("set widths on %s: %w", sheet, err)
		}
	}

	return f.WriteToBuffer()
}

func writeMatched(f *excelize.File, rows []models.MatchedRow) error {
	if err := setRow(f, sheetMatched, 1, matchedHeader); err != nil {
		return err
	}
	for i, m := range rows {
		record := []interface{}{
			m.DianFolio, m.DianDate, m.DianValue, m.DianDescription, m.DianDocumentType,
			m.ContableDocument, m.ContableDate, m.ContableValue, m.ContableDescription, m.ContableAccount,
			m.ValueDifference, m.DateDifferenceDays, m.ValidationStatus, string(m.MatchType), m.Confidence,
		}
		if err := setRow(f, sheetMatched, i+2, record); err != nil {
			return err
		}
	}
	return nil
}

func writeUnmatched(f *excelize.File, rows []models.UnmatchedRow) error {
	if err := setRow(f, sheetUnmatched, 1, unmatchedHeader); err != nil {
		return err
	}
	for i, u := range rows {
		record := []interface{}{
			string(u.Origin), u.Document, u.Date, u.Value, u.Description, u.Account, u.Reason,
		}
		if err := setRow(f, sheetUnmatched, i+2, record); err != nil {
			return err
		}
	}
	return nil
}

func writeSummary(f *excelize.File, session *models.Session) error {
	stats := session.Statistics
	if stats == nil {
		return nil
	}
	lines := [][]interface{}{
		{"Metrica", "Valor"},
		{"Registros totales", stats.TotalRecords},
		{"Pares conciliados", stats.TotalMatched},
		{"Registros sin conciliar", stats.TotalUnmatched},
		{"Porcentaje conciliado", stats.PercentMatched},
		{"Matches exactos", stats.ExactMatches},
		{"Matches por valor/fecha", stats.SecondaryMatches},
		{"Matches por similitud", stats.SimilarityMatches},
		{"Matches perfectos", stats.PerfectMatches},
		{"Valor DIAN conciliado", stats.MatchedValueDian},
		{"Valor contable conciliado", stats.MatchedValueContable},
		{"Diferencia de valor", stats.ValueDifference},
		{"Diferencia de valor %", stats.ValueDifferencePercent},
		{"DIAN sin conciliar", stats.UnmatchedDian},
		{"Contable sin conciliar", stats.UnmatchedContable},
		{"Puntaje de calidad", stats.QualityScore},
		{"Calificacion", stats.QualityGrade},
	}
	if session.CompletedAt != nil {
		lines = append(lines, []interface{}{"Generado", session.CompletedAt.Format("02-01-2006 15:04:05")})
	}
	for i, line := range lines {
		if err := setRow(f, sheetSummary, i+1, line); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
