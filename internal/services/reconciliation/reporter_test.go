package reconciliation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoice-reconciliation-backend/internal/models"
)

var day = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

func reportTables() (*models.Table, *models.Table, *models.ReconciliationResult) {
	a := models.NewTable(models.SourceDIAN, []string{"Folio", "Valor", "Fecha", "Descripcion", "Tipo de documento"})
	a.Rows = [][]models.Cell{
		{models.TextCell("800100"), models.NumberCell(150.00), models.DateCell(day), models.TextCell("factura uno"), models.TextCell("FE")},
		{models.TextCell("800200"), models.NumberCell(320.00), models.DateCell(day), models.TextCell("factura dos"), models.TextCell("FE")},
		{models.TextCell(""), models.NumberCell(99.00), models.DateCell(day), models.TextCell("sin folio"), models.TextCell("FE")},
	}

	b := models.NewTable(models.SourceContable, []string{"numero_documento", "valor", "fecha", "descripcion", "cuenta"})
	b.Rows = [][]models.Cell{
		{models.TextCell("800100"), models.NumberCell(150.00), models.DateCell(day), models.TextCell("causacion uno"), models.TextCell("110505")},
		{models.TextCell("800200"), models.NumberCell(325.00), models.DateCell(day.AddDate(0, 0, 2)), models.TextCell("causacion dos"), models.TextCell("220505")},
		{models.TextCell("800300"), models.NumberCell(2e9), models.DateCell(day), models.TextCell("gigante"), models.TextCell("330505")},
	}

	roles := models.RoleMap{
		models.RoleDocumentID:  0,
		models.RoleValue:       1,
		models.RoleDate:        2,
		models.RoleDescription: 3,
	}
	rolesB := models.RoleMap{
		models.RoleDocumentID:  0,
		models.RoleValue:       1,
		models.RoleDate:        2,
		models.RoleDescription: 3,
		models.RoleAccount:     4,
	}

	result := &models.ReconciliationResult{
		Candidates: []models.MatchCandidate{
			{IndexA: 1, IndexB: 1, Type: models.MatchSecondary, Score: 0.8},
			{IndexA: 0, IndexB: 0, Type: models.MatchExact, Score: 1.0},
		},
		UnmatchedA: []int{2},
		UnmatchedB: []int{2},
		RolesA:     roles,
		RolesB:     rolesB,
	}
	return a, b, result
}

func TestBuildMatchedView(t *testing.T) {
	a, b, result := reportTables()
	rows := BuildMatchedView(a, b, result)
	require.Len(t, rows, 2)

	// Sorted by DIAN folio regardless of candidate order.
	assert.Equal(t, "800100", rows[0].DianFolio)
	assert.Equal(t, "800200", rows[1].DianFolio)

	first := rows[0]
	assert.Equal(t, "800100", first.ContableDocument)
	assert.Equal(t, "FE", first.DianDocumentType)
	assert.Equal(t, "110505", first.ContableAccount)
	assert.Equal(t, 0.0, first.ValueDifference)
	assert.Equal(t, 0, first.DateDifferenceDays)
	assert.Equal(t, models.StatusPerfect, first.ValidationStatus)
	assert.Equal(t, models.MatchExact, first.MatchType)

	// Differences keep their sign: the ledger shows more value and a
	// later date than the invoice here.
	second := rows[1]
	assert.Equal(t, -5.0, second.ValueDifference)
	assert.Equal(t, -2, second.DateDifferenceDays)
	assert.Equal(t, models.StatusFair, second.ValidationStatus)
}

func TestValidationStatus(t *testing.T) {
	assert.Equal(t, models.StatusPerfect, validationStatus(0.01, 0))
	assert.Equal(t, models.StatusGood, validationStatus(0.5, 1))
	assert.Equal(t, models.StatusGood, validationStatus(1.0, 0))
	assert.Equal(t, models.StatusFair, validationStatus(8.0, 7))
	assert.Equal(t, models.StatusNeedsReview, validationStatus(11.0, 0))
	assert.Equal(t, models.StatusNeedsReview, validationStatus(0.0, 8))

	// Grading works on magnitude; direction does not change the band.
	assert.Equal(t, models.StatusPerfect, validationStatus(-0.01, 0))
	assert.Equal(t, models.StatusGood, validationStatus(-0.5, -1))
	assert.Equal(t, models.StatusFair, validationStatus(-8.0, -7))
	assert.Equal(t, models.StatusNeedsReview, validationStatus(-11.0, 0))
	assert.Equal(t, models.StatusNeedsReview, validationStatus(0.0, -8))
}

func TestBuildUnmatchedView(t *testing.T) {
	a, b, result := reportTables()
	rows := BuildUnmatchedView(a, b, result)
	require.Len(t, rows, 2)

	// DIAN rows first.
	assert.Equal(t, models.SourceDIAN, rows[0].Origin)
	assert.Equal(t, models.SourceContable, rows[1].Origin)

	// Most specific reason wins.
	assert.Equal(t, "numero de documento vacio o invalido", rows[0].Reason)
	assert.Equal(t, "valor inusualmente alto, revisar manualmente", rows[1].Reason)
}

func TestDiagnoseGenericReasons(t *testing.T) {
	table := models.NewTable(models.SourceDIAN, []string{"Folio", "Valor", "Fecha"})
	table.Rows = [][]models.Cell{
		{models.TextCell("800100"), models.NumberCell(10), models.DateCell(day)},
		{models.TextCell("800200"), models.NumberCell(-10), models.DateCell(day)},
		{models.TextCell("800300"), models.NumberCell(10), models.NullCell()},
	}
	roles := models.RoleMap{models.RoleDocumentID: 0, models.RoleValue: 1, models.RoleDate: 2}

	assert.Equal(t, "sin contraparte en contabilidad", diagnoseNonMatch(table, 0, roles, models.SourceDIAN))
	assert.Equal(t, "valor negativo", diagnoseNonMatch(table, 1, roles, models.SourceDIAN))
	assert.Equal(t, "fecha faltante o invalida", diagnoseNonMatch(table, 2, roles, models.SourceDIAN))
	assert.Equal(t, "sin factura DIAN correspondiente", diagnoseNonMatch(table, 0, roles, models.SourceContable))
}

func TestComputeStatistics(t *testing.T) {
	matched := []models.MatchedRow{
		{DianValue: 100, ContableValue: 100, MatchType: models.MatchExact, ValidationStatus: models.StatusPerfect},
		{DianValue: 195, ContableValue: 200, MatchType: models.MatchSecondary, ValidationStatus: models.StatusGood, ValueDifference: -5, DateDifferenceDays: -1},
		{DianValue: 50, ContableValue: 50, MatchType: models.MatchSimilarity, ValidationStatus: models.StatusPerfect},
	}
	unmatched := []models.UnmatchedRow{
		{Origin: models.SourceDIAN, Value: 30},
		{Origin: models.SourceContable, Value: 70},
	}

	stats := ComputeStatistics(matched, unmatched)

	assert.Equal(t, 3, stats.TotalMatched)
	assert.Equal(t, 2, stats.TotalUnmatched)
	assert.Equal(t, 8, stats.TotalRecords)
	assert.Equal(t, 75.0, stats.PercentMatched)
	assert.Equal(t, 25.0, stats.PercentUnmatched)

	assert.Equal(t, 1, stats.ExactMatches)
	assert.Equal(t, 1, stats.SecondaryMatches)
	assert.Equal(t, 1, stats.SimilarityMatches)
	assert.Equal(t, 2, stats.PerfectMatches)

	// Negative differences still count as discrepancies.
	assert.Equal(t, 1, stats.MatchesWithValueDiff)
	assert.Equal(t, 1, stats.MatchesWithDateDiff)

	assert.Equal(t, 345.0, stats.MatchedValueDian)
	assert.Equal(t, 350.0, stats.MatchedValueContable)
	assert.Equal(t, 5.0, stats.ValueDifference)
	assert.InDelta(t, 1.45, stats.ValueDifferencePercent, 0.01)

	assert.Equal(t, 1, stats.UnmatchedDian)
	assert.Equal(t, 1, stats.UnmatchedContable)
	assert.Equal(t, 30.0, stats.UnmatchedDianValue)
	assert.Equal(t, 70.0, stats.UnmatchedContableValue)

	// 75% matched -> 30, 66% perfect -> 25, 1.45% drift -> 15, balanced -> 10.
	assert.Equal(t, 80, stats.QualityScore)
	assert.Equal(t, models.GradeGood, stats.QualityGrade)
}

func TestComputeStatisticsEmpty(t *testing.T) {
	stats := ComputeStatistics(nil, nil)
	assert.Equal(t, 0, stats.TotalRecords)
	assert.Equal(t, 0.0, stats.PercentMatched)
	assert.Equal(t, 0, stats.QualityScore)
	assert.Equal(t, models.GradePoor, stats.QualityGrade)
}

func TestQualityGradeBands(t *testing.T) {
	assert.Equal(t, models.GradeExcellent, qualityGrade(85))
	assert.Equal(t, models.GradeGood, qualityGrade(70))
	assert.Equal(t, models.GradeFair, qualityGrade(50))
	assert.Equal(t, models.GradePoor, qualityGrade(49))
}
