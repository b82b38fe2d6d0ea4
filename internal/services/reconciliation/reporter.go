package reconciliation

import (
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"invoice-reconciliation-backend/internal/models"
	"invoice-reconciliation-backend/internal/services/normalizer"
)

// BuildMatchedView renders accepted candidates as report rows: both sides
// of each pair plus the derived value and date discrepancies. Rows come
// back sorted by DIAN folio.
func BuildMatchedView(a, b *models.Table, result *models.ReconciliationResult) []models.MatchedRow {
	rows := make([]models.MatchedRow, 0, len(result.Candidates))
	docTypeCol := findColumnContaining(a, "tipo")

	for _, c := range result.Candidates {
		row := models.MatchedRow{
			DianFolio:           cellString(a, c.IndexA, result.RolesA.Column(models.RoleDocumentID)),
			DianDate:            cellString(a, c.IndexA, result.RolesA.Column(models.RoleDate)),
			DianDescription:     cellString(a, c.IndexA, result.RolesA.Column(models.RoleDescription)),
			DianDocumentType:    cellString(a, c.IndexA, docTypeCol),
			ContableDocument:    cellString(b, c.IndexB, result.RolesB.Column(models.RoleDocumentID)),
			ContableDate:        cellString(b, c.IndexB, result.RolesB.Column(models.RoleDate)),
			ContableDescription: cellString(b, c.IndexB, result.RolesB.Column(models.RoleDescription)),
			ContableAccount:     cellString(b, c.IndexB, result.RolesB.Column(models.RoleAccount)),
			MatchType:           c.Type,
			Confidence:          c.Score,
		}

		av, aok := a.Cell(c.IndexA, result.RolesA.Column(models.RoleValue)).Numeric()
		bv, bok := b.Cell(c.IndexB, result.RolesB.Column(models.RoleValue)).Numeric()
		if aok {
			row.DianValue = av
		}
		if bok {
			row.ContableValue = bv
		}
		if aok && bok {
			// Signed: positive means DIAN reported more than the ledger.
			row.ValueDifference = normalizer.Round2(av - bv)
		}

		row.DateDifferenceDays = dateDiffDays(
			a.Cell(c.IndexA, result.RolesA.Column(models.RoleDate)),
			b.Cell(c.IndexB, result.RolesB.Column(models.RoleDate)),
		)
		if aok && bok {
			row.ValidationStatus = validationStatus(row.ValueDifference, row.DateDifferenceDays)
		} else {
			// No comparable values, nothing to certify.
			row.ValidationStatus = models.StatusNeedsReview
		}

		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].DianFolio < rows[j].DianFolio
	})
	return rows
}

// validationStatus grades one matched pair by the magnitude of its
// residual discrepancies; the inputs keep their sign.
func validationStatus(valueDiff float64, dateDiff int) string {
	vd := math.Abs(valueDiff)
	dd := dateDiff
	if dd < 0 {
		dd = -dd
	}
	switch {
	case vd <= 0.01 && dd == 0:
		return models.StatusPerfect
	case vd <= 1.0 && dd <= 1:
		return models.StatusGood
	case vd <= 10.0 && dd <= 7:
		return models.StatusFair
	default:
		return models.StatusNeedsReview
	}
}

// BuildUnmatchedView renders the leftover rows of both tables with a
// best-effort diagnosis of why each found no counterpart. DIAN rows come
// first, each origin sorted by value descending.
func BuildUnmatchedView(a, b *models.Table, result *models.ReconciliationResult) []models.UnmatchedRow {
	rows := make([]models.UnmatchedRow, 0, len(result.UnmatchedA)+len(result.UnmatchedB))

	for _, i := range result.UnmatchedA {
		rows = append(rows, unmatchedRow(a, i, result.RolesA, models.SourceDIAN))
	}
	for _, j := range result.UnmatchedB {
		rows = append(rows, unmatchedRow(b, j, result.RolesB, models.SourceContable))
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Origin != rows[j].Origin {
			return rows[i].Origin == models.SourceDIAN
		}
		return rows[i].Value > rows[j].Value
	})
	return rows
}

func unmatchedRow(t *models.Table, idx int, roles models.RoleMap, origin models.Source) models.UnmatchedRow {
	row := models.UnmatchedRow{
		Origin:      origin,
		Document:    cellString(t, idx, roles.Column(models.RoleDocumentID)),
		Date:        cellString(t, idx, roles.Column(models.RoleDate)),
		Description: cellString(t, idx, roles.Column(models.RoleDescription)),
		Account:     cellString(t, idx, roles.Column(models.RoleAccount)),
	}
	if v, ok := t.Cell(idx, roles.Column(models.RoleValue)).Numeric(); ok {
		row.Value = v
	}
	row.Reason = diagnoseNonMatch(t, idx, roles, origin)
	return row
}

// diagnoseNonMatch explains an unmatched row with the most specific
// applicable reason, falling back to the generic one.
func diagnoseNonMatch(t *models.Table, idx int, roles models.RoleMap, origin models.Source) string {
	docCell := t.Cell(idx, roles.Column(models.RoleDocumentID))
	if docCell.IsNull() || strings.TrimSpace(docCell.String()) == "" {
		return "numero de documento vacio o invalido"
	}

	if v, ok := t.Cell(idx, roles.Column(models.RoleValue)).Numeric(); ok {
		if v > 1e9 {
			return "valor inusualmente alto, revisar manualmente"
		}
		if v < 0 {
			return "valor negativo"
		}
	}

	if roles.Column(models.RoleDate) >= 0 {
		if _, ok := t.Cell(idx, roles.Column(models.RoleDate)).Datetime(); !ok {
			return "fecha faltante o invalida"
		}
	}

	if origin == models.SourceDIAN {
		return "sin contraparte en contabilidad"
	}
	return "sin factura DIAN correspondiente"
}

// ComputeStatistics aggregates the views into the run's terminal numbers.
// Value totals are summed with decimal arithmetic. Safe on empty input.
func ComputeStatistics(matched []models.MatchedRow, unmatched []models.UnmatchedRow) *models.Statistics {
	stats := &models.Statistics{
		TotalMatched:   len(matched),
		TotalUnmatched: len(unmatched),
		TotalRecords:   len(matched)*2 + len(unmatched),
	}

	sumDian := decimal.Zero
	sumContable := decimal.Zero
	for _, m := range matched {
		sumDian = sumDian.Add(decimal.NewFromFloat(m.DianValue))
		sumContable = sumContable.Add(decimal.NewFromFloat(m.ContableValue))

		switch m.MatchType {
		case models.MatchExact:
			stats.ExactMatches++
		case models.MatchSecondary:
			stats.SecondaryMatches++
		case models.MatchSimilarity:
			stats.SimilarityMatches++
		}
		if m.ValidationStatus == models.StatusPerfect {
			stats.PerfectMatches++
		}
		if math.Abs(m.ValueDifference) > 0.01 {
			stats.MatchesWithValueDiff++
		}
		if m.DateDifferenceDays != 0 {
			stats.MatchesWithDateDiff++
		}
	}
	stats.MatchedValueDian = sumDian.Round(2).InexactFloat64()
	stats.MatchedValueContable = sumContable.Round(2).InexactFloat64()

	diff := sumDian.Sub(sumContable).Abs()
	stats.ValueDifference = diff.Round(2).InexactFloat64()
	if !sumDian.IsZero() {
		stats.ValueDifferencePercent = diff.Div(sumDian.Abs()).Mul(decimal.NewFromInt(100)).Round(2).InexactFloat64()
	}

	unmatchedDianSum := decimal.Zero
	unmatchedContableSum := decimal.Zero
	for _, u := range unmatched {
		if u.Origin == models.SourceDIAN {
			stats.UnmatchedDian++
			unmatchedDianSum = unmatchedDianSum.Add(decimal.NewFromFloat(u.Value))
		} else {
			stats.UnmatchedContable++
			unmatchedContableSum = unmatchedContableSum.Add(decimal.NewFromFloat(u.Value))
		}
	}
	stats.UnmatchedDianValue = unmatchedDianSum.Round(2).InexactFloat64()
	stats.UnmatchedContableValue = unmatchedContableSum.Round(2).InexactFloat64()

	if stats.TotalRecords > 0 {
		stats.PercentMatched = normalizer.Round2(float64(stats.TotalMatched*2) / float64(stats.TotalRecords) * 100)
		stats.PercentUnmatched = normalizer.Round2(100 - stats.PercentMatched)
	}

	stats.QualityScore = qualityScore(stats)
	stats.QualityGrade = qualityGrade(stats.QualityScore)
	return stats
}

// qualityScore bands four signals into a 0-100 score: match rate, perfect
// share, aggregate value drift and the unmatched balance between sides.
func qualityScore(stats *models.Statistics) int {
	if stats.TotalRecords == 0 {
		return 0
	}

	score := 0

	switch {
	case stats.PercentMatched >= 90:
		score += 40
	case stats.PercentMatched >= 80:
		score += 35
	case stats.PercentMatched >= 70:
		score += 30
	case stats.PercentMatched >= 60:
		score += 25
	default:
		score += 20
	}

	perfectPct := 0.0
	if stats.TotalMatched > 0 {
		perfectPct = float64(stats.PerfectMatches) / float64(stats.TotalMatched) * 100
	}
	switch {
	case perfectPct >= 80:
		score += 30
	case perfectPct >= 60:
		score += 25
	case perfectPct >= 40:
		score += 20
	default:
		score += 15
	}

	switch {
	case stats.ValueDifferencePercent <= 1:
		score += 20
	case stats.ValueDifferencePercent <= 5:
		score += 15
	case stats.ValueDifferencePercent <= 10:
		score += 10
	default:
		score += 5
	}

	balance := 0.0
	if totalUnmatched := stats.UnmatchedDian + stats.UnmatchedContable; totalUnmatched > 0 {
		balance = math.Abs(float64(stats.UnmatchedDian-stats.UnmatchedContable)) / float64(totalUnmatched)
	}
	switch {
	case balance <= 0.2:
		score += 10
	case balance <= 0.4:
		score += 8
	case balance <= 0.6:
		score += 6
	default:
		score += 4
	}

	return score
}

func qualityGrade(score int) string {
	switch {
	case score >= 85:
		return models.GradeExcellent
	case score >= 70:
		return models.GradeGood
	case score >= 50:
		return models.GradeFair
	default:
		return models.GradePoor
	}
}

// dateDiffDays is the signed whole-day gap between two date cells,
// positive when the first date is later, zero when either side has no
// date.
func dateDiffDays(a, b models.Cell) int {
	da, okA := a.Datetime()
	db, okB := b.Datetime()
	if !okA || !okB {
		return 0
	}
	return int(math.Round(da.Sub(db).Hours() / 24))
}

func cellString(t *models.Table, row, col int) string {
	if col < 0 {
		return ""
	}
	cell := t.Cell(row, col)
	if cell.IsNull() {
		return ""
	}
	return strings.TrimSpace(cell.String())
}

func findColumnContaining(t *models.Table, substr string) int {
	for i, col := range t.Columns {
		if strings.Contains(strings.ToLower(col), substr) {
			return i
		}
	}
	return -1
}
