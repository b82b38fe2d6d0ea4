package columns

import (
	"strings"

	"github.com/rs/zerolog"

	"invoice-reconciliation-backend/internal/models"
)

// canonical DIAN document column.
const dianFolioColumn = "Folio"

const (
	idSampleSize      = 20
	contentSampleSize = 10
	minDocumentDigits = 6
)

// Resolver maps logical column roles to physical columns. Name heuristics
// come first, then content shape, then cross-table content correlation for
// the contable document column. Resolution can fail; callers must treat a
// false return as "role unavailable", never as an error.
type Resolver struct {
	log zerolog.Logger
}

func NewResolver(log zerolog.Logger) *Resolver {
	return &Resolver{log: log.With().Str("component", "columns").Logger()}
}

// Resolve finds the column filling a role by name heuristics. For
// RoleDocumentID it applies the DIAN-side rules; use ResolveCounterpartID
// for contable tables, where naming is unreliable.
func (r *Resolver) Resolve(t *models.Table, role models.ColumnRole) (int, bool) {
	if t == nil || len(t.Columns) == 0 {
		return -1, false
	}

	switch role {
	case models.RoleDocumentID:
		return r.resolveDianDocument(t)
	case models.RoleValue:
		return firstKeywordColumn(t, valueKeywords)
	case models.RoleDate:
		return firstKeywordColumn(t, dateKeywords)
	case models.RoleDescription:
		return firstKeywordColumn(t, descriptionKeywords)
	case models.RoleAccount:
		return firstKeywordColumn(t, accountKeywords)
	default:
		return -1, false
	}
}

// ResolveAll resolves every role for a table. knownIDs carries the
// counterpart's document ids when resolving a contable table; pass nil for
// DIAN tables.
func (r *Resolver) ResolveAll(t *models.Table, knownIDs []string) models.RoleMap {
	roles := make(models.RoleMap)

	var docIdx int
	var ok bool
	if t != nil && t.Source == models.SourceContable {
		docIdx, ok = r.ResolveCounterpartID(t, knownIDs)
	} else {
		docIdx, ok = r.Resolve(t, models.RoleDocumentID)
	}
	if ok {
		roles[models.RoleDocumentID] = docIdx
	}

	for _, role := range []models.ColumnRole{models.RoleValue, models.RoleDate, models.RoleDescription, models.RoleAccount} {
		if idx, found := r.Resolve(t, role); found {
			roles[role] = idx
		}
	}

	for role, idx := range roles {
		r.log.Debug().Str("source", string(t.Source)).Stringer("role", role).Str("column", t.Columns[idx]).Msg("role resolved")
	}
	return roles
}

func (r *Resolver) resolveDianDocument(t *models.Table) (int, bool) {
	// Exact canonical label wins.
	if idx := t.ColumnIndex(dianFolioColumn); idx >= 0 {
		return idx, true
	}

	// Keyword search, skipping "Tipo de documento"-style columns.
	for i, col := range t.Columns {
		lower := strings.ToLower(col)
		if nameContainsAny(col, idKeywords) && !strings.Contains(lower, "tipo") && !strings.Contains(lower, "type") {
			return i, true
		}
	}

	// Content-based fallback: mostly long digit strings.
	if idx, ok := digitContentColumn(t, 0.8); ok {
		return idx, true
	}

	return -1, false
}

// ResolveCounterpartID finds the contable document column. When DIAN ids
// are known, every column is scored by how many of the first ~20 ids occur
// as substrings of its stringified values; the column with the most hits
// wins, ties broken by column order.
func (r *Resolver) ResolveCounterpartID(t *models.Table, knownIDs []string) (int, bool) {
	if t == nil || len(t.Columns) == 0 {
		return -1, false
	}

	if len(knownIDs) > 0 {
		sample := knownIDs
		if len(sample) > idSampleSize {
			sample = sample[:idSampleSize]
		}

		bestCol, bestHits := -1, 0
		for colIdx := range t.Columns {
			hits := 0
			for _, id := range sample {
				if id == "" {
					continue
				}
				if columnContains(t, colIdx, id) {
					hits++
				}
			}
			if hits > bestHits {
				bestHits = hits
				bestCol = colIdx
			}
		}
		if bestCol >= 0 {
			r.log.Debug().Str("column", t.Columns[bestCol]).Int("hits", bestHits).Msg("contable document column matched by DIAN id content")
			return bestCol, true
		}
	}

	// Shape fallback: columns whose sampled values are mostly long digit
	// strings.
	if idx, ok := digitContentColumn(t, 0.8); ok {
		return idx, true
	}

	// Keyword fallback.
	if idx, ok := firstKeywordColumn(t, contableIDKeywords); ok {
		return idx, true
	}

	// Last resort: an unnamed column holding long digit strings.
	for i, col := range t.Columns {
		if !IsPlaceholderName(col) {
			continue
		}
		for _, v := range sampleNonNull(t, i, 5) {
			if isAllDigits(v) && len(v) >= minDocumentDigits {
				return i, true
			}
		}
	}

	return -1, false
}

func firstKeywordColumn(t *models.Table, keywords []string) (int, bool) {
	for i, col := range t.Columns {
		if nameContainsAny(col, keywords) {
			return i, true
		}
	}
	return -1, false
}

// digitContentColumn finds the column with the most sampled values that are
// all-digit strings of document length, requiring at least the given share
// of the sample to qualify.
func digitContentColumn(t *models.Table, minShare float64) (int, bool) {
	bestCol, bestCount := -1, 0
	for i := range t.Columns {
		sample := sampleNonNull(t, i, contentSampleSize)
		if len(sample) == 0 {
			continue
		}
		count := 0
		for _, v := range sample {
			if isAllDigits(v) && len(v) >= minDocumentDigits {
				count++
			}
		}
		if float64(count) >= float64(len(sample))*minShare && count > bestCount {
			bestCount = count
			bestCol = i
		}
	}
	return bestCol, bestCol >= 0
}

func columnContains(t *models.Table, col int, needle string) bool {
	for row := range t.Rows {
		cell := t.Cell(row, col)
		if cell.IsNull() {
			continue
		}
		if strings.Contains(cell.String(), needle) {
			return true
		}
	}
	return false
}

func sampleNonNull(t *models.Table, col, limit int) []string {
	var sample []string
	for row := range t.Rows {
		cell := t.Cell(row, col)
		if cell.IsNull() {
			continue
		}
		sample = append(sample, strings.TrimSpace(cell.String()))
		if len(sample) >= limit {
			break
		}
	}
	return sample
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
