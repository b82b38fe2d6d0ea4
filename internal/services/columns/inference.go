package columns

import (
	"fmt"
	"strings"

	"invoice-reconciliation-backend/internal/models"
)

// Inferred canonical names. They intentionally land inside the keyword
// sets above, so a renamed column is picked up by role resolution.
const (
	inferredDocument    = "numero_documento"
	inferredValue       = "valor"
	inferredDate        = "fecha"
	inferredAccount     = "cuenta_contable"
	inferredDescription = "descripcion"
)

const classifySampleSize = 5

// InferColumnNames classifies placeholder-named columns by content shape
// and returns replacement names keyed by column index. Categories are
// tried in priority order: document number, monetary value, date, account
// code, description; the first hit wins. Name collisions are deduplicated
// with _2, _3, ... suffixes in encounter order. Columns that match nothing
// keep their placeholder name and are absent from the result.
func (r *Resolver) InferColumnNames(t *models.Table) map[int]string {
	renames := make(map[int]string)
	used := make(map[string]bool)
	for _, col := range t.Columns {
		used[col] = true
	}

	for i, col := range t.Columns {
		if !IsPlaceholderName(col) {
			continue
		}
		sample := sampleNonNull(t, i, contentSampleSize)
		if len(sample) == 0 {
			continue
		}
		if len(sample) > classifySampleSize {
			sample = sample[:classifySampleSize]
		}

		var name string
		switch {
		case looksLikeDocumentNumbers(sample):
			name = inferredDocument
		case looksLikeMonetaryValues(sample):
			name = inferredValue
		case looksLikeDates(sample):
			name = inferredDate
		case looksLikeAccountCodes(sample):
			name = inferredAccount
		case looksLikeDescriptions(sample):
			name = inferredDescription
		default:
			continue
		}

		final := dedupeName(name, used)
		used[final] = true
		renames[i] = final
		r.log.Debug().Str("column", col).Str("inferred", final).Strs("sample", sample).Msg("placeholder column classified")
	}

	return renames
}

func dedupeName(name string, used map[string]bool) string {
	if !used[name] {
		return name
	}
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s_%d", name, n)
		if !used[candidate] {
			return candidate
		}
	}
}

func looksLikeDocumentNumbers(sample []string) bool {
	for _, v := range sample {
		if isAllDigits(v) && len(v) >= minDocumentDigits {
			return true
		}
	}
	return false
}

func looksLikeMonetaryValues(sample []string) bool {
	numeric := 0
	for _, v := range sample {
		f, ok := models.TextCell(v).Numeric()
		if !ok {
			continue
		}
		if f > 1000 || (f > 0 && f < 1e9) {
			numeric++
		}
	}
	return float64(numeric) >= float64(len(sample))*0.6
}

func looksLikeDates(sample []string) bool {
	dateLike := 0
	for _, v := range sample {
		if len(v) >= 8 && (strings.Contains(v, "/") || strings.Contains(v, "-") || (isAllDigits(v) && len(v) == 8)) {
			dateLike++
		}
	}
	return float64(dateLike) >= float64(len(sample))*0.6
}

func looksLikeAccountCodes(sample []string) bool {
	for _, v := range sample {
		if isAllDigits(v) && len(v) >= 4 && len(v) <= 10 {
			return true
		}
	}
	return false
}

func looksLikeDescriptions(sample []string) bool {
	text := 0
	for _, v := range sample {
		if len(v) > 10 && (strings.Contains(v, " ") || len(v) > 20) {
			text++
		}
	}
	return float64(text) >= float64(len(sample))*0.6
}
