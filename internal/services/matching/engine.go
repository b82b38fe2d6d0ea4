package matching

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"invoice-reconciliation-backend/internal/models"
	"invoice-reconciliation-backend/internal/services/columns"
	"invoice-reconciliation-backend/internal/services/normalizer"
)

// Params are the matching tolerances. They come from configuration; the
// engine never reads the environment itself.
type Params struct {
	// ValueTolerance is relative to the larger absolute value. The
	// boundary is inclusive.
	ValueTolerance float64
	// DateToleranceDays is the maximum date gap for the higher
	// value-and-date score.
	DateToleranceDays int
	// SimilarityThreshold is the minimum description ratio for the
	// similarity stage.
	SimilarityThreshold float64
}

func DefaultParams() Params {
	return Params{
		ValueTolerance:      0.05,
		DateToleranceDays:   3,
		SimilarityThreshold: 0.7,
	}
}

// bucketWindow is the coarse probe range around a value when scanning the
// bucket index. Strictly wider than any sane ValueTolerance, so the coarse
// filter never excludes a true in-tolerance pair.
const bucketWindow = 0.10

const (
	scoreExact        = 1.0
	scoreValueAndDate = 0.8
	scoreValueOnly    = 0.6
)

// Engine runs the three-stage matching pipeline: exact document key,
// tolerant value/date, then fuzzy description similarity. Stages are
// greedy and sequential; each only sees rows unclaimed by earlier stages,
// which keeps the accepted pairing injective on both sides.
type Engine struct {
	params   Params
	resolver *columns.Resolver
	log      zerolog.Logger
}

func NewEngine(params Params, resolver *columns.Resolver, log zerolog.Logger) *Engine {
	return &Engine{
		params:   params,
		resolver: resolver,
		log:      log.With().Str("component", "matching").Logger(),
	}
}

// Match reconciles two normalized tables. An empty table on either side is
// a structural error. A stage whose required role columns are unresolved
// contributes zero candidates and the pipeline continues.
func (e *Engine) Match(a, b *models.Table) (*models.ReconciliationResult, error) {
	if a.IsEmpty() {
		return nil, &models.DataError{Source: models.SourceDIAN, Err: models.ErrEmptyTable}
	}
	if b.IsEmpty() {
		return nil, &models.DataError{Source: models.SourceContable, Err: models.ErrEmptyTable}
	}

	rolesA := e.resolver.ResolveAll(a, nil)
	rolesB := e.resolver.ResolveAll(b, documentValues(a, rolesA.Column(models.RoleDocumentID)))

	claimedA := make(map[int]bool)
	claimedB := make(map[int]bool)
	var accepted []models.MatchCandidate

	exact := e.exactStage(a, b, rolesA, rolesB, claimedA, claimedB)
	accepted = append(accepted, exact...)
	e.log.Info().Int("matches", len(exact)).Msg("exact document stage done")

	secondary := e.tolerantStage(a, b, rolesA, rolesB, claimedA, claimedB)
	accepted = append(accepted, secondary...)
	e.log.Info().Int("matches", len(secondary)).Msg("tolerant value/date stage done")

	fuzzy := e.similarityStage(a, b, rolesA, rolesB, claimedA, claimedB)
	accepted = append(accepted, fuzzy...)
	e.log.Info().Int("matches", len(fuzzy)).Msg("description similarity stage done")

	return &models.ReconciliationResult{
		Candidates: accepted,
		UnmatchedA: unclaimedIndices(a.RowCount(), claimedA),
		UnmatchedB: unclaimedIndices(b.RowCount(), claimedB),
		RolesA:     rolesA,
		RolesB:     rolesB,
	}, nil
}

// exactStage pairs rows whose normalized document ids are equal. Duplicate
// ids expand to every combination; combinations are sorted by
// (DIAN row, contable row) and claimed in order, so which duplicate wins
// never depends on map iteration.
func (e *Engine) exactStage(a, b *models.Table, rolesA, rolesB models.RoleMap, claimedA, claimedB map[int]bool) []models.MatchCandidate {
	docA := rolesA.Column(models.RoleDocumentID)
	docB := rolesB.Column(models.RoleDocumentID)
	if docA < 0 || docB < 0 {
		e.log.Warn().Msg("document column unresolved on one side, exact stage skipped")
		return nil
	}

	byID := make(map[string][]int)
	for j := 0; j < b.RowCount(); j++ {
		id := normalizeID(b.Cell(j, docB))
		if id == "" {
			continue
		}
		byID[id] = append(byID[id], j)
	}

	var combos []models.MatchCandidate
	for i := 0; i < a.RowCount(); i++ {
		id := normalizeID(a.Cell(i, docA))
		if id == "" {
			continue
		}
		for _, j := range byID[id] {
			combos = append(combos, models.MatchCandidate{
				IndexA: i,
				IndexB: j,
				Type:   models.MatchExact,
				Score:  scoreExact,
				Reason: fmt.Sprintf("documento exacto: %s", id),
			})
		}
	}

	sort.Slice(combos, func(i, j int) bool {
		if combos[i].IndexA != combos[j].IndexA {
			return combos[i].IndexA < combos[j].IndexA
		}
		return combos[i].IndexB < combos[j].IndexB
	})

	var accepted []models.MatchCandidate
	for _, c := range combos {
		if claimedA[c.IndexA] || claimedB[c.IndexB] {
			continue
		}
		claimedA[c.IndexA] = true
		claimedB[c.IndexB] = true
		accepted = append(accepted, c)
	}
	return accepted
}

// tolerantStage pairs unclaimed rows whose values agree within tolerance,
// scoring higher when dates also agree. Contable rows are bucketed by
// value rounded to two decimals; each DIAN value probes buckets within the
// coarse window and the first in-tolerance candidate in ascending row
// order wins.
func (e *Engine) tolerantStage(a, b *models.Table, rolesA, rolesB models.RoleMap, claimedA, claimedB map[int]bool) []models.MatchCandidate {
	valA := rolesA.Column(models.RoleValue)
	valB := rolesB.Column(models.RoleValue)
	if valA < 0 || valB < 0 {
		e.log.Warn().Msg("value column unresolved on one side, tolerant stage skipped")
		return nil
	}
	dateA := rolesA.Column(models.RoleDate)
	dateB := rolesB.Column(models.RoleDate)

	buckets := make(map[float64][]int)
	for j := 0; j < b.RowCount(); j++ {
		if claimedB[j] {
			continue
		}
		v, ok := b.Cell(j, valB).Numeric()
		if !ok {
			continue
		}
		key := normalizer.Round2(v)
		buckets[key] = append(buckets[key], j)
	}

	var accepted []models.MatchCandidate
	for i := 0; i < a.RowCount(); i++ {
		if claimedA[i] {
			continue
		}
		av, ok := a.Cell(i, valA).Numeric()
		if !ok {
			continue
		}

		for _, j := range probeBuckets(buckets, normalizer.Round2(av)) {
			if claimedB[j] {
				continue
			}
			bv, ok := b.Cell(j, valB).Numeric()
			if !ok {
				continue
			}
			if !valuesMatch(av, bv, e.params.ValueTolerance) {
				continue
			}

			score := scoreValueOnly
			reason := fmt.Sprintf("valor coincide: %.2f", av)
			if dateA >= 0 && dateB >= 0 && e.datesMatch(a.Cell(i, dateA), b.Cell(j, dateB)) {
				score = scoreValueAndDate
				reason = fmt.Sprintf("valor y fecha coinciden: %.2f", av)
			}

			claimedA[i] = true
			claimedB[j] = true
			accepted = append(accepted, models.MatchCandidate{
				IndexA: i,
				IndexB: j,
				Type:   models.MatchSecondary,
				Score:  score,
				Reason: reason,
			})
			break
		}
	}
	return accepted
}

// similarityStage pairs the residue by best description similarity at or
// above the threshold. Quadratic over the residual sets; the earlier
// stages are expected to claim most rows first.
func (e *Engine) similarityStage(a, b *models.Table, rolesA, rolesB models.RoleMap, claimedA, claimedB map[int]bool) []models.MatchCandidate {
	descA := rolesA.Column(models.RoleDescription)
	descB := rolesB.Column(models.RoleDescription)
	if descA < 0 || descB < 0 {
		e.log.Warn().Msg("description column unresolved on one side, similarity stage skipped")
		return nil
	}

	var accepted []models.MatchCandidate
	for i := 0; i < a.RowCount(); i++ {
		if claimedA[i] {
			continue
		}
		ad := strings.ToLower(strings.TrimSpace(a.Cell(i, descA).String()))
		if ad == "" {
			continue
		}

		bestJ, bestScore := -1, 0.0
		for j := 0; j < b.RowCount(); j++ {
			if claimedB[j] {
				continue
			}
			bd := strings.ToLower(strings.TrimSpace(b.Cell(j, descB).String()))
			if bd == "" {
				continue
			}
			score := Ratio(ad, bd)
			if score >= e.params.SimilarityThreshold && score > bestScore {
				bestScore = score
				bestJ = j
			}
		}

		if bestJ >= 0 {
			claimedA[i] = true
			claimedB[bestJ] = true
			accepted = append(accepted, models.MatchCandidate{
				IndexA: i,
				IndexB: bestJ,
				Type:   models.MatchSimilarity,
				Score:  bestScore,
				Reason: fmt.Sprintf("descripcion similar: %.2f", bestScore),
			})
		}
	}
	return accepted
}

// valuesMatch applies the relative tolerance against the larger absolute
// value. Two zeros count as equal; a zero never matches a nonzero.
func valuesMatch(a, b, tolerance float64) bool {
	if a == 0 && b == 0 {
		return true
	}
	if a == 0 || b == 0 {
		return false
	}
	diff := math.Abs(a-b) / math.Max(math.Abs(a), math.Abs(b))
	return diff <= tolerance
}

func (e *Engine) datesMatch(a, b models.Cell) bool {
	da, okA := a.Datetime()
	db, okB := b.Datetime()
	if !okA || !okB {
		return false
	}
	days := math.Abs(da.Sub(db).Hours() / 24)
	return days <= float64(e.params.DateToleranceDays)
}

// probeBuckets collects contable rows from every bucket key within the
// coarse window around the probe value, in ascending row order.
func probeBuckets(buckets map[float64][]int, value float64) []int {
	lo := value * (1 - bucketWindow)
	hi := value * (1 + bucketWindow)
	if lo > hi {
		lo, hi = hi, lo
	}

	var rows []int
	for key, indices := range buckets {
		if key >= lo && key <= hi {
			rows = append(rows, indices...)
		}
	}
	sort.Ints(rows)
	return rows
}

func normalizeID(c models.Cell) string {
	if c.IsNull() {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(c.String()))
}

// documentValues collects the stringified document ids of a table, used to
// locate the counterpart's document column by content.
func documentValues(t *models.Table, col int) []string {
	if col < 0 {
		return nil
	}
	var ids []string
	for i := 0; i < t.RowCount(); i++ {
		cell := t.Cell(i, col)
		if cell.IsNull() {
			continue
		}
		ids = append(ids, strings.TrimSpace(cell.String()))
	}
	return ids
}

func unclaimedIndices(n int, claimed map[int]bool) []int {
	out := make([]int, 0)
	for i := 0; i < n; i++ {
		if !claimed[i] {
			out = append(out, i)
		}
	}
	return out
}
