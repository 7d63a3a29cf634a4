package search

import (
	"context"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/xbrowse/xbrowse/models/constants/chromosome"
	"github.com/xbrowse/xbrowse/models/constants/clinvar"
	dataType "github.com/xbrowse/xbrowse/models/constants/data-type"
	"github.com/xbrowse/xbrowse/models/constants/hgmd"
	"github.com/xbrowse/xbrowse/models/tables"
	"github.com/xbrowse/xbrowse/repositories/tabular"
)

// Enum registry keys in the annotation table globals.
const (
	transcriptsEnumField = "sorted_transcript_consequences"
	consequenceTermKey   = "consequence_term"
	clinvarEnumField     = "clinvar"
	clinvarEnumKey       = "pathogenicity"
	hgmdEnumField        = "hgmd"
	hgmdEnumKey          = "class"
	canonicalTermSuffix  = "__canonical"
)

// annotateRows joins the shared annotation payload onto the admitted
// genotype rows. Rows with no annotation record cannot be formatted
// and are dropped; a missing annotation table means the data type is
// not queryable at all.
func (q *query) annotateRows(ctx context.Context, singles, compHet []*tables.VariantRow) ([]*tables.VariantRow, []*tables.VariantRow, error) {
	if len(singles)+len(compHet) == 0 {
		return singles, compHet, nil
	}

	needed := make(map[tables.Key]bool, len(singles)+len(compHet))
	for _, row := range singles {
		needed[row.Key()] = true
	}
	for _, row := range compHet {
		needed[row.Key()] = true
	}

	name := annotationsTableName(q.params.cfg.dataType)
	plan, err := q.svc.store.ReadTable(name)
	if err != nil {
		if errors.Is(err, tabular.ErrTableNotFound) {
			return nil, nil, errors.Wrapf(ErrNotFound, "annotations are not loaded for %s", q.params.cfg.dataType)
		}
		return nil, nil, err
	}
	q.annotationGlobals = plan.Globals()

	annotated, err := plan.
		Filter(func(row *tables.VariantRow) bool { return needed[row.Key()] }).
		Collect(ctx)
	if err != nil {
		return nil, nil, err
	}

	byKey := make(map[tables.Key]*tables.VariantRow, len(annotated))
	for _, row := range annotated {
		byKey[row.Key()] = row
	}

	return copyAnnotations(singles, byKey), copyAnnotations(compHet, byKey), nil
}

func copyAnnotations(rows []*tables.VariantRow, byKey map[tables.Key]*tables.VariantRow) []*tables.VariantRow {
	var out []*tables.VariantRow
	for _, row := range rows {
		annotation, ok := byKey[row.Key()]
		if !ok {
			continue
		}
		row.VariantId = annotation.VariantId
		row.Chrom = annotation.Chrom
		row.Pos = annotation.Pos
		row.Rsid = annotation.Rsid
		row.SortedTranscripts = annotation.SortedTranscripts
		row.Clinvar = annotation.Clinvar
		row.Hgmd = annotation.Hgmd
		row.Populations = annotation.Populations
		row.Predictions = annotation.Predictions
		row.Payload = annotation.Payload
		if row.Chrom == "" || row.Pos == 0 {
			row.Chrom, row.Pos = chromosome.FromXpos(row.Xpos)
		}
		if row.VariantId == "" {
			row.VariantId = strings.Join([]string{row.Chrom, strconv.Itoa(row.Pos), row.Ref, row.Alt}, "-")
		}
		out = append(out, row)
	}
	return out
}

// allowedConsequences is the request's consequence term filter
// resolved to enum ids: ids allowed on any transcript, and ids
// allowed only on canonical transcripts.
type allowedConsequences struct {
	any       map[int]bool
	canonical map[int]bool
}

func (a *allowedConsequences) transcriptMatches(tc *tables.TranscriptConsequence) bool {
	if a == nil {
		return false
	}
	for _, id := range tc.ConsequenceTermIds {
		if a.any[id] {
			return true
		}
		if tc.Canonical != 0 && a.canonical[id] {
			return true
		}
	}
	return false
}

// resolveConsequences maps requested term names onto the annotation
// table's consequence enum. Terms suffixed __canonical only admit
// canonical transcripts; unknown terms carry no constraint.
func (q *query) resolveConsequences(terms map[string]bool) *allowedConsequences {
	if len(terms) == 0 {
		return nil
	}
	enumLookup := q.annotationGlobals.EnumLookup(transcriptsEnumField, consequenceTermKey)

	allowed := &allowedConsequences{any: map[int]bool{}, canonical: map[int]bool{}}
	for term := range terms {
		canonicalOnly := strings.HasSuffix(term, canonicalTermSuffix)
		id, ok := enumLookup[strings.TrimSuffix(term, canonicalTermSuffix)]
		if !ok {
			continue
		}
		if canonicalOnly {
			allowed.canonical[id] = true
		} else {
			allowed.any[id] = true
		}
	}
	// a term requested plainly subsumes its canonical variant
	for id := range allowed.any {
		delete(allowed.canonical, id)
	}
	if len(allowed.any) == 0 && len(allowed.canonical) == 0 {
		return nil
	}
	return allowed
}

// pathOverrideMatcher reports whether a row's pathogenicity
// classification falls inside the requested significance ranges.
type pathOverrideMatcher func(*tables.VariantRow) bool

// pathOverrideMatchers builds the classification-source override
// matchers for the requested pathogenicity terms, using merged
// contiguous enum id ranges.
func (q *query) pathOverrideMatchers() []pathOverrideMatcher {
	var matchers []pathOverrideMatcher

	if terms := termSet(q.params.pathogenicity.clinvarFilters); len(terms) > 0 {
		ranges := buildPathRanges(clinvar.PathRanges, terms, q.annotationGlobals.EnumLookup(clinvarEnumField, clinvarEnumKey))
		if len(ranges) > 0 {
			matchers = append(matchers, func(row *tables.VariantRow) bool {
				return row.Clinvar != nil && matchesPathRanges(row.Clinvar.PathogenicityId, ranges)
			})
		}
	}

	if q.params.cfg.dataType == dataType.SnvIndel {
		if terms := termSet(q.params.pathogenicity.hgmdFilters); len(terms) > 0 {
			ranges := buildPathRanges(hgmd.PathRanges, terms, q.annotationGlobals.EnumLookup(hgmdEnumField, hgmdEnumKey))
			if len(ranges) > 0 {
				matchers = append(matchers, func(row *tables.VariantRow) bool {
					return row.Hgmd != nil && matchesPathRanges(row.Hgmd.ClassId, ranges)
				})
			}
		}
	}
	return matchers
}

// clinvarPathMatcher matches rows classified at the requested
// pathogenic-or-likely significances, used as the frequency filter
// carve-out.
func (q *query) clinvarPathMatcher() pathOverrideMatcher {
	terms := map[string]bool{}
	for _, f := range q.params.pathogenicity.clinvarFilters {
		if f == clinvar.PathFilter || f == clinvar.LikelyPathFilter {
			terms[f] = true
		}
	}
	if len(terms) == 0 {
		return nil
	}
	ranges := buildPathRanges(clinvar.PathRanges, terms, q.annotationGlobals.EnumLookup(clinvarEnumField, clinvarEnumKey))
	if len(ranges) == 0 {
		return nil
	}
	return func(row *tables.VariantRow) bool {
		return row.Clinvar != nil && matchesPathRanges(row.Clinvar.PathogenicityId, ranges)
	}
}

func termSet(filters []string) map[string]bool {
	if len(filters) == 0 {
		return nil
	}
	terms := make(map[string]bool, len(filters))
	for _, f := range filters {
		terms[f] = true
	}
	return terms
}

// filterAnnotatedRows applies the annotation-level request filters:
// consequence terms (with pathogenicity overrides), population
// frequencies (with the pathogenic carve-out), and in-silico scores.
// Compound het candidates admit the secondary consequence terms too;
// the pairing step enforces that each pair covers the primary terms.
func (q *query) filterAnnotatedRows(rows []*tables.VariantRow, compHet bool) []*tables.VariantRow {
	if len(rows) == 0 {
		return rows
	}

	var terms map[string]bool
	if q.params.annotations != nil {
		terms = map[string]bool{}
		for term := range q.params.annotations.terms {
			terms[term] = true
		}
		if compHet {
			for term := range q.params.annotations.secondaryTerms {
				terms[term] = true
			}
		}
	}
	consequences := q.resolveConsequences(terms)
	overrides := q.pathOverrideMatchers()
	hasAnnotationFilter := q.params.annotations != nil || !q.params.pathogenicity.empty()
	freqOverride := q.clinvarPathMatcher()

	var out []*tables.VariantRow
	for _, row := range rows {
		if hasAnnotationFilter && !matchesAnnotations(row, consequences, overrides) {
			continue
		}
		if !q.passesFrequencies(row, freqOverride) {
			continue
		}
		if !q.passesInSilico(row) {
			continue
		}
		out = append(out, row)
	}
	return out
}

func matchesAnnotations(row *tables.VariantRow, consequences *allowedConsequences, overrides []pathOverrideMatcher) bool {
	if consequences != nil {
		for i := range row.SortedTranscripts {
			if consequences.transcriptMatches(&row.SortedTranscripts[i]) {
				return true
			}
		}
	}
	for _, matches := range overrides {
		if matches(row) {
			return true
		}
	}
	return false
}

func (q *query) passesFrequencies(row *tables.VariantRow, override pathOverrideMatcher) bool {
	if len(q.params.freq) == 0 {
		return true
	}
	for population, limits := range q.params.freq {
		stat, ok := row.Populations[population]
		if !ok {
			continue
		}
		af := stat.Af
		if stat.FilterAf > 0 {
			af = stat.FilterAf
		}
		if (limits.Af > 0 && af > limits.Af) ||
			(limits.Ac > 0 && stat.Ac > limits.Ac) ||
			(limits.Hh > 0 && stat.Hom+stat.Hemi > limits.Hh) {
			// known pathogenic classifications are exempt from
			// frequency limits
			return override != nil && override(row)
		}
	}
	return true
}

func (q *query) passesInSilico(row *tables.VariantRow) bool {
	params := q.params.inSilico
	if params == nil {
		return true
	}

	hadScore := false
	for predictor, cutoff := range params.numeric {
		raw, ok := row.Predictions[predictor]
		if !ok {
			continue
		}
		score, ok := asFloat(raw)
		if !ok {
			continue
		}
		hadScore = true
		if score >= cutoff {
			return true
		}
	}
	for predictor, expected := range params.categorical {
		raw, ok := row.Predictions[predictor]
		if !ok {
			continue
		}
		value, ok := raw.(string)
		if !ok {
			continue
		}
		hadScore = true
		if strings.EqualFold(value, expected) {
			return true
		}
	}

	// rows with no score at all are only dropped when scores were
	// explicitly required
	return !hadScore && !params.requireScore
}

func asFloat(raw interface{}) (float64, bool) {
	switch value := raw.(type) {
	case float64:
		return value, true
	case int:
		return float64(value), true
	case string:
		parsed, err := strconv.ParseFloat(value, 64)
		return parsed, err == nil
	default:
		return 0, false
	}
}
