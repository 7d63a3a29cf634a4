package search

import (
	"sort"

	"github.com/xbrowse/xbrowse/models/constants/clinvar"
	dataType "github.com/xbrowse/xbrowse/models/constants/data-type"
	sortConstants "github.com/xbrowse/xbrowse/models/constants/sort"
	"github.com/xbrowse/xbrowse/models/dtos"
	"github.com/xbrowse/xbrowse/models/tables"
)

// absentSortValue ranks rows with no value for a sort field after
// every row carrying a real one.
const absentSortValue = float64(1 << 40)

// formatResults projects the admitted rows and pairs into the
// response shape, computes sort keys, orders the page and truncates
// it. A pair whose members are both already admitted standalone is
// elided.
func (q *query) formatResults(singles []*tables.VariantRow, pairs []*variantPair) ([]dtos.SearchResult, int, error) {
	singleKeys := make(map[tables.Key]bool, len(singles))
	for _, row := range singles {
		singleKeys[row.Key()] = true
	}

	var results []dtos.SearchResult
	for _, row := range singles {
		results = append(results, dtos.SearchResult{Variant: q.formatVariant(row, nil)})
	}
	for _, pair := range pairs {
		if singleKeys[pair.first.Key()] && singleKeys[pair.second.Key()] {
			continue
		}
		first := q.formatVariant(pair.first, pair)
		second := q.formatVariant(pair.second, pair)
		if sortValuesLess(second.SortValues, first.SortValues) {
			first, second = second, first
		}
		results = append(results, dtos.SearchResult{Pair: []*dtos.VariantResult{first, second}})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return sortValuesLess(resultSortValues(results[i]), resultSortValues(results[j]))
	})

	total := len(results)
	if total > q.params.numResults {
		results = results[:q.params.numResults]
	}
	return results, total, nil
}

func resultSortValues(result dtos.SearchResult) []float64 {
	if result.Pair != nil {
		return result.Pair[0].SortValues
	}
	return result.Variant.SortValues
}

// sortValuesLess compares sort tuples lexicographically; a missing
// trailing element ranks the shorter tuple first on ties.
func sortValuesLess(a, b []float64) bool {
	for i := range a {
		if i >= len(b) {
			return false
		}
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

func (q *query) formatVariant(row *tables.VariantRow, pair *variantPair) *dtos.VariantResult {
	selected := q.selectTranscript(row, pair)

	result := &dtos.VariantResult{
		VariantId:   row.VariantId,
		Chrom:       row.Chrom,
		Pos:         row.Pos,
		Ref:         row.Ref,
		Alt:         row.Alt,
		Xpos:        row.Xpos,
		GenomeBuild: string(q.svc.build),
		Rsid:        row.Rsid,

		FamilyGuids: row.FamilyGuids(),
		Genotypes:   q.formatGenotypes(row),

		Transcripts: transcriptsByGene(row),

		Clinvar:         row.Clinvar,
		Hgmd:            row.Hgmd,
		Populations:     row.Populations,
		Predictions:     row.Predictions,
		GenotypeFilters: row.Filters,
		Payload:         row.Payload,
	}
	if len(row.SortedTranscripts) > 0 {
		result.MainTranscriptId = row.SortedTranscripts[0].TranscriptId
		if selected != nil && selected.TranscriptId != result.MainTranscriptId {
			result.SelectedMainTranscriptId = selected.TranscriptId
		}
	}
	result.SortValues = q.sortValues(row, selected)
	return result
}

func (q *query) formatGenotypes(row *tables.VariantRow) map[string][]dtos.GenotypeResult {
	out := map[string][]dtos.GenotypeResult{}
	for _, entries := range row.FamilyEntries {
		for i := range entries {
			entry := &entries[i]
			metrics := map[string]float64{}
			for responseKey, metric := range q.params.cfg.genotypeFields {
				if value, ok := entry.Metric(metric); ok {
					metrics[responseKey] = value
				}
			}
			out[entry.FamilyGuid] = append(out[entry.FamilyGuid], dtos.GenotypeResult{
				SampleId:       entry.SampleId,
				SampleType:     string(entry.SampleType),
				IndividualGuid: entry.IndividualGuid,
				FamilyGuid:     entry.FamilyGuid,
				NumAlt:         entry.NumAlt,
				Metrics:        metrics,
			})
		}
	}
	return out
}

func transcriptsByGene(row *tables.VariantRow) map[string][]tables.TranscriptConsequence {
	out := map[string][]tables.TranscriptConsequence{}
	for _, tc := range row.SortedTranscripts {
		if tc.GeneId == "" {
			continue
		}
		out[tc.GeneId] = append(out[tc.GeneId], tc)
	}
	return out
}

// selectTranscript picks the representative transcript: candidates
// restricted to the pair's shared genes (or the requested genes),
// preferring a transcript satisfying the consequence terms, with the
// secondary terms as a pair-only fallback, and the severity-ordered
// first transcript as the default.
func (q *query) selectTranscript(row *tables.VariantRow, pair *variantPair) *tables.TranscriptConsequence {
	if len(row.SortedTranscripts) == 0 {
		return nil
	}

	geneContext := q.params.geneIds
	if pair != nil {
		geneContext = pair.geneIds
	}
	var candidates []*tables.TranscriptConsequence
	if len(geneContext) > 0 {
		for i := range row.SortedTranscripts {
			if geneContext[row.SortedTranscripts[i].GeneId] {
				candidates = append(candidates, &row.SortedTranscripts[i])
			}
		}
	}

	allowed := q.allowedTranscripts(row, pair)

	switch {
	case len(candidates) > 0 && len(allowed) > 0:
		allowedIds := map[string]bool{}
		for _, tc := range allowed {
			allowedIds[tc.TranscriptId] = true
		}
		for _, tc := range candidates {
			if allowedIds[tc.TranscriptId] {
				return tc
			}
		}
		return candidates[0]
	case len(candidates) > 0:
		return candidates[0]
	case len(allowed) > 0:
		return allowed[0]
	default:
		return &row.SortedTranscripts[0]
	}
}

// allowedTranscripts lists the row's transcripts satisfying the
// primary consequence terms. Pairs fall back to the secondary terms
// only when no transcript satisfies the primary ones.
func (q *query) allowedTranscripts(row *tables.VariantRow, pair *variantPair) []*tables.TranscriptConsequence {
	if q.params.annotations == nil {
		return nil
	}
	allowed := transcriptsMatching(row, q.resolveConsequences(q.params.annotations.terms))
	if len(allowed) == 0 && pair != nil {
		allowed = transcriptsMatching(row, q.resolveConsequences(q.params.annotations.secondaryTerms))
	}
	return allowed
}

func transcriptsMatching(row *tables.VariantRow, consequences *allowedConsequences) []*tables.TranscriptConsequence {
	if consequences == nil {
		return nil
	}
	var out []*tables.TranscriptConsequence
	for i := range row.SortedTranscripts {
		if consequences.transcriptMatches(&row.SortedTranscripts[i]) {
			out = append(out, &row.SortedTranscripts[i])
		}
	}
	return out
}

// sortValues computes the ordered sort tuple for one row. Every key
// ends on genomic position so the page order is total.
func (q *query) sortValues(row *tables.VariantRow, selected *tables.TranscriptConsequence) []float64 {
	var values []float64

	switch q.params.sortKey {
	case sortConstants.ProteinConsequence:
		values = append(values, minConsequenceId(row.SortedTranscripts), selectedConsequenceId(selected))
	case sortConstants.Pathogenicity:
		values = append(values, clinvarSortValue(row.Clinvar))
		if q.params.cfg.dataType == dataType.SnvIndel {
			if row.Hgmd != nil && row.Hgmd.ClassId != nil {
				values = append(values, float64(*row.Hgmd.ClassId))
			} else {
				values = append(values, absentSortValue)
			}
		}
	case sortConstants.InOmim:
		omim := q.svc.reference.OmimGenes()
		values = append(values, geneSetSortValue(selected, omim), anyGeneSetSortValue(row, omim))
	case sortConstants.Constraint:
		ranks := q.svc.reference.ConstraintRanks()
		values = append(values, geneRankSortValue(selected, ranks), minGeneRank(row, ranks))
	case sortConstants.PrioritizedGene:
		ranks := q.sortMetaRanks()
		values = append(values, geneRankSortValue(selected, ranks), minGeneRank(row, ranks))
	case sortConstants.Gnomad:
		values = append(values, populationAfSortValue(row, "gnomad", "gnomad_mito"))
	case sortConstants.CallsetAf:
		values = append(values, populationAfSortValue(row, "seqr"))
	case sortConstants.Size:
		values = append(values, float64(-abs(len(row.Ref)-len(row.Alt))))
	default:
		if prediction, ok := row.Predictions[string(q.params.sortKey)]; q.params.sortKey != sortConstants.Xpos && ok {
			if score, isNumber := asFloat(prediction); isNumber {
				// higher scores rank earlier
				values = append(values, -score)
			} else {
				values = append(values, absentSortValue)
			}
		} else if q.params.sortKey != sortConstants.Xpos {
			values = append(values, absentSortValue)
		}
	}

	return append(values, float64(row.Xpos))
}

func (q *query) sortMetaRanks() map[string]int {
	ranks := map[string]int{}
	for geneId, raw := range q.params.sortMeta {
		if rank, ok := asFloat(raw); ok {
			ranks[geneId] = int(rank)
		}
	}
	return ranks
}

func clinvarSortValue(annotation *tables.ClinvarAnnotation) float64 {
	if annotation == nil || annotation.PathogenicityId == nil {
		return clinvar.AbsentPathSortOffset
	}
	return float64(*annotation.PathogenicityId)
}

func minConsequenceId(transcripts []tables.TranscriptConsequence) float64 {
	min := absentSortValue
	for _, tc := range transcripts {
		for _, id := range tc.ConsequenceTermIds {
			if float64(id) < min {
				min = float64(id)
			}
		}
	}
	return min
}

func selectedConsequenceId(selected *tables.TranscriptConsequence) float64 {
	if selected == nil {
		return absentSortValue
	}
	min := absentSortValue
	for _, id := range selected.ConsequenceTermIds {
		if float64(id) < min {
			min = float64(id)
		}
	}
	return min
}

func geneSetSortValue(selected *tables.TranscriptConsequence, genes map[string]bool) float64 {
	if selected != nil && genes[selected.GeneId] {
		return 0
	}
	return 1
}

func anyGeneSetSortValue(row *tables.VariantRow, genes map[string]bool) float64 {
	for _, geneId := range row.GeneIds() {
		if genes[geneId] {
			return 0
		}
	}
	return 1
}

func geneRankSortValue(selected *tables.TranscriptConsequence, ranks map[string]int) float64 {
	if selected != nil {
		if rank, ok := ranks[selected.GeneId]; ok {
			return float64(rank)
		}
	}
	return absentSortValue
}

func minGeneRank(row *tables.VariantRow, ranks map[string]int) float64 {
	min := absentSortValue
	for _, geneId := range row.GeneIds() {
		if rank, ok := ranks[geneId]; ok && float64(rank) < min {
			min = float64(rank)
		}
	}
	return min
}

func populationAfSortValue(row *tables.VariantRow, populations ...string) float64 {
	for _, population := range populations {
		if stat, ok := row.Populations[population]; ok {
			return stat.Af
		}
	}
	return absentSortValue
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
