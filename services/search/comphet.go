package search

import (
	"sort"

	affectedStatus "github.com/xbrowse/xbrowse/models/constants/affected-status"
	"github.com/xbrowse/xbrowse/models/constants/genotype"
	"github.com/xbrowse/xbrowse/models/tables"
	"github.com/xbrowse/xbrowse/utils"
)

// variantPair is one compound heterozygous candidate: two variants in
// a shared gene whose member rows are trimmed to the families valid
// for the pair.
type variantPair struct {
	first   *tables.VariantRow
	second  *tables.VariantRow
	geneIds map[string]bool
}

// pairCompoundHets pairs the comp-het candidate rows by shared gene.
// A family joins a pair when it is admitted on both members, passes
// quality on both members (deferred from admission), and none of its
// unaffected members carry both variants. Candidates with no partner
// are never returned on their own.
func (q *query) pairCompoundHets(m *mergedRows, rows []*tables.VariantRow) ([]*variantPair, error) {
	if len(rows) < 2 {
		return nil, nil
	}

	sort.Slice(rows, func(i, j int) bool { return rowKeyLess(rows[i], rows[j]) })
	primary := q.primaryMatches(rows)

	byGene := map[string][]*tables.VariantRow{}
	for _, row := range rows {
		for _, geneId := range row.GeneIds() {
			byGene[geneId] = append(byGene[geneId], row)
		}
	}

	seen := map[[2]tables.Key]bool{}
	var pairs []*variantPair
	for _, geneId := range utils.SortedStringKeys(byGene) {
		group := byGene[geneId]
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				first, second := group[i], group[j]
				pairKey := [2]tables.Key{first.Key(), second.Key()}
				if seen[pairKey] {
					continue
				}
				// at least one member must satisfy the primary
				// consequence terms
				if !primary[first] && !primary[second] {
					continue
				}
				families := q.pairFamilies(m, first, second)
				if len(families) == 0 {
					continue
				}
				seen[pairKey] = true
				pairs = append(pairs, &variantPair{
					first:   trimFamilies(first, families),
					second:  trimFamilies(second, families),
					geneIds: sharedGenes(first, second),
				})
			}
		}
	}
	return pairs, nil
}

// primaryMatches flags the rows satisfying the primary consequence
// terms (or a pathogenicity override). Without secondary terms every
// admitted row already did.
func (q *query) primaryMatches(rows []*tables.VariantRow) map[*tables.VariantRow]bool {
	out := make(map[*tables.VariantRow]bool, len(rows))
	if q.params.annotations == nil || len(q.params.annotations.secondaryTerms) == 0 {
		for _, row := range rows {
			out[row] = true
		}
		return out
	}

	consequences := q.resolveConsequences(q.params.annotations.terms)
	overrides := q.pathOverrideMatchers()
	for _, row := range rows {
		out[row] = matchesAnnotations(row, consequences, overrides)
	}
	return out
}

func (q *query) pairFamilies(m *mergedRows, first, second *tables.VariantRow) map[string]bool {
	firstEntries := familyEntriesByGuid(first)
	secondEntries := familyEntriesByGuid(second)

	families := map[string]bool{}
	for guid := range firstEntries {
		if _, ok := secondEntries[guid]; !ok {
			continue
		}
		if !m.familyPassesQuality(first, guid) || !m.familyPassesQuality(second, guid) {
			continue
		}
		if unaffectedCarriesBoth(firstEntries[guid], secondEntries[guid]) {
			continue
		}
		families[guid] = true
	}
	return families
}

// unaffectedCarriesBoth reports whether any unaffected family member
// carries both variants, which rules out complementary parental
// origin for the pair.
func unaffectedCarriesBoth(first, second [][]tables.SampleEntry) bool {
	carriers := map[string]bool{}
	for _, entries := range first {
		for i := range entries {
			entry := &entries[i]
			if entry.Affected == affectedStatus.Unaffected && entry.IsCalled() && entry.NumAlt > genotype.RefRef {
				carriers[entry.IndividualGuid] = true
			}
		}
	}
	for _, entries := range second {
		for i := range entries {
			entry := &entries[i]
			if entry.Affected == affectedStatus.Unaffected && entry.IsCalled() && entry.NumAlt > genotype.RefRef &&
				carriers[entry.IndividualGuid] {
				return true
			}
		}
	}
	return false
}

func familyEntriesByGuid(row *tables.VariantRow) map[string][][]tables.SampleEntry {
	out := map[string][][]tables.SampleEntry{}
	for _, entries := range row.FamilyEntries {
		if len(entries) == 0 {
			continue
		}
		guid := entries[0].FamilyGuid
		out[guid] = append(out[guid], entries)
	}
	return out
}

func trimFamilies(row *tables.VariantRow, families map[string]bool) *tables.VariantRow {
	copied := *row
	copied.FamilyEntries = nil
	for _, entries := range row.FamilyEntries {
		if len(entries) > 0 && families[entries[0].FamilyGuid] {
			copied.FamilyEntries = append(copied.FamilyEntries, entries)
		}
	}
	return &copied
}

func sharedGenes(first, second *tables.VariantRow) map[string]bool {
	firstGenes := map[string]bool{}
	for _, geneId := range first.GeneIds() {
		firstGenes[geneId] = true
	}
	out := map[string]bool{}
	for _, geneId := range second.GeneIds() {
		if firstGenes[geneId] {
			out[geneId] = true
		}
	}
	return out
}
