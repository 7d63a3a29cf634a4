package search

import (
	"github.com/xbrowse/xbrowse/models/constants"
	affectedStatus "github.com/xbrowse/xbrowse/models/constants/affected-status"
	"github.com/xbrowse/xbrowse/models/constants/genotype"
	"github.com/xbrowse/xbrowse/models/constants/inheritance"
	sexConstants "github.com/xbrowse/xbrowse/models/constants/sex"
	"github.com/xbrowse/xbrowse/models/tables"
)

// inheritanceEvaluator judges per-family genotype configurations
// against an inheritance mode. Per-individual genotype overrides from
// the request replace the mode's default expectation for that
// individual.
type inheritanceEvaluator struct {
	overrides          map[string]constants.GenotypeExpectation
	overrideCompHetAlt bool
}

func newInheritanceEvaluator(params *searchParams) *inheritanceEvaluator {
	return &inheritanceEvaluator{
		overrides:          params.genotypeOverrides,
		overrideCompHetAlt: params.cfg.overrideCompHetAlt,
	}
}

// verdicts judges every family slot. Slots without entries have no
// verdict and stay false.
func (ev *inheritanceEvaluator) verdicts(families [][]tables.SampleEntry, mode constants.InheritanceMode) []bool {
	out := make([]bool, len(families))
	for i, entries := range families {
		if len(entries) == 0 {
			continue
		}
		out[i] = ev.familyPasses(entries, mode)
	}
	return out
}

func (ev *inheritanceEvaluator) familyPasses(entries []tables.SampleEntry, mode constants.InheritanceMode) bool {
	if mode == inheritance.Any {
		return ev.anyAffectedAlt(entries)
	}

	hasAffectedAlt := false
	for i := range entries {
		entry := &entries[i]
		expectation := ev.expectationFor(entry, mode)
		if expectation == genotype.ExpectNone {
			continue
		}

		if !entry.IsCalled() {
			// an uncalled affected genotype cannot evidence the mode;
			// uncalled unaffected genotypes cannot disprove it
			if entry.Affected == affectedStatus.Affected {
				return false
			}
			continue
		}
		if !genotype.Matches(expectation, entry.NumAlt, ev.overrideCompHetAlt) {
			return false
		}
		if entry.Affected == affectedStatus.Affected && entry.NumAlt > genotype.RefRef {
			hasAffectedAlt = true
		}
	}
	return hasAffectedAlt
}

// anyAffectedAlt admits a family when at least one affected member
// carries the variant. Explicit genotype overrides still bind the
// individuals they name.
func (ev *inheritanceEvaluator) anyAffectedAlt(entries []tables.SampleEntry) bool {
	hasAlt := false
	for i := range entries {
		entry := &entries[i]
		if expectation, ok := ev.overrides[entry.IndividualGuid]; ok && entry.IsCalled() {
			if !genotype.Matches(expectation, entry.NumAlt, ev.overrideCompHetAlt) {
				return false
			}
		}
		if entry.Affected == affectedStatus.Affected && entry.IsCalled() && entry.NumAlt > genotype.RefRef {
			hasAlt = true
		}
	}
	return hasAlt
}

func (ev *inheritanceEvaluator) expectationFor(entry *tables.SampleEntry, mode constants.InheritanceMode) constants.GenotypeExpectation {
	if expectation, ok := ev.overrides[entry.IndividualGuid]; ok {
		return expectation
	}

	affected := entry.Affected == affectedStatus.Affected
	unaffected := entry.Affected == affectedStatus.Unaffected

	switch mode {
	case inheritance.DeNovo, inheritance.Dominant:
		if affected {
			return genotype.ExpectHasAlt
		}
		if unaffected {
			return genotype.ExpectRefRef
		}
	case inheritance.Recessive:
		if affected {
			return genotype.ExpectAltAlt
		}
		if unaffected {
			return genotype.ExpectHasRef
		}
	case inheritance.XLinked:
		if affected {
			return genotype.ExpectAltAlt
		}
		if unaffected {
			// hemizygous males cannot be carriers
			if sexConstants.IsMale(entry.Sex) {
				return genotype.ExpectRefRef
			}
			return genotype.ExpectHasRef
		}
	case inheritance.CompoundHet:
		if affected {
			return genotype.ExpectCompHetAlt
		}
		if unaffected {
			return genotype.ExpectHasRef
		}
	}
	return genotype.ExpectNone
}
