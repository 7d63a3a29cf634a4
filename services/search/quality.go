package search

import (
	"sort"

	"github.com/xbrowse/xbrowse/models/constants"
	affectedStatus "github.com/xbrowse/xbrowse/models/constants/affected-status"
	"github.com/xbrowse/xbrowse/models/constants/genotype"
	"github.com/xbrowse/xbrowse/models/tables"
)

// qualityCheck is one resolved metric threshold, already rescaled
// onto the stored value range.
type qualityCheck struct {
	metric  string
	min     float64
	hetOnly bool
}

// qualityEvaluator judges per-family genotype quality for one
// protocol's entries. A loaded pathogenic sidecar overrides failing
// thresholds: known pathogenic variants are never quality filtered.
type qualityEvaluator struct {
	sampleType constants.SampleType
	params     *qualityParams
	checks     []qualityCheck
	prefilter  *prefilterTable
}

func (q *query) newQualityEvaluator(st constants.SampleType, prefilter *prefilterTable) *qualityEvaluator {
	ev := &qualityEvaluator{sampleType: st, params: q.params.quality}
	if ev.params == nil {
		return ev
	}
	ev.prefilter = prefilter

	for key, min := range ev.params.minValues {
		format := q.params.cfg.qualityFormat[key]
		ev.checks = append(ev.checks, qualityCheck{
			metric:  format.metric,
			min:     min / format.scale,
			hetOnly: format.hetOnly,
		})
	}
	sort.Slice(ev.checks, func(i, j int) bool { return ev.checks[i].metric < ev.checks[j].metric })
	return ev
}

// verdicts judges every family slot of one protocol's state on one
// row. Slots without entries have no verdict and stay false; with no
// configured thresholds every present family passes.
func (ev *qualityEvaluator) verdicts(row *tables.VariantRow, state *tables.ProtocolState) []bool {
	out := make([]bool, len(state.FamilyEntries))
	for i, entries := range state.FamilyEntries {
		if len(entries) == 0 {
			continue
		}
		out[i] = ev.familyPasses(row, state, entries)
	}
	return out
}

func (ev *qualityEvaluator) familyPasses(row *tables.VariantRow, state *tables.ProtocolState, entries []tables.SampleEntry) bool {
	if ev.params == nil {
		return true
	}
	if ev.prefilter.Contains(row.Key()) {
		return true
	}
	if ev.params.passOnly && len(state.Filters) > 0 {
		return false
	}

	for i := range entries {
		entry := &entries[i]
		if !entry.IsCalled() {
			continue
		}
		if ev.params.affectedOnly && entry.Affected != affectedStatus.Affected {
			continue
		}
		for _, check := range ev.checks {
			if check.hetOnly && entry.NumAlt != genotype.RefAlt {
				continue
			}
			if value, ok := entry.Metric(check.metric); ok && value < check.min {
				return false
			}
		}
	}
	return true
}
