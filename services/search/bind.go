package search

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/xbrowse/xbrowse/models/constants"
	"github.com/xbrowse/xbrowse/models/constants/chromosome"
	"github.com/xbrowse/xbrowse/models/constants/genotype"
	"github.com/xbrowse/xbrowse/models/constants/inheritance"
	"github.com/xbrowse/xbrowse/models/tables"
	"github.com/xbrowse/xbrowse/repositories/tabular"
	"github.com/xbrowse/xbrowse/utils"
)

func projectTableName(dt constants.DataType, st constants.SampleType, projectGuid string) string {
	return fmt.Sprintf("%s/projects/%s/%s", dt, st, projectGuid)
}

func annotationsTableName(dt constants.DataType) string {
	return fmt.Sprintf("%s/annotations", dt)
}

func clinvarPathTableName(dt constants.DataType) string {
	return fmt.Sprintf("%s/clinvar_path_variants", dt)
}

func lookupTableName(dt constants.DataType) string {
	return fmt.Sprintf("%s/lookup", dt)
}

// protocolPipeline runs one sequencing protocol up to (but not
// including) the cross-protocol merge: read project tables, bind
// request families, prefilter rows, and judge the per-family quality
// and inheritance verdicts.
func (q *query) protocolPipeline(ctx context.Context, st constants.SampleType, prefilter *prefilterTable) ([]*tables.VariantRow, []string, error) {
	defer utils.LogElapsed(fmt.Sprintf("%s %s scan", q.params.cfg.dataType, st), time.Now())

	table, familyGuids, err := q.readProtocolTables(st)
	if err != nil || table == nil {
		return nil, nil, err
	}

	quality := q.newQualityEvaluator(st, prefilter)
	inherit := newInheritanceEvaluator(q.params)

	if q.params.mode == inheritance.XLinked {
		table = table.Filter(func(row *tables.VariantRow) bool {
			chrom, _ := chromosome.FromXpos(row.Xpos)
			return chrom == "X"
		})
	}

	table = table.Annotate(func(row *tables.VariantRow) {
		state := row.Protocol[st]
		state.PassesQuality = quality.verdicts(row, state)
		if q.params.hasSingleVariantSearch() {
			state.PassesInheritance = inherit.verdicts(state.FamilyEntries, q.params.mode)
		}
		if q.params.hasCompHetSearch() {
			state.PassesCompHet = inherit.verdicts(state.FamilyEntries, inheritance.CompoundHet)
		}
	})

	rows, err := table.Collect(ctx)
	if err != nil {
		return nil, nil, err
	}
	return rows, familyGuids, nil
}

// readProtocolTables opens and binds every loaded project table for
// one protocol, returning a single plan whose rows carry the
// protocol's staged family entries, plus the sorted family slot
// order. A nil table means the protocol contributes nothing.
func (q *query) readProtocolTables(st constants.SampleType) (*tabular.Table, []string, error) {
	projects := q.params.projects[st]
	if len(projects) == 0 {
		return nil, nil, nil
	}

	type projectBinding struct {
		table    *tabular.Table
		globals  *tables.Globals
		families []boundFamily
	}

	var bound []projectBinding
	for _, project := range projects {
		name := projectTableName(q.params.cfg.dataType, st, project.projectGuid)

		opts := []tabular.ReadOption{tabular.WithPartitionHint(q.svc.cfg.Datasets.MaxPartitions)}
		if q.params.loadIntervals != nil {
			opts = append(opts, tabular.WithIntervals(q.params.loadIntervals))
		}

		table, err := q.svc.store.ReadTable(name, opts...)
		if err != nil {
			if errors.Is(err, tabular.ErrTableNotFound) {
				// unloaded projects contribute nothing
				fmt.Printf("[%s] - no %s table loaded for project %s\n",
					time.Now().Format(time.RFC3339), st, project.projectGuid)
				continue
			}
			return nil, nil, err
		}

		globals := table.Globals()
		var present []boundFamily
		for _, family := range project.families {
			if len(globals.FamilySamples[family.familyGuid]) > 0 {
				present = append(present, family)
			}
		}
		if len(present) == 0 {
			continue
		}
		bound = append(bound, projectBinding{table: table, globals: globals, families: present})
	}
	if len(bound) == 0 {
		return nil, nil, nil
	}

	// slot order is sorted by family id so both protocols produce
	// identical layouts for any shared family set
	var familyGuids []string
	seen := map[string]bool{}
	for _, binding := range bound {
		for _, family := range binding.families {
			if seen[family.familyGuid] {
				return nil, nil, errors.Errorf("family %s is loaded in multiple %s projects", family.familyGuid, st)
			}
			seen[family.familyGuid] = true
			familyGuids = append(familyGuids, family.familyGuid)
		}
	}
	sort.Strings(familyGuids)
	slotIndex := make(map[string]int, len(familyGuids))
	for i, guid := range familyGuids {
		slotIndex[guid] = i
	}

	locus := q.locusPredicate()
	var combined *tabular.Table
	for _, binding := range bound {
		projectTable := binding.table.
			Annotate(bindFamilyEntries(st, binding.globals, binding.families, slotIndex, len(familyGuids))).
			Filter(anyNonRefEntry).
			Filter(locus)
		if combined == nil {
			combined = projectTable
		} else {
			combined = combined.OuterJoin(projectTable, mergeFamilySlots)
		}
	}

	combined = combined.Annotate(func(row *tables.VariantRow) {
		row.Protocol = map[constants.SampleType]*tables.ProtocolState{
			st: {FamilyEntries: row.FamilyEntries, Filters: row.Filters},
		}
	})
	return combined, familyGuids, nil
}

// bindFamilyEntries rewrites a stored row's family entries into the
// protocol-wide slot layout, decorating each call with the request's
// pedigree metadata. Slots for families the row does not carry stay
// nil.
func bindFamilyEntries(st constants.SampleType, globals *tables.Globals, families []boundFamily, slotIndex map[string]int, width int) func(*tables.VariantRow) {
	storedFamilyIdx := make(map[string]int, len(globals.FamilyGuids))
	for i, guid := range globals.FamilyGuids {
		storedFamilyIdx[guid] = i
	}

	type familyBinding struct {
		familyGuid string
		slot       int
		storedIdx  int
		sampleIds  []string
		samples    map[string]boundSample
	}
	bindings := make([]familyBinding, 0, len(families))
	for _, family := range families {
		storedIdx, ok := storedFamilyIdx[family.familyGuid]
		if !ok {
			continue
		}
		samples := make(map[string]boundSample, len(family.samples))
		for _, sample := range family.samples {
			samples[sample.meta.SampleId] = sample
		}
		bindings = append(bindings, familyBinding{
			familyGuid: family.familyGuid,
			slot:       slotIndex[family.familyGuid],
			storedIdx:  storedIdx,
			sampleIds:  globals.FamilySamples[family.familyGuid],
			samples:    samples,
		})
	}

	return func(row *tables.VariantRow) {
		slots := make([][]tables.SampleEntry, width)
		for _, binding := range bindings {
			var stored []tables.SampleEntry
			if binding.storedIdx < len(row.FamilyEntries) {
				stored = row.FamilyEntries[binding.storedIdx]
			}

			entries := make([]tables.SampleEntry, 0, len(binding.sampleIds))
			for _, sampleId := range binding.sampleIds {
				sample, requested := binding.samples[sampleId]
				if !requested {
					continue
				}
				entry := tables.SampleEntry{SampleId: sampleId, NumAlt: genotype.Missing}
				for idx := range stored {
					if stored[idx].SampleId == sampleId {
						entry = stored[idx]
						break
					}
				}
				entry.SampleType = st
				entry.FamilyGuid = binding.familyGuid
				entry.IndividualGuid = sample.meta.IndividualGuid
				entry.Affected = sample.affected
				entry.Sex = sample.sex
				entries = append(entries, entry)
			}
			if len(entries) == 0 {
				continue
			}
			slots[binding.slot] = entries
		}
		row.FamilyEntries = slots
	}
}

// mergeFamilySlots combines two projects' bound rows for the same
// key. Projects carry disjoint families, so each slot is filled by
// at most one side.
func mergeFamilySlots(left, right *tables.VariantRow) *tables.VariantRow {
	if left == nil {
		return right
	}
	if right == nil {
		return left
	}
	out := *left
	slots := make([][]tables.SampleEntry, len(left.FamilyEntries))
	copy(slots, left.FamilyEntries)
	for i, entries := range right.FamilyEntries {
		if entries != nil {
			slots[i] = entries
		}
	}
	out.FamilyEntries = slots
	out.Filters = utils.UniqueStrings(append(append([]string{}, left.Filters...), right.Filters...))
	return &out
}

func anyNonRefEntry(row *tables.VariantRow) bool {
	for _, entries := range row.FamilyEntries {
		for i := range entries {
			if entries[i].NumAlt > 0 {
				return true
			}
		}
	}
	return false
}

func (q *query) locusPredicate() func(*tables.VariantRow) bool {
	params := q.params
	return func(row *tables.VariantRow) bool {
		if params.variantKeys != nil || params.rsIds != nil {
			matched := params.variantKeys[row.Key()]
			if !matched && params.rsIds[row.Rsid] {
				matched = true
			}
			if !matched {
				return false
			}
		}
		if params.intervals != nil {
			inside := params.intervals.Contains(row.Xpos)
			if params.excludeIntervals {
				if inside {
					return false
				}
			} else if !inside {
				return false
			}
		}
		return true
	}
}
