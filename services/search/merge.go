package search

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/xbrowse/xbrowse/models/constants"
	"github.com/xbrowse/xbrowse/models/tables"
	"github.com/xbrowse/xbrowse/utils"
)

/*
	Cross-protocol merge. Each staged protocol carries its own family
	slot layout and per-slot verdicts; the merge outer-joins the
	protocols on variant key and admits each family's entries with the
	either-protocol rule: a verdict missing on one protocol defers to
	the other, and is never read as a failure.
*/

// mergedRows is the joined dual-protocol view plus the family index
// map used to align per-family verdicts across protocol layouts.
type mergedRows struct {
	protocols []constants.SampleType

	// familyIndex maps familyGuid -> protocol -> slot in that
	// protocol's family layout; a family loaded under one protocol
	// only is absent from the other protocol's branch
	familyIndex map[string]map[constants.SampleType]int

	rows []*tables.VariantRow
}

func mergeProtocols(staged []*protocolRows) (*mergedRows, error) {
	m := &mergedRows{familyIndex: map[string]map[constants.SampleType]int{}}

	widths := map[constants.SampleType]int{}
	for _, p := range staged {
		m.protocols = append(m.protocols, p.sampleType)
		widths[p.sampleType] = len(p.familyGuids)
		for i, guid := range p.familyGuids {
			byProtocol, ok := m.familyIndex[guid]
			if !ok {
				byProtocol = map[constants.SampleType]int{}
				m.familyIndex[guid] = byProtocol
			}
			byProtocol[p.sampleType] = i
		}
	}

	if len(staged) == 1 {
		m.rows = staged[0].rows
	} else {
		m.rows = outerJoinRows(staged)
	}

	// positional verdicts are only safe if every state matches its
	// protocol's layout
	for _, row := range m.rows {
		for st, state := range row.Protocol {
			if state == nil {
				continue
			}
			if len(state.FamilyEntries) != widths[st] ||
				len(state.PassesQuality) != widths[st] ||
				(state.PassesInheritance != nil && len(state.PassesInheritance) != widths[st]) ||
				(state.PassesCompHet != nil && len(state.PassesCompHet) != widths[st]) {
				return nil, errors.Errorf("family index map is inconsistent for %s at %s", st, row.VariantId)
			}
		}
	}

	sort.Slice(m.rows, func(i, j int) bool { return rowKeyLess(m.rows[i], m.rows[j]) })
	return m, nil
}

func outerJoinRows(staged []*protocolRows) []*tables.VariantRow {
	byKey := map[tables.Key]*tables.VariantRow{}
	for _, p := range staged {
		for _, row := range p.rows {
			key := row.Key()
			merged, ok := byKey[key]
			if !ok {
				// first protocol carrying the key supplies the row core
				out := *row
				out.FamilyEntries = nil
				out.Filters = nil
				out.Protocol = map[constants.SampleType]*tables.ProtocolState{}
				byKey[key] = &out
				merged = &out
			}
			merged.Protocol[p.sampleType] = row.Protocol[p.sampleType]
		}
	}

	rows := make([]*tables.VariantRow, 0, len(byKey))
	for _, row := range byKey {
		rows = append(rows, row)
	}
	return rows
}

func rowKeyLess(a, b *tables.VariantRow) bool {
	ka, kb := a.Key(), b.Key()
	if ka.Xpos != kb.Xpos {
		return ka.Xpos < kb.Xpos
	}
	if ka.Ref != kb.Ref {
		return ka.Ref < kb.Ref
	}
	return ka.Alt < kb.Alt
}

// verdictSelector picks which verdict column of a protocol state
// drives admission.
type verdictSelector func(*tables.ProtocolState) []bool

// admissionRule pairs the inheritance verdict column with whether
// quality participates at admission time. Compound het candidates
// defer quality to post-pairing so weakly supported members can still
// meet their partner.
type admissionRule struct {
	verdicts     verdictSelector
	applyQuality bool
}

var admitSingles = admissionRule{
	verdicts:     func(state *tables.ProtocolState) []bool { return state.PassesInheritance },
	applyQuality: true,
}

var admitCompHet = admissionRule{
	verdicts:     func(state *tables.ProtocolState) []bool { return state.PassesCompHet },
	applyQuality: false,
}

// admitRows materializes the admitted view of every merged row: a
// family's entries from one protocol are kept when that protocol's
// verdict passed, or when that protocol has no verdict for the family
// and the other protocol's did. Quality and inheritance defer across
// protocols independently. Rows with no admitted family are dropped.
func admitRows(m *mergedRows, rule admissionRule) []*tables.VariantRow {
	var out []*tables.VariantRow
	for _, row := range m.rows {
		var admitted [][]tables.SampleEntry
		var filters []string

		for _, st := range m.protocols {
			state := row.Protocol[st]
			if state == nil {
				continue
			}
			filters = append(filters, state.Filters...)

			for slot, entries := range state.FamilyEntries {
				if len(entries) == 0 {
					continue
				}
				guid := entries[0].FamilyGuid

				passQuality := state.PassesQuality[slot] ||
					m.otherProtocolVerdict(row, st, guid, func(s *tables.ProtocolState) []bool { return s.PassesQuality })
				if !rule.applyQuality {
					passQuality = true
				}
				passInheritance := verdictAt(rule.verdicts(state), slot) ||
					m.otherProtocolVerdict(row, st, guid, rule.verdicts)

				if passQuality && passInheritance {
					admitted = append(admitted, entries)
				}
			}
		}
		if len(admitted) == 0 {
			continue
		}

		copied := *row
		copied.FamilyEntries = admitted
		copied.Filters = utils.UniqueStrings(filters)
		out = append(out, &copied)
	}
	return out
}

// otherProtocolVerdict resolves a family's verdict on every protocol
// except the current one. A family absent from a protocol's layout,
// or a row absent from that protocol's table, contributes no verdict.
func (m *mergedRows) otherProtocolVerdict(row *tables.VariantRow, current constants.SampleType, guid string, verdicts verdictSelector) bool {
	for _, st := range m.protocols {
		if st == current {
			continue
		}
		slot, ok := m.familyIndex[guid][st]
		if !ok {
			continue
		}
		state := row.Protocol[st]
		if state == nil || len(state.FamilyEntries[slot]) == 0 {
			continue
		}
		if verdictAt(verdicts(state), slot) {
			return true
		}
	}
	return false
}

// familyPassesQuality applies the either-protocol quality rule for
// one family on one merged row, used after compound het pairing.
func (m *mergedRows) familyPassesQuality(row *tables.VariantRow, guid string) bool {
	quality := func(state *tables.ProtocolState) []bool { return state.PassesQuality }
	for _, st := range m.protocols {
		slot, ok := m.familyIndex[guid][st]
		if !ok {
			continue
		}
		state := row.Protocol[st]
		if state == nil || len(state.FamilyEntries[slot]) == 0 {
			continue
		}
		if verdictAt(quality(state), slot) {
			return true
		}
	}
	return false
}

func verdictAt(verdicts []bool, slot int) bool {
	return slot < len(verdicts) && verdicts[slot]
}
