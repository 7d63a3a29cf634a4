package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	dataType "github.com/xbrowse/xbrowse/models/constants/data-type"
	"github.com/xbrowse/xbrowse/models/constants/genotype"
	sampleType "github.com/xbrowse/xbrowse/models/constants/sample-type"
	"github.com/xbrowse/xbrowse/models/tables"
)

func qualityQuery(dt string, params *qualityParams) *query {
	cfg := configForDataType(dataType.SnvIndel)
	if dt == "MITO" {
		cfg = configForDataType(dataType.Mito)
	}
	return &query{params: &searchParams{cfg: cfg, quality: params}}
}

func withMetrics(entry tables.SampleEntry, metrics map[string]float64) tables.SampleEntry {
	entry.Metrics = metrics
	return entry
}

func stateOf(families ...[]tables.SampleEntry) *tables.ProtocolState {
	return &tables.ProtocolState{FamilyEntries: families}
}

func TestQualityNoThresholdsPassesPresentFamilies(t *testing.T) {
	q := qualityQuery("SNV_INDEL", nil)
	ev := q.newQualityEvaluator(sampleType.Wes, nil)

	state := stateOf(
		[]tables.SampleEntry{affectedEntry("F1", "I1", genotype.RefAlt)},
		nil,
	)
	verdicts := ev.verdicts(&tables.VariantRow{Xpos: 1}, state)
	assert.Equal(t, []bool{true, false}, verdicts)
}

func TestQualityGqThreshold(t *testing.T) {
	q := qualityQuery("SNV_INDEL", &qualityParams{minValues: map[string]float64{"gq": 40}})
	ev := q.newQualityEvaluator(sampleType.Wes, nil)

	row := &tables.VariantRow{Xpos: 1}

	pass := stateOf([]tables.SampleEntry{
		withMetrics(affectedEntry("F1", "I1", genotype.RefAlt), map[string]float64{"GQ": 60}),
	})
	assert.Equal(t, []bool{true}, ev.verdicts(row, pass))

	fail := stateOf([]tables.SampleEntry{
		withMetrics(affectedEntry("F1", "I1", genotype.RefAlt), map[string]float64{"GQ": 20}),
	})
	assert.Equal(t, []bool{false}, ev.verdicts(row, fail))

	// a missing metric is not a failure
	missing := stateOf([]tables.SampleEntry{affectedEntry("F1", "I1", genotype.RefAlt)})
	assert.Equal(t, []bool{true}, ev.verdicts(row, missing))
}

func TestQualityAbScalesAndAppliesToHetsOnly(t *testing.T) {
	q := qualityQuery("SNV_INDEL", &qualityParams{minValues: map[string]float64{"ab": 25}})
	ev := q.newQualityEvaluator(sampleType.Wes, nil)

	row := &tables.VariantRow{Xpos: 1}

	// stored allele balance is a fraction; 25 rescales to 0.25
	lowHet := stateOf([]tables.SampleEntry{
		withMetrics(affectedEntry("F1", "I1", genotype.RefAlt), map[string]float64{"AB": 0.1}),
	})
	assert.Equal(t, []bool{false}, ev.verdicts(row, lowHet))

	okHet := stateOf([]tables.SampleEntry{
		withMetrics(affectedEntry("F1", "I1", genotype.RefAlt), map[string]float64{"AB": 0.4}),
	})
	assert.Equal(t, []bool{true}, ev.verdicts(row, okHet))

	// hom-alt calls skip the allele balance check entirely
	homAlt := stateOf([]tables.SampleEntry{
		withMetrics(affectedEntry("F1", "I1", genotype.AltAlt), map[string]float64{"AB": 0.1}),
	})
	assert.Equal(t, []bool{true}, ev.verdicts(row, homAlt))
}

func TestQualityHeteroplasmyScales(t *testing.T) {
	q := qualityQuery("MITO", &qualityParams{minValues: map[string]float64{"hl": 5}})
	ev := q.newQualityEvaluator(sampleType.Wgs, nil)

	row := &tables.VariantRow{Xpos: 25_000_000_100}

	low := stateOf([]tables.SampleEntry{
		withMetrics(affectedEntry("F1", "I1", genotype.RefAlt), map[string]float64{"HL": 0.01}),
	})
	assert.Equal(t, []bool{false}, ev.verdicts(row, low))

	ok := stateOf([]tables.SampleEntry{
		withMetrics(affectedEntry("F1", "I1", genotype.RefAlt), map[string]float64{"HL": 0.2}),
	})
	assert.Equal(t, []bool{true}, ev.verdicts(row, ok))
}

func TestQualityAffectedOnlySkipsUnaffected(t *testing.T) {
	q := qualityQuery("SNV_INDEL", &qualityParams{
		minValues:    map[string]float64{"gq": 40},
		affectedOnly: true,
	})
	ev := q.newQualityEvaluator(sampleType.Wes, nil)

	state := stateOf([]tables.SampleEntry{
		withMetrics(affectedEntry("F1", "I1", genotype.RefAlt), map[string]float64{"GQ": 60}),
		withMetrics(unaffectedEntry("F1", "I2", genotype.RefRef), map[string]float64{"GQ": 5}),
	})
	assert.Equal(t, []bool{true}, ev.verdicts(&tables.VariantRow{Xpos: 1}, state))
}

func TestQualityUncalledEntriesSkipped(t *testing.T) {
	q := qualityQuery("SNV_INDEL", &qualityParams{minValues: map[string]float64{"gq": 40}})
	ev := q.newQualityEvaluator(sampleType.Wes, nil)

	state := stateOf([]tables.SampleEntry{
		withMetrics(affectedEntry("F1", "I1", genotype.Missing), map[string]float64{"GQ": 1}),
		withMetrics(unaffectedEntry("F1", "I2", genotype.RefRef), map[string]float64{"GQ": 99}),
	})
	assert.Equal(t, []bool{true}, ev.verdicts(&tables.VariantRow{Xpos: 1}, state))
}

func TestQualityPassOnlyRejectsFilteredRows(t *testing.T) {
	q := qualityQuery("SNV_INDEL", &qualityParams{passOnly: true})
	ev := q.newQualityEvaluator(sampleType.Wes, nil)

	clean := stateOf([]tables.SampleEntry{affectedEntry("F1", "I1", genotype.RefAlt)})
	assert.Equal(t, []bool{true}, ev.verdicts(&tables.VariantRow{Xpos: 1}, clean))

	flagged := stateOf([]tables.SampleEntry{affectedEntry("F1", "I1", genotype.RefAlt)})
	flagged.Filters = []string{"VQSRTrancheSNP99.90to99.95"}
	assert.Equal(t, []bool{false}, ev.verdicts(&tables.VariantRow{Xpos: 1}, flagged))
}

func TestQualityPathogenicOverride(t *testing.T) {
	key := tables.Key{Xpos: 1_000_000_100, Ref: "A", Alt: "C"}
	prefilter := &prefilterTable{name: "sidecar", keys: map[tables.Key]struct{}{key: {}}}

	q := qualityQuery("SNV_INDEL", &qualityParams{minValues: map[string]float64{"gq": 40}})
	ev := q.newQualityEvaluator(sampleType.Wes, prefilter)

	state := stateOf([]tables.SampleEntry{
		withMetrics(affectedEntry("F1", "I1", genotype.RefAlt), map[string]float64{"GQ": 1}),
	})

	// the failing threshold is overridden for known pathogenic keys
	known := &tables.VariantRow{Xpos: key.Xpos, Ref: key.Ref, Alt: key.Alt}
	assert.Equal(t, []bool{true}, ev.verdicts(known, state))

	other := &tables.VariantRow{Xpos: key.Xpos, Ref: "A", Alt: "G"}
	assert.Equal(t, []bool{false}, ev.verdicts(other, state))
}
