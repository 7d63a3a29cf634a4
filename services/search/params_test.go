package search

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/xbrowse/xbrowse/models/constants"
	dataType "github.com/xbrowse/xbrowse/models/constants/data-type"
	"github.com/xbrowse/xbrowse/models/constants/inheritance"
	sampleType "github.com/xbrowse/xbrowse/models/constants/sample-type"
	"github.com/xbrowse/xbrowse/models/dtos"
	"github.com/xbrowse/xbrowse/models/tables"
	"github.com/xbrowse/xbrowse/repositories/tabular"
)

func trioSampleData() []dtos.SampleMetadata {
	return []dtos.SampleMetadata{
		{ProjectGuid: "P1", FamilyGuid: "F1", SampleId: "S1", IndividualGuid: "I1", SampleType: "WES", Affected: "A", Sex: "F"},
		{ProjectGuid: "P1", FamilyGuid: "F1", SampleId: "S2", IndividualGuid: "I2", SampleType: "WES", Affected: "N", Sex: "F"},
		{ProjectGuid: "P1", FamilyGuid: "F1", SampleId: "S3", IndividualGuid: "I3", SampleType: "WES", Affected: "N", Sex: "M"},
	}
}

func baseRequest() *dtos.SearchRequest {
	return &dtos.SearchRequest{
		SampleData:      map[string][]dtos.SampleMetadata{"SNV_INDEL": trioSampleData()},
		InheritanceMode: "de_novo",
	}
}

func TestBindSearchParamsDefaults(t *testing.T) {
	svc := newTestService(&mapStore{})

	params, err := svc.bindSearchParams(baseRequest())
	assert.Nil(t, err)
	assert.Equal(t, dataType.SnvIndel, params.cfg.dataType)
	assert.Equal(t, defaultNumResults, params.numResults)
	assert.Equal(t, inheritance.DeNovo, params.mode)
	assert.Equal(t, []constants.SampleType{sampleType.Wes}, params.sampleTypes())
}

func TestBindSearchParamsRejectsUnknownDataType(t *testing.T) {
	svc := newTestService(&mapStore{})

	request := baseRequest()
	request.SampleData = map[string][]dtos.SampleMetadata{"SV": trioSampleData()}
	_, err := svc.bindSearchParams(request)
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestBindSearchParamsRejectsFamilyWithoutAffected(t *testing.T) {
	svc := newTestService(&mapStore{})

	request := baseRequest()
	samples := trioSampleData()
	samples[0].Affected = "N"
	request.SampleData = map[string][]dtos.SampleMetadata{"SNV_INDEL": samples}

	_, err := svc.bindSearchParams(request)
	assert.True(t, errors.Is(err, ErrInvalidRequest))
	assert.Contains(t, err.Error(), "no affected individuals")
}

func TestBindSearchParamsAffectedOverrideRestoresFamily(t *testing.T) {
	svc := newTestService(&mapStore{})

	request := baseRequest()
	samples := trioSampleData()
	samples[0].Affected = "N"
	request.SampleData = map[string][]dtos.SampleMetadata{"SNV_INDEL": samples}
	request.InheritanceFilter = &dtos.InheritanceFilter{Affected: map[string]string{"I1": "A"}}

	_, err := svc.bindSearchParams(request)
	assert.Nil(t, err)
}

func TestBindSearchParamsRejectsMismatchedGenomeBuild(t *testing.T) {
	svc := newTestService(&mapStore{})

	request := baseRequest()
	request.GenomeBuild = "GRCh37"
	_, err := svc.bindSearchParams(request)
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestBindQualityDropsInapplicableMetrics(t *testing.T) {
	svc := newTestService(&mapStore{})

	request := baseRequest()
	// SNV_INDEL does not emit heteroplasmy, min_hl is inapplicable
	request.QualityFilter = &dtos.QualityFilter{MinGq: 40, MinHl: 5}

	params, err := svc.bindSearchParams(request)
	assert.Nil(t, err)
	assert.Equal(t, map[string]float64{"gq": 40}, params.quality.minValues)
}

func TestBindQualityEmptyFilterIsNil(t *testing.T) {
	svc := newTestService(&mapStore{})

	request := baseRequest()
	request.QualityFilter = &dtos.QualityFilter{}
	params, err := svc.bindSearchParams(request)
	assert.Nil(t, err)
	assert.Nil(t, params.quality)
}

func TestBindPathogenicityRejectsUnknownFilters(t *testing.T) {
	svc := newTestService(&mapStore{})

	request := baseRequest()
	request.Pathogenicity = &dtos.PathogenicityFilter{Clinvar: []string{"very_bad"}}
	_, err := svc.bindSearchParams(request)
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestBindLocusIntervalsAndVariantIds(t *testing.T) {
	svc := newTestService(&mapStore{})

	request := baseRequest()
	request.Locus = &dtos.LocusFilter{
		Intervals:  []string{"1:100-200"},
		VariantIds: []string{"2-300-A-G"},
	}

	params, err := svc.bindSearchParams(request)
	assert.Nil(t, err)
	assert.True(t, params.intervals.Contains(1_000_000_150))
	assert.True(t, params.intervals.Contains(2_000_000_300))
	assert.False(t, params.intervals.Contains(3_000_000_000))
	assert.True(t, params.variantKeys[tables.Key{Xpos: 2_000_000_300, Ref: "A", Alt: "G"}])
	// small interval sets push down into the table scans
	assert.NotNil(t, params.loadIntervals)
}

func TestBindLocusManyIntervalsSkipScanPushdown(t *testing.T) {
	svc := newTestService(&mapStore{})

	request := baseRequest()
	var intervals []string
	for i := 0; i < maxLoadIntervals+1; i++ {
		intervals = append(intervals, fmt.Sprintf("1:%d-%d", i*1000+100, i*1000+200))
	}
	request.Locus = &dtos.LocusFilter{Intervals: intervals}

	params, err := svc.bindSearchParams(request)
	assert.Nil(t, err)
	assert.Equal(t, maxLoadIntervals+1, params.intervals.Len())
	assert.Nil(t, params.loadIntervals)
}

func TestBindLocusExcludeIntervals(t *testing.T) {
	svc := newTestService(&mapStore{})

	request := baseRequest()
	request.Locus = &dtos.LocusFilter{Intervals: []string{"1:100-200"}, ExcludeIntervals: true}

	params, err := svc.bindSearchParams(request)
	assert.Nil(t, err)
	assert.True(t, params.excludeIntervals)
	// exclusions cannot prune the scan
	assert.Nil(t, params.loadIntervals)

	q := svc.newQuery(params)
	pred := q.locusPredicate()
	assert.False(t, pred(&tables.VariantRow{Xpos: 1_000_000_150}))
	assert.True(t, pred(&tables.VariantRow{Xpos: 1_000_000_300}))
}

func TestBindPaddedInterval(t *testing.T) {
	svc := newTestService(&mapStore{})

	request := baseRequest()
	request.PaddedInterval = &dtos.PaddedInterval{Chrom: "1", Start: 1000, End: 2000, Padding: 0.1}

	params, err := svc.bindSearchParams(request)
	assert.Nil(t, err)
	// 10% of the span pads both ends
	assert.True(t, params.intervals.Contains(1_000_000_900))
	assert.True(t, params.intervals.Contains(1_000_002_100))
	assert.False(t, params.intervals.Contains(1_000_000_899))
}

func TestParseVariantKey(t *testing.T) {
	key, err := ParseVariantKey("1-100-A-C")
	assert.Nil(t, err)
	assert.Equal(t, tables.Key{Xpos: 1_000_000_100, Ref: "A", Alt: "C"}, key)

	key, err = ParseVariantKey("M-8000-T-TA")
	assert.Nil(t, err)
	assert.Equal(t, int64(25_000_008_000), key.Xpos)

	_, err = ParseVariantKey("not-a-variant")
	assert.NotNil(t, err)

	_, err = ParseVariantKey("1-100-A")
	assert.NotNil(t, err)
}

func TestBindInSilico(t *testing.T) {
	svc := newTestService(&mapStore{})

	request := baseRequest()
	request.InSilico = map[string]interface{}{
		"cadd":          25.0,
		"sift":          "damaging",
		"require_score": true,
	}

	params, err := svc.bindSearchParams(request)
	assert.Nil(t, err)
	assert.Equal(t, 25.0, params.inSilico.numeric["cadd"])
	assert.Equal(t, "damaging", params.inSilico.categorical["sift"])
	assert.True(t, params.inSilico.requireScore)
}

var _ tabular.Store = (*mapStore)(nil)
