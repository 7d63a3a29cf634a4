package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xbrowse/xbrowse/models/constants/clinvar"
	dataType "github.com/xbrowse/xbrowse/models/constants/data-type"
	"github.com/xbrowse/xbrowse/models/tables"
	"github.com/xbrowse/xbrowse/repositories/tabular"
)

func clinvarEnumLookup() map[string]int {
	lookup := make(map[string]int, len(clinvar.Pathogenicities))
	for i, term := range clinvar.Pathogenicities {
		lookup[term] = i
	}
	return lookup
}

func TestBuildPathRangesMergesAdjacentFilters(t *testing.T) {
	lookup := clinvarEnumLookup()

	ranges := buildPathRanges(clinvar.PathRanges, map[string]bool{
		clinvar.PathFilter:       true,
		clinvar.LikelyPathFilter: true,
	}, lookup)

	// pathogenic ends where likely_pathogenic overlaps, so the two
	// collapse into one contiguous id run
	assert.Equal(t, []pathRange{{start: 0, end: 7}}, ranges)
}

func TestBuildPathRangesKeepsGapsSeparate(t *testing.T) {
	lookup := clinvarEnumLookup()

	ranges := buildPathRanges(clinvar.PathRanges, map[string]bool{
		clinvar.PathFilter:      true,
		clinvar.UncertainFilter: true,
	}, lookup)

	assert.Equal(t, []pathRange{{start: 0, end: 3}, {start: 8, end: 12}}, ranges)
}

func TestBuildPathRangesSkipsUnknownTerms(t *testing.T) {
	ranges := buildPathRanges(clinvar.PathRanges, map[string]bool{clinvar.PathFilter: true}, map[string]int{})
	assert.Empty(t, ranges)
}

func TestMatchesPathRanges(t *testing.T) {
	ranges := []pathRange{{start: 0, end: 3}, {start: 8, end: 12}}

	inside := 2
	boundary := 8
	outside := 5

	assert.True(t, matchesPathRanges(&inside, ranges))
	assert.True(t, matchesPathRanges(&boundary, ranges))
	assert.False(t, matchesPathRanges(&outside, ranges))
	assert.False(t, matchesPathRanges(nil, ranges))
}

func TestPrefilterTableNilSafety(t *testing.T) {
	var table *prefilterTable
	assert.False(t, table.Contains(tables.Key{Xpos: 1}))
	assert.Equal(t, 0, table.Len())
}

func TestClinvarPrefilterNotRequested(t *testing.T) {
	svc := newTestService(&mapStore{tables: map[string]*tabular.Table{}})
	q := svc.newQuery(&searchParams{cfg: configForDataType(dataType.SnvIndel)})

	loaded, err := q.clinvarPrefilter(context.Background())
	assert.Nil(t, err)
	assert.Nil(t, loaded)

	// the decision is cached as an explicit nil
	cached, ok := q.filters[clinvarFilterKey]
	assert.True(t, ok)
	assert.Nil(t, cached)
}

func TestClinvarPrefilterSidecarMissingDegrades(t *testing.T) {
	svc := newTestService(&mapStore{tables: map[string]*tabular.Table{}})
	q := svc.newQuery(&searchParams{
		cfg:           configForDataType(dataType.SnvIndel),
		pathogenicity: pathogenicityParams{clinvarFilters: []string{clinvar.PathFilter}},
	})

	loaded, err := q.clinvarPrefilter(context.Background())
	assert.Nil(t, err)
	assert.Nil(t, loaded)
}

func TestClinvarPrefilterLoadsRequestedSignificances(t *testing.T) {
	sidecar := tabular.FromRows("SNV_INDEL/clinvar_path_variants", nil, []*tables.VariantRow{
		{Xpos: 100, Ref: "A", Alt: "C", Payload: map[string]interface{}{"isPathogenic": true}},
		{Xpos: 200, Ref: "A", Alt: "G", Payload: map[string]interface{}{"isLikelyPathogenic": true}},
	})
	svc := newTestService(&mapStore{tables: map[string]*tabular.Table{
		"SNV_INDEL/clinvar_path_variants": sidecar,
	}})

	q := svc.newQuery(&searchParams{
		cfg:           configForDataType(dataType.SnvIndel),
		pathogenicity: pathogenicityParams{clinvarFilters: []string{clinvar.PathFilter}},
	})

	loaded, err := q.clinvarPrefilter(context.Background())
	assert.Nil(t, err)
	assert.Equal(t, 1, loaded.Len())
	assert.True(t, loaded.Contains(tables.Key{Xpos: 100, Ref: "A", Alt: "C"}))
	assert.False(t, loaded.Contains(tables.Key{Xpos: 200, Ref: "A", Alt: "G"}))

	// both significances together admit the whole sidecar
	q = svc.newQuery(&searchParams{
		cfg: configForDataType(dataType.SnvIndel),
		pathogenicity: pathogenicityParams{
			clinvarFilters: []string{clinvar.PathFilter, clinvar.LikelyPathFilter},
		},
	})
	loaded, err = q.clinvarPrefilter(context.Background())
	assert.Nil(t, err)
	assert.Equal(t, 2, loaded.Len())
}

func TestClinvarPrefilterLoadedOncePerQuery(t *testing.T) {
	sidecar := tabular.FromRows("SNV_INDEL/clinvar_path_variants", nil, []*tables.VariantRow{
		{Xpos: 100, Ref: "A", Alt: "C", Payload: map[string]interface{}{"isPathogenic": true}},
	})
	svc := newTestService(&mapStore{tables: map[string]*tabular.Table{
		"SNV_INDEL/clinvar_path_variants": sidecar,
	}})
	q := svc.newQuery(&searchParams{
		cfg:           configForDataType(dataType.SnvIndel),
		pathogenicity: pathogenicityParams{clinvarFilters: []string{clinvar.PathFilter}},
	})

	first, err := q.clinvarPrefilter(context.Background())
	assert.Nil(t, err)
	second, err := q.clinvarPrefilter(context.Background())
	assert.Nil(t, err)
	assert.Same(t, first, second)
}
