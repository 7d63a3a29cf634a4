package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xbrowse/xbrowse/models/constants/clinvar"
	dataType "github.com/xbrowse/xbrowse/models/constants/data-type"
	"github.com/xbrowse/xbrowse/models/constants/genotype"
	sortConstants "github.com/xbrowse/xbrowse/models/constants/sort"
	"github.com/xbrowse/xbrowse/models/tables"
	"github.com/xbrowse/xbrowse/repositories/tabular"
)

func formatQuery(sortKey string, numResults int) *query {
	svc := newTestService(&mapStore{tables: map[string]*tabular.Table{}})
	key, _ := sortConstants.CastToSortKey(sortKey)
	return svc.newQuery(&searchParams{
		cfg:        configForDataType(dataType.SnvIndel),
		build:      svc.build,
		sortKey:    key,
		numResults: numResults,
	})
}

func annotatedRow(xpos int64, alt string) *tables.VariantRow {
	return &tables.VariantRow{
		VariantId: "1-100-A-" + alt,
		Xpos:      xpos,
		Chrom:     "1",
		Pos:       int(xpos % 1_000_000_000),
		Ref:       "A",
		Alt:       alt,
		FamilyEntries: [][]tables.SampleEntry{
			{affectedEntry("F1", "I1", genotype.RefAlt)},
		},
	}
}

func TestSortValuesLess(t *testing.T) {
	assert.True(t, sortValuesLess([]float64{1, 5}, []float64{2, 1}))
	assert.True(t, sortValuesLess([]float64{1, 1}, []float64{1, 2}))
	assert.False(t, sortValuesLess([]float64{2, 1}, []float64{1, 5}))
	// shorter tuple ranks first on a tie
	assert.True(t, sortValuesLess([]float64{1}, []float64{1, 0}))
	assert.False(t, sortValuesLess([]float64{1, 0}, []float64{1}))
}

func TestFormatResultsOrdersByXposAndTruncates(t *testing.T) {
	q := formatQuery("xpos", 2)

	rows := []*tables.VariantRow{
		annotatedRow(1_000_000_300, "T"),
		annotatedRow(1_000_000_100, "C"),
		annotatedRow(1_000_000_200, "G"),
	}

	results, total, err := q.formatResults(rows, nil)
	assert.Nil(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, results, 2)
	assert.Equal(t, int64(1_000_000_100), results[0].Variant.Xpos)
	assert.Equal(t, int64(1_000_000_200), results[1].Variant.Xpos)
}

func TestFormatResultsPairMembersOrderedBySortValue(t *testing.T) {
	q := formatQuery("xpos", 10)

	pair := &variantPair{
		first:   annotatedRow(1_000_000_300, "T"),
		second:  annotatedRow(1_000_000_100, "C"),
		geneIds: map[string]bool{"G1": true},
	}

	results, total, err := q.formatResults(nil, []*variantPair{pair})
	assert.Nil(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, results, 1)
	assert.Len(t, results[0].Pair, 2)
	// the lower ranked member leads the serialized pair
	assert.Equal(t, int64(1_000_000_100), results[0].Pair[0].Xpos)
	assert.Equal(t, int64(1_000_000_300), results[0].Pair[1].Xpos)
}

func TestFormatResultsElidesPairsAlreadyAdmittedAsSingles(t *testing.T) {
	q := formatQuery("xpos", 10)

	first := annotatedRow(1_000_000_100, "C")
	second := annotatedRow(1_000_000_200, "G")
	pair := &variantPair{first: first, second: second}

	results, total, err := q.formatResults([]*tables.VariantRow{first, second}, []*variantPair{pair})
	assert.Nil(t, err)
	assert.Equal(t, 2, total)
	for _, result := range results {
		assert.Nil(t, result.Pair)
	}

	// a pair with one member not admitted standalone survives
	results, total, err = q.formatResults([]*tables.VariantRow{first}, []*variantPair{pair})
	assert.Nil(t, err)
	assert.Equal(t, 2, total)
	assert.NotNil(t, results[1].Pair)
}

func TestPathogenicitySortValues(t *testing.T) {
	q := formatQuery("pathogenicity", 10)

	pathogenicId := 0
	classId := 1

	row := annotatedRow(1_000_000_100, "C")
	row.Clinvar = &tables.ClinvarAnnotation{PathogenicityId: &pathogenicId}
	row.Hgmd = &tables.HgmdAnnotation{ClassId: &classId}

	values := q.sortValues(row, nil)
	assert.Equal(t, []float64{0, 1, 1_000_000_100}, values)

	// absent records rank between assertion tiers, after real ones
	unannotated := annotatedRow(1_000_000_200, "G")
	values = q.sortValues(unannotated, nil)
	assert.Equal(t, []float64{clinvar.AbsentPathSortOffset, absentSortValue, 1_000_000_200}, values)
}

func TestPredictionSortRanksHigherScoresFirst(t *testing.T) {
	q := formatQuery("cadd", 10)

	strong := annotatedRow(1_000_000_100, "C")
	strong.Predictions = map[string]interface{}{"cadd": 30.0}
	weak := annotatedRow(1_000_000_200, "G")
	weak.Predictions = map[string]interface{}{"cadd": 10.0}
	unscored := annotatedRow(1_000_000_300, "T")

	assert.True(t, sortValuesLess(q.sortValues(strong, nil), q.sortValues(weak, nil)))
	assert.True(t, sortValuesLess(q.sortValues(weak, nil), q.sortValues(unscored, nil)))
}

func TestSizeSortRanksLargerEventsFirst(t *testing.T) {
	q := formatQuery("size", 10)

	insertion := annotatedRow(1_000_000_100, "CTTTT")
	snv := annotatedRow(1_000_000_200, "G")

	assert.True(t, sortValuesLess(q.sortValues(insertion, nil), q.sortValues(snv, nil)))
}

func TestFormatVariantGenotypesFlattenMetrics(t *testing.T) {
	q := formatQuery("xpos", 10)

	row := annotatedRow(1_000_000_100, "C")
	row.FamilyEntries = [][]tables.SampleEntry{{
		withMetrics(affectedEntry("F1", "I1", genotype.RefAlt), map[string]float64{"GQ": 99, "AB": 0.5}),
	}}

	result := q.formatVariant(row, nil)
	assert.Equal(t, []string{"F1"}, result.FamilyGuids)
	genotypes := result.Genotypes["F1"]
	assert.Len(t, genotypes, 1)
	assert.Equal(t, 1, genotypes[0].NumAlt)
	assert.Equal(t, "WES", genotypes[0].SampleType)
	assert.Equal(t, 99.0, genotypes[0].Metrics["gq"])
	assert.Equal(t, 0.5, genotypes[0].Metrics["ab"])
}

func TestSelectTranscriptPrefersPairGenes(t *testing.T) {
	q := formatQuery("xpos", 10)

	row := annotatedRow(1_000_000_100, "C")
	row.SortedTranscripts = []tables.TranscriptConsequence{
		{TranscriptId: "ENST-1", GeneId: "G1"},
		{TranscriptId: "ENST-2", GeneId: "G2"},
	}

	// no context picks the severity ordered first transcript
	result := q.formatVariant(row, nil)
	assert.Equal(t, "ENST-1", result.MainTranscriptId)
	assert.Empty(t, result.SelectedMainTranscriptId)

	// a pair restricts candidates to the shared genes
	pair := &variantPair{geneIds: map[string]bool{"G2": true}}
	result = q.formatVariant(row, pair)
	assert.Equal(t, "ENST-1", result.MainTranscriptId)
	assert.Equal(t, "ENST-2", result.SelectedMainTranscriptId)
}
