package search

import (
	"github.com/xbrowse/xbrowse/models/constants"
	dataType "github.com/xbrowse/xbrowse/models/constants/data-type"
)

// Stored metric names on genotype entries.
const (
	metricGq            = "GQ"
	metricAb            = "AB"
	metricDp            = "DP"
	metricHl            = "HL"
	metricMitoCn        = "MITO_CN"
	metricContamination = "CONTAMINATION"
)

// qualityMetricFormat describes how one request threshold maps onto
// a stored genotype metric.
type qualityMetricFormat struct {
	metric string
	// scale divides the request value before comparing, so a
	// heteroplasmy threshold of 5 tests stored levels against 0.05
	scale float64
	// hetOnly restricts the check to heterozygous calls
	hetOnly bool
}

// dataTypeConfig is the engine's per-callset-flavour strategy: which
// genotype metrics exist, how quality thresholds rescale, and which
// auxiliary tables participate.
type dataTypeConfig struct {
	dataType constants.DataType

	// genotypeFields maps response keys onto stored metric names
	genotypeFields map[string]string

	// qualityFormat maps request quality keys (min_<key>) onto
	// stored metrics
	qualityFormat map[string]qualityMetricFormat

	// pathogenicPrefilter enables the clinvar pathogenic sidecar as
	// a scan prefilter and family quality override
	pathogenicPrefilter bool

	supportsLookup bool

	// overrideCompHetAlt admits hom-alt calls as compound het
	// candidates
	overrideCompHetAlt bool
}

var dataTypeConfigs = map[constants.DataType]*dataTypeConfig{
	dataType.SnvIndel: {
		dataType: dataType.SnvIndel,
		genotypeFields: map[string]string{
			"gq": metricGq,
			"ab": metricAb,
			"dp": metricDp,
		},
		qualityFormat: map[string]qualityMetricFormat{
			"gq": {metric: metricGq, scale: 1},
			"ab": {metric: metricAb, scale: 100, hetOnly: true},
			"dp": {metric: metricDp, scale: 1},
		},
		pathogenicPrefilter: true,
		supportsLookup:      true,
	},
	dataType.Mito: {
		dataType: dataType.Mito,
		genotypeFields: map[string]string{
			"gq":            metricGq,
			"dp":            metricDp,
			"hl":            metricHl,
			"mitoCn":        metricMitoCn,
			"contamination": metricContamination,
		},
		qualityFormat: map[string]qualityMetricFormat{
			"gq": {metric: metricGq, scale: 1},
			"dp": {metric: metricDp, scale: 1},
			"hl": {metric: metricHl, scale: 100},
		},
		pathogenicPrefilter: true,
		supportsLookup:      true,
	},
	dataType.OntSnvIndel: {
		dataType: dataType.OntSnvIndel,
		genotypeFields: map[string]string{
			"gq": metricGq,
			"dp": metricDp,
		},
		qualityFormat: map[string]qualityMetricFormat{
			"gq": {metric: metricGq, scale: 1},
			"dp": {metric: metricDp, scale: 1},
		},
		pathogenicPrefilter: false,
		supportsLookup:      false,
	},
}

func configForDataType(dt constants.DataType) *dataTypeConfig {
	return dataTypeConfigs[dt]
}
