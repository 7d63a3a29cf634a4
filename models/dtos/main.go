package dtos

import (
	"encoding/json"
	"time"

	"github.com/xbrowse/xbrowse/models/tables"
)

// -- requests --

// SampleMetadata is one loaded sample as seqr knows it, used to bind
// request families onto stored callset entries.
type SampleMetadata struct {
	ProjectGuid    string `json:"project_guid"`
	FamilyGuid     string `json:"family_guid"`
	SampleId       string `json:"sample_id"`
	IndividualGuid string `json:"individual_guid"`
	SampleType     string `json:"sample_type"`
	Affected       string `json:"affected"`
	Sex            string `json:"sex"`
}

type LocusFilter struct {
	Intervals        []string `json:"intervals,omitempty"`
	GeneIds          []string `json:"gene_ids,omitempty"`
	VariantIds       []string `json:"variant_ids,omitempty"`
	RsIds            []string `json:"rs_ids,omitempty"`
	ExcludeIntervals bool     `json:"exclude_intervals,omitempty"`
}

type PaddedInterval struct {
	Chrom   string  `json:"chrom"`
	Start   int     `json:"start"`
	End     int     `json:"end"`
	Padding float64 `json:"padding"`
}

// QualityFilter thresholds are expressed on the request scale; the
// engine rescales per metric before comparing against stored values
// (heteroplasmy arrives as 0-100, stored as 0-1).
type QualityFilter struct {
	MinGq        float64 `json:"min_gq,omitempty"`
	MinAb        float64 `json:"min_ab,omitempty"`
	MinDp        float64 `json:"min_dp,omitempty"`
	MinHl        float64 `json:"min_hl,omitempty"`
	AffectedOnly bool    `json:"affected_only,omitempty"`
	VcfFilter    string  `json:"vcf_filter,omitempty"`
}

type InheritanceFilter struct {
	Genotype map[string]string `json:"genotype,omitempty"`
	Affected map[string]string `json:"affected,omitempty"`
}

type FreqFilter struct {
	Af float64 `json:"af,omitempty"`
	Ac int     `json:"ac,omitempty"`
	Hh int     `json:"hh,omitempty"`
}

type PathogenicityFilter struct {
	Clinvar []string `json:"clinvar,omitempty"`
	Hgmd    []string `json:"hgmd,omitempty"`
}

type SearchRequest struct {
	GenomeBuild string                      `json:"genome_version,omitempty"`
	SampleData  map[string][]SampleMetadata `json:"sample_data"`

	Sort         string                 `json:"sort,omitempty"`
	SortMetadata map[string]interface{} `json:"sort_metadata,omitempty"`
	NumResults   int                    `json:"num_results,omitempty"`

	InheritanceMode   string             `json:"inheritance_mode,omitempty"`
	InheritanceFilter *InheritanceFilter `json:"inheritance_filter,omitempty"`

	Annotations          map[string][]string `json:"annotations,omitempty"`
	AnnotationsSecondary map[string][]string `json:"annotations_secondary,omitempty"`

	QualityFilter *QualityFilter         `json:"quality_filter,omitempty"`
	Frequencies   map[string]FreqFilter  `json:"frequencies,omitempty"`
	Pathogenicity *PathogenicityFilter   `json:"pathogenicity,omitempty"`
	InSilico      map[string]interface{} `json:"in_silico,omitempty"`

	Locus          *LocusFilter    `json:"locus,omitempty"`
	PaddedInterval *PaddedInterval `json:"padded_interval,omitempty"`
}

type LookupRequest struct {
	GenomeBuild string                      `json:"genome_version,omitempty"`
	DataType    string                      `json:"data_type"`
	VariantId   string                      `json:"variant_id"`
	SampleData  map[string][]SampleMetadata `json:"sample_data,omitempty"`
}

type MultiLookupRequest struct {
	GenomeBuild string   `json:"genome_version,omitempty"`
	DataType    string   `json:"data_type"`
	VariantIds  []string `json:"variant_ids"`
}

// -- responses --

// GenotypeResult is one sample's call in a response row. Metric
// values are flattened to top-level keys under their response names
// (gq, dp, hl, mitoCn, ...).
type GenotypeResult struct {
	SampleId       string             `json:"sampleId"`
	SampleType     string             `json:"sampleType"`
	IndividualGuid string             `json:"individualGuid,omitempty"`
	FamilyGuid     string             `json:"familyGuid"`
	NumAlt         int                `json:"numAlt"`
	Metrics        map[string]float64 `json:"-"`
}

func (g GenotypeResult) MarshalJSON() ([]byte, error) {
	type plain GenotypeResult
	raw, err := json.Marshal(plain(g))
	if err != nil {
		return nil, err
	}
	if len(g.Metrics) == 0 {
		return raw, nil
	}
	var merged map[string]interface{}
	if err := json.Unmarshal(raw, &merged); err != nil {
		return nil, err
	}
	for k, v := range g.Metrics {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// VariantResult is one formatted variant. Payload fields specific to
// a callset flavour are flattened to top-level response keys.
type VariantResult struct {
	VariantId   string `json:"variantId"`
	Chrom       string `json:"chrom"`
	Pos         int    `json:"pos"`
	Ref         string `json:"ref"`
	Alt         string `json:"alt"`
	Xpos        int64  `json:"xpos"`
	GenomeBuild string `json:"genomeVersion"`
	Rsid        string `json:"rsid,omitempty"`

	FamilyGuids []string                    `json:"familyGuids"`
	Genotypes   map[string][]GenotypeResult `json:"genotypes"`

	// FamilyGenotypes is only populated on lookup responses, keyed
	// by family with anonymized per-sample calls
	FamilyGenotypes map[string][]GenotypeResult `json:"familyGenotypes,omitempty"`

	Transcripts              map[string][]tables.TranscriptConsequence `json:"transcripts"`
	MainTranscriptId         string                                    `json:"mainTranscriptId,omitempty"`
	SelectedMainTranscriptId string                                    `json:"selectedMainTranscriptId,omitempty"`

	Clinvar         *tables.ClinvarAnnotation        `json:"clinvar,omitempty"`
	Hgmd            *tables.HgmdAnnotation           `json:"hgmd,omitempty"`
	Populations     map[string]tables.PopulationStat `json:"populations,omitempty"`
	Predictions     map[string]interface{}           `json:"predictions,omitempty"`
	GenotypeFilters []string                         `json:"genotypeFilters,omitempty"`

	Payload map[string]interface{} `json:"-"`

	SortValues []float64 `json:"_sort,omitempty"`
}

func (v VariantResult) MarshalJSON() ([]byte, error) {
	type plain VariantResult
	raw, err := json.Marshal(plain(v))
	if err != nil {
		return nil, err
	}
	if len(v.Payload) == 0 {
		return raw, nil
	}
	var merged map[string]interface{}
	if err := json.Unmarshal(raw, &merged); err != nil {
		return nil, err
	}
	for k, val := range v.Payload {
		if _, ok := merged[k]; !ok {
			merged[k] = val
		}
	}
	return json.Marshal(merged)
}

// SearchResult is one admitted result: a single variant, or a
// compound heterozygous pair serialized as a two-element array.
type SearchResult struct {
	Variant *VariantResult
	Pair    []*VariantResult
}

func (r SearchResult) MarshalJSON() ([]byte, error) {
	if r.Pair != nil {
		return json.Marshal(r.Pair)
	}
	return json.Marshal(r.Variant)
}

type SearchResponse struct {
	Results []SearchResult `json:"results"`
	Total   int            `json:"total"`
}

type MultiLookupResponse struct {
	Results []*VariantResult `json:"results"`
}

type StatusResponse struct {
	Status      string   `json:"status"`
	GenomeBuild string   `json:"genomeVersion"`
	DataTypes   []string `json:"dataTypes,omitempty"`
}

// -- errors --

type GeneralError struct {
	Message string `json:"message"`
}

type GeneralErrorResponseDto struct {
	Code      int            `json:"code,omitempty"`
	Message   string         `json:"message,omitempty"`
	Timestamp time.Time      `json:"timestamp,omitempty"`
	Errors    []GeneralError `json:"errors,omitempty"`
}
