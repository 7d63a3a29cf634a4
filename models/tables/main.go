package tables

import (
	"github.com/xbrowse/xbrowse/models/constants"
)

/*
	Row and sidecar models for the partitioned callset tables and
	their annotation companions. One variant row is keyed by
	(xpos, ref, alt) and carries family-shaped genotype entries
	plus the shared annotation payload.
*/

// Key uniquely identifies a variant row across tables.
type Key struct {
	Xpos int64
	Ref  string
	Alt  string
}

// SampleEntry is one sample's call on one variant row, positioned
// inside its family's entry list. Identity and pedigree fields are
// populated when request metadata is bound onto stored entries.
type SampleEntry struct {
	SampleId       string                   `json:"sampleId" mapstructure:"sampleId"`
	SampleType     constants.SampleType     `json:"sampleType,omitempty" mapstructure:"sampleType"`
	IndividualGuid string                   `json:"individualGuid,omitempty" mapstructure:"individualGuid"`
	FamilyGuid     string                   `json:"familyGuid,omitempty" mapstructure:"familyGuid"`
	Affected       constants.AffectedStatus `json:"affected,omitempty" mapstructure:"affected"`
	Sex            constants.Sex            `json:"sex,omitempty" mapstructure:"sex"`

	// NumAlt is the normalized alternate allele count, -1 when the
	// call is missing
	NumAlt int `json:"numAlt" mapstructure:"numAlt"`

	// Metrics holds the protocol's genotype-level quality values
	// (GQ, AB, DP, HL, ...), absent keys meaning the metric was not
	// emitted for this call
	Metrics map[string]float64 `json:"metrics,omitempty" mapstructure:"metrics"`
}

func (e SampleEntry) IsCalled() bool {
	return e.NumAlt >= 0
}

func (e SampleEntry) Metric(name string) (float64, bool) {
	v, ok := e.Metrics[name]
	return v, ok
}

// TranscriptConsequence is one transcript's predicted effect,
// stored in severity order on each row.
type TranscriptConsequence struct {
	TranscriptId       string                 `json:"transcriptId" mapstructure:"transcriptId"`
	GeneId             string                 `json:"geneId" mapstructure:"geneId"`
	ConsequenceTermIds []int                  `json:"consequenceTermIds" mapstructure:"consequenceTermIds"`
	ConsequenceTerms   []string               `json:"consequenceTerms,omitempty" mapstructure:"consequenceTerms"`
	Canonical          int                    `json:"canonical,omitempty" mapstructure:"canonical"`
	Biotype            string                 `json:"biotype,omitempty" mapstructure:"biotype"`
	Extra              map[string]interface{} `json:"extra,omitempty" mapstructure:",remain"`
}

// ClinvarAnnotation mirrors the clinvar sidecar payload. Ids index
// the enums carried in the annotation table globals; pointers
// distinguish id 0 from absent.
type ClinvarAnnotation struct {
	AlleleId        int      `json:"alleleId,omitempty" mapstructure:"alleleId"`
	PathogenicityId *int     `json:"pathogenicityId,omitempty" mapstructure:"pathogenicityId"`
	Pathogenicity   string   `json:"pathogenicity,omitempty" mapstructure:"pathogenicity"`
	AssertionIds    []int    `json:"assertionIds,omitempty" mapstructure:"assertionIds"`
	Assertions      []string `json:"assertions,omitempty" mapstructure:"assertions"`
	GoldStars       int      `json:"goldStars,omitempty" mapstructure:"goldStars"`
}

type HgmdAnnotation struct {
	Accession string `json:"accession,omitempty" mapstructure:"accession"`
	ClassId   *int   `json:"classId,omitempty" mapstructure:"classId"`
	Class     string `json:"class,omitempty" mapstructure:"class"`
}

type PopulationStat struct {
	Af       float64 `json:"af" mapstructure:"af"`
	Ac       int     `json:"ac,omitempty" mapstructure:"ac"`
	An       int     `json:"an,omitempty" mapstructure:"an"`
	Hom      int     `json:"hom,omitempty" mapstructure:"hom"`
	Het      int     `json:"het,omitempty" mapstructure:"het"`
	Hemi     int     `json:"hemi,omitempty" mapstructure:"hemi"`
	FilterAf float64 `json:"filterAf,omitempty" mapstructure:"filterAf"`
	MaxHl    float64 `json:"maxHl,omitempty" mapstructure:"maxHl"`
}

// ProtocolState stages one sequencing protocol's per-family entries
// and verdicts while a dual-protocol row is being merged. Index i of
// every slice refers to the same family slot.
type ProtocolState struct {
	FamilyEntries     [][]SampleEntry
	Filters           []string
	PassesQuality     []bool
	PassesInheritance []bool
	PassesCompHet     []bool
}

// VariantRow is the engine's working row shape. Genotype columns are
// family-shaped; annotation columns are shared across families.
type VariantRow struct {
	VariantId string `json:"variantId" mapstructure:"variantId"`
	Xpos      int64  `json:"xpos" mapstructure:"xpos"`
	Chrom     string `json:"chrom" mapstructure:"chrom"`
	Pos       int    `json:"pos" mapstructure:"pos"`
	Ref       string `json:"ref" mapstructure:"ref"`
	Alt       string `json:"alt" mapstructure:"alt"`
	Rsid      string `json:"rsid,omitempty" mapstructure:"rsid"`

	FamilyEntries [][]SampleEntry `json:"familyEntries,omitempty" mapstructure:"familyEntries"`
	Filters       []string        `json:"filters,omitempty" mapstructure:"filters"`

	SortedTranscripts []TranscriptConsequence   `json:"sortedTranscriptConsequences,omitempty" mapstructure:"sortedTranscriptConsequences"`
	Clinvar           *ClinvarAnnotation        `json:"clinvar,omitempty" mapstructure:"clinvar"`
	Hgmd              *HgmdAnnotation           `json:"hgmd,omitempty" mapstructure:"hgmd"`
	Populations       map[string]PopulationStat `json:"populations,omitempty" mapstructure:"populations"`
	Predictions       map[string]interface{}    `json:"predictions,omitempty" mapstructure:"predictions"`

	// Payload carries annotation fields specific to one callset
	// flavour (e.g. mitomap, commonLowHeteroplasmy, highConstraintRegion)
	Payload map[string]interface{} `json:"payload,omitempty" mapstructure:"payload"`

	// Protocol is only populated while dual-protocol tables are
	// merged; it never round-trips through storage
	Protocol map[constants.SampleType]*ProtocolState `json:"-" mapstructure:"-"`
}

func (r *VariantRow) Key() Key {
	return Key{Xpos: r.Xpos, Ref: r.Ref, Alt: r.Alt}
}

// FamilyGuids lists the distinct families carried by the row's
// entries, in slot order.
func (r *VariantRow) FamilyGuids() []string {
	var guids []string
	seen := make(map[string]struct{})
	for _, entries := range r.FamilyEntries {
		if len(entries) == 0 {
			continue
		}
		guid := entries[0].FamilyGuid
		if _, ok := seen[guid]; ok {
			continue
		}
		seen[guid] = struct{}{}
		guids = append(guids, guid)
	}
	return guids
}

// GeneIds lists the distinct genes over the row's transcripts.
func (r *VariantRow) GeneIds() []string {
	var ids []string
	seen := make(map[string]struct{})
	for _, t := range r.SortedTranscripts {
		if t.GeneId == "" {
			continue
		}
		if _, ok := seen[t.GeneId]; ok {
			continue
		}
		seen[t.GeneId] = struct{}{}
		ids = append(ids, t.GeneId)
	}
	return ids
}

// Globals is the table sidecar: sample bookkeeping for callset
// tables, enum and version registries for annotation tables.
type Globals struct {
	SampleType    constants.SampleType           `json:"sampleType,omitempty"`
	ProjectGuid   string                         `json:"projectGuid,omitempty"`
	FamilyGuids   []string                       `json:"familyGuids,omitempty"`
	FamilySamples map[string][]string            `json:"familySamples,omitempty"`
	Enums         map[string]map[string][]string `json:"enums,omitempty"`
	Versions      map[string]string              `json:"versions,omitempty"`
}

// EnumLookup inverts one enum list from the globals into a
// term -> id map, nil when the field or subfield is unknown.
func (g *Globals) EnumLookup(field, subfield string) map[string]int {
	if g == nil {
		return nil
	}
	sub, ok := g.Enums[field]
	if !ok {
		return nil
	}
	terms, ok := sub[subfield]
	if !ok {
		return nil
	}
	lookup := make(map[string]int, len(terms))
	for i, term := range terms {
		lookup[term] = i
	}
	return lookup
}

// Enum returns the forward enum list for a field/subfield pair.
func (g *Globals) Enum(field, subfield string) []string {
	if g == nil {
		return nil
	}
	return g.Enums[field][subfield]
}
