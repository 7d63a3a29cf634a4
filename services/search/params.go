package search

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/xbrowse/xbrowse/models/constants"
	affectedStatus "github.com/xbrowse/xbrowse/models/constants/affected-status"
	"github.com/xbrowse/xbrowse/models/constants/chromosome"
	"github.com/xbrowse/xbrowse/models/constants/clinvar"
	dataType "github.com/xbrowse/xbrowse/models/constants/data-type"
	genomeBuild "github.com/xbrowse/xbrowse/models/constants/genome-build"
	"github.com/xbrowse/xbrowse/models/constants/genotype"
	"github.com/xbrowse/xbrowse/models/constants/hgmd"
	"github.com/xbrowse/xbrowse/models/constants/inheritance"
	sampleType "github.com/xbrowse/xbrowse/models/constants/sample-type"
	sexConstants "github.com/xbrowse/xbrowse/models/constants/sex"
	sortConstants "github.com/xbrowse/xbrowse/models/constants/sort"
	"github.com/xbrowse/xbrowse/models/dtos"
	"github.com/xbrowse/xbrowse/models/tables"
	"github.com/xbrowse/xbrowse/repositories/tabular"
	"github.com/xbrowse/xbrowse/utils"
)

const (
	defaultNumResults = 100

	// maxLoadIntervals caps how many normalized spans are pushed
	// into the table scans; larger sets fall back to row filtering
	maxLoadIntervals = 25
)

type boundSample struct {
	meta     dtos.SampleMetadata
	affected constants.AffectedStatus
	sex      constants.Sex
}

type boundFamily struct {
	familyGuid string
	samples    []boundSample
}

type boundProject struct {
	projectGuid string
	families    []boundFamily
}

type qualityParams struct {
	// minValues keys match the data type's qualityFormat keys
	minValues    map[string]float64
	affectedOnly bool
	passOnly     bool
}

type annotationParams struct {
	terms          map[string]bool
	secondaryTerms map[string]bool
}

type pathogenicityParams struct {
	clinvarFilters []string
	hgmdFilters    []string
}

// hasClinvarPath reports whether the request asks for pathogenic or
// likely pathogenic ClinVar records, which activates the sidecar
// prefilter and the family quality override.
func (p pathogenicityParams) hasClinvarPath() bool {
	for _, f := range p.clinvarFilters {
		if utils.StringInSlice(f, clinvar.PathSignificances) {
			return true
		}
	}
	return false
}

func (p pathogenicityParams) empty() bool {
	return len(p.clinvarFilters) == 0 && len(p.hgmdFilters) == 0
}

type inSilicoParams struct {
	numeric      map[string]float64
	categorical  map[string]string
	requireScore bool
}

type searchParams struct {
	cfg   *dataTypeConfig
	build constants.GenomeBuild

	numResults int
	sortKey    constants.SortKey
	sortMeta   map[string]interface{}

	mode              constants.InheritanceMode
	genotypeOverrides map[string]constants.GenotypeExpectation

	quality       *qualityParams
	annotations   *annotationParams
	freq          map[string]dtos.FreqFilter
	pathogenicity pathogenicityParams
	inSilico      *inSilicoParams

	intervals        *tabular.IntervalSet
	excludeIntervals bool
	loadIntervals    *tabular.IntervalSet
	variantKeys      map[tables.Key]bool
	rsIds            map[string]bool
	geneIds          map[string]bool

	projects map[constants.SampleType][]boundProject
}

func (p *searchParams) sampleTypes() []constants.SampleType {
	var out []constants.SampleType
	for _, st := range sampleType.All() {
		if len(p.projects[st]) > 0 {
			out = append(out, st)
		}
	}
	return out
}

func (p *searchParams) hasCompHetSearch() bool {
	return inheritance.HasCompoundHet(p.mode)
}

func (p *searchParams) hasSingleVariantSearch() bool {
	return inheritance.HasSingleVariant(p.mode)
}

func (s *Service) bindSearchParams(request *dtos.SearchRequest) (*searchParams, error) {
	if request == nil || len(request.SampleData) == 0 {
		return nil, errors.Wrap(ErrInvalidRequest, "sample_data is required")
	}
	if len(request.SampleData) > 1 {
		return nil, errors.Wrap(ErrInvalidRequest, "exactly one data type per request")
	}

	var dataTypeKey string
	var sampleData []dtos.SampleMetadata
	for k, v := range request.SampleData {
		dataTypeKey, sampleData = k, v
	}

	dt, err := dataType.CastToDataType(dataTypeKey)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidRequest, "unknown data type %s", dataTypeKey)
	}
	cfg := configForDataType(dt)

	if request.GenomeBuild != "" {
		build, err := genomeBuild.CastToGenomeBuild(request.GenomeBuild)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidRequest, "unknown genome build %s", request.GenomeBuild)
		}
		if build != s.build {
			return nil, errors.Wrapf(ErrInvalidRequest, "genome build %s is not loaded", build)
		}
	}

	mode, err := inheritance.CastToInheritanceMode(request.InheritanceMode)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidRequest, "unknown inheritance mode %s", request.InheritanceMode)
	}

	params := &searchParams{
		cfg:        cfg,
		build:      s.build,
		numResults: request.NumResults,
		sortMeta:   request.SortMetadata,
		mode:       mode,
		freq:       request.Frequencies,
	}
	if params.numResults <= 0 {
		params.numResults = defaultNumResults
	}

	params.sortKey, err = sortConstants.CastToSortKey(request.Sort)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidRequest, "unknown sort key %s", request.Sort)
	}

	if err := params.bindInheritanceFilter(request.InheritanceFilter); err != nil {
		return nil, err
	}
	if err := params.bindProjects(sampleData, request.InheritanceFilter); err != nil {
		return nil, err
	}
	params.bindQuality(request.QualityFilter)
	params.bindAnnotations(request.Annotations, request.AnnotationsSecondary)
	if err := params.bindPathogenicity(request.Pathogenicity); err != nil {
		return nil, err
	}
	if err := params.bindInSilico(request.InSilico); err != nil {
		return nil, err
	}
	if err := s.bindLocus(params, request.Locus, request.PaddedInterval); err != nil {
		return nil, err
	}

	return params, nil
}

func (p *searchParams) bindInheritanceFilter(filter *dtos.InheritanceFilter) error {
	if filter == nil || len(filter.Genotype) == 0 {
		return nil
	}
	p.genotypeOverrides = make(map[string]constants.GenotypeExpectation, len(filter.Genotype))
	for individualGuid, text := range filter.Genotype {
		expectation, err := castToGenotypeExpectation(text)
		if err != nil {
			return errors.Wrapf(ErrInvalidRequest, "unknown genotype %s for %s", text, individualGuid)
		}
		p.genotypeOverrides[individualGuid] = expectation
	}
	return nil
}

func castToGenotypeExpectation(text string) (constants.GenotypeExpectation, error) {
	switch strings.ToLower(text) {
	case "ref_ref":
		return genotype.ExpectRefRef, nil
	case "ref_alt":
		return genotype.ExpectRefAlt, nil
	case "alt_alt":
		return genotype.ExpectAltAlt, nil
	case "has_ref":
		return genotype.ExpectHasRef, nil
	case "has_alt":
		return genotype.ExpectHasAlt, nil
	case "comp_het_alt":
		return genotype.ExpectCompHetAlt, nil
	default:
		return genotype.ExpectNone, errors.New("unable to parse genotype expectation")
	}
}

func (p *searchParams) bindProjects(sampleData []dtos.SampleMetadata, filter *dtos.InheritanceFilter) error {
	var affectedOverrides map[string]string
	if filter != nil {
		affectedOverrides = filter.Affected
	}

	grouped := map[constants.SampleType]map[string]map[string][]boundSample{}
	for _, meta := range sampleData {
		st, err := sampleType.CastToSampleType(meta.SampleType)
		if err != nil {
			return errors.Wrapf(ErrInvalidRequest, "unknown sample type %s for sample %s", meta.SampleType, meta.SampleId)
		}

		affectedText := meta.Affected
		if override, ok := affectedOverrides[meta.IndividualGuid]; ok {
			affectedText = override
		}
		affected, err := affectedStatus.CastToAffectedStatus(affectedText)
		if err != nil {
			return errors.Wrapf(ErrInvalidRequest, "unknown affected status %s for sample %s", affectedText, meta.SampleId)
		}
		sex, err := sexConstants.CastToSex(meta.Sex)
		if err != nil {
			return errors.Wrapf(ErrInvalidRequest, "unknown sex %s for sample %s", meta.Sex, meta.SampleId)
		}
		if meta.FamilyGuid == "" || meta.ProjectGuid == "" {
			return errors.Wrapf(ErrInvalidRequest, "sample %s is missing family or project", meta.SampleId)
		}

		projects, ok := grouped[st]
		if !ok {
			projects = map[string]map[string][]boundSample{}
			grouped[st] = projects
		}
		families, ok := projects[meta.ProjectGuid]
		if !ok {
			families = map[string][]boundSample{}
			projects[meta.ProjectGuid] = families
		}
		families[meta.FamilyGuid] = append(families[meta.FamilyGuid], boundSample{meta: meta, affected: affected, sex: sex})
	}

	p.projects = make(map[constants.SampleType][]boundProject, len(grouped))
	for st, projects := range grouped {
		for _, projectGuid := range utils.SortedStringKeys(projects) {
			families := projects[projectGuid]
			project := boundProject{projectGuid: projectGuid}
			for _, familyGuid := range utils.SortedStringKeys(families) {
				samples := families[familyGuid]
				hasAffected := false
				for _, sample := range samples {
					if sample.affected == affectedStatus.Affected {
						hasAffected = true
						break
					}
				}
				if !hasAffected {
					return errors.Wrapf(ErrInvalidRequest,
						"inheritance based search is disabled for families with no affected individuals (%s)", familyGuid)
				}
				project.families = append(project.families, boundFamily{familyGuid: familyGuid, samples: samples})
			}
			p.projects[st] = append(p.projects[st], project)
		}
	}
	return nil
}

func (p *searchParams) bindQuality(filter *dtos.QualityFilter) {
	if filter == nil {
		return
	}
	minValues := map[string]float64{}
	for key, value := range map[string]float64{
		"gq": filter.MinGq,
		"ab": filter.MinAb,
		"dp": filter.MinDp,
		"hl": filter.MinHl,
	} {
		if value <= 0 {
			continue
		}
		// thresholds for metrics the data type does not emit are
		// silently inapplicable
		if _, ok := p.cfg.qualityFormat[key]; ok {
			minValues[key] = value
		}
	}

	passOnly := strings.EqualFold(filter.VcfFilter, "pass")
	if len(minValues) == 0 && !passOnly {
		return
	}
	p.quality = &qualityParams{
		minValues:    minValues,
		affectedOnly: filter.AffectedOnly,
		passOnly:     passOnly,
	}
}

func (p *searchParams) bindAnnotations(annotations, secondary map[string][]string) {
	terms := collectAnnotationTerms(annotations)
	secondaryTerms := collectAnnotationTerms(secondary)
	if terms == nil && secondaryTerms == nil {
		return
	}
	p.annotations = &annotationParams{terms: terms, secondaryTerms: secondaryTerms}
}

func collectAnnotationTerms(annotations map[string][]string) map[string]bool {
	if len(annotations) == 0 {
		return nil
	}
	terms := map[string]bool{}
	for _, values := range annotations {
		for _, term := range values {
			terms[term] = true
		}
	}
	if len(terms) == 0 {
		return nil
	}
	return terms
}

func (p *searchParams) bindPathogenicity(filter *dtos.PathogenicityFilter) error {
	if filter == nil {
		return nil
	}
	for _, f := range filter.Clinvar {
		if !pathRangeFilterKnown(clinvar.PathRanges, f) {
			return errors.Wrapf(ErrInvalidRequest, "unknown clinvar significance filter %s", f)
		}
	}
	for _, f := range filter.Hgmd {
		if !pathRangeFilterKnown(hgmd.PathRanges, f) {
			return errors.Wrapf(ErrInvalidRequest, "unknown hgmd class filter %s", f)
		}
	}
	p.pathogenicity = pathogenicityParams{clinvarFilters: filter.Clinvar, hgmdFilters: filter.Hgmd}
	return nil
}

func pathRangeFilterKnown(ranges []clinvar.PathRange, filter string) bool {
	for _, r := range ranges {
		if r.Filter == filter {
			return true
		}
	}
	return false
}

func (p *searchParams) bindInSilico(inSilico map[string]interface{}) error {
	if len(inSilico) == 0 {
		return nil
	}
	params := &inSilicoParams{numeric: map[string]float64{}, categorical: map[string]string{}}
	for key, raw := range inSilico {
		if key == "require_score" || key == "requireScore" {
			flag, ok := raw.(bool)
			if !ok {
				return errors.Wrap(ErrInvalidRequest, "require_score must be a boolean")
			}
			params.requireScore = flag
			continue
		}
		switch value := raw.(type) {
		case float64:
			params.numeric[key] = value
		case string:
			if value == "" {
				continue
			}
			if parsed, err := strconv.ParseFloat(value, 64); err == nil {
				params.numeric[key] = parsed
			} else {
				params.categorical[key] = value
			}
		default:
			return errors.Wrapf(ErrInvalidRequest, "unsupported in silico threshold for %s", key)
		}
	}
	if len(params.numeric) == 0 && len(params.categorical) == 0 {
		return nil
	}
	p.inSilico = params
	return nil
}

func (s *Service) bindLocus(p *searchParams, locus *dtos.LocusFilter, padded *dtos.PaddedInterval) error {
	var spans []tabular.Span

	if locus != nil {
		for _, text := range locus.Intervals {
			span, err := parseInterval(text)
			if err != nil {
				return errors.Wrapf(ErrInvalidRequest, "invalid interval %s", text)
			}
			spans = append(spans, span)
		}

		if len(locus.GeneIds) > 0 {
			geneSpans, missing := s.reference.GeneSpans(locus.GeneIds)
			if len(missing) > 0 {
				return errors.Wrapf(ErrNotFound, "unknown genes: %s", strings.Join(missing, ", "))
			}
			p.geneIds = make(map[string]bool, len(locus.GeneIds))
			for geneId, span := range geneSpans {
				p.geneIds[geneId] = true
				spans = append(spans, span)
			}
		}

		if len(locus.VariantIds) > 0 {
			p.variantKeys = make(map[tables.Key]bool, len(locus.VariantIds))
			for _, variantId := range locus.VariantIds {
				key, err := ParseVariantKey(variantId)
				if err != nil {
					return errors.Wrapf(ErrInvalidRequest, "invalid variant id %s", variantId)
				}
				p.variantKeys[key] = true
				if !locus.ExcludeIntervals {
					spans = append(spans, tabular.Span{Start: key.Xpos, End: key.Xpos})
				}
			}
		}
		if len(locus.RsIds) > 0 {
			p.rsIds = make(map[string]bool, len(locus.RsIds))
			for _, rsId := range locus.RsIds {
				p.rsIds[rsId] = true
			}
		}
		p.excludeIntervals = locus.ExcludeIntervals
	}

	if padded != nil {
		span, err := padInterval(padded)
		if err != nil {
			return errors.Wrap(ErrInvalidRequest, err.Error())
		}
		spans = append(spans, span)
	}

	p.intervals = tabular.NewIntervalSet(spans)
	if p.intervals != nil && !p.excludeIntervals && p.intervals.Len() <= maxLoadIntervals {
		p.loadIntervals = p.intervals
	}
	return nil
}

func parseInterval(text string) (tabular.Span, error) {
	parts := strings.SplitN(text, ":", 2)
	if len(parts) != 2 {
		return tabular.Span{}, errors.New("missing chromosome separator")
	}
	bounds := strings.SplitN(parts[1], "-", 2)
	if len(bounds) != 2 {
		return tabular.Span{}, errors.New("missing position range")
	}
	start, err := strconv.Atoi(bounds[0])
	if err != nil {
		return tabular.Span{}, err
	}
	end, err := strconv.Atoi(bounds[1])
	if err != nil {
		return tabular.Span{}, err
	}
	if end < start {
		return tabular.Span{}, errors.New("interval end precedes start")
	}
	startXpos, err := chromosome.ToXpos(parts[0], start)
	if err != nil {
		return tabular.Span{}, err
	}
	endXpos, err := chromosome.ToXpos(parts[0], end)
	if err != nil {
		return tabular.Span{}, err
	}
	return tabular.Span{Start: startXpos, End: endXpos}, nil
}

func padInterval(padded *dtos.PaddedInterval) (tabular.Span, error) {
	pad := int(float64(padded.End-padded.Start) * padded.Padding)
	start := padded.Start - pad
	if start < 1 {
		start = 1
	}
	startXpos, err := chromosome.ToXpos(padded.Chrom, start)
	if err != nil {
		return tabular.Span{}, err
	}
	endXpos, err := chromosome.ToXpos(padded.Chrom, padded.End+pad)
	if err != nil {
		return tabular.Span{}, err
	}
	return tabular.Span{Start: startXpos, End: endXpos}, nil
}

// ParseVariantKey parses a "chrom-pos-ref-alt" variant id.
func ParseVariantKey(variantId string) (tables.Key, error) {
	parts := strings.SplitN(variantId, "-", 4)
	if len(parts) != 4 {
		return tables.Key{}, errors.New("expected chrom-pos-ref-alt")
	}
	pos, err := strconv.Atoi(parts[1])
	if err != nil {
		return tables.Key{}, err
	}
	xpos, err := chromosome.ToXpos(parts[0], pos)
	if err != nil {
		return tables.Key{}, err
	}
	if parts[2] == "" || parts[3] == "" {
		return tables.Key{}, errors.New("missing alleles")
	}
	return tables.Key{Xpos: xpos, Ref: parts[2], Alt: parts[3]}, nil
}
