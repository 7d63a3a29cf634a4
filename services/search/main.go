package search

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/xbrowse/xbrowse/models"
	"github.com/xbrowse/xbrowse/models/constants"
	dataTypeConstants "github.com/xbrowse/xbrowse/models/constants/data-type"
	genomeBuild "github.com/xbrowse/xbrowse/models/constants/genome-build"
	"github.com/xbrowse/xbrowse/models/dtos"
	"github.com/xbrowse/xbrowse/models/tables"
	"github.com/xbrowse/xbrowse/repositories/tabular"
	referenceService "github.com/xbrowse/xbrowse/services/reference"
)

/*
	Family variant search over partitioned callset tables.

	A request names one callset flavour (SNV_INDEL, MITO, ...) and
	the families to search. Each sequencing protocol's project
	tables are scanned in parallel, family genotype entries are
	bound and judged against the inheritance and quality filters,
	the protocols are merged with the either-protocol admission
	rule, and the surviving rows are annotated, filtered, paired
	for compound heterozygous modes, sorted and paged.
*/

// Sentinel errors the HTTP layer maps onto response codes.
var (
	ErrInvalidRequest    = errors.New("invalid search request")
	ErrNotFound          = errors.New("no results found")
	ErrLookupUnsupported = errors.New("variant lookup is not supported for the requested data type")
)

type Service struct {
	cfg       *models.Config
	store     tabular.Store
	reference *referenceService.Service
	build     constants.GenomeBuild
}

func NewSearchService(cfg *models.Config, store tabular.Store, reference *referenceService.Service) *Service {
	build, err := genomeBuild.CastToGenomeBuild(cfg.Datasets.GenomeBuild)
	if err != nil {
		fmt.Printf("[%s] - unknown configured genome build %s, defaulting to %s\n",
			time.Now().Format(time.RFC3339), cfg.Datasets.GenomeBuild, build)
	}
	return &Service{cfg: cfg, store: store, reference: reference, build: build}
}

func (s *Service) Build() constants.GenomeBuild { return s.build }

// LoadedDataTypes lists the callset flavours whose annotation tables
// are present in the store.
func (s *Service) LoadedDataTypes() []string {
	var out []string
	for _, dt := range dataTypeConstants.All() {
		if s.store.TableExists(annotationsTableName(dt)) {
			out = append(out, string(dt))
		}
	}
	return out
}

// query is the per-request execution state. Instances are never
// shared across requests; the lazily loaded filter tables live and
// die with one query.
type query struct {
	svc    *Service
	params *searchParams

	// filters is the per-instance loaded-filter cache. A missing
	// key means not yet consulted; a nil value means the filter is
	// disabled for this request (not requested, or reference absent).
	filters map[string]*prefilterTable

	// annotationGlobals holds the annotation table sidecar once the
	// rows have been annotated; enum id lookups resolve against it
	annotationGlobals *tables.Globals
}

func (s *Service) newQuery(params *searchParams) *query {
	return &query{svc: s, params: params, filters: map[string]*prefilterTable{}}
}

// Search runs one family variant search end to end.
func (s *Service) Search(ctx context.Context, request *dtos.SearchRequest) (*dtos.SearchResponse, error) {
	start := time.Now()

	params, err := s.bindSearchParams(request)
	if err != nil {
		searchRequests.WithLabelValues("unknown", "invalid").Inc()
		return nil, err
	}
	label := string(params.cfg.dataType)

	results, total, err := s.newQuery(params).run(ctx)
	if err != nil {
		searchRequests.WithLabelValues(label, "error").Inc()
		return nil, err
	}

	searchRequests.WithLabelValues(label, "ok").Inc()
	searchDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
	fmt.Printf("[%s] - %s search returned %d of %d results in %s\n",
		time.Now().Format(time.RFC3339), label, len(results), total, time.Since(start))

	return &dtos.SearchResponse{Results: results, Total: total}, nil
}

// protocolRows is one sequencing protocol's staged pipeline output.
type protocolRows struct {
	sampleType constants.SampleType
	// familyGuids is the bound family slot order for this protocol
	familyGuids []string
	rows        []*tables.VariantRow
}

func (q *query) run(ctx context.Context) ([]dtos.SearchResult, int, error) {
	protocols := q.params.sampleTypes()
	if len(protocols) == 0 {
		return nil, 0, errors.Wrap(ErrInvalidRequest, "no sample data for the requested data type")
	}

	// the clinvar prefilter is loaded up front so the protocol
	// pipelines can consult it without racing on the cache
	prefilter, err := q.clinvarPrefilter(ctx)
	if err != nil {
		return nil, 0, err
	}

	// protocol pipelines are independent until the merge step
	staged := make([]*protocolRows, len(protocols))
	g, gctx := errgroup.WithContext(ctx)
	for i, st := range protocols {
		i, st := i, st
		g.Go(func() error {
			rows, familyGuids, err := q.protocolPipeline(gctx, st, prefilter)
			if err != nil {
				return err
			}
			staged[i] = &protocolRows{sampleType: st, familyGuids: familyGuids, rows: rows}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	var present []*protocolRows
	for _, p := range staged {
		if p != nil && len(p.familyGuids) > 0 {
			present = append(present, p)
		}
	}
	if len(present) == 0 {
		// all protocols absent yields an empty result, not an error
		return nil, 0, nil
	}

	merged, err := mergeProtocols(present)
	if err != nil {
		return nil, 0, err
	}

	var singles, compHet []*tables.VariantRow
	if q.params.hasSingleVariantSearch() {
		singles = admitRows(merged, admitSingles)
	}
	if q.params.hasCompHetSearch() {
		compHet = admitRows(merged, admitCompHet)
	}

	singles, compHet, err = q.annotateRows(ctx, singles, compHet)
	if err != nil {
		return nil, 0, err
	}

	singles = q.filterAnnotatedRows(singles, false)
	compHet = q.filterAnnotatedRows(compHet, true)

	pairs, err := q.pairCompoundHets(merged, compHet)
	if err != nil {
		return nil, 0, err
	}

	return q.formatResults(singles, pairs)
}
