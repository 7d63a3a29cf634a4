package search

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	dataTypeConstants "github.com/xbrowse/xbrowse/models/constants/data-type"
	sortConstants "github.com/xbrowse/xbrowse/models/constants/sort"
	"github.com/xbrowse/xbrowse/models/dtos"
	"github.com/xbrowse/xbrowse/models/tables"
	"github.com/xbrowse/xbrowse/repositories/tabular"
)

// Lookup resolves one variant id against the per-project genotype
// registry and returns the annotated variant with per-family calls. A
// variant recorded with only reference calls is not found.
func (s *Service) Lookup(ctx context.Context, request *dtos.LookupRequest) (*dtos.VariantResult, error) {
	dt, err := dataTypeConstants.CastToDataType(request.DataType)
	if err != nil {
		lookupRequests.WithLabelValues(request.DataType, "invalid").Inc()
		return nil, errors.Wrapf(ErrInvalidRequest, "unknown data type %s", request.DataType)
	}
	cfg := configForDataType(dt)
	if !cfg.supportsLookup {
		lookupRequests.WithLabelValues(string(dt), "unsupported").Inc()
		return nil, errors.Wrapf(ErrLookupUnsupported, "%s", dt)
	}

	key, err := ParseVariantKey(request.VariantId)
	if err != nil {
		lookupRequests.WithLabelValues(string(dt), "invalid").Inc()
		return nil, errors.Wrapf(ErrInvalidRequest, "invalid variant id %s", request.VariantId)
	}

	rows, q, err := s.lookupRows(ctx, cfg, map[tables.Key]bool{key: true})
	if err != nil {
		lookupRequests.WithLabelValues(string(dt), "error").Inc()
		return nil, err
	}
	if len(rows) == 0 {
		lookupRequests.WithLabelValues(string(dt), "not_found").Inc()
		return nil, errors.Wrapf(ErrNotFound, "variant %s", request.VariantId)
	}

	result := q.formatVariant(rows[0], nil)
	// lookup responses carry the cohort-wide calls keyed by family
	result.FamilyGenotypes = result.Genotypes
	result.Genotypes = nil

	lookupRequests.WithLabelValues(string(dt), "ok").Inc()
	fmt.Printf("[%s] - %s lookup resolved %s across %d families\n",
		time.Now().Format(time.RFC3339), dt, request.VariantId, len(result.FamilyGenotypes))
	return result, nil
}

// MultiLookup resolves several variant ids at once, skipping the ids
// with no qualifying cohort data. Genotypes are elided; callers only
// need the shared annotations.
func (s *Service) MultiLookup(ctx context.Context, request *dtos.MultiLookupRequest) (*dtos.MultiLookupResponse, error) {
	dt, err := dataTypeConstants.CastToDataType(request.DataType)
	if err != nil {
		lookupRequests.WithLabelValues(request.DataType, "invalid").Inc()
		return nil, errors.Wrapf(ErrInvalidRequest, "unknown data type %s", request.DataType)
	}
	cfg := configForDataType(dt)
	if !cfg.supportsLookup {
		lookupRequests.WithLabelValues(string(dt), "unsupported").Inc()
		return nil, errors.Wrapf(ErrLookupUnsupported, "%s", dt)
	}

	keys := make(map[tables.Key]bool, len(request.VariantIds))
	for _, variantId := range request.VariantIds {
		key, err := ParseVariantKey(variantId)
		if err != nil {
			lookupRequests.WithLabelValues(string(dt), "invalid").Inc()
			return nil, errors.Wrapf(ErrInvalidRequest, "invalid variant id %s", variantId)
		}
		keys[key] = true
	}
	if len(keys) == 0 {
		return nil, errors.Wrap(ErrInvalidRequest, "variant_ids is required")
	}

	rows, q, err := s.lookupRows(ctx, cfg, keys)
	if err != nil {
		lookupRequests.WithLabelValues(string(dt), "error").Inc()
		return nil, err
	}

	response := &dtos.MultiLookupResponse{}
	for _, row := range rows {
		result := q.formatVariant(row, nil)
		result.Genotypes = nil
		result.FamilyGuids = nil
		response.Results = append(response.Results, result)
	}
	lookupRequests.WithLabelValues(string(dt), "ok").Inc()
	return response, nil
}

// lookupRows reads the registry rows for the requested keys, keeps
// the ones with at least one non-reference call, and annotates them.
// The returned query carries the annotation globals for formatting.
func (s *Service) lookupRows(ctx context.Context, cfg *dataTypeConfig, keys map[tables.Key]bool) ([]*tables.VariantRow, *query, error) {
	q := s.newQuery(&searchParams{cfg: cfg, build: s.build, sortKey: sortConstants.Xpos, numResults: defaultNumResults})

	plan, err := s.store.ReadTable(lookupTableName(cfg.dataType))
	if err != nil {
		if errors.Is(err, tabular.ErrTableNotFound) {
			return nil, nil, errors.Wrapf(ErrNotFound, "variant lookup is not loaded for %s", cfg.dataType)
		}
		return nil, nil, err
	}

	rows, err := plan.
		Filter(func(row *tables.VariantRow) bool { return keys[row.Key()] }).
		Filter(anyNonRefEntry).
		Collect(ctx)
	if err != nil {
		return nil, nil, err
	}

	annotated, _, err := q.annotateRows(ctx, rows, nil)
	if err != nil {
		return nil, nil, err
	}
	return annotated, q, nil
}
