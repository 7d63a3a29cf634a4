package search

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/xbrowse/xbrowse/models/constants/clinvar"
	"github.com/xbrowse/xbrowse/models/tables"
	"github.com/xbrowse/xbrowse/repositories/tabular"
	"github.com/xbrowse/xbrowse/utils"
)

const clinvarFilterKey = "clinvar"

// Payload flags carried by the pathogenic-variant sidecar rows.
const (
	pathogenicFlag       = "isPathogenic"
	likelyPathogenicFlag = "isLikelyPathogenic"
)

// prefilterTable is a loaded auxiliary reference table reduced to a
// key membership set. A nil table contains nothing.
type prefilterTable struct {
	name string
	keys map[tables.Key]struct{}
}

func (t *prefilterTable) Contains(key tables.Key) bool {
	if t == nil {
		return false
	}
	_, ok := t.keys[key]
	return ok
}

func (t *prefilterTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.keys)
}

// clinvarPrefilter resolves the known-pathogenic sidecar for this
// query, loading it at most once per query instance. A cached nil
// means the sidecar is disabled for this request: the data type does
// not carry one, no pathogenic significance was requested, or the
// reference itself is not loaded.
func (q *query) clinvarPrefilter(ctx context.Context) (*prefilterTable, error) {
	if loaded, ok := q.filters[clinvarFilterKey]; ok {
		return loaded, nil
	}

	loaded, err := q.loadClinvarPrefilter(ctx)
	if err != nil {
		return nil, err
	}
	q.filters[clinvarFilterKey] = loaded
	return loaded, nil
}

func (q *query) loadClinvarPrefilter(ctx context.Context) (*prefilterTable, error) {
	if !q.params.cfg.pathogenicPrefilter {
		return nil, nil
	}

	wantPath, wantLikely := false, false
	for _, f := range q.params.pathogenicity.clinvarFilters {
		if !utils.StringInSlice(f, clinvar.PathSignificances) {
			continue
		}
		if f == clinvar.PathFilter {
			wantPath = true
		} else {
			wantLikely = true
		}
	}
	if !wantPath && !wantLikely {
		return nil, nil
	}

	name := clinvarPathTableName(q.params.cfg.dataType)
	plan, err := q.svc.store.ReadTable(name)
	if err != nil {
		if errors.Is(err, tabular.ErrTableNotFound) {
			// the query can still answer without the prefilter benefit
			fmt.Printf("[%s] - pathogenic sidecar %s is not loaded\n", time.Now().Format(time.RFC3339), name)
			return nil, nil
		}
		return nil, err
	}

	// both significances together admit the whole sidecar
	if !(wantPath && wantLikely) {
		flag := pathogenicFlag
		if wantLikely {
			flag = likelyPathogenicFlag
		}
		plan = plan.Filter(func(row *tables.VariantRow) bool {
			return rowFlag(row, flag)
		})
	}

	rows, err := plan.Collect(ctx)
	if err != nil {
		return nil, err
	}

	loaded := &prefilterTable{name: name, keys: make(map[tables.Key]struct{}, len(rows))}
	for _, row := range rows {
		loaded.keys[row.Key()] = struct{}{}
	}
	fmt.Printf("[%s] - loaded %d pathogenic sidecar keys from %s\n",
		time.Now().Format(time.RFC3339), loaded.Len(), name)
	return loaded, nil
}

func rowFlag(row *tables.VariantRow, name string) bool {
	flag, _ := row.Payload[name].(bool)
	return flag
}

// pathRange is a closed run of enum ids treated as matching.
type pathRange struct {
	start int
	end   int
}

// buildPathRanges walks the ordered significance configs and merges
// the requested ones into contiguous [start, end] id ranges against
// the enum order, so a membership test is a couple of comparisons
// instead of a set lookup. Configs whose terms are missing from the
// enum are skipped.
func buildPathRanges(configs []clinvar.PathRange, terms map[string]bool, enumLookup map[string]int) []pathRange {
	open := false
	var ranges []pathRange
	for _, cfg := range configs {
		if !terms[cfg.Filter] {
			open = false
			continue
		}

		end := len(enumLookup)
		if cfg.End != "" {
			id, ok := enumLookup[cfg.End]
			if !ok {
				open = false
				continue
			}
			end = id
		}
		start, ok := enumLookup[cfg.Start]
		if !ok {
			open = false
			continue
		}

		if open {
			ranges[len(ranges)-1].end = end
		} else {
			ranges = append(ranges, pathRange{start: start, end: end})
			open = true
		}
	}
	return ranges
}

func matchesPathRanges(id *int, ranges []pathRange) bool {
	if id == nil {
		return false
	}
	for _, r := range ranges {
		if *id >= r.start && *id <= r.end {
			return true
		}
	}
	return false
}
