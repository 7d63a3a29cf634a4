package tabular

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/xbrowse/xbrowse/models/tables"
)

/*
	Lazy table plans over partitioned variant tables.

	ReadTable hands back a *Table whose transformations only record
	work; nothing is scanned until Collect drives the plan. Callers
	must not rely on evaluation order of the recorded stages beyond
	the documented row ordering of Collect.
*/

// ErrTableNotFound marks a table that is not present in the store.
// Callers decide whether that is benign (an unloaded project) or a
// hard failure (a missing annotation table).
var ErrTableNotFound = errors.New("tabular: table not found")

type ReadOptions struct {
	// Intervals prunes the scan to rows whose xpos falls inside the
	// set, skipping whole partitions where the store can prove
	// non-overlap
	Intervals *IntervalSet

	// PartitionHint caps the partition read parallelism, 0 meaning
	// the store default
	PartitionHint int
}

type ReadOption func(*ReadOptions)

func WithIntervals(set *IntervalSet) ReadOption {
	return func(o *ReadOptions) { o.Intervals = set }
}

func WithPartitionHint(n int) ReadOption {
	return func(o *ReadOptions) { o.PartitionHint = n }
}

type Store interface {
	// ReadTable opens a lazy plan over the named table, ErrTableNotFound
	// when the store has no such table.
	ReadTable(name string, opts ...ReadOption) (*Table, error)
	TableExists(name string) bool
}

// rowSink receives rows during plan execution; returning an error
// aborts the scan.
type rowSink func(*tables.VariantRow) error

type rowSource func(ctx context.Context, sink rowSink) error

// errStopScan terminates a scan early without failing it.
var errStopScan = errors.New("tabular: stop scan")

// Table is a lazy, composable view over keyed variant rows.
type Table struct {
	name    string
	globals *tables.Globals
	source  rowSource
}

func NewTable(name string, globals *tables.Globals, source func(ctx context.Context, emit func(*tables.VariantRow) error) error) *Table {
	// the exported callback type and rowSource are distinct function
	// types, so the scan is bridged through a wrapper
	return &Table{name: name, globals: globals, source: func(ctx context.Context, sink rowSink) error {
		return source(ctx, func(row *tables.VariantRow) error {
			return sink(row)
		})
	}}
}

// FromRows builds an in-memory table, mainly for merge staging and
// tests.
func FromRows(name string, globals *tables.Globals, rows []*tables.VariantRow) *Table {
	return NewTable(name, globals, func(ctx context.Context, emit func(*tables.VariantRow) error) error {
		for _, row := range rows {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := emit(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func (t *Table) Name() string { return t.name }

func (t *Table) Globals() *tables.Globals { return t.globals }

func (t *Table) derive(source rowSource) *Table {
	return &Table{name: t.name, globals: t.globals, source: source}
}

// Filter keeps rows satisfying pred.
func (t *Table) Filter(pred func(*tables.VariantRow) bool) *Table {
	return t.derive(func(ctx context.Context, sink rowSink) error {
		return t.source(ctx, func(row *tables.VariantRow) error {
			if !pred(row) {
				return nil
			}
			return sink(row)
		})
	})
}

// Annotate applies fn to each row as it streams through.
func (t *Table) Annotate(fn func(*tables.VariantRow)) *Table {
	return t.derive(func(ctx context.Context, sink rowSink) error {
		return t.source(ctx, func(row *tables.VariantRow) error {
			fn(row)
			return sink(row)
		})
	})
}

// Head truncates the plan after n rows.
func (t *Table) Head(n int) *Table {
	return t.derive(func(ctx context.Context, sink rowSink) error {
		emitted := 0
		err := t.source(ctx, func(row *tables.VariantRow) error {
			if emitted >= n {
				return errStopScan
			}
			emitted++
			return sink(row)
		})
		if errors.Is(err, errStopScan) {
			return nil
		}
		return err
	})
}

// Union concatenates this table's rows with the other's. Keys may
// repeat; callers dedupe when that matters.
func (t *Table) Union(other *Table) *Table {
	return t.derive(func(ctx context.Context, sink rowSink) error {
		if err := t.source(ctx, sink); err != nil {
			return err
		}
		return other.source(ctx, sink)
	})
}

// OuterJoin full-outer-joins two plans on row key. merge receives
// nil for the side missing the key and returns the joined row, or
// nil to drop it. Rows come out in ascending key order.
func (t *Table) OuterJoin(other *Table, merge func(left, right *tables.VariantRow) *tables.VariantRow) *Table {
	return t.derive(func(ctx context.Context, sink rowSink) error {
		left, err := t.Collect(ctx)
		if err != nil {
			return err
		}
		right, err := other.Collect(ctx)
		if err != nil {
			return err
		}

		rightByKey := make(map[tables.Key]*tables.VariantRow, len(right))
		for _, row := range right {
			rightByKey[row.Key()] = row
		}

		var joined []*tables.VariantRow
		seen := make(map[tables.Key]struct{}, len(left))
		for _, l := range left {
			key := l.Key()
			seen[key] = struct{}{}
			if row := merge(l, rightByKey[key]); row != nil {
				joined = append(joined, row)
			}
		}
		for _, r := range right {
			if _, ok := seen[r.Key()]; ok {
				continue
			}
			if row := merge(nil, r); row != nil {
				joined = append(joined, row)
			}
		}

		sort.Slice(joined, func(i, j int) bool {
			return keyLess(joined[i].Key(), joined[j].Key())
		})
		for _, row := range joined {
			if err := sink(row); err != nil {
				return err
			}
		}
		return nil
	})
}

// Collect drives the plan and materializes the surviving rows.
func (t *Table) Collect(ctx context.Context) ([]*tables.VariantRow, error) {
	var rows []*tables.VariantRow
	err := t.source(ctx, func(row *tables.VariantRow) error {
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func keyLess(a, b tables.Key) bool {
	if a.Xpos != b.Xpos {
		return a.Xpos < b.Xpos
	}
	if a.Ref != b.Ref {
		return a.Ref < b.Ref
	}
	return a.Alt < b.Alt
}
