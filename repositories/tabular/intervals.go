package tabular

import (
	"sort"

	"github.com/biogo/store/llrb"
)

// Span is a closed xpos range.
type Span struct {
	Start int64
	End   int64
}

type spanNode Span

func (s spanNode) Compare(c llrb.Comparable) int {
	o := c.(spanNode)
	switch {
	case s.Start < o.Start:
		return -1
	case s.Start > o.Start:
		return 1
	default:
		return 0
	}
}

// IntervalSet is a normalized set of disjoint xpos spans backed by a
// balanced tree, so membership stays cheap when a request expands
// gene lists into hundreds of regions.
type IntervalSet struct {
	tree llrb.Tree
	size int
}

// NewIntervalSet normalizes the given spans (sorting and merging
// overlaps) into a queryable set. An empty input yields nil, which
// every query method treats as "no restriction".
func NewIntervalSet(spans []Span) *IntervalSet {
	if len(spans) == 0 {
		return nil
	}
	sorted := make([]Span, len(spans))
	copy(sorted, spans)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})

	set := &IntervalSet{tree: llrb.Tree{}}
	current := sorted[0]
	for _, s := range sorted[1:] {
		if s.Start <= current.End+1 {
			if s.End > current.End {
				current.End = s.End
			}
			continue
		}
		set.tree.Insert(spanNode(current))
		set.size++
		current = s
	}
	set.tree.Insert(spanNode(current))
	set.size++
	return set
}

func (s *IntervalSet) Len() int {
	if s == nil {
		return 0
	}
	return s.size
}

// Contains reports whether xpos falls inside any span. A nil set
// contains everything.
func (s *IntervalSet) Contains(xpos int64) bool {
	return s.Overlaps(xpos, xpos)
}

// Overlaps reports whether any span intersects the closed range
// [start, end]. A nil set overlaps everything.
func (s *IntervalSet) Overlaps(start, end int64) bool {
	if s == nil {
		return true
	}
	c := s.tree.Floor(spanNode{Start: end})
	if c == nil {
		return false
	}
	return c.(spanNode).End >= start
}

// Spans lists the normalized spans in ascending order.
func (s *IntervalSet) Spans() []Span {
	if s == nil {
		return nil
	}
	spans := make([]Span, 0, s.size)
	s.tree.Do(func(c llrb.Comparable) bool {
		spans = append(spans, Span(c.(spanNode)))
		return false
	})
	return spans
}
