package tabular

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIntervalSetNormalizesSpans(t *testing.T) {
	set := NewIntervalSet([]Span{
		{Start: 100, End: 200},
		{Start: 150, End: 250},
		{Start: 251, End: 300}, // adjacent, merges too
		{Start: 500, End: 600},
	})

	assert.Equal(t, 2, set.Len())
	assert.Equal(t, []Span{{Start: 100, End: 300}, {Start: 500, End: 600}}, set.Spans())
}

func TestIntervalSetEmptyInputIsNil(t *testing.T) {
	set := NewIntervalSet(nil)
	assert.Nil(t, set)

	// a nil set is unrestricted
	assert.True(t, set.Contains(42))
	assert.True(t, set.Overlaps(1, 2))
	assert.Equal(t, 0, set.Len())
}

func TestIntervalSetContains(t *testing.T) {
	set := NewIntervalSet([]Span{
		{Start: 1_000_000_100, End: 1_000_000_200},
		{Start: 2_000_000_000, End: 2_000_000_050},
	})

	assert.True(t, set.Contains(1_000_000_100))
	assert.True(t, set.Contains(1_000_000_200))
	assert.False(t, set.Contains(1_000_000_201))
	assert.False(t, set.Contains(999))
	assert.True(t, set.Contains(2_000_000_025))
}

func TestIntervalSetOverlaps(t *testing.T) {
	set := NewIntervalSet([]Span{{Start: 100, End: 200}})

	assert.True(t, set.Overlaps(150, 300))
	assert.True(t, set.Overlaps(50, 100))
	assert.True(t, set.Overlaps(200, 400))
	assert.False(t, set.Overlaps(201, 400))
	assert.False(t, set.Overlaps(1, 99))
}
