package evcache

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scaper-sim/scaper/internal/model"
)

func fixedZoneState() model.State {
	return model.State{
		Activity:  model.Work,
		Location:  model.Workplace(3),
		TimeOfDay: 40,
		Duration:  2,
	}
}

func TestCacheFixedZoneRoundTrip(t *testing.T) {
	pool := NewPool()
	c := New(96, 10, pool)
	s := fixedZoneState()

	require.True(t, c.NeedsCaching(s, 0))

	c.Cache(s, 0, -4.5)
	assert.False(t, c.NeedsCaching(s, 0))

	row := c.GetAllTimesteps(s)
	require.Len(t, row, 96+2)
	assert.Equal(t, -4.5, row[40])
	assert.True(t, math.IsInf(row[41], -1))
}

func TestCacheZeroMarksTerminal(t *testing.T) {
	pool := NewPool()
	c := New(96, 10, pool)
	s := fixedZoneState()
	s.TimeOfDay = 95

	c.CacheZero(s, 0)
	row := c.GetAllTimesteps(s)
	assert.Equal(t, 0.0, row[95])
	assert.False(t, c.NeedsCaching(s, 0))
}

func TestCacheNonFixedZonesShareOneRow(t *testing.T) {
	pool := NewPool()
	numZones := 4
	dayLength := 10
	c := New(dayLength, numZones, pool)

	base := model.State{Activity: model.Shop, Location: model.NonFixed(0), TimeOfDay: 2, Duration: 1}
	for z := 0; z < numZones; z++ {
		s := base
		s.Location = model.NonFixed(z)
		assert.True(t, c.NeedsCaching(s, z))
		c.Cache(s, z, float64(z+1))
	}

	row := c.GetAllTimesteps(base)
	stride := dayLength + 2
	require.Len(t, row, numZones*stride)
	for z := 0; z < numZones; z++ {
		assert.Equal(t, float64(z+1), row[z*stride+2])
		other := base
		other.Location = model.NonFixed(z)
		assert.False(t, c.NeedsCaching(other, z))
	}
}

func TestNeedsCachingOutOfRangeIsFalse(t *testing.T) {
	pool := NewPool()
	c := New(96, 10, pool)
	s := fixedZoneState()
	s.TimeOfDay = 96 // == DayLength, past the last real slot

	assert.False(t, c.NeedsCaching(s, 0))
}

func TestDisposeReturnsRowsToPool(t *testing.T) {
	pool := NewPool()
	c := New(96, 10, pool)
	s := fixedZoneState()
	c.Cache(s, 0, 1)

	c.Dispose()
	assert.Len(t, pool.free[96+2], 1)

	row := pool.Rent(96+2, math.Inf(-1))
	assert.Len(t, row, 98)
}
