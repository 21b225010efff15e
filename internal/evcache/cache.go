// Package evcache implements the expected-value memo the value-function
// engine reads and writes: one row per distinct CacheKeyState, indexed
// further by floor(time of day) and, for NonFixed locations, by a
// caller-supplied zone slot. Every concrete NonFixed zone shares one row
// per CacheKeyState (the key itself does not carry the zone -- see
// model.State.CacheKey) so the value-function engine can read an entire
// destination axis out of one row via its AllDests offset scheme. A row
// is DayLength+2 timesteps long so the engine's linear-interpolation
// kernel can always read one slot past the last real timestep; that
// sentinel slot is pinned to -Inf and never written.
//
// The cache itself is agnostic to zone numbering: callers pass the zone
// slot (0 for a fixed-zone key, the world-local zone index for a
// NonFixed key) explicitly, since only the value-function engine --
// which owns the World -- knows how to turn a Location's zone into a
// local index.
package evcache

import (
	"math"

	"github.com/scaper-sim/scaper/internal/model"
)

const negInf = math.Inf(-1)

// row is one CacheKeyState's memo: a flat, zone-major array and a
// parallel todo bitmap. zoneCount is 1 for Residence/Workplace keys, or
// the world's zone count for NonFixed keys.
type row struct {
	todo      []bool
	ev        []float64
	zoneCount int
}

// Cache is one agent's (or one latent class's) EV memo, keyed by
// CacheKeyState. It is not safe for concurrent use; each worker owns its
// own Cache, rented from and returned to a shared Pool.
type Cache struct {
	dayLength int
	numZones  int // world size, used to size NonFixed rows
	pool      *Pool
	rows      map[model.CacheKeyState]*row
}

// New returns an empty Cache. dayLength is ModelContext.DayLength();
// numZones is the world's zone count (World.NumZones()).
func New(dayLength, numZones int, pool *Pool) *Cache {
	return &Cache{
		dayLength: dayLength,
		numZones:  numZones,
		pool:      pool,
		rows:      make(map[model.CacheKeyState]*row),
	}
}

// Stride is the per-zone row length: one slot per timestep plus the two
// trailing sentinel slots (DayLength and DayLength+1).
func (c *Cache) Stride() int {
	return c.dayLength + 2
}

func zoneCountFor(key model.CacheKeyState, numZones int) int {
	if key.LocationKind == model.LocNonFixed {
		return numZones
	}
	return 1
}

func (c *Cache) rowFor(key model.CacheKeyState) *row {
	if r, ok := c.rows[key]; ok {
		return r
	}
	zc := zoneCountFor(key, c.numZones)
	r := &row{
		todo:      make([]bool, zc*c.dayLength),
		ev:        c.pool.Rent(zc*c.Stride(), negInf),
		zoneCount: zc,
	}
	for i := range r.todo {
		r.todo[i] = true
	}
	c.rows[key] = r
	return r
}

// NeedsCaching reports whether s's EV (at floor(s.TimeOfDay), in row
// slot zoneSlot) has not yet been written this pass. A timestep outside
// [0, DayLength) is reported as not needing caching -- it is handled by
// the sentinel slots, not by a fresh write. zoneSlot is ignored for
// fixed-zone (Residence/Workplace) keys.
func (c *Cache) NeedsCaching(s model.State, zoneSlot int) bool {
	t := int(math.Floor(s.TimeOfDay))
	if t < 0 || t >= c.dayLength {
		return false
	}
	r := c.rowFor(s.CacheKey())
	if r.zoneCount == 1 {
		zoneSlot = 0
	}
	return r.todo[zoneSlot*c.dayLength+t]
}

// GetAllTimesteps returns the full EV row for s's CacheKeyState: a slice
// of length Stride() for a fixed-zone state, or NumZones*Stride() for a
// NonFixed state, laid out zone-major (zone*Stride()+timestep) -- the
// layout the value-function engine's AllDests/SingleDest/ZerosDest
// offset arrays assume.
func (c *Cache) GetAllTimesteps(s model.State) []float64 {
	return c.rowFor(s.CacheKey()).ev
}

// Cache writes value at floor(s.TimeOfDay) in row slot zoneSlot and
// marks that slot's todo flag false. Out-of-range timesteps are silently
// ignored (there is nothing to cache past the day horizon). zoneSlot is
// ignored for fixed-zone keys.
func (c *Cache) Cache(s model.State, zoneSlot int, value float64) {
	t := int(math.Floor(s.TimeOfDay))
	if t < 0 || t >= c.dayLength {
		return
	}
	r := c.rowFor(s.CacheKey())
	if r.zoneCount == 1 {
		zoneSlot = 0
	}
	r.ev[zoneSlot*c.Stride()+t] = value
	r.todo[zoneSlot*c.dayLength+t] = false
}

// CacheZero writes 0 at floor(s.TimeOfDay) in row slot zoneSlot -- the
// terminal-state convention: an End transition's continuation value is
// 0, not -Inf, so it neither blocks nor wins a logsum against a real
// alternative.
func (c *Cache) CacheZero(s model.State, zoneSlot int) {
	c.Cache(s, zoneSlot, 0)
}

// Dispose returns every rented row back to the owning Pool and clears
// the Cache's own bookkeeping. The Cache must not be used afterward.
func (c *Cache) Dispose() {
	for _, r := range c.rows {
		c.pool.Release(r.ev)
	}
	c.rows = nil
}
