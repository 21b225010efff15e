package matx

// Pool is a per-(shape) free list of backing arrays for a single world
// size. A Pool is not thread-safe; each worker goroutine must own its
// own Pool (injected via a per-worker context, never shared). Rent
// returns a zeroed slice; Release returns it for reuse. Callers must
// balance every Rent with a Release -- failing to do so is a (silent)
// leak, and releasing to a Pool built for a different NumZones is a bug.
type Pool struct {
	numZones int
	free     [4][][]float64 // indexed by Shape
}

// NewPool creates a Pool sized for a world of numZones zones.
func NewPool(numZones int) *Pool {
	return &Pool{numZones: numZones}
}

// NumZones returns the world size this pool was built for.
func (p *Pool) NumZones() int {
	return p.numZones
}

// Rent returns a zeroed Mat of the given shape with scale 1.
func (p *Pool) Rent(shape Shape) Mat {
	n := shape.Len(p.numZones)
	stack := p.free[shape]
	if len(stack) > 0 {
		data := stack[len(stack)-1]
		p.free[shape] = stack[:len(stack)-1]
		clear(data)
		return New(shape, p.numZones, 1, data)
	}
	return New(shape, p.numZones, 1, make([]float64, n))
}

// Release returns m's backing array to the pool for reuse. m must have
// been rented from this same Pool (same NumZones); releasing a Mat
// rented from a different Pool corrupts the free list.
func (p *Pool) Release(m Mat) {
	if m.Data == nil {
		return
	}
	p.free[m.Shape] = append(p.free[m.Shape], m.Data)
}
