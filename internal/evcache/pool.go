package evcache

// Pool is a free list of EV-row backing arrays, keyed by length. Like
// matx.Pool, it is not thread-safe and must be owned by a single
// worker/agent at a time.
type Pool struct {
	free map[int][][]float64
}

// NewPool returns an empty row Pool.
func NewPool() *Pool {
	return &Pool{free: make(map[int][][]float64)}
}

// Rent returns a row of exactly n float64s, initialized to fillWith
// everywhere.
func (p *Pool) Rent(n int, fillWith float64) []float64 {
	if stack := p.free[n]; len(stack) > 0 {
		row := stack[len(stack)-1]
		p.free[n] = stack[:len(stack)-1]
		for i := range row {
			row[i] = fillWith
		}
		return row
	}
	row := make([]float64, n)
	for i := range row {
		row[i] = fillWith
	}
	return row
}

// Release returns row to the pool for reuse at its own length.
func (p *Pool) Release(row []float64) {
	if row == nil {
		return
	}
	n := len(row)
	p.free[n] = append(p.free[n], row)
}
