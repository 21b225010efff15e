// Package valuefunc implements the recursive, cache-memoized logsum
// value-function engine: the program's core. For a Good state s, the
// value V̄(s) is ln Σ Φ(s,d) over s's feasible decisions, where each
// Φ(s,d) = exp(u(s,d) + EV(s,d)); V̄ is 0 at an End state and -∞ at a
// Bad one. Traversal is depth-first, memoized by evcache.Cache at the
// floor(time) slot of each decision's continuation state.
//
// A Travel decision to a NonFixed(All) destination is the one case
// where a single option fans out across every zone at once: its Φ is a
// RowVec (one cell per destination), accumulated and exponentiated with
// the same broadcast Mat arithmetic as a concrete-destination option,
// and its cells all contribute separately to the enclosing sum. This
// engine recurses per concrete origin zone (never across the origin
// axis), vectorizing only the destination axis; see DESIGN.md for why
// that scope was chosen over full origin-vectorization.
package valuefunc

import (
	"math"

	"github.com/scaper-sim/scaper/internal/config"
	"github.com/scaper-sim/scaper/internal/evcache"
	"github.com/scaper-sim/scaper/internal/matx"
	"github.com/scaper-sim/scaper/internal/model"
	"github.com/scaper-sim/scaper/internal/scaperr"
	"github.com/scaper-sim/scaper/internal/statespace"
	"github.com/scaper-sim/scaper/internal/world"
)

// Engine evaluates and caches the value function for one agent (one
// latent class at a time -- a fresh Engine/Cache pair per class, since
// each class has its own UtilitySpec coefficients).
type Engine struct {
	ctx   *config.ModelContext
	agent model.Agent
	w     *world.World
	cache *evcache.Cache
	class int

	dayLength int
	numZones  int
	allDests  []int // AllDests: li*stride, cached once per Engine
}

// New builds an Engine over w using cache as its EV memo, evaluating
// utility under latent class's coefficient set. cache must have been
// sized for w.NumZones() and ctx.DayLength().
func New(ctx *config.ModelContext, agent model.Agent, w *world.World, cache *evcache.Cache, class int) *Engine {
	e := &Engine{
		ctx:       ctx,
		agent:     agent,
		w:         w,
		cache:     cache,
		class:     class,
		dayLength: ctx.DayLength(),
		numZones:  w.NumZones(),
	}
	stride := cache.Stride()
	e.allDests = make([]int, e.numZones)
	for li := range e.allDests {
		e.allDests[li] = li * stride
	}
	return e
}

// zoneSlot maps a concrete State's location to the cache row slot it
// occupies: 0 for a fixed-zone location, the world-local zone index for
// a NonFixed one. s must not carry the NonFixed(All) marker.
func (e *Engine) zoneSlot(s model.State) int {
	if s.Location.Kind != model.LocNonFixed {
		return 0
	}
	return e.w.ZIndex(s.Location.Zone)
}

// Value returns the (possibly time-interpolated) expected value at s,
// ensuring every state it depends on is computed and cached first.
func (e *Engine) Value(s model.State) float64 {
	class := statespace.Classify(e.ctx, e.agent, s)
	switch class {
	case statespace.Bad:
		return math.Inf(-1)
	case statespace.End:
		return 0
	}

	lo := math.Floor(s.TimeOfDay)
	loState := s
	loState.TimeOfDay = lo
	e.ensure(loState)
	zs := e.zoneSlot(loState)
	row := e.cache.GetAllTimesteps(loState)
	stride := e.cache.Stride()
	loVal := row[zs*stride+int(lo)]

	a := s.TimeOfDay - lo
	if a == 0 {
		return loVal
	}
	hiState := s
	hiState.TimeOfDay = math.Ceil(s.TimeOfDay)
	e.ensure(hiState)
	hiVal := row[zs*stride+int(math.Ceil(s.TimeOfDay))]
	return (1-a)*loVal + a*hiVal
}

// ensure fills s's cache slot (at its own, already-integral time) if it
// has not been filled this pass. s is assumed Good, End, or Bad as
// classified fresh here -- callers (including Value and ensure itself)
// never pre-filter.
func (e *Engine) ensure(s model.State) {
	zs := e.zoneSlot(s)
	if !e.cache.NeedsCaching(s, zs) {
		return
	}
	switch statespace.Classify(e.ctx, e.agent, s) {
	case statespace.Bad:
		e.cache.Cache(s, zs, math.Inf(-1))
	case statespace.End:
		e.cache.CacheZero(s, zs)
	default:
		total := e.sumOptions(s)
		if total <= 0 {
			e.cache.Cache(s, zs, math.Inf(-1))
			return
		}
		e.cache.Cache(s, zs, math.Log(total))
	}
}

// sumOptions implements the option-utility kernel and sum-and-cache
// reduction for a Good state s: rents one Mat per option, accumulates
// its utility and expected future value, exponentiates, and returns the
// grand total across every option and (for the NonFixed(All) option)
// every destination cell.
func (e *Engine) sumOptions(s model.State) float64 {
	decisions := statespace.Options(e.ctx, e.agent, e.w, s)
	total := 0.0
	for _, d := range decisions {
		total += e.optionPhiSum(s, d)
	}
	return total
}

// Phi returns exp(u(s,d) + EV(s,d)) for an exploded (concrete-zone)
// decision d out of s, i.e. optionPhiSum restricted to the Scalar case.
// Used by the path simulator, which only ever works with exploded
// options. Panics via scaperr.ShapeMismatch if d is not concrete
// (NonFixed(All) options must go through the value-function engine's
// own sumOptions, not the simulator).
func (e *Engine) Phi(s model.State, d model.Decision) float64 {
	if d.Kind == model.DecTravel && !d.Exploded() {
		scaperr.ShapeMismatch("Phi requires an exploded decision, got %v", d)
	}
	return e.optionPhiSum(s, d)
}

func (e *Engine) optionPhiSum(s model.State, d model.Decision) float64 {
	shape := matx.Scalar
	if d.Kind == model.DecTravel {
		shape = world.ShapeOf(s.Location, d.Dest)
	}
	if shape == matx.ColVec || shape == matx.ODMat {
		scaperr.ShapeMismatch("value-function engine only evaluates concrete-origin options, got %v", shape)
	}

	acc := e.w.Pool().Rent(shape)
	defer e.w.Pool().Release(acc)

	terms := e.ctx.Utility.Terms(e.ctx, e.agent, s, d, e.w, e.class)
	config.Accumulate(e.ctx, terms, &acc, e.w.Pool())

	if shape == matx.RowVec {
		e.addExpectedFutureAllZones(s, d, &acc)
	} else {
		e.addExpectedFutureScalar(s, d, &acc)
	}

	acc.ExpInplace()
	return acc.Sum()
}

func (e *Engine) addExpectedFutureScalar(s model.State, d model.Decision, acc *matx.Mat) {
	candidates := statespace.NextIntegralTimeStates(e.ctx, e.agent, e.w, s, d)
	for _, c := range candidates {
		e.ensure(c)
	}
	anchor := candidates[0]
	row := e.cache.GetAllTimesteps(anchor)
	offset := e.zoneSlot(anchor) * e.cache.Stride()

	t := e.arrivalTime(s, d)
	addEvUtilityConst(row, acc, t, offset, e.dayLength)
}

func (e *Engine) addExpectedFutureAllZones(s model.State, d model.Decision, acc *matx.Mat) {
	var row []float64
	for _, z := range e.w.Zones() {
		dest := model.NonFixed(z)
		d2 := model.Decision{Kind: model.DecTravel, Mode: d.Mode, Dest: dest}
		for _, step := range e.w.TravelTimesteps(d.Mode, s.Location, dest, e.ctx.TimestepMinutes) {
			child := statespace.NextState(e.ctx, e.agent, s, d2, s.TimeOfDay+float64(step))
			e.ensure(child)
			if row == nil {
				// every destination shares one CacheKeyState (zone is not
				// part of the key for NonFixed locations), so the first
				// child's row is the row for all of them.
				row = e.cache.GetAllTimesteps(child)
			}
		}
	}
	if row == nil {
		return
	}

	timeMat := e.arrivalTimeRow(s, d)
	defer e.w.Pool().Release(timeMat)
	addEvUtilityVector(row, acc, timeMat.Data, e.allDests, e.dayLength)
}

// arrivalTime returns the exact continuous arrival time (in timesteps
// since DayStart) of a scalar-shaped decision.
func (e *Engine) arrivalTime(s model.State, d model.Decision) float64 {
	switch d.Kind {
	case model.DecEnd:
		return s.TimeOfDay
	case model.DecTravel:
		return s.TimeOfDay + e.travelMinutes(s, d)/e.ctx.TimestepMinutes
	default:
		return s.TimeOfDay + e.ctx.DecisionStep(s.TimeOfDay)
	}
}

func (e *Engine) travelMinutes(s model.State, d model.Decision) float64 {
	total := 0.0
	for _, m := range e.w.TravelTime(d.Mode, s.Location, d.Dest, s.TimeOfDay) {
		total += m.At(0)
		e.w.Pool().Release(m)
	}
	for _, m := range e.w.TravelWait(d.Mode, s.Location, d.Dest, s.TimeOfDay) {
		total += m.At(0)
		e.w.Pool().Release(m)
	}
	for _, m := range e.w.TravelAccess(d.Mode, s.Location, d.Dest, s.TimeOfDay) {
		total += m.At(0)
		e.w.Pool().Release(m)
	}
	return total
}

// arrivalTimeRow returns the per-destination continuous arrival time
// Mat (RowVec) of a Travel(mode, NonFixed(All)) decision. Callers must
// release it back to the World's pool.
func (e *Engine) arrivalTimeRow(s model.State, d model.Decision) matx.Mat {
	acc := e.w.Pool().Rent(matx.RowVec)
	for _, m := range e.w.TravelTime(d.Mode, s.Location, d.Dest, s.TimeOfDay) {
		matx.AddInto(&acc, m)
		e.w.Pool().Release(m)
	}
	for _, m := range e.w.TravelWait(d.Mode, s.Location, d.Dest, s.TimeOfDay) {
		matx.AddInto(&acc, m)
		e.w.Pool().Release(m)
	}
	for _, m := range e.w.TravelAccess(d.Mode, s.Location, d.Dest, s.TimeOfDay) {
		matx.AddInto(&acc, m)
		e.w.Pool().Release(m)
	}
	acc.Materialize()
	for i := range acc.Data {
		acc.Data[i] = s.TimeOfDay + acc.Data[i]/e.ctx.TimestepMinutes
	}
	return acc
}
