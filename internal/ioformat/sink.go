package ioformat

import (
	"io"
	"strconv"
	"sync"

	"github.com/scaper-sim/scaper/internal/model"
	"github.com/scaper-sim/scaper/internal/world"
)

// Sink is the mutex-guarded output funnel of §5/§7: worker goroutines
// each hold the result of one agent's simulation or choice-set build,
// and append it through Sink rather than writing the underlying
// io.Writer directly, so producers never hold more than one lock at a
// time and the CSV stream itself stays single-writer.
type Sink struct {
	mu sync.Mutex

	full              *world.World
	departTimeMinutes func(model.Trip) float64

	simWriter   *writerState
	choiceState *choiceSinkState

	failed int
}

type writerState struct {
	headerWritten bool
	out           io.Writer
}

type choiceSinkState struct {
	out  io.Writer
	sets []model.Choiceset
}

// NewTripSink builds a Sink that appends agents' simulated trips
// straight to out as they complete, in the §6 simulation-output layout.
func NewTripSink(out io.Writer, net *world.NetworkData, departTimeMinutes func(model.Trip) float64) *Sink {
	return &Sink{
		full:              world.NewFull(net),
		departTimeMinutes: departTimeMinutes,
		simWriter:         &writerState{out: out},
	}
}

// NewChoicesetSink builds a Sink that buffers completed choicesets in
// memory, flushed to out once via Close -- choicesets need the full
// alternative set written as a whole rather than streamed row by row,
// since WriteChoicesets groups by agent.
func NewChoicesetSink(out io.Writer) *Sink {
	return &Sink{choiceState: &choiceSinkState{out: out}}
}

// WriteTrips appends one agent's simulated trips. Safe for concurrent
// use by many worker goroutines.
func (s *Sink) WriteTrips(trips []model.Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := s.simWriter
	writer := newWriter(w.out)
	if !w.headerWritten {
		if err := writer.Write(simulationHeader); err != nil {
			return err
		}
		w.headerWritten = true
	}

	for _, t := range trips {
		departMin := s.departTimeMinutes(t)
		travelMin := losMinutes(s.full, t)
		arriveMin := departMin + travelMin
		row := []string{
			strconv.FormatInt(t.AgentID, 10),
			strconv.Itoa(t.LatentClass),
			t.Activity.String(),
			t.Mode.String(),
			strconv.Itoa(t.OriginZone),
			strconv.Itoa(t.DestZone),
			formatClockMinutes(departMin),
			formatFloat(travelMin),
			formatClockMinutes(arriveMin),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteChoiceset appends one agent's completed choiceset to the
// in-memory buffer. Safe for concurrent use by many worker goroutines.
func (s *Sink) WriteChoiceset(cs model.Choiceset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.choiceState.sets = append(s.choiceState.sets, cs)
}

// RecordFailure increments the per-agent failure counter of §7's
// isolation policy: a failed agent is skipped, logged once by the
// caller, and counted here rather than aborting the run.
func (s *Sink) RecordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed++
}

// Failed returns the number of agents recorded via RecordFailure.
func (s *Sink) Failed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed
}

// Close flushes any buffered output. For a trip sink this is a no-op
// (every WriteTrips call already flushed); for a choiceset sink this
// performs the one deferred WriteChoicesets call.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.full != nil {
		s.full.Close()
	}
	if s.choiceState != nil {
		return WriteChoicesets(s.choiceState.out, s.choiceState.sets)
	}
	return nil
}
