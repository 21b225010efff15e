package ioformat

import (
	"io"
	"strconv"
	"sync"
)

// SweepSink is the §6 `deriv` command's output funnel: one row per
// (agent, swept variable, sweep value), streamed as each worker
// finishes that sweep rather than buffered, mirroring Sink's
// mutex-guarded, header-once CSV writer shape.
type SweepSink struct {
	mu            sync.Mutex
	out           io.Writer
	headerWritten bool
}

var sweepHeader = []string{"IndID", "Variable", "Value", "EV", "Derivative", "HasDerivative"}

// NewSweepSink builds a SweepSink writing to out.
func NewSweepSink(out io.Writer) *SweepSink {
	return &SweepSink{out: out}
}

// Write appends one sweep-point row. Safe for concurrent use by many
// worker goroutines.
func (s *SweepSink) Write(agentID int64, variable string, value, ev, deriv float64, hasDeriv bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	writer := newWriter(s.out)
	if !s.headerWritten {
		if err := writer.Write(sweepHeader); err != nil {
			return err
		}
		s.headerWritten = true
	}

	derivCol, hasCol := "", "0"
	if hasDeriv {
		derivCol = formatFloat(deriv)
		hasCol = "1"
	}
	row := []string{
		strconv.FormatInt(agentID, 10),
		variable,
		formatFloat(value),
		formatFloat(ev),
		derivCol,
		hasCol,
	}
	if err := writer.Write(row); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

// Close is a no-op; every Write call already flushes.
func (s *SweepSink) Close() error { return nil }
