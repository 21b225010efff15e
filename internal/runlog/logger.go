package runlog

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var stderrWriter io.Writer = os.Stderr

// Logger wraps a zerolog.Logger with the mutex discipline the spec
// requires of the shared progress/logging surface, plus a "log once per
// distinct missing name" mode used for permissive parameter lookups
// (Design Notes: "Parameter lookups that silently return 0 for missing
// names must log once per distinct missing name and must not panic").
type Logger struct {
	mu  sync.Mutex
	log zerolog.Logger

	onceMu sync.Mutex
	warned map[string]bool
}

// New builds a Logger writing structured JSON to logFile (if non-empty)
// and/or a human-readable stream to stderr (if console is true). At
// least one of the two should normally be requested by the CLI's global
// flags.
func New(logFile string, console bool) (*Logger, error) {
	var writers []io.Writer
	if console {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})
	}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, err
		}
		writers = append(writers, f)
	}
	if len(writers) == 0 {
		writers = append(writers, io.Discard)
	}

	return &Logger{
		log:    zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger(),
		warned: make(map[string]bool),
	}, nil
}

// Info logs a structured info-level message.
func (l *Logger) Info(msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ev := l.log.Info()
	for k, v := range fields {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

// Error logs a structured error-level message. Used for recoverable
// per-agent failures (InfeasibleObservation etc.) that must not abort
// the run.
func (l *Logger) Error(err error, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.log.Error().Err(err).Msg(msg)
}

// Fatal logs an error-level message marked fatal=true for a top-level,
// run-aborting error.
// It does not itself exit the process; callers decide the exit code.
func (l *Logger) Fatal(err error, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.log.Error().Err(err).Bool("fatal", true).Msg(msg)
}

// WarnOnce logs msg at warn level the first time it is called for a
// given key, and silently does nothing on subsequent calls with the
// same key. Used by the permissive parameter-lookup path so a model
// with many agents referencing one missing parameter name logs it once,
// not once per agent.
func (l *Logger) WarnOnce(key, msg string) {
	l.onceMu.Lock()
	already := l.warned[key]
	l.warned[key] = true
	l.onceMu.Unlock()
	if already {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.log.Warn().Str("key", key).Msg(msg)
}
