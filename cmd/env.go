package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/exp/rand"
)

// timestampedPath builds a path under modelDir/subdir/YY-MM-DD/, named
// after the current time, per §6's persisted layout
// ("models/<MODELFOLDER>/{input,sim,cs,est,logs}/YY-MM-DD/<timestamped>.{csv,parquet,log}").
// It creates every missing directory component.
func timestampedPath(modelDir, subdir, ext string) (string, error) {
	now := time.Now()
	dir := filepath.Join(modelDir, subdir, now.Format("2006-01-02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	return filepath.Join(dir, now.Format("15-04-05")+"."+ext), nil
}

// resolveOutput returns explicit (the -o flag's value) if non-empty,
// else a fresh timestamped path under modelDir/subdir.
func resolveOutput(explicit, modelDir, subdir string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	return timestampedPath(modelDir, subdir, "csv")
}

// inputPath resolves a named file under modelDir/input/.
func inputPath(modelDir, name string) string {
	return filepath.Join(modelDir, "input", name)
}

// newRNG builds a uniform(0,1) source seeded with seed, the
// same golang.org/x/exp/rand source the teacher's environment Starters
// use (environment/UniformStarter.go, environment/CategoricalStarter.go).
func newRNG(seed uint64) func() float64 {
	src := rand.New(rand.NewSource(seed))
	return src.Float64
}
