package runner

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scaper-sim/scaper/internal/model"
	"github.com/scaper-sim/scaper/internal/scaperr"
)

func agentsOf(n int) []model.Agent {
	agents := make([]model.Agent, n)
	for i := range agents {
		agents[i] = model.Agent{ID: int64(i)}
	}
	return agents
}

func TestRunProcessesEveryAgentExactlyOnce(t *testing.T) {
	pool := New(Options{Parallelism: 4}, nil)

	var mu sync.Mutex
	seen := map[int64]bool{}

	failed, err := Run(pool, agentsOf(20),
		func() (int, error) { return 0, nil },
		func(int) {},
		func(_ int, agent model.Agent) (int64, error) { return agent.ID, nil },
		func(id int64) {
			mu.Lock()
			defer mu.Unlock()
			seen[id] = true
		},
	)

	require.NoError(t, err)
	assert.Equal(t, 0, failed)
	assert.Len(t, seen, 20)
}

func TestRunIsolatesPerAgentFailures(t *testing.T) {
	pool := New(Options{Parallelism: 3}, nil)

	var results []int64
	var mu sync.Mutex

	failed, err := Run(pool, agentsOf(10),
		func() (int, error) { return 0, nil },
		func(int) {},
		func(_ int, agent model.Agent) (int64, error) {
			if agent.ID%3 == 0 {
				return 0, scaperr.New(scaperr.InfeasibleObservation, "agent %d cannot be explained", agent.ID)
			}
			return agent.ID, nil
		},
		func(id int64) {
			mu.Lock()
			defer mu.Unlock()
			results = append(results, id)
		},
	)

	require.NoError(t, err)
	assert.Equal(t, 4, failed) // ids 0,3,6,9
	assert.Len(t, results, 6)
}

func TestRunBuildsOneWorkerResourcePerGoroutine(t *testing.T) {
	pool := New(Options{Parallelism: 4}, nil)

	var builtMu sync.Mutex
	built := 0
	closed := 0

	failed, err := Run(pool, agentsOf(50),
		func() (int, error) {
			builtMu.Lock()
			defer builtMu.Unlock()
			built++
			return built, nil
		},
		func(int) {
			builtMu.Lock()
			defer builtMu.Unlock()
			closed++
		},
		func(workerID int, agent model.Agent) (int, error) { return workerID, nil },
		func(int) {},
	)

	require.NoError(t, err)
	assert.Equal(t, 0, failed)
	assert.LessOrEqual(t, built, 4)
	assert.Equal(t, built, closed)
}

func TestRunSurfacesWorkerSetupError(t *testing.T) {
	pool := New(Options{Parallelism: 2}, nil)

	failed, err := Run(pool, agentsOf(5),
		func() (int, error) { return 0, scaperr.New(scaperr.NumericalFailure, "cannot build worker") },
		func(int) {},
		func(_ int, agent model.Agent) (int, error) { return 0, nil },
		func(int) {},
	)

	require.Error(t, err)
	assert.True(t, scaperr.Is(err, scaperr.NumericalFailure))
	assert.Equal(t, 0, failed)
}
