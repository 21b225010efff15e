package solver

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsMismatchedTypeAndConfig(t *testing.T) {
	_, err := New(Adam, VanillaConfig{StepSize: 0.1, Batch: 1})
	require.Error(t, err)
}

func TestNewAdamBuildsAValidSolver(t *testing.T) {
	s, err := NewAdam(0.01, 1e-8, 0.9, 0.999, 32, -1.0)
	require.NoError(t, err)
	assert.Equal(t, Adam, s.Type)
	assert.NotNil(t, s.Solver)
}

func TestNewRMSPropRejectsNonDefaultEta(t *testing.T) {
	_, err := NewRMSProp(0.01, 1e-8, 0.01, 0.9, 32, -1.0)
	require.Error(t, err)
}

func TestSolverJSONRoundTripPreservesConcreteConfigType(t *testing.T) {
	original, err := NewVanilla(0.05, 16, -1.0)
	require.NoError(t, err)

	data, err := json.Marshal(struct {
		Type   Type
		Config Config
	}{original.Type, original.Config})
	require.NoError(t, err)

	var restored Solver
	require.NoError(t, restored.UnmarshalJSON(data))

	assert.Equal(t, Vanilla, restored.Type)
	cfg, ok := restored.Config.(VanillaConfig)
	require.True(t, ok)
	assert.InDelta(t, 0.05, cfg.StepSize, 1e-12)
	assert.Equal(t, 16, cfg.Batch)
	assert.NotNil(t, restored.Solver)
}

func TestAdamConfigValidTypeRejectsOtherTypes(t *testing.T) {
	cfg := AdamConfig{StepSize: 0.1, Batch: 1}
	assert.True(t, cfg.ValidType(Adam))
	assert.False(t, cfg.ValidType(Vanilla))
	assert.False(t, cfg.ValidType(RMSProp))
}
