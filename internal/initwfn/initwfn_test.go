package initwfn

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsMismatchedTypeAndConfig(t *testing.T) {
	_, err := New(GlorotU, ZeroesConfig{})
	require.Error(t, err)
}

func TestNewGlorotNBuildsAnInitWFn(t *testing.T) {
	w, err := NewGlorotN(1.0)
	require.NoError(t, err)
	assert.Equal(t, GlorotN, w.Type)
	assert.NotNil(t, w.Fn())
}

func TestJSONRoundTripPreservesConcreteConfigType(t *testing.T) {
	original, err := NewUniform(-0.1, 0.1)
	require.NoError(t, err)

	data, err := json.Marshal(struct {
		Type   Type
		Config Config
	}{original.Type, original.Config})
	require.NoError(t, err)

	var restored InitWFn
	require.NoError(t, restored.UnmarshalJSON(data))

	assert.Equal(t, Uniform, restored.Type)
	cfg, ok := restored.Config.(UniformConfig)
	require.True(t, ok)
	assert.InDelta(t, -0.1, cfg.Low, 1e-12)
	assert.InDelta(t, 0.1, cfg.High, 1e-12)
	assert.NotNil(t, restored.Fn())
}

func TestConstantConfigValidTypeRejectsOtherTypes(t *testing.T) {
	cfg := ConstantConfig{Value: 1}
	assert.True(t, cfg.ValidType(Constant))
	assert.False(t, cfg.ValidType(Zeroes))
	assert.False(t, cfg.ValidType(GlorotU))
}
