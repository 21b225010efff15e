// Package initwfn wraps Gorgonia weight initializers so a
// zone-importance model's starting weights can be JSON serialized into
// the model folder alongside its solver configuration, the same way
// internal/solver wraps Gorgonia solvers.
package initwfn

import (
	"encoding/json"
	"fmt"
	"reflect"

	G "gorgonia.org/gorgonia"
)

// Type describes the available weight-initialization algorithms.
type Type string

const (
	Zeroes   Type = "Zeroes"
	Constant Type = "Constant"
	Uniform  Type = "Uniform"
	Gaussian Type = "Gaussian"
	GlorotU  Type = "GlorotU"
	GlorotN  Type = "GlorotN"
)

// InitWFn wraps a Gorgonia InitWFn so it can be JSON marshalled and
// unmarshalled alongside the Type/Config that produced it.
type InitWFn struct {
	fn G.InitWFn
	Type
	Config
}

// Fn returns the underlying Gorgonia weight initializer.
func (w *InitWFn) Fn() G.InitWFn { return w.fn }

// New returns a new InitWFn with the given type and configuration.
func New(t Type, c Config) (*InitWFn, error) {
	if !c.ValidType(t) {
		return nil, fmt.Errorf("initwfn.New: invalid InitWFn type %v for configuration %T", t, c)
	}
	w := InitWFn{Type: t, Config: c}
	w.fn = w.Config.Create()
	return &w, nil
}

// UnmarshalJSON implements json.Unmarshaler, recovering the concrete
// Config type from the "Type" discriminator field.
func (w *InitWFn) UnmarshalJSON(data []byte) error {
	config, typeName, err := unmarshalConfig(data, "Type", "Config", map[string]reflect.Type{
		string(Zeroes):   reflect.TypeOf(ZeroesConfig{}),
		string(Constant): reflect.TypeOf(ConstantConfig{}),
		string(Uniform):  reflect.TypeOf(UniformConfig{}),
		string(Gaussian): reflect.TypeOf(GaussianConfig{}),
		string(GlorotU):  reflect.TypeOf(GlorotUConfig{}),
		string(GlorotN):  reflect.TypeOf(GlorotNConfig{}),
	})
	if err != nil {
		return err
	}
	w.Type = typeName
	w.Config = config
	w.fn = w.Config.Create()
	return nil
}

func unmarshalConfig(data []byte, typeJSONField, valueJSONField string, customTypes map[string]reflect.Type) (Config, Type, error) {
	m := map[string]interface{}{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, "", err
	}

	typeName, _ := m[typeJSONField].(string)
	var value Config
	if ty, found := customTypes[typeName]; found {
		value = reflect.New(ty).Interface().(Config)
	}

	valueBytes, err := json.Marshal(m[valueJSONField])
	if err != nil {
		return nil, "", err
	}
	if err := json.Unmarshal(valueBytes, &value); err != nil {
		return nil, "", err
	}
	return value, Type(typeName), nil
}

// Config describes a Gorgonia weight-initializer configuration and can
// build the InitWFn it describes.
type Config interface {
	Create() G.InitWFn
	ValidType(Type) bool
}
