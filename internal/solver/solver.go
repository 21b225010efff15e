// Package solver wraps Gorgonia Solvers so that a training configuration
// can be JSON serialized into the model folder alongside a fitted
// zone-importance model, and reconstructed on a later `est zonesampling`
// run without re-specifying hyperparameters on the command line.
package solver

import (
	"encoding/json"
	"fmt"
	"reflect"

	G "gorgonia.org/gorgonia"
)

// Type describes the available solver algorithms.
type Type string

const (
	Adam    Type = "Adam"
	Vanilla Type = "Vanilla"
	RMSProp Type = "RMSProp"
)

// Solver wraps a Gorgonia Solver so it can be JSON marshalled and
// unmarshalled alongside the Type/Config that produced it.
type Solver struct {
	G.Solver `json:"-"`
	Type
	Config
}

// New returns a new Solver with the given type and configuration.
func New(t Type, c Config) (*Solver, error) {
	if !c.ValidType(t) {
		return nil, fmt.Errorf("solver.New: invalid solver type %v for configuration %T", t, c)
	}
	s := Solver{Type: t, Config: c}
	s.Solver = s.Config.Create()
	return &s, nil
}

// UnmarshalJSON implements json.Unmarshaler, recovering the concrete
// Config type from the "Type" discriminator field.
func (s *Solver) UnmarshalJSON(data []byte) error {
	config, typeName, err := unmarshalConfig(data, "Type", "Config", map[string]reflect.Type{
		string(Vanilla): reflect.TypeOf(VanillaConfig{}),
		string(Adam):    reflect.TypeOf(AdamConfig{}),
		string(RMSProp): reflect.TypeOf(RMSPropConfig{}),
	})
	if err != nil {
		return err
	}
	s.Type = typeName
	s.Config = config
	s.Solver = s.Config.Create()
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
	if rv := reflect.ValueOf(value); rv.Kind() == reflect.Ptr {
		value = rv.Elem().Interface().(Config)
	}
	return value, Type(typeName), nil
}

// Config describes a Gorgonia Solver configuration and can build the
// Solver it describes.
type Config interface {
	Create() G.Solver
	ValidType(Type) bool
}
