package config

import (
	"strconv"

	"github.com/scaper-sim/scaper/internal/runlog"
)

// Parameter is one named entry of the parameter table (§6 "Parameters":
// parameter, value, estimate).
type Parameter struct {
	Name     string
	Value    float64
	Estimate bool
}

// ParameterSet is the loaded parameter table: a permissive name -> value
// lookup (missing names silently resolve to 0, each logged once) plus
// the subset flagged for estimation.
type ParameterSet struct {
	byName   map[string]*Parameter
	order    []string
	nClasses int
	log      *runlog.Logger
}

// NewParameterSet builds a ParameterSet from a loaded parameter table.
// nClasses defaults to 1 when the table carries no "nClasses" row, per
// §6.
func NewParameterSet(params []Parameter, log *runlog.Logger) *ParameterSet {
	ps := &ParameterSet{byName: make(map[string]*Parameter, len(params)), nClasses: 1, log: log}
	for i := range params {
		p := params[i]
		ps.byName[p.Name] = &p
		ps.order = append(ps.order, p.Name)
		if p.Name == "nClasses" {
			ps.nClasses = int(p.Value)
		}
	}
	return ps
}

// NumClasses returns the configured latent-class count.
func (ps *ParameterSet) NumClasses() int {
	return ps.nClasses
}

// Value returns the current value of a named parameter, or 0 (logged
// once per distinct missing name) if it is not present. This
// permissiveness mirrors the source's behaviour (Design Notes: "this
// preserves the source's 'permissive' behaviour").
func (ps *ParameterSet) Value(name string) float64 {
	if p, ok := ps.byName[name]; ok {
		return p.Value
	}
	if ps.log != nil {
		ps.log.WarnOnce("missing-parameter:"+name, "parameter not found, defaulting to 0: "+name)
	}
	return 0
}

// Set overwrites a named parameter's value, adding it if absent (used by
// the est commands to install fitted values before writing the table).
func (ps *ParameterSet) Set(name string, value float64) {
	if p, ok := ps.byName[name]; ok {
		p.Value = value
		return
	}
	p := &Parameter{Name: name, Value: value}
	ps.byName[name] = p
	ps.order = append(ps.order, name)
}

// Names returns every parameter name, in table order.
func (ps *ParameterSet) Names() []string {
	return ps.order
}

// Estimated returns the names flagged estimate=true, in table order.
func (ps *ParameterSet) Estimated() []string {
	var out []string
	for _, n := range ps.order {
		if ps.byName[n].Estimate {
			out = append(out, n)
		}
	}
	return out
}

// Get returns the full Parameter record for name, and whether it exists.
func (ps *ParameterSet) Get(name string) (Parameter, bool) {
	p, ok := ps.byName[name]
	if !ok {
		return Parameter{}, false
	}
	return *p, true
}

// ParseBool parses the "estimate" column's permitted spellings.
func ParseBool(s string) bool {
	switch s {
	case "1", "true", "TRUE", "True", "y", "yes":
		return true
	default:
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v != 0
		}
		return false
	}
}
