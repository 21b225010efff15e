package initwfn

import G "gorgonia.org/gorgonia"

// ZeroesConfig initializes every weight to zero.
type ZeroesConfig struct{}

// NewZeroes returns a zero weight initializer.
func NewZeroes() (*InitWFn, error) { return New(Zeroes, ZeroesConfig{}) }

func (z ZeroesConfig) Create() G.InitWFn     { return G.Zeroes() }
func (z ZeroesConfig) ValidType(t Type) bool { return t == Zeroes }

// ConstantConfig initializes every weight to Value.
type ConstantConfig struct {
	Value float64
}

// NewConstant returns a constant-value weight initializer.
func NewConstant(value float64) (*InitWFn, error) { return New(Constant, ConstantConfig{Value: value}) }

func (c ConstantConfig) Create() G.InitWFn     { return G.ValuesOf(c.Value) }
func (c ConstantConfig) ValidType(t Type) bool { return t == Constant }

// UniformConfig draws weights uniformly from [Low, High].
type UniformConfig struct {
	Low, High float64
}

// NewUniform returns a uniform weight initializer.
func NewUniform(low, high float64) (*InitWFn, error) {
	return New(Uniform, UniformConfig{Low: low, High: high})
}

func (u UniformConfig) Create() G.InitWFn     { return G.Uniform(u.Low, u.High) }
func (u UniformConfig) ValidType(t Type) bool { return t == Uniform }

// GaussianConfig draws weights from a normal distribution.
type GaussianConfig struct {
	Mean, StdDev float64
}

// NewGaussian returns a gaussian weight initializer.
func NewGaussian(mean, stddev float64) (*InitWFn, error) {
	return New(Gaussian, GaussianConfig{Mean: mean, StdDev: stddev})
}

func (g GaussianConfig) Create() G.InitWFn     { return G.Gaussian(g.Mean, g.StdDev) }
func (g GaussianConfig) ValidType(t Type) bool { return t == Gaussian }

// GlorotUConfig is Glorot/Xavier uniform initialization.
type GlorotUConfig struct {
	Gain float64
}

// NewGlorotU returns a Glorot uniform weight initializer.
func NewGlorotU(gain float64) (*InitWFn, error) { return New(GlorotU, GlorotUConfig{Gain: gain}) }

func (g GlorotUConfig) Create() G.InitWFn     { return G.GlorotU(g.Gain) }
func (g GlorotUConfig) ValidType(t Type) bool { return t == GlorotU }

// GlorotNConfig is Glorot/Xavier normal initialization.
type GlorotNConfig struct {
	Gain float64
}

// NewGlorotN returns a Glorot normal weight initializer.
func NewGlorotN(gain float64) (*InitWFn, error) { return New(GlorotN, GlorotNConfig{Gain: gain}) }

func (g GlorotNConfig) Create() G.InitWFn     { return G.GlorotN(g.Gain) }
func (g GlorotNConfig) ValidType(t Type) bool { return t == GlorotN }
