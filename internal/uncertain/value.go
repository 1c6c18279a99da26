package uncertain

import (
	"fmt"
	"math"
	"math/rand"
)

type Config struct {
	RNG *rand.Rand
}

func NewConfig(seed int64) *Config {
	return &Config{
		RNG: rand.New(rand.NewSource(seed)),
	}
}

type DistributionType string

const (
	DistFixed      DistributionType = "fixed"
	DistTriangular DistributionType = "triangular"
	DistUniform    DistributionType = "uniform"
	DistNormal     DistributionType = "normal"
)

// Value is a scalar that is either fixed or drawn from a distribution.
// Only the parameters of its Distribution are meaningful.
type Value struct {
	Distribution DistributionType
	Fixed        float64
	Triangular   Triangular
	Uniform      Uniform
	Normal       Normal
}

type Triangular struct {
	Min, Mode, Max float64
}

type Uniform struct {
	Min, Max float64
}

type Normal struct {
	Mean, StdDev float64
}

func NewFixed(value float64) Value {
	return Value{Distribution: DistFixed, Fixed: value}
}

func NewTriangular(min, mode, max float64) Value {
	return Value{Distribution: DistTriangular, Triangular: Triangular{Min: min, Mode: mode, Max: max}}
}

func NewUniform(min, max float64) Value {
	return Value{Distribution: DistUniform, Uniform: Uniform{Min: min, Max: max}}
}

func NewNormal(mean, stddev float64) Value {
	return Value{Distribution: DistNormal, Normal: Normal{Mean: mean, StdDev: stddev}}
}

func (u Value) Valid() bool {
	switch u.Distribution {
	case DistFixed:
		return !math.IsNaN(u.Fixed)
	case DistTriangular:
		t := u.Triangular
		return t.Min <= t.Mode && t.Mode <= t.Max && t.Min < t.Max
	case DistUniform:
		return u.Uniform.Min < u.Uniform.Max
	case DistNormal:
		return u.Normal.StdDev > 0 // Mean can be any value
	default:
		return false
	}
}

// IsFixed reports whether sampling always yields the same number.
func (u Value) IsFixed() bool {
	return u.Distribution == DistFixed
}

func (u Value) String() string {
	switch u.Distribution {
	case DistFixed:
		return fmt.Sprintf("fixed(%g)", u.Fixed)
	case DistTriangular:
		return fmt.Sprintf("triangular(%g, %g, %g)", u.Triangular.Min, u.Triangular.Mode, u.Triangular.Max)
	case DistUniform:
		return fmt.Sprintf("uniform(%g, %g)", u.Uniform.Min, u.Uniform.Max)
	case DistNormal:
		return fmt.Sprintf("normal(%g, %g)", u.Normal.Mean, u.Normal.StdDev)
	default:
		return "unknown"
	}
}

func (u Value) Mean() float64 {
	switch u.Distribution {
	case DistFixed:
		return u.Fixed
	case DistTriangular:
		t := u.Triangular
		return (t.Min + t.Mode + t.Max) / 3
	case DistUniform:
		return (u.Uniform.Min + u.Uniform.Max) / 2
	case DistNormal:
		return u.Normal.Mean
	default:
		return 0
	}
}

func (u Value) Sample(ucfg *Config) float64 {
	switch u.Distribution {
	case DistFixed:
		return u.Fixed
	case DistTriangular:
		mi, mode, ma := u.Triangular.Min, u.Triangular.Mode, u.Triangular.Max
		uRand := ucfg.RNG.Float64()
		c := (mode - mi) / (ma - mi)
		if uRand < c {
			return mi + math.Sqrt(uRand*(ma-mi)*(mode-mi))
		}
		return ma - math.Sqrt((1-uRand)*(ma-mi)*(ma-mode))
	case DistUniform:
		return u.Uniform.Min + ucfg.RNG.Float64()*(u.Uniform.Max-u.Uniform.Min)
	case DistNormal:
		return ucfg.RNG.NormFloat64()*u.Normal.StdDev + u.Normal.Mean
	default:
		return 0
	}
}

func (u Value) Zero() bool {
	if u.Distribution == "" {
		return true
	}
	return u.Distribution == DistFixed && u.Fixed == 0
}
