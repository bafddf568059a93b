package workload

import (
	"fmt"
	"math"
	"math/rand"
)

// ServiceSampler generates service times in minutes.
type ServiceSampler interface {
	// Sample returns a service time >= the sampler's minimum.
	Sample(rng *rand.Rand) float64
}

// GaussianSampler produces Gaussian service times clamped below at min.
type GaussianSampler struct {
	mean, stdDev, min float64
}

func (s *GaussianSampler) Sample(rng *rand.Rand) float64 {
	return math.Max(s.min, rng.NormFloat64()*s.stdDev+s.mean)
}

// ExponentialSampler produces exponentially distributed service times.
type ExponentialSampler struct {
	mean, min float64
}

func (s *ExponentialSampler) Sample(rng *rand.Rand) float64 {
	return math.Max(s.min, rng.ExpFloat64()*s.mean)
}

// ConstantSampler always returns the same service time.
type ConstantSampler struct {
	value float64
}

func (s *ConstantSampler) Sample(_ *rand.Rand) float64 {
	return s.value
}

// NewServiceSampler creates a sampler from a DistSpec.
func NewServiceSampler(spec DistSpec) (ServiceSampler, error) {
	switch spec.Type {
	case "gaussian":
		if spec.StdDev == 0 {
			return &ConstantSampler{value: math.Max(spec.Min, spec.Mean)}, nil
		}
		return &GaussianSampler{mean: spec.Mean, stdDev: spec.StdDev, min: spec.Min}, nil
	case "exponential":
		return &ExponentialSampler{mean: spec.Mean, min: spec.Min}, nil
	case "constant":
		return &ConstantSampler{value: math.Max(spec.Min, spec.Mean)}, nil
	default:
		return nil, fmt.Errorf("unknown distribution type %q", spec.Type)
	}
}
