package workload

import (
	"fmt"
	"math/rand"
)

// ArrivalSampler generates the gap in minutes before the next arrival.
type ArrivalSampler interface {
	// SampleGap returns a non-negative gap.
	SampleGap(rng *rand.Rand) float64
}

// UniformSampler draws gaps uniformly from [min, max).
type UniformSampler struct {
	min, max float64
}

func (s *UniformSampler) SampleGap(rng *rand.Rand) float64 {
	return s.min + rng.Float64()*(s.max-s.min)
}

// PoissonSampler draws exponentially distributed gaps, giving a Poisson
// arrival process with rate 1/mean.
type PoissonSampler struct {
	mean float64
}

func (s *PoissonSampler) SampleGap(rng *rand.Rand) float64 {
	return rng.ExpFloat64() * s.mean
}

// ConstantArrivalSampler spaces arrivals evenly.
type ConstantArrivalSampler struct {
	gap float64
}

func (s *ConstantArrivalSampler) SampleGap(_ *rand.Rand) float64 {
	return s.gap
}

// NewArrivalSampler creates the sampler named by spec.Process.
func NewArrivalSampler(spec ArrivalSpec) (ArrivalSampler, error) {
	switch spec.Process {
	case "uniform":
		return &UniformSampler{min: spec.MinGap, max: spec.MaxGap}, nil
	case "poisson":
		return &PoissonSampler{mean: spec.MeanGap}, nil
	case "constant":
		return &ConstantArrivalSampler{gap: spec.MeanGap}, nil
	default:
		return nil, fmt.Errorf("unknown arrival process %q", spec.Process)
	}
}
