package workload

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/triage-sim/triage-sim/sim"
)

// classPicker selects a class index by cumulative weight.
// Zero-weight classes are never picked.
type classPicker struct {
	indices []int
	cdf     []float64
}

func newClassPicker(classes []ClassSpec) *classPicker {
	total := 0.0
	for _, c := range classes {
		total += c.Weight
	}
	p := &classPicker{}
	cumulative := 0.0
	for i, c := range classes {
		if c.Weight == 0 {
			continue
		}
		cumulative += c.Weight / total
		p.indices = append(p.indices, i)
		p.cdf = append(p.cdf, cumulative)
	}
	p.cdf[len(p.cdf)-1] = 1.0
	return p
}

func (p *classPicker) pick(rng *rand.Rand) int {
	idx := sort.SearchFloat64s(p.cdf, rng.Float64())
	if idx >= len(p.indices) {
		idx = len(p.indices) - 1
	}
	return p.indices[idx]
}

// GenerateEntities produces spec.Patients entities with ids 1..N in arrival
// order. Each quantity draws from its own RNG subsystem, so the same seed
// always yields the same workload.
func GenerateEntities(spec *Spec) ([]*sim.Entity, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workload spec: %w", err)
	}
	arrivals, err := NewArrivalSampler(spec.Arrival)
	if err != nil {
		return nil, err
	}
	services := make([]ServiceSampler, len(spec.Classes))
	for i, c := range spec.Classes {
		s, err := NewServiceSampler(c.Service)
		if err != nil {
			return nil, fmt.Errorf("class %s: %w", c.Class, err)
		}
		services[i] = s
	}

	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(spec.Seed))
	arrivalRNG := rng.ForSubsystem(sim.SubsystemArrivals)
	triageRNG := rng.ForSubsystem(sim.SubsystemTriage)
	serviceRNG := rng.ForSubsystem(sim.SubsystemService)
	picker := newClassPicker(spec.Classes)

	entities := make([]*sim.Entity, 0, spec.Patients)
	clock := spec.StartTime
	for i := 0; i < spec.Patients; i++ {
		idx := picker.pick(triageRNG)
		service := services[idx].Sample(serviceRNG)
		entities = append(entities, sim.NewEntity(i+1, clock, service, spec.Classes[idx].Class))
		clock += arrivals.SampleGap(arrivalRNG)
	}
	logrus.Infof("Generated %d patients from %s to %s (seed %d)",
		len(entities), sim.FormatClock(spec.StartTime), sim.FormatClock(clock), spec.Seed)
	return entities, nil
}
