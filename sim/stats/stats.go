// Package stats summarizes waiting and turnaround times of serviced entities.
package stats

import (
	"fmt"
	"sort"

	"github.com/DataDog/sketches-go/ddsketch"
	mstats "github.com/aclements/go-moremath/stats"

	"github.com/triage-sim/triage-sim/sim"
)

// quantileAccuracy is the relative accuracy of reported percentiles.
const quantileAccuracy = 0.01

// Distribution holds summary statistics of a set of durations in minutes.
// Moments and bounds are exact; percentiles come from a DDSketch and are
// accurate to within 1% of the true value.
type Distribution struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	P50    float64
	P90    float64
	P95    float64
	P99    float64
}

// NewDistribution summarizes values. An empty input yields the zero Distribution.
func NewDistribution(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	xs := make([]float64, len(values))
	copy(xs, values)
	sort.Float64s(xs)
	s := mstats.Sample{Xs: xs, Sorted: true}
	lo, hi := s.Bounds()

	d := Distribution{
		Count: len(xs),
		Mean:  s.Mean(),
		Min:   lo,
		Max:   hi,
	}
	if len(xs) > 1 {
		d.StdDev = s.StdDev()
	}

	sketch, err := ddsketch.NewDefaultDDSketch(quantileAccuracy)
	if err != nil {
		panic(fmt.Sprintf("NewDistribution: %v", err))
	}
	for _, x := range xs {
		if err := sketch.Add(x); err != nil {
			panic(fmt.Sprintf("NewDistribution: adding %v: %v", x, err))
		}
	}
	q, err := sketch.GetValuesAtQuantiles([]float64{0.50, 0.90, 0.95, 0.99})
	if err != nil {
		panic(fmt.Sprintf("NewDistribution: %v", err))
	}
	d.P50, d.P90, d.P95, d.P99 = q[0], q[1], q[2], q[3]
	return d
}

// ClassStats is the per-class summary.
type ClassStats struct {
	Class      sim.PriorityClass
	Waiting    Distribution
	Turnaround Distribution
}

// Report is the end-of-run summary over every serviced entity.
type Report struct {
	ByClass map[sim.PriorityClass]ClassStats
	Overall ClassStats // Class is meaningless here
}

// Summarize builds a Report. Every class in sim.AllPriorityClasses is present
// in ByClass, with zero Count when no entity of that class was seen.
// Panics if any entity was not serviced: a finished run services everything.
func Summarize(entities []*sim.Entity) Report {
	waiting := make(map[sim.PriorityClass][]float64)
	turnaround := make(map[sim.PriorityClass][]float64)
	var allWaiting, allTurnaround []float64
	for _, e := range entities {
		if !e.IsServiced() {
			panic(fmt.Sprintf("stats.Summarize: entity %d was not serviced", e.ID))
		}
		waiting[e.Priority] = append(waiting[e.Priority], e.WaitingTime)
		turnaround[e.Priority] = append(turnaround[e.Priority], e.TurnaroundTime())
		allWaiting = append(allWaiting, e.WaitingTime)
		allTurnaround = append(allTurnaround, e.TurnaroundTime())
	}

	r := Report{ByClass: make(map[sim.PriorityClass]ClassStats)}
	for _, c := range sim.AllPriorityClasses() {
		r.ByClass[c] = ClassStats{
			Class:      c,
			Waiting:    NewDistribution(waiting[c]),
			Turnaround: NewDistribution(turnaround[c]),
		}
	}
	r.Overall = ClassStats{
		Waiting:    NewDistribution(allWaiting),
		Turnaround: NewDistribution(allTurnaround),
	}
	return r
}
