package workload

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/triage-sim/triage-sim/sim"
)

// Spec is the top-level patient workload configuration.
// Loaded from YAML via LoadSpec(path).
type Spec struct {
	Seed      int64       `yaml:"seed"`
	Patients  int         `yaml:"patients"`
	StartTime float64     `yaml:"start_time"` // minutes since midnight of the first arrival
	Arrival   ArrivalSpec `yaml:"arrival"`
	Classes   []ClassSpec `yaml:"classes"`
}

// ArrivalSpec configures the gap between consecutive arrivals.
//
// "uniform" draws each gap from [MinGap, MaxGap); "poisson" draws exponential
// gaps with mean MeanGap; "constant" always uses MeanGap.
type ArrivalSpec struct {
	Process string  `yaml:"process"`
	MinGap  float64 `yaml:"min_gap,omitempty"`
	MaxGap  float64 `yaml:"max_gap,omitempty"`
	MeanGap float64 `yaml:"mean_gap,omitempty"`
}

// ClassSpec gives one priority class its share of arrivals and its service
// time distribution.
type ClassSpec struct {
	Class   sim.PriorityClass `yaml:"class"`
	Weight  float64           `yaml:"weight"`
	Service DistSpec          `yaml:"service"`
}

// DistSpec parameterizes a service time distribution in minutes.
type DistSpec struct {
	Type   string  `yaml:"type"`
	Mean   float64 `yaml:"mean"`
	StdDev float64 `yaml:"std_dev,omitempty"`
	Min    float64 `yaml:"min,omitempty"` // samples below Min are clamped up to it
}

// DefaultMinService keeps Gaussian samples from going non-positive.
const DefaultMinService = 0.5

var validArrivalProcesses = map[string]bool{"uniform": true, "poisson": true, "constant": true}

var validDistTypes = map[string]bool{"gaussian": true, "exponential": true, "constant": true}

// DefaultSpec returns the reference facility's day: 100 patients from 08:00,
// one every 1 to 6 minutes, 80% normal, 15% critical, 5% emergency.
// Emergencies get the faster ~5 minute treatment.
func DefaultSpec() Spec {
	return Spec{
		Seed:      42,
		Patients:  100,
		StartTime: sim.DefaultShiftStart,
		Arrival:   ArrivalSpec{Process: "uniform", MinGap: 1, MaxGap: 6},
		Classes: []ClassSpec{
			{Class: sim.Normal, Weight: 0.80, Service: DistSpec{Type: "gaussian", Mean: 10, StdDev: 2, Min: DefaultMinService}},
			{Class: sim.Critical, Weight: 0.15, Service: DistSpec{Type: "gaussian", Mean: 10, StdDev: 2, Min: DefaultMinService}},
			{Class: sim.Emergency, Weight: 0.05, Service: DistSpec{Type: "gaussian", Mean: 5, StdDev: 1, Min: DefaultMinService}},
		},
	}
}

// LoadSpec loads a workload spec from a YAML file over DefaultSpec.
// A file that lists classes replaces the default class list entirely.
func LoadSpec(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workload spec: %w", err)
	}
	spec := DefaultSpec()
	spec.Classes = nil
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing workload spec: %w", err)
	}
	if len(spec.Classes) == 0 {
		spec.Classes = DefaultSpec().Classes
	}
	return &spec, nil
}

// Validate checks that all fields in the spec are valid.
func (s *Spec) Validate() error {
	if s.Patients < 0 {
		return fmt.Errorf("patients must be non-negative, got %d", s.Patients)
	}
	if err := validateFiniteNonNegative("start_time", s.StartTime); err != nil {
		return err
	}
	if err := s.Arrival.validate(); err != nil {
		return err
	}
	if len(s.Classes) == 0 {
		return fmt.Errorf("at least one class required")
	}
	seen := make(map[sim.PriorityClass]bool, len(s.Classes))
	total := 0.0
	for i, c := range s.Classes {
		prefix := fmt.Sprintf("classes[%d]", i)
		if seen[c.Class] {
			return fmt.Errorf("%s: duplicate class %s", prefix, c.Class)
		}
		seen[c.Class] = true
		if err := validateFiniteNonNegative(prefix+".weight", c.Weight); err != nil {
			return err
		}
		total += c.Weight
		if err := c.Service.validate(prefix + ".service"); err != nil {
			return err
		}
	}
	if total <= 0 {
		return fmt.Errorf("class weights must sum to a positive value")
	}
	return nil
}

func (a ArrivalSpec) validate() error {
	if !validArrivalProcesses[a.Process] {
		return fmt.Errorf("unknown arrival process %q; valid: uniform, poisson, constant", a.Process)
	}
	switch a.Process {
	case "uniform":
		if err := validateFiniteNonNegative("arrival.min_gap", a.MinGap); err != nil {
			return err
		}
		if a.MaxGap < a.MinGap || math.IsInf(a.MaxGap, 0) {
			return fmt.Errorf("arrival.max_gap (%f) must be finite and >= min_gap (%f)", a.MaxGap, a.MinGap)
		}
	case "poisson":
		if a.MeanGap <= 0 || math.IsInf(a.MeanGap, 0) || math.IsNaN(a.MeanGap) {
			return fmt.Errorf("arrival.mean_gap must be a finite positive number, got %f", a.MeanGap)
		}
	case "constant":
		if err := validateFiniteNonNegative("arrival.mean_gap", a.MeanGap); err != nil {
			return err
		}
	}
	return nil
}

func (d DistSpec) validate(field string) error {
	if !validDistTypes[d.Type] {
		return fmt.Errorf("%s: unknown distribution type %q; valid: gaussian, exponential, constant", field, d.Type)
	}
	if err := validateFiniteNonNegative(field+".mean", d.Mean); err != nil {
		return err
	}
	if err := validateFiniteNonNegative(field+".std_dev", d.StdDev); err != nil {
		return err
	}
	return validateFiniteNonNegative(field+".min", d.Min)
}

func validateFiniteNonNegative(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%s must be a finite non-negative number, got %f", field, v)
	}
	return nil
}
