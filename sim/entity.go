// Defines the Entity struct that models a single patient moving through the facility.
// Tracks arrival, priority class, service demand and the times written during service.

package sim

import (
	"fmt"
	"math"
	"strings"
)

// PriorityClass is the triage tier assigned to an entity before admission.
type PriorityClass int

const (
	Normal PriorityClass = iota
	Critical
	Emergency
)

// priorityNames maps accepted class names. Shared by String and ParsePriorityClass.
var priorityNames = map[PriorityClass]string{
	Normal:    "Normal",
	Critical:  "Critical",
	Emergency: "Emergency",
}

func (p PriorityClass) String() string {
	if name, ok := priorityNames[p]; ok {
		return name
	}
	return fmt.Sprintf("PriorityClass(%d)", int(p))
}

// ParsePriorityClass converts a case-insensitive class name to a PriorityClass.
func ParsePriorityClass(name string) (PriorityClass, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "normal":
		return Normal, nil
	case "critical":
		return Critical, nil
	case "emergency":
		return Emergency, nil
	default:
		return Normal, fmt.Errorf("unknown priority class %q", name)
	}
}

// AllPriorityClasses lists the classes in reporting order.
func AllPriorityClasses() []PriorityClass {
	return []PriorityClass{Normal, Critical, Emergency}
}

// ResourceKind names the kind of resource that serviced an entity.
type ResourceKind string

const (
	ResourceNone      ResourceKind = ""
	ResourceCaretaker ResourceKind = "caretaker"
	ResourceResponder ResourceKind = "responder"
)

// Entity models one patient.
//
// ID, ArrivalTime, ServiceTime and Priority are set by the generator before
// admission and never change afterwards. WaitingTime and DepartureTime are
// written exactly once, by whichever worker services the entity.
// All times are simulated minutes since midnight.
type Entity struct {
	ID          int           // Stable identity, assigned once
	ArrivalTime float64       // Minutes since the reference epoch
	ServiceTime float64       // Minutes of service required
	Priority    PriorityClass // Normal, Critical or Emergency

	WaitingTime   float64 // serviceStart - ArrivalTime, clamped to >= 0
	DepartureTime float64 // serviceStart + ServiceTime

	// Resource and ResourceID identify the lane or responder slot that
	// serviced this entity. Zero-valued until Complete is called.
	Resource   ResourceKind
	ResourceID int

	serviced bool
}

// NewEntity creates an entity with its generator-assigned fields populated.
func NewEntity(id int, arrival, service float64, priority PriorityClass) *Entity {
	return &Entity{
		ID:          id,
		ArrivalTime: arrival,
		ServiceTime: service,
		Priority:    priority,
	}
}

// IsServiced reports whether Complete has been called.
func (e *Entity) IsServiced() bool {
	return e.serviced
}

// Complete records service starting at clock on the given resource.
// Panics if the entity was already serviced: an entity is serviced exactly once,
// so a second call means two workers saw the same entity.
func (e *Entity) Complete(start float64, kind ResourceKind, resourceID int) {
	if e.serviced {
		panic(fmt.Sprintf("Entity.Complete: entity %d already serviced by %s %d", e.ID, e.Resource, e.ResourceID))
	}
	e.WaitingTime = math.Max(0, start-e.ArrivalTime)
	e.DepartureTime = start + e.ServiceTime
	e.Resource = kind
	e.ResourceID = resourceID
	e.serviced = true
}

// TurnaroundTime is the total time spent in the facility.
func (e *Entity) TurnaroundTime() float64 {
	return e.DepartureTime - e.ArrivalTime
}

func (e Entity) String() string {
	return fmt.Sprintf("Entity: (ID: %d, Priority: %s, Arrival: %s, Service: %.2f)", e.ID, e.Priority, FormatClock(e.ArrivalTime), e.ServiceTime)
}

// FormatClock renders simulated minutes since midnight as HH:MM.
func FormatClock(minutes float64) string {
	hours := int(minutes / 60)
	mins := int(math.Mod(minutes, 60))
	return fmt.Sprintf("%02d:%02d", hours, mins)
}

// MarshalText implements encoding.TextMarshaler so classes appear by name in YAML.
func (p PriorityClass) MarshalText() ([]byte, error) {
	if _, ok := priorityNames[p]; !ok {
		return nil, fmt.Errorf("unknown priority class %d", int(p))
	}
	return []byte(strings.ToLower(p.String())), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *PriorityClass) UnmarshalText(text []byte) error {
	parsed, err := ParsePriorityClass(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
