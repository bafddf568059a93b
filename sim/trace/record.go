// Package trace provides decision and completion recording for a simulation run.
// This package has no dependencies on sim/; it stores pure data types.
package trace

// AdmissionRecord captures a single lane routing decision.
type AdmissionRecord struct {
	EntityID int
	Arrival  float64
	Lane     int  // 1-based caretaker lane number
	Opened   bool // true if the lane was opened for this entity
	Reason   string
}

// DispatchRecord captures the placement of one emergency entity on a responder slot.
type DispatchRecord struct {
	EntityID int
	Slot     int // 1-based responder slot number
	Attempts int // full scans performed, including the successful one
}

// CompletionRecord captures one serviced entity. Emitted by lane workers and
// responder slots; the core only appends them.
type CompletionRecord struct {
	Resource   string // "caretaker" or "responder"
	ResourceID int
	EntityID   int
	Priority   string
	Arrival    float64
	Waiting    float64
	Service    float64
	Departure  float64
}
