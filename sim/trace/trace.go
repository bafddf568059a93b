package trace

import "sync"

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone records completions only.
	TraceLevelNone TraceLevel = "none"
	// TraceLevelDecisions additionally captures admission and dispatch decisions.
	TraceLevelDecisions TraceLevel = "decisions"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:      true,
	TraceLevelDecisions: true,
	"":                  true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// SimulationTrace collects records during a run. Lane workers and responder
// runners append concurrently, so every method is safe for concurrent use.
type SimulationTrace struct {
	Level TraceLevel

	mu          sync.Mutex
	admissions  []AdmissionRecord
	dispatches  []DispatchRecord
	completions []CompletionRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(level TraceLevel) *SimulationTrace {
	return &SimulationTrace{Level: level}
}

func (st *SimulationTrace) decisions() bool {
	return st.Level == TraceLevelDecisions
}

// RecordAdmission appends an admission decision record.
// Dropped unless the level is TraceLevelDecisions.
func (st *SimulationTrace) RecordAdmission(record AdmissionRecord) {
	if !st.decisions() {
		return
	}
	st.mu.Lock()
	st.admissions = append(st.admissions, record)
	st.mu.Unlock()
}

// RecordDispatch appends a responder dispatch record.
// Dropped unless the level is TraceLevelDecisions.
func (st *SimulationTrace) RecordDispatch(record DispatchRecord) {
	if !st.decisions() {
		return
	}
	st.mu.Lock()
	st.dispatches = append(st.dispatches, record)
	st.mu.Unlock()
}

// RecordCompletion appends a completion record. Always recorded.
func (st *SimulationTrace) RecordCompletion(record CompletionRecord) {
	st.mu.Lock()
	st.completions = append(st.completions, record)
	st.mu.Unlock()
}

// Admissions returns a copy of the admission records in recording order.
func (st *SimulationTrace) Admissions() []AdmissionRecord {
	st.mu.Lock()
	defer st.mu.Unlock()
	return append([]AdmissionRecord(nil), st.admissions...)
}

// Dispatches returns a copy of the dispatch records in recording order.
func (st *SimulationTrace) Dispatches() []DispatchRecord {
	st.mu.Lock()
	defer st.mu.Unlock()
	return append([]DispatchRecord(nil), st.dispatches...)
}

// Completions returns a copy of the completion records in recording order.
// Records from different workers interleave in wall-clock order.
func (st *SimulationTrace) Completions() []CompletionRecord {
	st.mu.Lock()
	defer st.mu.Unlock()
	return append([]CompletionRecord(nil), st.completions...)
}
