package trace

import "fmt"

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalAdmissions int
	LanesOpened     int
	TotalDispatches int
	MaxAttempts     int
	MeanAttempts    float64
	Completions     int
	// ResourceDistribution maps "caretaker 1", "responder 2", ... to completion counts.
	ResourceDistribution map[string]int
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		ResourceDistribution: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	admissions := st.Admissions()
	summary.TotalAdmissions = len(admissions)
	for _, a := range admissions {
		if a.Opened {
			summary.LanesOpened++
		}
	}

	dispatches := st.Dispatches()
	summary.TotalDispatches = len(dispatches)
	if len(dispatches) > 0 {
		total := 0
		for _, d := range dispatches {
			total += d.Attempts
			if d.Attempts > summary.MaxAttempts {
				summary.MaxAttempts = d.Attempts
			}
		}
		summary.MeanAttempts = float64(total) / float64(len(dispatches))
	}

	completions := st.Completions()
	summary.Completions = len(completions)
	for _, c := range completions {
		summary.ResourceDistribution[ResourceKey(c.Resource, c.ResourceID)]++
	}
	return summary
}

// ResourceKey formats the ResourceDistribution key for a resource.
func ResourceKey(resource string, id int) string {
	return fmt.Sprintf("%s %d", resource, id)
}
