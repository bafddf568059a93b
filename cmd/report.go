package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	sim "github.com/triage-sim/triage-sim/sim"
	"github.com/triage-sim/triage-sim/sim/stats"
	"github.com/triage-sim/triage-sim/sim/trace"
)

var (
	headerColor    = color.New(color.FgHiMagenta, color.Bold)
	caretakerColor = color.New(color.FgCyan)
	responderColor = color.New(color.FgHiRed)
	summaryColor   = color.New(color.FgGreen)
)

// classColors highlights per-class summary headings.
var classColors = map[sim.PriorityClass]*color.Color{
	sim.Normal:    color.New(color.FgWhite),
	sim.Critical:  color.New(color.FgYellow),
	sim.Emergency: color.New(color.FgRed),
}

// printReport writes the processing details and the end-of-run summary.
func printReport(w io.Writer, result *sim.Result) {
	completions := groupCompletions(result.Trace.Completions())

	headerColor.Fprintln(w, "\n======= CARETAKER PROCESSING DETAILS =======")
	for _, lane := range result.Lanes {
		key := trace.ResourceKey(string(sim.ResourceCaretaker), lane.LaneID)
		caretakerColor.Fprintf(w, "Starting Caretaker #%d with %d patients\n", lane.LaneID, lane.Admitted)
		for _, c := range completions[key] {
			fmt.Fprintln(w, formatCompletion("Caretaker", c))
		}
		caretakerColor.Fprintf(w, "Caretaker #%d finished processing all patients.\n", lane.LaneID)
	}

	headerColor.Fprintln(w, "\n======= RESPONDER PROCESSING DETAILS =======")
	for _, slot := range result.Slots {
		key := trace.ResourceKey(string(sim.ResourceResponder), slot.SlotID)
		if len(completions[key]) == 0 {
			continue
		}
		responderColor.Fprintf(w, "Responder #%d treated %d emergency patients\n", slot.SlotID, slot.Served)
		for _, c := range completions[key] {
			fmt.Fprintln(w, formatCompletion("Responder", c))
		}
	}

	summary := trace.Summarize(result.Trace)
	report := stats.Summarize(result.Entities)

	headerColor.Fprintln(w, "\n======= SIMULATION SUMMARY =======")
	summaryColor.Fprintf(w, "Total caretakers opened: %d\n", result.LaneCount())
	summaryColor.Fprintf(w, "Responders on shift: %d\n", len(result.Slots))
	if summary.TotalDispatches > 0 {
		fmt.Fprintf(w, "Emergency dispatches: %d (max scans %d, mean %.2f)\n",
			summary.TotalDispatches, summary.MaxAttempts, summary.MeanAttempts)
	}
	for _, class := range sim.AllPriorityClasses() {
		cs := report.ByClass[class]
		if cs.Waiting.Count == 0 {
			continue
		}
		classColors[class].Fprintf(w, "\n%s Patients (%d):\n", class, cs.Waiting.Count)
		fmt.Fprintf(w, "Average Wait: %.2f min | Min: %.2f min | Max: %.2f min | P95: %.2f min\n",
			cs.Waiting.Mean, cs.Waiting.Min, cs.Waiting.Max, cs.Waiting.P95)
		fmt.Fprintf(w, "Average Turnaround: %.2f min | StdDev: %.2f min\n",
			cs.Turnaround.Mean, cs.Turnaround.StdDev)
	}
}

// groupCompletions buckets records by resource, keeping service order.
func groupCompletions(records []trace.CompletionRecord) map[string][]trace.CompletionRecord {
	out := make(map[string][]trace.CompletionRecord)
	for _, r := range records {
		key := trace.ResourceKey(r.Resource, r.ResourceID)
		out[key] = append(out[key], r)
	}
	return out
}

func formatCompletion(role string, c trace.CompletionRecord) string {
	return fmt.Sprintf("%s #%d | Patient %d | Priority: %s | Arrival: %s | Waiting: %.2f min | Service: %.2f min | Departure: %s",
		role, c.ResourceID, c.EntityID, c.Priority, sim.FormatClock(c.Arrival), c.Waiting, c.Service, sim.FormatClock(c.Departure))
}
