// Package sim provides the patient-flow core for triage-sim.
//
// # Reading Guide
//
// Start with these files to understand a run:
//   - entity.go: Entity fields and the exactly-once Complete transition
//   - router.go: lane selection (Route) and the AdmissionRouter that applies it
//   - simulator.go: admission phase, service phase and join
//
// # Architecture
//
// Non-emergency entities are routed into PriorityLanes, each drained by one
// LaneWorker that simulates a caretaker on a private virtual clock. Emergency
// entities bypass the lanes and are dispatched to a fixed ResponderPool of
// single-capacity ResponderSlots. Sub-packages:
//   - sim/trace/: admission, dispatch and completion records
//   - sim/workload/: seeded synthetic patient generation
//   - sim/stats/: waiting and turnaround distributions
//
// # Key Interfaces
//
//   - CompletionSink: receives one record per serviced entity
//   - BackoffStrategy: delay between responder rescans
package sim
