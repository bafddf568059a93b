package sim

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/triage-sim/triage-sim/sim/trace"
)

// CompletionSink receives one record per serviced entity. Implementations
// must be safe for concurrent use; lane workers and responder slots share one.
// *trace.SimulationTrace satisfies it.
type CompletionSink interface {
	RecordCompletion(trace.CompletionRecord)
}

// virtualClock is a worker-private simulated clock in minutes.
type virtualClock struct {
	now float64
}

// serve fast-forwards to the entity's arrival if the worker is idle, then
// advances by the service time. Returns the service start time.
func (c *virtualClock) serve(e *Entity) float64 {
	if c.now < e.ArrivalTime {
		c.now = e.ArrivalTime
	}
	start := c.now
	c.now += e.ServiceTime
	return start
}

func completionRecord(e *Entity) trace.CompletionRecord {
	return trace.CompletionRecord{
		Resource:   string(e.Resource),
		ResourceID: e.ResourceID,
		EntityID:   e.ID,
		Priority:   e.Priority.String(),
		Arrival:    e.ArrivalTime,
		Waiting:    e.WaitingTime,
		Service:    e.ServiceTime,
		Departure:  e.DepartureTime,
	}
}

// LaneWorker drains one PriorityLane, simulating a single caretaker that
// serves sequentially on its own virtual clock. Each lane has exactly one
// worker and the worker is the lane's only consumer.
type LaneWorker struct {
	lane    *PriorityLane
	clock   virtualClock
	sink    CompletionSink
	metrics *Metrics
	served  []*Entity
}

// NewLaneWorker creates a worker whose clock starts at shiftStart.
// sink and metrics may be nil.
func NewLaneWorker(lane *PriorityLane, shiftStart float64, sink CompletionSink, metrics *Metrics) *LaneWorker {
	if lane == nil {
		panic("NewLaneWorker: lane must not be nil")
	}
	return &LaneWorker{
		lane:    lane,
		clock:   virtualClock{now: shiftStart},
		sink:    sink,
		metrics: metrics,
	}
}

// Run services entities until the lane is empty. Admission must be complete
// before Run starts; an empty lane is taken to mean no more work.
// ctx is checked between entities only: service in progress is never cut short.
func (w *LaneWorker) Run(ctx context.Context) error {
	logrus.Debugf("Starting caretaker #%d with %d patients", w.lane.ID(), w.lane.Len())
	for !w.lane.IsEmpty() {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("caretaker %d: %w", w.lane.ID(), err)
		}
		e, err := w.lane.Remove()
		if err != nil {
			return fmt.Errorf("caretaker %d: %w", w.lane.ID(), err)
		}
		start := w.clock.serve(e)
		e.Complete(start, ResourceCaretaker, w.lane.ID())
		w.served = append(w.served, e)
		w.metrics.completed(ResourceCaretaker, e.Priority)
		if w.sink != nil {
			w.sink.RecordCompletion(completionRecord(e))
		}
		logrus.Debugf("Caretaker #%d | Patient %d | Priority: %s | Arrival: %s | Waiting: %.2f min | Service: %.2f min | Departure: %s",
			w.lane.ID(), e.ID, e.Priority, FormatClock(e.ArrivalTime), e.WaitingTime, e.ServiceTime, FormatClock(e.DepartureTime))
	}
	logrus.Debugf("Caretaker #%d finished processing all patients.", w.lane.ID())
	return nil
}

// Clock returns the worker's virtual clock: the departure time of the last
// entity served, or the shift start if none.
func (w *LaneWorker) Clock() float64 {
	return w.clock.now
}

// Served returns the entities serviced so far in service order.
func (w *LaneWorker) Served() []*Entity {
	return w.served
}

// LaneID returns the id of the lane this worker drains.
func (w *LaneWorker) LaneID() int {
	return w.lane.ID()
}
