package sim

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/triage-sim/triage-sim/sim/trace"
)

// LaneSummary describes one caretaker lane after a run.
type LaneSummary struct {
	LaneID     int
	Admitted   int     // entities routed into the lane during admission
	Privileged int     // privileged entities among them
	ShiftEndAt float64 // caretaker virtual clock when the lane was drained
}

// SlotSummary describes one responder slot after a run.
type SlotSummary struct {
	SlotID int
	Served int
}

// Result is the outcome of a run: every entity with its waiting and
// departure times populated, plus per-resource summaries and the trace.
type Result struct {
	Entities []*Entity // all entities, in admission (arrival) order
	Lanes    []LaneSummary
	Slots    []SlotSummary
	Trace    *trace.SimulationTrace
}

// LaneCount returns the number of caretaker lanes open at the end of admission.
func (r *Result) LaneCount() int {
	return len(r.Lanes)
}

// Simulator coordinates one run: admission, service and join.
//
// The admission phase (routing every non-emergency entity into a lane and
// collecting every emergency entity for dispatch) runs single-threaded and
// finishes before any LaneWorker starts, so a worker that finds its lane
// empty knows no more entities are coming.
type Simulator struct {
	config  Config
	metrics *Metrics
	hasRun  bool
}

// NewSimulator validates config and creates a Simulator. metrics may be nil.
func NewSimulator(config Config, metrics *Metrics) (*Simulator, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if config.PrivilegedClass == Emergency {
		logrus.Warnf("privileged class is %s but emergency entities are dispatched to responders; lanes will serve FIFO", Emergency)
	}
	return &Simulator{config: config, metrics: metrics}, nil
}

// Run admits and services entities and returns once every lane worker and
// responder runner has finished. Panics if called more than once.
// Fatal conditions abort the run with an error naming the lane, slot or
// entity involved.
func (s *Simulator) Run(ctx context.Context, entities []*Entity) (*Result, error) {
	if s.hasRun {
		panic("Simulator.Run() called more than once")
	}
	s.hasRun = true

	if err := validateEntities(entities); err != nil {
		return nil, err
	}
	tr := trace.NewSimulationTrace(trace.TraceLevel(s.config.TraceLevel))

	// 1. Sort by arrival; equal arrivals keep id order.
	sorted := make([]*Entity, len(entities))
	copy(sorted, entities)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].ArrivalTime != sorted[j].ArrivalTime {
			return sorted[i].ArrivalTime < sorted[j].ArrivalTime
		}
		return sorted[i].ID < sorted[j].ID
	})

	// 2. Admission phase, single-threaded.
	router := NewAdmissionRouter(s.config.RouterConfig())
	for range router.Lanes() {
		s.metrics.laneOpened()
	}
	var emergencies []*Entity
	for _, e := range sorted {
		if e.Priority == Emergency {
			emergencies = append(emergencies, e)
			continue
		}
		decision, lane, err := router.Admit(e)
		if err != nil {
			return nil, fmt.Errorf("admission aborted: %w", err)
		}
		if decision.Opened {
			s.metrics.laneOpened()
		}
		s.metrics.admitted(lane.ID())
		tr.RecordAdmission(trace.AdmissionRecord{
			EntityID: e.ID,
			Arrival:  e.ArrivalTime,
			Lane:     lane.ID(),
			Opened:   decision.Opened,
			Reason:   decision.Reason,
		})
	}

	lanes := router.Lanes()
	summaries := make([]LaneSummary, len(lanes))
	for i, l := range lanes {
		summaries[i] = LaneSummary{LaneID: l.ID(), Admitted: l.Len(), Privileged: l.CountPrivileged()}
	}
	logrus.Infof("Admission complete: %d entities in %d lanes, %d emergencies for %d responders",
		len(sorted)-len(emergencies), len(lanes), len(emergencies), s.config.ResponderPoolSize)

	// 3. Service phase: one worker per lane, one runner per slot, one dispatcher.
	g, gctx := errgroup.WithContext(ctx)
	workers := make([]*LaneWorker, len(lanes))
	for i, l := range lanes {
		w := NewLaneWorker(l, s.config.ShiftStart, tr, s.metrics)
		workers[i] = w
		g.Go(func() error {
			return w.Run(gctx)
		})
	}

	pool := NewResponderPool(s.config.PoolConfig(), tr, s.metrics)
	pool.Start(gctx)
	g.Go(func() error {
		err := dispatchEmergencies(gctx, pool, emergencies, tr)
		pool.ShutdownAll()
		if werr := pool.Wait(); err == nil && werr != nil {
			err = fmt.Errorf("responder runner: %w", werr)
		}
		return err
	})

	// 4. Join: wait for all.
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("simulation aborted: %w", err)
	}

	// 5. Every admitted entity must have been serviced exactly once.
	served := len(pool.Served())
	for i, w := range workers {
		served += len(w.Served())
		summaries[i].ShiftEndAt = w.Clock()
	}
	for _, e := range sorted {
		if !e.IsServiced() {
			return nil, fmt.Errorf("entity %d (%s): %w", e.ID, e.Priority, ErrEntityNotServiced)
		}
	}
	if served != len(sorted) {
		return nil, fmt.Errorf("serviced %d entities but admitted %d", served, len(sorted))
	}

	slots := make([]SlotSummary, len(pool.Slots()))
	for i, slot := range pool.Slots() {
		slots[i] = SlotSummary{SlotID: slot.ID(), Served: len(slot.Served())}
	}
	return &Result{Entities: sorted, Lanes: summaries, Slots: slots, Trace: tr}, nil
}

// dispatchEmergencies hands emergency entities to the pool in arrival order.
// Each Assign blocks until a slot accepts the entity.
func dispatchEmergencies(ctx context.Context, pool *ResponderPool, emergencies []*Entity, tr *trace.SimulationTrace) error {
	for _, e := range emergencies {
		slot, attempts, err := pool.Assign(ctx, e)
		if err != nil {
			return err
		}
		tr.RecordDispatch(trace.DispatchRecord{EntityID: e.ID, Slot: slot, Attempts: attempts})
	}
	return nil
}

func validateEntities(entities []*Entity) error {
	seen := make(map[int]bool, len(entities))
	for i, e := range entities {
		if e == nil {
			return fmt.Errorf("entity at index %d is nil", i)
		}
		if seen[e.ID] {
			return fmt.Errorf("duplicate entity id %d", e.ID)
		}
		seen[e.ID] = true
		if e.IsServiced() {
			return fmt.Errorf("entity %d already serviced", e.ID)
		}
		if math.IsNaN(e.ArrivalTime) || math.IsInf(e.ArrivalTime, 0) {
			return fmt.Errorf("entity %d has invalid arrival time %v", e.ID, e.ArrivalTime)
		}
		if math.IsNaN(e.ServiceTime) || math.IsInf(e.ServiceTime, 0) || e.ServiceTime < 0 {
			return fmt.Errorf("entity %d has invalid service time %v", e.ID, e.ServiceTime)
		}
		if _, ok := priorityNames[e.Priority]; !ok {
			return fmt.Errorf("entity %d has unknown priority class %d", e.ID, int(e.Priority))
		}
	}
	return nil
}
