package sim

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// SlotState is the lifecycle state of a ResponderSlot.
type SlotState string

const (
	SlotIdle     SlotState = "idle"
	SlotOccupied SlotState = "occupied"
)

// ResponderSlot is a single-capacity resource modelling one emergency responder.
// It accepts at most one entity at a time and holds it until service finishes.
//
// Service blocks the runner for ServiceTime × scale of wall-clock time, and the
// slot's virtual clock assigns the simulated waiting and departure times.
type ResponderSlot struct {
	id    int
	scale time.Duration // wall-clock delay per simulated minute of service

	mu     sync.Mutex
	state  SlotState
	closed bool

	assigned chan *Entity // capacity 1; non-empty only while Occupied
	stop     chan struct{}

	// runner-owned
	clock  virtualClock
	served []*Entity

	onRelease func()
	sink      CompletionSink
	metrics   *Metrics
}

// NewResponderSlot creates an idle slot. id is 1-based; shiftStart seeds the
// slot's virtual clock. sink and metrics may be nil.
func NewResponderSlot(id int, shiftStart float64, scale time.Duration, sink CompletionSink, metrics *Metrics) *ResponderSlot {
	return &ResponderSlot{
		id:       id,
		scale:    scale,
		state:    SlotIdle,
		assigned: make(chan *Entity, 1),
		stop:     make(chan struct{}),
		clock:    virtualClock{now: shiftStart},
		sink:     sink,
		metrics:  metrics,
	}
}

// ID returns the 1-based slot number.
func (s *ResponderSlot) ID() int {
	return s.id
}

// State returns the current slot state.
func (s *ResponderSlot) State() SlotState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsAvailable reports whether the slot is idle and still accepting work.
// The answer can be stale by the time the caller acts on it; TryAssign is
// the authoritative check.
func (s *ResponderSlot) IsAvailable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == SlotIdle && !s.closed
}

// TryAssign atomically moves the slot from Idle to Occupied and hands e to
// the runner. Returns false without side effects if the slot is occupied or
// shut down. Of two concurrent callers on an idle slot exactly one wins.
func (s *ResponderSlot) TryAssign(e *Entity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state != SlotIdle {
		return false
	}
	s.state = SlotOccupied
	s.assigned <- e // never blocks: the buffer is empty whenever the slot is idle
	return true
}

// Shutdown stops the runner once any entity in progress is finished.
// Subsequent TryAssign calls return false. Safe to call more than once.
func (s *ResponderSlot) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.stop)
}

// IsShutdown reports whether Shutdown has been called.
func (s *ResponderSlot) IsShutdown() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Run is the slot's runner loop. It blocks until an entity is assigned,
// services it, returns to Idle, and repeats until shut down or ctx is done.
// An entity already handed over when the stop signal arrives is still serviced.
func (s *ResponderSlot) Run(ctx context.Context) error {
	for {
		select {
		case e := <-s.assigned:
			s.service(e)
		case <-s.stop:
			s.drain()
			return nil
		case <-ctx.Done():
			s.Shutdown()
			s.drain()
			return ctx.Err()
		}
	}
}

func (s *ResponderSlot) drain() {
	select {
	case e := <-s.assigned:
		s.service(e)
	default:
	}
}

func (s *ResponderSlot) service(e *Entity) {
	logrus.Debugf("[Responder %d] Started processing emergency patient %d at time %s", s.id, e.ID, FormatClock(e.ArrivalTime))
	if d := time.Duration(e.ServiceTime * float64(s.scale)); d > 0 {
		time.Sleep(d)
	}
	start := s.clock.serve(e)
	e.Complete(start, ResourceResponder, s.id)
	s.served = append(s.served, e)
	s.metrics.completed(ResourceResponder, e.Priority)
	if s.sink != nil {
		s.sink.RecordCompletion(completionRecord(e))
	}
	logrus.Debugf("[Responder %d] Finished processing emergency patient %d", s.id, e.ID)

	s.mu.Lock()
	s.state = SlotIdle
	s.mu.Unlock()
	s.metrics.released()
	if s.onRelease != nil {
		s.onRelease()
	}
}

// Served returns the entities this slot serviced, in service order.
// Only meaningful after Run has returned.
func (s *ResponderSlot) Served() []*Entity {
	return s.served
}
