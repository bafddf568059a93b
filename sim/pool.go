package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ResponderPool is a fixed set of ResponderSlots numbered 1..N.
// Assign places each emergency entity on exactly one slot, rescanning with
// backoff while every slot is occupied.
//
// Scans always run in slot order 1..N, never round-robin: an idle
// low-numbered slot is always preferred, which under load concentrates work
// on the first slots.
type ResponderPool struct {
	slots   []*ResponderSlot
	backoff BackoffStrategy
	metrics *Metrics

	mu       sync.Mutex
	released chan struct{} // closed and replaced whenever a slot returns to Idle

	group   *errgroup.Group
	started bool
}

// PoolConfig groups responder pool parameters.
type PoolConfig struct {
	Size             int             // number of slots (must be >= 1)
	ShiftStart       float64         // initial virtual clock of every slot
	ServiceTimeScale time.Duration   // wall-clock delay per simulated minute
	Backoff          BackoffStrategy // nil = 10ms constant
}

// DefaultReassignBackoff is the pause between full scans when no slot is free.
const DefaultReassignBackoff = 10 * time.Millisecond

// NewResponderPool creates a pool of idle slots. The runners are not started
// until Start. Panics if config.Size < 1.
func NewResponderPool(config PoolConfig, sink CompletionSink, metrics *Metrics) *ResponderPool {
	if config.Size < 1 {
		panic(fmt.Sprintf("NewResponderPool: Size must be >= 1, got %d", config.Size))
	}
	backoff := config.Backoff
	if backoff == nil {
		backoff = &ConstantBackoff{Interval: DefaultReassignBackoff}
	}
	p := &ResponderPool{
		backoff:  backoff,
		metrics:  metrics,
		released: make(chan struct{}),
	}
	p.slots = make([]*ResponderSlot, config.Size)
	for i := range p.slots {
		s := NewResponderSlot(i+1, config.ShiftStart, config.ServiceTimeScale, sink, metrics)
		s.onRelease = p.signalRelease
		p.slots[i] = s
	}
	return p
}

// Slots returns the pool's slots in scan order.
func (p *ResponderPool) Slots() []*ResponderSlot {
	return p.slots
}

// Start launches one runner goroutine per slot. Panics if called twice.
func (p *ResponderPool) Start(ctx context.Context) {
	if p.started {
		panic("ResponderPool.Start called more than once")
	}
	p.started = true
	g, gctx := errgroup.WithContext(ctx)
	for _, s := range p.slots {
		s := s // per-iteration copy; go.mod targets go1.21 (pre-1.22 loopvar semantics)
		g.Go(func() error {
			return s.Run(gctx)
		})
	}
	p.group = g
}

// Assign blocks until e is placed on a slot and returns the slot number and
// the number of full scans it took. It fails only if ctx is done or every
// slot has been shut down.
func (p *ResponderPool) Assign(ctx context.Context, e *Entity) (slot int, attempts int, err error) {
	for {
		if err := ctx.Err(); err != nil {
			return 0, attempts, fmt.Errorf("assigning entity %d: %w", e.ID, err)
		}
		attempts++
		// Capture the release signal before scanning so a slot freed
		// mid-scan still wakes this caller.
		released := p.releaseSignal()
		for _, s := range p.slots {
			if s.IsAvailable() && s.TryAssign(e) {
				p.metrics.assigned(s.ID())
				logrus.Debugf("Emergency patient %d assigned to Responder %d (scan %d)", e.ID, s.ID(), attempts)
				return s.ID(), attempts, nil
			}
		}
		if p.allShutdown() {
			return 0, attempts, fmt.Errorf("assigning entity %d: %w", e.ID, ErrPoolShutdown)
		}
		p.metrics.retried()
		if err := p.wait(ctx, released, p.backoff.Delay(attempts)); err != nil {
			return 0, attempts, fmt.Errorf("assigning entity %d: %w", e.ID, err)
		}
	}
}

// wait sleeps for d, returning early if a slot is released or ctx is done.
func (p *ResponderPool) wait(ctx context.Context, released <-chan struct{}, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-released:
	case <-timer.C:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (p *ResponderPool) releaseSignal() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.released
}

func (p *ResponderPool) signalRelease() {
	p.mu.Lock()
	close(p.released)
	p.released = make(chan struct{})
	p.mu.Unlock()
}

func (p *ResponderPool) allShutdown() bool {
	for _, s := range p.slots {
		if !s.IsShutdown() {
			return false
		}
	}
	return true
}

// ShutdownAll shuts every slot down. In-flight service completes.
func (p *ResponderPool) ShutdownAll() {
	for _, s := range p.slots {
		s.Shutdown()
	}
}

// Wait blocks until every runner has returned. Returns the first runner error.
func (p *ResponderPool) Wait() error {
	if p.group == nil {
		return nil
	}
	return p.group.Wait()
}

// Served returns every entity the pool serviced, grouped by slot in scan order.
// Only meaningful after Wait has returned.
func (p *ResponderPool) Served() []*Entity {
	var out []*Entity
	for _, s := range p.slots {
		out = append(out, s.Served()...)
	}
	return out
}
