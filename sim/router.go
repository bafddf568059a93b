package sim

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// OpenPolicy decides when the router opens an additional lane.
type OpenPolicy string

const (
	// OpenLazy opens a lane only when every existing lane is at or above threshold.
	OpenLazy OpenPolicy = "lazy"
	// OpenEager opens a lane as soon as any existing lane reaches threshold.
	OpenEager OpenPolicy = "eager"
)

// validOpenPolicies maps accepted policy names. Empty defaults to lazy.
var validOpenPolicies = map[OpenPolicy]bool{"": true, OpenLazy: true, OpenEager: true}

// IsValidOpenPolicy returns true if name is a recognized lane opening policy.
func IsValidOpenPolicy(name string) bool {
	return validOpenPolicies[OpenPolicy(name)]
}

// RoutingDecision encapsulates the router's choice for one entity.
type RoutingDecision struct {
	Lane   int    // 0-based index into the lane list; equals len(lanes) when Opened
	Opened bool   // true if the caller must open a new lane at index Lane
	Reason string // Human-readable explanation
}

// Route selects the lane for the next entity given the current lane sizes.
// It never mutates anything; the caller opens the lane (if Opened) and inserts.
//
// Lazy policy: the smallest lane under threshold wins (lowest index on ties);
// if none is under threshold a new lane is opened. Eager policy: a new lane is
// opened as soon as any lane is at threshold, otherwise the smallest lane wins.
// When canOpen is false the globally least-loaded lane is selected instead of
// opening. Returns ErrNoLanesAvailable for zero lanes with canOpen false.
func Route(sizes []int, threshold int, policy OpenPolicy, canOpen bool) (RoutingDecision, error) {
	if threshold < 1 {
		panic(fmt.Sprintf("Route: threshold must be >= 1, got %d", threshold))
	}
	if len(sizes) == 0 {
		if !canOpen {
			return RoutingDecision{}, ErrNoLanesAvailable
		}
		return RoutingDecision{Lane: 0, Opened: true, Reason: "open (no lanes)"}, nil
	}

	under, underSize := -1, 0
	least, leastSize := 0, sizes[0]
	anyFull := false
	for i, n := range sizes {
		if n < threshold {
			if under == -1 || n < underSize {
				under, underSize = i, n
			}
		} else {
			anyFull = true
		}
		if n < leastSize {
			least, leastSize = i, n
		}
	}

	if canOpen {
		switch policy {
		case OpenEager:
			if anyFull {
				return RoutingDecision{Lane: len(sizes), Opened: true, Reason: fmt.Sprintf("open (eager, lane %d at threshold)", firstAtOrAbove(sizes, threshold)+1)}, nil
			}
		default:
			if under == -1 {
				return RoutingDecision{Lane: len(sizes), Opened: true, Reason: fmt.Sprintf("open (all %d lanes at threshold %d)", len(sizes), threshold)}, nil
			}
		}
	}
	if under != -1 {
		return RoutingDecision{Lane: under, Reason: fmt.Sprintf("shortest-under-threshold (size=%d)", underSize)}, nil
	}
	return RoutingDecision{Lane: least, Reason: fmt.Sprintf("least-loaded (size=%d, opening disabled)", leastSize)}, nil
}

func firstAtOrAbove(sizes []int, threshold int) int {
	for i, n := range sizes {
		if n >= threshold {
			return i
		}
	}
	return -1
}

// RouterConfig groups the admission router parameters.
type RouterConfig struct {
	Threshold    int           // lane load threshold T (must be >= 1)
	Policy       OpenPolicy    // lane opening policy (empty = lazy)
	InitialLanes int           // lanes open before the first admission
	MaxLanes     int           // cap on open lanes; 0 = unlimited
	Privileged   PriorityClass // class served first inside every lane
}

// AdmissionRouter owns the ordered set of open lanes and routes each
// incoming entity into one of them, opening lanes as the policy requires.
// Admit performs the decision and the insertion as a single atomic step,
// so concurrent producers never overfill a lane.
type AdmissionRouter struct {
	config RouterConfig

	mu    sync.Mutex
	lanes []*PriorityLane
}

// NewAdmissionRouter creates a router with config.InitialLanes empty lanes.
// Panics if Threshold < 1 or the lane counts are negative.
func NewAdmissionRouter(config RouterConfig) *AdmissionRouter {
	if config.Threshold < 1 {
		panic(fmt.Sprintf("NewAdmissionRouter: Threshold must be >= 1, got %d", config.Threshold))
	}
	if config.InitialLanes < 0 || config.MaxLanes < 0 {
		panic("NewAdmissionRouter: lane counts must be non-negative")
	}
	r := &AdmissionRouter{config: config}
	for i := 0; i < config.InitialLanes; i++ {
		r.lanes = append(r.lanes, NewPriorityLane(i+1, config.Privileged))
	}
	return r
}

// Admit routes e to a lane and inserts it there.
func (r *AdmissionRouter) Admit(e *Entity) (RoutingDecision, *PriorityLane, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sizes := make([]int, len(r.lanes))
	for i, l := range r.lanes {
		sizes[i] = l.Len()
	}
	canOpen := r.config.MaxLanes == 0 || len(r.lanes) < r.config.MaxLanes
	decision, err := Route(sizes, r.config.Threshold, r.config.Policy, canOpen)
	if err != nil {
		return decision, nil, fmt.Errorf("admitting entity %d: %w", e.ID, err)
	}
	if decision.Opened {
		r.lanes = append(r.lanes, NewPriorityLane(len(r.lanes)+1, r.config.Privileged))
		logrus.Infof("Opened caretaker lane %d for entity %d: %s", decision.Lane+1, e.ID, decision.Reason)
	}
	lane := r.lanes[decision.Lane]
	lane.Insert(e)
	logrus.Debugf("Entity %d (%s) admitted to lane %d: %s", e.ID, e.Priority, lane.ID(), decision.Reason)
	return decision, lane, nil
}

// Lanes returns the open lanes in opening order.
func (r *AdmissionRouter) Lanes() []*PriorityLane {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*PriorityLane, len(r.lanes))
	copy(out, r.lanes)
	return out
}

// Threshold returns the configured lane load threshold.
func (r *AdmissionRouter) Threshold() int {
	return r.config.Threshold
}
