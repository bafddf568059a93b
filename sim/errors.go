package sim

import "errors"

var (
	// ErrEmptyLane is returned by PriorityLane.Remove on an empty lane.
	// A correctly sequenced LaneWorker never triggers it.
	ErrEmptyLane = errors.New("remove from empty lane")

	// ErrNoLanesAvailable is returned by the router when it has no lanes and
	// is not allowed to open one. Signals misconfiguration.
	ErrNoLanesAvailable = errors.New("no lanes available and lane opening disabled")

	// ErrEntityNotServiced is returned by the coordinator when an admitted
	// entity reached the end of the run without a completion.
	ErrEntityNotServiced = errors.New("entity not serviced")
)

// ErrPoolShutdown is returned by ResponderPool.Assign once every slot has
// been shut down, since no slot can accept the entity any more.
var ErrPoolShutdown = errors.New("responder pool shut down")
