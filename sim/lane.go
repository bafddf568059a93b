// Implements the PriorityLane, the caretaker queue that holds admitted entities
// until its LaneWorker drains it.

package sim

import (
	"fmt"
	"strings"
	"sync"
)

// PriorityLane is a FIFO lane of entities with one privileged class.
// Remove always yields the earliest-inserted privileged entity when one is
// present, and the earliest-inserted entity of any class otherwise.
//
// Every operation takes the lane mutex, so a lane stays consistent even when
// admission and service interleave. In the normal run admission finishes
// before the worker starts and the lock is uncontended.
type PriorityLane struct {
	id         int
	privileged PriorityClass

	mu    sync.Mutex
	queue []*Entity // insertion order
}

// NewPriorityLane creates an empty lane. id is the 1-based caretaker number.
func NewPriorityLane(id int, privileged PriorityClass) *PriorityLane {
	return &PriorityLane{id: id, privileged: privileged}
}

// ID returns the lane's caretaker number.
func (l *PriorityLane) ID() int {
	return l.id
}

// Privileged returns the class served ahead of all others in this lane.
func (l *PriorityLane) Privileged() PriorityClass {
	return l.privileged
}

// Insert appends an entity to the back of the lane.
func (l *PriorityLane) Insert(e *Entity) {
	if e == nil {
		panic("PriorityLane.Insert: entity must not be nil")
	}
	l.mu.Lock()
	l.queue = append(l.queue, e)
	l.mu.Unlock()
}

// Remove takes the next entity off the lane.
// Returns ErrEmptyLane if the lane holds nothing.
func (l *PriorityLane) Remove() (*Entity, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) == 0 {
		return nil, fmt.Errorf("lane %d: %w", l.id, ErrEmptyLane)
	}
	idx := 0
	for i, e := range l.queue {
		if e.Priority == l.privileged {
			idx = i
			break
		}
	}
	e := l.queue[idx]
	copy(l.queue[idx:], l.queue[idx+1:])
	l.queue[len(l.queue)-1] = nil
	l.queue = l.queue[:len(l.queue)-1]
	return e, nil
}

// IsEmpty reports whether the lane holds no entities.
func (l *PriorityLane) IsEmpty() bool {
	return l.Len() == 0
}

// Len returns the number of entities in the lane.
func (l *PriorityLane) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

// HasPrivileged reports whether any privileged entity is waiting.
func (l *PriorityLane) HasPrivileged() bool {
	return l.CountPrivileged() > 0
}

// CountPrivileged returns how many privileged entities are waiting.
func (l *PriorityLane) CountPrivileged() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.queue {
		if e.Priority == l.privileged {
			n++
		}
	}
	return n
}

func (l *PriorityLane) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var sb strings.Builder
	fmt.Fprintf(&sb, "lane %d [", l.id)
	for i, e := range l.queue {
		fmt.Fprintf(&sb, "%d:%s", e.ID, e.Priority)
		if i < len(l.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}
