package sim

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drainIDs(t *testing.T, l *PriorityLane) []int {
	t.Helper()
	var ids []int
	for !l.IsEmpty() {
		e, err := l.Remove()
		require.NoError(t, err)
		ids = append(ids, e.ID)
	}
	return ids
}

func TestPriorityLane_PrivilegedFirstThenFIFO(t *testing.T) {
	// GIVEN Normal A, Critical B, Normal C inserted in that order
	l := NewPriorityLane(1, Critical)
	l.Insert(NewEntity(1, 0, 1, Normal))
	l.Insert(NewEntity(2, 0, 1, Critical))
	l.Insert(NewEntity(3, 0, 1, Normal))

	// WHEN draining
	// THEN B comes out first, then A and C in insertion order
	assert.Equal(t, []int{2, 1, 3}, drainIDs(t, l))
}

func TestPriorityLane_StableAmongPrivileged(t *testing.T) {
	l := NewPriorityLane(1, Critical)
	for i, p := range []PriorityClass{Normal, Critical, Normal, Critical, Critical, Normal} {
		l.Insert(NewEntity(i+1, 0, 1, p))
	}
	assert.Equal(t, 3, l.CountPrivileged())
	assert.True(t, l.HasPrivileged())
	assert.Equal(t, []int{2, 4, 5, 1, 3, 6}, drainIDs(t, l))
	assert.False(t, l.HasPrivileged())
}

func TestPriorityLane_NormalPrivileged(t *testing.T) {
	// GIVEN a lane whose privileged class is Normal
	l := NewPriorityLane(1, Normal)
	l.Insert(NewEntity(1, 0, 1, Critical))
	l.Insert(NewEntity(2, 0, 1, Normal))
	assert.Equal(t, []int{2, 1}, drainIDs(t, l))
}

func TestPriorityLane_RemoveEmpty(t *testing.T) {
	l := NewPriorityLane(7, Critical)
	e, err := l.Remove()
	assert.Nil(t, e)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyLane))
	assert.Contains(t, err.Error(), "lane 7")
}

func TestPriorityLane_InsertNilPanics(t *testing.T) {
	l := NewPriorityLane(1, Critical)
	assert.Panics(t, func() { l.Insert(nil) })
}

func TestPriorityLane_ConcurrentInsertRemove(t *testing.T) {
	// GIVEN producers and consumers sharing one lane
	l := NewPriorityLane(1, Critical)
	const n = 1000
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			l.Insert(NewEntity(id, 0, 1, Normal))
		}(i)
	}
	wg.Wait()

	// WHEN several consumers remove concurrently
	seen := make(chan int, n)
	for c := 0; c < 4; c++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				e, err := l.Remove()
				if err != nil {
					return
				}
				seen <- e.ID
			}
		}()
	}
	wg.Wait()
	close(seen)

	// THEN every entity comes out exactly once
	ids := make(map[int]bool)
	for id := range seen {
		require.False(t, ids[id], "entity %d removed twice", id)
		ids[id] = true
	}
	assert.Len(t, ids, n)
	assert.True(t, l.IsEmpty())
}

func TestPriorityLane_String(t *testing.T) {
	l := NewPriorityLane(2, Critical)
	l.Insert(NewEntity(1, 0, 1, Normal))
	l.Insert(NewEntity(5, 0, 1, Critical))
	assert.Equal(t, "lane 2 [1:Normal 5:Critical]", l.String())
}
