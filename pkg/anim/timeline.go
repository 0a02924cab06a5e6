package anim

import (
	"cmp"
	"container/heap"
	"slices"
	"time"

	"github.com/google/uuid"
)

// task is a deferred leg start on a session timeline.
type task struct {
	due   time.Duration
	seq   uint64 // insertion order; breaks ties between equal due times
	group uuid.UUID
	cmd   CommandType
	leg   Leg
	index int // heap index, -1 once fired or cancelled
	tl    *timeline
}

// taskHeap orders tasks by due time, then insertion order.
type taskHeap []*task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].due != h[j].due {
		return h[i].due < h[j].due
	}
	return h[i].seq < h[j].seq
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	t := x.(*task)
	t.index = len(*h)
	*h = append(*h, t)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*h = old[:n-1]
	return t
}

// timeline is a virtual clock's queue of deferred leg starts.
type timeline struct {
	tasks taskHeap
	seq   uint64
}

func (tl *timeline) schedule(due time.Duration, group uuid.UUID, cmd CommandType, leg Leg) *task {
	tl.seq++
	t := &task{due: due, seq: tl.seq, group: group, cmd: cmd, leg: leg, tl: tl}
	heap.Push(&tl.tasks, t)
	return t
}

// due pops every task due at or before now, in firing order.
func (tl *timeline) due(now time.Duration) []*task {
	var out []*task
	for len(tl.tasks) > 0 && tl.tasks[0].due <= now {
		out = append(out, heap.Pop(&tl.tasks).(*task))
	}
	return out
}

func (tl *timeline) cancel(t *task) bool {
	if t.index < 0 {
		return false
	}
	heap.Remove(&tl.tasks, t.index)
	return true
}

// cancelExcept cancels every pending task not belonging to keep and returns
// how many were cancelled.
func (tl *timeline) cancelExcept(keep uuid.UUID) int {
	var n int
	for _, t := range slices.Clone(tl.tasks) {
		if t.group != keep && tl.cancel(t) {
			n++
		}
	}
	return n
}

// pending returns the queued tasks in firing order.
func (tl *timeline) pending() []*task {
	out := slices.Clone(tl.tasks)
	slices.SortFunc(out, func(a, b *task) int {
		if c := cmp.Compare(a.due, b.due); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})
	return out
}

func (tl *timeline) len() int { return len(tl.tasks) }

// TaskHandle refers to one deferred leg start.
type TaskHandle struct {
	t *task
}

// Cancel removes the leg start from the timeline. It reports false if the
// leg already fired or was cancelled.
func (h TaskHandle) Cancel() bool {
	if h.t == nil {
		return false
	}
	return h.t.tl.cancel(h.t)
}

// Pending reports whether the leg is still waiting to fire.
func (h TaskHandle) Pending() bool { return h.t != nil && h.t.index >= 0 }

// Due returns the session time at which the leg fires.
func (h TaskHandle) Due() time.Duration { return h.t.due }

// Leg returns the scheduled leg.
func (h TaskHandle) Leg() Leg { return h.t.leg }

// Group is the set of deferred legs scheduled by one request.
type Group struct {
	ID      uuid.UUID
	Request Request
	Tasks   []TaskHandle
}

// Cancel cancels every leg of the group that has not fired yet and returns
// how many were cancelled.
func (g *Group) Cancel() int {
	var n int
	for _, h := range g.Tasks {
		if h.Cancel() {
			n++
		}
	}
	return n
}

// Pending returns how many legs of the group have not fired yet.
func (g *Group) Pending() int {
	var n int
	for _, h := range g.Tasks {
		if h.Pending() {
			n++
		}
	}
	return n
}
