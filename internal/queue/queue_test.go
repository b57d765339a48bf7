package queue

import (
	"sync"
	"testing"

	"github.com/crossingguard/autopilot/pkg/core"
)

func wp(x, z float64) core.Point3 { return core.Point3{X: x, Z: z} }

func drain[T any](q *Queue[T]) []T {
	var out []T
	for {
		v, ok := q.Pop()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

func TestQueue_EmptyState(t *testing.T) {
	q := New[core.Point3]()
	if !q.Empty() || q.Len() != 0 {
		t.Fatalf("new queue should be empty, len=%d", q.Len())
	}
	if v, ok := q.Pop(); ok {
		t.Errorf("Pop on empty queue returned %v", v)
	}
	if v, ok := q.Peek(); ok {
		t.Errorf("Peek on empty queue returned %v", v)
	}
	if items := q.Items(); len(items) != 0 {
		t.Errorf("Items on empty queue = %v", items)
	}
}

func TestQueue_WaypointsComeOutInOrder(t *testing.T) {
	q := New[core.Point3]()
	q.Push(wp(1, 0))
	q.Push(wp(2, 1), wp(3, 1))

	front, ok := q.Peek()
	if !ok || front != wp(1, 0) {
		t.Fatalf("Peek = %v (ok=%v), want first waypoint", front, ok)
	}
	if q.Len() != 3 {
		t.Errorf("Peek must not consume, len=%d", q.Len())
	}

	got := drain(q)
	want := []core.Point3{wp(1, 0), wp(2, 1), wp(3, 1)}
	if len(got) != len(want) {
		t.Fatalf("drained %d waypoints, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("waypoint %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestQueue_Replace(t *testing.T) {
	q := New[core.Point3]()
	q.Push(wp(1, 0), wp(2, 0), wp(3, 0))
	q.Pop()

	q.Replace(wp(9, 2), wp(10, 2))

	got := q.Items()
	if len(got) != 2 || got[0] != wp(9, 2) || got[1] != wp(10, 2) {
		t.Errorf("after Replace got %v", got)
	}

	q.Replace()
	if !q.Empty() {
		t.Error("Replace with no items should empty the queue")
	}
}

func TestQueue_Requeue(t *testing.T) {
	q := New[string]()
	q.Push("t1", "t2")

	batch := q.GetAndEmpty()
	if !q.Empty() {
		t.Fatal("expected empty queue after GetAndEmpty")
	}
	q.Push("t3") // arrives while the batch is being written
	q.Requeue(batch...)
	q.Requeue()

	got := drain(q)
	if len(got) != 3 || got[0] != "t1" || got[1] != "t2" || got[2] != "t3" {
		t.Errorf("order after Requeue = %v", got)
	}
}

func TestQueue_ClearAndItemsCopy(t *testing.T) {
	q := New[int]()
	q.Push(1, 2, 3)

	items := q.Items()
	items[0] = 99
	if v, _ := q.Peek(); v != 1 {
		t.Errorf("Items must return a copy, queue front is %d", v)
	}

	q.Clear()
	if !q.Empty() {
		t.Error("expected empty queue after Clear")
	}
	q.Push(4)
	if v, _ := q.Pop(); v != 4 {
		t.Errorf("queue unusable after Clear, got %d", v)
	}
}

func TestQueue_ConcurrentRecorders(t *testing.T) {
	q := New[core.TickRecord]()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(tick uint64) {
			defer wg.Done()
			q.Push(core.TickRecord{Tick: tick})
		}(uint64(i))
	}
	wg.Wait()

	if q.Len() != 100 {
		t.Fatalf("expected 100 ticks, got %d", q.Len())
	}

	var mu sync.Mutex
	var total uint64
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				rec, ok := q.Pop()
				if !ok {
					return
				}
				mu.Lock()
				total += rec.Tick
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if total != 4950 {
		t.Errorf("sum of popped ticks = %d, want 4950", total)
	}
}
