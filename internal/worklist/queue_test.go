package worklist

import "testing"

func TestQueueFIFOOrder(t *testing.T) {
	q := New[int]()
	q.Push(1)
	q.Push(2)
	q.Push(3)

	for _, want := range []int{1, 2, 3} {
		got, ok := q.Pop()
		if !ok || got != want {
			t.Fatalf("Pop() = %d, %v; want %d, true", got, ok, want)
		}
	}
	if !q.Empty() {
		t.Fatalf("queue should be empty after draining")
	}
	if _, ok := q.Pop(); ok {
		t.Fatalf("Pop() on empty queue should report ok=false")
	}
}

func TestQueueSeedAndPushAll(t *testing.T) {
	q := New(10, 20)
	q.PushAll([]int{30, 40})

	var got []int
	for !q.Empty() {
		v, _ := q.Pop()
		got = append(got, v)
	}
	want := []int{10, 20, 30, 40}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestQueueInterleavedPushPop(t *testing.T) {
	q := New[string]()
	q.Push("a")
	v, _ := q.Pop()
	if v != "a" {
		t.Fatalf("got %q, want a", v)
	}
	q.Push("b")
	q.Push("c")
	v, _ = q.Pop()
	if v != "b" {
		t.Fatalf("got %q, want b", v)
	}
	if q.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", q.Len())
	}
}

func TestQueueCompactionPreservesOrder(t *testing.T) {
	q := New[int]()
	for i := 0; i < 200; i++ {
		q.Push(i)
		if i%3 == 0 {
			if _, ok := q.Pop(); !ok {
				t.Fatalf("expected pop to succeed")
			}
		}
	}
	var last = -1
	for !q.Empty() {
		v, _ := q.Pop()
		if v <= last {
			t.Fatalf("queue order violated: %d after %d", v, last)
		}
		last = v
	}
}
