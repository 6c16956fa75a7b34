package utils

import "testing"

func TestRingBufferAppendAndOrder(t *testing.T) {
	rb := NewRingBuffer[int](5)

	for i := 1; i <= 3; i++ {
		rb.Append(i)
	}

	got := rb.GetAll()
	if len(got) != 3 {
		t.Fatalf("Expected 3 elements, got %d", len(got))
	}
	for i, v := range []int{1, 2, 3} {
		if got[i] != v {
			t.Errorf("Expected element %d to be %d, got %d", i, v, got[i])
		}
	}
	if rb.IsFull() {
		t.Error("Expected buffer not full at 3/5")
	}
}

func TestRingBufferEvictsOldest(t *testing.T) {
	rb := NewRingBuffer[int](3)

	for i := 1; i <= 5; i++ {
		rb.Append(i)
	}

	if rb.Size() != 3 {
		t.Fatalf("Expected size pinned at capacity 3, got %d", rb.Size())
	}
	if !rb.IsFull() {
		t.Error("Expected buffer full after wrap")
	}

	got := rb.GetAll()
	for i, v := range []int{3, 4, 5} {
		if got[i] != v {
			t.Errorf("Expected element %d to be %d, got %d", i, v, got[i])
		}
	}
}

func TestRingBufferGetLatest(t *testing.T) {
	rb := NewRingBuffer[int](4)
	for i := 1; i <= 6; i++ {
		rb.Append(i)
	}

	latest := rb.GetLatest(2)
	if len(latest) != 2 || latest[0] != 5 || latest[1] != 6 {
		t.Errorf("Expected latest two [5 6], got %v", latest)
	}

	all := rb.GetLatest(100)
	if len(all) != 4 || all[0] != 3 {
		t.Errorf("Expected oversized request clamped to [3 4 5 6], got %v", all)
	}

	if got := rb.GetLatest(0); len(got) != 0 {
		t.Errorf("Expected empty slice for n=0, got %v", got)
	}
}

func TestRingBufferClear(t *testing.T) {
	rb := NewRingBuffer[string](3)
	rb.Append("a")
	rb.Append("b")

	rb.Clear()
	if rb.Size() != 0 {
		t.Errorf("Expected empty buffer after Clear, got size %d", rb.Size())
	}
	if got := rb.GetAll(); len(got) != 0 {
		t.Errorf("Expected no elements after Clear, got %v", got)
	}

	rb.Append("c")
	if got := rb.GetAll(); len(got) != 1 || got[0] != "c" {
		t.Errorf("Expected buffer usable after Clear, got %v", got)
	}
}

func TestRingBufferDefaultCapacity(t *testing.T) {
	rb := NewRingBuffer[int](0)
	if rb.Capacity() != 1000 {
		t.Errorf("Expected default capacity 1000 for invalid input, got %d", rb.Capacity())
	}
}
