package allocator

import "testing"

func TestProfileInfoRecord(t *testing.T) {
	var p ProfileInfo

	p.record(10)
	p.record(30)
	p.record(20)

	if p.Requests != 3 {
		t.Errorf("Requests = %d, want 3", p.Requests)
	}
	if p.BytesAllocated != 60 {
		t.Errorf("BytesAllocated = %d, want 60", p.BytesAllocated)
	}
	if p.MostBytesAllocated != 30 {
		t.Errorf("MostBytesAllocated = %d, want 30", p.MostBytesAllocated)
	}
	if p.LeastBytesAllocated != 10 {
		t.Errorf("LeastBytesAllocated = %d, want 10", p.LeastBytesAllocated)
	}
}

func TestNextTickMonotonic(t *testing.T) {
	a := nextTick()
	b := nextTick()
	if b <= a {
		t.Errorf("nextTick() not monotonic: got %d then %d", a, b)
	}
}
