package arena

import "testing"

func TestInsertIssuesDistinctIndices(t *testing.T) {
	a := New[string]()

	i1 := a.Insert("one")
	i2 := a.Insert("two")
	i3 := a.Insert("three")

	if i1 == i2 || i2 == i3 || i1 == i3 {
		t.Fatalf("indices not distinct: %v %v %v", i1, i2, i3)
	}
	if a.Len() != 3 {
		t.Errorf("Len() = %d, want 3", a.Len())
	}
}

func TestGetAfterRemoveFailsForever(t *testing.T) {
	a := New[int]()

	idx := a.Insert(42)
	if v, ok := a.Get(idx); !ok || v != 42 {
		t.Fatalf("Get() = %v, %v; want 42, true", v, ok)
	}

	if v, ok := a.Remove(idx); !ok || v != 42 {
		t.Fatalf("Remove() = %v, %v; want 42, true", v, ok)
	}

	// The stale index must never resolve again, even after the slot is
	// reused many times.
	for i := 0; i < 16; i++ {
		fresh := a.Insert(i)
		if _, ok := a.Get(idx); ok {
			t.Fatalf("stale index resolved after %d reinsertion(s)", i+1)
		}
		a.Remove(fresh)
	}
}

func TestRemoveStaleIndexLeavesArenaUntouched(t *testing.T) {
	a := New[string]()

	idx := a.Insert("first")
	a.Remove(idx)
	replacement := a.Insert("second")

	// Removing with the stale index must not evict the new occupant.
	if _, ok := a.Remove(idx); ok {
		t.Fatal("Remove() with stale index succeeded")
	}
	if v, ok := a.Get(replacement); !ok || v != "second" {
		t.Errorf("Get(replacement) = %v, %v; want second, true", v, ok)
	}
}

func TestSlotReuseBumpsGeneration(t *testing.T) {
	a := New[string]()

	a.Insert("one")
	i2 := a.Insert("two")
	a.Insert("three")

	a.Remove(i2)
	i4 := a.Insert("four")

	if i4.Slot != i2.Slot {
		t.Errorf("slot not reused: got %d, want %d", i4.Slot, i2.Slot)
	}
	if i4.Generation == i2.Generation {
		t.Error("generation not bumped on reuse")
	}
	if _, ok := a.Get(i2); ok {
		t.Error("stale index resolved after slot reuse")
	}
	if v, ok := a.Get(i4); !ok || v != "four" {
		t.Errorf("Get(i4) = %v, %v; want four, true", v, ok)
	}
}

func TestOutOfRangeIndex(t *testing.T) {
	a := New[int]()
	a.Insert(1)

	bogus := Index{Slot: 99, Generation: 1}
	if _, ok := a.Get(bogus); ok {
		t.Error("Get() with out-of-range slot succeeded")
	}
	if a.Contains(bogus) {
		t.Error("Contains() with out-of-range slot reported true")
	}
	if _, ok := a.Remove(bogus); ok {
		t.Error("Remove() with out-of-range slot succeeded")
	}
}

func TestClearInvalidatesExistingIndices(t *testing.T) {
	a := New[int]()

	indices := make([]Index, 0, 4)
	for i := 0; i < 4; i++ {
		indices = append(indices, a.Insert(i))
	}

	a.Clear()

	if a.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", a.Len())
	}
	for _, idx := range indices {
		if _, ok := a.Get(idx); ok {
			t.Errorf("index %v survived Clear", idx)
		}
	}

	// Slots are recycled but old indices stay dead.
	fresh := a.Insert(100)
	for _, idx := range indices {
		if a.Contains(idx) {
			t.Errorf("pre-Clear index %v resolved after reinsertion", idx)
		}
	}
	if v, ok := a.Get(fresh); !ok || v != 100 {
		t.Errorf("Get(fresh) = %v, %v; want 100, true", v, ok)
	}
}

func TestSetReplacesValueInPlace(t *testing.T) {
	a := New[string]()

	idx := a.Insert("before")
	if !a.Set(idx, "after") {
		t.Fatal("Set() on live index failed")
	}
	if v, _ := a.Get(idx); v != "after" {
		t.Errorf("Get() = %q, want %q", v, "after")
	}

	a.Remove(idx)
	if a.Set(idx, "zombie") {
		t.Error("Set() on removed index succeeded")
	}
}

func TestEachVisitsLiveEntriesInSlotOrder(t *testing.T) {
	a := New[int]()

	a.Insert(10)
	dead := a.Insert(20)
	a.Insert(30)
	a.Remove(dead)

	var got []int
	a.Each(func(_ Index, v int) bool {
		got = append(got, v)
		return true
	})

	want := []int{10, 30}
	if len(got) != len(want) {
		t.Fatalf("visited %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestPackUnpackRoundTrip(t *testing.T) {
	idx := Index{Slot: 10, Generation: 3}
	if got := Unpack(idx.Pack()); got != idx {
		t.Errorf("Unpack(Pack()) = %v, want %v", got, idx)
	}
	if !Unpack(0).IsZero() {
		t.Error("Unpack(0) is not the zero index")
	}
}
