package gfx

import "testing"

func TestUniformSetPreservesInsertionOrder(t *testing.T) {
	s := NewUniformSet()
	s.Set("c", float32(3))
	s.Set("a", float32(1))
	s.Set("b", float32(2))
	// Re-setting keeps the original position.
	s.Set("c", float32(30))

	var order []string
	s.Each(func(name string, value Uniform) bool {
		order = append(order, name)
		return true
	})
	want := []string{"c", "a", "b"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}

	v, ok := s.Get("c")
	if !ok || v.(float32) != 30 {
		t.Errorf("Get(c) = %v, %v; want 30, true", v, ok)
	}
}

func TestUniformSetEachStopsEarly(t *testing.T) {
	s := NewUniformSet()
	s.Set("a", int32(1))
	s.Set("b", int32(2))
	s.Set("c", int32(3))

	visits := 0
	s.Each(func(string, Uniform) bool {
		visits++
		return visits < 2
	})
	if visits != 2 {
		t.Errorf("visits = %d, want 2", visits)
	}
}

func TestUniformSetCloneIsIndependent(t *testing.T) {
	s := NewUniformSet()
	s.Set("a", float32(1))
	clone := s.Clone()
	clone.Set("b", float32(2))
	s.Delete("a")

	if s.Len() != 0 {
		t.Errorf("original Len = %d, want 0", s.Len())
	}
	if clone.Len() != 2 {
		t.Errorf("clone Len = %d, want 2", clone.Len())
	}
}

func TestTextureBindingSetReusesSlots(t *testing.T) {
	var s TextureBindingSet
	texA := TextureID(1)
	texB := TextureID(2)

	slotA, ok := s.Allocate(texA)
	if !ok || slotA != 0 {
		t.Fatalf("Allocate(A) = %d, %v; want 0, true", slotA, ok)
	}
	slotB, ok := s.Allocate(texB)
	if !ok || slotB != 1 {
		t.Fatalf("Allocate(B) = %d, %v; want 1, true", slotB, ok)
	}
	again, ok := s.Allocate(texA)
	if !ok || again != slotA {
		t.Errorf("Allocate(A) again = %d, want %d", again, slotA)
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
}

func TestTextureBindingSetFreeRecyclesSlot(t *testing.T) {
	var s TextureBindingSet
	texA := TextureID(1)
	texB := TextureID(2)
	texC := TextureID(3)

	slotA, _ := s.Allocate(texA)
	slotB, _ := s.Allocate(texB)

	s.Free(texA)
	if s.Len() != 1 {
		t.Fatalf("Len after Free = %d, want 1", s.Len())
	}

	// The freed slot is the lowest available and must be handed out again.
	slotC, ok := s.Allocate(texC)
	if !ok || slotC != slotA {
		t.Errorf("Allocate(C) = %d, %v; want %d, true", slotC, ok, slotA)
	}
	if again, ok := s.Allocate(texB); !ok || again != slotB {
		t.Errorf("Allocate(B) = %d, %v; want %d, true", again, ok, slotB)
	}

	// Freeing a texture with no slot changes nothing.
	s.Free(TextureID(99))
	if s.Len() != 2 {
		t.Errorf("Len after no-op Free = %d, want 2", s.Len())
	}
}

func TestTextureBindingSetExhaustion(t *testing.T) {
	var s TextureBindingSet
	for i := 0; i < MaxTextureUnits; i++ {
		if _, ok := s.Allocate(TextureID(i + 1)); !ok {
			t.Fatalf("Allocate(%d) failed before exhaustion", i)
		}
	}
	if _, ok := s.Allocate(TextureID(999)); ok {
		t.Error("Allocate succeeded past MaxTextureUnits")
	}
	s.Clear()
	if _, ok := s.Allocate(TextureID(999)); !ok {
		t.Error("Allocate failed after Clear")
	}
}
