package mem

import "errors"
import "testing"

func TestArenaAllocate(t *testing.T) {
	arena, err := NativeArena(16)
	if err != nil {
		t.Fatal(err)
	}
	start := arena.Segment().Start()
	a, err := arena.Allocate(8, 8)
	if err != nil {
		t.Fatal(err)
	}
	if x := a.Segment().Start() - start; x != 0 {
		t.Errorf("expected window at %v, got %v", 0, x)
	}
	b, err := arena.Allocate(8, 8)
	if err != nil {
		t.Fatal(err)
	}
	if x := b.Segment().Start() - start; x != 8 {
		t.Errorf("expected window at %v, got %v", 8, x)
	}
	if x := arena.Allocated(); x != 16 {
		t.Errorf("expected %v, got %v", 16, x)
	}
	if _, err := arena.Allocate(1, 1); errors.Is(err, ErrorExhausted) == false {
		t.Errorf("expected exhausted, got %v", err)
	}
	// a failed allocation leaves the cursor alone.
	if x := arena.Allocated(); x != 16 {
		t.Errorf("expected %v, got %v", 16, x)
	}
	if x := arena.Available(); x != 0 {
		t.Errorf("expected %v, got %v", 0, x)
	}

	// the two windows are disjoint.
	if err := a.PutUint64(0x1111111111111111); err != nil {
		t.Fatal(err)
	}
	if err := b.PutUint64(0x2222222222222222); err != nil {
		t.Fatal(err)
	}
	if v, err := a.Uint64(); err != nil {
		t.Fatal(err)
	} else if v != 0x1111111111111111 {
		t.Errorf("expected %x, got %x", uint64(0x1111111111111111), v)
	}

	if err := arena.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Uint64(); errors.Is(err, ErrorInvalidState) == false {
		t.Errorf("expected invalid-state, got %v", err)
	}
}

func TestArenaAlignment(t *testing.T) {
	arena, err := HeapArena(64)
	if err != nil {
		t.Fatal(err)
	}
	defer arena.Close()

	if _, err := arena.Allocate(1, 1); err != nil {
		t.Fatal(err)
	}
	addr, err := arena.Allocate(8, 8)
	if err != nil {
		t.Fatal(err)
	}
	// the padded cursor never exceeds one alignment worth of waste.
	if sp := arena.Allocated(); sp < 9 || sp > 16 {
		t.Errorf("unexpected cursor %v", sp)
	}
	if err := addr.PutUint64(1); err != nil {
		t.Fatal(err)
	}

	if _, err := arena.Allocate(8, 3); errors.Is(err, ErrorInvalidArgument) == false {
		t.Errorf("expected invalid-argument, got %v", err)
	}
	if _, err := arena.Allocate(-1, 8); errors.Is(err, ErrorInvalidArgument) == false {
		t.Errorf("expected invalid-argument, got %v", err)
	}
}

func TestArenaTyped(t *testing.T) {
	arena, err := NativeArena(1024)
	if err != nil {
		t.Fatal(err)
	}
	defer arena.Close()

	ab, err := arena.AllocateByte(0x5a)
	if err != nil {
		t.Fatal(err)
	}
	a16, err := arena.AllocateUint16(0xbeef)
	if err != nil {
		t.Fatal(err)
	}
	a32, err := arena.AllocateUint32(0xdeadbeef)
	if err != nil {
		t.Fatal(err)
	}
	a64, err := arena.AllocateUint64(1 << 40)
	if err != nil {
		t.Fatal(err)
	}
	af, err := arena.AllocateFloat64(2.5)
	if err != nil {
		t.Fatal(err)
	}

	if v, _ := ab.Byte(); v != 0x5a {
		t.Errorf("expected %x, got %x", 0x5a, v)
	}
	if v, _ := a16.Uint16(); v != 0xbeef {
		t.Errorf("expected %x, got %x", 0xbeef, v)
	}
	if v, _ := a32.Uint32(); v != 0xdeadbeef {
		t.Errorf("expected %x, got %x", uint32(0xdeadbeef), v)
	}
	if v, _ := a64.Uint64(); v != 1<<40 {
		t.Errorf("expected %x, got %x", uint64(1)<<40, v)
	}
	if v, _ := af.Float64(); v != 2.5 {
		t.Errorf("expected %v, got %v", 2.5, v)
	}
}

func TestNewArena(t *testing.T) {
	setts := Defaultsettings()
	arena, err := NewArena(setts)
	if err != nil {
		t.Fatal(err)
	}
	if x := arena.Capacity(); x != setts.Int64("capacity") {
		t.Errorf("expected %v, got %v", setts.Int64("capacity"), x)
	}
	info := arena.Info()
	if x := info["backing"].(string); x != "native" {
		t.Errorf("expected %q, got %q", "native", x)
	}
	if x := info["allocated"].(int64); x != 0 {
		t.Errorf("expected %v, got %v", 0, x)
	}
	if err := arena.Close(); err != nil {
		t.Fatal(err)
	}

	setts["backing"] = "heap"
	arena, err = NewArena(setts)
	if err != nil {
		t.Fatal(err)
	}
	if err := arena.Close(); err != nil {
		t.Fatal(err)
	}

	setts["backing"] = "bogus"
	if _, err := NewArena(setts); errors.Is(err, ErrorInvalidArgument) == false {
		t.Errorf("expected invalid-argument, got %v", err)
	}

	if _, err := NativeArena(0); errors.Is(err, ErrorInvalidArgument) == false {
		t.Errorf("expected invalid-argument, got %v", err)
	}
	if _, err := HeapArena(Maxarenasize + 1); errors.Is(err, ErrorInvalidArgument) == false {
		t.Errorf("expected invalid-argument, got %v", err)
	}
}

func TestArenaExternalClose(t *testing.T) {
	arena, err := HeapArena(64)
	if err != nil {
		t.Fatal(err)
	}
	// the arena's acquired reference blocks everyone else.
	err = arena.Segment().Close()
	if errors.Is(err, ErrorInvalidState) == false {
		t.Errorf("expected invalid-state, got %v", err)
	}
	if err := arena.Close(); err != nil {
		t.Fatal(err)
	}
}
