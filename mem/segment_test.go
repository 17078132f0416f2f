package mem

import "errors"
import "testing"

func TestSegmentSlice(t *testing.T) {
	sc, err := Global().Fork()
	if err != nil {
		t.Fatal(err)
	}
	defer sc.Close()

	seg, err := sc.AllocateHeap(64)
	if err != nil {
		t.Fatal(err)
	}
	if x := seg.ByteSize(); x != 64 {
		t.Errorf("expected %v, got %v", 64, x)
	}

	sub, err := seg.Slice(16, 32)
	if err != nil {
		t.Fatal(err)
	}
	if x := sub.ByteSize(); x != 32 {
		t.Errorf("expected %v, got %v", 32, x)
	}
	// a write through the slice lands in the parent window.
	if err := sub.BaseAddress().PutByte(0xab); err != nil {
		t.Fatal(err)
	}
	if v, err := seg.BaseAddress().Addr(16).Byte(); err != nil {
		t.Fatal(err)
	} else if v != 0xab {
		t.Errorf("expected %x, got %x", 0xab, v)
	}

	// empty slices are fine, including at the very end.
	if _, err := seg.Slice(64, 0); err != nil {
		t.Fatal(err)
	}
	for _, args := range [][2]int64{{-1, 8}, {0, -1}, {0, 65}, {60, 8}, {65, 0}} {
		_, err := seg.Slice(args[0], args[1])
		if errors.Is(err, ErrorInvalidArgument) == false {
			t.Errorf("slice %v expected invalid-argument, got %v", args, err)
		}
	}
}

func TestSegmentReadOnly(t *testing.T) {
	sc, err := Global().Fork()
	if err != nil {
		t.Fatal(err)
	}
	defer sc.Close()

	seg, err := sc.AllocateHeap(16)
	if err != nil {
		t.Fatal(err)
	}
	ro, err := seg.AsReadOnly()
	if err != nil {
		t.Fatal(err)
	}
	if ro.IsReadOnly() == false {
		t.Errorf("expected read-only view")
	}
	err = ro.BaseAddress().PutUint64(1)
	if errors.Is(err, ErrorUnsupported) == false {
		t.Errorf("expected unsupported, got %v", err)
	}
	if _, err := ro.BaseAddress().Uint64(); err != nil {
		t.Fatal(err)
	}
	// slices inherit the restriction.
	sub, err := ro.Slice(8, 8)
	if err != nil {
		t.Fatal(err)
	}
	if sub.IsReadOnly() == false {
		t.Errorf("expected read-only slice")
	}
	// the original handle keeps its permission.
	if seg.IsReadOnly() == true {
		t.Errorf("original handle turned read-only")
	}
	if err := seg.BaseAddress().PutUint64(1); err != nil {
		t.Fatal(err)
	}
}

func TestSegmentPinned(t *testing.T) {
	sc, err := Global().Fork()
	if err != nil {
		t.Fatal(err)
	}
	defer sc.Close()

	seg, err := sc.AllocateHeap(16)
	if err != nil {
		t.Fatal(err)
	}
	pinned, err := seg.AsPinned()
	if err != nil {
		t.Fatal(err)
	}
	if pinned.IsPinned() == false {
		t.Errorf("expected pinned view")
	}
	if err := pinned.Close(); errors.Is(err, ErrorUnsupported) == false {
		t.Errorf("expected unsupported, got %v", err)
	}
	if seg.IsAlive() == false {
		t.Errorf("expected segment alive")
	}
	// pinning a view never stops the scope itself from closing.
	if err := sc.Close(); err != nil {
		t.Fatal(err)
	}
	if pinned.IsAlive() == true {
		t.Errorf("expected pinned view dead after scope close")
	}
}

func TestSegmentClose(t *testing.T) {
	sc, err := Global().Fork()
	if err != nil {
		t.Fatal(err)
	}
	seg, err := sc.AllocateHeap(16)
	if err != nil {
		t.Fatal(err)
	}
	sibling, err := sc.AllocateHeap(16)
	if err != nil {
		t.Fatal(err)
	}
	if err := seg.Close(); err != nil {
		t.Fatal(err)
	}
	// closing one segment takes the whole scope with it.
	if sc.IsAlive() || seg.IsAlive() || sibling.IsAlive() {
		t.Errorf("expected scope and every sibling dead")
	}
	if err := seg.Close(); errors.Is(err, ErrorInvalidState) == false {
		t.Errorf("expected invalid-state, got %v", err)
	}
}

func TestSegmentAcquire(t *testing.T) {
	sc, err := Global().Fork()
	if err != nil {
		t.Fatal(err)
	}
	seg, err := sc.AllocateHeap(16)
	if err != nil {
		t.Fatal(err)
	}
	view, err := seg.Acquire()
	if err != nil {
		t.Fatal(err)
	}
	// the scope cannot close while the reference is held.
	if err := sc.Close(); errors.Is(err, ErrorInvalidState) == false {
		t.Errorf("expected invalid-state, got %v", err)
	}
	if err := seg.BaseAddress().PutUint32(42); err != nil {
		t.Fatal(err)
	}
	if err := view.Close(); err != nil {
		t.Fatal(err)
	}
	if err := view.Close(); errors.Is(err, ErrorInvalidState) == false {
		t.Errorf("expected invalid-state, got %v", err)
	}
	if err := sc.Close(); err != nil {
		t.Fatal(err)
	}
	if seg.IsAlive() == true {
		t.Errorf("expected segment dead")
	}
}

func TestSegmentAcquireRace(t *testing.T) {
	sc, err := Global().Fork()
	if err != nil {
		t.Fatal(err)
	}
	seg, err := sc.Allocate(16, 8)
	if err != nil {
		t.Fatal(err)
	}
	shared, err := seg.AsShared()
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if err := sc.Close(); err == nil {
				return
			}
		}
	}()
	for {
		view, err := shared.Acquire()
		if err != nil {
			break
		}
		// the held reference pins the scope open until given back.
		if shared.IsAlive() == false {
			t.Errorf("acquired reference on a closed scope")
		}
		if _, err := shared.BaseAddress().Uint64(); err != nil {
			t.Error(err)
		}
		if err := view.Close(); err != nil {
			t.Error(err)
		}
	}
	<-done

	if sc.IsAlive() == true {
		t.Errorf("expected scope dead")
	}
	if _, err := shared.Acquire(); errors.Is(err, ErrorInvalidState) == false {
		t.Errorf("expected invalid-state, got %v", err)
	}
}

func TestSegmentNative(t *testing.T) {
	sc, err := Global().Fork()
	if err != nil {
		t.Fatal(err)
	}
	defer sc.Close()

	seg, err := sc.Allocate(128, 64)
	if err != nil {
		t.Fatal(err)
	}
	if x := seg.ByteSize(); x != 128 {
		t.Errorf("expected %v, got %v", 128, x)
	}
	base := uint64(uintptr(seg.base()))
	if base%64 != 0 {
		t.Errorf("expected base aligned to 64, got %v", base)
	}
	addr := seg.BaseAddress()
	if err := addr.PutUint64(0x1122334455667788); err != nil {
		t.Fatal(err)
	}
	if v, err := addr.Uint64(); err != nil {
		t.Fatal(err)
	} else if v != 0x1122334455667788 {
		t.Errorf("expected %x, got %x", uint64(0x1122334455667788), v)
	}
}
