package lib

import "testing"

func TestIspower2(t *testing.T) {
	for _, n := range []int64{1, 2, 4, 8, 1024, 1 << 40} {
		if Ispower2(n) == false {
			t.Errorf("expected %v to be power of 2", n)
		}
	}
	for _, n := range []int64{0, -1, -8, 3, 6, 1023} {
		if Ispower2(n) == true {
			t.Errorf("expected %v to not be power of 2", n)
		}
	}
}

func TestAlignUp(t *testing.T) {
	if x := AlignUp(0, 8); x != 0 {
		t.Errorf("expected %v, got %v", 0, x)
	}
	if x := AlignUp(1, 8); x != 8 {
		t.Errorf("expected %v, got %v", 8, x)
	}
	if x := AlignUp(8, 8); x != 8 {
		t.Errorf("expected %v, got %v", 8, x)
	}
	if x := AlignUp(9, 8); x != 16 {
		t.Errorf("expected %v, got %v", 16, x)
	}
	if x := AlignUp(100, 64); x != 128 {
		t.Errorf("expected %v, got %v", 128, x)
	}
}

func TestAlignedTo(t *testing.T) {
	if AlignedTo(16, 8) == false {
		t.Errorf("expected 16 to be 8 byte aligned")
	}
	if AlignedTo(12, 8) == true {
		t.Errorf("expected 12 to not be 8 byte aligned")
	}
	if AlignedTo(0, 4096) == false {
		t.Errorf("expected 0 to be aligned to anything")
	}
}
