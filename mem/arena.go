package mem

import "fmt"

import s "github.com/bnclabs/gosettings"
import humanize "github.com/dustin/go-humanize"

import "github.com/bnclabs/gomem/api"
import "github.com/bnclabs/gomem/lib"

// Arena is a bump-pointer allocator serving many small allocations
// from one pre-allocated segment. Individual allocations are never
// released; one Close reclaims everything the arena ever handed out,
// in O(1) with respect to the number of allocations. The arena holds
// an acquired reference on its own segment, so no outside party can
// close the backing scope while sub-allocations are outstanding.
type Arena struct {
	segment  *Segment
	acquired *Segment
	sp       int64 // allocation cursor, 0 <= sp <= segment.length
	backing  string
}

// NewArena create an arena from settings, refer Defaultsettings() for
// the list of parameters.
func NewArena(setts s.Settings) (*Arena, error) {
	capacity := setts.Int64("capacity")
	switch backing := setts.String("backing"); backing {
	case "native":
		return NativeArena(capacity)
	case "heap":
		return HeapArena(capacity)
	default:
		fmsg := "%w: unknown backing %q"
		return nil, fmt.Errorf(fmsg, ErrorInvalidArgument, backing)
	}
}

// NativeArena create an arena of `capacity` bytes backed by off-heap
// memory, under a fresh scope confined to the calling thread.
func NativeArena(capacity int64) (*Arena, error) {
	if err := arenacap(capacity); err != nil {
		return nil, err
	}
	scope, err := Global().Fork()
	if err != nil {
		return nil, err
	}
	segment, err := scope.Allocate(capacity, Alignment)
	if err != nil {
		scope.Close()
		return nil, err
	}
	return newarena(segment, "native")
}

// HeapArena create an arena of `capacity` bytes backed by a golang
// byte-array, under a fresh scope confined to the calling thread.
func HeapArena(capacity int64) (*Arena, error) {
	if err := arenacap(capacity); err != nil {
		return nil, err
	}
	scope, err := Global().Fork()
	if err != nil {
		return nil, err
	}
	segment, err := scope.AllocateHeap(capacity)
	if err != nil {
		scope.Close()
		return nil, err
	}
	return newarena(segment, "heap")
}

func arenacap(capacity int64) error {
	if capacity < Minarenasize || capacity > Maxarenasize {
		fmsg := "%w: capacity %v outside [%v, %v]"
		return fmt.Errorf(
			fmsg, ErrorInvalidArgument, capacity, Minarenasize, Maxarenasize)
	}
	return nil
}

func newarena(segment *Segment, backing string) (*Arena, error) {
	acquired, err := segment.Acquire()
	if err != nil {
		return nil, err
	}
	arena := &Arena{segment: segment, acquired: acquired, backing: backing}
	debugf("mem arena %v bytes (%v) created\n", segment.ByteSize(), backing)
	return arena, nil
}

// Allocate reserve a window of `size` bytes aligned to `alignment`
// and return its address. Fails with ErrorExhausted, leaving the
// cursor untouched, when the window does not fit in the remaining
// capacity. The returned address cannot be closed individually, only
// closing the arena releases it.
func (arena *Arena) Allocate(size, alignment int64) (Address, error) {
	if size < 0 || !lib.Ispower2(alignment) {
		fmsg := "%w: size %v alignment %v"
		return Address{}, fmt.Errorf(fmsg, ErrorInvalidArgument, size, alignment)
	}
	base := uint64(uintptr(arena.segment.base()))
	start := int64(lib.AlignUp(base+uint64(arena.sp), alignment) - base)
	if start > arena.segment.length-size {
		fmsg := "%w: %v of %v bytes used, cannot reserve %v more"
		return Address{}, fmt.Errorf(
			fmsg, ErrorExhausted, arena.sp, arena.segment.length, size)
	}
	window, err := arena.segment.Slice(start, size)
	if err != nil {
		return Address{}, err
	}
	arena.sp = start + size
	return window.BaseAddress(), nil
}

// Alloc implement api.Mallocer{} interface.
func (arena *Arena) Alloc(size, alignment int64) (api.Pointer, error) {
	addr, err := arena.Allocate(size, alignment)
	if err != nil {
		return nil, err
	}
	return addr, nil
}

// AllocateByte reserve a byte sized window and store value in it.
func (arena *Arena) AllocateByte(value byte) (Address, error) {
	addr, err := arena.Allocate(1, 1)
	if err != nil {
		return Address{}, err
	}
	return addr, addr.PutByte(value)
}

// AllocateUint16 reserve a 2 byte aligned window and store value in it.
func (arena *Arena) AllocateUint16(value uint16) (Address, error) {
	addr, err := arena.Allocate(2, 2)
	if err != nil {
		return Address{}, err
	}
	return addr, addr.PutUint16(value)
}

// AllocateUint32 reserve a 4 byte aligned window and store value in it.
func (arena *Arena) AllocateUint32(value uint32) (Address, error) {
	addr, err := arena.Allocate(4, 4)
	if err != nil {
		return Address{}, err
	}
	return addr, addr.PutUint32(value)
}

// AllocateUint64 reserve an 8 byte aligned window and store value in it.
func (arena *Arena) AllocateUint64(value uint64) (Address, error) {
	addr, err := arena.Allocate(8, 8)
	if err != nil {
		return Address{}, err
	}
	return addr, addr.PutUint64(value)
}

// AllocateFloat64 reserve an 8 byte aligned window and store value in it.
func (arena *Arena) AllocateFloat64(value float64) (Address, error) {
	addr, err := arena.Allocate(8, 8)
	if err != nil {
		return Address{}, err
	}
	return addr, addr.PutFloat64(value)
}

// Segment backing this arena.
func (arena *Arena) Segment() *Segment {
	return arena.segment
}

// Allocated implement api.Mallocer{} interface.
func (arena *Arena) Allocated() int64 {
	return arena.sp
}

// Available implement api.Mallocer{} interface.
func (arena *Arena) Available() int64 {
	return arena.segment.length - arena.sp
}

// Capacity of the arena's backing segment.
func (arena *Arena) Capacity() int64 {
	return arena.segment.length
}

// Close implement api.Mallocer{} interface. Releases the acquired
// reference, then closes the backing segment, invalidating every
// address this arena ever returned.
func (arena *Arena) Close() error {
	if err := arena.acquired.Close(); err != nil {
		return err
	}
	err := arena.segment.Close()
	debugf("mem arena %v bytes (%v) closed\n", arena.segment.length, arena.backing)
	return err
}

// Info return memory accounting for this arena.
func (arena *Arena) Info() map[string]interface{} {
	return map[string]interface{}{
		"capacity":  arena.Capacity(),
		"allocated": arena.Allocated(),
		"available": arena.Available(),
		"backing":   arena.backing,
	}
}

// Log memory accounting for this arena.
func (arena *Arena) Log() {
	capacity := humanize.Bytes(uint64(arena.Capacity()))
	allocated := humanize.Bytes(uint64(arena.Allocated()))
	fmsg := "mem arena (%v) capacity: %v allocated: %v\n"
	infof(fmsg, arena.backing, capacity, allocated)
}

var _ api.Mallocer = (*Arena)(nil)
