package mem

import "fmt"
import "unsafe"

// Segment access-mask bits, inherited by every slice of a segment.
const (
	maskReadonly uint32 = 1 << iota
	maskPinned
	maskShared
)

// Segment is a bounds and permission checked window over a memory
// region, backed by exactly one scope. Segments are never mutated;
// capability narrowing returns a new handle and the old handle keeps
// its permissions until the backing scope dies, so callers intending
// a restriction to be effective must discard the old handle.
type Segment struct {
	buf      []byte // whole backing region
	min      int64  // window start within buf
	length   int64  // window size in bytes
	mask     uint32
	scope    Scope
	acquired bool // handle holds an acquired reference on the scope
	released bool // acquired reference has been given back
}

// Slice return a segment over [offset, offset+length) of this one,
// carrying forward the access mask and backing scope.
func (seg *Segment) Slice(offset, length int64) (*Segment, error) {
	if err := seg.scope.CheckValidState(); err != nil {
		return nil, err
	}
	if seg.outofbounds(offset, length) {
		fmsg := "%w: slice [%v,+%v) outside segment of %v bytes"
		return nil, fmt.Errorf(fmsg, ErrorInvalidArgument, offset, length, seg.length)
	}
	return &Segment{
		buf: seg.buf, min: seg.min + offset, length: length,
		mask: seg.mask, scope: seg.scope,
	}, nil
}

// AsReadOnly return a read-only view of this segment. Irreversible on
// the returned handle and all its slices.
func (seg *Segment) AsReadOnly() (*Segment, error) {
	if err := seg.scope.CheckValidState(); err != nil {
		return nil, err
	}
	return seg.withmask(seg.mask | maskReadonly), nil
}

// AsPinned return a view of this segment that can never be closed.
func (seg *Segment) AsPinned() (*Segment, error) {
	if err := seg.scope.CheckValidState(); err != nil {
		return nil, err
	}
	return seg.withmask(seg.mask | maskPinned), nil
}

// AsShared publish this segment's confined scope and return a view
// usable from any thread; see Scope.AsShared for the fence guarantee.
// The returned view is additionally pinned, so no single thread can
// close the scope out from under the others.
func (seg *Segment) AsShared() (*Segment, error) {
	if err := seg.scope.CheckValidState(); err != nil {
		return nil, err
	}
	if _, err := seg.scope.AsShared(); err != nil {
		return nil, err
	}
	return seg.withmask(seg.mask | maskShared | maskPinned), nil
}

// AsConfined transfer this segment's confined scope to another thread
// and return the view for it; see Scope.AsConfined.
func (seg *Segment) AsConfined(thread int64) (*Segment, error) {
	if err := seg.scope.CheckValidState(); err != nil {
		return nil, err
	}
	if _, err := seg.scope.AsConfined(thread); err != nil {
		return nil, err
	}
	return seg.withmask(seg.mask), nil
}

// Acquire return a view that holds the backing scope open: the scope
// cannot close until every acquired view has been closed. Closing an
// acquired view only gives the reference back, it never closes the
// scope.
func (seg *Segment) Acquire() (*Segment, error) {
	if err := seg.scope.CheckValidState(); err != nil {
		return nil, err
	}
	if err := seg.scope.reg.acquire(seg.scope.slot, seg.scope.gen); err != nil {
		return nil, err
	}
	view := seg.withmask(seg.mask)
	view.acquired = true
	return view, nil
}

// Close this segment by closing its backing scope, which invalidates
// every segment and address sharing that scope. Pinned segments
// cannot be closed. On acquired views Close only releases the held
// reference.
func (seg *Segment) Close() error {
	if seg.acquired {
		if seg.released {
			fmsg := "%w: acquired reference already released"
			return fmt.Errorf(fmsg, ErrorInvalidState)
		}
		seg.released = true
		seg.scope.reg.release(seg.scope.slot, seg.scope.gen)
		return nil
	}
	if err := seg.scope.CheckValidState(); err != nil {
		return err
	}
	if seg.IsPinned() {
		return fmt.Errorf("%w: cannot close pinned segment", ErrorUnsupported)
	}
	return seg.scope.Close()
}

// BaseAddress address of the first byte of this segment.
func (seg *Segment) BaseAddress() Address {
	return Address{segment: seg, offset: 0}
}

// ByteSize of this segment window.
func (seg *Segment) ByteSize() int64 {
	return seg.length
}

// Start offset of this segment within its backing region.
func (seg *Segment) Start() int64 {
	return seg.min
}

// Scope backing this segment.
func (seg *Segment) Scope() Scope {
	return seg.scope
}

func (seg *Segment) IsAlive() bool {
	return seg.scope.IsAlive()
}

func (seg *Segment) IsReadOnly() bool {
	return seg.mask&maskReadonly != 0
}

func (seg *Segment) IsPinned() bool {
	return seg.mask&maskPinned != 0
}

func (seg *Segment) IsShared() bool {
	return seg.mask&maskShared != 0
}

// checkRange is the universal precondition for every read and write:
// scope liveness first, then write permission, then bounds. The
// verdict is never cached, the backing scope can be closed by another
// party between any two accesses.
func (seg *Segment) checkRange(offset, length int64, write bool) error {
	if err := seg.scope.CheckValidState(); err != nil {
		return err
	}
	if write && seg.IsReadOnly() {
		fmsg := "%w: cannot write to read-only segment"
		return fmt.Errorf(fmsg, ErrorUnsupported)
	}
	if seg.outofbounds(offset, length) {
		fmsg := "%w: access [%v,+%v) outside segment of %v bytes"
		return fmt.Errorf(fmsg, ErrorInvalidArgument, offset, length, seg.length)
	}
	return nil
}

// careful of overflow.
func (seg *Segment) outofbounds(offset, length int64) bool {
	return length < 0 || offset < 0 || offset > seg.length-length
}

func (seg *Segment) withmask(mask uint32) *Segment {
	return &Segment{
		buf: seg.buf, min: seg.min, length: seg.length,
		mask: mask, scope: seg.scope,
	}
}

// window resolve [offset, offset+length) to backing bytes; bounds
// must have been checked.
func (seg *Segment) window(offset, length int64) []byte {
	return seg.buf[seg.min+offset : seg.min+offset+length]
}

// ptr to a checked offset; bounds must have been checked with a width
// of at least one byte.
func (seg *Segment) ptr(offset int64) unsafe.Pointer {
	return unsafe.Pointer(&seg.buf[seg.min+offset])
}

// base machine address of the segment window's first byte, nil for an
// empty window at the end of its region.
func (seg *Segment) base() unsafe.Pointer {
	if seg.min == int64(len(seg.buf)) {
		return nil
	}
	return unsafe.Pointer(&seg.buf[seg.min])
}
