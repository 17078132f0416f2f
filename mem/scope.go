package mem

import "fmt"
import "sync/atomic"
import "unsafe"

import "github.com/petermattis/goid"

import "github.com/bnclabs/gomem/lib"

// Scope is a node in the ownership tree. It owns no memory directly
// but authorizes allocation and carries the lifetime, confinement and
// capability policy for every segment and address built on top of it.
// Scope values are cheap handles and can be copied freely; terminal
// operations act on the underlying node, not the handle.
type Scope struct {
	reg  *registry
	slot int32
	gen  uint32
}

var global Scope

func init() {
	chars := CharSerializable | CharExecutable | CharUnaligned |
		CharUnchecked | CharConfined | CharPinned
	global = Scope{reg: newregistry(chars), slot: 0, gen: 0}
}

// Global return the process wide root scope: permanently alive,
// shared and pinned. Every other scope descends from it.
func Global() Scope {
	return global
}

// ThreadID identity of the calling thread, to be exchanged with
// AsConfined when handing a scope to another thread.
func ThreadID() int64 {
	return goid.Get()
}

// Fork create a child scope confined to the calling thread (shared,
// if this scope grants no confinement). The child inherits this
// scope's characteristics except pinned and unchecked, which must be
// requested explicitly through ForkWith.
func (sc Scope) Fork() (Scope, error) {
	chars := sc.Characteristics() &^ (CharPinned | CharUnchecked)
	return sc.ForkWith(chars)
}

// ForkWith create a child scope with the given characteristics.
// Characteristics can only be narrowed relative to this scope, except
// immutable which may go either direction; requesting pinned always
// fails.
func (sc Scope) ForkWith(chars Characteristics) (Scope, error) {
	slot, gen, err := sc.reg.fork(sc.slot, sc.gen, chars, ThreadID())
	if err != nil {
		return Scope{}, err
	}
	return Scope{reg: sc.reg, slot: slot, gen: gen}, nil
}

// Close reclaim the subtree rooted at this scope: every descendant
// segment dies and every native region allocated under the subtree
// goes back to the OS. Fails on pinned scopes, on scopes confined to
// another thread, and while acquired references are outstanding.
func (sc Scope) Close() error {
	return sc.reg.close(sc.slot, sc.gen, ThreadID())
}

// Merge hand this scope's resources to its parent. The scope becomes
// terminal, but unlike Close its live segments stay accessible and are
// reclaimed when the parent eventually closes. Fails on the root
// scope, on pinned scopes, and when merging an immutable scope into a
// mutable parent.
func (sc Scope) Merge() error {
	return sc.reg.merge(sc.slot, sc.gen, ThreadID())
}

// AsShared publish this confined scope for use by any thread. The
// publication is fenced: writes made by the confining thread before
// the call are visible to every thread that accesses the scope after
// it. The receiver handle must not be used once the published scope
// is returned.
func (sc Scope) AsShared() (Scope, error) {
	if err := sc.reg.share(sc.slot, sc.gen, ThreadID()); err != nil {
		return Scope{}, err
	}
	return sc, nil
}

// AsConfined transfer this confined scope to the thread identified by
// `thread` (see ThreadID), with the same fence guarantee as AsShared.
// Fails with ErrorInvalidArgument when the target already owns the
// scope, and with ErrorInvalidState on shared scopes.
func (sc Scope) AsConfined(thread int64) (Scope, error) {
	err := sc.reg.transfer(sc.slot, sc.gen, ThreadID(), thread)
	if err != nil {
		return Scope{}, err
	}
	return sc, nil
}

// IsAlive true until Close completes, on this scope or any ancestor.
// A merged scope remains alive for access under its parent's
// lifetime.
func (sc Scope) IsAlive() bool {
	return atomic.LoadUint32(&sc.reg.record(sc.slot).gen) == sc.gen
}

// IsShared whether the scope is accessible from any thread.
func (sc Scope) IsShared() bool {
	return atomic.LoadInt64(&sc.reg.record(sc.slot).owner) == 0
}

// Owner thread id the scope is confined to, 0 when shared.
func (sc Scope) Owner() int64 {
	return atomic.LoadInt64(&sc.reg.record(sc.slot).owner)
}

// Characteristics carried by this scope.
func (sc Scope) Characteristics() Characteristics {
	return sc.reg.record(sc.slot).charbits()
}

// CheckValidState the ubiquitous precondition called before every
// operation: fails the instant this scope has closed or is being
// accessed from outside its confinement.
func (sc Scope) CheckValidState() error {
	return sc.reg.validstate(sc.reg.record(sc.slot), sc.gen)
}

// Allocate a native backed root segment of `size` bytes under this
// scope, its base aligned to `alignment`. The segment is reclaimed
// when this scope, or the scope it merges into, closes.
func (sc Scope) Allocate(size, alignment int64) (*Segment, error) {
	rec := sc.reg.record(sc.slot)
	if err := sc.reg.allocatable(rec, sc.gen); err != nil {
		return nil, err
	}
	if size < 0 || !lib.Ispower2(alignment) {
		fmsg := "%w: size %v alignment %v"
		return nil, fmt.Errorf(fmsg, ErrorInvalidArgument, size, alignment)
	}
	if size > Maxsegmentsize-alignment {
		fmsg := "%w: cannot address %v bytes"
		return nil, fmt.Errorf(fmsg, ErrorSystemLimit, size)
	}
	buf, err := sysalloc(size + alignment)
	if err != nil {
		return nil, err
	}
	if err := sc.reg.addregion(sc.slot, sc.gen, region{buf: buf, native: true}); err != nil {
		sysfree(buf)
		return nil, err
	}
	base := uint64(uintptr(unsafe.Pointer(unsafe.SliceData(buf))))
	min := int64(lib.AlignUp(base, alignment) - base)
	debugf("mem scope #%v allocated native segment of %v bytes\n", sc.slot, size)
	return &Segment{
		buf: buf, min: min, length: size,
		mask: sc.segmentmask(), scope: sc,
	}, nil
}

// AllocateHeap allocate a root segment of `size` bytes backed by a
// golang byte-array under this scope.
func (sc Scope) AllocateHeap(size int64) (*Segment, error) {
	rec := sc.reg.record(sc.slot)
	if err := sc.reg.allocatable(rec, sc.gen); err != nil {
		return nil, err
	}
	if size < 0 {
		return nil, fmt.Errorf("%w: size %v", ErrorInvalidArgument, size)
	}
	if size > Maxsegmentsize {
		fmsg := "%w: cannot address %v bytes"
		return nil, fmt.Errorf(fmsg, ErrorSystemLimit, size)
	}
	buf := make([]byte, size)
	if err := sc.reg.addregion(sc.slot, sc.gen, region{buf: buf}); err != nil {
		return nil, err
	}
	debugf("mem scope #%v allocated heap segment of %v bytes\n", sc.slot, size)
	return &Segment{
		buf: buf, min: 0, length: size,
		mask: sc.segmentmask(), scope: sc,
	}, nil
}

// segmentmask access mask for segments born under this scope.
func (sc Scope) segmentmask() uint32 {
	mask := uint32(0)
	rec := sc.reg.record(sc.slot)
	if rec.charbits().Has(CharImmutable) {
		mask |= maskReadonly
	}
	if atomic.LoadInt64(&rec.owner) == 0 {
		mask |= maskShared
	}
	return mask
}
