package mem

import "fmt"
import "sync"
import "sync/atomic"

// Scope records live in a registry, indexed by slot. A Scope handle
// pairs a slot with the record generation observed when the handle was
// created; the handle is alive exactly while the record still carries
// that generation. Closing a scope bumps the generation of every
// record in its subtree, which kills all derived handles without back
// pointers and without reference cycles.
//
// Structural mutations (fork, close, merge, publication, region
// book-keeping) serialize on the registry mutex. The per-access
// liveness check stays lock-free: one atomic generation load plus one
// owner comparison.

const (
	scopeAlive uint32 = iota
	scopeMerged
	scopeClosed
)

// region is a root allocation owned by a scope record. Native regions
// go back to the OS on reclaim, heap regions are simply dropped for
// the collector.
type region struct {
	buf    []byte
	native bool
}

type scoperecord struct {
	gen      uint32 // atomic, bumped when the record dies
	state    uint32 // atomic, scopeAlive, scopeMerged or scopeClosed
	chars    uint32 // atomic, Characteristics bits
	owner    int64  // atomic, owning thread id, 0 when shared
	acquires int64  // atomic, outstanding acquired references

	// guarded by the registry mutex
	parent   int32
	children []int32
	regions  []region
}

func (rec *scoperecord) charbits() Characteristics {
	return Characteristics(atomic.LoadUint32(&rec.chars))
}

type registry struct {
	mu      sync.Mutex
	records atomic.Pointer[[]*scoperecord]
	free    []int32 // recycled slots
}

// newregistry create a registry whose slot 0 is a root scope with the
// given characteristics: permanently shared, generation 0.
func newregistry(chars Characteristics) *registry {
	reg := &registry{}
	root := &scoperecord{
		state:  scopeAlive,
		chars:  uint32(chars),
		parent: -1,
	}
	records := []*scoperecord{root}
	reg.records.Store(&records)
	return reg
}

func (reg *registry) record(slot int32) *scoperecord {
	return (*reg.records.Load())[slot]
}

// validstate is the per-access liveness check. Records flagged
// unchecked skip it wholesale.
func (reg *registry) validstate(rec *scoperecord, gen uint32) error {
	if rec.charbits().Has(CharUnchecked) {
		return nil
	}
	if atomic.LoadUint32(&rec.gen) != gen {
		return fmt.Errorf("%w: scope is closed", ErrorInvalidState)
	}
	if owner := atomic.LoadInt64(&rec.owner); owner != 0 && owner != ThreadID() {
		fmsg := "%w: scope is confined to thread %v"
		return fmt.Errorf(fmsg, ErrorInvalidState, owner)
	}
	return nil
}

// allocatable rejects terminal records besides dead ones: merged and
// closed scopes can issue no further allocations or forks. Unlike the
// per-access validstate, structural operations are checked even for
// unchecked scopes.
func (reg *registry) allocatable(rec *scoperecord, gen uint32) error {
	if atomic.LoadUint32(&rec.gen) != gen {
		return fmt.Errorf("%w: scope is closed", ErrorInvalidState)
	}
	if atomic.LoadUint32(&rec.state) != scopeAlive {
		return fmt.Errorf("%w: scope is terminal", ErrorInvalidState)
	}
	if owner := atomic.LoadInt64(&rec.owner); owner != 0 && owner != ThreadID() {
		fmsg := "%w: scope is confined to thread %v"
		return fmt.Errorf(fmsg, ErrorInvalidState, owner)
	}
	return nil
}

// newslot reuse a recycled record or grow the record arena. Caller
// holds the mutex.
func (reg *registry) newslot() (int32, *scoperecord) {
	if n := len(reg.free); n > 0 {
		slot := reg.free[n-1]
		reg.free = reg.free[:n-1]
		return slot, reg.record(slot)
	}
	records := *reg.records.Load()
	slot := int32(len(records))
	rec := &scoperecord{}
	grown := make([]*scoperecord, len(records)+1)
	copy(grown, records)
	grown[slot] = rec
	reg.records.Store(&grown)
	return slot, rec
}

func (reg *registry) fork(
	slot int32, gen uint32,
	chars Characteristics, tid int64) (int32, uint32, error) {

	reg.mu.Lock()
	defer reg.mu.Unlock()

	rec := reg.record(slot)
	if err := reg.allocatable(rec, gen); err != nil {
		return -1, 0, err
	}
	if err := narrowck(rec.charbits(), chars); err != nil {
		return -1, 0, err
	}
	owner := int64(0)
	if chars.Has(CharConfined) {
		owner = tid
	}
	childslot, child := reg.newslot()
	atomic.StoreUint32(&child.state, scopeAlive)
	atomic.StoreUint32(&child.chars, uint32(chars))
	atomic.StoreInt64(&child.owner, owner)
	atomic.StoreInt64(&child.acquires, 0)
	child.parent = slot
	child.children, child.regions = nil, nil
	rec.children = append(rec.children, childslot)
	return childslot, atomic.LoadUint32(&child.gen), nil
}

func (reg *registry) close(slot int32, gen uint32, tid int64) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	rec := reg.record(slot)
	if atomic.LoadUint32(&rec.gen) != gen {
		return fmt.Errorf("%w: scope already closed", ErrorInvalidState)
	}
	if atomic.LoadUint32(&rec.state) != scopeAlive {
		return fmt.Errorf("%w: scope is terminal", ErrorInvalidState)
	}
	if rec.charbits().Has(CharPinned) {
		return fmt.Errorf("%w: cannot close pinned scope", ErrorUnsupported)
	}
	if owner := atomic.LoadInt64(&rec.owner); owner != 0 && owner != tid {
		fmsg := "%w: scope is confined to thread %v"
		return fmt.Errorf(fmsg, ErrorInvalidState, owner)
	}
	if n := reg.subtreeacquires(slot); n > 0 {
		fmsg := "%w: %v acquired references outstanding"
		return fmt.Errorf(fmsg, ErrorInvalidState, n)
	}
	if parent := rec.parent; parent >= 0 {
		prec := reg.record(parent)
		for i, child := range prec.children {
			if child == slot {
				n := len(prec.children)
				prec.children[i] = prec.children[n-1]
				prec.children = prec.children[:n-1]
				break
			}
		}
	}
	nregions := reg.reclaim(slot)
	debugf("mem registry closed scope #%v, %v regions reclaimed\n", slot, nregions)
	return nil
}

// reclaim kill the subtree rooted at slot: bump every generation and
// return native regions to the OS. Caller holds the mutex.
func (reg *registry) reclaim(slot int32) (nregions int) {
	rec := reg.record(slot)
	for _, child := range rec.children {
		nregions += reg.reclaim(child)
	}
	for _, rg := range rec.regions {
		if rg.native {
			sysfree(rg.buf)
		}
		nregions++
	}
	rec.children, rec.regions = nil, nil
	atomic.StoreUint32(&rec.state, scopeClosed)
	atomic.AddUint32(&rec.gen, 1)
	reg.free = append(reg.free, slot)
	return
}

func (reg *registry) merge(slot int32, gen uint32, tid int64) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	rec := reg.record(slot)
	if err := reg.allocatable(rec, gen); err != nil {
		return err
	}
	if owner := atomic.LoadInt64(&rec.owner); owner != 0 && owner != tid {
		fmsg := "%w: scope is confined to thread %v"
		return fmt.Errorf(fmsg, ErrorInvalidState, owner)
	}
	if rec.charbits().Has(CharPinned) {
		return fmt.Errorf("%w: cannot merge pinned scope", ErrorUnsupported)
	}
	if rec.parent < 0 {
		return fmt.Errorf("%w: scope has no parent", ErrorInvalidState)
	}
	prec := reg.record(rec.parent)
	if rec.charbits().Has(CharImmutable) && !prec.charbits().Has(CharImmutable) {
		fmsg := "%w: cannot merge immutable scope into mutable parent"
		return fmt.Errorf(fmsg, ErrorInvalidState)
	}
	// The record stays in the parent's child list with its resources;
	// the parent's eventual close reclaims them.
	atomic.StoreUint32(&rec.state, scopeMerged)
	debugf("mem registry merged scope #%v into #%v\n", slot, rec.parent)
	return nil
}

// share publish a confined scope: owner goes to 0 with a sequentially
// consistent store, which orders every prior write by the confining
// thread before any access that observes the published state.
func (reg *registry) share(slot int32, gen uint32, tid int64) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	rec := reg.record(slot)
	if atomic.LoadUint32(&rec.gen) != gen {
		return fmt.Errorf("%w: scope is closed", ErrorInvalidState)
	}
	owner := atomic.LoadInt64(&rec.owner)
	if owner == 0 {
		return fmt.Errorf("%w: scope already shared", ErrorInvalidState)
	}
	if owner != tid {
		fmsg := "%w: scope is confined to thread %v"
		return fmt.Errorf(fmsg, ErrorInvalidState, owner)
	}
	atomic.StoreInt64(&rec.owner, 0)
	return nil
}

// transfer move a confined scope to a different owner thread, with
// the same fence semantics as share.
func (reg *registry) transfer(slot int32, gen uint32, tid, newowner int64) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	rec := reg.record(slot)
	if atomic.LoadUint32(&rec.gen) != gen {
		return fmt.Errorf("%w: scope is closed", ErrorInvalidState)
	}
	owner := atomic.LoadInt64(&rec.owner)
	if owner == 0 {
		return fmt.Errorf("%w: cannot confine shared scope", ErrorInvalidState)
	}
	if newowner <= 0 {
		fmsg := "%w: invalid thread id %v"
		return fmt.Errorf(fmsg, ErrorInvalidArgument, newowner)
	}
	if newowner == owner {
		fmsg := "%w: scope already owned by thread %v"
		return fmt.Errorf(fmsg, ErrorInvalidArgument, newowner)
	}
	if owner != tid {
		fmsg := "%w: scope is confined to thread %v"
		return fmt.Errorf(fmsg, ErrorInvalidState, owner)
	}
	atomic.StoreInt64(&rec.owner, newowner)
	return nil
}

func (reg *registry) addregion(slot int32, gen uint32, rg region) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	rec := reg.record(slot)
	if err := reg.allocatable(rec, gen); err != nil {
		return err
	}
	rec.regions = append(rec.regions, rg)
	return nil
}

// acquire take a reference that blocks close. Serializes on the mutex
// against close, so a reference granted here is counted by every later
// subtreeacquires scan. The generation is checked even for unchecked
// scopes, a reference on a recycled slot must never be granted.
func (reg *registry) acquire(slot int32, gen uint32) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	rec := reg.record(slot)
	if atomic.LoadUint32(&rec.gen) != gen {
		return fmt.Errorf("%w: scope is closed", ErrorInvalidState)
	}
	if rec.charbits().Has(CharUnchecked) == false {
		if owner := atomic.LoadInt64(&rec.owner); owner != 0 && owner != ThreadID() {
			fmsg := "%w: scope is confined to thread %v"
			return fmt.Errorf(fmsg, ErrorInvalidState, owner)
		}
	}
	atomic.AddInt64(&rec.acquires, 1)
	return nil
}

// release give an acquired reference back. A release carrying a stale
// generation quietly drops, the slot has been recycled and its count
// belongs to someone else.
func (reg *registry) release(slot int32, gen uint32) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	rec := reg.record(slot)
	if atomic.LoadUint32(&rec.gen) != gen {
		return
	}
	atomic.AddInt64(&rec.acquires, -1)
}

// subtreeacquires caller holds the mutex.
func (reg *registry) subtreeacquires(slot int32) (n int64) {
	rec := reg.record(slot)
	n = atomic.LoadInt64(&rec.acquires)
	for _, child := range rec.children {
		n += reg.subtreeacquires(child)
	}
	return
}
