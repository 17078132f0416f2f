package mem

import "fmt"
import "strings"

// Characteristics is a bitmask of independent capabilities carried by
// a scope and inherited, under the narrowing rules of Fork, by every
// scope and segment descending from it.
type Characteristics uint32

const (
	// CharSerializable addresses generated by the scope can be
	// serialized into memory. If unset, cannot be set during fork.
	CharSerializable Characteristics = 1 << iota

	// CharExecutable addresses generated by the scope can point to
	// executable code. If unset, cannot be set during fork.
	CharExecutable

	// CharUnaligned accesses through the scope's segments need not be
	// aligned to the access width. If unset, cannot be set during fork.
	CharUnaligned

	// CharImmutable segments allocated under the scope are born
	// read-only. Can be set or unset during fork, in either direction.
	CharImmutable

	// CharPinned the scope rejects terminal operations. Only ever set
	// on the global scope, never via fork.
	CharPinned

	// CharUnchecked the scope skips per-access liveness checks,
	// trading safety for performance. If unset, cannot be set during
	// fork.
	CharUnchecked

	// CharConfined scopes forked with this bit are confined to the
	// forking thread. If unset, cannot be set during fork.
	CharConfined
)

// bits that may only be dropped, never gained, across a fork.
const charNarrowonly = CharSerializable | CharExecutable | CharUnaligned |
	CharUnchecked | CharConfined

// Has check whether all bits in c are present.
func (chars Characteristics) Has(c Characteristics) bool {
	return (chars & c) == c
}

func (chars Characteristics) String() string {
	names := []string{}
	for _, x := range []struct {
		bit  Characteristics
		name string
	}{
		{CharSerializable, "serializable"},
		{CharExecutable, "executable"},
		{CharUnaligned, "unaligned"},
		{CharImmutable, "immutable"},
		{CharPinned, "pinned"},
		{CharUnchecked, "unchecked"},
		{CharConfined, "confined"},
	} {
		if chars.Has(x.bit) {
			names = append(names, x.name)
		}
	}
	return strings.Join(names, "|")
}

// narrowck validate requested child characteristics against the
// parent's, per the fork narrowing table.
func narrowck(parent, child Characteristics) error {
	if child.Has(CharPinned) {
		fmsg := "%w: pinned is settable only on the global scope"
		return fmt.Errorf(fmsg, ErrorInvalidArgument)
	}
	if widened := (child &^ parent) & charNarrowonly; widened != 0 {
		fmsg := "%w: fork cannot widen {%v}"
		return fmt.Errorf(fmsg, ErrorInvalidArgument, widened)
	}
	return nil
}
