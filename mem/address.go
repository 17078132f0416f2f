package mem

import "fmt"

import "github.com/bnclabs/gomem/api"
import "github.com/bnclabs/gomem/lib"

// Address is a (segment, offset) pair used to perform a single
// validated access. Liveness, bounds and permissions are re-checked
// on every dereference, never cached: the backing scope can be closed
// by another party at any time. Scalar accessors use the machine's
// native byte order.
type Address struct {
	segment *Segment
	offset  int64
}

// Segment owning this address.
func (addr Address) Segment() *Segment {
	return addr.segment
}

// Offset implement api.Pointer{} interface.
func (addr Address) Offset() int64 {
	return addr.offset
}

// Addr derive an address `offset` bytes further into the same
// segment.
func (addr Address) Addr(offset int64) Address {
	return Address{segment: addr.segment, offset: addr.offset + offset}
}

// check validate a scalar access of `width` bytes. Unless the backing
// scope grants unaligned access, the effective machine address must
// be a multiple of the width.
func (addr Address) check(width int64, write bool) error {
	if err := addr.segment.checkRange(addr.offset, width, write); err != nil {
		return err
	}
	if width > 1 && !addr.segment.scope.Characteristics().Has(CharUnaligned) {
		p := uint64(uintptr(addr.segment.ptr(addr.offset)))
		if !lib.AlignedTo(p, width) {
			fmsg := "%w: unaligned %v byte access at offset %v"
			return fmt.Errorf(fmsg, ErrorInvalidArgument, width, addr.offset)
		}
	}
	return nil
}

func (addr Address) Byte() (byte, error) {
	if err := addr.check(1, false); err != nil {
		return 0, err
	}
	return *(*byte)(addr.segment.ptr(addr.offset)), nil
}

func (addr Address) PutByte(value byte) error {
	if err := addr.check(1, true); err != nil {
		return err
	}
	*(*byte)(addr.segment.ptr(addr.offset)) = value
	return nil
}

func (addr Address) Uint16() (uint16, error) {
	if err := addr.check(2, false); err != nil {
		return 0, err
	}
	return *(*uint16)(addr.segment.ptr(addr.offset)), nil
}

func (addr Address) PutUint16(value uint16) error {
	if err := addr.check(2, true); err != nil {
		return err
	}
	*(*uint16)(addr.segment.ptr(addr.offset)) = value
	return nil
}

func (addr Address) Uint32() (uint32, error) {
	if err := addr.check(4, false); err != nil {
		return 0, err
	}
	return *(*uint32)(addr.segment.ptr(addr.offset)), nil
}

func (addr Address) PutUint32(value uint32) error {
	if err := addr.check(4, true); err != nil {
		return err
	}
	*(*uint32)(addr.segment.ptr(addr.offset)) = value
	return nil
}

func (addr Address) Uint64() (uint64, error) {
	if err := addr.check(8, false); err != nil {
		return 0, err
	}
	return *(*uint64)(addr.segment.ptr(addr.offset)), nil
}

func (addr Address) PutUint64(value uint64) error {
	if err := addr.check(8, true); err != nil {
		return err
	}
	*(*uint64)(addr.segment.ptr(addr.offset)) = value
	return nil
}

func (addr Address) Float64() (float64, error) {
	if err := addr.check(8, false); err != nil {
		return 0, err
	}
	return *(*float64)(addr.segment.ptr(addr.offset)), nil
}

func (addr Address) PutFloat64(value float64) error {
	if err := addr.check(8, true); err != nil {
		return err
	}
	*(*float64)(addr.segment.ptr(addr.offset)) = value
	return nil
}

// CopyTo implement api.Pointer{} interface. Copy len(dst) bytes
// starting at this address into dst.
func (addr Address) CopyTo(dst []byte) error {
	length := int64(len(dst))
	if err := addr.segment.checkRange(addr.offset, length, false); err != nil {
		return err
	}
	copy(dst, addr.segment.window(addr.offset, length))
	return nil
}

// CopyFrom implement api.Pointer{} interface. Copy src into memory
// starting at this address.
func (addr Address) CopyFrom(src []byte) error {
	length := int64(len(src))
	if err := addr.segment.checkRange(addr.offset, length, true); err != nil {
		return err
	}
	copy(addr.segment.window(addr.offset, length), src)
	return nil
}

var _ api.Pointer = Address{}
