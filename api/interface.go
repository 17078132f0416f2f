// Package api define types and interfaces common to all allocators
// implemented by this package.
package api

import "io"

// Pointer is a location within an allocated memory region. Every
// operation on a pointer re-validates the liveness, bounds and
// permissions of its backing region; pointers must never be retained
// past the lifetime of the scope that produced them.
type Pointer interface {
	// Offset of this pointer within its segment.
	Offset() int64

	// CopyTo copy bytes at this pointer into dst, length is len(dst).
	CopyTo(dst []byte) error

	// CopyFrom copy src into memory starting at this pointer.
	CopyFrom(src []byte) error
}

// Mallocer interface for scope based memory management.
type Mallocer interface {
	// Alloc allocate a window of `size` bytes aligned to `alignment`,
	// alignment should be a power of 2. Allocated windows cannot be
	// freed individually, only Close() reclaims them, in bulk.
	Alloc(size, alignment int64) (Pointer, error)

	// Allocated return number of bytes reserved so far.
	Allocated() int64

	// Available return number of bytes remaining with the allocator.
	Available() int64

	// Close the allocator and release its backing memory, invalidating
	// every pointer it ever returned.
	Close() error
}

// Region is a linear byte-addressable view over allocated memory, for
// interoperating with copy based APIs. Reads and writes are checked
// against the liveness and permissions of the backing scope.
type Region interface {
	io.ReaderAt
	io.WriterAt

	// ByteSize of the region.
	ByteSize() int64

	// IsAlive return false once the backing scope has closed.
	IsAlive() bool

	// Close the region's backing segment.
	Close() error
}
