// Functions and methods are not thread safe.

package slab

import "fmt"

import humanize "github.com/dustin/go-humanize"

import "github.com/bnclabs/gomem/lib"
import "github.com/bnclabs/gomem/mem"

// Pool manages a segment sliced into equal sized chunks, with free
// chunks tracked in a bitmap. Unlike the bump-pointer arena, chunks
// can be freed and reused individually; bulk reclamation still flows
// from the backing scope, one Close invalidates every chunk.
type Pool struct {
	segment  *mem.Segment
	acquired *mem.Segment
	size     int64      // fixed size of chunks in this pool
	nchunks  int64      // number of chunks in the segment
	bitmap   []lib.Bit8 // set bit = free chunk
	// statistics
	mallocated int64
}

func newpool(segment *mem.Segment, size, nchunks int64) (*Pool, error) {
	acquired, err := segment.Acquire()
	if err != nil {
		return nil, err
	}
	pool := &Pool{
		segment: segment, acquired: acquired,
		size: size, nchunks: nchunks,
		bitmap: make([]lib.Bit8, ceil(nchunks, 8)),
	}
	for nth := int64(0); nth < nchunks; nth++ {
		pool.bitmap[nth>>3] = pool.bitmap[nth>>3].Setbit(uint8(nth & 0x7))
	}
	return pool, nil
}

// Alloc a chunk from pool, as a segment of exactly Chunksize() bytes.
func (pool *Pool) Alloc() (*mem.Segment, error) {
	for i, byt := range pool.bitmap {
		if byt == 0 {
			continue
		}
		n := byt.Findfirstset()
		nth := (int64(i) << 3) + int64(n)
		chunk, err := pool.segment.Slice(nth*pool.size, pool.size)
		if err != nil {
			return nil, err
		}
		pool.bitmap[i] = byt.Clearbit(uint8(n))
		pool.mallocated += pool.size
		return chunk, nil
	}
	fmsg := "%w: all %v chunks allocated"
	return nil, fmt.Errorf(fmsg, mem.ErrorExhausted, pool.nchunks)
}

// Free chunk back to pool.
func (pool *Pool) Free(chunk *mem.Segment) error {
	if chunk == nil {
		panic("slab.Free(): nil chunk")
	}
	off := chunk.Start() - pool.segment.Start()
	wrong := chunk.Scope() != pool.segment.Scope() ||
		chunk.ByteSize() != pool.size ||
		off < 0 || off >= pool.Capacity() || (off%pool.size) != 0
	if wrong {
		fmsg := "%w: chunk [%v,+%v) not carved from this pool"
		return fmt.Errorf(fmsg, mem.ErrorInvalidArgument, off, chunk.ByteSize())
	}
	nth := off / pool.size
	q, r := nth>>3, uint8(nth&0x7)
	if (pool.bitmap[q] & (1 << r)) != 0 {
		fmsg := "%w: chunk %v already free"
		return fmt.Errorf(fmsg, mem.ErrorInvalidState, nth)
	}
	pool.bitmap[q] = pool.bitmap[q].Setbit(r)
	pool.mallocated -= pool.size
	return nil
}

// Chunksize managed by this pool.
func (pool *Pool) Chunksize() int64 {
	return pool.size
}

// Capacity of the pool's backing segment.
func (pool *Pool) Capacity() int64 {
	return pool.size * pool.nchunks
}

// Allocated return memory handed out as chunks.
func (pool *Pool) Allocated() int64 {
	return pool.mallocated
}

// Available return memory remaining with the pool.
func (pool *Pool) Available() int64 {
	return pool.Capacity() - pool.mallocated
}

// Close release the pool and its backing segment, invalidating every
// chunk it ever handed out.
func (pool *Pool) Close() error {
	if err := pool.acquired.Close(); err != nil {
		return err
	}
	err := pool.segment.Close()
	pool.bitmap, pool.mallocated = nil, 0
	return err
}

// Info return memory accounting for this pool.
func (pool *Pool) Info() map[string]interface{} {
	return map[string]interface{}{
		"chunksize": pool.size,
		"nchunks":   pool.nchunks,
		"capacity":  pool.Capacity(),
		"allocated": pool.Allocated(),
		"available": pool.Available(),
	}
}

// Log memory accounting for this pool.
func (pool *Pool) Log() {
	capacity := humanize.Bytes(uint64(pool.Capacity()))
	allocated := humanize.Bytes(uint64(pool.Allocated()))
	fmsg := "slab pool (%v x %v) capacity: %v allocated: %v\n"
	infof(fmsg, pool.nchunks, pool.size, capacity, allocated)
}

func ceil(divident, divisor int64) int64 {
	if divident%divisor == 0 {
		return divident / divisor
	}
	return (divident / divisor) + 1
}
