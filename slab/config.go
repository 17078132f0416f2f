package slab

import "fmt"

import s "github.com/bnclabs/gosettings"

import "github.com/bnclabs/gomem/lib"
import "github.com/bnclabs/gomem/mem"

// Pool configurable parameters and default settings.
//
// "chunksize" (int64, default: 64)
//		Fixed size of every chunk in the pool, should be a power of 2
//		and at least mem.Alignment bytes.
//
// "nchunks" (int64, default: 1024)
//		Number of chunks in the pool.
//
// "backing" (string, default: "native")
//		Where the pool's segment comes from, can be "native" or
//		"heap".
//
func Defaultsettings() s.Settings {
	return s.Settings{
		"chunksize": int64(64),
		"nchunks":   int64(1024),
		"backing":   "native",
	}
}

// NewPool create a chunk pool from settings, over a fresh scope
// confined to the calling thread; refer Defaultsettings() for the
// list of parameters.
func NewPool(setts s.Settings) (*Pool, error) {
	size, nchunks := setts.Int64("chunksize"), setts.Int64("nchunks")
	if size < mem.Alignment || !lib.Ispower2(size) {
		fmsg := "%w: chunksize %v should be a power of 2, at least %v"
		return nil, fmt.Errorf(fmsg, mem.ErrorInvalidArgument, size, mem.Alignment)
	}
	if nchunks <= 0 {
		fmsg := "%w: nchunks %v"
		return nil, fmt.Errorf(fmsg, mem.ErrorInvalidArgument, nchunks)
	}
	scope, err := mem.Global().Fork()
	if err != nil {
		return nil, err
	}
	capacity := size * nchunks
	var segment *mem.Segment
	switch backing := setts.String("backing"); backing {
	case "native":
		segment, err = scope.Allocate(capacity, size)
	case "heap":
		segment, err = scope.AllocateHeap(capacity)
	default:
		fmsg := "%w: unknown backing %q"
		return nil, fmt.Errorf(fmsg, mem.ErrorInvalidArgument, backing)
	}
	if err != nil {
		scope.Close()
		return nil, err
	}
	return newpool(segment, size, nchunks)
}
