package mem

import "errors"

// ErrorInvalidArgument bad slice bounds, non power of 2 alignment,
// negative size and similar malformed requests.
var ErrorInvalidArgument = errors.New("mem.invalidargument")

// ErrorInvalidState operating on a closed or merged scope, publishing
// an already shared scope, or accessing a confined scope from the
// wrong thread.
var ErrorInvalidState = errors.New("mem.invalidstate")

// ErrorUnsupported closing a pinned scope or segment, writing through
// a read-only segment, or bridging an over-large segment to a linear
// view.
var ErrorUnsupported = errors.New("mem.unsupported")

// ErrorExhausted arena allocation request that exceeds the remaining
// capacity of its backing segment.
var ErrorExhausted = errors.New("mem.exhausted")

// ErrorOutofMemory the system refused a native allocation request.
var ErrorOutofMemory = errors.New("mem.outofmemory")

// ErrorSystemLimit requested size exceeds what the running system can
// address.
var ErrorSystemLimit = errors.New("mem.systemlimit")
