package lib

// Ispower2 check whether n is a power of 2.
func Ispower2(n int64) bool {
	return n > 0 && (n&(n-1)) == 0
}

// AlignUp round up value to the next multiple of align, `align`
// should be a power of 2.
func AlignUp(value uint64, align int64) uint64 {
	mask := uint64(align - 1)
	return (value + mask) &^ mask
}

// AlignedTo check whether value is a multiple of align, `align`
// should be a power of 2.
func AlignedTo(value uint64, align int64) bool {
	return value&uint64(align-1) == 0
}
