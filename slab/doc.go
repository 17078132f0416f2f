// Package slab supplies fixed size chunk pools layered on mem
// segments, for workloads whose memory behaviour is known apriori:
//
//   - Every chunk in a pool has the same size, allocation and free
//     are bitmap operations.
//   - Chunks can be freed and reused individually, which the
//     bump-pointer arena deliberately does not allow.
//   - The pool holds an acquired reference on its segment, so the
//     backing scope cannot close while the pool is open; closing the
//     pool reclaims every chunk in bulk.
package slab
