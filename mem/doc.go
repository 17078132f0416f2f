// Package mem supplies deterministic, safety checked management of
// off-heap and heap backed memory, with a limited scope:
//
//   - There is no garbage collection and no pointer re-write; memory
//     is reclaimed the instant its scope closes, in bulk.
//   - A scope confined to one thread fails fast when touched from any
//     other thread; a scope can be published for cross-thread use
//     exactly once, through a fenced transition.
//   - Every access through a segment or address re-validates liveness,
//     bounds and permissions; nothing is cached between accesses.
//   - Beyond fence ordered publication, synchronization among threads
//     writing to a shared segment is the application's problem.
//
// Scopes form a tree rooted at the process wide global scope. Forking
// narrows capabilities, closing reclaims a whole subtree, and merging
// hands a child's resources to its parent. Segments are windows over
// regions allocated under a scope, sliced and narrowed without
// copying. Arenas serve bump-pointer allocations from one segment,
// traded against per-allocation release: the only way to free an
// arena allocation is to close the arena.
package mem
