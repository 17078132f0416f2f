// Package gomem implement deterministic, scope based memory management
// and necessary tools and libraries.
//
// api:
//
// Interface specification to access gomem allocators and byte
// addressable views.
//
// lib:
//
// Convinience functions that can be used by other packages. Package shall
// not import packages other than golang's standard packages.
//
// mem:
//
// The core of gomem. Scopes form a tree of lifetime nodes that
// authorize allocation, segments are bounds and permission checked
// windows over allocated regions, addresses perform validated reads
// and writes, and arenas serve bump-pointer allocations that are
// reclaimed in bulk when the arena closes.
//
// slab:
//
// Fixed size chunk pools layered on mem segments, for workloads that
// need to free and reuse individual chunks while still getting bulk
// reclamation from the backing scope.
//
// tools:
//
// Command line tools to exercise and measure gomem allocators.
package gomem
