// Package cache provides the parse cache: parse results keyed by file
// identity (absolute path, modification time, byte size) so an unchanged
// file is never re-parsed. Entries also age out after a configurable TTL to
// bound staleness in long-lived processes, and the whole store is
// capacity-bounded by an LRU policy.
//
// The cache is a constructor-injected dependency of the indexing session,
// never a process-wide singleton; tests and concurrent sessions each get
// an isolated instance.
package cache
