// Package watch provides the debouncing layer between a filesystem watcher
// and the incremental updater. Raw change notifications arrive one path at a
// time; the Debouncer coalesces them over a quiet period and delivers a
// single deduplicated Batch, so a burst of editor saves triggers one reparse
// instead of many.
//
// The package is deliberately free of OS watcher plumbing; callers feed it
// events from whatever notification source they have.
package watch
