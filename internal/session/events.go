package session

import (
	"github.com/vk/tfindex/internal/block"
	"github.com/vk/tfindex/internal/index"
)

// EventKind identifies what a notification is about.
type EventKind string

const (
	// EventIndexBuilt fires after a full build installed a fresh index.
	EventIndexBuilt EventKind = "index_built"
	// EventFilesUpdated fires after changed files were reparsed.
	EventFilesUpdated EventKind = "files_updated"
	// EventFilesAdded fires after created files were indexed.
	EventFilesAdded EventKind = "files_added"
	// EventFilesDeleted fires after deleted files were dropped.
	EventFilesDeleted EventKind = "files_deleted"
	// EventParseErrors fires when a build or update accumulated parse
	// errors, alongside the structural event.
	EventParseErrors EventKind = "parse_errors"
)

// Event is one notification to subscribers. Only the fields relevant to the
// kind are populated.
type Event struct {
	Kind   EventKind
	Paths  []string
	Errors []*block.ParseError
	Stats  index.Stats
}

// Subscribe registers fn for all future events and returns its
// unsubscribe function. Callbacks run synchronously on the goroutine that
// produced the event and must not block.
func (s *Session) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

func (s *Session) publish(ev Event) {
	s.mu.Lock()
	fns := make([]func(Event), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
