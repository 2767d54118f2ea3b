package markup

import "sync"

// Property names the facet of the document an Event describes.
type Property string

const (
	PropertyAttribute    Property = "attribute"
	PropertyChildAdded   Property = "child-added"
	PropertyChildRemoved Property = "child-removed"
	PropertyText         Property = "text"
	PropertySubtree      Property = "subtree"
	PropertyState        Property = "state"
)

// Event is a change notification. For attribute events Name is the
// qualified attribute name and Old/New its values ("" when absent, with
// HadOld/HasNew distinguishing absence). For child events Child is the
// added or removed node and Index its position.
type Event struct {
	Property Property
	Node     NodeID
	Child    NodeID
	Index    int
	Name     string
	Old      string
	New      string
	HadOld   bool
	HasNew   bool
}

// Listener receives document events.
type Listener func(Event)

type listenerSet struct {
	mu      sync.Mutex
	nextID  int
	entries []listenerEntry
}

type listenerEntry struct {
	id int
	fn Listener
}

// Subscribe registers fn and returns a function that removes it.
func (d *Document) Subscribe(fn Listener) (cancel func()) {
	return d.listeners.add(fn)
}

func (s *listenerSet) add(fn Listener) func() {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.entries = append(s.entries, listenerEntry{id: id, fn: fn})
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() { s.remove(id) })
	}
}

func (s *listenerSet) remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.id == id {
			s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
			return
		}
	}
}

func (s *listenerSet) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *listenerSet) deliver(events []Event) {
	if len(events) == 0 {
		return
	}
	s.mu.Lock()
	entries := append([]listenerEntry(nil), s.entries...)
	s.mu.Unlock()
	for _, ev := range events {
		for _, e := range entries {
			e.fn(ev)
		}
	}
}

// ListenerCount reports the number of registered listeners.
func (d *Document) ListenerCount() int {
	return d.listeners.len()
}
