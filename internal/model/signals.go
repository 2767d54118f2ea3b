package model

import (
	"sync"
)

// SignalKind identifies a model-level change notification.
type SignalKind uint8

const (
	// SignalValidity fires when the model moves between valid and
	// not-well-formed.
	SignalValidity SignalKind = iota + 1
	// SignalTargetNamespace fires when the schema targetNamespace changes.
	SignalTargetNamespace
	// SignalSchemaReferences fires when directives are added to or removed
	// from the schema root, or when the whole tree is replaced.
	SignalSchemaReferences
	// SignalDirective fires when a directive's schemaLocation or namespace
	// attribute changes.
	SignalDirective
)

func (k SignalKind) String() string {
	switch k {
	case SignalValidity:
		return "validity"
	case SignalTargetNamespace:
		return "target-namespace"
	case SignalSchemaReferences:
		return "schema-references"
	case SignalDirective:
		return "directive"
	default:
		return "unknown"
	}
}

// Signal is delivered to subscribers of a model. Old and New carry the
// previous and current values for validity and namespace changes; Source
// is the directive involved, when there is one.
type Signal struct {
	Kind   SignalKind
	Model  *Model
	Old    string
	New    string
	Source *Component
}

// Listener receives model signals.
type Listener func(Signal)

// Subscription removes a listener when cancelled. Cancel is idempotent.
type Subscription struct {
	bus *signalBus
	id  uint64
}

// Cancel removes the listener.
func (s *Subscription) Cancel() {
	if s == nil || s.bus == nil {
		return
	}
	s.bus.remove(s.id)
}

type signalBus struct {
	mu        sync.Mutex
	nextID    uint64
	listeners map[uint64]Listener
	order     []uint64
}

func (b *signalBus) add(fn Listener) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listeners == nil {
		b.listeners = make(map[uint64]Listener)
	}
	b.nextID++
	b.listeners[b.nextID] = fn
	b.order = append(b.order, b.nextID)
	return &Subscription{bus: b, id: b.nextID}
}

func (b *signalBus) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.listeners[id]; !ok {
		return
	}
	delete(b.listeners, id)
	for i, v := range b.order {
		if v == id {
			b.order = append(b.order[:i:i], b.order[i+1:]...)
			break
		}
	}
}

func (b *signalBus) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}

func (b *signalBus) clear() {
	b.mu.Lock()
	b.listeners = nil
	b.order = nil
	b.mu.Unlock()
}

// deliver calls listeners in subscription order without holding the lock,
// so a listener may cancel itself or subscribe others.
func (b *signalBus) deliver(signals []Signal) {
	if len(signals) == 0 {
		return
	}
	b.mu.Lock()
	fns := make([]Listener, 0, len(b.order))
	for _, id := range b.order {
		fns = append(fns, b.listeners[id])
	}
	b.mu.Unlock()
	for _, s := range signals {
		for _, fn := range fns {
			fn(s)
		}
	}
}
