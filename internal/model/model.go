// Package model is the live schema component model: a typed component tree
// kept in sync with a mutable markup document, with cached cross-document
// reference resolution.
package model

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	xsderrors "github.com/jacoelho/xsdmodel/errors"
	"github.com/jacoelho/xsdmodel/internal/attrs"
	"github.com/jacoelho/xsdmodel/internal/classify"
	"github.com/jacoelho/xsdmodel/internal/kind"
	"github.com/jacoelho/xsdmodel/internal/markup"
	"github.com/jacoelho/xsdmodel/internal/metrics"
)

// DefaultNegativeTTL is how long a failed directive resolution is
// remembered before it is retried.
const DefaultNegativeTTL = 5 * time.Second

// State is the validity of a model; it mirrors the document state.
type State = markup.State

const (
	StateValid         = markup.StateValid
	StateNotWellFormed = markup.StateNotWellFormed
)

// Options configures a model.
type Options struct {
	// Source resolves directives to other models. Without a source every
	// directive is unresolvable and built-in types are unknown.
	Source Source
	// Identity is the system identifier of the document, used as the base
	// for relative schema locations.
	Identity string
	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
	// NegativeTTL bounds how long failed resolutions are cached. Zero means
	// DefaultNegativeTTL.
	NegativeTTL time.Duration
	Logger      *zap.Logger
	Metrics     *metrics.Cache
}

// Model is the component view of one schema document.
type Model struct {
	id       string
	identity string
	doc      *markup.Document
	source   Source
	logger   *zap.Logger

	mu     sync.Mutex
	byNode map[markup.NodeID]*Component
	root   *Component
	gen    uint64
	tns    namespaceValue
	index  globalIndex

	txMu      sync.Mutex
	depth     int
	inTx      atomic.Bool
	pendingMu sync.Mutex
	pending   []Signal

	epoch   atomic.Uint64
	closed  atomic.Bool
	signals signalBus
	refs    *refCache
	stopDoc func()
}

type namespaceValue struct {
	value string
	set   bool
}

// New builds a model over doc. A nil doc starts an empty document.
func New(doc *markup.Document, opts Options) *Model {
	if doc == nil {
		doc = markup.NewDocument()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	ttl := opts.NegativeTTL
	if ttl <= 0 {
		ttl = DefaultNegativeTTL
	}
	m := &Model{
		id:       uuid.NewString(),
		identity: opts.Identity,
		doc:      doc,
		source:   opts.Source,
		byNode:   make(map[markup.NodeID]*Component),
		gen:      doc.Generation(),
	}
	m.logger = logger.With(zap.String("model", m.id), zap.String("identity", opts.Identity))
	m.refs = newRefCache(ttl, clock, opts.Metrics)
	m.tns = m.readNamespace()
	m.stopDoc = doc.Subscribe(m.onEvent)
	releaseOnCollect(m)
	return m
}

// ID returns a unique identifier of this model instance.
func (m *Model) ID() string { return m.id }

// Identity returns the document system identifier.
func (m *Model) Identity() string { return m.identity }

// Document returns the underlying markup document.
func (m *Model) Document() *markup.Document { return m.doc }

// Logger returns the model logger.
func (m *Model) Logger() *zap.Logger { return m.logger }

// State returns the model validity. A closed model is not well formed.
func (m *Model) State() State {
	if m.closed.Load() {
		return StateNotWellFormed
	}
	return m.doc.State()
}

// Valid reports whether the model is usable for resolution.
func (m *Model) Valid() bool { return m.State() == StateValid }

// Closed reports whether Close has been called.
func (m *Model) Closed() bool { return m.closed.Load() }

// Close detaches the model from its document and from every model its
// directives resolved to. Subscribers receive a final validity signal.
func (m *Model) Close() {
	if m.closed.Swap(true) {
		return
	}
	m.stopDoc()
	m.refs.clear(evictClosed)
	m.epoch.Add(1)
	m.signals.deliver([]Signal{{Kind: SignalValidity, Model: m, Old: m.doc.State().String(), New: StateNotWellFormed.String()}})
	m.signals.clear()
	m.logger.Debug("model closed")
}

// Subscribe registers fn for model signals.
func (m *Model) Subscribe(fn Listener) *Subscription {
	return m.signals.add(fn)
}

// StartTransaction opens a write transaction, or joins the one already
// open. A model has a single writer: the caller that opened the outermost
// transaction. Nested Start/End pairs, Update and Sync made by that writer
// join it; other goroutines must not write until it ends.
func (m *Model) StartTransaction() {
	m.txMu.Lock()
	m.depth++
	m.inTx.Store(true)
	m.txMu.Unlock()
}

// EndTransaction closes one level of the open transaction. Closing the
// outermost level delivers the signals queued while it was open.
func (m *Model) EndTransaction() {
	m.txMu.Lock()
	if m.depth == 0 {
		m.txMu.Unlock()
		return
	}
	m.depth--
	if m.depth > 0 {
		m.txMu.Unlock()
		return
	}
	m.pendingMu.Lock()
	m.inTx.Store(false)
	pending := m.pending
	m.pending = nil
	m.pendingMu.Unlock()
	m.txMu.Unlock()
	m.signals.deliver(pending)
}

// InTransaction reports whether a transaction is open.
func (m *Model) InTransaction() bool { return m.inTx.Load() }

// Update runs fn inside a transaction, joining an open one.
func (m *Model) Update(fn func() error) error {
	m.StartTransaction()
	defer m.EndTransaction()
	return fn()
}

// Sync replaces the document content with data. A parse failure keeps the
// previous components and moves the model to not-well-formed. Called
// inside an open transaction it joins it.
func (m *Model) Sync(data []byte) error {
	if m.closed.Load() {
		return xsderrors.New(xsderrors.ErrModelClosed, "sync on closed model")
	}
	m.StartTransaction()
	defer m.EndTransaction()
	if err := m.doc.Sync(data); err != nil {
		e := xsderrors.New(xsderrors.ErrNotWellFormed, "document is not well formed")
		e.Err = err
		return e
	}
	return nil
}

// SetSchema installs a detached schema component as the document root of
// an empty document.
func (m *Model) SetSchema(c *Component) error {
	if err := m.requireTx(); err != nil {
		return err
	}
	if c == nil || c.model != m {
		return xsderrors.New(xsderrors.ErrForeignComponent, "schema component belongs to another model")
	}
	if c.kind != kind.Schema {
		e := xsderrors.New(xsderrors.ErrChildNotAllowed, "document root must be a schema")
		e.Kind = c.kind.String()
		return e
	}
	if err := m.doc.SetRoot(c.node); err != nil {
		return err
	}
	m.mu.Lock()
	m.root = c
	m.mu.Unlock()
	return nil
}

func (m *Model) requireTx() error {
	if m.closed.Load() {
		return xsderrors.New(xsderrors.ErrModelClosed, "mutation on closed model")
	}
	if !m.inTx.Load() {
		return xsderrors.New(xsderrors.ErrNotInTransaction, "mutation outside transaction")
	}
	return nil
}

func (m *Model) emit(sigs ...Signal) {
	if len(sigs) == 0 {
		return
	}
	for i := range sigs {
		sigs[i].Model = m
	}
	m.pendingMu.Lock()
	if m.inTx.Load() {
		m.pending = append(m.pending, sigs...)
		m.pendingMu.Unlock()
		return
	}
	m.pendingMu.Unlock()
	m.signals.deliver(sigs)
}

// Schema returns the root schema component, or nil when the document has
// no schema element.
func (m *Model) Schema() *Component {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.schemaLocked()
}

func (m *Model) schemaLocked() *Component {
	r := m.doc.Root()
	if r == markup.InvalidNode {
		return nil
	}
	if m.root != nil && m.root.node == r && m.root.gen == m.gen {
		return m.root
	}
	k, ok := classify.Classify(kind.Invalid, nodeView{m.doc, r})
	if !ok {
		return nil
	}
	m.root = m.componentLocked(r, k, nil)
	return m.root
}

// TargetNamespace returns the schema targetNamespace. The second result is
// false for a schema without one.
func (m *Model) TargetNamespace() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tns.value, m.tns.set
}

func (m *Model) namespace() string {
	ns, _ := m.TargetNamespace()
	return ns
}

func (m *Model) readNamespace() namespaceValue {
	r := m.doc.Root()
	if r == markup.InvalidNode {
		return namespaceValue{}
	}
	v, ok := m.doc.Attr(r, string(attrs.TargetNamespace))
	return namespaceValue{value: v, set: ok && v != ""}
}

// refreshNamespace re-reads the targetNamespace and signals a change.
func (m *Model) refreshNamespace() {
	next := m.readNamespace()
	m.mu.Lock()
	old := m.tns
	m.tns = next
	m.mu.Unlock()
	if old != next {
		m.emit(Signal{Kind: SignalTargetNamespace, Old: old.value, New: next.value})
	}
}

func (m *Model) onEvent(ev markup.Event) {
	if m.closed.Load() {
		return
	}
	m.epoch.Add(1)
	switch ev.Property {
	case markup.PropertyAttribute:
		m.onAttribute(ev)
	case markup.PropertyChildAdded, markup.PropertyChildRemoved:
		m.onChild(ev)
	case markup.PropertySubtree:
		m.onSubtree()
	case markup.PropertyState:
		if ev.New != StateValid.String() {
			m.logger.Warn("document not well formed", zap.Error(m.doc.LastError()))
		}
		m.emit(Signal{Kind: SignalValidity, Old: ev.Old, New: ev.New})
	}
}

func (m *Model) onAttribute(ev markup.Event) {
	root := m.doc.Root()
	m.mu.Lock()
	c := m.byNode[ev.Node]
	if c != nil && c.kind.IsGlobal() && ev.Name == string(attrs.NameAttr) {
		m.index.reset()
	}
	if c != nil && ev.Name == string(attrs.Ref) && ev.HadOld != ev.HasNew && c.parent != nil {
		// presence of ref changes the classification of this node
		c.parent.resetChildren()
	}
	var directive *Component
	if c != nil && c.kind.IsDirective() &&
		(ev.Name == string(attrs.SchemaLocation) || ev.Name == string(attrs.Namespace)) {
		directive = c
	}
	m.mu.Unlock()

	if ev.Node == root && ev.Name == string(attrs.TargetNamespace) {
		m.refreshNamespace()
	}
	if directive != nil {
		m.refs.evict(directive.key(), evictDirectiveChanged)
		m.emit(Signal{Kind: SignalDirective, Old: ev.Old, New: ev.New, Source: directive})
	}
}

func (m *Model) onChild(ev markup.Event) {
	added := ev.Property == markup.PropertyChildAdded
	m.mu.Lock()
	p := m.byNode[ev.Node]
	if p != nil {
		p.resetChildren()
	}
	child := m.byNode[ev.Child]
	if child != nil && !added {
		child.parent = nil
	}
	schemaLevel := ev.Node == m.doc.Root()
	if schemaLevel || (p != nil && p.kind == kind.Redefine) {
		m.index.reset()
	}
	var directive *Component
	if schemaLevel {
		if k, ok := classify.Classify(kind.Schema, nodeView{m.doc, ev.Child}); ok && k.IsDirective() {
			directive = child
			if directive == nil {
				directive = m.componentLocked(ev.Child, k, nil)
			}
		}
	}
	m.mu.Unlock()

	if directive == nil {
		return
	}
	sig := Signal{Kind: SignalSchemaReferences, Source: directive}
	if !added {
		m.refs.evict(directive.key(), evictDirectiveRemoved)
		sig.Old = directive.kind.Tag()
	} else {
		sig.New = directive.kind.Tag()
	}
	m.emit(sig)
}

func (m *Model) onSubtree() {
	m.mu.Lock()
	replaced := m.gen != m.doc.Generation()
	if replaced {
		m.byNode = make(map[markup.NodeID]*Component)
		m.gen = m.doc.Generation()
	}
	m.root = nil
	m.index.reset()
	m.mu.Unlock()
	if replaced {
		m.refs.clear(evictReplaced)
	}
	m.refreshNamespace()
	m.emit(Signal{Kind: SignalSchemaReferences})
}

// ResolveDirective returns the model a directive points to, using the
// cross-model cache.
func (m *Model) ResolveDirective(d *Component) *Model {
	return m.ResolveDirectiveContext(context.Background(), d)
}

// Directives returns the import, include and redefine components of the
// schema root in document order.
func (m *Model) Directives() []*Component {
	s := m.Schema()
	if s == nil {
		return nil
	}
	return s.ChildrenOf(kind.Import, kind.Include, kind.Redefine)
}

// Epoch returns a counter that changes whenever the model changes.
func (m *Model) Epoch() uint64 { return m.epoch.Load() }
