package markup

import (
	"strings"
	"sync"
)

// NodeID identifies a node in the document arena.
type NodeID int

// InvalidNode represents an invalid node reference.
const InvalidNode NodeID = -1

const (
	// XMLNamespace is the namespace bound to the reserved xml prefix.
	XMLNamespace = "http://www.w3.org/XML/1998/namespace"
	// XMLNSNamespace is the namespace of namespace declarations.
	XMLNSNamespace = "http://www.w3.org/2000/xmlns/"
)

// State is the well-formedness state of a document.
type State uint8

const (
	StateValid State = iota
	StateNotWellFormed
)

func (s State) String() string {
	switch s {
	case StateValid:
		return "valid"
	case StateNotWellFormed:
		return "not-well-formed"
	default:
		return "unknown"
	}
}

// Attr is one attribute of an element. Namespace declarations are kept as
// attributes: xmlns:p is {Prefix: "xmlns", Local: "p"} and the default
// declaration is {Local: "xmlns"}.
type Attr struct {
	Prefix string
	Local  string
	Value  string
}

// QualifiedName returns the attribute name as written in markup.
func (a Attr) QualifiedName() string {
	if a.Prefix == "" {
		return a.Local
	}
	return a.Prefix + ":" + a.Local
}

func (a Attr) isNamespaceDecl() bool {
	return a.Prefix == "xmlns" || (a.Prefix == "" && a.Local == "xmlns")
}

type node struct {
	namespace string
	prefix    string
	local     string
	attrs     []Attr
	children  []NodeID
	text      string
	parent    NodeID
	opaque    bool
}

// Document is a mutable arena for one schema document.
//
// Reads take a shared lock and may run concurrently with each other;
// mutations are serialized and listeners are called after the lock is
// released, in registration order.
type Document struct {
	mu        sync.RWMutex
	nodes     []node
	root      NodeID
	state     State
	gen       uint64
	lastErr   error
	listeners listenerSet
}

// NewDocument returns an empty, valid document with no root.
func NewDocument() *Document {
	return &Document{root: InvalidNode}
}

func (d *Document) validNode(id NodeID) bool {
	return d != nil && id >= 0 && int(id) < len(d.nodes)
}

// Root returns the document element.
func (d *Document) Root() NodeID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.root
}

// State reports whether the last synchronization produced a well-formed tree.
func (d *Document) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

// LastError returns the parse error that moved the document to
// StateNotWellFormed, or nil.
func (d *Document) LastError() error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastErr
}

// Generation changes every time the whole tree is replaced. Node IDs from
// an older generation must not be used.
func (d *Document) Generation() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.gen
}

// Parent returns the parent node of id, or InvalidNode for the root and
// detached nodes.
func (d *Document) Parent(id NodeID) NodeID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.validNode(id) {
		return InvalidNode
	}
	return d.nodes[id].parent
}

// Attached reports whether id is reachable from the document root.
func (d *Document) Attached(id NodeID) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for d.validNode(id) {
		if id == d.root {
			return true
		}
		id = d.nodes[id].parent
	}
	return false
}

// NamespaceURI returns the namespace URI for the given node.
func (d *Document) NamespaceURI(id NodeID) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.validNode(id) {
		return ""
	}
	return d.nodes[id].namespace
}

// LocalName returns the local name for the given node.
func (d *Document) LocalName(id NodeID) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.validNode(id) {
		return ""
	}
	return d.nodes[id].local
}

// Prefix returns the prefix the element name was written with.
func (d *Document) Prefix(id NodeID) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.validNode(id) {
		return ""
	}
	return d.nodes[id].prefix
}

// Children returns a copy of the element children in document order.
func (d *Document) Children(id NodeID) []NodeID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.validNode(id) || len(d.nodes[id].children) == 0 {
		return nil
	}
	out := make([]NodeID, len(d.nodes[id].children))
	copy(out, d.nodes[id].children)
	return out
}

// IndexOf returns the position of child under parent, or -1.
func (d *Document) IndexOf(parent, child NodeID) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.validNode(parent) {
		return -1
	}
	return indexOf(d.nodes[parent].children, child)
}

func indexOf(ids []NodeID, id NodeID) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

// Text returns the raw character content of a node without child elements.
// For opaque nodes (annotation documentation and appinfo) it is the whole
// inner markup.
func (d *Document) Text(id NodeID) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.validNode(id) {
		return ""
	}
	return d.nodes[id].text
}

// Attributes returns a copy of the element attributes, including namespace
// declarations.
func (d *Document) Attributes(id NodeID) []Attr {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.validNode(id) || len(d.nodes[id].attrs) == 0 {
		return nil
	}
	out := make([]Attr, len(d.nodes[id].attrs))
	copy(out, d.nodes[id].attrs)
	return out
}

// Attr returns the value of an unqualified attribute.
func (d *Document) Attr(id NodeID, name string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.validNode(id) {
		return "", false
	}
	if i := findAttr(d.nodes[id].attrs, "", name); i >= 0 {
		return d.nodes[id].attrs[i].Value, true
	}
	return "", false
}

// HasAttr reports whether the element carries an unqualified attribute.
func (d *Document) HasAttr(id NodeID, name string) bool {
	_, ok := d.Attr(id, name)
	return ok
}

func findAttr(attrs []Attr, prefix, local string) int {
	for i, a := range attrs {
		if a.Prefix == prefix && a.Local == local {
			return i
		}
	}
	return -1
}

// LookupNamespace resolves prefix to a namespace URI using the declarations
// in scope at id. The empty prefix resolves the default namespace.
func (d *Document) LookupNamespace(id NodeID, prefix string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lookupNamespace(id, prefix)
}

func (d *Document) lookupNamespace(id NodeID, prefix string) (string, bool) {
	switch prefix {
	case "xml":
		return XMLNamespace, true
	case "xmlns":
		return XMLNSNamespace, true
	}
	for cur := id; d.validNode(cur); cur = d.nodes[cur].parent {
		n := &d.nodes[cur]
		for _, a := range n.attrs {
			if prefix == "" && a.Prefix == "" && a.Local == "xmlns" {
				return a.Value, a.Value != ""
			}
			if prefix != "" && a.Prefix == "xmlns" && a.Local == prefix {
				return a.Value, true
			}
		}
	}
	return "", false
}

// LookupPrefix returns a prefix bound to namespace in scope at id. The
// second result is false when no declaration binds the namespace; a
// default-namespace binding returns the empty prefix.
func (d *Document) LookupPrefix(id NodeID, namespace string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if namespace == XMLNamespace {
		return "xml", true
	}
	shadowed := make(map[string]bool)
	for cur := id; d.validNode(cur); cur = d.nodes[cur].parent {
		for _, a := range d.nodes[cur].attrs {
			if !a.isNamespaceDecl() {
				continue
			}
			prefix := a.Local
			if a.Prefix == "" {
				prefix = ""
			}
			if shadowed[prefix] {
				continue
			}
			shadowed[prefix] = true
			if a.Value == namespace {
				return prefix, true
			}
		}
	}
	return "", false
}

// DeclaredPrefixes returns every prefix bound by a namespace declaration
// on any node of the arena, attached or not.
func (d *Document) DeclaredPrefixes() map[string]struct{} {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]struct{})
	for i := range d.nodes {
		for _, a := range d.nodes[i].attrs {
			if a.Prefix == "xmlns" {
				out[a.Local] = struct{}{}
			}
		}
	}
	return out
}

// QualifiedName returns the element name as written in markup.
func (d *Document) QualifiedName(id NodeID) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if !d.validNode(id) {
		return ""
	}
	n := d.nodes[id]
	if n.prefix == "" {
		return n.local
	}
	return n.prefix + ":" + n.local
}

func splitQName(qname string) (prefix, local string) {
	if before, after, ok := strings.Cut(qname, ":"); ok {
		return before, after
	}
	return "", qname
}
