package model

import (
	"iter"
	"slices"

	"github.com/jacoelho/xsdmodel/internal/attrs"
	"github.com/jacoelho/xsdmodel/internal/classify"
	"github.com/jacoelho/xsdmodel/internal/kind"
	"github.com/jacoelho/xsdmodel/internal/markup"
)

// Component is one typed schema construct backed by a markup node. The
// same markup node always yields the same *Component for a given model.
type Component struct {
	model *Model
	node  markup.NodeID
	gen   uint64
	kind  kind.Kind

	// guarded by model.mu
	parent    *Component
	children  []*Component
	populated bool
	refs      map[attrs.Name]*refEntry
}

type directiveKey struct {
	node markup.NodeID
	gen  uint64
}

func (c *Component) key() directiveKey {
	return directiveKey{node: c.node, gen: c.gen}
}

// nodeView adapts a markup node to the classifier.
type nodeView struct {
	doc *markup.Document
	id  markup.NodeID
}

func (v nodeView) NamespaceURI() string     { return v.doc.NamespaceURI(v.id) }
func (v nodeView) LocalName() string        { return v.doc.LocalName(v.id) }
func (v nodeView) HasAttr(name string) bool { return v.doc.HasAttr(v.id, name) }

// componentLocked returns the component for node, creating it when the
// node has none or its classification changed.
func (m *Model) componentLocked(node markup.NodeID, k kind.Kind, parent *Component) *Component {
	if c, ok := m.byNode[node]; ok && c.kind == k && c.gen == m.gen {
		c.parent = parent
		return c
	}
	c := &Component{model: m, node: node, gen: m.gen, kind: k, parent: parent}
	m.byNode[node] = c
	return c
}

func (c *Component) resetChildren() {
	c.children = nil
	c.populated = false
}

func (m *Model) childrenLocked(c *Component) []*Component {
	if c.populated {
		return c.children
	}
	if !c.liveLocked() {
		return nil
	}
	var out []*Component
	for _, id := range m.doc.Children(c.node) {
		k, ok := classifyChild(m.doc, c.kind, id)
		if !ok {
			continue
		}
		out = append(out, m.componentLocked(id, k, c))
	}
	c.children = out
	c.populated = true
	return out
}

func (c *Component) liveLocked() bool {
	return c.gen == c.model.gen
}

// Kind returns the component kind.
func (c *Component) Kind() kind.Kind { return c.kind }

// Model returns the owning model.
func (c *Component) Model() *Model { return c.model }

// Node returns the backing markup node.
func (c *Component) Node() markup.NodeID { return c.node }

// Attached reports whether the component is still part of its model's
// document tree.
func (c *Component) Attached() bool {
	m := c.model
	m.mu.Lock()
	live := c.liveLocked()
	m.mu.Unlock()
	return live && m.doc.Attached(c.node)
}

// Parent returns the parent component, or nil for the schema root and for
// detached components.
func (c *Component) Parent() *Component {
	m := c.model
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.parentLocked(c)
}

func (m *Model) parentLocked(c *Component) *Component {
	if !c.liveLocked() {
		return nil
	}
	pn := m.doc.Parent(c.node)
	if pn == markup.InvalidNode {
		return nil
	}
	if c.parent != nil && c.parent.node == pn {
		return c.parent
	}
	p, ok := m.byNode[pn]
	if !ok {
		if pn != m.doc.Root() {
			return nil
		}
		p = m.schemaLocked()
		if p == nil {
			return nil
		}
	}
	m.childrenLocked(p)
	if c.parent != nil && c.parent.node == pn {
		return c.parent
	}
	return nil
}

// Children returns the component children in document order. Markup
// children that classify to no kind are skipped.
func (c *Component) Children() []*Component {
	m := c.model
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.childrenLocked(c))
}

// ChildrenOf returns the children whose kind is one of kinds.
func (c *Component) ChildrenOf(kinds ...kind.Kind) []*Component {
	var out []*Component
	for _, ch := range c.Children() {
		if slices.Contains(kinds, ch.kind) {
			out = append(out, ch)
		}
	}
	return out
}

// Child returns the first child of kind k.
func (c *Component) Child(k kind.Kind) *Component {
	for _, ch := range c.Children() {
		if ch.kind == k {
			return ch
		}
	}
	return nil
}

// All iterates the children of the given kinds, or every child when kinds
// is empty. The sequence can be ranged over repeatedly.
func (c *Component) All(kinds ...kind.Kind) iter.Seq[*Component] {
	return func(yield func(*Component) bool) {
		for _, ch := range c.Children() {
			if len(kinds) > 0 && !slices.Contains(kinds, ch.kind) {
				continue
			}
			if !yield(ch) {
				return
			}
		}
	}
}

// Descendants iterates c and every component below it in document order.
func (c *Component) Descendants() iter.Seq[*Component] {
	return func(yield func(*Component) bool) {
		stack := []*Component{c}
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !yield(cur) {
				return
			}
			kids := cur.Children()
			for i := len(kids) - 1; i >= 0; i-- {
				stack = append(stack, kids[i])
			}
		}
	}
}

// Text returns the raw character content, used by documentation and
// appinfo.
func (c *Component) Text() string {
	return c.model.doc.Text(c.node)
}

func (c *Component) String() string {
	if name, ok := c.model.doc.Attr(c.node, "name"); ok {
		return c.kind.String() + "(" + name + ")"
	}
	return c.kind.String()
}

func classifyChild(doc *markup.Document, parent kind.Kind, id markup.NodeID) (kind.Kind, bool) {
	return classify.Classify(parent, nodeView{doc, id})
}
