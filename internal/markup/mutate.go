package markup

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidNode reports a node ID outside the document arena.
	ErrInvalidNode = errors.New("invalid node")
	// ErrAttached reports an insert of a node that already has a parent.
	ErrAttached = errors.New("node already attached")
	// ErrNotChild reports a removal of a node that is not a child of parent.
	ErrNotChild = errors.New("node is not a child")
)

// CreateNode adds a detached element named qualifiedName in namespace.
// The node becomes part of the tree once inserted under a parent, or
// becomes the root when the document has none.
func (d *Document) CreateNode(namespace, qualifiedName string) NodeID {
	prefix, local := splitQName(qualifiedName)
	d.mu.Lock()
	id := NodeID(len(d.nodes))
	d.nodes = append(d.nodes, node{namespace: namespace, prefix: prefix, local: local, parent: InvalidNode})
	d.mu.Unlock()
	return id
}

// SetRoot makes a detached node the document element. Node IDs stay
// valid, so the generation is unchanged.
func (d *Document) SetRoot(id NodeID) error {
	d.mu.Lock()
	if !d.validNode(id) {
		d.mu.Unlock()
		return fmt.Errorf("set root %d: %w", id, ErrInvalidNode)
	}
	d.root = id
	d.mu.Unlock()
	d.listeners.deliver([]Event{{Property: PropertySubtree, Node: id, Child: InvalidNode}})
	return nil
}

// AppendChild inserts child as the last child of parent.
func (d *Document) AppendChild(parent, child NodeID) error {
	return d.InsertChild(parent, -1, child)
}

// InsertChild inserts a detached child at index under parent. A negative or
// out-of-range index appends.
func (d *Document) InsertChild(parent NodeID, index int, child NodeID) error {
	d.mu.Lock()
	if !d.validNode(parent) || !d.validNode(child) {
		d.mu.Unlock()
		return fmt.Errorf("insert %d under %d: %w", child, parent, ErrInvalidNode)
	}
	if d.nodes[child].parent != InvalidNode || child == d.root {
		d.mu.Unlock()
		return fmt.Errorf("insert %d under %d: %w", child, parent, ErrAttached)
	}
	for cur := parent; d.validNode(cur); cur = d.nodes[cur].parent {
		if cur == child {
			d.mu.Unlock()
			return fmt.Errorf("insert %d under its own descendant %d: %w", child, parent, ErrAttached)
		}
	}
	kids := d.nodes[parent].children
	if index < 0 || index > len(kids) {
		index = len(kids)
	}
	kids = append(kids, InvalidNode)
	copy(kids[index+1:], kids[index:])
	kids[index] = child
	d.nodes[parent].children = kids
	d.nodes[parent].text = ""
	d.nodes[child].parent = parent
	d.mu.Unlock()

	d.listeners.deliver([]Event{{Property: PropertyChildAdded, Node: parent, Child: child, Index: index}})
	return nil
}

// RemoveChild detaches child from parent. The node and its subtree stay in
// the arena and may be inserted again.
func (d *Document) RemoveChild(parent, child NodeID) error {
	d.mu.Lock()
	if !d.validNode(parent) || !d.validNode(child) {
		d.mu.Unlock()
		return fmt.Errorf("remove %d from %d: %w", child, parent, ErrInvalidNode)
	}
	kids := d.nodes[parent].children
	index := indexOf(kids, child)
	if index < 0 {
		d.mu.Unlock()
		return fmt.Errorf("remove %d from %d: %w", child, parent, ErrNotChild)
	}
	d.nodes[parent].children = append(kids[:index:index], kids[index+1:]...)
	d.nodes[child].parent = InvalidNode
	d.mu.Unlock()

	d.listeners.deliver([]Event{{Property: PropertyChildRemoved, Node: parent, Child: child, Index: index}})
	return nil
}

// SetAttr sets an attribute given by its qualified name.
func (d *Document) SetAttr(id NodeID, qualifiedName, value string) error {
	prefix, local := splitQName(qualifiedName)
	d.mu.Lock()
	if !d.validNode(id) {
		d.mu.Unlock()
		return fmt.Errorf("set attribute %s on %d: %w", qualifiedName, id, ErrInvalidNode)
	}
	n := &d.nodes[id]
	ev := Event{Property: PropertyAttribute, Node: id, Child: InvalidNode, Name: qualifiedName, New: value, HasNew: true}
	if i := findAttr(n.attrs, prefix, local); i >= 0 {
		ev.Old, ev.HadOld = n.attrs[i].Value, true
		if ev.Old == value {
			d.mu.Unlock()
			return nil
		}
		n.attrs[i].Value = value
	} else {
		n.attrs = append(n.attrs, Attr{Prefix: prefix, Local: local, Value: value})
	}
	d.mu.Unlock()

	d.listeners.deliver([]Event{ev})
	return nil
}

// RemoveAttr removes an attribute given by its qualified name. Removing an
// absent attribute is a no-op.
func (d *Document) RemoveAttr(id NodeID, qualifiedName string) error {
	prefix, local := splitQName(qualifiedName)
	d.mu.Lock()
	if !d.validNode(id) {
		d.mu.Unlock()
		return fmt.Errorf("remove attribute %s on %d: %w", qualifiedName, id, ErrInvalidNode)
	}
	n := &d.nodes[id]
	i := findAttr(n.attrs, prefix, local)
	if i < 0 {
		d.mu.Unlock()
		return nil
	}
	old := n.attrs[i].Value
	n.attrs = append(n.attrs[:i:i], n.attrs[i+1:]...)
	d.mu.Unlock()

	d.listeners.deliver([]Event{{Property: PropertyAttribute, Node: id, Child: InvalidNode, Name: qualifiedName, Old: old, HadOld: true}})
	return nil
}

// DeclareNamespace binds prefix to namespace on id. The empty prefix
// declares the default namespace.
func (d *Document) DeclareNamespace(id NodeID, prefix, namespace string) error {
	if prefix == "" {
		return d.SetAttr(id, "xmlns", namespace)
	}
	return d.SetAttr(id, "xmlns:"+prefix, namespace)
}

// SetText replaces the raw character content of a node without children.
func (d *Document) SetText(id NodeID, raw string) error {
	d.mu.Lock()
	if !d.validNode(id) {
		d.mu.Unlock()
		return fmt.Errorf("set text on %d: %w", id, ErrInvalidNode)
	}
	old := d.nodes[id].text
	d.nodes[id].text = raw
	d.mu.Unlock()

	d.listeners.deliver([]Event{{Property: PropertyText, Node: id, Child: InvalidNode, Old: old, New: raw}})
	return nil
}
