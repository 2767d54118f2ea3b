package markup

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"

	"aqwari.net/xml/xmltree"
	"golang.org/x/net/html/charset"
)

const xsdNamespace = "http://www.w3.org/2001/XMLSchema"

// Parse builds a mutable document from XML input.
func Parse(data []byte) (*Document, error) {
	nodes, root, err := build(data)
	if err != nil {
		return nil, err
	}
	return &Document{nodes: nodes, root: root}, nil
}

// Sync replaces the whole tree with a fresh parse of data. On failure the
// previous tree is kept and the document becomes StateNotWellFormed; the
// parse error is returned and also retained in LastError.
func (d *Document) Sync(data []byte) error {
	nodes, root, err := build(data)

	d.mu.Lock()
	old := d.state
	var events []Event
	if err != nil {
		d.state = StateNotWellFormed
		d.lastErr = err
	} else {
		d.nodes = nodes
		d.root = root
		d.state = StateValid
		d.lastErr = nil
		d.gen++
		events = append(events, Event{Property: PropertySubtree, Node: root, Child: InvalidNode})
	}
	if old != d.state {
		events = append(events, Event{Property: PropertyState, Node: d.root, Child: InvalidNode, Old: old.String(), New: d.state.String()})
	}
	d.mu.Unlock()

	d.listeners.deliver(events)
	return err
}

func build(data []byte) ([]node, NodeID, error) {
	// xmltree folds xmlns attributes into its scope; recover them so the
	// arena keeps every declaration where the source put it. This runs
	// first because xmltree reuses data when it transcodes the input.
	decls, err := namespaceDecls(data)
	if err != nil {
		return nil, InvalidNode, fmt.Errorf("parse markup: %w", err)
	}
	tree, err := xmltree.Parse(data)
	if err != nil {
		return nil, InvalidNode, fmt.Errorf("parse markup: %w", err)
	}
	nodes := make([]node, 0, 64)
	ordinal := 0
	var add func(el *xmltree.Element, parent NodeID) NodeID
	add = func(el *xmltree.Element, parent NodeID) NodeID {
		id := NodeID(len(nodes))
		var own []Attr
		if ordinal < len(decls) {
			own = decls[ordinal]
		}
		ordinal++
		prefix, _ := splitQName(el.Prefix(el.Name))
		n := node{
			namespace: el.Name.Space,
			prefix:    prefix,
			local:     el.Name.Local,
			parent:    parent,
			attrs:     append(own, convertAttrs(el)...),
		}
		n.opaque = el.Name.Space == xsdNamespace && (el.Name.Local == "documentation" || el.Name.Local == "appinfo")
		if n.opaque || len(el.Children) == 0 {
			n.text = string(el.Content)
		}
		nodes = append(nodes, n)
		if n.opaque {
			ordinal += countElements(el.Children)
			return id
		}
		for i := range el.Children {
			child := add(&el.Children[i], id)
			nodes[id].children = append(nodes[id].children, child)
		}
		return id
	}
	root := add(tree, InvalidNode)
	return nodes, root, nil
}

func countElements(els []xmltree.Element) int {
	n := len(els)
	for i := range els {
		n += countElements(els[i].Children)
	}
	return n
}

// namespaceDecls returns the xmlns attributes of every element, indexed by
// document order, as written in the source.
func namespaceDecls(data []byte) ([][]Attr, error) {
	d := xml.NewDecoder(bytes.NewReader(data))
	d.CharsetReader = charset.NewReaderLabel
	var out [][]Attr
	for {
		tok, err := d.RawToken()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		var decls []Attr
		for _, a := range start.Attr {
			switch {
			case a.Name.Space == "xmlns":
				decls = append(decls, Attr{Prefix: "xmlns", Local: a.Name.Local, Value: a.Value})
			case a.Name.Space == "" && a.Name.Local == "xmlns":
				decls = append(decls, Attr{Local: "xmlns", Value: a.Value})
			}
		}
		out = append(out, decls)
	}
}

func convertAttrs(el *xmltree.Element) []Attr {
	if len(el.StartElement.Attr) == 0 {
		return nil
	}
	out := make([]Attr, 0, len(el.StartElement.Attr))
	for _, a := range el.StartElement.Attr {
		switch {
		case a.Name.Space == "":
			out = append(out, Attr{Local: a.Name.Local, Value: a.Value})
		case a.Name.Space == XMLNamespace:
			out = append(out, Attr{Prefix: "xml", Local: a.Name.Local, Value: a.Value})
		default:
			prefix, local := splitQName(el.Prefix(a.Name))
			out = append(out, Attr{Prefix: prefix, Local: local, Value: a.Value})
		}
	}
	return out
}
