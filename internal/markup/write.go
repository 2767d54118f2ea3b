package markup

import (
	"bytes"
	"io"
	"strings"
)

// attrEscaper escapes values for double-quoted attributes. Whitespace is
// written literally.
var attrEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

// WriteTo serializes the document. Attribute order, prefixes and raw text
// are kept as they are in the arena; no indentation is added.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	d.mu.RLock()
	var buf bytes.Buffer
	buf.WriteString(xmlHeader)
	if d.validNode(d.root) {
		d.writeNode(&buf, d.root)
	}
	d.mu.RUnlock()
	buf.WriteByte('\n')
	return buf.WriteTo(w)
}

// Bytes returns the serialized document.
func (d *Document) Bytes() []byte {
	var buf bytes.Buffer
	_, _ = d.WriteTo(&buf)
	return buf.Bytes()
}

func (d *Document) writeNode(buf *bytes.Buffer, id NodeID) {
	n := &d.nodes[id]
	qname := n.local
	if n.prefix != "" {
		qname = n.prefix + ":" + n.local
	}
	buf.WriteByte('<')
	buf.WriteString(qname)
	for _, a := range n.attrs {
		buf.WriteByte(' ')
		buf.WriteString(a.QualifiedName())
		buf.WriteString(`="`)
		buf.WriteString(attrEscaper.Replace(a.Value))
		buf.WriteByte('"')
	}
	if len(n.children) == 0 && n.text == "" {
		buf.WriteString("/>")
		return
	}
	buf.WriteByte('>')
	buf.WriteString(n.text)
	for _, child := range n.children {
		d.writeNode(buf, child)
	}
	buf.WriteString("</")
	buf.WriteString(qname)
	buf.WriteByte('>')
}
