package builtins

import (
	"fmt"

	"github.com/jacoelho/xsdmodel/internal/markup"
)

// Identity is the system identifier of the built-in types document.
const Identity = "urn:xsdmodel:builtins"

const prefix = "xs"

// Document builds a schema document in the schema namespace declaring
// anyType and every built-in simple type.
func Document() (*markup.Document, error) {
	doc := markup.NewDocument()
	el := func(local string) markup.NodeID {
		return doc.CreateNode(XSDNamespace, prefix+":"+local)
	}
	root := el("schema")
	if err := doc.DeclareNamespace(root, prefix, XSDNamespace); err != nil {
		return nil, err
	}
	if err := doc.SetAttr(root, "targetNamespace", XSDNamespace); err != nil {
		return nil, err
	}
	if err := doc.SetRoot(root); err != nil {
		return nil, err
	}

	anyType := el("complexType")
	if err := doc.SetAttr(anyType, "name", string(TypeNameAnyType)); err != nil {
		return nil, err
	}
	if err := doc.AppendChild(root, anyType); err != nil {
		return nil, err
	}

	for _, b := range ordered {
		st := el("simpleType")
		if err := doc.SetAttr(st, "name", string(b.name)); err != nil {
			return nil, err
		}
		var body markup.NodeID
		switch {
		case b.item != "":
			body = el("list")
			if err := doc.SetAttr(body, "itemType", prefix+":"+string(b.item)); err != nil {
				return nil, err
			}
		case b.name != TypeNameAnySimpleType:
			body = el("restriction")
			if err := doc.SetAttr(body, "base", prefix+":"+string(b.base)); err != nil {
				return nil, err
			}
		default:
			body = markup.InvalidNode
		}
		if body != markup.InvalidNode {
			if err := doc.AppendChild(st, body); err != nil {
				return nil, fmt.Errorf("builtin %s: %w", b.name, err)
			}
		}
		if err := doc.AppendChild(root, st); err != nil {
			return nil, fmt.Errorf("builtin %s: %w", b.name, err)
		}
	}
	return doc, nil
}
