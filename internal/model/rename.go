package model

import (
	"slices"
	"strconv"
	"strings"

	xsderrors "github.com/jacoelho/xsdmodel/errors"
	"github.com/jacoelho/xsdmodel/internal/attrs"
	"github.com/jacoelho/xsdmodel/internal/markup"
)

// FindUsages returns the references below roots, roots included, that
// resolve to target. A component reachable from several roots is
// inspected once.
func FindUsages(target *Component, roots ...*Component) []*Reference {
	if target == nil {
		return nil
	}
	seen := make(map[*Component]struct{})
	var out []*Reference
	for _, root := range roots {
		if root == nil {
			continue
		}
		for c := range root.Descendants() {
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			for _, r := range c.References() {
				if r.Resolve() == target {
					out = append(out, r)
				}
			}
		}
	}
	return out
}

// Rename sets the name of target and rewrites every reference to it found
// below roots. Usages are collected before the name changes. Each affected
// model is updated inside a transaction that joins any the caller holds,
// so signals wait for the outermost end. It returns the number of
// references rewritten.
func Rename(target *Component, newName string, roots ...*Component) (int, error) {
	if target == nil {
		return 0, xsderrors.New(xsderrors.ErrNotAChild, "rename of nil component")
	}
	if strings.TrimSpace(newName) == "" || strings.ContainsAny(newName, ": \t\n") {
		e := xsderrors.New(xsderrors.ErrInvalidLiteral, "invalid component name")
		e.Kind, e.Attribute, e.Value = target.kind.String(), string(attrs.NameAttr), newName
		return 0, e
	}
	usages := FindUsages(target, roots...)

	models := []*Model{target.model}
	for _, r := range usages {
		if !slices.Contains(models, r.owner.model) {
			models = append(models, r.owner.model)
		}
	}
	// deterministic transaction order
	slices.SortFunc(models, func(a, b *Model) int { return strings.Compare(a.id, b.id) })
	for _, m := range models {
		m.StartTransaction()
		defer m.EndTransaction()
	}

	if err := target.SetName(newName); err != nil {
		return 0, err
	}

	type slotKey struct {
		owner *Component
		attr  attrs.Name
	}
	groups := make(map[slotKey][]*Reference)
	var order []slotKey
	for _, r := range usages {
		k := slotKey{owner: r.owner, attr: r.attr}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], r)
	}
	n := 0
	for _, k := range order {
		rewritten, err := rewrite(k.owner, k.attr, groups[k], newName)
		n += rewritten
		if err != nil {
			return n, err
		}
	}
	return n, nil
}

// rewrite replaces the tokens of attr on owner that belong to refs.
// Other tokens of a multi-valued attribute are kept as written.
func rewrite(owner *Component, attr attrs.Name, refs []*Reference, newName string) (int, error) {
	current := owner.refsFor(attr)
	tokens := make([]string, len(current))
	for i, r := range current {
		tokens[i] = r.raw
	}
	n := 0
	for _, r := range refs {
		i := slices.Index(current, r)
		if i < 0 {
			continue
		}
		s, err := r.renamed(newName)
		if err != nil {
			return n, err
		}
		tokens[i] = s
		n++
	}
	return n, owner.setRaw(attr, strings.Join(tokens, " "))
}

// renamed builds the reference text for the same namespace with a new
// local name, keeping the original prefix when it still binds the same
// namespace.
func (r *Reference) renamed(local string) (string, error) {
	doc := r.owner.model.doc
	if ns, ok := doc.LookupNamespace(r.owner.node, r.prefix); ok && ns == r.name.Namespace {
		return qualified(r.prefix, local), nil
	}
	return RefString(r.owner, r.name.Namespace, local)
}

func qualified(prefix, local string) string {
	if prefix == "" {
		return local
	}
	return prefix + ":" + local
}

// RefString returns text that designates {namespace}local when written on
// owner. A namespace without a prefix in scope is declared on the schema
// root under a fresh prefix; that write requires an open transaction.
func RefString(owner *Component, namespace, local string) (string, error) {
	m := owner.model
	doc := m.doc
	if namespace == "" {
		if def, ok := doc.LookupNamespace(owner.node, ""); ok && def != "" {
			if err := m.requireTx(); err != nil {
				return "", err
			}
			if err := doc.DeclareNamespace(owner.node, "", ""); err != nil {
				return "", err
			}
		}
		return local, nil
	}
	if p, ok := doc.LookupPrefix(owner.node, namespace); ok {
		return qualified(p, local), nil
	}
	if err := m.requireTx(); err != nil {
		return "", err
	}
	root := doc.Root()
	if root == markup.InvalidNode {
		root = owner.node
	}
	prefix := freePrefix(doc)
	if err := doc.DeclareNamespace(root, prefix, namespace); err != nil {
		return "", err
	}
	return qualified(prefix, local), nil
}

// freePrefix picks the first nsN not declared anywhere in doc, so no
// nested declaration can shadow the new binding. One of the first
// len(taken)+1 candidates is always free.
func freePrefix(doc *markup.Document) string {
	taken := doc.DeclaredPrefixes()
	for i := 1; i <= len(taken); i++ {
		p := "ns" + strconv.Itoa(i)
		if _, ok := taken[p]; !ok {
			return p
		}
	}
	return "ns" + strconv.Itoa(len(taken)+1)
}
