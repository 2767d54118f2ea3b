package catalog

import (
	"context"
	"errors"
	"io"
	"io/fs"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/jacoelho/xsdmodel/internal/kind"
)

// Entry maps a namespace to a document location relative to the catalog
// root.
type Entry struct {
	Namespace string `yaml:"namespace"`
	Location  string `yaml:"location"`
}

// Catalog resolves imports by namespace before falling back to the
// written schemaLocation.
type Catalog struct {
	byNamespace map[string]string
	next        Resolver
}

// New builds a catalog in front of next.
func New(next Resolver, entries ...Entry) *Catalog {
	c := &Catalog{byNamespace: make(map[string]string, len(entries)), next: next}
	for _, e := range entries {
		if _, dup := c.byNamespace[e.Namespace]; !dup {
			c.byNamespace[e.Namespace] = e.Location
		}
	}
	return c
}

// Lookup returns the catalog location for namespace.
func (c *Catalog) Lookup(namespace string) (string, bool) {
	loc, ok := c.byNamespace[namespace]
	return loc, ok
}

// Resolve implements Resolver. An import whose namespace has an entry is
// served from the entry; every other request, and any entry whose
// document is missing, goes to the next resolver.
func (c *Catalog) Resolve(ctx context.Context, req Request) (io.ReadCloser, string, error) {
	if req.Kind == kind.Import && req.HasNamespace {
		if loc, ok := c.byNamespace[req.Namespace]; ok {
			doc, id, err := c.next.Resolve(ctx, Request{Location: loc, Namespace: req.Namespace, HasNamespace: true, Kind: req.Kind})
			if err == nil || !errors.Is(err, fs.ErrNotExist) {
				return doc, id, err
			}
		}
	}
	return c.next.Resolve(ctx, req)
}

// Glob returns the files of fsys matching any of patterns, each once, in
// match order. Patterns use doublestar syntax ("schemas/**/*.xsd").
func Glob(fsys fs.FS, patterns ...string) ([]string, error) {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return nil, doublestar.ErrBadPattern
		}
		matches, err := doublestar.Glob(fsys, p, doublestar.WithFilesOnly())
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	return out, nil
}
