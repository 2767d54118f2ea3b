// Package catalog maps directive locations and namespaces to schema
// documents.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/jacoelho/xsdmodel/internal/kind"
)

// ErrNoLocation reports a directive without a location and without a
// catalog entry for its namespace.
var ErrNoLocation = errors.New("no schema location")

// Request describes a document lookup.
type Request struct {
	// Base is the system ID of the document containing the directive.
	Base string
	// Location is the schemaLocation as written, possibly empty.
	Location string
	// Namespace is the import namespace.
	Namespace    string
	HasNamespace bool
	Kind         kind.Kind
}

// Resolver opens schema documents and reports their canonical system IDs.
type Resolver interface {
	Resolve(ctx context.Context, req Request) (doc io.ReadCloser, systemID string, err error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, req Request) (io.ReadCloser, string, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, req Request) (io.ReadCloser, string, error) {
	return f(ctx, req)
}

// FSResolver resolves locations relative to the base document inside an
// fs.FS. Locations must be relative slash paths that stay within the
// filesystem root.
type FSResolver struct {
	fsys fs.FS
}

// NewFSResolver creates a resolver backed by fsys.
func NewFSResolver(fsys fs.FS) *FSResolver {
	return &FSResolver{fsys: fsys}
}

// FS returns the backing filesystem.
func (r *FSResolver) FS() fs.FS { return r.fsys }

// Resolve implements Resolver.
func (r *FSResolver) Resolve(ctx context.Context, req Request) (io.ReadCloser, string, error) {
	if r == nil || r.fsys == nil {
		return nil, "", fmt.Errorf("no filesystem configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	if req.Location == "" {
		return nil, "", ErrNoLocation
	}
	systemID, err := SystemID(req.Base, req.Location)
	if err != nil {
		return nil, "", err
	}
	f, err := r.fsys.Open(systemID)
	if err != nil {
		return nil, "", err
	}
	return f, systemID, nil
}

// SystemID joins location to the directory of base and validates the
// result.
func SystemID(base, location string) (string, error) {
	if strings.Contains(location, "\\") {
		return "", fmt.Errorf("schema location contains backslash: %q", location)
	}
	if strings.HasPrefix(location, "/") {
		return "", fmt.Errorf("schema location must be relative: %q", location)
	}
	if location == "" {
		return "", ErrNoLocation
	}
	if strings.Contains(base, "\\") {
		return "", fmt.Errorf("base system ID contains backslash: %q", base)
	}
	if slices.Contains(strings.Split(location, "/"), "") {
		return "", fmt.Errorf("invalid schema location segment: %q", location)
	}
	joined := path.Clean(location)
	if dir := baseDir(base); dir != "" {
		joined = path.Clean(dir + "/" + location)
	}
	if joined == "." {
		return "", ErrNoLocation
	}
	if joined == ".." || strings.HasPrefix(joined, "../") {
		return "", fmt.Errorf("schema location escapes root: %q", location)
	}
	return joined, nil
}

func baseDir(systemID string) string {
	idx := strings.LastIndex(systemID, "/")
	if idx == -1 {
		return ""
	}
	return systemID[:idx]
}
