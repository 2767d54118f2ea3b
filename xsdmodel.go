// Package xsdmodel exposes a live component model of XML Schema documents.
// Each schema document is a Model whose Components stay in sync with the
// underlying markup; references between components resolve across
// documents through a Registry.
package xsdmodel

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	xsderrors "github.com/jacoelho/xsdmodel/errors"
	"github.com/jacoelho/xsdmodel/internal/attrs"
	"github.com/jacoelho/xsdmodel/internal/catalog"
	"github.com/jacoelho/xsdmodel/internal/kind"
	"github.com/jacoelho/xsdmodel/internal/model"
	"github.com/jacoelho/xsdmodel/internal/registry"
)

type (
	Model        = model.Model
	Component    = model.Component
	Reference    = model.Reference
	QName        = model.QName
	RefState     = model.RefState
	Signal       = model.Signal
	SignalKind   = model.SignalKind
	Listener     = model.Listener
	Subscription = model.Subscription
	Factory      = model.Factory
	Kind         = kind.Kind
	Attribute    = attrs.Name
	Value        = attrs.Value
	Registry     = registry.Registry
	CatalogEntry = catalog.Entry
	Error        = xsderrors.Error
)

// LoadOptions configures a registry.
type LoadOptions struct {
	// Catalog maps import namespaces to documents.
	Catalog []CatalogEntry
	// NegativeTTL bounds how long failed directive resolutions are cached.
	NegativeTTL time.Duration
	Logger      *zap.Logger
	Registerer  prometheus.Registerer
}

// Open creates a registry over fsys. Documents are loaded on first use.
func Open(fsys fs.FS, opts LoadOptions) (*Registry, error) {
	return registry.New(registry.Options{
		FS:          fsys,
		Catalog:     opts.Catalog,
		NegativeTTL: opts.NegativeTTL,
		Logger:      opts.Logger,
		Registerer:  opts.Registerer,
	})
}

// Load opens a registry over fsys and loads the document at location.
func Load(ctx context.Context, fsys fs.FS, location string) (*Model, *Registry, error) {
	return LoadWithOptions(ctx, fsys, location, LoadOptions{})
}

// LoadWithOptions is Load with explicit configuration.
func LoadWithOptions(ctx context.Context, fsys fs.FS, location string, opts LoadOptions) (*Model, *Registry, error) {
	reg, err := Open(fsys, opts)
	if err != nil {
		return nil, nil, err
	}
	m, err := reg.Load(ctx, location)
	if err != nil {
		reg.Close()
		return nil, nil, fmt.Errorf("load schema %s: %w", location, err)
	}
	return m, reg, nil
}

// LoadFile loads a schema from a file path; sibling documents are
// reachable through relative schema locations.
func LoadFile(ctx context.Context, path string) (*Model, *Registry, error) {
	return LoadWithOptions(ctx, os.DirFS(filepath.Dir(path)), filepath.Base(path), LoadOptions{})
}

// FindUsages returns the references under roots that resolve to target.
func FindUsages(target *Component, roots ...*Component) []*Reference {
	return model.FindUsages(target, roots...)
}

// Rename renames target and rewrites every reference to it under roots.
func Rename(target *Component, newName string, roots ...*Component) (int, error) {
	return model.Rename(target, newName, roots...)
}
