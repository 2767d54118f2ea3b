// Package registry owns the schema models of one workspace: it maps each
// document identity to a single shared model, loads documents through a
// catalog resolver and serves directive resolution for the models it
// creates.
package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/jacoelho/xsdmodel/internal/builtins"
	"github.com/jacoelho/xsdmodel/internal/catalog"
	"github.com/jacoelho/xsdmodel/internal/kind"
	"github.com/jacoelho/xsdmodel/internal/markup"
	"github.com/jacoelho/xsdmodel/internal/metrics"
	"github.com/jacoelho/xsdmodel/internal/model"
)

// Load outcomes recorded in metrics.
const (
	outcomeOK     = "ok"
	outcomeError  = "error"
	outcomeReload = "reload"
	outcomeBroken = "not_well_formed"
)

// DefaultParallelism bounds concurrent loads in Preload and LoadGlob.
const DefaultParallelism = 8

// Options configures a registry.
type Options struct {
	// FS backs the default resolver and LoadGlob. Required unless Resolver
	// is set.
	FS fs.FS
	// Catalog entries consulted for imports before their schemaLocation.
	Catalog []catalog.Entry
	// Resolver overrides the FS based resolver.
	Resolver    catalog.Resolver
	Logger      *zap.Logger
	Registerer  prometheus.Registerer
	NegativeTTL time.Duration
	Clock       func() time.Time
	Parallelism int
}

// Registry implements model.Source.
type Registry struct {
	fsys        fs.FS
	resolver    catalog.Resolver
	logger      *zap.Logger
	metrics     *metrics.Registry
	cache       *metrics.Cache
	ttl         time.Duration
	clock       func() time.Time
	parallelism int

	builtins *model.Model
	loads    singleflight.Group

	mu     sync.Mutex
	models map[string]*model.Model
	closed bool
}

var _ model.Source = (*Registry)(nil)

// ErrClosed is returned by loads on a closed registry.
var ErrClosed = errors.New("registry closed")

// New creates a registry and its built-in types model.
func New(opts Options) (*Registry, error) {
	resolver := opts.Resolver
	if resolver == nil {
		if opts.FS == nil {
			return nil, fmt.Errorf("registry: FS or Resolver is required")
		}
		resolver = catalog.New(catalog.NewFSResolver(opts.FS), opts.Catalog...)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	regMetrics, err := metrics.NewRegistry(opts.Registerer)
	if err != nil {
		return nil, fmt.Errorf("registry metrics: %w", err)
	}
	cacheMetrics, err := metrics.NewCache(opts.Registerer)
	if err != nil {
		return nil, fmt.Errorf("cache metrics: %w", err)
	}
	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}
	r := &Registry{
		fsys:        opts.FS,
		resolver:    resolver,
		logger:      logger.Named("registry"),
		metrics:     regMetrics,
		cache:       cacheMetrics,
		ttl:         opts.NegativeTTL,
		clock:       opts.Clock,
		parallelism: parallelism,
		models:      make(map[string]*model.Model),
	}
	doc, err := builtins.Document()
	if err != nil {
		return nil, fmt.Errorf("builtin types document: %w", err)
	}
	r.builtins = model.New(doc, r.modelOptions(builtins.Identity))
	return r, nil
}

func (r *Registry) modelOptions(identity string) model.Options {
	return model.Options{
		Source:      r,
		Identity:    identity,
		Clock:       r.clock,
		NegativeTTL: r.ttl,
		Logger:      r.logger,
		Metrics:     r.cache,
	}
}

// Builtins implements model.Source.
func (r *Registry) Builtins() *model.Model { return r.builtins }

// Models implements model.Source. Models are ordered by identity.
func (r *Registry) Models() []*model.Model {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := slices.Sorted(maps.Keys(r.models))
	out := make([]*model.Model, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.models[k])
	}
	return out
}

// Get returns the loaded model for identity.
func (r *Registry) Get(identity string) (*model.Model, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.models[identity]
	return m, ok
}

// Load returns the model for the document at location, loading it on first
// use. A document that is not well formed still yields a model, in the
// not-well-formed state, so later reloads can repair it.
func (r *Registry) Load(ctx context.Context, location string) (*model.Model, error) {
	return r.open(ctx, catalog.Request{Location: location})
}

// ResolveDirective implements model.Source.
func (r *Registry) ResolveDirective(ctx context.Context, req model.DirectiveRequest) (*model.Model, error) {
	if req.Kind == kind.Import && req.HasNamespace && req.Namespace == kind.XSDNamespace && req.Location == "" {
		return r.builtins, nil
	}
	return r.open(ctx, catalog.Request{
		Base:         req.Base,
		Location:     req.Location,
		Namespace:    req.Namespace,
		HasNamespace: req.HasNamespace,
		Kind:         req.Kind,
	})
}

func (r *Registry) open(ctx context.Context, req catalog.Request) (*model.Model, error) {
	if r.isClosed() {
		return nil, ErrClosed
	}
	rc, systemID, err := r.resolver.Resolve(ctx, req)
	if err != nil {
		r.metrics.Load(outcomeError)
		return nil, fmt.Errorf("resolve %q from %q: %w", req.Location, req.Base, err)
	}
	if m, ok := r.Get(systemID); ok {
		rc.Close()
		return m, nil
	}
	v, err, _ := r.loads.Do(systemID, func() (any, error) {
		if m, ok := r.Get(systemID); ok {
			return m, nil
		}
		return r.create(systemID, rc)
	})
	rc.Close()
	if err != nil {
		r.metrics.Load(outcomeError)
		return nil, err
	}
	return v.(*model.Model), nil
}

func (r *Registry) create(systemID string, rc io.Reader) (*model.Model, error) {
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", systemID, err)
	}
	doc := markup.NewDocument()
	outcome := outcomeOK
	if err := doc.Sync(data); err != nil {
		outcome = outcomeBroken
		r.logger.Warn("schema document not well formed", zap.String("identity", systemID), zap.Error(err))
	}
	m := model.New(doc, r.modelOptions(systemID))

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		m.Close()
		return nil, ErrClosed
	}
	r.models[systemID] = m
	n := len(r.models)
	r.mu.Unlock()

	r.metrics.Load(outcome)
	r.metrics.SetModels(n)
	r.logger.Debug("schema loaded", zap.String("identity", systemID), zap.Int("bytes", len(data)))
	return m, nil
}

// Reload re-reads identity and syncs its model. The model keeps its
// identity; a parse failure moves it to not-well-formed and is returned.
func (r *Registry) Reload(ctx context.Context, identity string) (*model.Model, error) {
	m, ok := r.Get(identity)
	if !ok {
		return r.Load(ctx, identity)
	}
	rc, _, err := r.resolver.Resolve(ctx, catalog.Request{Location: identity})
	if err != nil {
		r.metrics.Load(outcomeError)
		return m, fmt.Errorf("reload %s: %w", identity, err)
	}
	data, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		r.metrics.Load(outcomeError)
		return m, fmt.Errorf("reload %s: %w", identity, err)
	}
	r.metrics.Load(outcomeReload)
	if err := m.Sync(data); err != nil {
		r.logger.Warn("reloaded schema not well formed", zap.String("identity", identity), zap.Error(err))
		return m, err
	}
	r.logger.Debug("schema reloaded", zap.String("identity", identity))
	return m, nil
}

// Discard closes and forgets the model for identity. Models resolved
// through it drop their cached entries on the resulting validity signal.
func (r *Registry) Discard(identity string) bool {
	r.mu.Lock()
	m, ok := r.models[identity]
	delete(r.models, identity)
	n := len(r.models)
	r.mu.Unlock()
	if !ok {
		return false
	}
	r.metrics.SetModels(n)
	m.Close()
	return true
}

// Close discards every model.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	all := slices.Collect(maps.Values(r.models))
	clear(r.models)
	r.mu.Unlock()
	for _, m := range all {
		m.Close()
	}
	r.builtins.Close()
	r.metrics.SetModels(0)
}

func (r *Registry) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

// LoadGlob loads every file of the registry filesystem matching patterns.
func (r *Registry) LoadGlob(ctx context.Context, patterns ...string) ([]*model.Model, error) {
	if r.fsys == nil {
		return nil, fmt.Errorf("registry has no filesystem")
	}
	paths, err := catalog.Glob(r.fsys, patterns...)
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", strings.Join(patterns, ","), err)
	}
	out := make([]*model.Model, len(paths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallelism)
	for i, p := range paths {
		g.Go(func() error {
			m, err := r.Load(ctx, p)
			if err != nil {
				return err
			}
			out[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Preload resolves the directives of roots and of every model reached
// through them, level by level, and returns the reached models including
// roots. Unresolvable directives are skipped; only context cancellation
// fails the walk.
func (r *Registry) Preload(ctx context.Context, roots ...*model.Model) ([]*model.Model, error) {
	seen := make(map[*model.Model]struct{}, len(roots))
	var reached []*model.Model
	frontier := make([]*model.Model, 0, len(roots))
	for _, m := range roots {
		if _, dup := seen[m]; m == nil || dup {
			continue
		}
		seen[m] = struct{}{}
		reached = append(reached, m)
		frontier = append(frontier, m)
	}
	for len(frontier) > 0 {
		var (
			mu   sync.Mutex
			next []*model.Model
		)
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.parallelism)
		for _, m := range frontier {
			for _, d := range m.Directives() {
				g.Go(func() error {
					if err := gctx.Err(); err != nil {
						return err
					}
					target := m.ResolveDirectiveContext(gctx, d)
					if target == nil {
						return nil
					}
					mu.Lock()
					if _, dup := seen[target]; !dup {
						seen[target] = struct{}{}
						next = append(next, target)
					}
					mu.Unlock()
					return nil
				})
			}
		}
		if err := g.Wait(); err != nil {
			return reached, err
		}
		if err := ctx.Err(); err != nil {
			return reached, err
		}
		slices.SortFunc(next, func(a, b *model.Model) int { return strings.Compare(a.Identity(), b.Identity()) })
		reached = append(reached, next...)
		frontier = next
	}
	return reached, nil
}
