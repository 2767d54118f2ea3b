package model

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
	"weak"

	"go.uber.org/zap"

	"github.com/jacoelho/xsdmodel/internal/attrs"
	"github.com/jacoelho/xsdmodel/internal/metrics"
)

const (
	evictInvalid          = "invalid"
	evictNamespace        = "namespace"
	evictDirectiveChanged = "directive-changed"
	evictDirectiveRemoved = "directive-removed"
	evictReplaced         = "replaced"
	evictClosed           = "closed"
)

// refCache remembers which model each directive of the owner resolved to.
// Positive entries hold a subscription on the target that evicts the entry
// when the target becomes invalid or changes namespace; the subscription
// reaches the owner through a weak pointer only. Failed resolutions are
// remembered until ttl elapses.
type refCache struct {
	mu      sync.Mutex
	entries map[directiveKey]*cacheEntry
	ttl     time.Duration
	clock   func() time.Time
	metrics *metrics.Cache
}

type cacheEntry struct {
	target  *Model
	sub     *Subscription
	failed  bool
	expires time.Time
}

func newRefCache(ttl time.Duration, clock func() time.Time, mc *metrics.Cache) *refCache {
	return &refCache{
		entries: make(map[directiveKey]*cacheEntry),
		ttl:     ttl,
		clock:   clock,
		metrics: mc,
	}
}

// lookup returns the cached target. The second result is true for a hit,
// including a live negative entry, whose target is nil.
func (rc *refCache) lookup(key directiveKey) (*Model, bool) {
	rc.mu.Lock()
	e, ok := rc.entries[key]
	if !ok {
		rc.mu.Unlock()
		rc.metrics.Lookup(metrics.ResultMiss)
		return nil, false
	}
	if e.failed {
		if rc.clock().Before(e.expires) {
			rc.mu.Unlock()
			rc.metrics.Lookup(metrics.ResultNegative)
			return nil, true
		}
		delete(rc.entries, key)
		rc.mu.Unlock()
		rc.metrics.Lookup(metrics.ResultStale)
		return nil, false
	}
	if e.target.Valid() {
		rc.mu.Unlock()
		rc.metrics.Lookup(metrics.ResultHit)
		return e.target, true
	}
	delete(rc.entries, key)
	rc.mu.Unlock()
	e.sub.Cancel()
	rc.metrics.Evict(evictInvalid)
	rc.metrics.Lookup(metrics.ResultStale)
	return nil, false
}

func (rc *refCache) store(key directiveKey, e *cacheEntry) {
	rc.mu.Lock()
	old := rc.entries[key]
	rc.entries[key] = e
	rc.mu.Unlock()
	if old != nil {
		old.sub.Cancel()
	}
}

func (rc *refCache) fail(key directiveKey) {
	rc.store(key, &cacheEntry{failed: true, expires: rc.clock().Add(rc.ttl)})
	rc.metrics.Lookup(metrics.ResultFailed)
}

func (rc *refCache) evict(key directiveKey, reason string) bool {
	rc.mu.Lock()
	e, ok := rc.entries[key]
	delete(rc.entries, key)
	rc.mu.Unlock()
	if !ok {
		return false
	}
	e.sub.Cancel()
	rc.metrics.Evict(reason)
	return true
}

func (rc *refCache) clear(reason string) {
	rc.mu.Lock()
	entries := rc.entries
	rc.entries = make(map[directiveKey]*cacheEntry)
	rc.mu.Unlock()
	for _, e := range entries {
		e.sub.Cancel()
		rc.metrics.Evict(reason)
	}
}

func (rc *refCache) len() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return len(rc.entries)
}

// watch subscribes to target on behalf of owner. The listener holds owner
// weakly, and cancels itself once owner is gone.
func watch(owner *Model, key directiveKey, target *Model) *Subscription {
	wp := weak.Make(owner)
	var self atomic.Pointer[Subscription]
	sub := target.Subscribe(func(s Signal) {
		o := wp.Value()
		if o == nil {
			self.Load().Cancel()
			return
		}
		var reason string
		switch s.Kind {
		case SignalValidity:
			if s.New == StateValid.String() {
				return
			}
			reason = evictInvalid
		case SignalTargetNamespace:
			reason = evictNamespace
		default:
			return
		}
		if o.refs.evict(key, reason) {
			o.epoch.Add(1)
			o.logger.Debug("directive target evicted",
				zap.String("reason", reason), zap.String("target", s.Model.Identity()))
		}
	})
	self.Store(sub)
	return sub
}

// ResolveDirectiveContext returns the model d points to, or nil when it
// cannot be resolved. Results are cached per directive; failures are
// retried after the negative TTL.
func (m *Model) ResolveDirectiveContext(ctx context.Context, d *Component) *Model {
	if d == nil || d.model != m || !d.kind.IsDirective() || m.closed.Load() {
		return nil
	}
	key := d.key()
	if target, hit := m.refs.lookup(key); hit {
		return target
	}
	if m.source == nil {
		m.refs.fail(key)
		return nil
	}
	req := DirectiveRequest{Base: m.identity, Kind: d.kind}
	req.Location, _ = d.RawAttr(attrs.SchemaLocation)
	req.Namespace, req.HasNamespace = d.RawAttr(attrs.Namespace)

	target, err := m.source.ResolveDirective(ctx, req)
	if err != nil || target == nil || !target.Valid() {
		m.logger.Debug("directive unresolved",
			zap.Stringer("kind", d.kind), zap.String("location", req.Location), zap.Error(err))
		m.refs.fail(key)
		return nil
	}
	m.refs.store(key, &cacheEntry{target: target, sub: watch(m, key, target)})
	return target
}

// CachedDirectives returns the number of cached directive resolutions,
// positive and negative.
func (m *Model) CachedDirectives() int { return m.refs.len() }

// SubscriberCount returns the number of listeners on m.
func (m *Model) SubscriberCount() int { return m.signals.len() }

func releaseOnCollect(m *Model) {
	runtime.AddCleanup(m, func(rc *refCache) { rc.clear(evictClosed) }, m.refs)
}
