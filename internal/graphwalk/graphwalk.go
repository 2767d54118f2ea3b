// Package graphwalk traverses directed graphs with an explicit visited set,
// so nodes reachable through several paths or through cycles are visited
// once.
package graphwalk

// Config configures a traversal.
type Config[K comparable] struct {
	// Next returns the successors of a node in traversal order.
	Next func(K) []K
	// Visit is called once per reached node in depth-first preorder.
	// Returning false stops the whole traversal.
	Visit func(K) bool
	// Starts are visited in order.
	Starts []K
}

// Walk runs a depth-first traversal and reports whether it ran to
// completion (false when Visit stopped it).
func Walk[K comparable](cfg Config[K]) bool {
	visited := make(map[K]struct{}, len(cfg.Starts))
	var stack stack[K]
	for i := len(cfg.Starts) - 1; i >= 0; i-- {
		stack.push(cfg.Starts[i])
	}
	for {
		key, ok := stack.pop()
		if !ok {
			return true
		}
		if _, seen := visited[key]; seen {
			continue
		}
		visited[key] = struct{}{}
		if cfg.Visit != nil && !cfg.Visit(key) {
			return false
		}
		if cfg.Next == nil {
			continue
		}
		succ := cfg.Next(key)
		for i := len(succ) - 1; i >= 0; i-- {
			if _, seen := visited[succ[i]]; !seen {
				stack.push(succ[i])
			}
		}
	}
}

// Reachable returns every node reachable from starts, starts included, in
// visit order.
func Reachable[K comparable](next func(K) []K, starts ...K) []K {
	var out []K
	Walk(Config[K]{
		Starts: starts,
		Next:   next,
		Visit: func(k K) bool {
			out = append(out, k)
			return true
		},
	})
	return out
}

// Find returns the first node in depth-first preorder matching pred.
func Find[K comparable](next func(K) []K, pred func(K) bool, starts ...K) (K, bool) {
	var found K
	ok := false
	Walk(Config[K]{
		Starts: starts,
		Next:   next,
		Visit: func(k K) bool {
			if pred(k) {
				found, ok = k, true
				return false
			}
			return true
		},
	})
	return found, ok
}

type visitState uint8

const (
	stateVisiting visitState = iota + 1
	stateDone
)

// CycleError reports a cycle through Key.
type CycleError[K comparable] struct {
	Key K
}

// Error returns the error string.
func (e CycleError[K]) Error() string {
	return "cycle detected"
}

// DetectCycle reports the first node found on a cycle reachable from starts.
func DetectCycle[K comparable](next func(K) []K, starts ...K) error {
	states := make(map[K]visitState, len(starts))
	var visit func(key K) error
	visit = func(key K) error {
		switch states[key] {
		case stateVisiting:
			return CycleError[K]{Key: key}
		case stateDone:
			return nil
		}
		states[key] = stateVisiting
		for _, n := range next(key) {
			if err := visit(n); err != nil {
				return err
			}
		}
		states[key] = stateDone
		return nil
	}
	for _, s := range starts {
		if err := visit(s); err != nil {
			return err
		}
	}
	return nil
}

type stack[T any] struct {
	items []T
}

func (s *stack[T]) push(v T) {
	s.items = append(s.items, v)
}

func (s *stack[T]) pop() (T, bool) {
	var zero T
	if len(s.items) == 0 {
		return zero, false
	}
	last := len(s.items) - 1
	v := s.items[last]
	s.items = s.items[:last]
	return v, true
}
