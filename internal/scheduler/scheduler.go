// Package scheduler implements the cooperative, single-threaded delegate
// scheduler (§4.8): a Registrar owns an ordered list of Delegates, each
// declaring owner-type dependencies, and drives them to quiescence one
// cycle at a time.
package scheduler

import (
	"context"
	"errors"
	"sync"
)

// OwnerType tags which core component a Delegate belongs to, used to
// resolve dependency edges between delegates.
type OwnerType string

// ErrDependencyCycle is returned by RunOnce/Run when the registered
// delegates' dependency graph is not a DAG.
var ErrDependencyCycle = errors.New("scheduler: delegate dependencies form a cycle")

// Delegate is one unit of cooperative work. Ready and Execute are
// supplied by the delegate's host (e.g. the Authorized Processor or the
// Tracking Service); DependsOn names owner types that must run earlier in
// the same cycle. A dependency naming an owner type with no registered
// delegate (e.g. an external Bootstrap Service) is purely documentary —
// it constrains nothing the registrar can enforce.
type Delegate struct {
	Owner     OwnerType
	Ready     func() bool
	Execute   func() int
	DependsOn []OwnerType
}

// Registrar holds every registered delegate and runs them in topological
// order each cycle.
type Registrar struct {
	mu          sync.Mutex
	delegates   []*Delegate
	cachedOrder []*Delegate
}

// NewRegistrar returns an empty registrar.
func NewRegistrar() *Registrar {
	return &Registrar{}
}

// Register appends a delegate to the registrar, invalidating any cached
// run order.
func (r *Registrar) Register(d *Delegate) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.delegates = append(r.delegates, d)
	r.cachedOrder = nil
}

// RunOnce walks the delegate list in topological order, invoking Execute
// on every delegate whose Ready callback reports true, and returns the
// total task count completed this cycle.
func (r *Registrar) RunOnce() (int, error) {
	order, err := r.order()
	if err != nil {
		return 0, err
	}

	completed := 0
	for _, d := range order {
		if d.Ready == nil || !d.Ready() {
			continue
		}
		if d.Execute != nil {
			completed += d.Execute()
		}
	}
	return completed, nil
}

// Run repeats RunOnce until a cycle completes zero tasks, or ctx is
// cancelled between cycles.
func (r *Registrar) Run(ctx context.Context) (int, error) {
	total := 0
	for {
		completed, err := r.RunOnce()
		if err != nil {
			return total, err
		}
		total += completed
		if completed == 0 {
			return total, nil
		}

		select {
		case <-ctx.Done():
			return total, ctx.Err()
		default:
		}
	}
}

// order returns the cached topological run order, computing and caching
// it on first use or after a new Register call.
func (r *Registrar) order() ([]*Delegate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cachedOrder != nil {
		return r.cachedOrder, nil
	}

	order, err := topoSort(r.delegates)
	if err != nil {
		return nil, err
	}
	r.cachedOrder = order
	return order, nil
}

// topoSort orders delegates so every dependency (by owner type) that has
// a registered delegate runs before its dependents, via Kahn's algorithm.
// Registration order breaks ties, keeping the run order deterministic.
func topoSort(delegates []*Delegate) ([]*Delegate, error) {
	byOwner := make(map[OwnerType][]*Delegate)
	for _, d := range delegates {
		byOwner[d.Owner] = append(byOwner[d.Owner], d)
	}

	inDegree := make(map[*Delegate]int, len(delegates))
	adjacency := make(map[*Delegate][]*Delegate)
	for _, d := range delegates {
		inDegree[d] = 0
	}
	for _, d := range delegates {
		for _, dep := range d.DependsOn {
			for _, upstream := range byOwner[dep] {
				adjacency[upstream] = append(adjacency[upstream], d)
				inDegree[d]++
			}
		}
	}

	queue := make([]*Delegate, 0, len(delegates))
	for _, d := range delegates {
		if inDegree[d] == 0 {
			queue = append(queue, d)
		}
	}

	order := make([]*Delegate, 0, len(delegates))
	for len(queue) > 0 {
		d := queue[0]
		queue = queue[1:]
		order = append(order, d)
		for _, next := range adjacency[d] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(order) != len(delegates) {
		return nil, ErrDependencyCycle
	}
	return order, nil
}
