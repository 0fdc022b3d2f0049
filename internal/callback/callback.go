// Package callback implements the interests/callback registry spec.md
// 4.3.5 and Design Notes 9 describe: a registry of named, asynchronous
// handlers invoked after a category's value changes. Design Notes 9
// re-architects "import a named module and call its async entry point"
// as a registry of registered callback values keyed by a string
// identifier; dynamic module loading becomes one optional backend
// (RegisterExternal, shelling out via os/exec) rather than the only one.
package callback

import (
	"context"
	"fmt"
	"os/exec"
	"sync"

	"github.com/edgeplane/corectl/internal/corerr"
	"github.com/edgeplane/corectl/internal/storage"
)

// Func is an in-process callback: invoked with the category name that
// changed.
type Func func(ctx context.Context, category string) error

// Registry maps category name -> set of callback identifiers, and
// callback identifier -> invocable handler.
type Registry struct {
	mu        sync.RWMutex
	interests map[string]map[string]struct{} // category -> set of callback ids
	handlers  map[string]Func
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		interests: make(map[string]map[string]struct{}),
		handlers:  make(map[string]Func),
	}
}

// Register associates callback id with an in-process handler.
func (r *Registry) Register(id string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[id] = fn
}

// RegisterExternal associates callback id with an external program: the
// dynamic-module-loading escape hatch Design Notes 9 allows. The program
// runs as argv[0] with argv[1:] followed by the category name as its
// arguments; a nonzero exit is treated as callback failure.
func (r *Registry) RegisterExternal(id string, argv []string) {
	r.Register(id, func(ctx context.Context, category string) error {
		if len(argv) == 0 {
			return fmt.Errorf("callback %q: empty argv", id)
		}
		args := append(append([]string{}, argv[1:]...), category)
		cmd := exec.CommandContext(ctx, argv[0], args...)
		return cmd.Run()
	})
}

// Interest registers category as something callback id cares about.
func (r *Registry) Interest(category, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.interests[category]
	if !ok {
		set = make(map[string]struct{})
		r.interests[category] = set
	}
	set[id] = struct{}{}
}

// RemoveInterest drops a previously registered interest.
func (r *Registry) RemoveInterest(category, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.interests[category]; ok {
		delete(set, id)
	}
}

// Interests returns the callback ids currently registered for category.
func (r *Registry) Interests(category string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.interests[category]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// Load restores every persisted subscription into the in-memory registry,
// the interests table's reason for existing (spec.md 4.8 supplement: a
// restarting daemon would otherwise forget who cares about what). An
// interest recorded with an argv is fully self-contained: Load rebuilds its
// external handler via RegisterExternal before reattaching the
// subscription. An interest with no argv was backed by an in-process
// handler, which Load cannot reconstruct; callers must Register that id
// again before relying on Notify.
func (r *Registry) Load(ctx context.Context, db storage.Storage) error {
	all, err := db.AllInterests(ctx)
	if err != nil {
		return fmt.Errorf("load interests: %w", err)
	}
	for _, in := range all {
		if len(in.Argv) > 0 {
			r.RegisterExternal(in.CallbackID, in.Argv)
		}
		r.Interest(in.Category, in.CallbackID)
	}
	return nil
}

// Persist registers category as an interest of id and writes the
// subscription to db so it survives a daemon restart. argv is recorded
// alongside it so a future Load can rebuild the same external handler;
// pass nil when id names an in-process handler instead.
func (r *Registry) Persist(ctx context.Context, db storage.Storage, category, id string, argv []string) error {
	if err := db.PutInterest(ctx, category, id, argv); err != nil {
		return fmt.Errorf("persist interest %s/%s: %w", category, id, err)
	}
	r.Interest(category, id)
	return nil
}

// RemovePersisted drops a previously persisted interest from both storage
// and the in-memory registry.
func (r *Registry) RemovePersisted(ctx context.Context, db storage.Storage, category, id string) error {
	if err := db.RemoveInterest(ctx, category, id); err != nil {
		return fmt.Errorf("remove persisted interest %s/%s: %w", category, id, err)
	}
	r.RemoveInterest(category, id)
	return nil
}

// Notify invokes every callback interested in category, after the
// storage write for that category's value has already succeeded
// (spec.md 4.3.5). A callback that cannot be resolved or fails surfaces
// a CallbackError to the caller; the configuration change itself is
// never rolled back (spec.md 7).
func (r *Registry) Notify(ctx context.Context, category string) error {
	r.mu.RLock()
	ids := make([]string, 0, len(r.interests[category]))
	for id := range r.interests[category] {
		ids = append(ids, id)
	}
	handlers := r.handlers
	r.mu.RUnlock()

	for _, id := range ids {
		fn, ok := handlers[id]
		if !ok {
			return corerr.Callback(id, fmt.Errorf("callback not registered"))
		}
		if err := fn(ctx, category); err != nil {
			return corerr.Callback(id, err)
		}
	}
	return nil
}
