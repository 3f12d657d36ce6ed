// Package overlay is the core of the module: the shared-timer registry, the
// overlay instance lifecycle, the control dispatcher and the per-frame render
// step, plus the manager and HTTP handler the preview host drives them
// through.
package overlay

import (
	"log/slog"
	"sync"

	"timer-overlay/internal/timing"
)

// Registry hands out shared timers keyed by splits path, so every instance
// configured with the same splits file drives the same timer.
//
// The registry itself never owns a timer: each entry tracks how many
// TimerHandle owners are alive, and entries with no owners are pruned before
// every lookup so a dead identity can be legitimately re-created instead of
// resurrected. One mutex covers the whole prune+lookup+insert sequence; that
// is what guarantees at most one live timer per path even when two instances
// resolve a brand-new path at the same time. No I/O happens under the lock;
// callers parse run data first.
type Registry struct {
	mu      sync.Mutex
	log     *slog.Logger
	entries []*registryEntry
}

type registryEntry struct {
	path   string
	timer  *timing.Timer
	owners int // guarded by Registry.mu
}

// TimerHandle is an owning reference to a shared timer. The timer stays
// resolvable under its path for as long as at least one handle is unreleased.
type TimerHandle struct {
	reg      *Registry
	entry    *registryEntry // nil for fallback timers, which are never registered
	timer    *timing.Timer
	released bool // guarded by reg.mu
}

// NewRegistry returns an empty registry.
func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{log: log}
}

// Resolve returns an owning handle for the timer registered under path,
// creating and registering one from run on a miss. If timer construction
// fails the registry is left untouched and the caller gets an unregistered
// fallback timer built from the default run.
func (r *Registry) Resolve(path string, run *timing.Run) *TimerHandle {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pruneLocked()

	for _, e := range r.entries {
		if e.path == path {
			r.log.Debug("reusing shared timer", slog.String("splits_path", path), slog.Int("owners", e.owners+1))
			e.owners++
			return &TimerHandle{reg: r, entry: e, timer: e.timer}
		}
	}

	t, err := timing.NewTimer(run)
	if err != nil {
		r.log.Warn("timer construction failed, using unregistered fallback",
			slog.String("splits_path", path), slog.String("error", err.Error()))
		fallback, _ := timing.NewTimer(timing.DefaultRun())
		return &TimerHandle{reg: r, timer: fallback}
	}

	r.log.Debug("storing timer for reuse", slog.String("splits_path", path))
	e := &registryEntry{path: path, timer: t, owners: 1}
	r.entries = append(r.entries, e)
	return &TimerHandle{reg: r, entry: e, timer: t}
}

func (r *Registry) pruneLocked() {
	live := r.entries[:0]
	for _, e := range r.entries {
		if e.owners > 0 {
			live = append(live, e)
		}
	}
	for i := len(live); i < len(r.entries); i++ {
		r.entries[i] = nil
	}
	r.entries = live
}

// SharedCount returns the number of live shared timers.
func (r *Registry) SharedCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()
	return len(r.entries)
}

// Owners returns the owner count for path, or 0 if no live timer is
// registered under it.
func (r *Registry) Owners(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.path == path {
			return e.owners
		}
	}
	return 0
}

// Timer returns the shared timer this handle owns a reference to. Valid even
// after Release; releasing only gives up the ownership share.
func (h *TimerHandle) Timer() *timing.Timer {
	return h.timer
}

// Release gives up this handle's ownership share. Idempotent. The timer stays
// alive for as long as another handle still owns it; once the last owner
// releases, the registry prunes the entry on its next resolve.
func (h *TimerHandle) Release() {
	h.reg.mu.Lock()
	defer h.reg.mu.Unlock()
	if h.released {
		return
	}
	h.released = true
	if h.entry != nil {
		h.entry.owners--
	}
}
