package overlay

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"timer-overlay/internal/host"
	"timer-overlay/internal/platform/metrics"
)

// ErrNoSuchInstance is returned for operations on an unknown instance id.
var ErrNoSuchInstance = errors.New("no such overlay instance")

// Manager owns the live overlay instances, keyed by an explicit instance id
// instead of the raw per-instance pointer the host ABI would use. All
// instances share one registry and one graphics device.
type Manager struct {
	log     *slog.Logger
	reg     *Registry
	gfx     host.Graphics
	metrics *metrics.Metrics // nil disables metric recording

	mu        sync.RWMutex
	nextID    int
	instances map[string]*Instance
}

// NewManager returns an empty manager. m may be nil.
func NewManager(reg *Registry, gfx host.Graphics, log *slog.Logger, m *metrics.Metrics) *Manager {
	return &Manager{
		log:       log,
		reg:       reg,
		gfx:       gfx,
		metrics:   m,
		instances: make(map[string]*Instance),
	}
}

// CreateInstance creates an Active instance from cfg and returns its id.
func (mgr *Manager) CreateInstance(cfg Config) (string, error) {
	inst, err := NewInstance(cfg, mgr.reg, mgr.gfx, mgr.log)
	if err != nil {
		return "", err
	}
	mgr.mu.Lock()
	mgr.nextID++
	id := fmt.Sprintf("overlay-%d", mgr.nextID)
	mgr.instances[id] = inst
	mgr.mu.Unlock()
	return id, nil
}

// UpdateInstance reconfigures the instance with the given id.
func (mgr *Manager) UpdateInstance(id string, cfg Config) error {
	inst, ok := mgr.Get(id)
	if !ok {
		return ErrNoSuchInstance
	}
	return inst.Update(cfg)
}

// DestroyInstance tears down the instance with the given id.
func (mgr *Manager) DestroyInstance(id string) error {
	mgr.mu.Lock()
	inst, ok := mgr.instances[id]
	if ok {
		delete(mgr.instances, id)
	}
	mgr.mu.Unlock()
	if !ok {
		return ErrNoSuchInstance
	}
	inst.Destroy()
	return nil
}

// Get returns the instance with the given id.
func (mgr *Manager) Get(id string) (*Instance, bool) {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()
	inst, ok := mgr.instances[id]
	return inst, ok
}

// InstanceCount returns the number of live instances.
func (mgr *Manager) InstanceCount() int {
	mgr.mu.RLock()
	defer mgr.mu.RUnlock()
	return len(mgr.instances)
}

// SharedTimerCount returns the number of live shared timers.
func (mgr *Manager) SharedTimerCount() int {
	return mgr.reg.SharedCount()
}

// RenderAll renders one frame on every live instance. Instances are copied
// out under the read lock first so a slow rasterization never blocks
// lifecycle calls on the manager.
func (mgr *Manager) RenderAll() {
	mgr.mu.RLock()
	batch := make([]*Instance, 0, len(mgr.instances))
	for _, inst := range mgr.instances {
		batch = append(batch, inst)
	}
	mgr.mu.RUnlock()

	for _, inst := range batch {
		switch err := inst.Render(); {
		case err == nil:
			if mgr.metrics != nil {
				mgr.metrics.IncFramesRendered()
			}
		case errors.Is(err, ErrFrameSkipped):
			mgr.log.Debug("frame dropped", slog.String("error", err.Error()))
			if mgr.metrics != nil {
				mgr.metrics.IncFramesDropped()
			}
		}
	}
}

// Shutdown destroys every live instance.
func (mgr *Manager) Shutdown() {
	mgr.mu.Lock()
	instances := mgr.instances
	mgr.instances = make(map[string]*Instance)
	mgr.mu.Unlock()
	for _, inst := range instances {
		inst.Destroy()
	}
}
