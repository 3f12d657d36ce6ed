package overlay

import (
	"errors"
	"log/slog"
	"sync"

	"timer-overlay/internal/host"
	"timer-overlay/internal/layout"
	"timer-overlay/internal/render"
	"timer-overlay/internal/splits"
	"timer-overlay/internal/timing"
)

// Host-side defaults when a config leaves the canvas size unset.
const (
	DefaultWidth  = 300
	DefaultHeight = 500
)

var (
	// ErrInstanceDestroyed is returned by operations on a destroyed instance.
	ErrInstanceDestroyed = errors.New("overlay instance destroyed")

	// ErrFrameSkipped is returned by Render when the frame was dropped
	// because the render target changed underneath it.
	ErrFrameSkipped = errors.New("frame skipped: render target changed during render")
)

// AutoSplitter is the optional auto-splitting capability. Absent by default;
// the host attaches one through Config when a script is configured.
type AutoSplitter interface {
	Attach(t *timing.Timer) error
	Detach()
}

// Config is one instance's host-supplied configuration.
type Config struct {
	SplitsPath   string
	LayoutPath   string
	Width        int
	Height       int
	AutoSplitter AutoSplitter
}

// Instance is one host-created overlay: a render target, a layout, and an
// owning reference to the shared timer resolved from its splits path.
//
// The host calls into an instance from its UI thread (Update, Destroy,
// control events) and from its render thread (Render) concurrently. The
// instance mutex serializes access to instance-local state, most importantly
// the render-target swap on resize: a concurrent Render sees either the fully
// old or the fully new target, never a half-built one. The timer itself has
// its own reader/writer lock and is deliberately not covered by the instance
// mutex, so control events on a shared timer never stall another instance's
// frame.
type Instance struct {
	log *slog.Logger
	reg *Registry
	gfx host.Graphics

	mu         sync.Mutex
	destroyed  bool
	splitsPath string
	canSave    bool
	handle     *TimerHandle
	layout     *layout.Layout
	state      layout.State
	renderer   *render.Renderer
	target     host.Target
	width      int
	height     int
	splitter   AutoSplitter
}

// resolved is the outcome of parsing one Config, done before any lock is
// taken: Create and Update must not hold the registry or instance lock while
// reading files.
type resolved struct {
	run        *timing.Run
	splitsPath string
	canSave    bool
	layout     *layout.Layout
	width      int
	height     int
}

func resolveConfig(cfg Config, log *slog.Logger) resolved {
	out := resolved{splitsPath: cfg.SplitsPath, width: cfg.Width, height: cfg.Height}

	run, canSave, err := splits.Load(cfg.SplitsPath)
	if err != nil {
		log.Warn("splits unavailable, using default run",
			slog.String("splits_path", cfg.SplitsPath), slog.String("error", err.Error()))
		run, canSave = timing.DefaultRun(), false
	}
	out.run, out.canSave = run, canSave

	out.layout = layout.Default()
	if cfg.LayoutPath != "" {
		if l, err := layout.Load(cfg.LayoutPath); err == nil {
			out.layout = l
		} else {
			log.Warn("layout unavailable, using default layout",
				slog.String("layout_path", cfg.LayoutPath), slog.String("error", err.Error()))
		}
	}

	if out.width <= 0 {
		out.width = DefaultWidth
	}
	if out.height <= 0 {
		out.height = DefaultHeight
	}
	return out
}

// NewInstance creates an Active instance from cfg. Configuration problems
// degrade to documented defaults; only render-target allocation can fail.
func NewInstance(cfg Config, reg *Registry, gfx host.Graphics, log *slog.Logger) (*Instance, error) {
	res := resolveConfig(cfg, log)
	handle := reg.Resolve(res.splitsPath, res.run)

	target, err := gfx.CreateTarget(res.width, res.height)
	if err != nil {
		handle.Release()
		return nil, err
	}

	inst := &Instance{
		log:        log,
		reg:        reg,
		gfx:        gfx,
		splitsPath: res.splitsPath,
		canSave:    res.canSave,
		handle:     handle,
		layout:     res.layout,
		renderer:   render.New(),
		target:     target,
		width:      res.width,
		height:     res.height,
	}

	if cfg.AutoSplitter != nil {
		if err := cfg.AutoSplitter.Attach(handle.Timer()); err != nil {
			log.Warn("auto splitter attach failed", slog.String("error", err.Error()))
		} else {
			inst.splitter = cfg.AutoSplitter
		}
	}

	log.Info("overlay instance created",
		slog.String("splits_path", res.splitsPath),
		slog.Int("width", res.width), slog.Int("height", res.height))
	return inst, nil
}

// Update applies a new configuration to an Active instance. The timer is
// re-resolved and swapped only when it actually changed; the render target is
// rebuilt only when the size changed. Identical configuration is a no-op
// beyond re-reading the files.
func (inst *Instance) Update(cfg Config) error {
	res := resolveConfig(cfg, inst.log)
	handle := inst.reg.Resolve(res.splitsPath, res.run)

	inst.mu.Lock()
	defer inst.mu.Unlock()
	if inst.destroyed {
		handle.Release()
		return ErrInstanceDestroyed
	}

	if handle.Timer() == inst.handle.Timer() {
		// Same shared timer; drop the duplicate ownership share.
		handle.Release()
	} else {
		old := inst.handle
		inst.handle = handle
		old.Release()
		if inst.splitter != nil {
			inst.splitter.Detach()
			if err := inst.splitter.Attach(handle.Timer()); err != nil {
				inst.log.Warn("auto splitter re-attach failed", slog.String("error", err.Error()))
				inst.splitter = nil
			}
		}
	}

	inst.splitsPath = res.splitsPath
	inst.canSave = res.canSave
	inst.layout = res.layout

	if res.width != inst.width || res.height != inst.height {
		target, err := inst.gfx.CreateTarget(res.width, res.height)
		if err != nil {
			return err
		}
		old := inst.target
		inst.target = target
		inst.width = res.width
		inst.height = res.height
		inst.gfx.DestroyTarget(old)
	}

	inst.log.Info("overlay instance updated",
		slog.String("splits_path", res.splitsPath),
		slog.Int("width", res.width), slog.Int("height", res.height))
	return nil
}

// Destroy releases the render target and this instance's share of the shared
// timer. The timer survives only while another instance still owns it.
// Idempotent.
func (inst *Instance) Destroy() {
	inst.mu.Lock()
	if inst.destroyed {
		inst.mu.Unlock()
		return
	}
	inst.destroyed = true
	target := inst.target
	inst.target = nil
	handle := inst.handle
	splitter := inst.splitter
	inst.splitter = nil
	path := inst.splitsPath
	inst.mu.Unlock()

	if splitter != nil {
		splitter.Detach()
	}
	inst.gfx.DestroyTarget(target)
	handle.Release()
	inst.log.Info("overlay instance destroyed", slog.String("splits_path", path))
}

// Size returns the instance's current canvas size.
func (inst *Instance) Size() (width, height int) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.width, inst.height
}

// Timer returns the shared timer the instance currently drives.
func (inst *Instance) Timer() *timing.Timer {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.handle.Timer()
}

// Render produces one frame: snapshot the timer, derive visual state,
// rasterize, upload into the render target. It never mutates the timer.
// A frame caught by a concurrent resize is dropped (ErrFrameSkipped) rather
// than uploaded into a target of the wrong size.
func (inst *Instance) Render() error {
	inst.mu.Lock()
	if inst.destroyed {
		inst.mu.Unlock()
		return ErrInstanceDestroyed
	}
	snap := inst.handle.Timer().Snapshot()
	inst.layout.UpdateState(snap, &inst.state)
	frame := inst.renderer.Render(&inst.state, inst.width, inst.height)
	target := inst.target
	inst.mu.Unlock()

	// The target may have been swapped between rasterization and upload.
	// Re-read it and drop the frame on any disagreement; the next tick
	// renders at the new size.
	inst.mu.Lock()
	current := inst.target
	w, h := inst.width, inst.height
	inst.mu.Unlock()
	if current != target || w != frame.Width || h != frame.Height {
		return ErrFrameSkipped
	}
	if err := inst.gfx.UploadPixels(current, frame.Pix, frame.Stride); err != nil {
		return ErrFrameSkipped
	}
	return nil
}

// Target returns the current render target, for hosts that read pixels back.
func (inst *Instance) Target() host.Target {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	return inst.target
}

// SaveSplits serializes the timer's run back to the splits file it was loaded
// from. Reports whether a write happened: sources that were not LiveSplit
// files are not save-eligible and the call is a silent no-op.
func (inst *Instance) SaveSplits() (bool, error) {
	inst.mu.Lock()
	canSave := inst.canSave && !inst.destroyed
	path := inst.splitsPath
	var run *timing.Run
	if canSave {
		run = inst.handle.Timer().RunSnapshot()
	}
	inst.mu.Unlock()

	if !canSave {
		return false, nil
	}
	if err := splits.Save(run, path); err != nil {
		return true, err
	}
	inst.log.Info("splits saved", slog.String("splits_path", path))
	return true, nil
}
