package overlay

import (
	"errors"

	"timer-overlay/internal/timing"
)

// The nine named hotkey actions an instance registers with the host.
const (
	ActionSplit              = "split"
	ActionReset              = "reset"
	ActionUndo               = "undo"
	ActionSkip               = "skip"
	ActionPause              = "pause"
	ActionUndoAllPauses      = "undo_all_pauses"
	ActionPreviousComparison = "previous_comparison"
	ActionNextComparison     = "next_comparison"
	ActionToggleTimingMethod = "toggle_timing_method"
)

// ErrUnknownAction is returned for a hotkey name outside the registered set.
var ErrUnknownAction = errors.New("unknown hotkey action")

// HotkeyActions lists the hotkey action names in registration order.
func HotkeyActions() []string {
	return []string{
		ActionSplit,
		ActionReset,
		ActionUndo,
		ActionSkip,
		ActionPause,
		ActionUndoAllPauses,
		ActionPreviousComparison,
		ActionNextComparison,
		ActionToggleTimingMethod,
	}
}

// Hotkey dispatches one named hotkey action onto the shared timer. Actions
// that are meaningless in the timer's current phase are absorbed by the timer
// itself; only an unknown action name is an error.
func (inst *Instance) Hotkey(action string) error {
	t := inst.Timer()
	switch action {
	case ActionSplit:
		t.SplitOrStart()
	case ActionReset:
		t.Reset(true)
	case ActionUndo:
		t.UndoSplit()
	case ActionSkip:
		t.SkipSplit()
	case ActionPause:
		t.TogglePauseOrStart()
	case ActionUndoAllPauses:
		t.UndoAllPauses()
	case ActionPreviousComparison:
		t.SwitchToPreviousComparison()
	case ActionNextComparison:
		t.SwitchToNextComparison()
	case ActionToggleTimingMethod:
		t.ToggleTimingMethod()
	default:
		return ErrUnknownAction
	}
	return nil
}

// MediaPlayPause forwards the host's play/pause transport event.
func (inst *Instance) MediaPlayPause(pause bool) {
	inst.Timer().PlayPause(pause)
}

// MediaRestart force-resets the timer and starts a fresh attempt.
func (inst *Instance) MediaRestart() {
	inst.Timer().Restart()
}

// MediaStop force-resets the timer.
func (inst *Instance) MediaStop() {
	inst.Timer().Reset(true)
}

// MediaNext splits.
func (inst *Instance) MediaNext() {
	inst.Timer().Split()
}

// MediaPrevious undoes the last split.
func (inst *Instance) MediaPrevious() {
	inst.Timer().UndoSplit()
}

// MediaState maps the timer phase onto the host's media-state vocabulary.
func (inst *Instance) MediaState() string {
	switch inst.Timer().Phase() {
	case timing.PhaseRunning:
		return "playing"
	case timing.PhasePaused:
		return "paused"
	case timing.PhaseEnded:
		return "ended"
	}
	return "stopped"
}

// MediaTimeMillis returns the elapsed attempt time in whole milliseconds.
func (inst *Instance) MediaTimeMillis() int64 {
	return inst.Timer().CurrentTime().Milliseconds()
}

// MediaDurationMillis returns the target total duration (the final segment's
// personal best) in whole milliseconds, or 0 when none is recorded.
func (inst *Instance) MediaDurationMillis() int64 {
	return inst.Timer().TargetDuration().Milliseconds()
}

// Wheel maps a mouse-wheel delta onto layout scrolling: negative scrolls
// down, positive scrolls up, zero does nothing. The timer is never touched.
func (inst *Instance) Wheel(delta int) {
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if inst.destroyed {
		return
	}
	switch {
	case delta < 0:
		inst.layout.ScrollDown()
	case delta > 0:
		inst.layout.ScrollUp()
	}
}
