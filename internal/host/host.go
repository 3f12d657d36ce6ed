// Package host defines the resource boundary toward the compositing host:
// render targets an overlay instance draws into. The Graphics interface
// mirrors the host's texture API; Memory is the in-process implementation
// used by the preview host and by tests.
package host

import (
	"errors"
	"sync"
)

var (
	// ErrInvalidSize is returned when a target is requested with
	// non-positive dimensions.
	ErrInvalidSize = errors.New("render target dimensions must be positive")

	// ErrSizeMismatch is returned when an uploaded buffer does not match
	// the target's dimensions.
	ErrSizeMismatch = errors.New("pixel buffer does not match target size")

	// ErrTargetDestroyed is returned when uploading to a destroyed target.
	ErrTargetDestroyed = errors.New("render target destroyed")
)

// Target is a handle to one host-owned render surface.
type Target interface {
	Size() (width, height int)
}

// Graphics creates, destroys and fills render targets.
// Implementations must allow UploadPixels concurrently with target
// creation/destruction of other targets.
type Graphics interface {
	CreateTarget(width, height int) (Target, error)
	DestroyTarget(t Target)
	UploadPixels(t Target, pix []byte, stride int) error
}

// Memory is an in-process Graphics keeping each target's pixels in a plain
// buffer, readable back for previews and assertions.
type Memory struct {
	mu   sync.Mutex
	live map[*MemoryTarget]struct{}
}

// NewMemory returns an empty in-memory graphics device.
func NewMemory() *Memory {
	return &Memory{live: make(map[*MemoryTarget]struct{})}
}

// MemoryTarget is a Memory render surface.
type MemoryTarget struct {
	mu        sync.Mutex
	width     int
	height    int
	pix       []byte
	destroyed bool
}

// Size returns the target dimensions.
func (t *MemoryTarget) Size() (int, int) {
	return t.width, t.height
}

// SnapshotPixels returns a copy of the last uploaded frame.
func (t *MemoryTarget) SnapshotPixels() (pix []byte, width, height int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	cp := make([]byte, len(t.pix))
	copy(cp, t.pix)
	return cp, t.width, t.height
}

// CreateTarget implements Graphics.
func (m *Memory) CreateTarget(width, height int) (Target, error) {
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidSize
	}
	t := &MemoryTarget{width: width, height: height, pix: make([]byte, width*height*4)}
	m.mu.Lock()
	m.live[t] = struct{}{}
	m.mu.Unlock()
	return t, nil
}

// DestroyTarget implements Graphics. Destroying an unknown or already
// destroyed target is a no-op.
func (m *Memory) DestroyTarget(t Target) {
	mt, ok := t.(*MemoryTarget)
	if !ok {
		return
	}
	m.mu.Lock()
	delete(m.live, mt)
	m.mu.Unlock()
	mt.mu.Lock()
	mt.destroyed = true
	mt.mu.Unlock()
}

// UploadPixels implements Graphics. The buffer must cover exactly the
// target's dimensions at the given stride.
func (m *Memory) UploadPixels(t Target, pix []byte, stride int) error {
	mt, ok := t.(*MemoryTarget)
	if !ok {
		return ErrTargetDestroyed
	}
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if mt.destroyed {
		return ErrTargetDestroyed
	}
	rowBytes := mt.width * 4
	if stride < rowBytes || len(pix) < stride*(mt.height-1)+rowBytes {
		return ErrSizeMismatch
	}
	for y := 0; y < mt.height; y++ {
		copy(mt.pix[y*rowBytes:(y+1)*rowBytes], pix[y*stride:y*stride+rowBytes])
	}
	return nil
}

// LiveTargets returns the number of targets created and not yet destroyed.
func (m *Memory) LiveTargets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.live)
}
