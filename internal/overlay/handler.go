package overlay

import (
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"timer-overlay/internal/platform/metrics"
)

// Handler exposes the overlay host surface over HTTP using go-chi: instance
// lifecycle, hotkey and media-transport control events, mouse wheel, the
// save-splits command and a PNG preview of the last rendered frame.
type Handler struct {
	mgr     *Manager
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewHandler returns a Handler driving the given Manager. Metrics may be nil
// to disable metric recording (e.g. in tests).
func NewHandler(mgr *Manager, log *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{mgr: mgr, log: log, metrics: m}
}

// Routes mounts all handler endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/instances", h.CreateInstance)
	r.Route("/instances/{id}", func(r chi.Router) {
		r.Put("/", h.UpdateInstance)
		r.Delete("/", h.DestroyInstance)
		r.Post("/hotkeys/{action}", h.Hotkey)
		r.Get("/media", h.MediaStatus)
		r.Post("/media/{action}", h.Media)
		r.Post("/wheel", h.Wheel)
		r.Post("/save", h.SaveSplits)
		r.Get("/frame.png", h.FramePNG)
	})
}

// instanceConfig is the JSON shape of create/update requests.
type instanceConfig struct {
	SplitsPath string `json:"splits_path"`
	LayoutPath string `json:"layout_path"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
}

func (c instanceConfig) toConfig() Config {
	return Config{
		SplitsPath: c.SplitsPath,
		LayoutPath: c.LayoutPath,
		Width:      c.Width,
		Height:     c.Height,
	}
}

// CreateInstance handles POST /instances.
// Body: { "splits_path": "...", "layout_path": "...", "width": 300, "height": 500 }.
func (h *Handler) CreateInstance(w http.ResponseWriter, r *http.Request) {
	var cfg instanceConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		h.log.Debug("invalid instance config body", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	id, err := h.mgr.CreateInstance(cfg.toConfig())
	if err != nil {
		h.log.Error("create instance failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	h.log.Debug("instance created", slog.String("id", id))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"id": id})
}

// UpdateInstance handles PUT /instances/{id}.
func (h *Handler) UpdateInstance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var cfg instanceConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch err := h.mgr.UpdateInstance(id, cfg.toConfig()); {
	case err == nil:
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, ErrNoSuchInstance), errors.Is(err, ErrInstanceDestroyed):
		w.WriteHeader(http.StatusNotFound)
	default:
		h.log.Error("update instance failed", slog.String("id", id), slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// DestroyInstance handles DELETE /instances/{id}.
func (h *Handler) DestroyInstance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.mgr.DestroyInstance(id); err != nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Hotkey handles POST /instances/{id}/hotkeys/{action} for the nine named
// hotkey actions.
func (h *Handler) Hotkey(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	action := chi.URLParam(r, "action")

	inst, ok := h.mgr.Get(id)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err := inst.Hotkey(action); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if h.metrics != nil {
		h.metrics.IncControlEvents(action)
	}
	w.WriteHeader(http.StatusOK)
}

// Media handles POST /instances/{id}/media/{action} for the transport
// actions: play, pause, restart, stop, next, previous.
func (h *Handler) Media(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	action := chi.URLParam(r, "action")

	inst, ok := h.mgr.Get(id)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	switch action {
	case "play":
		inst.MediaPlayPause(false)
	case "pause":
		inst.MediaPlayPause(true)
	case "restart":
		inst.MediaRestart()
	case "stop":
		inst.MediaStop()
	case "next":
		inst.MediaNext()
	case "previous":
		inst.MediaPrevious()
	default:
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if h.metrics != nil {
		h.metrics.IncControlEvents("media_" + action)
	}
	w.WriteHeader(http.StatusOK)
}

// MediaStatus handles GET /instances/{id}/media.
func (h *Handler) MediaStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	inst, ok := h.mgr.Get(id)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"state":       inst.MediaState(),
		"time_ms":     inst.MediaTimeMillis(),
		"duration_ms": inst.MediaDurationMillis(),
	})
}

// Wheel handles POST /instances/{id}/wheel. Body: { "delta": -1 }.
func (h *Handler) Wheel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	inst, ok := h.mgr.Get(id)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	var body struct {
		Delta int `json:"delta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	inst.Wheel(body.Delta)
	w.WriteHeader(http.StatusOK)
}

// SaveSplits handles POST /instances/{id}/save. Responds 200 when a write
// happened, 204 when the splits source is not save-eligible.
func (h *Handler) SaveSplits(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	inst, ok := h.mgr.Get(id)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	wrote, err := inst.SaveSplits()
	if err != nil {
		h.log.Error("save splits failed", slog.String("id", id), slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if !wrote {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if h.metrics != nil {
		h.metrics.IncSplitsSaved()
	}
	w.WriteHeader(http.StatusOK)
}

// pixelSource is implemented by render targets that can be read back.
type pixelSource interface {
	SnapshotPixels() (pix []byte, width, height int)
}

// FramePNG handles GET /instances/{id}/frame.png, serving the last uploaded
// frame. 404 when the target cannot be read back.
func (h *Handler) FramePNG(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	inst, ok := h.mgr.Get(id)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	src, ok := inst.Target().(pixelSource)
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	pix, width, height := src.SnapshotPixels()
	img := &image.RGBA{Pix: pix, Stride: width * 4, Rect: image.Rect(0, 0, width, height)}
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, img); err != nil {
		h.log.Debug("frame encode failed", slog.String("error", err.Error()))
	}
}
