package orchestrator

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"rundown-orchestrator/internal/platform/metrics"
	"rundown-orchestrator/internal/playout"

	"github.com/go-chi/chi/v5"
)

const (
	jsonContentType = "application/json"
	textContentType = "text/plain; charset=utf-8"

	// maxDocumentSize bounds imported rundown documents.
	maxDocumentSize = 8 << 20
)

// errBadRequest marks malformed request input.
var errBadRequest = errors.New("bad request")

// Handler exposes playout HTTP endpoints using go-chi.
type Handler struct {
	svc     *Service
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewHandler returns a Handler that uses the given Service, Logger, and optional Metrics.
// Metrics may be nil to disable metric recording (e.g. in tests).
func NewHandler(svc *Service, log *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{svc: svc, log: log.With("component", "http"), metrics: m}
}

// Routes mounts the playlist endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/playlists/{playlist_id}", func(r chi.Router) {
		r.Put("/", h.ImportPlaylist)
		r.Get("/", h.GetPlaylist)
		r.Get("/rundown.txt", h.GetRundownText)
		r.Post("/activate", h.Activate)
		r.Post("/deactivate", h.Deactivate)
		r.Post("/take", h.Take)
		r.Post("/queue", h.QueueSegment)
		r.Post("/adlib", h.InsertAdlib)
		r.Delete("/quickloop", h.ClearQuickLoop)
		r.Put("/quickloop/{role}", h.SetQuickLoopMarker)
		r.Delete("/quickloop/{role}", h.ClearQuickLoopMarker)
	})
}

// ImportPlaylist handles PUT /playlists/{playlist_id}. The body is a YAML or
// JSON rundown document.
func (h *Handler) ImportPlaylist(w http.ResponseWriter, r *http.Request) {
	id := playlistID(r)
	body, err := io.ReadAll(io.LimitReader(r.Body, maxDocumentSize))
	if err != nil {
		h.fail(w, id, "import", errors.Join(errBadRequest, err))
		return
	}
	doc, err := ParseDocument(body)
	if err != nil {
		h.fail(w, id, "import", err)
		return
	}
	st, err := h.svc.ImportPlaylist(r.Context(), id, doc)
	if err != nil {
		h.fail(w, id, "import", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// GetPlaylist handles GET /playlists/{playlist_id}.
func (h *Handler) GetPlaylist(w http.ResponseWriter, r *http.Request) {
	id := playlistID(r)
	st, err := h.svc.GetPlaylist(r.Context(), id)
	if err != nil {
		h.fail(w, id, "get", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// GetRundownText handles GET /playlists/{playlist_id}/rundown.txt.
func (h *Handler) GetRundownText(w http.ResponseWriter, r *http.Request) {
	id := playlistID(r)
	st, err := h.svc.GetPlaylist(r.Context(), id)
	if err != nil {
		h.fail(w, id, "render", err)
		return
	}
	w.Header().Set("Content-Type", textContentType)
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, RenderRundown(st))
}

// Activate handles POST /playlists/{playlist_id}/activate.
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	id := playlistID(r)
	st, err := h.svc.Activate(r.Context(), id)
	if err != nil {
		h.fail(w, id, "activate", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Deactivate handles POST /playlists/{playlist_id}/deactivate.
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id := playlistID(r)
	st, err := h.svc.Deactivate(r.Context(), id)
	if err != nil {
		h.fail(w, id, "deactivate", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type takeResponse struct {
	TakeResult
	Playlist *PlayoutState `json:"playlist"`
}

// Take handles POST /playlists/{playlist_id}/take.
func (h *Handler) Take(w http.ResponseWriter, r *http.Request) {
	id := playlistID(r)
	st, res, err := h.svc.Take(r.Context(), id)
	if err != nil {
		h.fail(w, id, "take", err)
		return
	}
	if h.metrics != nil {
		h.metrics.IncTakes()
		if res.ConsumedQueue {
			h.metrics.IncQueuedSegmentsConsumed()
		}
		if res.LoopWrapped {
			h.metrics.IncQuickLoopWraps()
		}
		if res.EndOfRundown {
			h.metrics.IncEndOfRundown()
		}
	}
	writeJSON(w, http.StatusOK, takeResponse{TakeResult: res, Playlist: st})
}

type queueRequest struct {
	SegmentID playout.SegmentID `json:"segment_id"`
}

// QueueSegment handles POST /playlists/{playlist_id}/queue.
// Body: { "segment_id": "seg2" }; an empty id clears the queue.
func (h *Handler) QueueSegment(w http.ResponseWriter, r *http.Request) {
	id := playlistID(r)
	var req queueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, id, "queue", errors.Join(errBadRequest, err))
		return
	}
	st, err := h.svc.QueueSegment(r.Context(), id, req.SegmentID)
	if err != nil {
		h.fail(w, id, "queue", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type adlibRequest struct {
	Title    string   `json:"title"`
	Duration Duration `json:"duration"`
}

// InsertAdlib handles POST /playlists/{playlist_id}/adlib.
// Body: { "title": "Breaking", "duration": "10s" }.
func (h *Handler) InsertAdlib(w http.ResponseWriter, r *http.Request) {
	id := playlistID(r)
	var req adlibRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, id, "adlib", errors.Join(errBadRequest, err))
		return
	}
	st, err := h.svc.InsertAdlibPart(r.Context(), id, req.Title, time.Duration(req.Duration))
	if err != nil {
		h.fail(w, id, "adlib", err)
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

// SetQuickLoopMarker handles PUT /playlists/{playlist_id}/quickloop/{role}.
// Body: { "type": "part", "id": "p3" }.
func (h *Handler) SetQuickLoopMarker(w http.ResponseWriter, r *http.Request) {
	id := playlistID(r)
	role, err := playout.ParseMarkerRole(chi.URLParam(r, "role"))
	if err != nil {
		h.fail(w, id, "set marker", errors.Join(errBadRequest, err))
		return
	}
	var marker playout.QuickLoopMarker
	if err := json.NewDecoder(r.Body).Decode(&marker); err != nil {
		h.fail(w, id, "set marker", errors.Join(errBadRequest, err))
		return
	}
	st, err := h.svc.SetQuickLoopMarker(r.Context(), id, role, marker)
	if err != nil {
		h.fail(w, id, "set marker", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// ClearQuickLoopMarker handles DELETE /playlists/{playlist_id}/quickloop/{role}.
func (h *Handler) ClearQuickLoopMarker(w http.ResponseWriter, r *http.Request) {
	id := playlistID(r)
	role, err := playout.ParseMarkerRole(chi.URLParam(r, "role"))
	if err != nil {
		h.fail(w, id, "clear marker", errors.Join(errBadRequest, err))
		return
	}
	st, err := h.svc.ClearQuickLoopMarker(r.Context(), id, role)
	if err != nil {
		h.fail(w, id, "clear marker", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// ClearQuickLoop handles DELETE /playlists/{playlist_id}/quickloop.
func (h *Handler) ClearQuickLoop(w http.ResponseWriter, r *http.Request) {
	id := playlistID(r)
	st, err := h.svc.ClearQuickLoopMarkers(r.Context(), id)
	if err != nil {
		h.fail(w, id, "clear quickloop", err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func playlistID(r *http.Request) playout.PlaylistID {
	return playout.PlaylistID(chi.URLParam(r, "playlist_id"))
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, ErrInvalidDocument):
		return http.StatusBadRequest
	case errors.Is(err, ErrPlaylistNotFound), errors.Is(err, ErrSegmentNotFound), errors.Is(err, ErrMarkerNotFound):
		return http.StatusNotFound
	case errors.Is(err, playout.ErrLoopingLocked),
		errors.Is(err, ErrPlaylistNotActive),
		errors.Is(err, ErrNoNextPart),
		errors.Is(err, ErrNoCurrentPart),
		errors.Is(err, ErrNoPlayablePart):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) fail(w http.ResponseWriter, id playout.PlaylistID, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error(op+" failed", slog.String("playlist_id", string(id)), slog.String("error", err.Error()))
	} else {
		h.log.Info(op+" rejected",
			slog.String("playlist_id", string(id)),
			slog.Int("status", status),
			slog.String("error", err.Error()))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", jsonContentType)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
