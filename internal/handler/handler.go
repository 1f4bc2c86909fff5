// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer. Every JSON response
// uses the uniform success/message/data envelope.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/setlisthq/setlist/internal/model"
	"github.com/setlisthq/setlist/internal/realtime"
	"github.com/setlisthq/setlist/internal/service"
	"github.com/setlisthq/setlist/internal/store"
)

// Handler holds all HTTP handlers for the request-line API.
type Handler struct {
	svc *service.Service
	hub *realtime.Hub
	log zerolog.Logger
}

// New constructs a Handler.
func New(svc *service.Service, hub *realtime.Hub, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, hub: hub, log: logger}
}

// Routes builds the API router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Route("/events", func(r chi.Router) {
			r.Post("/", h.CreateEvent)
			r.Get("/", h.ListEvents)
			r.Get("/active", h.ActiveEvent)
			r.Post("/validate-code", h.ValidateCode)
			r.Get("/{id}", h.GetEvent)
			r.Patch("/{id}", h.UpdateEvent)
			r.Post("/{id}/end", h.EndEvent)
			r.Get("/{id}/requests", h.ListRequests)
			r.Get("/{id}/stats", h.EventStats)
		})
		r.Route("/requests", func(r chi.Router) {
			r.Post("/", h.SubmitRequest)
			r.Get("/{id}", h.GetRequest)
			r.Patch("/{id}/status", h.UpdateRequestStatus)
		})
		r.Get("/tracks/top", h.GlobalTopTracks)
		r.Get("/search", h.SearchTracks)
	})

	r.Get("/ws", h.ServeWS)
	r.Get("/health", h.Health)

	return r
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSuccess(w http.ResponseWriter, status int, msg string, data any) {
	writeJSON(w, status, model.Response{Success: true, Message: msg, Data: data})
}

func writeFailure(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.Response{Success: false, Message: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// ─── Event handlers ───────────────────────────────────────────────────────────

// CreateEvent handles POST /api/events
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.CreateEvent(r.Context(), req)
	if err != nil {
		if errors.Is(err, store.ErrActiveEventExists) {
			writeFailure(w, http.StatusConflict, "an active event already exists")
			return
		}
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}

	writeSuccess(w, http.StatusCreated, "event created", event)
}

// ListEvents handles GET /api/events
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, "events", h.svc.ListEvents(r.Context()))
}

// ActiveEvent handles GET /api/events/active
func (h *Handler) ActiveEvent(w http.ResponseWriter, r *http.Request) {
	event := h.svc.ActiveEvent(r.Context())
	if event == nil {
		writeSuccess(w, http.StatusOK, "no active event", nil)
		return
	}
	writeSuccess(w, http.StatusOK, "active event", event)
}

// GetEvent handles GET /api/events/{id}
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, http.StatusNotFound, "event not found")
		return
	}
	writeSuccess(w, http.StatusOK, "event", event)
}

// UpdateEvent handles PATCH /api/events/{id}
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.UpdateEvent(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeFailure(w, http.StatusNotFound, "event not found")
		return
	}
	writeSuccess(w, http.StatusOK, "event updated", event)
}

// EndEvent handles POST /api/events/{id}/end
func (h *Handler) EndEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.svc.EndEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, http.StatusNotFound, "event not found")
		return
	}
	writeSuccess(w, http.StatusOK, "event ended", event)
}

// ValidateCode handles POST /api/events/validate-code
func (h *Handler) ValidateCode(w http.ResponseWriter, r *http.Request) {
	var req model.ValidateCodeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	validation, err := h.svc.ValidateCode(r.Context(), req.Code)
	if err != nil {
		writeFailure(w, http.StatusNotFound, "invalid event code")
		return
	}
	writeSuccess(w, http.StatusOK, "code valid", validation)
}

// ─── Request handlers ─────────────────────────────────────────────────────────

// SubmitRequest handles POST /api/requests
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	var req model.SubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	request, err := h.svc.SubmitRequest(r.Context(), req)
	if err != nil {
		if errors.Is(err, store.ErrEventNotActive) {
			writeFailure(w, http.StatusNotFound, "event not found or not active")
			return
		}
		writeFailure(w, http.StatusBadRequest, err.Error())
		return
	}
	writeSuccess(w, http.StatusCreated, "request submitted", request)
}

// GetRequest handles GET /api/requests/{id}
func (h *Handler) GetRequest(w http.ResponseWriter, r *http.Request) {
	request, err := h.svc.GetRequest(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeFailure(w, http.StatusNotFound, "request not found")
		return
	}
	writeSuccess(w, http.StatusOK, "request", request)
}

// UpdateRequestStatus handles PATCH /api/requests/{id}/status
func (h *Handler) UpdateRequestStatus(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateStatusRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Status == "" {
		writeFailure(w, http.StatusBadRequest, "status is required")
		return
	}

	request, err := h.svc.UpdateRequestStatus(r.Context(), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeFailure(w, http.StatusNotFound, "request not found")
		return
	}
	writeSuccess(w, http.StatusOK, "status updated", request)
}

// ListRequests handles GET /api/events/{id}/requests?status=
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	requests := h.svc.ListRequests(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("status"))
	writeSuccess(w, http.StatusOK, "requests", requests)
}

// EventStats handles GET /api/events/{id}/stats
func (h *Handler) EventStats(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, "stats", h.svc.EventStats(r.Context(), chi.URLParam(r, "id")))
}

// GlobalTopTracks handles GET /api/tracks/top?limit=
func (h *Handler) GlobalTopTracks(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeFailure(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}
	writeSuccess(w, http.StatusOK, "top tracks", h.svc.GlobalTopTracks(r.Context(), limit))
}

// SearchTracks handles GET /api/search?q=
// A too-short query yields an empty result set, not an error.
func (h *Handler) SearchTracks(w http.ResponseWriter, r *http.Request) {
	results := h.svc.SearchTracks(r.Context(), r.URL.Query().Get("q"))
	writeSuccess(w, http.StatusOK, "search results", results)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, http.StatusOK, "ok", map[string]string{"status": "ok"})
}
