// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/practicehub/api/internal/model"
	"github.com/practicehub/api/internal/repository"
	"github.com/practicehub/api/internal/service"
)

// EventHandler holds all HTTP handlers for the event and RSVP API.
type EventHandler struct {
	svc *service.EventService
	log zerolog.Logger
}

// NewEventHandler constructs an EventHandler.
func NewEventHandler(svc *service.EventService, log zerolog.Logger) *EventHandler {
	return &EventHandler{svc: svc, log: log}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}

func eventIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// manageToken extracts the management credential from the Authorization
// bearer header, falling back to a token query parameter.
func manageToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return token
	}
	return r.URL.Query().Get("token")
}

// ─── Handlers ─────────────────────────────────────────────────────────────────

// CreateEvent handles POST /events
// Persists a new practice event and returns its id and management token.
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.CreateEvent(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Msg("create event failed")
		writeError(w, http.StatusInternalServerError, "failed to create event")
		return
	}

	writeJSON(w, http.StatusOK, model.CreateEventResponse{
		ID:          event.ID,
		ManageToken: event.ManageToken,
	})
}

// ListEvents handles GET /events?q=&location=&proficiency=&artist_type=
// All supplied filters are combined; results are ordered by date then time.
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.EventFilter{
		Query:       q.Get("q"),
		Location:    q.Get("location"),
		Proficiency: q.Get("proficiency"),
		ArtistType:  q.Get("artist_type"),
	}

	events, err := h.svc.ListEvents(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("list events failed")
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}

	// Return an empty array rather than null for better client compatibility.
	if events == nil {
		events = []model.Event{}
	}
	writeJSON(w, http.StatusOK, events)
}

// RSVP handles POST /events/{id}/rsvp
// Records an attendance commitment and returns the updated count.
func (h *EventHandler) RSVP(w http.ResponseWriter, r *http.Request) {
	id, err := eventIDParam(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "invalid event id")
		return
	}

	var req model.RSVPRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	// RemoteAddr has been resolved by the RealIP middleware; it is
	// informational only and plays no part in uniqueness.
	count, err := h.svc.RSVP(r.Context(), id, req.Email, r.RemoteAddr)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrValidation):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, repository.ErrAlreadyRSVPd):
			writeError(w, http.StatusBadRequest, "already RSVP'd")
		default:
			h.log.Error().Err(err).Int64("event_id", id).Msg("rsvp failed")
			writeError(w, http.StatusInternalServerError, "failed to record RSVP")
		}
		return
	}

	writeJSON(w, http.StatusOK, model.RSVPResponse{RSVPCount: count})
}

// ListRSVPs handles GET /events/{id}/rsvps
// The creator-management view; requires the event's management token.
func (h *EventHandler) ListRSVPs(w http.ResponseWriter, r *http.Request) {
	id, err := eventIDParam(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "invalid event id")
		return
	}

	entries, err := h.svc.ListRSVPs(r.Context(), id, manageToken(r))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			writeError(w, http.StatusNotFound, "event not found")
		case errors.Is(err, service.ErrBadToken):
			writeError(w, http.StatusUnauthorized, "invalid management token")
		default:
			h.log.Error().Err(err).Int64("event_id", id).Msg("list rsvps failed")
			writeError(w, http.StatusInternalServerError, "failed to list RSVPs")
		}
		return
	}

	if entries == nil {
		entries = []model.RSVPEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
