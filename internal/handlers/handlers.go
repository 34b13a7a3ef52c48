package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/cx-tal-miterani/flight-assistant/internal/service"
	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

// Notifier receives every snapshot a handler produces
type Notifier interface {
	BroadcastSnapshot(state *models.PipelineState)
}

// Handler contains HTTP handlers for the API
type Handler struct {
	assistantService service.AssistantService
	notifier         Notifier
}

// NewHandler creates a new Handler instance. notifier may be nil.
func NewHandler(assistantService service.AssistantService, notifier Notifier) *Handler {
	return &Handler{
		assistantService: assistantService,
		notifier:         notifier,
	}
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, "Session not found")
	case errors.Is(err, service.ErrBookingNotFound):
		respondError(w, http.StatusNotFound, "Booking not found")
	case errors.Is(err, service.ErrInvalidDecision):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotAwaitingDecision):
		respondError(w, http.StatusConflict, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (h *Handler) notify(state *models.PipelineState) {
	if h.notifier != nil {
		h.notifier.BroadcastSnapshot(state)
	}
}

// StartSession handles POST /api/sessions
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req models.StartSessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}
	if req.UserEmail != "" && !strings.Contains(req.UserEmail, "@") {
		respondError(w, http.StatusBadRequest, "Invalid user email")
		return
	}

	state, err := h.assistantService.StartSession(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, state)
}

// GetSession handles GET /api/sessions/{id}
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	state, err := h.assistantService.GetSession(r.Context(), sessionID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, state)
}

// SubmitPreferences handles POST /api/sessions/{id}/preferences
func (h *Handler) SubmitPreferences(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req models.PreferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	state, err := h.assistantService.SubmitPreferences(r.Context(), sessionID, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	h.notify(state)
	respondJSON(w, http.StatusAccepted, state)
}

// Decide handles POST /api/sessions/{id}/decision
func (h *Handler) Decide(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	var req models.DecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Choice == "" {
		respondError(w, http.StatusBadRequest, "Choice is required")
		return
	}
	if req.Index < 0 {
		respondError(w, http.StatusBadRequest, "Index must not be negative")
		return
	}

	state, err := h.assistantService.Decide(r.Context(), sessionID, &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	h.notify(state)
	respondJSON(w, http.StatusAccepted, state)
}

// SearchFlights handles POST /api/flights/search
func (h *Handler) SearchFlights(w http.ResponseWriter, r *http.Request) {
	var req models.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.assistantService.SearchFlights(r.Context(), &req)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// GetBooking handles GET /api/bookings/{id}
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	bookingID := mux.Vars(r)["id"]

	booking, err := h.assistantService.GetBooking(r.Context(), bookingID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, booking)
}
