package router

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/cx-tal-miterani/flight-assistant/internal/handlers"
)

// SetupRouter creates and configures the HTTP router. ws serves the
// per-session snapshot stream and may be nil.
func SetupRouter(h *handlers.Handler, ws http.Handler) *mux.Router {
	r := mux.NewRouter()

	// CORS middleware
	r.Use(corsMiddleware)

	api := r.PathPrefix("/api").Subrouter()

	// Sessions
	api.HandleFunc("/sessions", h.StartSession).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/sessions/{id}", h.GetSession).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/sessions/{id}/preferences", h.SubmitPreferences).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/sessions/{id}/decision", h.Decide).Methods(http.MethodPost, http.MethodOptions)

	// One-shot search and stored bookings
	api.HandleFunc("/flights/search", h.SearchFlights).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/bookings/{id}", h.GetBooking).Methods(http.MethodGet, http.MethodOptions)

	// WebSocket for live session snapshots
	if ws != nil {
		api.Handle("/sessions/{id}/ws", ws).Methods(http.MethodGet)
	}

	// Health check
	r.HandleFunc("/health", healthCheck).Methods(http.MethodGet)

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
