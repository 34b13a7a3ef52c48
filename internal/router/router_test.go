package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/cx-tal-miterani/flight-assistant/internal/handlers"
	"github.com/cx-tal-miterani/flight-assistant/internal/service/mocks"
	"github.com/cx-tal-miterani/flight-assistant/shared/models"
)

func TestHealthCheck(t *testing.T) {
	r := SetupRouter(handlers.NewHandler(new(mocks.MockAssistantService), nil), nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	r := SetupRouter(handlers.NewHandler(new(mocks.MockAssistantService), nil), nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/sessions", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRoutes(t *testing.T) {
	svc := new(mocks.MockAssistantService)
	svc.On("GetSession", mock.Anything, "s1").Return(&models.PipelineState{SessionID: "s1"}, nil)
	ws := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r := SetupRouter(handlers.NewHandler(svc, nil), ws)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/s1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/s1/ws", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
