package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/gescom/backend/internal/interfaces/http/handler"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestEngine() *gin.Engine {
	return Setup(zap.NewNop(), Handlers{
		Sync:    handler.NewSyncHandler(nil, nil, zap.NewNop()),
		Order:   handler.NewOrderHandler(nil),
		Journal: handler.NewJournalHandler(nil),
		Number:  handler.NewNumberHandler(nil),
	})
}

func TestHealthEndpoint(t *testing.T) {
	r := newTestEngine()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestRequestIDHeaderSet(t *testing.T) {
	r := newTestEngine()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestSecurityHeadersSet(t *testing.T) {
	r := newTestEngine()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestRoutesRegistered(t *testing.T) {
	r := newTestEngine()

	routes := make(map[string]bool)
	for _, route := range r.Routes() {
		routes[route.Method+" "+route.Path] = true
	}

	expected := []string{
		"POST /api/v1/sync/run",
		"POST /api/v1/sync/start",
		"POST /api/v1/sync/stop",
		"POST /api/v1/sync/resume",
		"GET /api/v1/sync/status",
		"GET /api/v1/orders",
		"GET /api/v1/orders/:id",
		"POST /api/v1/journals/generate",
		"POST /api/v1/journals/:id/validate",
		"GET /api/v1/journals",
		"GET /api/v1/journals/:id",
		"POST /api/v1/numbers/generate",
		"GET /api/v1/numbers/preview",
		"GET /api/v1/numbers/:number",
		"DELETE /api/v1/numbers/:number",
	}
	for _, route := range expected {
		assert.True(t, routes[route], "missing route %s", route)
	}
}

func TestUnknownRoute404(t *testing.T) {
	r := newTestEngine()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
