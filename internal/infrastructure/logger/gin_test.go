package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestGinMiddleware_LogsRequest(t *testing.T) {
	l, logs := newObservedLogger()

	r := gin.New()
	r.Use(GinMiddleware(l))
	r.GET("/orders", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/orders?page=2", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zap.InfoLevel, entry.Level)
	assert.Equal(t, "HTTP Request", entry.Message)

	fields := entry.ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/orders", fields["path"])
	assert.Equal(t, int64(http.StatusOK), fields["status"])
	assert.Equal(t, "page=2", fields["query"])
}

func TestGinMiddleware_LogLevelByStatus(t *testing.T) {
	cases := []struct {
		name   string
		status int
		level  string
	}{
		{"server error", http.StatusInternalServerError, "error"},
		{"client error", http.StatusNotFound, "warn"},
		{"success", http.StatusCreated, "info"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			l, logs := newObservedLogger()

			r := gin.New()
			r.Use(GinMiddleware(l))
			r.GET("/x", func(c *gin.Context) {
				c.Status(tc.status)
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

			require.Equal(t, 1, logs.Len())
			assert.Equal(t, tc.level, logs.All()[0].Level.String())
		})
	}
}

func TestRecovery_HandlesPanic(t *testing.T) {
	l, logs := newObservedLogger()

	r := gin.New()
	r.Use(Recovery(l))
	r.GET("/boom", func(c *gin.Context) {
		panic("kaboom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "Panic recovered", entry.Message)
	assert.Equal(t, "kaboom", entry.ContextMap()["error"])
}

func TestGetGinLogger(t *testing.T) {
	l, _ := newObservedLogger()

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Set("logger", l)
	assert.Same(t, l, GetGinLogger(c))

	empty, _ := gin.CreateTestContext(httptest.NewRecorder())
	require.NotNil(t, GetGinLogger(empty))
}
