package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func accessLogRouter(t *testing.T, level zapcore.Level) (*gin.Engine, *observer.ObservedLogs) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(level)
	router := gin.New()
	router.Use(RequestLogger(zap.New(core)))
	return router, recorded
}

func accessEntry(t *testing.T, recorded *observer.ObservedLogs) observer.LoggedEntry {
	t.Helper()
	entries := recorded.FilterMessage("request completed").All()
	require.Len(t, entries, 1)
	return entries[0]
}

func TestRequestLogger(t *testing.T) {
	t.Run("logs a successful request at info", func(t *testing.T) {
		router, recorded := accessLogRouter(t, zapcore.InfoLevel)
		router.GET("/uploads", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"ok": true})
		})

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/uploads", nil)
		router.ServeHTTP(w, req)

		entry := accessEntry(t, recorded)
		assert.Equal(t, zapcore.InfoLevel, entry.Level)

		fields := entry.ContextMap()
		assert.Equal(t, "GET", fields["method"])
		assert.Equal(t, "/uploads", fields["path"])
		assert.EqualValues(t, http.StatusOK, fields["status"])
		assert.Contains(t, fields, "latency")
		assert.Contains(t, fields, "client_ip")
		assert.Contains(t, fields, "bytes_out")
	})

	t.Run("carries the request id set upstream", func(t *testing.T) {
		gin.SetMode(gin.TestMode)
		core, recorded := observer.New(zapcore.InfoLevel)
		router := gin.New()
		// id middleware must run before the access logger
		router.Use(func(c *gin.Context) {
			c.Set("request_id", "req-42")
			c.Next()
		})
		router.Use(RequestLogger(zap.New(core)))
		router.GET("/analysis/summary", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/analysis/summary", nil))

		entry := accessEntry(t, recorded)
		assert.Equal(t, "req-42", entry.ContextMap()["request_id"])
	})

	t.Run("includes the query string when present", func(t *testing.T) {
		router, recorded := accessLogRouter(t, zapcore.InfoLevel)
		router.GET("/analysis/findings", func(c *gin.Context) {
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/analysis/findings?category=overstock&page=2", nil))

		entry := accessEntry(t, recorded)
		assert.Equal(t, "category=overstock&page=2", entry.ContextMap()["query"])
	})

	t.Run("logs client errors at warn", func(t *testing.T) {
		router, recorded := accessLogRouter(t, zapcore.WarnLevel)
		router.POST("/uploads", func(c *gin.Context) {
			c.JSON(http.StatusBadRequest, gin.H{"ok": false})
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/uploads", nil))

		assert.Equal(t, zapcore.WarnLevel, accessEntry(t, recorded).Level)
	})

	t.Run("logs server errors at error with gin errors attached", func(t *testing.T) {
		router, recorded := accessLogRouter(t, zapcore.ErrorLevel)
		router.POST("/analysis/run", func(c *gin.Context) {
			_ = c.Error(assert.AnError)
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false})
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/analysis/run", nil))

		entry := accessEntry(t, recorded)
		assert.Equal(t, zapcore.ErrorLevel, entry.Level)
		assert.Contains(t, entry.ContextMap(), "errors")
	})
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.ErrorLevel)

	router := gin.New()
	router.Use(Recovery(zap.New(core)))
	router.GET("/boom", func(c *gin.Context) {
		panic("unreachable state")
	})

	w := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	entries := recorded.FilterMessage("panic recovered").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/boom", fields["path"])
	assert.Equal(t, "unreachable state", fields["panic"])
}

func TestFromGin(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("returns the request-scoped logger", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		router := gin.New()
		router.Use(RequestLogger(zap.New(core)))
		router.GET("/ping", func(c *gin.Context) {
			FromGin(c).Info("handled")
			c.Status(http.StatusOK)
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

		assert.Len(t, recorded.FilterMessage("handled").All(), 1)
	})

	t.Run("falls back to a no-op logger", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())

		log := FromGin(c)
		require.NotNil(t, log)
		assert.NotPanics(t, func() { log.Info("ignored") })
	})
}
