package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorLogger_RecoversPanic(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log, hook := logtest.NewNullLogger()

	router := gin.New()
	router.Use(ErrorLogger(log))
	router.GET("/panic", func(c *gin.Context) { panic("nil storage client") })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, "panic", hook.LastEntry().Data["type"])
}

func TestErrorLogger_LogsContextErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log, hook := logtest.NewNullLogger()

	router := gin.New()
	router.Use(ErrorLogger(log))
	router.GET("/fail", func(c *gin.Context) {
		_ = c.Error(errors.New("failed to clear asset urls: timeout"))
		c.Status(http.StatusInternalServerError)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/fail", nil)
	req.Header.Set("X-Request-ID", "req-42")
	router.ServeHTTP(w, req)

	require.Len(t, hook.Entries, 1)
	assert.Equal(t, "failed to clear asset urls: timeout", hook.LastEntry().Message)
	assert.Equal(t, "req-42", hook.LastEntry().Data["request_id"])
}

func TestRequestLogger_LogsStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	log, hook := logtest.NewNullLogger()

	router := gin.New()
	router.Use(RequestLogger(log))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, http.StatusOK, hook.LastEntry().Data["status"])
	assert.Equal(t, "/health", hook.LastEntry().Data["path"])
}
