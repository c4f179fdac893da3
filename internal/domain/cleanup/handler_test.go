package cleanup

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context) (*Result, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Result), args.Error(1)
}

func setupRouter(runner Runner, auth gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r.Group("/api"), NewHandler(runner, 0), auth)
	return r
}

func passThrough(c *gin.Context) { c.Next() }

func decodeSummary(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestCleanupImages_Success(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodPost} {
		t.Run(method, func(t *testing.T) {
			runner := new(MockRunner)
			runner.On("Run", mock.Anything).Return(&Result{Success: true, Processed: 4, Cleaned: 4, RemovedObjects: 3}, nil)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(method, "/api/cron/cleanup-images", nil)
			setupRouter(runner, passThrough).ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			body := decodeSummary(t, w)
			assert.Equal(t, true, body["success"])
			assert.Equal(t, float64(4), body["processed"])
			assert.Equal(t, float64(4), body["cleaned"])
			_, hasError := body["error"]
			assert.False(t, hasError)
		})
	}
}

func TestCleanupImages_FailureReturns500(t *testing.T) {
	runner := new(MockRunner)
	err := errors.New("failed to fetch expired records: timeout")
	runner.On("Run", mock.Anything).Return(&Result{Processed: 0, Error: err.Error()}, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/cron/cleanup-images", nil)
	setupRouter(runner, passThrough).ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeSummary(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, float64(0), body["processed"])
	assert.Equal(t, float64(0), body["cleaned"])
	assert.Equal(t, err.Error(), body["error"])
}

func TestCleanupImages_NilResultOnError(t *testing.T) {
	runner := new(MockRunner)
	runner.On("Run", mock.Anything).Return(nil, errors.New("boom"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/cron/cleanup-images", nil)
	setupRouter(runner, passThrough).ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "boom", decodeSummary(t, w)["error"])
}

func TestCleanupImages_AuthMiddlewareBlocksRun(t *testing.T) {
	runner := new(MockRunner)
	deny := func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/cron/cleanup-images", nil)
	setupRouter(runner, deny).ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	runner.AssertNotCalled(t, "Run", mock.Anything)
}
