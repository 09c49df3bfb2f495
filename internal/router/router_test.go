package router

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"smartstudy-backend/internal/handlers"
	"smartstudy-backend/internal/middleware"
)

func newTestRouter(t *testing.T) http.Handler {
	limiter := middleware.NewRateLimiter(100, time.Minute)
	t.Cleanup(limiter.Stop)
	ws := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTeapot) }
	return New(
		middleware.NewJWTAuth("test-secret"),
		limiter,
		handlers.NewAuthHandler(nil),
		handlers.NewStudyPlanHandler(nil),
		handlers.NewQuizHandler(nil),
		handlers.NewTutorHandler(nil),
		ws,
		"http://localhost:5173",
	)
}

func TestHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newTestRouter(t)
	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/v1/user/me"},
		{http.MethodPost, "/api/v1/study-plan/sessions"},
		{http.MethodGet, "/api/v1/study-plan/topics"},
		{http.MethodGet, "/api/v1/study-plan/revisions/due"},
		{http.MethodGet, "/api/v1/quizzes"},
		{http.MethodPost, "/api/v1/ai-tutor/ask"},
		{http.MethodPost, "/api/v1/auth/logout"},
	}
	for _, rt := range routes {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(rt.method, rt.path, nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "%s %s", rt.method, rt.path)
	}
}

func TestWebSocketRouteIsMounted(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter(t).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil))
	assert.Equal(t, http.StatusTeapot, rr.Code)
}
