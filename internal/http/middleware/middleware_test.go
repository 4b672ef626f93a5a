package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/gtd-backend/internal/domain"
	"github.com/yungbote/gtd-backend/internal/http/session"
	"github.com/yungbote/gtd-backend/internal/observability"
	"github.com/yungbote/gtd-backend/internal/platform/apperr"
	"github.com/yungbote/gtd-backend/internal/platform/ctxutil"
	"github.com/yungbote/gtd-backend/internal/platform/logger"
	"github.com/yungbote/gtd-backend/internal/services"
)

type fakeAuth struct {
	services.AuthService
	tokens  map[string]*ctxutil.RequestData
	renewTo string
}

func (f *fakeAuth) ValidateToken(_ context.Context, token string) (*ctxutil.RequestData, error) {
	rd, ok := f.tokens[token]
	if !ok {
		return nil, apperr.Unauthorized("Invalid or expired session")
	}
	out := *rd
	out.RenewedToken = f.renewTo
	return &out, nil
}

func (f *fakeAuth) SessionTTL() time.Duration { return 30 * 24 * time.Hour }

func newAuthRouter(auth *fakeAuth) *gin.Engine {
	gin.SetMode(gin.TestMode)
	am := NewAuthMiddleware(logger.Nop(), auth, session.CookieConfig{})
	r := gin.New()
	r.GET("/api/me", am.RequireAuth(), func(c *gin.Context) {
		c.String(http.StatusOK, ctxutil.UserID(c.Request.Context()).String())
	})
	return r
}

func TestRequireAuth(t *testing.T) {
	userID := uuid.New()
	auth := &fakeAuth{tokens: map[string]*ctxutil.RequestData{
		"good": {Token: "good", UserID: userID, SessionID: uuid.New(), User: &types.User{ID: userID}},
	}}
	r := newAuthRouter(auth)

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Body.String(), `"errors"`)
	})

	t.Run("bearer", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Bearer good")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, userID.String(), rec.Body.String())
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: "good"})
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("bad cookie is cleared", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: "stale"})
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Contains(t, rec.Header().Get("Set-Cookie"), "Max-Age=0")
	})
}

func TestRequireAuthRenewal(t *testing.T) {
	userID := uuid.New()
	auth := &fakeAuth{
		tokens:  map[string]*ctxutil.RequestData{"old": {Token: "old", UserID: userID, SessionID: uuid.New()}},
		renewTo: "fresh",
	}
	r := newAuthRouter(auth)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: "old"})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := rec.Header().Get("Set-Cookie")
	require.True(t, strings.HasPrefix(cookie, session.DefaultCookieName+"=fresh"), cookie)
	require.Contains(t, cookie, "HttpOnly")

	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set("Authorization", "Bearer old")
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "fresh", rec.Header().Get(session.RenewedTokenHeader))
	require.Empty(t, rec.Header().Get("Set-Cookie"))
}

func TestAttachTraceContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	r.GET("/x", func(c *gin.Context) {
		td := ctxutil.GetTraceData(c.Request.Context())
		c.String(http.StatusOK, td.RequestID)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, "req-123", rec.Body.String())
	require.Equal(t, "req-123", rec.Header().Get("X-Request-Id"))
	require.NotEmpty(t, rec.Header().Get("X-Trace-Id"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	_, err := uuid.Parse(rec.Header().Get("X-Request-Id"))
	require.NoError(t, err)
}

func TestMetricsMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := observability.NewMetrics()
	r := gin.New()
	r.Use(Metrics(m), RequestLogger(logger.Nop()))
	r.GET("/api/tasks/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/tasks/"+uuid.NewString(), nil))
	require.Equal(t, http.StatusNoContent, rec.Code)

	var sb strings.Builder
	require.NoError(t, m.WritePrometheus(&sb))
	require.Contains(t, sb.String(), `gtd_api_requests_total{method="GET",route="/api/tasks/:id",status="204"} 1`)
	require.Contains(t, sb.String(), "gtd_api_inflight_requests 0")
}

func TestAttachTraceContextRejectsUnsafeIDs(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(AttachTraceContext())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(HeaderRequestID, strings.Repeat("a", maxRequestIDLen+1))
	req.Header.Set(HeaderTraceID, "trace with spaces")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	reqID := rec.Header().Get(HeaderRequestID)
	_, err := uuid.Parse(reqID)
	require.NoError(t, err)
	require.Equal(t, reqID, rec.Header().Get(HeaderTraceID))
}

func TestMetricsMiddlewareSkipsScrapes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := observability.NewMetrics()
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/metrics", gin.WrapF(m.WriteHTTP))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), `route="/metrics"`)

	var sb strings.Builder
	require.NoError(t, m.WritePrometheus(&sb))
	require.NotContains(t, sb.String(), `route="/metrics"`)
}
