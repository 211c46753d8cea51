package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dashboard_api/internal/cache"
	"dashboard_api/internal/logging"
	"dashboard_api/internal/metrics"
	"dashboard_api/internal/model"
	"dashboard_api/internal/repository/memory"
	"dashboard_api/internal/service"
	"dashboard_api/internal/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const password = "Passw0rd!"

type testServer struct {
	t      *testing.T
	router *gin.Engine
	store  *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	return newTestServerWith(t, nil)
}

func newTestServerWith(t *testing.T, mutate func(*Deps)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewStore()
	jwtUtil := utils.NewJWTUtil("server-test-secret-long-enough-123", 1)
	logs := service.NewLogService(store.Logs())

	deps := Deps{
		Auth:           service.NewAuthService(store.Users(), jwtUtil, nil, logs, "admin@example.com"),
		Posts:          service.NewPostService(store.Posts(), logs),
		Users:          service.NewUserService(store.Users(), nil, logs),
		Logs:           logs,
		Store:          store,
		AllowedOrigins: []string{"*"},
		MaxBodyBytes:   4096,
		AuthRateLimit:  100,
		AuthRateWindow: time.Minute,
	}
	if mutate != nil {
		mutate(&deps)
	}
	router, err := NewRouter(deps)
	require.NoError(t, err)
	return &testServer{t: t, router: router, store: store}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type authResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

type postResponse struct {
	Post model.Post `json:"post"`
}

type errorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// register signs up a user and sets its role directly in the store.
func (s *testServer) register(first, email string, role model.Role) authResponse {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"firstName": first, "lastName": "Test", "email": email, "password": password,
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[authResponse](s.t, w)
	if resp.User.Role != role {
		_, err := s.store.Users().UpdateRole(context.Background(), resp.User.ID, role)
		require.NoError(s.t, err)
		resp.User.Role = role
	}
	return resp
}

func TestScenario_CreateLikeDelete(t *testing.T) {
	s := newTestServer(t)
	editor := s.register("Ed", "ed@example.com", model.RoleEditor)
	viewer := s.register("Vi", "vi@example.com", model.RoleViewer)

	w := s.do(http.MethodPost, "/api/posts", editor.Token, map[string]string{"title": "Hello", "content": "World"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	post := decode[postResponse](t, w).Post
	assert.Equal(t, editor.User.ID, post.AuthorID)

	w = s.do(http.MethodPost, fmt.Sprintf("/api/posts/%d/like", post.ID), viewer.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	like := decode[model.LikeResult](t, w)
	assert.True(t, like.Liked)
	assert.Equal(t, 1, like.Likes)

	w = s.do(http.MethodGet, fmt.Sprintf("/api/posts/%d", post.ID), viewer.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[model.Post](t, w)
	assert.Equal(t, []int64{viewer.User.ID}, got.Likes)

	w = s.do(http.MethodDelete, fmt.Sprintf("/api/posts/%d", post.ID), editor.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, fmt.Sprintf("/api/posts/%d", post.ID), viewer.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "POST_NOT_FOUND", decode[errorResponse](t, w).Code)
}

func TestScenario_NonAuthorEditForbidden(t *testing.T) {
	s := newTestServer(t)
	e1 := s.register("E", "e1@example.com", model.RoleEditor)
	e2 := s.register("F", "e2@example.com", model.RoleEditor)
	admin := s.register("Ad", "admin@example.com", model.RoleAdmin)

	w := s.do(http.MethodPost, "/api/posts", e1.Token, map[string]string{"title": "Original", "content": "Body"})
	require.Equal(t, http.StatusCreated, w.Code)
	post := decode[postResponse](t, w).Post

	for _, tok := range []string{e2.Token, admin.Token} {
		w = s.do(http.MethodPut, fmt.Sprintf("/api/posts/%d", post.ID), tok, map[string]string{"title": "Changed"})
		assert.Equal(t, http.StatusForbidden, w.Code)
		w = s.do(http.MethodDelete, fmt.Sprintf("/api/posts/%d", post.ID), tok, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	}

	w = s.do(http.MethodGet, fmt.Sprintf("/api/posts/%d", post.ID), e2.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Original", decode[model.Post](t, w).Title)
}

func TestScenario_CapabilityTableAtBoundary(t *testing.T) {
	s := newTestServer(t)
	admin := s.register("Ad", "admin@example.com", model.RoleAdmin)
	editor := s.register("Ed", "ed@example.com", model.RoleEditor)
	viewer := s.register("Vi", "vi@example.com", model.RoleViewer)
	assert.Equal(t, model.RoleAdmin, admin.User.Role, "initial admin email registers as admin")

	tests := []struct {
		method, path string
		body         any
		want         map[model.Role]int
	}{
		{http.MethodGet, "/api/users", nil, map[model.Role]int{model.RoleAdmin: 200, model.RoleEditor: 403, model.RoleViewer: 403}},
		{http.MethodGet, "/api/logs", nil, map[model.Role]int{model.RoleAdmin: 200, model.RoleEditor: 403, model.RoleViewer: 403}},
		{http.MethodGet, "/api/posts/editor/my-posts", nil, map[model.Role]int{model.RoleAdmin: 200, model.RoleEditor: 200, model.RoleViewer: 403}},
		{http.MethodPost, "/api/posts", map[string]string{"title": "t", "content": "c"}, map[model.Role]int{model.RoleAdmin: 201, model.RoleEditor: 201, model.RoleViewer: 403}},
		{http.MethodGet, "/api/posts", nil, map[model.Role]int{model.RoleAdmin: 200, model.RoleEditor: 200, model.RoleViewer: 200}},
	}
	tokens := map[model.Role]string{model.RoleAdmin: admin.Token, model.RoleEditor: editor.Token, model.RoleViewer: viewer.Token}
	for _, tt := range tests {
		for role, want := range tt.want {
			t.Run(tt.method+" "+tt.path+" as "+string(role), func(t *testing.T) {
				w := s.do(tt.method, tt.path, tokens[role], tt.body)
				assert.Equal(t, want, w.Code, w.Body.String())
			})
		}
	}
}

func TestScenario_Authentication(t *testing.T) {
	s := newTestServer(t)
	s.register("Ann", "ann@example.com", model.RoleViewer)

	w := s.do(http.MethodGet, "/api/posts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/posts", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ann@example.com", "password": "Wrong1!xx"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decode[errorResponse](t, w).Code)

	w = s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ann@example.com", "password": password})
	require.Equal(t, http.StatusOK, w.Code)
	login := decode[authResponse](t, w)
	assert.NotContains(t, w.Body.String(), "passwordHash")

	w = s.do(http.MethodGet, "/api/auth/me", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ann@example.com", decode[model.User](t, w).Email)

	w = s.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"firstName": "Ann", "lastName": "Again", "email": "ann@example.com", "password": password,
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/auth/register", "", map[string]string{"firstName": "NoEmail"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode[errorResponse](t, w).Code)
}

func TestScenario_RoleChangeAppliesToExistingToken(t *testing.T) {
	s := newTestServer(t)
	admin := s.register("Ad", "admin@example.com", model.RoleAdmin)
	viewer := s.register("Vi", "vi@example.com", model.RoleViewer)

	w := s.do(http.MethodPost, "/api/posts", viewer.Token, map[string]string{"title": "t", "content": "c"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(http.MethodPut, fmt.Sprintf("/api/users/%d/role", viewer.User.ID), admin.Token, map[string]string{"role": "superuser"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_ROLE", decode[errorResponse](t, w).Code)

	w = s.do(http.MethodPut, fmt.Sprintf("/api/users/%d/role", viewer.User.ID), admin.Token, map[string]string{"role": "editor"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/posts", viewer.Token, map[string]string{"title": "t", "content": "c"})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestScenario_UserManagement(t *testing.T) {
	s := newTestServer(t)
	admin := s.register("Ad", "admin@example.com", model.RoleAdmin)
	editor := s.register("Ed", "ed@example.com", model.RoleEditor)

	w := s.do(http.MethodDelete, fmt.Sprintf("/api/users/%d", admin.User.ID), admin.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "SELF_DELETE", decode[errorResponse](t, w).Code)

	w = s.do(http.MethodGet, "/api/users/abc", admin.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodGet, "/api/users/999", admin.Token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodDelete, fmt.Sprintf("/api/users/%d", editor.User.ID), admin.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/posts", editor.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "deleted user's token no longer authenticates")

	w = s.do(http.MethodGet, "/api/logs", admin.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	logs := decode[[]model.ActivityLog](t, w)
	require.NotEmpty(t, logs)
	assert.Equal(t, model.ActionDeleteUser, logs[0].Action)
}

func TestScenario_CommentsAndProfile(t *testing.T) {
	s := newTestServer(t)
	editor := s.register("Ed", "ed@example.com", model.RoleEditor)
	viewer := s.register("Vi", "vi@example.com", model.RoleViewer)

	w := s.do(http.MethodPost, "/api/posts", editor.Token, map[string]string{"title": "t", "content": "c"})
	require.Equal(t, http.StatusCreated, w.Code)
	post := decode[postResponse](t, w).Post

	w = s.do(http.MethodPost, fmt.Sprintf("/api/posts/%d/comment", post.ID), viewer.Token, map[string]string{"content": "Nice"})
	require.Equal(t, http.StatusCreated, w.Code)
	commented := decode[postResponse](t, w).Post
	require.Len(t, commented.Comments, 1)
	require.NotNil(t, commented.Comments[0].Author)
	assert.Equal(t, "Vi", commented.Comments[0].Author.FirstName)

	w = s.do(http.MethodPut, "/api/auth/profile", viewer.Token, map[string]string{"firstName": "Victor"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), `"token"`)

	w = s.do(http.MethodGet, fmt.Sprintf("/api/posts?author=%d", editor.User.ID), viewer.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Post](t, w), 1)

	w = s.do(http.MethodGet, "/api/posts?author=x", viewer.Token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBodyTooLarge(t *testing.T) {
	s := newTestServer(t)
	editor := s.register("Ed", "ed@example.com", model.RoleEditor)

	w := s.do(http.MethodPost, "/api/posts", editor.Token, map[string]string{
		"title": "t", "content": strings.Repeat("x", 8192),
	})
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "PAYLOAD_TOO_LARGE", decode[errorResponse](t, w).Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])

	w = s.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dashboard_http_requests_total")

	w = s.do(http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth_ReportsRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := cache.NewClient(context.Background(), mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	s := newTestServerWith(t, func(d *Deps) { d.Cache = cache.New(client) })

	w := s.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode[map[string]string](t, w)["redis"])

	mr.Close()
	w = s.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	body := decode[map[string]string](t, w)
	assert.Equal(t, "unhealthy", body["redis"])
	assert.Equal(t, "healthy", body["db"])
}

func TestAuthRateLimit_FailClosedWithoutRedis(t *testing.T) {
	s := newTestServerWith(t, func(d *Deps) { d.AuthRateFailClosed = true })

	w := s.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@example.com", "password": password})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "RATE_LIMIT_UNAVAILABLE", decode[errorResponse](t, w).Code)

	w = s.do(http.MethodGet, "/api/posts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code, "only auth routes are rate limited")
}

func TestPanicIsLoggedAndCounted(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(logging.New(&buf, false, "info"))
	t.Cleanup(func() { slog.SetDefault(prev) })

	s := newTestServer(t)
	s.router.GET("/boom", func(*gin.Context) { panic("boom") })
	counter := metrics.HTTPRequests.WithLabelValues(http.MethodGet, "/boom", "500")
	before := testutil.ToFloat64(counter)

	w := s.do(http.MethodGet, "/boom", "", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_ERROR", decode[errorResponse](t, w).Code)

	assert.Equal(t, before+1, testutil.ToFloat64(counter))
	assert.Contains(t, buf.String(), "panic recovered")
	assert.Contains(t, buf.String(), `msg="request failed"`)
	assert.Contains(t, buf.String(), "route=/boom")
}
