package middlewares

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dropDatabas3/authgate/internal/authz"
	"github.com/dropDatabas3/authgate/internal/cache"
	"github.com/dropDatabas3/authgate/internal/rate"
	"github.com/dropDatabas3/authgate/internal/token"
)

type memBlacklist struct {
	entries map[string]time.Time
}

func (b *memBlacklist) Add(ctx context.Context, tok string, exp time.Time) error {
	if b.entries == nil {
		b.entries = make(map[string]time.Time)
	}
	b.entries[tok] = exp
	return nil
}

func (b *memBlacklist) Contains(ctx context.Context, tok string, now time.Time) (bool, error) {
	exp, ok := b.entries[tok]
	return ok && now.Before(exp), nil
}

func (b *memBlacklist) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	return 0, nil
}

func newTestAuthority(t *testing.T, accessTTL time.Duration) (*token.Authority, *memBlacklist) {
	t.Helper()
	bl := &memBlacklist{}
	a, err := token.New(token.Config{
		Issuer:        "authgate-test",
		Audience:      "authgate-clients",
		AccessSecret:  []byte("access-secret-at-least-32-bytes!!"),
		RefreshSecret: []byte("refresh-secret-at-least-32-bytes!"),
		AccessTTL:     accessTTL,
	}, token.Deps{
		Blacklist: bl,
		Cache:     cache.NewMemory("test:"),
	})
	if err != nil {
		t.Fatalf("token.New: %v", err)
	}
	return a, bl
}

// okHandler responde 200 y registra la Identity que vio.
type okHandler struct {
	called bool
	id     authz.Identity
	idOK   bool
	raw    string
}

func (h *okHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.called = true
	h.id, h.idOK = GetIdentity(r.Context())
	h.raw = GetAccessToken(r.Context())
	w.WriteHeader(http.StatusOK)
}

func decodeErrBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	return body
}

func TestRequireAuth_MissingToken(t *testing.T) {
	authority, _ := newTestAuthority(t, 0)
	next := &okHandler{}
	h := RequireAuth(authority)(next)

	for _, header := range []string{"", "Bearer", "Basic dXNlcjpwYXNz", "Bearer "} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: status = %d, want 401", header, rec.Code)
		}
		if got := rec.Header().Get("WWW-Authenticate"); got == "" {
			t.Fatalf("header %q: missing WWW-Authenticate", header)
		}
		if next.called {
			t.Fatalf("header %q: next handler was called", header)
		}
	}
}

func TestRequireAuth_GarbageToken(t *testing.T) {
	authority, _ := newTestAuthority(t, 0)
	next := &okHandler{}
	h := RequireAuth(authority)(next)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer not.a.jwt")
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	body := decodeErrBody(t, rec)
	if body["code"] != "UNAUTHORIZED" {
		t.Fatalf("code = %q, want UNAUTHORIZED", body["code"])
	}
	if next.called {
		t.Fatal("next handler was called with a garbage token")
	}
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	authority, _ := newTestAuthority(t, time.Millisecond)
	raw, err := authority.Mint("u1", "ana@example.com", nil, nil, token.KindAccess)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	// exp se trunca a segundos enteros en el JWT.
	time.Sleep(1100 * time.Millisecond)

	next := &okHandler{}
	h := RequireAuth(authority)(next)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	body := decodeErrBody(t, rec)
	if body["code"] != "TOKEN_EXPIRED" {
		t.Fatalf("code = %q, want TOKEN_EXPIRED", body["code"])
	}
	if next.called {
		t.Fatal("next handler was called with an expired token")
	}
}

func TestRequireAuth_RefreshTokenRejected(t *testing.T) {
	authority, _ := newTestAuthority(t, 0)
	raw, err := authority.Mint("u1", "ana@example.com", nil, nil, token.KindRefresh)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	next := &okHandler{}
	h := RequireAuth(authority)(next)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if next.called {
		t.Fatal("next handler accepted a refresh token as access")
	}
}

func TestRequireAuth_BlacklistedToken(t *testing.T) {
	authority, _ := newTestAuthority(t, 0)
	raw, err := authority.Mint("u1", "ana@example.com", []string{"user"}, nil, token.KindAccess)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	authority.BlacklistAccess(context.Background(), raw)

	next := &okHandler{}
	h := RequireAuth(authority)(next)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if next.called {
		t.Fatal("next handler was called with a blacklisted token")
	}
}

func TestRequireAuth_ValidTokenPopulatesContext(t *testing.T) {
	authority, _ := newTestAuthority(t, 0)
	raw, err := authority.Mint("u1", "ana@example.com",
		[]string{"user", "editor"}, []string{"posts:write"}, token.KindAccess)
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	next := &okHandler{}
	h := RequireAuth(authority)(next)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+raw)
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !next.called {
		t.Fatal("next handler was not called")
	}
	if !next.idOK {
		t.Fatal("identity missing from context")
	}
	if next.id.UserID != "u1" || next.id.Email != "ana@example.com" {
		t.Fatalf("identity = %+v", next.id)
	}
	if len(next.id.Roles) != 2 || next.id.Roles[0] != "user" {
		t.Fatalf("roles = %v", next.id.Roles)
	}
	if next.raw != raw {
		t.Fatal("access token not propagated in context")
	}
}

func withIdentityReq(id authz.Identity) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/v1/admin/roles", nil)
	return req.WithContext(WithIdentity(req.Context(), id))
}

func TestRequireRole(t *testing.T) {
	next := &okHandler{}
	h := RequireRole("admin")(next)

	// Sin Identity: 401, no 403.
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/admin/roles", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no identity: status = %d, want 401", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, withIdentityReq(authz.Identity{UserID: "u1", Roles: []string{"user"}}))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("wrong role: status = %d, want 403", rec.Code)
	}
	if body := decodeErrBody(t, rec); body["code"] != "FORBIDDEN" {
		t.Fatalf("code = %q, want FORBIDDEN", body["code"])
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, withIdentityReq(authz.Identity{UserID: "u1", Roles: []string{"user", "admin"}}))
	if rec.Code != http.StatusOK {
		t.Fatalf("admin role: status = %d, want 200", rec.Code)
	}
}

func TestRequirePermission(t *testing.T) {
	next := &okHandler{}
	h := RequirePermission("users:write", "users:admin")(next)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, withIdentityReq(authz.Identity{UserID: "u1", Permissions: []string{"users:read"}}))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("missing perm: status = %d, want 403", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, withIdentityReq(authz.Identity{UserID: "u1", Permissions: []string{"users:admin"}}))
	if rec.Code != http.StatusOK {
		t.Fatalf("any-of perm: status = %d, want 200", rec.Code)
	}
}

func TestRequireAllPermissions(t *testing.T) {
	next := &okHandler{}
	h := RequireAllPermissions("users:read", "users:write")(next)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, withIdentityReq(authz.Identity{UserID: "u1", Permissions: []string{"users:read"}}))
	if rec.Code != http.StatusForbidden {
		t.Fatalf("partial perms: status = %d, want 403", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, withIdentityReq(authz.Identity{
		UserID:      "u1",
		Permissions: []string{"users:read", "users:write", "extra"},
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("all perms: status = %d, want 200", rec.Code)
	}
}

// failingLimiter simula un backend caído.
type failingLimiter struct{}

func (failingLimiter) Allow(ctx context.Context, key string) (rate.Result, error) {
	return rate.Result{}, context.DeadlineExceeded
}

func TestWithRateLimit_BlocksOverLimit(t *testing.T) {
	limiter := rate.NewMemoryLimiter(2, time.Minute)
	next := &okHandler{}
	h := WithRateLimit(limiter, nil)(next)

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		h.ServeHTTP(last, req)
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: status = %d, want 429", last.Code)
	}
	if last.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After header")
	}
	if last.Header().Get("X-RateLimit-Remaining") != "0" {
		t.Fatalf("X-RateLimit-Remaining = %q, want 0", last.Header().Get("X-RateLimit-Remaining"))
	}
}

func TestWithRateLimit_KeysByClientIP(t *testing.T) {
	limiter := rate.NewMemoryLimiter(1, time.Minute)
	next := &okHandler{}
	h := WithRateLimit(limiter, nil)(next)

	for _, addr := range []string{"10.0.0.1:5000", "10.0.0.2:5000"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
		req.RemoteAddr = addr
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("first request from %s: status = %d, want 200", addr, rec.Code)
		}
	}
}

func TestWithRateLimit_FailOpen(t *testing.T) {
	next := &okHandler{}
	h := WithRateLimit(failingLimiter{}, nil)(next)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil)
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("limiter error: status = %d, want 200 (fail open)", rec.Code)
	}
	if !next.called {
		t.Fatal("next handler was not called")
	}
}

func TestWithRateLimit_NilLimiterPasses(t *testing.T) {
	next := &okHandler{}
	h := WithRateLimit(nil, nil)(next)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/auth/login", nil))
	if rec.Code != http.StatusOK || !next.called {
		t.Fatalf("nil limiter: status = %d, called = %v", rec.Code, next.called)
	}
}
