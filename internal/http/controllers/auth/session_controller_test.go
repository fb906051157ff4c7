package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dropDatabas3/authgate/internal/authz"
	"github.com/dropDatabas3/authgate/internal/http/dto"
	"github.com/dropDatabas3/authgate/internal/http/middlewares"
	svc "github.com/dropDatabas3/authgate/internal/http/services/auth"
)

// fakeSessionService registra las llamadas de sesión; el resto de la
// interfaz embebida panichea si el controller la toca sin querer.
type fakeSessionService struct {
	svc.Service

	logoutAllUser   string
	logoutAllExcept string
	logoutCalls     int
}

func (f *fakeSessionService) LogoutAll(_ context.Context, userID, exceptRefresh string) (int, error) {
	f.logoutAllUser = userID
	f.logoutAllExcept = exceptRefresh
	return 2, nil
}

func (f *fakeSessionService) Logout(_ context.Context, _, _ string) {
	f.logoutCalls++
}

func logoutAllRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout-all", strings.NewReader(body))
	ctx := middlewares.WithIdentity(req.Context(), authz.Identity{UserID: "u1", Email: "ana@example.com"})
	return req.WithContext(ctx)
}

func clearedRefreshCookie(rec *httptest.ResponseRecorder) bool {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == refreshCookieName && ck.MaxAge < 1 {
			return true
		}
	}
	return false
}

func TestLogoutAll_SparesSessionFromCookie(t *testing.T) {
	fake := &fakeSessionService{}
	c := NewController(fake)

	req := logoutAllRequest("")
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: "cookie-rt"})
	rec := httptest.NewRecorder()
	c.LogoutAll(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if fake.logoutAllUser != "u1" {
		t.Fatalf("user = %q, want u1", fake.logoutAllUser)
	}
	if fake.logoutAllExcept != "cookie-rt" {
		t.Fatalf("except = %q, want cookie-rt", fake.logoutAllExcept)
	}
	// La sesión que pidió el logout-all sigue operativa: ni blacklist del
	// access token ni cookie borrada.
	if fake.logoutCalls != 0 {
		t.Fatalf("Logout called %d times, want 0", fake.logoutCalls)
	}
	if clearedRefreshCookie(rec) {
		t.Fatal("refresh cookie was cleared for a surviving session")
	}

	var resp dto.SessionsRevokedResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Revoked != 2 {
		t.Fatalf("revoked = %d, want 2", resp.Revoked)
	}
}

func TestLogoutAll_BodyTokenWinsOverCookie(t *testing.T) {
	fake := &fakeSessionService{}
	c := NewController(fake)

	req := logoutAllRequest(`{"refresh_token":"body-rt"}`)
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: refreshCookieName, Value: "cookie-rt"})
	rec := httptest.NewRecorder()
	c.LogoutAll(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if fake.logoutAllExcept != "body-rt" {
		t.Fatalf("except = %q, want body-rt", fake.logoutAllExcept)
	}
}

func TestLogoutAll_NoTokenClearsCookie(t *testing.T) {
	fake := &fakeSessionService{}
	c := NewController(fake)

	rec := httptest.NewRecorder()
	c.LogoutAll(rec, logoutAllRequest(""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if fake.logoutAllExcept != "" {
		t.Fatalf("except = %q, want empty", fake.logoutAllExcept)
	}
	// Sin excepción la propia sesión también cayó: la cookie se limpia.
	if !clearedRefreshCookie(rec) {
		t.Fatal("refresh cookie was not cleared")
	}
}

func TestLogoutAll_NoIdentity(t *testing.T) {
	fake := &fakeSessionService{}
	c := NewController(fake)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/logout-all", strings.NewReader(""))
	c.LogoutAll(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if fake.logoutAllUser != "" {
		t.Fatal("service was called without identity")
	}
}
