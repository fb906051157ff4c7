package email

import (
	"errors"
	"strings"
	"testing"
	"time"
)

type fakeSender struct {
	to, subject, html, text string
	err                     error
	calls                   int
}

func (f *fakeSender) Send(to, subject, htmlBody, textBody string) error {
	f.calls++
	f.to, f.subject, f.html, f.text = to, subject, htmlBody, textBody
	return f.err
}

func newTestService(t *testing.T, sender Sender) *Service {
	t.Helper()
	s, err := NewService(ServiceConfig{
		Sender:  sender,
		AppName: "TestApp",
		BaseURL: "https://auth.example.com",
	})
	if err != nil {
		t.Fatalf("NewService err: %v", err)
	}
	return s
}

func TestNewService_RequiresSender(t *testing.T) {
	if _, err := NewService(ServiceConfig{}); err == nil {
		t.Fatalf("expected error without sender")
	}
}

func TestSendVerification(t *testing.T) {
	f := &fakeSender{}
	s := newTestService(t, f)

	if err := s.SendVerification("ana@example.com", "tok en+123", 48*time.Hour); err != nil {
		t.Fatalf("SendVerification err: %v", err)
	}
	if f.calls != 1 || f.to != "ana@example.com" {
		t.Fatalf("sender not called correctly: calls=%d to=%q", f.calls, f.to)
	}
	if !strings.Contains(f.subject, "TestApp") {
		t.Fatalf("subject missing app name: %q", f.subject)
	}

	// El link apunta al endpoint de verificación con el token escapado.
	wantLink := "https://auth.example.com/v1/auth/verify-email?token=tok+en%2B123"
	if !strings.Contains(f.text, wantLink) {
		t.Fatalf("text body missing link %q:\n%s", wantLink, f.text)
	}
	if !strings.Contains(f.html, "TestApp") || !strings.Contains(f.html, "48 hours") {
		t.Fatalf("html body missing app name or TTL:\n%s", f.html)
	}
}

func TestSendPasswordReset(t *testing.T) {
	f := &fakeSender{}
	s := newTestService(t, f)

	if err := s.SendPasswordReset("ana@example.com", "reset-tok", time.Hour); err != nil {
		t.Fatalf("SendPasswordReset err: %v", err)
	}
	if !strings.Contains(f.text, "https://auth.example.com/v1/auth/reset-password?token=reset-tok") {
		t.Fatalf("text body missing reset link:\n%s", f.text)
	}
	if !strings.Contains(f.text, "1 hour(s)") {
		t.Fatalf("text body missing TTL:\n%s", f.text)
	}
}

func TestSend_TransportError(t *testing.T) {
	f := &fakeSender{err: errors.New("smtp down")}
	s := newTestService(t, f)

	err := s.SendVerification("ana@example.com", "tok", time.Hour)
	if !errors.Is(err, ErrSendFailed) {
		t.Fatalf("err = %v, want ErrSendFailed", err)
	}
}

func TestHumanTTL(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Minute, "30 minutes"},
		{2 * time.Hour, "2 hour(s)"},
		{48 * time.Hour, "48 hours"},
	}
	for _, tc := range cases {
		if got := humanTTL(tc.d); got != tc.want {
			t.Fatalf("humanTTL(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}
