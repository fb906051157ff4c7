// Package email renderiza y envía los correos transaccionales del servicio:
// verificación de cuenta y reset de password.
package email

import (
	"bytes"
	"errors"
	"fmt"
	htemplate "html/template"
	"net/url"
	"time"
)

var (
	ErrTemplateRender = errors.New("email: template render failed")
	ErrSendFailed     = errors.New("email: send failed")
)

// ServiceConfig contiene la configuración del servicio de email.
type ServiceConfig struct {
	Sender  Sender
	AppName string // nombre visible en subjects y templates
	BaseURL string // URL base para links (ej: https://auth.example.com)
}

// Service arma y despacha los correos transaccionales.
type Service struct {
	sender  Sender
	appName string
	baseURL string

	verifyHTML *htemplate.Template
	resetHTML  *htemplate.Template
}

// NewService crea el servicio con los templates por defecto compilados.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Sender == nil {
		return nil, fmt.Errorf("email: sender is required")
	}
	if cfg.AppName == "" {
		cfg.AppName = "AuthGate"
	}

	verifyHTML, err := htemplate.New("verify_html").Parse(defaultVerifyHTML)
	if err != nil {
		return nil, fmt.Errorf("parse verify template: %w", err)
	}
	resetHTML, err := htemplate.New("reset_html").Parse(defaultResetHTML)
	if err != nil {
		return nil, fmt.Errorf("parse reset template: %w", err)
	}

	return &Service{
		sender:     cfg.Sender,
		appName:    cfg.AppName,
		baseURL:    cfg.BaseURL,
		verifyHTML: verifyHTML,
		resetHTML:  resetHTML,
	}, nil
}

// templateVars son las variables comunes a ambos templates.
type templateVars struct {
	AppName string
	Email   string
	Link    string
	TTL     string
}

// SendVerification envía el correo de verificación de cuenta.
// El token ya fue generado y persistido por el caller.
func (s *Service) SendVerification(to, token string, ttl time.Duration) error {
	link := s.link("/v1/auth/verify-email", token)
	vars := templateVars{AppName: s.appName, Email: to, Link: link, TTL: humanTTL(ttl)}

	var html bytes.Buffer
	if err := s.verifyHTML.Execute(&html, vars); err != nil {
		return fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}
	text := fmt.Sprintf(
		"Welcome to %s!\n\nConfirm your email address by opening this link:\n%s\n\nThe link expires in %s. If you did not create an account, ignore this message.\n",
		s.appName, link, vars.TTL,
	)

	subject := fmt.Sprintf("%s — verify your email", s.appName)
	if err := s.sender.Send(to, subject, html.String(), text); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return nil
}

// SendPasswordReset envía el correo de recuperación de password.
func (s *Service) SendPasswordReset(to, token string, ttl time.Duration) error {
	link := s.link("/v1/auth/reset-password", token)
	vars := templateVars{AppName: s.appName, Email: to, Link: link, TTL: humanTTL(ttl)}

	var html bytes.Buffer
	if err := s.resetHTML.Execute(&html, vars); err != nil {
		return fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}
	text := fmt.Sprintf(
		"A password reset was requested for your %s account.\n\nOpen this link to choose a new password:\n%s\n\nThe link expires in %s. If you did not request this, ignore this message; your password is unchanged.\n",
		s.appName, link, vars.TTL,
	)

	subject := fmt.Sprintf("%s — password reset", s.appName)
	if err := s.sender.Send(to, subject, html.String(), text); err != nil {
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}
	return nil
}

func (s *Service) link(path, token string) string {
	return fmt.Sprintf("%s%s?token=%s", s.baseURL, path, url.QueryEscape(token))
}

func humanTTL(d time.Duration) string {
	if d >= 24*time.Hour {
		return fmt.Sprintf("%d hours", int(d.Hours()))
	}
	if d >= time.Hour {
		return fmt.Sprintf("%d hour(s)", int(d.Hours()))
	}
	return fmt.Sprintf("%d minutes", int(d.Minutes()))
}
