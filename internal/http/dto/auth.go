// Package dto define los contratos JSON de la API.
package dto

import "time"

// ─── Requests ───

type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type UpdateProfileRequest struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Avatar    *string `json:"avatar,omitempty"`
}

// ─── Responses ───

// TokenPair es la respuesta estándar de login/refresh/callback OAuth.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"` // siempre "Bearer"
	ExpiresIn    int64  `json:"expires_in"` // segundos de vida del access token
}

// UserProfile es la vista pública de un usuario.
type UserProfile struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	Avatar        string     `json:"avatar,omitempty"`
	EmailVerified bool       `json:"email_verified"`
	Roles         []string   `json:"roles"`
	Permissions   []string   `json:"permissions"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// LoginResponse incluye el par de tokens y el perfil.
type LoginResponse struct {
	TokenPair
	User UserProfile `json:"user"`
}

// MessageResponse es la respuesta genérica para operaciones sin payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// SessionsRevokedResponse reporta cuántas sesiones se cerraron.
type SessionsRevokedResponse struct {
	Message string `json:"message"`
	Revoked int    `json:"revoked"`
}
