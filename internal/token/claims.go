package token

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// Kind distingue access de refresh. Cada kind firma con su propio secreto,
// así un secreto filtrado no permite forjar tokens del otro tipo.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims es el payload firmado de ambos tipos de token.
type Claims struct {
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
	Kind        string   `json:"type"`
	jwtv5.RegisteredClaims
}

// UserID es un alias legible del subject.
func (c *Claims) UserID() string { return c.Subject }

// decodeExpiry extrae el claim exp sin verificar la firma. Se usa para
// espejar la expiración en la fila del refresh token y para blacklistear
// access tokens que pueden estar al borde de expirar.
func decodeExpiry(tokenStr string) (time.Time, error) {
	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 {
		return time.Time{}, ErrInvalidToken
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return time.Time{}, ErrInvalidToken
	}
	var body struct {
		Exp int64 `json:"exp"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.Exp == 0 {
		return time.Time{}, ErrInvalidToken
	}
	return time.Unix(body.Exp, 0).UTC(), nil
}
