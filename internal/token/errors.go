package token

import "fmt"

// Failure kinds surfaced by the authority. Callers render different user
// messages for invalid vs expired, so they stay distinct.
var (
	ErrInvalidToken    = fmt.Errorf("invalid token")
	ErrExpiredToken    = fmt.Errorf("token expired")
	ErrAccountDisabled = fmt.Errorf("account disabled")
	ErrIssueFailed     = fmt.Errorf("failed to issue tokens")
)
