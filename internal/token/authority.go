// Package token implements the token authority: it mints, verifies, rotates
// and revokes the signed access/refresh pair, and maintains the refresh-token
// and blacklist tables.
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/dropDatabas3/authgate/internal/authz"
	"github.com/dropDatabas3/authgate/internal/cache"
	"github.com/dropDatabas3/authgate/internal/domain/repository"
	"github.com/dropDatabas3/authgate/internal/metrics"
	"github.com/dropDatabas3/authgate/internal/observability/logger"
	tokens "github.com/dropDatabas3/authgate/internal/security/token"
)

const minSecretLen = 32

// Config parametriza la firma y los TTLs.
type Config struct {
	Issuer        string // claim iss, constante del sistema
	Audience      string // claim aud, constante del sistema
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration // default 15m
	RefreshTTL    time.Duration // default 168h
}

// Deps contiene las dependencias del authority.
type Deps struct {
	Tokens    repository.TokenRepository
	Blacklist repository.BlacklistRepository
	Users     repository.UserRepository
	RBAC      repository.RBACRepository
	Cache     cache.Client
}

// Authority firma, verifica, rota y revoca pares de tokens.
type Authority struct {
	cfg  Config
	deps Deps
}

// New valida la configuración y construye el authority.
// Ambos secretos deben tener al menos 32 bytes y ser distintos entre sí.
func New(cfg Config, deps Deps) (*Authority, error) {
	if len(cfg.AccessSecret) < minSecretLen || len(cfg.RefreshSecret) < minSecretLen {
		return nil, fmt.Errorf("token: signing secrets must be at least %d bytes", minSecretLen)
	}
	if string(cfg.AccessSecret) == string(cfg.RefreshSecret) {
		return nil, fmt.Errorf("token: access and refresh secrets must differ")
	}
	if cfg.Issuer == "" || cfg.Audience == "" {
		return nil, fmt.Errorf("token: issuer and audience are required")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	return &Authority{cfg: cfg, deps: deps}, nil
}

// Pair es el resultado de una emisión: ambos tokens más la vida útil del
// access token en segundos (para el body de la respuesta).
type Pair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// ClientMeta es la metadata del cliente capturada al emitir, para auditoría.
type ClientMeta struct {
	UserAgent string
	IP        string
}

func (a *Authority) secretFor(kind Kind) []byte {
	if kind == KindRefresh {
		return a.cfg.RefreshSecret
	}
	return a.cfg.AccessSecret
}

func (a *Authority) ttlFor(kind Kind) time.Duration {
	if kind == KindRefresh {
		return a.cfg.RefreshTTL
	}
	return a.cfg.AccessTTL
}

// Mint firma un token del kind dado con el secreto correspondiente.
func (a *Authority) Mint(userID, email string, roles, perms []string, kind Kind) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Email:       email,
		Roles:       roles,
		Permissions: perms,
		Kind:        string(kind),
		RegisteredClaims: jwtv5.RegisteredClaims{
			Issuer:    a.cfg.Issuer,
			Subject:   userID,
			Audience:  jwtv5.ClaimStrings{a.cfg.Audience},
			IssuedAt:  jwtv5.NewNumericDate(now),
			NotBefore: jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(a.ttlFor(kind))),
			ID:        uuid.NewString(),
		},
	}
	tk := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	tk.Header["typ"] = "JWT"
	signed, err := tk.SignedString(a.secretFor(kind))
	if err != nil {
		return "", err
	}
	metrics.TokenIssued(string(kind))
	return signed, nil
}

// VerifyAccess valida firma, issuer, audience, expiración y type==access.
// No consulta la denylist: los callers combinan con IsBlacklisted.
func (a *Authority) VerifyAccess(tokenStr string) (*Claims, error) {
	return a.verify(tokenStr, KindAccess)
}

// VerifyRefresh valida firma, issuer, audience, expiración y type==refresh.
func (a *Authority) VerifyRefresh(tokenStr string) (*Claims, error) {
	return a.verify(tokenStr, KindRefresh)
}

func (a *Authority) verify(tokenStr string, kind Kind) (*Claims, error) {
	var claims Claims
	tk, err := jwtv5.ParseWithClaims(tokenStr, &claims,
		func(t *jwtv5.Token) (any, error) { return a.secretFor(kind), nil },
		jwtv5.WithValidMethods([]string{"HS256"}),
		jwtv5.WithIssuer(a.cfg.Issuer),
		jwtv5.WithAudience(a.cfg.Audience),
	)
	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	// Cross-type rejection: un refresh firmado no sirve como access aunque
	// la firma validara, y viceversa (los secretos ya difieren, esto es la
	// segunda barrera).
	if !tk.Valid || claims.Kind != string(kind) {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// IssuePair emite ambos tokens y persiste el refresh como una nueva fila.
// La expiración de la fila se deriva decodificando el claim exp del token
// recién firmado, nunca se recalcula aparte.
func (a *Authority) IssuePair(ctx context.Context, userID, email string, roles, perms []string, meta ClientMeta) (*Pair, error) {
	log := logger.From(ctx).With(logger.Component("token.authority"), logger.Op("IssuePair"), logger.UserID(userID))

	access, err := a.Mint(userID, email, roles, perms, KindAccess)
	if err != nil {
		log.Error("failed to sign access token", logger.Err(err))
		return nil, ErrIssueFailed
	}
	refresh, err := a.Mint(userID, email, roles, perms, KindRefresh)
	if err != nil {
		log.Error("failed to sign refresh token", logger.Err(err))
		return nil, ErrIssueFailed
	}

	refreshExp, err := decodeExpiry(refresh)
	if err != nil {
		log.Error("failed to decode refresh expiry", logger.Err(err))
		return nil, ErrIssueFailed
	}

	input := repository.CreateRefreshTokenInput{
		UserID:    userID,
		TokenHash: tokens.SHA256Base64URL(refresh),
		ExpiresAt: refreshExp,
		UserAgent: meta.UserAgent,
		IP:        meta.IP,
	}
	if _, err := a.deps.Tokens.Create(ctx, input); err != nil {
		log.Error("failed to persist refresh token", logger.Err(err))
		return nil, ErrIssueFailed
	}

	accessExp, err := decodeExpiry(access)
	if err != nil {
		return nil, ErrIssueFailed
	}
	return &Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(time.Until(accessExp).Seconds()),
	}, nil
}

// Refresh canjea un refresh token por un par nuevo (rotación obligatoria).
// Un refresh token se canjea exactamente una vez: el compare-and-set sobre
// la fila es el punto de serialización, así dos requests que compiten por el
// mismo token producen exactamente un ganador y el perdedor falla cerrado.
func (a *Authority) Refresh(ctx context.Context, oldToken string) (*Pair, error) {
	log := logger.From(ctx).With(logger.Component("token.authority"), logger.Op("Refresh"))

	if _, err := a.VerifyRefresh(oldToken); err != nil {
		metrics.TokenRefresh("invalid")
		return nil, err
	}

	rt, err := a.deps.Tokens.GetByHash(ctx, tokens.SHA256Base64URL(oldToken))
	if err != nil {
		log.Debug("refresh token row not found")
		metrics.TokenRefresh("invalid")
		return nil, ErrInvalidToken
	}

	log = log.With(logger.UserID(rt.UserID))

	if rt.Revoked() {
		// Canje de un token ya rotado: señal de posible robo de sesión.
		log.Warn("refresh token reuse detected", logger.ClientIP(rt.IP))
		metrics.RefreshReuseDetected()
		metrics.TokenRefresh("reuse")
		return nil, ErrInvalidToken
	}
	now := time.Now().UTC()
	if !now.Before(rt.ExpiresAt) {
		metrics.TokenRefresh("expired")
		return nil, ErrExpiredToken
	}

	user, err := a.deps.Users.GetByID(ctx, rt.UserID)
	if err != nil {
		log.Debug("user not found", logger.Err(err))
		metrics.TokenRefresh("invalid")
		return nil, ErrInvalidToken
	}
	if !user.Active {
		log.Info("user disabled")
		metrics.TokenRefresh("disabled")
		return nil, ErrAccountDisabled
	}

	// Serialización: el primero que revoca gana; el resto observa el token
	// como ya revocado y falla cerrado.
	won, err := a.deps.Tokens.RevokeIfActive(ctx, rt.ID)
	if err != nil {
		log.Error("failed to revoke old refresh token", logger.Err(err))
		metrics.TokenRefresh("error")
		return nil, ErrIssueFailed
	}
	if !won {
		log.Warn("refresh token reuse detected (lost rotation race)")
		metrics.RefreshReuseDetected()
		metrics.TokenRefresh("reuse")
		return nil, ErrInvalidToken
	}

	// Roles y permisos se re-resuelven: un permiso revocado a mitad de
	// sesión aplica en la próxima rotación, no se arrastran los claims
	// del token viejo.
	roles, err := a.deps.RBAC.GetUserRoles(ctx, user.ID)
	if err != nil {
		log.Error("failed to resolve roles", logger.Err(err))
		metrics.TokenRefresh("error")
		return nil, ErrIssueFailed
	}
	direct, err := a.deps.RBAC.GetUserDirectPermissions(ctx, user.ID)
	if err != nil {
		log.Error("failed to resolve direct permissions", logger.Err(err))
		metrics.TokenRefresh("error")
		return nil, ErrIssueFailed
	}

	pair, err := a.IssuePair(ctx, user.ID, user.Email,
		authz.RoleNames(roles), authz.Flatten(roles, direct),
		ClientMeta{UserAgent: rt.UserAgent, IP: rt.IP})
	if err != nil {
		metrics.TokenRefresh("error")
		return nil, err
	}

	log.Info("refresh successful")
	metrics.TokenRefresh("success")
	return pair, nil
}

// Revoke marca el refresh token como revocado. Best-effort: los errores de
// storage se loguean y se tragan para que el logout nunca falle de cara al
// usuario.
func (a *Authority) Revoke(ctx context.Context, refreshToken string) {
	log := logger.From(ctx).With(logger.Component("token.authority"), logger.Op("Revoke"))

	rt, err := a.deps.Tokens.GetByHash(ctx, tokens.SHA256Base64URL(refreshToken))
	if err != nil {
		log.Debug("refresh token not found on revoke")
		return
	}
	if err := a.deps.Tokens.Revoke(ctx, rt.ID); err != nil {
		log.Warn("failed to revoke refresh token", logger.Err(err))
		return
	}
	metrics.Revocation("logout")
}

// RevokeAll revoca todos los refresh tokens activos del usuario, excepto el
// token actual si exceptToken no es vacío (logout-all no debe matar la
// sesión que lo pidió; password-change sí mata todo).
func (a *Authority) RevokeAll(ctx context.Context, userID, exceptToken, reason string) (int, error) {
	exceptID := ""
	if exceptToken != "" {
		if rt, err := a.deps.Tokens.GetByHash(ctx, tokens.SHA256Base64URL(exceptToken)); err == nil {
			exceptID = rt.ID
		}
	}
	n, err := a.deps.Tokens.RevokeAllByUser(ctx, userID, exceptID)
	if err != nil {
		return 0, err
	}
	metrics.Revocation(reason)
	return n, nil
}

const blacklistKeyPrefix = "bl:"

// BlacklistAccess agrega el access token a la denylist hasta su propia
// expiración. Decodifica sin verificar (el token puede estar al borde de
// expirar). Best-effort: nunca falla el flujo que lo llama.
func (a *Authority) BlacklistAccess(ctx context.Context, accessToken string) {
	log := logger.From(ctx).With(logger.Component("token.authority"), logger.Op("BlacklistAccess"))

	exp, err := decodeExpiry(accessToken)
	if err != nil {
		log.Debug("cannot decode access token expiry", logger.Err(err))
		return
	}
	now := time.Now().UTC()
	if !now.Before(exp) {
		// Ya expiró: la verificación por firma lo rechaza sola.
		return
	}
	if err := a.deps.Blacklist.Add(ctx, accessToken, exp); err != nil {
		log.Warn("failed to blacklist access token", logger.Err(err))
		return
	}
	if a.deps.Cache != nil {
		_ = a.deps.Cache.Set(ctx, blacklistKeyPrefix+tokens.SHA256Base64URL(accessToken), "1", time.Until(exp))
	}
}

// IsBlacklisted reporta si el access token está en la denylist. Consulta el
// cache primero y cae al store en miss. Un error de store se loguea y se
// responde false: la denylist es defensa en profundidad, la validez primaria
// sigue siendo firma + expiración.
func (a *Authority) IsBlacklisted(ctx context.Context, accessToken string) bool {
	key := blacklistKeyPrefix + tokens.SHA256Base64URL(accessToken)
	if a.deps.Cache != nil {
		if _, err := a.deps.Cache.Get(ctx, key); err == nil {
			metrics.BlacklistHit()
			return true
		}
	}
	now := time.Now().UTC()
	found, err := a.deps.Blacklist.Contains(ctx, accessToken, now)
	if err != nil {
		logger.From(ctx).Warn("blacklist lookup failed", logger.Component("token.authority"), logger.Err(err))
		return false
	}
	if found {
		metrics.BlacklistHit()
		if a.deps.Cache != nil {
			if exp, derr := decodeExpiry(accessToken); derr == nil && now.Before(exp) {
				_ = a.deps.Cache.Set(ctx, key, "1", exp.Sub(now))
			}
		}
	}
	return found
}

// SweepExpired elimina refresh tokens y entradas de denylist vencidas.
// Se corre desde el ticker del proceso y desde el CLI.
func (a *Authority) SweepExpired(ctx context.Context) (refreshDeleted, blacklistDeleted int, err error) {
	now := time.Now().UTC()
	refreshDeleted, err = a.deps.Tokens.DeleteExpired(ctx, now)
	if err != nil {
		return 0, 0, fmt.Errorf("sweep refresh tokens: %w", err)
	}
	metrics.SweepDeleted("refresh_tokens", refreshDeleted)

	blacklistDeleted, err = a.deps.Blacklist.DeleteExpired(ctx, now)
	if err != nil {
		return refreshDeleted, 0, fmt.Errorf("sweep blacklist: %w", err)
	}
	metrics.SweepDeleted("blacklisted_tokens", blacklistDeleted)
	return refreshDeleted, blacklistDeleted, nil
}
