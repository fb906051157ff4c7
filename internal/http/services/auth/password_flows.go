package auth

import (
	"context"
	"strings"
	"time"

	"github.com/dropDatabas3/authgate/internal/domain/repository"
	"github.com/dropDatabas3/authgate/internal/observability/logger"
	"github.com/dropDatabas3/authgate/internal/security/password"
	tokens "github.com/dropDatabas3/authgate/internal/security/token"
)

// ForgotPassword dispara el flujo de recuperación. La respuesta es la
// misma exista o no la cuenta: el endpoint no sirve para enumerar emails.
func (s *service) ForgotPassword(ctx context.Context, emailAddr string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.password"),
		logger.Op("ForgotPassword"),
	)

	emailAddr = strings.TrimSpace(strings.ToLower(emailAddr))
	if emailAddr == "" {
		return ErrMissingFields
	}

	user, err := s.deps.Users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if repository.IsNotFound(err) {
			log.Debug("forgot password for unknown email")
			return nil
		}
		return err
	}
	if !user.Active {
		return nil
	}

	if s.deps.Email == nil {
		return nil
	}

	resetToken, err := tokens.GenerateOpaqueToken(32)
	if err != nil {
		log.Warn("reset token generation failed", logger.Err(err))
		return nil
	}
	expiresAt := time.Now().UTC().Add(s.deps.ResetTTL)
	if err := s.deps.Users.SetResetToken(ctx, user.ID, resetToken, expiresAt); err != nil {
		log.Warn("reset token persist failed", logger.Err(err))
		return nil
	}
	if err := s.deps.Email.SendPasswordReset(user.Email, resetToken, s.deps.ResetTTL); err != nil {
		log.Warn("reset email failed", logger.Err(err))
	}
	return nil
}

func (s *service) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.password"),
		logger.Op("ResetPassword"),
	)

	resetToken = strings.TrimSpace(resetToken)
	if resetToken == "" || newPassword == "" {
		return ErrMissingFields
	}
	if ok, _ := s.deps.Policy.Validate(newPassword); !ok {
		return ErrWeakPassword
	}

	user, err := s.deps.Users.GetByResetToken(ctx, resetToken, time.Now().UTC())
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrInvalidToken
		}
		return err
	}

	hash, err := password.Hash(s.deps.Hash, newPassword)
	if err != nil {
		return err
	}
	if err := s.deps.Users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		log.Error("password update failed", logger.Err(err))
		return err
	}
	if err := s.deps.Users.ClearResetToken(ctx, user.ID); err != nil {
		log.Warn("reset token clear failed", logger.Err(err))
	}

	// Un reset invalida todas las sesiones abiertas.
	if n, err := s.deps.Authority.RevokeAll(ctx, user.ID, "", "password_reset"); err != nil {
		log.Warn("session revocation failed", logger.Err(err))
	} else {
		log.Info("password reset", logger.UserID(user.ID), logger.Count(n))
	}
	return nil
}

func (s *service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.password"),
		logger.Op("ChangePassword"),
		logger.UserID(userID),
	)

	if currentPassword == "" || newPassword == "" {
		return ErrMissingFields
	}
	if ok, _ := s.deps.Policy.Validate(newPassword); !ok {
		return ErrWeakPassword
	}

	user, err := s.deps.Users.GetByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrUserNotFound
		}
		return err
	}
	if user.PasswordHash == nil || *user.PasswordHash == "" {
		return ErrNoPassword
	}
	if !password.Verify(currentPassword, *user.PasswordHash) {
		log.Debug("current password mismatch")
		return ErrInvalidCredentials
	}

	hash, err := password.Hash(s.deps.Hash, newPassword)
	if err != nil {
		return err
	}
	if err := s.deps.Users.UpdatePasswordHash(ctx, userID, hash); err != nil {
		log.Error("password update failed", logger.Err(err))
		return err
	}

	// Cerrar el resto de las sesiones; el cliente renueva la suya con el
	// par de tokens que ya tiene en mano.
	if n, err := s.deps.Authority.RevokeAll(ctx, userID, "", "password_change"); err != nil {
		log.Warn("session revocation failed", logger.Err(err))
	} else {
		log.Info("password changed", logger.Count(n))
	}
	return nil
}
