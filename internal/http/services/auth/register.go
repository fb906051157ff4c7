package auth

import (
	"context"
	"strings"
	"time"

	"github.com/dropDatabas3/authgate/internal/domain/repository"
	"github.com/dropDatabas3/authgate/internal/http/dto"
	"github.com/dropDatabas3/authgate/internal/observability/logger"
	"github.com/dropDatabas3/authgate/internal/security/password"
	tokens "github.com/dropDatabas3/authgate/internal/security/token"
)

func (s *service) Register(ctx context.Context, in dto.RegisterRequest) (*dto.UserProfile, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.register"),
		logger.Op("Register"),
	)

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)

	if in.Email == "" || in.Password == "" || !strings.Contains(in.Email, "@") {
		return nil, ErrMissingFields
	}
	if ok, _ := s.deps.Policy.Validate(in.Password); !ok {
		return nil, ErrWeakPassword
	}

	hash, err := password.Hash(s.deps.Hash, in.Password)
	if err != nil {
		log.Error("hash failed", logger.Err(err))
		return nil, err
	}

	user, err := s.deps.Users.Create(ctx, repository.CreateUserInput{
		Email:        in.Email,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
	})
	if err != nil {
		if repository.IsConflict(err) {
			log.Debug("email already registered")
			return nil, ErrEmailExists
		}
		log.Error("user create failed", logger.Err(err))
		return nil, err
	}

	log = log.With(logger.UserID(user.ID))

	// Rol por defecto: si no hay ninguno configurado, el usuario queda
	// sin roles hasta que un admin le asigne uno.
	roles := []string{}
	if def, err := s.deps.RBAC.GetDefaultRole(ctx); err == nil {
		if err := s.deps.RBAC.AssignRole(ctx, user.ID, def.ID); err != nil {
			log.Warn("default role assignment failed", logger.Err(err))
		} else {
			roles = []string{def.Name}
		}
	} else if !repository.IsNotFound(err) {
		log.Warn("default role lookup failed", logger.Err(err))
	}

	s.sendVerification(ctx, user.ID, user.Email)

	log.Info("user registered", logger.Email(user.Email))
	profile := toProfile(user, roles, nil)
	return &profile, nil
}

// sendVerification genera, persiste y envía el token de verificación.
// Best-effort: un fallo no aborta el registro.
func (s *service) sendVerification(ctx context.Context, userID, emailAddr string) {
	log := logger.From(ctx).With(logger.Component("auth.register"), logger.Op("sendVerification"))

	if s.deps.Email == nil {
		return
	}
	verifyToken, err := tokens.GenerateOpaqueToken(32)
	if err != nil {
		log.Warn("verification token generation failed", logger.Err(err))
		return
	}
	expiresAt := time.Now().UTC().Add(s.deps.VerifyTTL)
	if err := s.deps.Users.SetVerificationToken(ctx, userID, verifyToken, expiresAt); err != nil {
		log.Warn("verification token persist failed", logger.Err(err))
		return
	}
	if err := s.deps.Email.SendVerification(emailAddr, verifyToken, s.deps.VerifyTTL); err != nil {
		log.Warn("verification email failed", logger.Err(err))
	}
}

func (s *service) VerifyEmail(ctx context.Context, verifyToken string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.register"),
		logger.Op("VerifyEmail"),
	)

	verifyToken = strings.TrimSpace(verifyToken)
	if verifyToken == "" {
		return ErrInvalidToken
	}

	user, err := s.deps.Users.GetByVerificationToken(ctx, verifyToken, time.Now().UTC())
	if err != nil {
		if repository.IsNotFound(err) {
			return ErrInvalidToken
		}
		return err
	}

	if err := s.deps.Users.SetEmailVerified(ctx, user.ID); err != nil {
		log.Error("mark verified failed", logger.Err(err))
		return err
	}
	log.Info("email verified", logger.UserID(user.ID))
	return nil
}

// ResendVerification reenvía el correo de verificación. Responde igual
// exista o no la cuenta para no filtrar emails registrados.
func (s *service) ResendVerification(ctx context.Context, emailAddr string) error {
	emailAddr = strings.TrimSpace(strings.ToLower(emailAddr))
	if emailAddr == "" {
		return ErrMissingFields
	}

	user, err := s.deps.Users.GetByEmail(ctx, emailAddr)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil
		}
		return err
	}
	if user.EmailVerified || !user.Active {
		return nil
	}

	s.sendVerification(ctx, user.ID, user.Email)
	return nil
}
