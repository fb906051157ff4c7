package auth

import (
	"context"

	"github.com/dropDatabas3/authgate/internal/domain/repository"
	"github.com/dropDatabas3/authgate/internal/http/dto"
	"github.com/dropDatabas3/authgate/internal/observability/logger"
)

func (s *service) Me(ctx context.Context, userID string) (*dto.UserProfile, error) {
	user, err := s.deps.Users.GetByID(ctx, userID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	roles, perms, err := s.resolveAccess(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := toProfile(user, roles, perms)
	return &profile, nil
}

func (s *service) UpdateProfile(ctx context.Context, userID string, in dto.UpdateProfileRequest) (*dto.UserProfile, error) {
	if in.FirstName == nil && in.LastName == nil && in.Avatar == nil {
		return nil, ErrMissingFields
	}
	err := s.deps.Users.UpdateProfile(ctx, userID, repository.UpdateProfileInput{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Avatar:    in.Avatar,
	})
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.Me(ctx, userID)
}

// DeleteAccount elimina el usuario. Los refresh tokens caen por cascada
// en el storage; el access token vigente entra a la denylist.
func (s *service) DeleteAccount(ctx context.Context, userID, accessToken string) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.profile"),
		logger.Op("DeleteAccount"),
		logger.UserID(userID),
	)

	if err := s.deps.Users.Delete(ctx, userID); err != nil {
		if repository.IsNotFound(err) {
			return ErrUserNotFound
		}
		log.Error("user delete failed", logger.Err(err))
		return err
	}
	if accessToken != "" {
		s.deps.Authority.BlacklistAccess(ctx, accessToken)
	}
	log.Info("account deleted")
	return nil
}
