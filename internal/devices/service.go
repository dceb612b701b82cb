package devices

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/helmshare/helmshare-backend/pkg/db"
	"github.com/helmshare/helmshare-backend/pkg/db/models"
	"github.com/helmshare/helmshare-backend/pkg/enums"
	pkgerrors "github.com/helmshare/helmshare-backend/pkg/errors"
	"github.com/helmshare/helmshare-backend/pkg/logger"
)

// Service manages push device registrations and resolves the delivery token
// for dispatch.
type Service interface {
	Register(ctx context.Context, userID uuid.UUID, token, platform string) (*models.PushDevice, error)
	Unregister(ctx context.Context, userID uuid.UUID, token string) error

	// ActiveToken returns the most recently seen token for the user, or an
	// empty string when no device is registered.
	ActiveToken(ctx context.Context, userID uuid.UUID) (string, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("repo is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) Register(ctx context.Context, userID uuid.UUID, token, platform string) (*models.PushDevice, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "token is required")
	}
	parsedPlatform, err := enums.ParsePushPlatform(platform)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid platform")
	}

	device := &models.PushDevice{
		UserID:   userID,
		Token:    token,
		Platform: parsedPlatform,
	}
	if err := s.repo.Upsert(ctx, device); err != nil {
		// the upsert resolves token conflicts itself; a violation here means
		// two concurrent first registrations raced
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "device token already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "registering push device")
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"user_id":  userID.String(),
		"platform": platform,
	}), "push device registered")
	return device, nil
}

func (s *service) Unregister(ctx context.Context, userID uuid.UUID, token string) error {
	affected, err := s.repo.Delete(ctx, userID, strings.TrimSpace(token))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "unregistering push device")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "push device not found")
	}
	return nil
}

func (s *service) ActiveToken(ctx context.Context, userID uuid.UUID) (string, error) {
	device, err := s.repo.LatestForUser(ctx, userID)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolving push token")
	}
	if device == nil {
		return "", nil
	}
	return device.Token, nil
}
