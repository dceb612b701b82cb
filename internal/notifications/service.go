package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/helmshare/helmshare-backend/pkg/db/models"
	"github.com/helmshare/helmshare-backend/pkg/enums"
	pkgerrors "github.com/helmshare/helmshare-backend/pkg/errors"
	"github.com/helmshare/helmshare-backend/pkg/logger"
	"github.com/helmshare/helmshare-backend/pkg/pagination"
)

// ListRequest is the inbound shape for the notification feed.
type ListRequest struct {
	Limit      int
	Cursor     string
	UnreadOnly bool
	Category   string
}

// ListResult carries one feed page.
type ListResult struct {
	Items      []models.Notification
	NextCursor string
}

// Service exposes the user-facing read and read-state operations over
// notification records.
type Service interface {
	List(ctx context.Context, userID uuid.UUID, req ListRequest) (*ListResult, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*models.Notification, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) (*models.Notification, error)
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	MarkDelivered(ctx context.Context, userID, id uuid.UUID) (*models.Notification, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
	now  Clock
}

func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("repo is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{repo: repo, logg: logg, now: time.Now}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, req ListRequest) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(req.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	params := ListParams{
		UserID:     userID,
		Limit:      req.Limit,
		Cursor:     cursor,
		UnreadOnly: req.UnreadOnly,
	}
	if req.Category != "" {
		category, err := enums.ParseNotificationCategory(req.Category)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid category filter")
		}
		params.Category = &category
	}

	items, next, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing notifications")
	}

	result := &ListResult{Items: items}
	if next != nil {
		result.NextCursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) Get(ctx context.Context, userID, id uuid.UUID) (*models.Notification, error) {
	notification, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetching notification")
	}
	return notification, nil
}

func (s *service) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "counting unread notifications")
	}
	return count, nil
}

func (s *service) MarkRead(ctx context.Context, userID, id uuid.UUID) (*models.Notification, error) {
	notification, err := s.repo.MarkRead(ctx, userID, id, s.now().UTC())
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marking notification read")
	}
	return notification, nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	affected, err := s.repo.MarkAllRead(ctx, userID, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marking all notifications read")
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"user_id":  userID.String(),
		"affected": affected,
	}), "marked all notifications read")
	return affected, nil
}

// MarkDelivered records a client delivery receipt for a sent notification.
func (s *service) MarkDelivered(ctx context.Context, userID, id uuid.UUID) (*models.Notification, error) {
	// ownership check before the transition so a foreign id reads as 404
	if _, err := s.Get(ctx, userID, id); err != nil {
		return nil, err
	}
	if err := s.repo.MarkDelivered(ctx, id, s.now().UTC()); err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marking notification delivered")
	}
	return s.Get(ctx, userID, id)
}
