package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helmshare/helmshare-backend/api/middleware"
	"github.com/helmshare/helmshare-backend/internal/notifications"
	"github.com/helmshare/helmshare-backend/pkg/db/models"
	"github.com/helmshare/helmshare-backend/pkg/enums"
	pkgerrors "github.com/helmshare/helmshare-backend/pkg/errors"
	"github.com/helmshare/helmshare-backend/pkg/types"
)

type fakeNotificationsService struct {
	listReq    *notifications.ListRequest
	listResult *notifications.ListResult
	listErr    error

	notification *models.Notification
	getErr       error

	unread      int64
	readAllHits int
}

func (f *fakeNotificationsService) List(_ context.Context, _ uuid.UUID, req notifications.ListRequest) (*notifications.ListResult, error) {
	f.listReq = &req
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listResult, nil
}

func (f *fakeNotificationsService) Get(_ context.Context, _, _ uuid.UUID) (*models.Notification, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.notification, nil
}

func (f *fakeNotificationsService) UnreadCount(_ context.Context, _ uuid.UUID) (int64, error) {
	return f.unread, nil
}

func (f *fakeNotificationsService) MarkRead(_ context.Context, _, _ uuid.UUID) (*models.Notification, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.notification, nil
}

func (f *fakeNotificationsService) MarkAllRead(_ context.Context, _ uuid.UUID) (int64, error) {
	f.readAllHits++
	return 4, nil
}

func (f *fakeNotificationsService) MarkDelivered(_ context.Context, _, _ uuid.UUID) (*models.Notification, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.notification, nil
}

func authedRequest(t *testing.T, method, target string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	ctx := middleware.WithUserID(req.Context(), uuid.NewString())
	return req.WithContext(ctx)
}

func TestListNotificationsParsesQuery(t *testing.T) {
	svc := &fakeNotificationsService{
		listResult: &notifications.ListResult{
			Items:      []models.Notification{{ID: uuid.New(), Title: "Booking confirmed"}},
			NextCursor: "cursor-2",
		},
	}

	req := authedRequest(t, http.MethodGet, "/notifications?limit=10&unreadOnly=true&category=transaction&cursor=abc")
	rec := httptest.NewRecorder()
	ListNotifications(svc, nil)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, svc.listReq)
	assert.Equal(t, 10, svc.listReq.Limit)
	assert.True(t, svc.listReq.UnreadOnly)
	assert.Equal(t, "transaction", svc.listReq.Category)
	assert.Equal(t, "abc", svc.listReq.Cursor)

	var envelope types.SuccessEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	data, ok := envelope.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "cursor-2", data["nextCursor"])
}

func TestListNotificationsRejectsBadLimit(t *testing.T) {
	svc := &fakeNotificationsService{}

	req := authedRequest(t, http.MethodGet, "/notifications?limit=zero")
	rec := httptest.NewRecorder()
	ListNotifications(svc, nil)(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, svc.listReq)
}

func TestListNotificationsRequiresUserContext(t *testing.T) {
	rec := httptest.NewRecorder()
	ListNotifications(&fakeNotificationsService{}, nil)(rec, httptest.NewRequest(http.MethodGet, "/notifications", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMarkNotificationRead(t *testing.T) {
	now := time.Now().UTC()
	svc := &fakeNotificationsService{
		notification: &models.Notification{
			ID:             uuid.New(),
			Title:          "Booking confirmed",
			DeliveryStatus: enums.DeliveryStatusSent,
			ReadAt:         &now,
		},
	}

	r := chi.NewRouter()
	r.Post("/notifications/{notificationID}/read", MarkNotificationRead(svc, nil))

	req := authedRequest(t, http.MethodPost, "/notifications/"+uuid.NewString()+"/read")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data models.Notification `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.NotNil(t, envelope.Data.ReadAt)
}

func TestMarkNotificationReadBadID(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/notifications/{notificationID}/read", MarkNotificationRead(&fakeNotificationsService{}, nil))

	req := authedRequest(t, http.MethodPost, "/notifications/not-a-uuid/read")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetNotificationNotFound(t *testing.T) {
	svc := &fakeNotificationsService{getErr: pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")}

	r := chi.NewRouter()
	r.Get("/notifications/{notificationID}", GetNotification(svc, nil))

	req := authedRequest(t, http.MethodGet, "/notifications/"+uuid.NewString())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMarkAllNotificationsRead(t *testing.T) {
	svc := &fakeNotificationsService{}

	req := authedRequest(t, http.MethodPost, "/notifications/read-all")
	rec := httptest.NewRecorder()
	MarkAllNotificationsRead(svc, nil)(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.readAllHits)

	var envelope struct {
		Data map[string]int64 `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.EqualValues(t, 4, envelope.Data["updated"])
}
