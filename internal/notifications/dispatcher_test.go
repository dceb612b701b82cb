package notifications

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/helmshare/helmshare-backend/pkg/db/models"
	"github.com/helmshare/helmshare-backend/pkg/enums"
	pkgerrors "github.com/helmshare/helmshare-backend/pkg/errors"
	"github.com/helmshare/helmshare-backend/pkg/logger"
	"github.com/helmshare/helmshare-backend/pkg/pagination"
	"github.com/helmshare/helmshare-backend/pkg/push"
)

type fakeDispatchRepo struct {
	created    []*models.Notification
	sentIDs    []uuid.UUID
	failedIDs  []uuid.UUID
	failCauses []string
	createErr  error
	markErr    error
}

func (f *fakeDispatchRepo) WithTx(_ *gorm.DB) Repository { return f }

func (f *fakeDispatchRepo) Create(_ context.Context, n *models.Notification) error {
	if f.createErr != nil {
		return f.createErr
	}
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	f.created = append(f.created, n)
	return nil
}

func (f *fakeDispatchRepo) Get(_ context.Context, _, _ uuid.UUID) (*models.Notification, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
}

func (f *fakeDispatchRepo) List(_ context.Context, _ ListParams) ([]models.Notification, *pagination.Cursor, error) {
	return nil, nil, nil
}

func (f *fakeDispatchRepo) CountUnread(_ context.Context, _ uuid.UUID) (int64, error) {
	return 0, nil
}

func (f *fakeDispatchRepo) MarkRead(_ context.Context, _, _ uuid.UUID, _ time.Time) (*models.Notification, error) {
	return nil, nil
}

func (f *fakeDispatchRepo) MarkAllRead(_ context.Context, _ uuid.UUID, _ time.Time) (int64, error) {
	return 0, nil
}

func (f *fakeDispatchRepo) MarkSent(_ context.Context, id uuid.UUID, _ string, _ time.Time) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.sentIDs = append(f.sentIDs, id)
	return nil
}

func (f *fakeDispatchRepo) MarkDelivered(_ context.Context, _ uuid.UUID, _ time.Time) error {
	return nil
}

func (f *fakeDispatchRepo) MarkFailed(_ context.Context, id uuid.UUID, cause string, _ time.Time) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.failedIDs = append(f.failedIDs, id)
	f.failCauses = append(f.failCauses, cause)
	return nil
}

type fakePrefSource struct {
	prefs *models.NotificationPreferences
	err   error
}

func (f *fakePrefSource) ForUser(_ context.Context, _ uuid.UUID) (*models.NotificationPreferences, error) {
	return f.prefs, f.err
}

type fakeTokenSource struct {
	token string
	err   error
}

func (f *fakeTokenSource) ActiveToken(_ context.Context, _ uuid.UUID) (string, error) {
	return f.token, f.err
}

type fakeGateway struct {
	calls  int
	tokens []string
	loads  []push.Payload
	result push.Result
	err    error
}

func (f *fakeGateway) Send(_ context.Context, token string, payload push.Payload) (push.Result, error) {
	f.calls++
	f.tokens = append(f.tokens, token)
	f.loads = append(f.loads, payload)
	if f.err != nil {
		return push.Result{}, f.err
	}
	return f.result, nil
}

type fakeRelay struct {
	channels []enums.NotificationChannel
	loads    []push.Payload
}

func (f *fakeRelay) Relay(_ context.Context, channel enums.NotificationChannel, _ *models.Notification, payload push.Payload) {
	f.channels = append(f.channels, channel)
	f.loads = append(f.loads, payload)
}

type dispatchFixture struct {
	repo    *fakeDispatchRepo
	prefs   *fakePrefSource
	tokens  *fakeTokenSource
	gateway *fakeGateway
	relay   *fakeRelay
	now     time.Time
}

func newDispatchFixture(t *testing.T) (*dispatchFixture, Dispatcher) {
	t.Helper()

	f := &dispatchFixture{
		repo:    &fakeDispatchRepo{},
		prefs:   &fakePrefSource{prefs: basePrefs()},
		tokens:  &fakeTokenSource{token: "device-token-1"},
		gateway: &fakeGateway{result: push.Result{MessageID: "gw-msg-1"}},
		relay:   &fakeRelay{},
		now:     time.Date(2026, time.August, 20, 12, 0, 0, 0, time.UTC),
	}

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	d, err := NewDispatcher(DispatcherParams{
		Repo:    f.repo,
		Prefs:   f.prefs,
		Tokens:  f.tokens,
		Gateway: f.gateway,
		Relay:   f.relay,
		Logger:  logg,
		Now:     func() time.Time { return f.now },
	})
	require.NoError(t, err)
	return f, d
}

func validParams(userID uuid.UUID) SendParams {
	return SendParams{
		UserID:   userID,
		Title:    "Booking confirmed",
		Message:  "Your charter aboard Meltemi is confirmed for Saturday.",
		Type:     enums.NotificationTypeBooking,
		Priority: enums.NotificationPriorityMedium,
	}
}

func TestDispatchHappyPath(t *testing.T) {
	f, d := newDispatchFixture(t)

	notification, err := d.Send(context.Background(), validParams(uuid.New()))
	require.NoError(t, err)
	require.NotNil(t, notification)

	assert.Equal(t, enums.DeliveryStatusSent, notification.DeliveryStatus)
	require.NotNil(t, notification.GatewayMessageID)
	assert.Equal(t, "gw-msg-1", *notification.GatewayMessageID)
	assert.NotNil(t, notification.SentAt)
	assert.Equal(t, enums.NotificationCategoryTransaction, notification.Category)

	require.Len(t, f.repo.created, 1)
	require.Len(t, f.repo.sentIDs, 1)
	assert.Equal(t, notification.ID, f.repo.sentIDs[0])

	require.Equal(t, 1, f.gateway.calls)
	assert.Equal(t, "device-token-1", f.gateway.tokens[0])
	assert.Equal(t, "Booking confirmed", f.gateway.loads[0].Notification.Title)
	assert.Equal(t, notification.ID.String(), f.gateway.loads[0].Data["notificationId"])
	assert.Equal(t, "normal", f.gateway.loads[0].Priority)
}

func TestDispatchQuietHoursKeepsRecordPending(t *testing.T) {
	f, d := newDispatchFixture(t)
	f.prefs.prefs.QuietHoursEnabled = true
	f.now = time.Date(2026, time.August, 20, 23, 30, 0, 0, time.UTC)

	notification, err := d.Send(context.Background(), validParams(uuid.New()))
	require.NoError(t, err)
	require.NotNil(t, notification)

	assert.Equal(t, enums.DeliveryStatusPending, notification.DeliveryStatus)
	assert.Len(t, f.repo.created, 1)
	assert.Zero(t, f.gateway.calls)
	assert.Empty(t, f.repo.sentIDs)
}

func TestDispatchUrgentBypassesQuietHours(t *testing.T) {
	f, d := newDispatchFixture(t)
	f.prefs.prefs.QuietHoursEnabled = true
	f.now = time.Date(2026, time.August, 20, 23, 30, 0, 0, time.UTC)

	params := validParams(uuid.New())
	params.Type = enums.NotificationTypeEmergency
	params.Priority = enums.NotificationPriorityUrgent
	params.Title = "Severe weather warning"
	params.Message = "Gale force winds forecast for your charter area."

	notification, err := d.Send(context.Background(), params)
	require.NoError(t, err)
	require.NotNil(t, notification)

	assert.Equal(t, enums.DeliveryStatusSent, notification.DeliveryStatus)
	require.Equal(t, 1, f.gateway.calls)
	assert.Equal(t, "high", f.gateway.loads[0].Priority)
}

func TestDispatchGatewayFailureRecordsFailed(t *testing.T) {
	f, d := newDispatchFixture(t)
	f.gateway.err = pkgerrors.New(pkgerrors.CodeGateway, "push gateway rejected message: status 503")

	notification, err := d.Send(context.Background(), validParams(uuid.New()))
	require.NoError(t, err, "gateway failures must not surface as dispatch errors")
	require.NotNil(t, notification)

	assert.Equal(t, enums.DeliveryStatusFailed, notification.DeliveryStatus)
	require.NotNil(t, notification.GatewayError)
	assert.Contains(t, *notification.GatewayError, "503")

	require.Len(t, f.repo.failedIDs, 1)
	assert.Equal(t, notification.ID, f.repo.failedIDs[0])
	assert.Empty(t, f.repo.sentIDs)
}

func TestDispatchCategoryDisabledSkipsRecord(t *testing.T) {
	f, d := newDispatchFixture(t)
	f.prefs.prefs.CategoriesEnabled = map[enums.NotificationCategory]bool{
		enums.NotificationCategoryMarketing: false,
	}

	params := validParams(uuid.New())
	params.Type = enums.NotificationTypePromotion
	params.Title = "Last-minute deals"
	params.Message = "Weekend charters 20% off."

	notification, err := d.Send(context.Background(), params)
	require.NoError(t, err)
	assert.Nil(t, notification)
	assert.Empty(t, f.repo.created)
	assert.Zero(t, f.gateway.calls)
}

func TestDispatchNoTokenKeepsRecordPending(t *testing.T) {
	f, d := newDispatchFixture(t)
	f.tokens.token = ""

	notification, err := d.Send(context.Background(), validParams(uuid.New()))
	require.NoError(t, err)
	require.NotNil(t, notification)

	assert.Equal(t, enums.DeliveryStatusPending, notification.DeliveryStatus)
	assert.Zero(t, f.gateway.calls)
}

func TestDispatchPushDisabledKeepsRecordPending(t *testing.T) {
	f, d := newDispatchFixture(t)
	f.prefs.prefs.PushEnabled = false

	notification, err := d.Send(context.Background(), validParams(uuid.New()))
	require.NoError(t, err)
	require.NotNil(t, notification)

	assert.Equal(t, enums.DeliveryStatusPending, notification.DeliveryStatus)
	assert.Zero(t, f.gateway.calls)
}

func TestDispatchEmailOnlyStillBuildsPayload(t *testing.T) {
	f, d := newDispatchFixture(t)
	f.prefs.prefs.PushEnabled = false
	f.prefs.prefs.EmailEnabled = true
	f.prefs.prefs.SMSEnabled = false

	notification, err := d.Send(context.Background(), validParams(uuid.New()))
	require.NoError(t, err)
	require.NotNil(t, notification)

	assert.Equal(t, enums.DeliveryStatusPending, notification.DeliveryStatus)
	assert.Zero(t, f.gateway.calls)

	require.Equal(t, []enums.NotificationChannel{enums.NotificationChannelEmail}, f.relay.channels)
	require.Len(t, f.relay.loads, 1)
	assert.Equal(t, "Booking confirmed", f.relay.loads[0].Notification.Title)
	assert.Equal(t, notification.ID.String(), f.relay.loads[0].Data["notificationId"])
}

func TestDispatchRelaysEveryEligibleChannel(t *testing.T) {
	f, d := newDispatchFixture(t)
	f.prefs.prefs.SMSEnabled = true

	notification, err := d.Send(context.Background(), validParams(uuid.New()))
	require.NoError(t, err)
	require.NotNil(t, notification)

	// push goes through the gateway; email and sms are handed off
	assert.Equal(t, enums.DeliveryStatusSent, notification.DeliveryStatus)
	require.Equal(t, 1, f.gateway.calls)
	assert.Equal(t, []enums.NotificationChannel{
		enums.NotificationChannelEmail,
		enums.NotificationChannelSMS,
	}, f.relay.channels)
}

func TestDispatchQuietHoursSkipsExternalRelay(t *testing.T) {
	f, d := newDispatchFixture(t)
	f.prefs.prefs.QuietHoursEnabled = true
	f.now = time.Date(2026, time.August, 20, 23, 30, 0, 0, time.UTC)

	_, err := d.Send(context.Background(), validParams(uuid.New()))
	require.NoError(t, err)
	assert.Empty(t, f.relay.channels)
}

func TestDispatchAbsentPreferencesFailOpen(t *testing.T) {
	f, d := newDispatchFixture(t)
	f.prefs.prefs = nil

	notification, err := d.Send(context.Background(), validParams(uuid.New()))
	require.NoError(t, err)
	require.NotNil(t, notification)
	assert.Equal(t, enums.DeliveryStatusSent, notification.DeliveryStatus)
}

func TestDispatchDefaultsPriorityToMedium(t *testing.T) {
	_, d := newDispatchFixture(t)

	params := validParams(uuid.New())
	params.Priority = ""

	notification, err := d.Send(context.Background(), params)
	require.NoError(t, err)
	require.NotNil(t, notification)
	assert.Equal(t, enums.NotificationPriorityMedium, notification.Priority)
}

func TestDispatchValidation(t *testing.T) {
	_, d := newDispatchFixture(t)

	tests := []struct {
		name   string
		mutate func(*SendParams)
	}{
		{name: "missing user", mutate: func(p *SendParams) { p.UserID = uuid.Nil }},
		{name: "missing title", mutate: func(p *SendParams) { p.Title = "" }},
		{name: "missing message", mutate: func(p *SendParams) { p.Message = "" }},
		{name: "unknown type", mutate: func(p *SendParams) { p.Type = "carrier_pigeon" }},
		{name: "unknown priority", mutate: func(p *SendParams) { p.Priority = "extreme" }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			params := validParams(uuid.New())
			tc.mutate(&params)

			_, err := d.Send(context.Background(), params)
			require.Error(t, err)
			assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
		})
	}
}

func TestDispatchPersistenceErrorPropagates(t *testing.T) {
	f, d := newDispatchFixture(t)
	f.repo.createErr = assert.AnError

	_, err := d.Send(context.Background(), validParams(uuid.New()))
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
	assert.Zero(t, f.gateway.calls)
}

func TestDispatchPreferenceLoadErrorPropagates(t *testing.T) {
	f, d := newDispatchFixture(t)
	f.prefs.err = assert.AnError

	_, err := d.Send(context.Background(), validParams(uuid.New()))
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDependency))
	assert.Empty(t, f.repo.created)
}

func TestDispatchBrokenQuietHoursStillDelivers(t *testing.T) {
	f, d := newDispatchFixture(t)
	f.prefs.prefs.QuietHoursEnabled = true
	f.prefs.prefs.QuietHoursTimezone = "Not/AZone"

	notification, err := d.Send(context.Background(), validParams(uuid.New()))
	require.NoError(t, err)
	require.NotNil(t, notification)
	assert.Equal(t, enums.DeliveryStatusSent, notification.DeliveryStatus)
}
