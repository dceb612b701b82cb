package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/helmshare/helmshare-backend/pkg/db/models"
	"github.com/helmshare/helmshare-backend/pkg/enums"
	pkgerrors "github.com/helmshare/helmshare-backend/pkg/errors"
	"github.com/helmshare/helmshare-backend/pkg/logger"
	"github.com/helmshare/helmshare-backend/pkg/metrics"
	"github.com/helmshare/helmshare-backend/pkg/push"
)

const defaultGatewayTimeout = 10 * time.Second

// PreferenceSource loads a user's notification preferences. A nil result with
// a nil error means the user has no stored preferences.
type PreferenceSource interface {
	ForUser(ctx context.Context, userID uuid.UUID) (*models.NotificationPreferences, error)
}

// PushTokenSource resolves the user's most recently seen device token. An
// empty token with a nil error means no registered device.
type PushTokenSource interface {
	ActiveToken(ctx context.Context, userID uuid.UUID) (string, error)
}

// ExternalRelay receives fully built payloads for channels whose transport
// lives outside this service (email, sms). The record's delivery status tracks
// push only; relayed channels never advance it.
type ExternalRelay interface {
	Relay(ctx context.Context, channel enums.NotificationChannel, notification *models.Notification, payload push.Payload)
}

// Clock lets tests pin the dispatch time.
type Clock func() time.Time

// SendParams describes one notification to dispatch.
type SendParams struct {
	UserID       uuid.UUID
	Title        string
	Message      string
	Type         enums.NotificationType
	Priority     enums.NotificationPriority
	Metadata     map[string]any
	ScheduledFor *time.Time
	ExpiresAt    *time.Time
}

// Dispatcher creates notification records and pushes them through the
// delivery gateway, honoring the user's preferences and quiet hours.
type Dispatcher interface {
	// Send runs the full dispatch pipeline. It returns the persisted record,
	// or (nil, nil) when the user's preferences suppress the notification
	// entirely. Gateway failures are recorded on the notification and are
	// never returned as errors; only validation and persistence problems are.
	Send(ctx context.Context, params SendParams) (*models.Notification, error)
}

// DispatcherParams collects the dispatcher's collaborators.
type DispatcherParams struct {
	Repo    Repository
	Prefs   PreferenceSource
	Tokens  PushTokenSource
	Gateway push.Gateway
	Metrics *metrics.DispatchMetrics
	Logger  *logger.Logger

	// Relay hands email/sms payloads to the external transport. Defaults to a
	// relay that logs the hand-off.
	Relay ExternalRelay

	// Now defaults to time.Now.
	Now Clock
	// GatewayTimeout bounds each push gateway call. Defaults to 10s.
	GatewayTimeout time.Duration
}

type dispatcher struct {
	repo           Repository
	prefs          PreferenceSource
	tokens         PushTokenSource
	gateway        push.Gateway
	metrics        *metrics.DispatchMetrics
	logg           *logger.Logger
	relay          ExternalRelay
	now            Clock
	gatewayTimeout time.Duration
}

func NewDispatcher(params DispatcherParams) (Dispatcher, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("repo is required")
	}
	if params.Prefs == nil {
		return nil, fmt.Errorf("preference source is required")
	}
	if params.Tokens == nil {
		return nil, fmt.Errorf("push token source is required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("push gateway is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if params.Relay == nil {
		params.Relay = loggingRelay{logg: params.Logger}
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	if params.GatewayTimeout <= 0 {
		params.GatewayTimeout = defaultGatewayTimeout
	}

	return &dispatcher{
		repo:           params.Repo,
		prefs:          params.Prefs,
		tokens:         params.Tokens,
		gateway:        params.Gateway,
		metrics:        params.Metrics,
		logg:           params.Logger,
		relay:          params.Relay,
		now:            params.Now,
		gatewayTimeout: params.GatewayTimeout,
	}, nil
}

func (d *dispatcher) Send(ctx context.Context, params SendParams) (*models.Notification, error) {
	if err := validateSendParams(&params); err != nil {
		return nil, err
	}

	now := d.now().UTC()
	category := params.Type.Category()
	ctx = d.logg.WithFields(ctx, map[string]any{
		"user_id":  params.UserID.String(),
		"type":     string(params.Type),
		"category": string(category),
		"priority": string(params.Priority),
	})

	prefs, err := d.prefs.ForUser(ctx, params.UserID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading notification preferences")
	}

	resolution := Resolve(now, prefs, Candidate{
		Type:     params.Type,
		Category: category,
		Priority: params.Priority,
	})
	if resolution.ConfigErr != nil {
		d.logg.Warn(d.logg.WithField(ctx, "error", resolution.ConfigErr.Error()),
			"quiet hours configuration is invalid, treating window as inactive")
	}

	if resolution.RecordSuppressed {
		d.metrics.IncOutcome(metrics.OutcomeRecordSuppressed, string(params.Type))
		d.logg.Info(ctx, "notification suppressed by category preference")
		return nil, nil
	}

	notification := &models.Notification{
		UserID:         params.UserID,
		Type:           params.Type,
		Category:       category,
		Priority:       params.Priority,
		Title:          params.Title,
		Message:        params.Message,
		Metadata:       params.Metadata,
		DeliveryStatus: enums.DeliveryStatusPending,
		ScheduledFor:   params.ScheduledFor,
		ExpiresAt:      params.ExpiresAt,
		CreatedAt:      now,
	}
	if err := d.repo.Create(ctx, notification); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persisting notification")
	}
	ctx = d.logg.WithNotificationID(ctx, notification.ID.String())

	if resolution.DeliverySuppressed {
		d.metrics.IncOutcome(metrics.OutcomeQuietHours, string(params.Type))
		d.logg.Info(ctx, "delivery suppressed by quiet hours, record kept pending")
		return notification, nil
	}

	// every eligible channel gets its payload; only push advances the record
	pushEligible := false
	for _, channel := range resolution.EligibleChannels {
		if channel == enums.NotificationChannelPush {
			pushEligible = true
			continue
		}
		d.relay.Relay(ctx, channel, notification, buildPayload(notification))
	}

	if !pushEligible {
		d.metrics.IncOutcome(metrics.OutcomeNoChannel, string(params.Type))
		d.logg.Info(ctx, "no push-eligible channel, record kept pending")
		return notification, nil
	}

	token, err := d.tokens.ActiveToken(ctx, params.UserID)
	if err != nil {
		// a token lookup failure degrades like a missing device: the record
		// stays pending and a later sweep can retry
		d.metrics.IncOutcome(metrics.OutcomeNoToken, string(params.Type))
		d.logg.Error(ctx, "push token lookup failed, record kept pending", err)
		return notification, nil
	}
	if token == "" {
		d.metrics.IncOutcome(metrics.OutcomeNoToken, string(params.Type))
		d.logg.Info(ctx, "no registered push device, record kept pending")
		return notification, nil
	}

	d.deliver(ctx, notification, token)
	return notification, nil
}

// deliver calls the gateway and records the outcome on the notification. It
// never fails the dispatch: gateway and bookkeeping errors are logged only.
func (d *dispatcher) deliver(ctx context.Context, notification *models.Notification, token string) {
	callCtx, cancel := context.WithTimeout(ctx, d.gatewayTimeout)
	defer cancel()

	started := d.now()
	result, sendErr := d.gateway.Send(callCtx, token, buildPayload(notification))
	elapsed := d.now().Sub(started)
	now := d.now().UTC()

	if sendErr != nil {
		d.metrics.IncOutcome(metrics.OutcomeFailed, string(notification.Type))
		d.metrics.ObserveGatewayLatency(metrics.OutcomeFailed, elapsed)

		combined := sendErr
		if markErr := d.repo.MarkFailed(ctx, notification.ID, sendErr.Error(), now); markErr != nil {
			combined = multierr.Append(combined, fmt.Errorf("recording failure: %w", markErr))
		} else {
			cause := sendErr.Error()
			notification.DeliveryStatus = enums.DeliveryStatusFailed
			notification.GatewayError = &cause
		}
		d.logg.Error(ctx, "push delivery failed", combined)
		return
	}

	d.metrics.IncOutcome(metrics.OutcomeSent, string(notification.Type))
	d.metrics.ObserveGatewayLatency(metrics.OutcomeSent, elapsed)

	if markErr := d.repo.MarkSent(ctx, notification.ID, result.MessageID, now); markErr != nil {
		d.logg.Error(ctx, "recording sent status failed", markErr)
		return
	}
	notification.DeliveryStatus = enums.DeliveryStatusSent
	notification.SentAt = &now
	notification.GatewayMessageID = &result.MessageID
	d.logg.Info(d.logg.WithField(ctx, "gateway_message_id", result.MessageID), "push delivered to gateway")
}

func validateSendParams(params *SendParams) error {
	if params.UserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if params.Title == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if params.Message == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "message is required")
	}
	if !params.Type.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown notification type %q", params.Type))
	}
	if params.Priority == "" {
		params.Priority = enums.NotificationPriorityMedium
	}
	if !params.Priority.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown priority %q", params.Priority))
	}
	return nil
}

func buildPayload(notification *models.Notification) push.Payload {
	data := map[string]string{
		"notificationId": notification.ID.String(),
		"type":           string(notification.Type),
		"category":       string(notification.Category),
	}
	for key, value := range notification.Metadata {
		data[key] = fmt.Sprintf("%v", value)
	}

	priority := "normal"
	if notification.Priority == enums.NotificationPriorityHigh ||
		notification.Priority == enums.NotificationPriorityUrgent {
		priority = "high"
	}

	return push.Payload{
		Notification: push.Body{Title: notification.Title, Body: notification.Message},
		Data:         data,
		Priority:     priority,
	}
}

// loggingRelay records the hand-off when no external transport is wired in.
type loggingRelay struct {
	logg *logger.Logger
}

func (l loggingRelay) Relay(ctx context.Context, channel enums.NotificationChannel, _ *models.Notification, payload push.Payload) {
	l.logg.Info(l.logg.WithFields(ctx, map[string]any{
		"channel": string(channel),
		"title":   payload.Notification.Title,
	}), "payload handed to external transport")
}
