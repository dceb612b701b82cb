package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/helmshare/helmshare-backend/pkg/enums"
	pkgerrors "github.com/helmshare/helmshare-backend/pkg/errors"
	"github.com/helmshare/helmshare-backend/pkg/events/idempotency"
	"github.com/helmshare/helmshare-backend/pkg/logger"
)

const consumerName = "notification-dispatch"

// eventAttrType is the message attribute carrying the charter event type.
const eventAttrType = "event_type"

type eventEnvelope struct {
	EventID    uuid.UUID              `json:"eventId"`
	Type       enums.CharterEventType `json:"type"`
	OccurredAt time.Time              `json:"occurredAt"`
	Data       json.RawMessage        `json:"data"`
}

type bookingEventPayload struct {
	BookingID uuid.UUID `json:"bookingId"`
	UserID    uuid.UUID `json:"userId"`
	YachtName string    `json:"yachtName"`
	StartDate time.Time `json:"startDate"`
}

type paymentReceivedPayload struct {
	PaymentID uuid.UUID       `json:"paymentId"`
	UserID    uuid.UUID       `json:"userId"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
}

type maintenanceDuePayload struct {
	YachtID   uuid.UUID `json:"yachtId"`
	OwnerID   uuid.UUID `json:"ownerId"`
	YachtName string    `json:"yachtName"`
	Item      string    `json:"item"`
	DueDate   time.Time `json:"dueDate"`
}

type weatherAlertPayload struct {
	UserID   uuid.UUID `json:"userId"`
	Region   string    `json:"region"`
	Severity string    `json:"severity"`
	Headline string    `json:"headline"`
}

// Consumer turns charter domain events into notification dispatches. Each
// event is guarded by a Redis idempotency marker keyed on the event id, so a
// redelivered message never produces a duplicate notification.
type Consumer struct {
	subscriber *pubsub.Subscriber
	dispatcher Dispatcher
	idem       *idempotency.Manager
	logg       *logger.Logger
}

func NewConsumer(subscriber *pubsub.Subscriber, dispatcher Dispatcher, idem *idempotency.Manager, logg *logger.Logger) (*Consumer, error) {
	if subscriber == nil {
		return nil, fmt.Errorf("subscriber is required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if idem == nil {
		return nil, fmt.Errorf("idempotency manager is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Consumer{
		subscriber: subscriber,
		dispatcher: dispatcher,
		idem:       idem,
		logg:       logg,
	}, nil
}

// Run blocks receiving messages until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	c.logg.Info(ctx, "charter event consumer starting")
	return c.subscriber.Receive(ctx, c.handleMessage)
}

func (c *Consumer) handleMessage(ctx context.Context, msg *pubsub.Message) {
	var envelope eventEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		// poison message, retrying will never help
		c.logg.Error(ctx, "dropping undecodable charter event", err)
		msg.Ack()
		return
	}
	if envelope.Type == "" {
		envelope.Type = enums.CharterEventType(msg.Attributes[eventAttrType])
	}
	if envelope.EventID == uuid.Nil {
		c.logg.Error(ctx, "dropping charter event without id", nil)
		msg.Ack()
		return
	}

	ctx = c.logg.WithFields(ctx, map[string]any{
		"event_id":   envelope.EventID.String(),
		"event_type": envelope.Type.String(),
	})

	processed, err := c.idem.CheckAndMarkProcessed(ctx, consumerName, envelope.EventID)
	if err != nil {
		c.logg.Error(ctx, "idempotency check failed", err)
		msg.Nack()
		return
	}
	if processed {
		c.logg.Debug(ctx, "charter event already processed, acking")
		msg.Ack()
		return
	}

	if err := c.handleEvent(ctx, envelope); err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			c.logg.Error(ctx, "dropping invalid charter event", err)
			msg.Ack()
			return
		}
		// release the marker so redelivery can retry
		if delErr := c.idem.Delete(ctx, consumerName, envelope.EventID); delErr != nil {
			c.logg.Error(ctx, "releasing idempotency marker failed", delErr)
		}
		c.logg.Error(ctx, "handling charter event failed, nacking", err)
		msg.Nack()
		return
	}

	msg.Ack()
}

func (c *Consumer) handleEvent(ctx context.Context, envelope eventEnvelope) error {
	params, err := sendParamsForEvent(envelope)
	if err != nil {
		return err
	}
	if params == nil {
		c.logg.Warn(ctx, "ignoring unhandled charter event type")
		return nil
	}

	notification, err := c.dispatcher.Send(ctx, *params)
	if err != nil {
		return err
	}
	if notification == nil {
		c.logg.Info(ctx, "charter event suppressed by user preferences")
		return nil
	}
	c.logg.Info(c.logg.WithNotificationID(ctx, notification.ID.String()), "charter event dispatched")
	return nil
}

// sendParamsForEvent maps a charter event onto a dispatch request. A nil
// result with a nil error means the event type is not notification-worthy.
func sendParamsForEvent(envelope eventEnvelope) (*SendParams, error) {
	switch envelope.Type {
	case enums.EventBookingConfirmed:
		var payload bookingEventPayload
		if err := decodePayload(envelope.Data, &payload); err != nil {
			return nil, err
		}
		if err := requireRecipient(payload.UserID); err != nil {
			return nil, err
		}
		return &SendParams{
			UserID:   payload.UserID,
			Type:     enums.NotificationTypeBooking,
			Priority: enums.NotificationPriorityMedium,
			Title:    "Booking confirmed",
			Message:  fmt.Sprintf("Your charter aboard %s on %s is confirmed.", payload.YachtName, payload.StartDate.Format("Jan 2")),
			Metadata: map[string]any{"bookingId": payload.BookingID.String()},
		}, nil

	case enums.EventBookingCancelled:
		var payload bookingEventPayload
		if err := decodePayload(envelope.Data, &payload); err != nil {
			return nil, err
		}
		if err := requireRecipient(payload.UserID); err != nil {
			return nil, err
		}
		return &SendParams{
			UserID:   payload.UserID,
			Type:     enums.NotificationTypeBooking,
			Priority: enums.NotificationPriorityHigh,
			Title:    "Booking cancelled",
			Message:  fmt.Sprintf("Your charter aboard %s has been cancelled.", payload.YachtName),
			Metadata: map[string]any{"bookingId": payload.BookingID.String()},
		}, nil

	case enums.EventPaymentReceived:
		var payload paymentReceivedPayload
		if err := decodePayload(envelope.Data, &payload); err != nil {
			return nil, err
		}
		if err := requireRecipient(payload.UserID); err != nil {
			return nil, err
		}
		return &SendParams{
			UserID:   payload.UserID,
			Type:     enums.NotificationTypePayment,
			Priority: enums.NotificationPriorityMedium,
			Title:    "Payment received",
			Message:  fmt.Sprintf("We received your payment of %s %s.", payload.Amount.StringFixed(2), payload.Currency),
			Metadata: map[string]any{"paymentId": payload.PaymentID.String()},
		}, nil

	case enums.EventMaintenanceDue:
		var payload maintenanceDuePayload
		if err := decodePayload(envelope.Data, &payload); err != nil {
			return nil, err
		}
		if err := requireRecipient(payload.OwnerID); err != nil {
			return nil, err
		}
		return &SendParams{
			UserID:   payload.OwnerID,
			Type:     enums.NotificationTypeMaintenance,
			Priority: enums.NotificationPriorityMedium,
			Title:    "Maintenance due",
			Message:  fmt.Sprintf("%s on %s is due by %s.", payload.Item, payload.YachtName, payload.DueDate.Format("Jan 2")),
			Metadata: map[string]any{"yachtId": payload.YachtID.String()},
		}, nil

	case enums.EventWeatherAlert:
		var payload weatherAlertPayload
		if err := decodePayload(envelope.Data, &payload); err != nil {
			return nil, err
		}
		if err := requireRecipient(payload.UserID); err != nil {
			return nil, err
		}
		priority := enums.NotificationPriorityHigh
		notificationType := enums.NotificationTypeWeather
		if payload.Severity == "severe" {
			priority = enums.NotificationPriorityUrgent
			notificationType = enums.NotificationTypeEmergency
		}
		return &SendParams{
			UserID:   payload.UserID,
			Type:     notificationType,
			Priority: priority,
			Title:    "Weather alert",
			Message:  fmt.Sprintf("%s (%s)", payload.Headline, payload.Region),
			Metadata: map[string]any{"region": payload.Region, "severity": payload.Severity},
		}, nil
	}

	return nil, nil
}

func decodePayload(data json.RawMessage, target any) error {
	if err := json.Unmarshal(data, target); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decoding event payload")
	}
	return nil
}

func requireRecipient(id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "event payload missing recipient id")
	}
	return nil
}
