package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypeBooking       NotificationType = "booking"
	NotificationTypeMessage       NotificationType = "message"
	NotificationTypePayment       NotificationType = "payment"
	NotificationTypeMaintenance   NotificationType = "maintenance"
	NotificationTypeWeather       NotificationType = "weather"
	NotificationTypeServiceUpdate NotificationType = "service_update"
	NotificationTypePromotion     NotificationType = "promotion"
	NotificationTypeEmergency     NotificationType = "emergency"
	NotificationTypeSystem        NotificationType = "system"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeBooking,
	NotificationTypeMessage,
	NotificationTypePayment,
	NotificationTypeMaintenance,
	NotificationTypeWeather,
	NotificationTypeServiceUpdate,
	NotificationTypePromotion,
	NotificationTypeEmergency,
	NotificationTypeSystem,
}

// categoryByType is the canonical type-to-category mapping. Every type has
// exactly one category; preference gating happens on the category.
var categoryByType = map[NotificationType]NotificationCategory{
	NotificationTypeBooking:       NotificationCategoryTransaction,
	NotificationTypePayment:       NotificationCategoryTransaction,
	NotificationTypeMessage:       NotificationCategoryCommunication,
	NotificationTypeSystem:        NotificationCategoryCommunication,
	NotificationTypeMaintenance:   NotificationCategoryService,
	NotificationTypeServiceUpdate: NotificationCategoryService,
	NotificationTypeWeather:       NotificationCategorySafety,
	NotificationTypeEmergency:     NotificationCategorySafety,
	NotificationTypePromotion:     NotificationCategoryMarketing,
}

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// Category resolves the coarse preference bucket for the type. Unknown types
// fall back to communication so a bad producer never crashes dispatch.
func (n NotificationType) Category() NotificationCategory {
	if category, ok := categoryByType[n]; ok {
		return category
	}
	return NotificationCategoryCommunication
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
