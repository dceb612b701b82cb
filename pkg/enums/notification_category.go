package enums

import "fmt"

// NotificationCategory is the coarse bucket used for preference gating.
type NotificationCategory string

const (
	NotificationCategoryTransaction   NotificationCategory = "transaction"
	NotificationCategoryCommunication NotificationCategory = "communication"
	NotificationCategoryService       NotificationCategory = "service"
	NotificationCategorySafety        NotificationCategory = "safety"
	NotificationCategoryMarketing     NotificationCategory = "marketing"
)

var validNotificationCategories = []NotificationCategory{
	NotificationCategoryTransaction,
	NotificationCategoryCommunication,
	NotificationCategoryService,
	NotificationCategorySafety,
	NotificationCategoryMarketing,
}

// AllNotificationCategories returns the canonical category list.
func AllNotificationCategories() []NotificationCategory {
	out := make([]NotificationCategory, len(validNotificationCategories))
	copy(out, validNotificationCategories)
	return out
}

// String implements fmt.Stringer.
func (c NotificationCategory) String() string {
	return string(c)
}

// IsValid reports whether the value is known.
func (c NotificationCategory) IsValid() bool {
	for _, candidate := range validNotificationCategories {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseNotificationCategory converts raw input into a NotificationCategory.
func ParseNotificationCategory(value string) (NotificationCategory, error) {
	for _, candidate := range validNotificationCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification category %q", value)
}
