package enums

// CharterEventType labels domain events consumed from the charter topic.
type CharterEventType string

const (
	EventBookingConfirmed CharterEventType = "booking.confirmed"
	EventBookingCancelled CharterEventType = "booking.cancelled"
	EventPaymentReceived  CharterEventType = "payment.received"
	EventMaintenanceDue   CharterEventType = "maintenance.due"
	EventWeatherAlert     CharterEventType = "weather.alert"
)

// String implements fmt.Stringer.
func (e CharterEventType) String() string {
	return string(e)
}
