package enums

import "fmt"

// NotificationKind categorizes the user-facing feed entries.
type NotificationKind string

const (
	NotificationKindOrderPlaced    NotificationKind = "order_placed"
	NotificationKindOrderStatus    NotificationKind = "order_status"
	NotificationKindOrderCanceled  NotificationKind = "order_canceled"
	NotificationKindOfferPublished NotificationKind = "offer_published"
)

var validNotificationKinds = []NotificationKind{
	NotificationKindOrderPlaced,
	NotificationKindOrderStatus,
	NotificationKindOrderCanceled,
	NotificationKindOfferPublished,
}

// String implements fmt.Stringer.
func (n NotificationKind) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationKind.
func (n NotificationKind) IsValid() bool {
	for _, candidate := range validNotificationKinds {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationKind converts raw input into a NotificationKind.
func ParseNotificationKind(value string) (NotificationKind, error) {
	for _, candidate := range validNotificationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification kind %q", value)
}
