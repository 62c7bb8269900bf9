package enums

import "fmt"

// NotificationType labels the urgency class assigned to a match.
type NotificationType string

const (
	NotificationTypeMatch      NotificationType = "match"
	NotificationTypeLastMinute NotificationType = "last_minute"
	NotificationTypeGoodDeal   NotificationType = "good_deal"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeMatch,
	NotificationTypeLastMinute,
	NotificationTypeGoodDeal,
}

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
}

// IsValid reports whether the value is known.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw input into a NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
