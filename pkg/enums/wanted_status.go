package enums

import "fmt"

// WantedStatus tracks the lifecycle of a buyer-posted wanted listing.
type WantedStatus string

const (
	WantedStatusOpen      WantedStatus = "open"
	WantedStatusFulfilled WantedStatus = "fulfilled"
	WantedStatusClosed    WantedStatus = "closed"
)

var validWantedStatuses = []WantedStatus{
	WantedStatusOpen,
	WantedStatusFulfilled,
	WantedStatusClosed,
}

// String implements fmt.Stringer.
func (s WantedStatus) String() string {
	return string(s)
}

// IsValid reports whether the status is known.
func (s WantedStatus) IsValid() bool {
	for _, candidate := range validWantedStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseWantedStatus converts raw input into a WantedStatus.
func ParseWantedStatus(value string) (WantedStatus, error) {
	for _, candidate := range validWantedStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wanted status %q", value)
}
