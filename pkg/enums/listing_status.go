package enums

import "fmt"

// ListingStatus tracks the lifecycle of a marketplace listing.
type ListingStatus string

const (
	ListingStatusDraft   ListingStatus = "draft"
	ListingStatusActive  ListingStatus = "active"
	ListingStatusSold    ListingStatus = "sold"
	ListingStatusRemoved ListingStatus = "removed"
)

var validListingStatuses = []ListingStatus{
	ListingStatusDraft,
	ListingStatusActive,
	ListingStatusSold,
	ListingStatusRemoved,
}

// String implements fmt.Stringer.
func (l ListingStatus) String() string {
	return string(l)
}

// IsValid reports whether the value is a known ListingStatus.
func (l ListingStatus) IsValid() bool {
	for _, candidate := range validListingStatuses {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseListingStatus converts raw input into a ListingStatus.
func ParseListingStatus(value string) (ListingStatus, error) {
	for _, candidate := range validListingStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid listing status %q", value)
}
