package models

import "time"

// Scope selects whose bookings a scan returns.
type Scope int

const (
	ScopeBooker Scope = iota
	ScopeOwner
)

func (s Scope) String() string {
	if s == ScopeOwner {
		return "owner"
	}
	return "booker"
}

// BookingFilter is a conjunction of optional predicates over bookings.
// A nil field does not constrain the result.
type BookingFilter struct {
	Scope   Scope
	ScopeID int64

	StartAtOrBefore *time.Time
	EndAtOrAfter    *time.Time
	EndBefore       *time.Time
	StartAfter      *time.Time
	Status          *BookingStatus
}

// Page is an offset/limit window. Offset counts rows, not pages.
type Page struct {
	Offset int
	Limit  int
}
