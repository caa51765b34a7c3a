package service

import (
	"fmt"

	"shareit/internal/domain"
	"shareit/internal/models"
)

// Access checks. They run after existence checks and never hit the store.
// Decide and view failures are reported as not found so that callers
// cannot look up bookings they are not party to.

func CanCreate(bookerID int64, item *models.Item) error {
	if item.OwnerID == bookerID {
		return fmt.Errorf("%w: user %d owns item %d", domain.ErrForbidden, bookerID, item.ID)
	}
	return nil
}

func CanDecide(userID int64, b *models.Booking) error {
	if !b.IsOwner(userID) {
		return fmt.Errorf("booking %d: %w", b.ID, domain.ErrNotFound)
	}
	return nil
}

func CanView(userID int64, b *models.Booking) error {
	if !b.IsOwner(userID) && !b.IsBooker(userID) {
		return fmt.Errorf("booking %d: %w", b.ID, domain.ErrNotFound)
	}
	return nil
}
