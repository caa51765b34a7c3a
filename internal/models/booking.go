package models

import "time"

type Booking struct {
	ID          int64         `json:"id"`
	Start       time.Time     `json:"start"`
	End         time.Time     `json:"end"`
	ItemID      int64         `json:"item_id"`
	ItemName    string        `json:"item_name"`
	ItemOwnerID int64         `json:"item_owner_id"`
	BookerID    int64         `json:"booker_id"`
	BookerName  string        `json:"booker_name"`
	Status      BookingStatus `json:"status"` // WAITING, APPROVED, REJECTED, CANCELED
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	Version     int64         `json:"version"`
}

// IsOwner reports whether userID owns the booked item.
func (b *Booking) IsOwner(userID int64) bool {
	return b.ItemOwnerID == userID
}

func (b *Booking) IsBooker(userID int64) bool {
	return b.BookerID == userID
}
