package models

import "time"

// ItemRequest asks owners for an item nobody offers yet. Items created in
// answer to it carry its id.
type ItemRequest struct {
	ID          int64     `json:"id"`
	Description string    `json:"description"`
	RequestorID int64     `json:"requestor_id"`
	CreatedAt   time.Time `json:"created_at"`
	Items       []*Item   `json:"items"`
}
