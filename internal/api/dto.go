package api

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"shareit/internal/models"
)

// localLayout is the zone-less timestamp format used on the wire. Values are UTC.
const localLayout = "2006-01-02T15:04:05"

type jsonTime time.Time

func (t jsonTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).UTC().Format(localLayout))
}

func (t *jsonTime) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		*t = jsonTime(parsed.UTC())
		return nil
	}
	parsed, err := time.ParseInLocation(localLayout, raw, time.UTC)
	if err != nil {
		return fmt.Errorf("invalid timestamp %q", raw)
	}
	*t = jsonTime(parsed)
	return nil
}

type bookingRequest struct {
	ItemID int64     `json:"itemId" validate:"required,gt=0"`
	Start  *jsonTime `json:"start" validate:"required"`
	End    *jsonTime `json:"end" validate:"required"`
}

type refDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

type bookingResponse struct {
	ID     int64    `json:"id"`
	Start  jsonTime `json:"start"`
	End    jsonTime `json:"end"`
	Status string   `json:"status"`
	Booker refDTO   `json:"booker"`
	Item   refDTO   `json:"item"`
}

func toBookingResponse(b *models.Booking) bookingResponse {
	return bookingResponse{
		ID:     b.ID,
		Start:  jsonTime(b.Start),
		End:    jsonTime(b.End),
		Status: string(b.Status),
		Booker: refDTO{ID: b.BookerID, Name: b.BookerName},
		Item:   refDTO{ID: b.ItemID, Name: b.ItemName},
	}
}

func toBookingResponses(bs []*models.Booking) []bookingResponse {
	out := make([]bookingResponse, 0, len(bs))
	for _, b := range bs {
		out = append(out, toBookingResponse(b))
	}
	return out
}

// bookingShort is the neighbour booking shown on an item card.
type bookingShort struct {
	ID       int64    `json:"id"`
	BookerID int64    `json:"bookerId"`
	ItemID   int64    `json:"itemId"`
	Start    jsonTime `json:"start"`
	End      jsonTime `json:"end"`
	Status   string   `json:"status"`
}

func toBookingShort(b *models.Booking) *bookingShort {
	if b == nil {
		return nil
	}
	return &bookingShort{
		ID:       b.ID,
		BookerID: b.BookerID,
		ItemID:   b.ItemID,
		Start:    jsonTime(b.Start),
		End:      jsonTime(b.End),
		Status:   string(b.Status),
	}
}

type itemRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Available   *bool   `json:"available"`
}

type createItemRequest struct {
	Name        *string `json:"name" validate:"required,notblank"`
	Description *string `json:"description" validate:"required,notblank"`
	Available   *bool   `json:"available" validate:"required"`
	RequestID   *int64  `json:"requestId" validate:"omitempty,gt=0"`
}

type itemResponse struct {
	ID          int64             `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Available   bool              `json:"available"`
	OwnerID     int64             `json:"ownerId"`
	RequestID   *int64            `json:"requestId"`
	LastBooking *bookingShort     `json:"lastBooking"`
	NextBooking *bookingShort     `json:"nextBooking"`
	Comments    []commentResponse `json:"comments"`
}

func toItemResponse(it *models.Item) itemResponse {
	return itemResponse{
		ID:          it.ID,
		Name:        it.Name,
		Description: it.Description,
		Available:   it.Available,
		OwnerID:     it.OwnerID,
		RequestID:   it.RequestID,
		Comments:    []commentResponse{},
	}
}

func toItemDetailsResponse(d *models.ItemDetails) itemResponse {
	resp := toItemResponse(&d.Item)
	resp.LastBooking = toBookingShort(d.LastBooking)
	resp.NextBooking = toBookingShort(d.NextBooking)
	for _, c := range d.Comments {
		resp.Comments = append(resp.Comments, toCommentResponse(c))
	}
	return resp
}

type commentRequest struct {
	Text string `json:"text" validate:"notblank"`
}

type commentResponse struct {
	ID         int64    `json:"id"`
	Text       string   `json:"text"`
	AuthorName string   `json:"authorName"`
	Created    jsonTime `json:"created"`
}

func toCommentResponse(c *models.Comment) commentResponse {
	return commentResponse{
		ID:         c.ID,
		Text:       c.Text,
		AuthorName: c.AuthorName,
		Created:    jsonTime(c.CreatedAt),
	}
}

type newRequestBody struct {
	Description string `json:"description" validate:"notblank"`
}

// requestItem is an item offered in answer to a request.
type requestItem struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Available   bool   `json:"available"`
	OwnerID     int64  `json:"ownerId"`
	RequestID   int64  `json:"requestId"`
}

type itemRequestResponse struct {
	ID          int64         `json:"id"`
	Description string        `json:"description"`
	RequestorID int64         `json:"requestorId"`
	Created     jsonTime      `json:"created"`
	Items       []requestItem `json:"items"`
}

func toItemRequestResponse(req *models.ItemRequest) itemRequestResponse {
	resp := itemRequestResponse{
		ID:          req.ID,
		Description: req.Description,
		RequestorID: req.RequestorID,
		Created:     jsonTime(req.CreatedAt),
		Items:       make([]requestItem, 0, len(req.Items)),
	}
	for _, it := range req.Items {
		resp.Items = append(resp.Items, requestItem{
			ID:          it.ID,
			Name:        it.Name,
			Description: it.Description,
			Available:   it.Available,
			OwnerID:     it.OwnerID,
			RequestID:   req.ID,
		})
	}
	return resp
}

type userRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

type createUserRequest struct {
	Name  *string `json:"name" validate:"required,notblank"`
	Email *string `json:"email" validate:"required,email"`
}

type userResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}
