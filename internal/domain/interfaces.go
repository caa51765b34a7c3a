package domain

import (
	"context"
	"time"

	"shareit/internal/models"
)

// TransitionFunc inspects a booking loaded inside a write transaction and
// returns the status to store, or an error to abort without writing.
type TransitionFunc func(b *models.Booking) (models.BookingStatus, error)

type BookingStore interface {
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	CreateBookingWithLock(ctx context.Context, booking *models.Booking) error
	ScanBookings(ctx context.Context, filter models.BookingFilter, page *models.Page) ([]*models.Booking, error)
	TransitionBookingStatus(ctx context.Context, id int64, fn TransitionFunc) (*models.Booking, error)
	FindLatestEndedBooking(ctx context.Context, itemID, bookerID int64, now time.Time) (*models.Booking, error)
	FindLastBooking(ctx context.Context, itemID int64, now time.Time, status models.BookingStatus) (*models.Booking, error)
	FindNextBooking(ctx context.Context, itemID int64, now time.Time, status models.BookingStatus) (*models.Booking, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetAllUsers(ctx context.Context) ([]*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id int64) error
}

type ItemRepository interface {
	CreateItem(ctx context.Context, item *models.Item) error
	GetItemByID(ctx context.Context, id int64) (*models.Item, error)
	UpdateItem(ctx context.Context, item *models.Item) error
	GetItemsByOwner(ctx context.Context, ownerID int64, page *models.Page) ([]*models.Item, error)
	CountItemsByOwner(ctx context.Context, ownerID int64) (int, error)
	SearchAvailableItems(ctx context.Context, text string, page *models.Page) ([]*models.Item, error)
	GetItemsByRequests(ctx context.Context, requestIDs []int64) ([]*models.Item, error)
}

type RequestRepository interface {
	CreateRequest(ctx context.Context, req *models.ItemRequest) error
	GetRequestByID(ctx context.Context, id int64) (*models.ItemRequest, error)
	GetRequestsByRequestor(ctx context.Context, requestorID int64) ([]*models.ItemRequest, error)
	GetOtherRequests(ctx context.Context, userID int64, page *models.Page) ([]*models.ItemRequest, error)
}

type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentsByItem(ctx context.Context, itemID int64) ([]*models.Comment, error)
}

// Repository is the full persistence surface backed by one database.
type Repository interface {
	BookingStore
	UserRepository
	ItemRepository
	CommentRepository
	RequestRepository
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// QuotaStore counts requests per user in a fixed window.
type QuotaStore interface {
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type BookingService interface {
	Create(ctx context.Context, userID, itemID int64, start, end time.Time) (*models.Booking, error)
	Decide(ctx context.Context, userID, bookingID int64, approve bool) (*models.Booking, error)
	Get(ctx context.Context, userID, bookingID int64) (*models.Booking, error)
	ListForBooker(ctx context.Context, bookerID int64, state models.BookingState, page *models.Page) ([]*models.Booking, error)
	ListForOwner(ctx context.Context, ownerID int64, state models.BookingState, page *models.Page) ([]*models.Booking, error)
}

type ItemService interface {
	CreateItem(ctx context.Context, ownerID int64, item *models.Item) (*models.Item, error)
	UpdateItem(ctx context.Context, ownerID, itemID int64, patch models.ItemPatch) (*models.Item, error)
	GetItem(ctx context.Context, userID, itemID int64) (*models.ItemDetails, error)
	ListOwnerItems(ctx context.Context, ownerID int64, page *models.Page) ([]*models.ItemDetails, error)
	SearchItems(ctx context.Context, userID int64, text string, page *models.Page) ([]*models.Item, error)
	AddComment(ctx context.Context, userID, itemID int64, text string) (*models.Comment, error)
}

type RequestService interface {
	CreateRequest(ctx context.Context, userID int64, description string) (*models.ItemRequest, error)
	ListOwnRequests(ctx context.Context, userID int64) ([]*models.ItemRequest, error)
	ListOtherRequests(ctx context.Context, userID int64, page *models.Page) ([]*models.ItemRequest, error)
	GetRequest(ctx context.Context, userID, requestID int64) (*models.ItemRequest, error)
}

type UserService interface {
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (*models.User, error)
	DeleteUser(ctx context.Context, id int64) error
}
