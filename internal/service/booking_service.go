package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type BookingService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	now      func() time.Time
	logger   *zerolog.Logger
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	return &BookingService{
		repo:     repo,
		eventBus: eventBus,
		now:      time.Now,
		logger:   logger,
	}
}

// WithClock replaces the time source used for classification.
func (s *BookingService) WithClock(now func() time.Time) *BookingService {
	s.now = now
	return s
}

func (s *BookingService) Create(ctx context.Context, userID, itemID int64, start, end time.Time) (*models.Booking, error) {
	s.logger.Debug().Int64("user_id", userID).Int64("item_id", itemID).Time("start", start).Time("end", end).Msg("create booking")

	// Хранилище держит микросекунды.
	start, end = start.Truncate(time.Microsecond), end.Truncate(time.Microsecond)
	if !start.Before(end) {
		return nil, fmt.Errorf("%w: start %s is not before end %s", domain.ErrInvalidRange,
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, s.fail(err, "create booking: user lookup", userID, 0)
	}

	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, s.fail(err, "create booking: item lookup", userID, 0)
	}

	if err := CanCreate(userID, item); err != nil {
		return nil, s.fail(err, "create booking: own item", userID, 0)
	}

	if !item.Available {
		return nil, s.fail(fmt.Errorf("item %d: %w", itemID, domain.ErrItemUnavailable), "create booking", userID, 0)
	}

	booking := &models.Booking{
		ItemID:   itemID,
		BookerID: userID,
		Start:    start,
		End:      end,
		Status:   models.StatusWaiting,
	}
	if err := s.repo.CreateBookingWithLock(ctx, booking); err != nil {
		return nil, s.fail(err, "create booking: insert", userID, 0)
	}
	booking.BookerName = user.Name

	s.logger.Info().Int64("booking_id", booking.ID).Int64("item_id", itemID).Int64("user_id", userID).Msg("booking created")
	s.publishEvent(events.EventBookingCreated, booking, userID)
	return booking, nil
}

// Decide records the item owner's approval or rejection of a waiting booking.
// The transition rule is evaluated inside the store's write transaction.
func (s *BookingService) Decide(ctx context.Context, userID, bookingID int64, approve bool) (*models.Booking, error) {
	s.logger.Debug().Int64("user_id", userID).Int64("booking_id", bookingID).Bool("approve", approve).Msg("decide booking")

	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		return nil, s.fail(err, "decide booking: user lookup", userID, bookingID)
	}

	updated, err := s.repo.TransitionBookingStatus(ctx, bookingID, func(b *models.Booking) (models.BookingStatus, error) {
		if err := CanDecide(userID, b); err != nil {
			return "", err
		}
		return nextStatus(b, approve)
	})
	if err != nil {
		return nil, s.fail(err, "decide booking", userID, bookingID)
	}

	eventType := events.EventBookingRejected
	if updated.Status == models.StatusApproved {
		eventType = events.EventBookingApproved
	}
	s.logger.Info().Int64("booking_id", bookingID).Int64("user_id", userID).Str("status", string(updated.Status)).Msg("booking decided")
	s.publishEvent(eventType, updated, userID)
	return updated, nil
}

func nextStatus(b *models.Booking, approve bool) (models.BookingStatus, error) {
	if approve && b.Status == models.StatusApproved {
		return "", fmt.Errorf("booking %d: %w", b.ID, domain.ErrAlreadyApproved)
	}
	if b.Status != models.StatusWaiting {
		return "", fmt.Errorf("%w: booking %d is %s", domain.ErrInvalidState, b.ID, b.Status)
	}
	if approve {
		return models.StatusApproved, nil
	}
	return models.StatusRejected, nil
}

func (s *BookingService) Get(ctx context.Context, userID, bookingID int64) (*models.Booking, error) {
	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		return nil, s.fail(err, "get booking: user lookup", userID, bookingID)
	}

	booking, err := s.repo.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, s.fail(err, "get booking", userID, bookingID)
	}

	if err := CanView(userID, booking); err != nil {
		return nil, s.fail(err, "get booking: no access", userID, bookingID)
	}
	return booking, nil
}

func (s *BookingService) ListForBooker(ctx context.Context, bookerID int64, state models.BookingState, page *models.Page) ([]*models.Booking, error) {
	return s.list(ctx, models.ScopeBooker, bookerID, state, page)
}

func (s *BookingService) ListForOwner(ctx context.Context, ownerID int64, state models.BookingState, page *models.Page) ([]*models.Booking, error) {
	return s.list(ctx, models.ScopeOwner, ownerID, state, page)
}

func (s *BookingService) list(ctx context.Context, scope models.Scope, userID int64, state models.BookingState, page *models.Page) ([]*models.Booking, error) {
	log := s.logger.With().Str("scope", scope.String()).Int64("user_id", userID).Str("state", string(state)).Logger()
	log.Debug().Msg("list bookings")

	if err := ValidatePage(page); err != nil {
		log.Warn().Err(err).Msg("list bookings rejected")
		return nil, err
	}

	filter, err := Classify(state, s.now())
	if err != nil {
		log.Warn().Err(err).Msg("list bookings rejected")
		return nil, err
	}
	filter.Scope = scope
	filter.ScopeID = userID

	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		return nil, s.fail(err, "list bookings: user lookup", userID, 0)
	}

	if scope == models.ScopeOwner {
		count, err := s.repo.CountItemsByOwner(ctx, userID)
		if err != nil {
			return nil, s.fail(err, "list bookings: count items", userID, 0)
		}
		if count == 0 {
			return nil, s.fail(fmt.Errorf("user %d has no items: %w", userID, domain.ErrNotFound), "list bookings", userID, 0)
		}
	}

	return s.repo.ScanBookings(ctx, filter, page)
}

// fail logs err at a level matching its kind and returns it unchanged.
func (s *BookingService) fail(err error, op string, userID, bookingID int64) error {
	ev := s.logger.Warn()
	if domain.IsStoreError(err) || !isDomainKind(err) {
		ev = s.logger.Error()
	}
	ev.Err(err).Int64("user_id", userID).Int64("booking_id", bookingID).Msg(op)
	return err
}

func isDomainKind(err error) bool {
	for _, kind := range []error{domain.ErrNotFound, domain.ErrForbidden, domain.ErrInvalidRange, domain.ErrInvalidState, domain.ErrConflict} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

func (s *BookingService) publishEvent(eventType string, b *models.Booking, actorID int64) {
	if s.eventBus == nil {
		return
	}
	payload := events.BookingEventPayload{
		BookingID:   b.ID,
		ItemID:      b.ItemID,
		ItemOwnerID: b.ItemOwnerID,
		BookerID:    b.BookerID,
		Status:      string(b.Status),
		Start:       b.Start,
		End:         b.End,
		ActorID:     actorID,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", b.ID).Msg("publish event error")
	}
}
