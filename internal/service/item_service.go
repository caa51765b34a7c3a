package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

type ItemService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	now      func() time.Time
	logger   *zerolog.Logger
}

func NewItemService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *ItemService {
	return &ItemService{
		repo:     repo,
		eventBus: eventBus,
		now:      time.Now,
		logger:   logger,
	}
}

func (s *ItemService) WithClock(now func() time.Time) *ItemService {
	s.now = now
	return s
}

func (s *ItemService) CreateItem(ctx context.Context, ownerID int64, item *models.Item) (*models.Item, error) {
	if strings.TrimSpace(item.Name) == "" {
		return nil, fmt.Errorf("%w: item name is required", domain.ErrInvalidState)
	}
	if _, err := s.repo.GetUserByID(ctx, ownerID); err != nil {
		return nil, err
	}
	if item.RequestID != nil {
		if _, err := s.repo.GetRequestByID(ctx, *item.RequestID); err != nil {
			return nil, err
		}
	}

	item.OwnerID = ownerID
	if err := s.repo.CreateItem(ctx, item); err != nil {
		s.logger.Error().Err(err).Int64("owner_id", ownerID).Msg("failed to create item")
		return nil, err
	}
	s.logger.Info().Int64("item_id", item.ID).Int64("owner_id", ownerID).Msg("item created")
	return item, nil
}

// UpdateItem applies a partial update. Only the owner may change an item.
func (s *ItemService) UpdateItem(ctx context.Context, ownerID, itemID int64, patch models.ItemPatch) (*models.Item, error) {
	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != ownerID {
		return nil, fmt.Errorf("item %d of user %d: %w", itemID, ownerID, domain.ErrNotFound)
	}

	if patch.Name != nil && strings.TrimSpace(*patch.Name) != "" {
		item.Name = *patch.Name
	}
	if patch.Description != nil && strings.TrimSpace(*patch.Description) != "" {
		item.Description = *patch.Description
	}
	if patch.Available != nil {
		item.Available = *patch.Available
	}

	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// GetItem returns the item with its comments. Neighbouring approved
// bookings are filled in only when the caller owns the item.
func (s *ItemService) GetItem(ctx context.Context, userID, itemID int64) (*models.ItemDetails, error) {
	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	item, err := s.repo.GetItemByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return s.details(ctx, userID, item, s.now())
}

func (s *ItemService) details(ctx context.Context, userID int64, item *models.Item, now time.Time) (*models.ItemDetails, error) {
	comments, err := s.repo.GetCommentsByItem(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	d := &models.ItemDetails{Item: *item, Comments: comments}

	if item.OwnerID != userID {
		return d, nil
	}
	if d.LastBooking, err = s.repo.FindLastBooking(ctx, item.ID, now, models.StatusApproved); err != nil {
		return nil, err
	}
	if d.NextBooking, err = s.repo.FindNextBooking(ctx, item.ID, now, models.StatusApproved); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *ItemService) ListOwnerItems(ctx context.Context, ownerID int64, page *models.Page) ([]*models.ItemDetails, error) {
	if err := ValidatePage(page); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetUserByID(ctx, ownerID); err != nil {
		return nil, err
	}
	items, err := s.repo.GetItemsByOwner(ctx, ownerID, page)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]*models.ItemDetails, 0, len(items))
	for _, it := range items {
		d, err := s.details(ctx, ownerID, it, now)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// SearchItems returns available items matching text. Blank text matches nothing.
func (s *ItemService) SearchItems(ctx context.Context, userID int64, text string, page *models.Page) ([]*models.Item, error) {
	if err := ValidatePage(page); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return []*models.Item{}, nil
	}
	return s.repo.SearchAvailableItems(ctx, text, page)
}

// AddComment is allowed only after the author has a booking of the item that already ended.
func (s *ItemService) AddComment(ctx context.Context, userID, itemID int64, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: comment text is required", domain.ErrInvalidState)
	}
	author, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.GetItemByID(ctx, itemID); err != nil {
		return nil, err
	}

	ended, err := s.repo.FindLatestEndedBooking(ctx, itemID, userID, s.now())
	if err != nil {
		return nil, err
	}
	if ended == nil {
		s.logger.Warn().Int64("user_id", userID).Int64("item_id", itemID).Msg("comment without finished booking")
		return nil, fmt.Errorf("user %d, item %d: %w", userID, itemID, domain.ErrCommentNotAllowed)
	}

	comment := &models.Comment{ItemID: itemID, AuthorID: userID, Text: text}
	if err := s.repo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	comment.AuthorName = author.Name

	if s.eventBus != nil {
		payload := events.CommentEventPayload{CommentID: comment.ID, ItemID: itemID, AuthorID: userID}
		if err := s.eventBus.PublishJSON(events.EventCommentAdded, payload); err != nil {
			s.logger.Error().Err(err).Int64("comment_id", comment.ID).Msg("publish event error")
		}
	}
	return comment, nil
}
