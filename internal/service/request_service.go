package service

import (
	"context"
	"fmt"
	"strings"

	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/models"

	"github.com/rs/zerolog"
)

// RequestService handles item requests: users describe something they need
// and owners answer by creating items that reference the request.
type RequestService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	logger   *zerolog.Logger
}

func NewRequestService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *RequestService {
	return &RequestService{repo: repo, eventBus: eventBus, logger: logger}
}

func (s *RequestService) CreateRequest(ctx context.Context, userID int64, description string) (*models.ItemRequest, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("%w: request description is required", domain.ErrInvalidState)
	}
	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}

	req := &models.ItemRequest{RequestorID: userID, Description: description, Items: []*models.Item{}}
	if err := s.repo.CreateRequest(ctx, req); err != nil {
		s.logger.Error().Err(err).Int64("user_id", userID).Msg("failed to create request")
		return nil, err
	}
	s.logger.Info().Int64("request_id", req.ID).Int64("user_id", userID).Msg("request created")

	if s.eventBus != nil {
		payload := events.RequestEventPayload{RequestID: req.ID, RequestorID: userID}
		if err := s.eventBus.PublishJSON(events.EventRequestCreated, payload); err != nil {
			s.logger.Error().Err(err).Int64("request_id", req.ID).Msg("publish event error")
		}
	}
	return req, nil
}

// ListOwnRequests returns the caller's requests, newest first, with the items offered for each.
func (s *RequestService) ListOwnRequests(ctx context.Context, userID int64) ([]*models.ItemRequest, error) {
	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	reqs, err := s.repo.GetRequestsByRequestor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, reqs)
}

// ListOtherRequests returns requests of every other user, newest first.
func (s *RequestService) ListOtherRequests(ctx context.Context, userID int64, page *models.Page) ([]*models.ItemRequest, error) {
	if err := ValidatePage(page); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	reqs, err := s.repo.GetOtherRequests(ctx, userID, page)
	if err != nil {
		return nil, err
	}
	return s.withItems(ctx, reqs)
}

// GetRequest is visible to any existing user.
func (s *RequestService) GetRequest(ctx context.Context, userID, requestID int64) (*models.ItemRequest, error) {
	if _, err := s.repo.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	req, err := s.repo.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	out, err := s.withItems(ctx, []*models.ItemRequest{req})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// withItems loads the answering items of all requests in one query.
func (s *RequestService) withItems(ctx context.Context, reqs []*models.ItemRequest) ([]*models.ItemRequest, error) {
	if len(reqs) == 0 {
		return reqs, nil
	}
	ids := make([]int64, 0, len(reqs))
	byID := make(map[int64]*models.ItemRequest, len(reqs))
	for _, r := range reqs {
		r.Items = []*models.Item{}
		ids = append(ids, r.ID)
		byID[r.ID] = r
	}

	items, err := s.repo.GetItemsByRequests(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if it.RequestID == nil {
			continue
		}
		if r, ok := byID[*it.RequestID]; ok {
			r.Items = append(r.Items, it)
		}
	}
	return reqs, nil
}
