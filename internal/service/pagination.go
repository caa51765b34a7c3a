package service

import (
	"fmt"

	"shareit/internal/domain"
	"shareit/internal/models"
)

// NewPage builds an offset/limit window. Pagination is applied only when
// both bounds are given; otherwise the result is nil and the whole set is returned.
func NewPage(from, size *int) (*models.Page, error) {
	if from == nil || size == nil {
		return nil, nil
	}
	page := &models.Page{Offset: *from, Limit: *size}
	if err := ValidatePage(page); err != nil {
		return nil, err
	}
	return page, nil
}

func ValidatePage(page *models.Page) error {
	if page == nil {
		return nil
	}
	if page.Offset < 0 || page.Limit < 1 {
		return fmt.Errorf("%w: from=%d size=%d", domain.ErrInvalidPage, page.Offset, page.Limit)
	}
	return nil
}
