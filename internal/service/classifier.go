package service

import (
	"fmt"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"
)

type predicate func(now time.Time) models.BookingFilter

func withStatus(status models.BookingStatus) predicate {
	return func(time.Time) models.BookingFilter {
		return models.BookingFilter{Status: &status}
	}
}

// classifiers maps every supported state token onto a store filter.
// PAST, CURRENT and FUTURE partition the bookings relative to now.
var classifiers = map[models.BookingState]predicate{
	models.StateAll: func(time.Time) models.BookingFilter {
		return models.BookingFilter{}
	},
	models.StateCurrent: func(now time.Time) models.BookingFilter {
		return models.BookingFilter{StartAtOrBefore: &now, EndAtOrAfter: &now}
	},
	models.StatePast: func(now time.Time) models.BookingFilter {
		return models.BookingFilter{EndBefore: &now}
	},
	models.StateFuture: func(now time.Time) models.BookingFilter {
		return models.BookingFilter{StartAfter: &now}
	},
	models.StateWaiting:  withStatus(models.StatusWaiting),
	models.StateRejected: withStatus(models.StatusRejected),
}

// Classify returns the unscoped filter for a state token.
func Classify(state models.BookingState, now time.Time) (models.BookingFilter, error) {
	p, ok := classifiers[state]
	if !ok {
		return models.BookingFilter{}, fmt.Errorf("%w: %s", domain.ErrUnknownState, state)
	}
	return p(now), nil
}
