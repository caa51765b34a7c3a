package models

import "strings"

type BookingStatus string

const (
	StatusWaiting  BookingStatus = "WAITING"
	StatusApproved BookingStatus = "APPROVED"
	StatusRejected BookingStatus = "REJECTED"
	StatusCanceled BookingStatus = "CANCELED"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case StatusWaiting, StatusApproved, StatusRejected, StatusCanceled:
		return true
	}
	return false
}

// BookingState is a temporal/status bucket requested by a list query.
type BookingState string

const (
	StateAll      BookingState = "ALL"
	StateCurrent  BookingState = "CURRENT"
	StatePast     BookingState = "PAST"
	StateFuture   BookingState = "FUTURE"
	StateWaiting  BookingState = "WAITING"
	StateRejected BookingState = "REJECTED"

	// StateUnsupported is what clients send for a token they could not map.
	StateUnsupported BookingState = "UNSUPPORTED_STATUS"
)

// ParseBookingState normalizes a raw token. Empty input means ALL.
func ParseBookingState(raw string) BookingState {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if raw == "" {
		return StateAll
	}
	return BookingState(raw)
}

const (
	// DefaultExportLimit максимальное число строк в выгрузке
	DefaultExportLimit = 10000

	// DefaultUserQuotaWindow окно квоты запросов пользователя
	DefaultUserQuotaWindow = 60 // 1 минута в секундах

	// DefaultUserQuotaRequests количество запросов в окне
	DefaultUserQuotaRequests = 120
)
