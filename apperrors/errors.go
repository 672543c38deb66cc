package apperrors

import "errors"

// Sentinel errors shared by the exchange, api and ws packages. Kept in their own
// package so none of those has to import another just to compare errors.
var (
	ErrUnknownCurrency  = errors.New("unknown currency")
	ErrRateUnavailable  = errors.New("exchange rate unavailable")
	ErrUpstream         = errors.New("exchange service error")
	ErrInvalidCardIndex = errors.New("card index out of range")
	ErrNotAuthenticated = errors.New("not authenticated")
)
