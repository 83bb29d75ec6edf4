package domain

import "errors"

var (
	// ErrInvalidRule signals corrupted rule data (e.g. min_days > max_days).
	ErrInvalidRule      = errors.New("invalid delivery rule")
	// ErrMalformedRule marks rule data that could not be decoded; such rules
	// are skipped when a snapshot is built.
	ErrMalformedRule    = errors.New("malformed delivery rule data")
	// ErrMalformedHoliday marks a stored holiday whose date cannot be parsed.
	// Unlike a malformed rule it fails the whole snapshot: dropping it would
	// promise delivery on a day the merchant declared closed.
	ErrMalformedHoliday = errors.New("malformed holiday data")
	ErrShopNotFound     = errors.New("shop not found")
)
