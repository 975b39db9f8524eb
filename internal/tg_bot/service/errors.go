package service

import "errors"

var (
	// ErrGeocodeFailed is returned when an address can't be resolved to coordinates.
	ErrGeocodeFailed = errors.New("geocode failed")
	// ErrSearchFailed is returned when a places search for one category fails.
	ErrSearchFailed = errors.New("places search failed")
	// ErrDistanceFailed is returned when a batched distance query fails.
	ErrDistanceFailed = errors.New("distance matrix failed")
	// ErrQuotaExceeded is returned when a user has used up the daily request ceiling.
	ErrQuotaExceeded = errors.New("daily quota exceeded")
	// ErrGenerationFailed is returned when the backend fails or produces no usable text.
	ErrGenerationFailed = errors.New("description generation failed")
)
