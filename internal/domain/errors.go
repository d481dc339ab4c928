package domain

import "errors"

var (
	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation is returned when a required attribute is missing or invalid.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthorized is returned for bad credentials and invalid or revoked tokens.
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("already exists")
	// ErrForbidden is returned when an authenticated user lacks the right.
	ErrForbidden = errors.New("forbidden")

	// Capture stage.
	ErrPermissionDenied  = errors.New("microphone permission denied")
	ErrDeviceUnavailable = errors.New("no audio input device available")

	// Processing stage.
	ErrTranscriptionService = errors.New("transcription service error")
)
