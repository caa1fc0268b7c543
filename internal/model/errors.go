package model

import "errors"

var (
	// ErrNotFound is returned for get/update/delete of an unknown id
	ErrNotFound = errors.New("not found")

	// ErrInvalidReference is returned when an item points at a project that does not exist
	ErrInvalidReference = errors.New("invalid project reference")

	// ErrPersistence wraps failures to commit pending changes
	ErrPersistence = errors.New("failed to persist changes")

	// ErrAuthorizationDenied is returned when reminders are not permitted
	ErrAuthorizationDenied = errors.New("notification authorization denied")

	// ErrProductFetch is returned when the unlock product could not be loaded
	ErrProductFetch = errors.New("failed to fetch unlock product")
)
