package models

import "errors"

// Domain errors returned by services and repositories. Handlers map these
// to HTTP status codes; they are expected outcomes, not defects.
var (
	// ErrNotFound is returned when a referenced enrollment, course, lesson,
	// event or user does not exist
	ErrNotFound = errors.New("not found")

	// ErrAlreadyEnrolled is returned when an active or free enrollment
	// already exists for the (student, course) pair
	ErrAlreadyEnrolled = errors.New("already enrolled")

	// ErrInvalidState is returned on an illegal enrollment state transition
	ErrInvalidState = errors.New("invalid enrollment state")

	// ErrNotEnrolled is returned when lesson access is denied because the
	// enrollment is not active or free
	ErrNotEnrolled = errors.New("not enrolled")

	// ErrPreviousLessonIncomplete is returned when lesson access is denied
	// because the preceding lesson has not been completed
	ErrPreviousLessonIncomplete = errors.New("previous lesson incomplete")

	// ErrForbidden is returned when the caller is not authorized to record
	// attendance for an event
	ErrForbidden = errors.New("forbidden")

	// ErrNotRanked is returned when a user with no achievements is looked up
	// on the leaderboard
	ErrNotRanked = errors.New("user is not ranked")
)
