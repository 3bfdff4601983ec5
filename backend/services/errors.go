package services

import "errors"

var (
	// ErrNotFound is returned when a referenced course, module, lesson,
	// user or achievement id does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrNotEnrolled is returned when a progress operation targets a
	// course the user is not enrolled in.
	ErrNotEnrolled = errors.New("user is not enrolled in this course")

	// ErrInvalidOrder is returned when a reorder request would break the
	// dense 1..N ordering of a sibling set.
	ErrInvalidOrder = errors.New("invalid sequence order")
)
