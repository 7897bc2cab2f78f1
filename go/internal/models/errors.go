package models

import "errors"

var (
	// ErrMatchNotFound is returned when a match id does not exist.
	ErrMatchNotFound = errors.New("match not found")

	// ErrStepConflict is returned when a conditional step advance lost to a concurrent advance.
	ErrStepConflict = errors.New("unlock step already advanced")

	// ErrIntakeIncomplete is returned when a user has no stored fantasy answers.
	ErrIntakeIncomplete = errors.New("fantasy intake not completed")

	// ErrNoCounterpart is returned when no unmatched user is available to pair with.
	ErrNoCounterpart = errors.New("no available counterpart")

	ErrDuplicateUnlock = errors.New("fantasy already unlocked for this step")
)
