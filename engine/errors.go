package engine

import "errors"

// Sentinel errors returned by Assign and NewConfig.
//
// Callers should match them with errors.Is, the returned error usually carries
// extra detail about the inputs that caused it.
var (
	// ErrInvalidConfiguration is returned when batch size or remainder threshold is out of range.
	ErrInvalidConfiguration = errors.New("invalid assignment configuration")

	// ErrNoMentorsAvailable is returned when the mentor list is empty.
	ErrNoMentorsAvailable = errors.New("no mentors available")

	// ErrInsufficientMentors is returned when more batches are needed than mentors supplied
	// and overload is not allowed.
	ErrInsufficientMentors = errors.New("insufficient mentors")
)
