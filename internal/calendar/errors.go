package calendar

import "errors"

// Sentinel errors for the calendar package.
// Use errors.Is to check: errors.Is(err, calendar.ErrNotFound)
var (
	ErrNotFound        = errors.New("calendar: not found")
	ErrInvalidArgument = errors.New("calendar: invalid argument")
)
