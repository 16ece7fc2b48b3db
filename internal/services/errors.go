package services

import "errors"

// Sentinel errors handlers map onto HTTP statuses.
var (
	ErrAutomationNotFound = errors.New("automation not found")
	ErrDuplicateName      = errors.New("an automation with this name already exists")
	// ErrChildNotFound covers both a missing child row and a child that
	// exists under a different automation, so mismatched ids cannot be
	// used to mutate another automation's rows.
	ErrChildNotFound   = errors.New("not found or does not belong to the specified automation")
	ErrCameraNotFound  = errors.New("camera not found")
	ErrCameraDisabled  = errors.New("camera is disabled")
	ErrReadingNotFound = errors.New("energy reading not found")
)
