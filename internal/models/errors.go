package models

import "errors"

// Application-wide standard errors
var (
	// Resource errors
	ErrNotFound           = errors.New("resource not found")
	ErrStoryNotFound      = errors.New("story not found")
	ErrIdeaNotFound       = errors.New("idea not found")
	ErrGenerationNotFound = errors.New("generation not found")

	// Generation errors
	ErrGenerationInProgress = errors.New("generation is already in progress for this story")

	// Request errors
	ErrBadRequest   = errors.New("bad request")
	ErrInvalidInput = errors.New("invalid input data")
)
