package domain

import "errors"

var (
	ErrRegistryMiss       = errors.New("school not found in registry")
	ErrLookupDisabled     = errors.New("registry lookup disabled")
	ErrRosterNotFound     = errors.New("roster file not found")
	ErrVocabularyNotFound = errors.New("vocabulary file not found")
	ErrInvalidTimeOfDay   = errors.New("invalid time of day")
)
