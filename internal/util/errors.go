package util

import "errors"

var (
	ErrPermissionDenied  = errors.New("permission denied")
	ErrUserNotFound      = errors.New("user not found")
	ErrTrainingNotFound  = errors.New("training not found")
	ErrLevelNotFound     = errors.New("level not found")
	ErrMissingIdentifier = errors.New("required identifier missing")
	ErrInvalidScenario   = errors.New("invalid scenario definition")
	ErrLevelNumberTaken  = errors.New("level number already used in training")
)

// IsNotFound reports whether err is one of the NotFound sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrTrainingNotFound) ||
		errors.Is(err, ErrLevelNotFound)
}

// IsValidation reports whether err was caused by bad caller input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingIdentifier) || errors.Is(err, ErrInvalidScenario)
}
