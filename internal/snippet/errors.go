package snippet

import (
	"errors"
	"fmt"
)

var (
	// ErrClassifierUnavailable is returned by Normalize when no classifier was
	// loaded. The pipeline never guesses a language in that case.
	ErrClassifierUnavailable = errors.New("language classifier unavailable")

	// ErrUnrecognizedLanguage is returned when the classifier produced a label
	// outside the normalizer's language set.
	ErrUnrecognizedLanguage = errors.New("unrecognized language")
)

// LanguageError carries the label that could not be mapped.
type LanguageError struct {
	Label string
}

func (e *LanguageError) Error() string {
	return fmt.Sprintf("%v: %q", ErrUnrecognizedLanguage, e.Label)
}

// Is lets errors.Is match ErrUnrecognizedLanguage.
func (e *LanguageError) Is(target error) bool {
	return target == ErrUnrecognizedLanguage
}
