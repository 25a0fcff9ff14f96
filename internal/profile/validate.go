package profile

import (
	"errors"
	"fmt"
)

// ErrInvalidName wraps every profile name rejection.
var ErrInvalidName = errors.New("invalid profile name")

const maxNameLen = 64

// ValidateName accepts 1 to 64 characters from a-z, 0-9, '-' and '_', so a
// name is always a single safe path element.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if len(name) > maxNameLen {
		return fmt.Errorf("%w: %q is longer than %d characters", ErrInvalidName, name, maxNameLen)
	}
	for i, r := range name {
		if !nameRune(r) {
			return fmt.Errorf("%w: %q has %q at offset %d (use a-z, 0-9, '-' or '_')", ErrInvalidName, name, r, i)
		}
	}
	return nil
}

func nameRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '_'
}
