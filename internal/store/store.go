package store

import (
	"errors"
	"strings"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidName   = errors.New("name is required")
	ErrDuplicateName = errors.New("name already exists")
	ErrInvalidInput  = errors.New("invalid input")
)

// normalizeName trims name and reports whether anything is left.
func normalizeName(name string) (string, bool) {
	name = strings.TrimSpace(name)
	return name, name != ""
}

// nameTaken reports whether name matches any of names, ignoring case.
func nameTaken(name string, names []string) bool {
	for _, n := range names {
		if strings.EqualFold(n, name) {
			return true
		}
	}
	return false
}
