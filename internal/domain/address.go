package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidAddress is returned when a value is not a well-formed chain address.
var ErrInvalidAddress = errors.New("invalid chain address")

// IsAddress reports whether s is a well-formed 0x-prefixed 20-byte hex address.
func IsAddress(s string) bool {
	if len(s) != 42 {
		return false
	}
	if s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		return false
	}
	for _, c := range s[2:] {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// NormalizeAddress validates s and returns it lowercased.
func NormalizeAddress(s string) (string, error) {
	if !IsAddress(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return strings.ToLower(s), nil
}
