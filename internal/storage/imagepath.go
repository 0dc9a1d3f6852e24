package storage

import (
	"errors"
	"strings"
)

// Image path errors.
var (
	ErrPathEmpty          = errors.New("image path is empty")
	ErrPathColon          = errors.New("image path contains colon")
	ErrPathBackslash      = errors.New("image path contains backslash")
	ErrPathEmptyComponent = errors.New("image path contains an empty component")
	ErrPathDotDot         = errors.New(`image path contains a ".." component`)
)

// ValidateImagePath checks the rules for paths stored with a page: not
// empty, no colon or backslash, and when split at "/" no component is
// empty or "..".
func ValidateImagePath(p string) error {
	if p == "" {
		return ErrPathEmpty
	}
	if strings.Contains(p, ":") {
		return ErrPathColon
	}
	if strings.Contains(p, `\`) {
		return ErrPathBackslash
	}
	for _, c := range strings.Split(p, "/") {
		if c == "" {
			return ErrPathEmptyComponent
		}
		if c == ".." {
			return ErrPathDotDot
		}
	}
	return nil
}

// IsJPEG reports whether name has a JPEG file extension.
func IsJPEG(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".jpeg") || strings.HasSuffix(lower, ".jpg")
}
