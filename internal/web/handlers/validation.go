package handlers

import (
	"fmt"
	"path/filepath"
	"strings"
)

// PathValidationError represents a validation error for a path
type PathValidationError struct {
	Field   string
	Message string
}

func (e PathValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidatePhotoPath checks a project photo path. Photos are stored relative
// to the frontend's media directory, so absolute paths and paths that climb
// above it are rejected. An empty path clears the photo.
func ValidatePhotoPath(path string) error {
	if path == "" {
		return nil
	}

	if strings.ContainsRune(path, '\x00') {
		return PathValidationError{Field: "photo", Message: "path contains invalid characters"}
	}

	if filepath.IsAbs(path) || strings.HasPrefix(path, "/") {
		return PathValidationError{Field: "photo", Message: "path must be relative"}
	}

	cleaned := filepath.Clean(path)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return PathValidationError{Field: "photo", Message: "path cannot traverse above root"}
	}

	return nil
}
