// Package ingest loads and validates screenplay content before analysis.
// Plain-text and Fountain files are read directly. Binary formats are
// rejected with typed errors so callers can map them to client responses.
package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MinScriptLength is the minimum trimmed content length accepted for
// analysis. Anything shorter cannot contain a scene.
const MinScriptLength = 10

var (
	ErrScriptTooShort    = errors.New("script content is too short")
	ErrUnsupportedFormat = errors.New("unsupported script format")
)

var textExtensions = map[string]bool{
	".txt":      true,
	".text":     true,
	".fountain": true,
}

// ValidateContent checks that content is long enough to analyze.
func ValidateContent(content string) error {
	if len(strings.TrimSpace(content)) < MinScriptLength {
		return fmt.Errorf("%w: need at least %d characters", ErrScriptTooShort, MinScriptLength)
	}

	return nil
}

// Normalize strips a UTF-8 BOM and converts Windows line endings.
func Normalize(content string) string {
	content = strings.TrimPrefix(content, "\uFEFF")
	content = strings.ReplaceAll(content, "\r\n", "\n")

	return content
}

// ReadFile loads script content from a file on disk. Files without an
// extension are treated as plain text.
func ReadFile(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != "" && !textExtensions[ext] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	body, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("failed to read script file: %w", err)
	}

	content := Normalize(string(body))

	err = ValidateContent(content)
	if err != nil {
		return "", err
	}

	return content, nil
}

// ReadUpload validates uploaded script content by filename and body.
func ReadUpload(filename string, body []byte) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != "" && !textExtensions[ext] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	content := Normalize(string(body))

	err := ValidateContent(content)
	if err != nil {
		return "", err
	}

	return content, nil
}

func IsScriptTooShort(err error) bool {
	return errors.Is(err, ErrScriptTooShort)
}

func IsUnsupportedFormat(err error) bool {
	return errors.Is(err, ErrUnsupportedFormat)
}
