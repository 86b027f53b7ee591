package extool

import (
	"fmt"
	"os"
)

// WithTempFile writes content to a new temporary file (mode 0600), passes its path to fn and removes the
// file once fn returns, whether fn succeeds, fails or panics.
func WithTempFile(dir, pattern, content string, fn func(path string) error) error {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	path := f.Name()
	defer func() {
		_ = os.Remove(path)
	}()

	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	return fn(path)
}
