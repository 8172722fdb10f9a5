// Package clipboard copies entity records to the system clipboard.
package clipboard

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/atotto/clipboard"

	"github.com/matsen/reelgraph/internal/dataset"
)

// ErrClipboardUnavailable is returned when clipboard access is not available.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// writeAll is the system clipboard writer, replaced in tests.
var writeAll = clipboard.WriteAll

// IsAvailable reports whether a clipboard backend was found on this system.
func IsAvailable() bool {
	return !clipboard.Unsupported
}

// Copy copies text to the system clipboard.
func Copy(text string) error {
	if !IsAvailable() {
		return ErrClipboardUnavailable
	}
	if err := writeAll(text); err != nil {
		return fmt.Errorf("%w: %v", ErrClipboardUnavailable, err)
	}
	return nil
}

// FormatEntity renders the full entity record as indented JSON.
func FormatEntity(ent dataset.Entity) (string, error) {
	data, err := json.MarshalIndent(ent, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding entity %s: %w", ent.ID, err)
	}
	return string(data), nil
}

// CopyEntity copies the entity's full record.
func CopyEntity(ent dataset.Entity) error {
	text, err := FormatEntity(ent)
	if err != nil {
		return err
	}
	return Copy(text)
}
