package memory

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyText is returned when embedding empty or whitespace-only text.
	ErrEmptyText = errors.New("empty text")

	// ErrDimensionMismatch is returned when a memo's embedding size differs
	// from the memos already in the store.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// StorageError reports that the memo store could not be read or written.
// Recall degrades to no memos and writes are dropped.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("memo store %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// EmbeddingError reports that text could not be embedded, either because the
// backend is unavailable or because the input is unembeddable.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// ConfigurationError reports invalid construction-time settings. It is always
// fatal and never silently defaulted.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewEmbeddingError wraps err as an *EmbeddingError unless it already is one.
func NewEmbeddingError(err error) error {
	if err == nil {
		return nil
	}
	var ee *EmbeddingError
	if errors.As(err, &ee) {
		return err
	}
	return &EmbeddingError{Err: err}
}
