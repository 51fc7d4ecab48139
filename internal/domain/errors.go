package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMisconfigured signals missing credentials; raised before a stream is opened.
	ErrMisconfigured = errors.New("server misconfigured")
	// ErrInvalidRequest signals an unreadable chat request body.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrEmptyMessage signals a chat request without a message. Its text is sent to the client as is.
	ErrEmptyMessage = errors.New("No message provided") //nolint:staticcheck // user-facing event text
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrGenerationFailed signals a chat completion failure.
	ErrGenerationFailed = errors.New("generation failed")
	// ErrStoreUnavailable signals that no content store is configured.
	ErrStoreUnavailable = errors.New("content store unavailable")
)

// MissingCredentialsError wraps ErrMisconfigured with the names of absent credentials.
type MissingCredentialsError struct {
	Missing []string
}

func (e *MissingCredentialsError) Error() string {
	return fmt.Sprintf("Server misconfigured: Missing %s", strings.Join(e.Missing, ", "))
}

func (e *MissingCredentialsError) Unwrap() error { return ErrMisconfigured }

// NewMissingCredentials creates a configuration error listing absent credentials.
func NewMissingCredentials(missing ...string) error {
	return &MissingCredentialsError{Missing: missing}
}
