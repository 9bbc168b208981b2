package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/maheshrc27/postflow/internal/models"
)

type ErrorKind string

const (
	ErrorKindValidation ErrorKind = "validation"
	ErrorKindNetwork    ErrorKind = "network"
	ErrorKindAPI        ErrorKind = "api"
	ErrorKindProcessing ErrorKind = "processing"
	ErrorKindTimeout    ErrorKind = "timeout"
)

// PublishError is a failure to publish one post. It never aborts a sweep;
// the orchestrator stores its message on the post.
type PublishError struct {
	Kind     ErrorKind
	Platform models.Platform
	Stage    string
	Detail   string
	Err      error
}

func (e *PublishError) Error() string {
	var b strings.Builder
	if e.Platform != "" {
		b.WriteString(string(e.Platform))
		b.WriteString(" ")
	}
	b.WriteString(string(e.Kind))
	b.WriteString(" error")
	if e.Stage != "" {
		b.WriteString(" during ")
		b.WriteString(e.Stage)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

func validationError(platform models.Platform, format string, args ...any) *PublishError {
	return &PublishError{
		Kind:     ErrorKindValidation,
		Platform: platform,
		Stage:    "validate",
		Detail:   fmt.Sprintf(format, args...),
	}
}

// asPublishError keeps an existing *PublishError and wraps anything else.
func asPublishError(platform models.Platform, err error) *PublishError {
	var pe *PublishError
	if errors.As(err, &pe) {
		return pe
	}
	return &PublishError{Kind: ErrorKindAPI, Platform: platform, Err: err}
}

// ScanError means the due posts could not be loaded. Nothing was
// published in that pass.
type ScanError struct {
	Err error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("failed to load due posts: %v", e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// ErrInvalidPost marks submissions rejected before anything is stored.
var ErrInvalidPost = errors.New("invalid post")
