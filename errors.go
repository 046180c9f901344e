package tipcache

import (
	"errors"
	"fmt"
)

var (
	ErrCancelled     = errors.New("request cancelled")
	ErrClosed        = errors.New("tipcache is closed")
	ErrInvalidConfig = errors.New("invalid tipcache configuration")
)

// NetworkError reports a failed fetch: transport, HTTP status or an
// unsuccessful backend envelope. Status is 0 when no response arrived.
type NetworkError struct {
	Op     string
	Key    string
	Status int
	Cause  error
}

func (e *NetworkError) Error() string {
	msg := e.Op
	if e.Key != "" {
		msg += " " + e.Key
	}
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *NetworkError) Unwrap() error { return e.Cause }

// ValidationError reports a payload that arrived but is unusable,
// e.g. a website without a url.
type ValidationError struct {
	Key    string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "missing"
	}
	if e.Key != "" {
		return fmt.Sprintf("invalid payload for %s: %s %s", e.Key, e.Field, reason)
	}
	return fmt.Sprintf("invalid payload: %s %s", e.Field, reason)
}

// IsCancelled reports whether err is a cancellation rather than a failure.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// classify wraps raw fetch errors into the taxonomy. Cancellations and
// already typed errors pass through.
func classify(key string, err error) error {
	if err == nil || IsCancelled(err) {
		return err
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return err
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		if ve.Key == "" {
			ve.Key = key
		}
		return err
	}
	return &NetworkError{Op: "fetch", Key: key, Cause: err}
}

func configError(field string, value any) error {
	return fmt.Errorf("%w: %s=%v", ErrInvalidConfig, field, value)
}
