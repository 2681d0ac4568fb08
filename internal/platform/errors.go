package platform

import (
	"errors"
	"fmt"
)

// AuthError indicates the platform rejected the request credentials.
//
// It is returned for 401 and 403 responses. The usual cause is an expired or
// misconfigured access token.
type AuthError struct {
	// Status is the HTTP status code that triggered the error.
	Status int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("platform rejected credentials (HTTP %d)", e.Status)
}

// ValidationError indicates the platform returned a response this client
// could not make sense of, or rejected the request as malformed.
//
// It covers undecodable response bodies, responses missing required fields,
// and 4xx rejections other than authentication failures.
type ValidationError struct {
	// Msg describes what was malformed.
	Msg string

	// Err is the underlying decode error, if any.
	Err error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsAuth reports whether err is (or wraps) an [AuthError].
func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsValidation reports whether err is (or wraps) a [ValidationError].
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
