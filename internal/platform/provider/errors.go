package provider

import (
	"errors"
	"fmt"
)

// ErrorKind classifies provider failures so callers can branch on the result
// kind instead of pattern-matching error message text.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	// KindFeatureDisabled: the account is not provisioned for the requested
	// feature (typically card saving).
	KindFeatureDisabled
	// KindUnauthorized: rejected credentials.
	KindUnauthorized
	// KindInvalidRequest: the provider rejected the payload shape.
	KindInvalidRequest
	// KindUnavailable: transient upstream failure (timeout, 5xx, open circuit).
	KindUnavailable
)

type Error struct {
	Kind        ErrorKind
	Code        string
	Description string
	HTTPStatus  int
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider error: kind=%d code=%s status=%d: %s", e.Kind, e.Code, e.HTTPStatus, e.Description)
}

// KindOf extracts the kind from a (possibly wrapped) provider error.
// Non-provider errors classify as KindUnavailable.
func KindOf(err error) ErrorKind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnavailable
}

// providerErrorBody is the provider's structured error response.
type providerErrorBody struct {
	Type        string `json:"type"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

func classify(httpStatus int, body providerErrorBody) *Error {
	e := &Error{Code: body.Code, Description: body.Description, HTTPStatus: httpStatus}
	switch {
	case body.Code == "feature_not_allowed" || httpStatus == 403:
		e.Kind = KindFeatureDisabled
	case body.Code == "invalid_credentials" || httpStatus == 401:
		e.Kind = KindUnauthorized
	case httpStatus == 400:
		e.Kind = KindInvalidRequest
	case httpStatus >= 500 || httpStatus == 429:
		e.Kind = KindUnavailable
	default:
		e.Kind = KindUnknown
	}
	return e
}
