package video

import (
	"errors"
	"net/url"
	"strings"
)

// Kind is the user-facing category of a failed generation.
type Kind string

const (
	KindQuota      Kind = "quota"
	KindCredential Kind = "credential"
	KindGeneric    Kind = "generic"
)

const (
	QuotaMessage      = "API quota exceeded. Please check your plan and billing details, or wait a while before trying again."
	CredentialMessage = "Invalid or missing API Key. Please ensure your API key is set correctly in your environment."
	GenericMessage    = "An unexpected error occurred while generating the video. Please try again later."
)

// ClassifyMessage maps raw error text onto a kind and its display message.
func ClassifyMessage(raw string) (Kind, string) {
	switch {
	case strings.Contains(raw, "RESOURCE_EXHAUSTED"), strings.Contains(raw, "429"):
		return KindQuota, QuotaMessage
	case strings.Contains(strings.ToLower(raw), "api key"):
		return KindCredential, CredentialMessage
	default:
		return KindGeneric, GenericMessage
	}
}

// ClassifiedError shows only the display message and keeps the cause for
// errors.Is and logging.
type ClassifiedError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *ClassifiedError) Error() string { return e.Message }

func (e *ClassifiedError) Unwrap() error { return e.Err }

// Classify wraps err. Already classified errors are returned as they are.
// Requests that never got a response are generic: their text carries local
// addresses, not anything the service said.
func Classify(err error) *ClassifiedError {
	if err == nil {
		return nil
	}
	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}
	var transport *url.Error
	if errors.As(err, &transport) {
		return &ClassifiedError{Kind: KindGeneric, Message: GenericMessage, Err: err}
	}
	kind, msg := ClassifyMessage(err.Error())
	return &ClassifiedError{Kind: kind, Message: msg, Err: err}
}
