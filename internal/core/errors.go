package core

import (
	"errors"
	"fmt"
)

// The closed error taxonomy. Every failure the service reports to a caller
// wraps exactly one of these sentinels; faults from collaborators that do not
// map onto the taxonomy are wrapped as the sentinel of the stage they
// occurred in, never leaked raw.
var (
	// ErrNotFound indicates an unknown model id or audio token.
	ErrNotFound = errors.New("not found")
	// ErrForbidden indicates a mutation attempted on a preset model.
	ErrForbidden = errors.New("preset models are read-only")
	// ErrInvalidArgument indicates bad user input, such as an empty name.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrUnsupportedLanguage indicates a language outside the supported set.
	ErrUnsupportedLanguage = errors.New("unsupported language")
	// ErrTextTooLong indicates text beyond the configured character ceiling.
	ErrTextTooLong = errors.New("text exceeds maximum length")
	// ErrEmbeddingFailed indicates the engine could not derive a usable
	// voice embedding from the source recording.
	ErrEmbeddingFailed = errors.New("embedding extraction failed")
	// ErrStorageFailed indicates a blob read or write failure.
	ErrStorageFailed = errors.New("storage operation failed")
	// ErrTimeout indicates the caller-supplied deadline expired.
	ErrTimeout = errors.New("operation timed out")
	// ErrDecodeFailed indicates an unreadable upload format.
	ErrDecodeFailed = errors.New("audio decode failed")
)

// RejectReason classifies why a recording was rejected by the validator.
type RejectReason string

const (
	ReasonTooShort       RejectReason = "too_short"
	ReasonTooLong        RejectReason = "too_long"
	ReasonTooMuchSilence RejectReason = "too_much_silence"
	ReasonClipping       RejectReason = "clipping"
	ReasonLowQuality     RejectReason = "low_quality"
)

// ValidationResult is the verdict of the audio quality validator. Metrics are
// populated up to and including the first failing check, so a rejection still
// carries diagnostics.
type ValidationResult struct {
	Accepted bool           `json:"accepted"`
	Reason   RejectReason   `json:"reason,omitempty"`
	Metrics  QualityMetrics `json:"metrics"`
}

// ValidationError reports a rejected upload together with the metrics
// computed before the failing check.
type ValidationError struct {
	Reason  RejectReason
	Metrics QualityMetrics
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("audio rejected: %s", e.Reason)
}

// AsValidationError unwraps err into a *ValidationError if it carries one.
func AsValidationError(err error) (*ValidationError, bool) {
	var vErr *ValidationError

	ok := errors.As(err, &vErr)

	return vErr, ok
}
