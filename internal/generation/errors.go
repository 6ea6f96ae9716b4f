package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrGenerationFailed is returned when the backend explicitly reports
	// it could not produce the artifact.
	ErrGenerationFailed = errors.New("failed to generate artifact")

	// ErrInvalidResponse is returned when the backend response cannot be
	// parsed or fails schema validation.
	ErrInvalidResponse = errors.New("invalid response from generation backend")

	// ErrContentBlocked is returned when the backend blocks the content
	// due to safety filters.
	ErrContentBlocked = errors.New("content blocked by generation backend safety filters")

	// ErrTransientFailure is returned for temporary errors (network,
	// rate limits) that might resolve on a fresh explicit trigger.
	ErrTransientFailure = errors.New("transient error during generation")

	// ErrInvalidConfig is returned when a backend's configuration is invalid.
	ErrInvalidConfig = errors.New("invalid generation service configuration")

	// ErrUnsupportedKind is returned when no backend is registered for
	// the requested artifact kind.
	ErrUnsupportedKind = errors.New("unsupported artifact kind")
)
