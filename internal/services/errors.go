package services

import "errors"

// Error taxonomy for the relay pipeline.
var (
	// ErrNotFound is returned by the correlation store when a posted
	// message ID resolves in neither the cache nor durable storage.
	// Expected and non-fatal: the reply is not part of a translation
	// thread.
	ErrNotFound = errors.New("translation record not found")

	// ErrDuplicateKey is returned when a Put reuses a live posted
	// message ID. Signals a dedupe bug upstream; the insert is
	// rejected and the event treated as already handled.
	ErrDuplicateKey = errors.New("duplicate posted message id")

	// ErrDetection is returned when language identification is
	// unavailable or produced no result. The message is dropped from
	// the pipeline, the original left untouched.
	ErrDetection = errors.New("language detection failed")

	// ErrTranslation is returned when the translation gateway is
	// unavailable, timed out, or the breaker is open.
	ErrTranslation = errors.New("translation failed")
)
