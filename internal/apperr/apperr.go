// Package apperr declares the error kinds shared across the bookmark hub
// core. Handlers map these to HTTP status codes; the ingestion pipeline maps
// them to the FATAL/RETRY ack taxonomy via Classify.
package apperr

import "errors"

// Kind is one of the sentinel error values below. Wrap a cause with
// fmt.Errorf("...: %w", apperr.NotFound) and unwrap with errors.Is.
var (
	// Validation is surfaced as 400/422 at the boundary; never enqueues or mutates.
	Validation = errors.New("validation error")

	// NotFound is surfaced as 404.
	NotFound = errors.New("not found")

	// Auth is surfaced as 401/403; authored outside the core.
	Auth = errors.New("auth error")

	// UpstreamTransient covers fetch/readability/LLM transient failures.
	// In the pipeline it becomes RETRY; at request time it becomes 503.
	UpstreamTransient = errors.New("upstream transient error")

	// UpstreamFatal covers 4xx from an upstream or a schema violation.
	// In the pipeline it becomes FAIL immediately.
	UpstreamFatal = errors.New("upstream fatal error")

	// Integrity covers unique-constraint violations not already swallowed
	// by an upsert path.
	Integrity = errors.New("integrity error")

	// Internal is unexpected; 500.
	Internal = errors.New("internal error")
)

// Outcome is the ack decision the ingestion pipeline takes for an error.
type Outcome int

const (
	OutcomeRetry Outcome = iota
	OutcomeFatal
)

// Classify maps an error produced anywhere in the pipeline to the
// {FATAL, RETRY} taxonomy used by the task queue's Ack step. Unrecognised
// errors are treated as fatal: an error the pipeline didn't classify as
// transient is not safe to retry indefinitely.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeFatal
	}
	if errors.Is(err, UpstreamTransient) {
		return OutcomeRetry
	}
	return OutcomeFatal
}
