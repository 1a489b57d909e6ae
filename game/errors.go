// game/errors.go
package game

import "errors"

// Error taxonomy shared by the services layer and the HTTP handlers.
// Budget and illegal-state errors are caller-facing (4xx); the upstream
// and malformed-response errors are server-facing (5xx) and must never
// leak raw provider output to the player.
var (
	// ErrBudgetExceeded: a question or guess arrived after the round's
	// budget was spent or the round was already over.
	ErrBudgetExceeded = errors.New("no questions or guesses left for this round")

	// ErrIllegalState: a rules operation was invoked on a state that the
	// caller should have rejected first. Indicates a caller bug.
	ErrIllegalState = errors.New("round is in an illegal state for this operation")

	// ErrMalformedJudgeResponse: the model returned content that does not
	// parse as the expected JSON shape. Fatal for the current request.
	ErrMalformedJudgeResponse = errors.New("judge response could not be parsed")

	// ErrUpstreamUnavailable: the embedding, search or model service is
	// unreachable or returned an error status. Retryable by the caller.
	ErrUpstreamUnavailable = errors.New("upstream service unavailable")

	// ErrConcurrentModification: a commit would exceed the budget because a
	// concurrent request advanced the round first. Surfaced to players as
	// ErrBudgetExceeded.
	ErrConcurrentModification = errors.New("round was modified concurrently")
)
