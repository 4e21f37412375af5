package engine

import (
	"context"
	"errors"
)

// Sentinel errors for the completion request lifecycle. Every
// provider-originated failure is translated into one of these at the
// orchestrator boundary; none may poison engine-wide state.
var (
	// ErrModelUnavailable is terminal for a request; there is no retry.
	ErrModelUnavailable = errors.New("completion model unavailable")
	// ErrDownloadRequired means the model needs a download before first use.
	ErrDownloadRequired = errors.New("model download required")
	// ErrDownloadInProgress means the model is still downloading.
	ErrDownloadInProgress = errors.New("model download in progress")
	// ErrUserActivationRequired means only a fresh user-initiated trigger can
	// recover.
	ErrUserActivationRequired = errors.New("user activation required")
	// ErrEmptyContext means there was nothing before the cursor to continue.
	ErrEmptyContext = errors.New("empty context")
	// ErrParse means the structured response was malformed.
	ErrParse = errors.New("malformed completion response")
	// ErrStreamingFailed means the stream broke and the batch fallback also
	// failed (or was unavailable).
	ErrStreamingFailed = errors.New("streaming completion failed")
)

// classify translates a request error into the Update surfaced to the
// caller. Cancellation is expected and stays silent: the Update carries the
// error but no status, so callers show nothing.
func classify(err error) Update {
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return Update{Err: err}
	case errors.Is(err, ErrEmptyContext):
		return Update{Status: StatusError, Message: "nothing to complete yet", Err: err}
	case errors.Is(err, ErrModelUnavailable):
		return Update{Status: StatusError, Message: "completion model is unavailable", Err: err}
	case errors.Is(err, ErrDownloadRequired):
		return Update{Status: StatusDownloading, Message: "model download required", Err: err}
	case errors.Is(err, ErrDownloadInProgress):
		return Update{Status: StatusDownloading, Message: "model is downloading", Err: err}
	case errors.Is(err, ErrUserActivationRequired):
		return Update{Status: StatusError, Message: "trigger a completion again to enable the model", Err: err}
	default:
		// ErrParse, ErrStreamingFailed and anything unexpected surface as a
		// generic failure.
		return Update{Status: StatusError, Message: "completion failed", Err: err}
	}
}
