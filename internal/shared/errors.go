// Package shared provides common utilities used across the codebase.
//
//nolint:revive // "shared" is an intentional package name for cross-cutting helpers.
package shared

import (
	"fmt"
	"net/http"

	"github.com/containerd/errdefs"
)

// Error classes surfaced by the chat pipeline. Each wraps an errdefs class so
// callers can branch on errdefs.Is* without importing the producing package.
var (
	// ErrConfiguration marks a missing or invalid credential.
	ErrConfiguration = fmt.Errorf("configuration error: %w", errdefs.ErrFailedPrecondition)

	// ErrUpstream marks a failed call to the LLM provider.
	ErrUpstream = fmt.Errorf("upstream request failed: %w", errdefs.ErrUnavailable)

	// ErrInvalidArgument marks tool input that cannot be served, such as an unknown currency code.
	ErrInvalidArgument = fmt.Errorf("invalid argument: %w", errdefs.ErrInvalidArgument)

	// ErrMalformedToolArguments marks tool-call arguments that are not valid JSON for the tool.
	ErrMalformedToolArguments = fmt.Errorf("malformed tool arguments: %w", errdefs.ErrInvalidArgument)
)

// HTTPStatus maps a pipeline error to the status returned to HTTP callers.
// Every failure is a 5xx; upstream outages are reported as 502.
func HTTPStatus(err error) int {
	if errdefs.IsUnavailable(err) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
