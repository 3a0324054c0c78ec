package shared

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/containerd/errdefs"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	t.Parallel()

	assert.Equal(t, http.StatusBadGateway, HTTPStatus(fmt.Errorf("openai: %w", ErrUpstream)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(fmt.Errorf("%w: XYZ", ErrInvalidArgument)))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(ErrMalformedToolArguments))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("boom")))
}

func TestErrorClasses(t *testing.T) {
	t.Parallel()

	assert.True(t, errdefs.IsFailedPrecondition(ErrConfiguration))
	assert.True(t, errdefs.IsInvalidArgument(ErrMalformedToolArguments))
	assert.True(t, errors.Is(fmt.Errorf("wrap: %w", ErrInvalidArgument), ErrInvalidArgument))
}

func TestIsSQLiteConflictError(t *testing.T) {
	t.Parallel()

	assert.False(t, IsSQLiteConflictError(nil))
	assert.True(t, IsSQLiteConflictError(errors.New("SQLITE_BUSY: retry")))
	assert.True(t, IsSQLiteConflictError(errors.New("database is locked")))
	assert.False(t, IsSQLiteConflictError(errors.New("no such table: products")))
}
