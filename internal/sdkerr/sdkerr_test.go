package sdkerr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("install: %w", Conflict("SDK %q already exists", "7.0.0.GA"))

	assert.Equal(t, KindConflict, KindOf(err))
	assert.True(t, Is(err, KindConflict))
	assert.False(t, Is(err, KindNotFound))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
}

func TestNewHTTPError(t *testing.T) {
	err := NewHTTPError(http.StatusNotFound, "https://example.com/x.zip")

	require.Equal(t, KindTransport, KindOf(err))

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.Equal(t, "Not Found", httpErr.Reason)
	assert.Equal(t, http.StatusNotFound, DetailsOf(err)["status"])
	assert.Contains(t, err.Error(), "HTTP 404 Not Found")
}

func TestWithDetails(t *testing.T) {
	err := BadInput("invalid branch %q", "nope").With("branches", []string{"master", "7_0_X"})

	assert.Equal(t, `invalid branch "nope"`, err.Error())
	assert.Equal(t, []string{"master", "7_0_X"}, DetailsOf(err)["branches"])
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "conflict", KindConflict.String())
	assert.Equal(t, "invalid package", KindInvalidPackage.String())
	assert.Equal(t, "unknown", Kind(99).String())
}

func TestMalformedUnwrap(t *testing.T) {
	err := Transport(fmt.Errorf("%w: %v", ErrMalformedResponse, errors.New("eof")), "fetch releases")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}
