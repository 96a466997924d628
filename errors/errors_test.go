package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "operation only",
			err:  NewError("fetch", ErrMissingIdentifier),
			want: "cytomine.fetch: cytomine: missing identifier",
		},
		{
			name: "operation with path",
			err:  NewPathError("delete", "annotation/42.json", errors.New("boom")),
			want: "cytomine.delete annotation/42.json: boom",
		},
		{
			name: "path added after construction",
			err:  NewError("save", errors.New("boom")).WithPath("term.json"),
			want: "cytomine.save term.json: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	base := errors.New("underlying")
	err := NewPathError("update", "project/3.json", base)

	assert.True(t, errors.Is(err, base))
	assert.Equal(t, base, err.Unwrap())
}

func TestWithMessage(t *testing.T) {
	err := NewError("fetch", ErrMissingIdentifier).WithMessage("term relation")

	assert.True(t, errors.Is(err, ErrMissingIdentifier))
	assert.Contains(t, err.Error(), "term relation")
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrMissingIdentifier,
		ErrNotSupported,
		ErrFilterNotAllowed,
		ErrFilterRequired,
		ErrUnresolvedPlaceholder,
		ErrTransferFailed,
		ErrOwnerNotPersisted,
		ErrInvalidHost,
		ErrMissingCredentials,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}
			assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
		}
	}
}

func TestHTTPErrorClassification(t *testing.T) {
	tests := []struct {
		name             string
		status           int
		wantNotFound     bool
		wantUnauthorized bool
		wantServerError  bool
	}{
		{name: "not found", status: http.StatusNotFound, wantNotFound: true},
		{name: "unauthorized", status: http.StatusUnauthorized, wantUnauthorized: true},
		{name: "forbidden", status: http.StatusForbidden, wantUnauthorized: true},
		{name: "server error", status: http.StatusInternalServerError, wantServerError: true},
		{name: "bad gateway", status: http.StatusBadGateway, wantServerError: true},
		{name: "bad request", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error = NewHTTPError(tt.status, "nope")
			// Classification must survive wrapping.
			err = fmt.Errorf("request failed: %w", err)

			assert.Equal(t, tt.wantNotFound, IsNotFound(err))
			assert.Equal(t, tt.wantUnauthorized, IsUnauthorized(err))
			assert.Equal(t, tt.wantServerError, IsServerError(err))
		})
	}
}

func TestHTTPErrorMessage(t *testing.T) {
	assert.Equal(t, "cytomine: server returned 404: no such annotation",
		NewHTTPError(404, "no such annotation").Error())
	assert.Equal(t, "cytomine: server returned 500",
		NewHTTPError(500, "").Error())
}

func TestIsHelpersMatchWrappedErrors(t *testing.T) {
	err := fmt.Errorf("context: %w", NewError("update", ErrNotSupported))

	assert.True(t, IsNotSupported(err))
	assert.False(t, IsMissingIdentifier(err))
	assert.False(t, IsTransferFailed(err))
	assert.False(t, IsFilterNotAllowed(err))
}
