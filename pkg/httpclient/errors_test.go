package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/khalifgfrz/coffee-shop-storefront/pkg/errors"
)

func makeResponse(statusCode int, body string) *http.Response {
	return &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func TestParseResponseError_ErrField(t *testing.T) {
	resp := makeResponse(http.StatusUnauthorized, `{"err":"Wrong password"}`)
	err := ParseResponseError(resp, "coffee-api")

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusUnauthorized, appErr.Status)
	assert.Equal(t, "Wrong password", appErr.Message)
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestParseResponseError_MsgField(t *testing.T) {
	resp := makeResponse(http.StatusNotFound, `{"msg":"Product not found"}`)
	err := ParseResponseError(resp, "coffee-api")

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusNotFound, appErr.Status)
	assert.Equal(t, "Product not found", appErr.Message)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestParseResponseError_ErrWinsOverMsg(t *testing.T) {
	resp := makeResponse(http.StatusBadRequest, `{"msg":"Error","err":"Email not registered"}`)
	err := ParseResponseError(resp, "coffee-api")

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Email not registered", appErr.Message)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestParseResponseError_StatusMapping(t *testing.T) {
	tests := []struct {
		status   int
		sentinel error
		want     int
	}{
		{http.StatusForbidden, apperrors.ErrForbidden, http.StatusForbidden},
		{http.StatusConflict, apperrors.ErrConflict, http.StatusConflict},
		{http.StatusTooManyRequests, apperrors.ErrRateLimited, http.StatusTooManyRequests},
		{http.StatusServiceUnavailable, apperrors.ErrServiceUnavail, http.StatusServiceUnavailable},
		{http.StatusInternalServerError, apperrors.ErrUpstream, http.StatusBadGateway},
		{http.StatusBadGateway, apperrors.ErrUpstream, http.StatusBadGateway},
		{http.StatusNotModified, apperrors.ErrUpstream, http.StatusBadGateway},
		{http.StatusFound, apperrors.ErrUpstream, http.StatusBadGateway},
		{http.StatusSwitchingProtocols, apperrors.ErrUpstream, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			err := ParseResponseError(makeResponse(tt.status, `{"err":"x"}`), "coffee-api")
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Equal(t, tt.want, apperrors.HTTPStatus(err))
		})
	}
}

func TestParseResponseError_UnstructuredBody(t *testing.T) {
	resp := makeResponse(http.StatusBadRequest, "plain text failure")
	err := ParseResponseError(resp, "coffee-api")

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "plain text failure", appErr.Message)
}

func TestParseResponseError_EmptyBodyUsesStatusText(t *testing.T) {
	err := ParseResponseError(makeResponse(http.StatusNotFound, ""), "coffee-api")

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "Not Found", appErr.Message)
}

func TestParseResponseError_OtherClientStatusKeepsStatus(t *testing.T) {
	err := ParseResponseError(makeResponse(http.StatusUnprocessableEntity, `{"err":"bad"}`), "coffee-api")

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.Status)
	assert.Equal(t, "UPSTREAM_REJECTED", appErr.Code)
}

func TestMapTransportError(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		assert.NoError(t, MapTransportError(nil, "coffee-api"))
	})

	t.Run("circuit open", func(t *testing.T) {
		err := MapTransportError(ErrCircuitOpen, "coffee-api")
		assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)
		assert.ErrorIs(t, err, ErrCircuitOpen)
		assert.Equal(t, http.StatusServiceUnavailable, apperrors.HTTPStatus(err))
	})

	t.Run("deadline", func(t *testing.T) {
		err := MapTransportError(fmt.Errorf("get: %w", context.DeadlineExceeded), "coffee-api")
		assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)
	})

	t.Run("status error keeps backend message", func(t *testing.T) {
		err := MapTransportError(&StatusError{StatusCode: 500, Body: []byte(`{"err":"db down"}`)}, "coffee-api")

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "db down", appErr.Message)
		assert.Equal(t, http.StatusBadGateway, appErr.Status)
	})

	t.Run("network error", func(t *testing.T) {
		err := MapTransportError(errors.New("dial tcp: connection refused"), "coffee-api")
		assert.ErrorIs(t, err, apperrors.ErrUpstream)
	})

	t.Run("app error passes through", func(t *testing.T) {
		in := apperrors.InvalidInput("nope")
		assert.Same(t, in, MapTransportError(in, "coffee-api"))
	})
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(400))
	assert.True(t, IsClientError(499))
	assert.False(t, IsClientError(399))
	assert.False(t, IsClientError(500))
	assert.False(t, IsClientError(200))
}
