package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	apperrors "github.com/khalifgfrz/coffee-shop-storefront/pkg/errors"
)

// BackendErrorBody matches the error bodies of the coffee-shop REST API,
// which carry the human readable reason in either "err" or "msg".
type BackendErrorBody struct {
	Err string `json:"err"`
	Msg string `json:"msg"`
}

// Message returns the most specific reason present in the body.
func (b BackendErrorBody) Message() string {
	if b.Err != "" {
		return b.Err
	}
	return b.Msg
}

// ParseResponseError reads the body of a non-2xx HTTP response and translates
// it into an AppError. The backend's message is kept verbatim so it can be
// shown to the shopper. The response body is fully consumed and closed.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperrors.Upstream(
			fmt.Sprintf("%s returned status %d", serviceName, resp.StatusCode),
			fmt.Errorf("read body: %w", err),
		)
	}
	return mapStatus(resp.StatusCode, backendMessage(bodyBytes), serviceName)
}

// MapTransportError converts an error returned by Do into an AppError.
// Open breakers and expired deadlines become 503, 5xx responses and network
// failures become 502. AppErrors pass through untouched.
func MapTransportError(err error, serviceName string) error {
	if err == nil {
		return nil
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, ErrCircuitOpen) {
		svc := apperrors.ServiceUnavailable(serviceName + " is temporarily unavailable")
		svc.Err = fmt.Errorf("%w: %w", apperrors.ErrServiceUnavail, err)
		return svc
	}

	if errors.Is(err, context.DeadlineExceeded) {
		svc := apperrors.ServiceUnavailable(serviceName + " timed out")
		svc.Err = fmt.Errorf("%w: %w", apperrors.ErrServiceUnavail, err)
		return svc
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return mapStatus(statusErr.StatusCode, backendMessage(statusErr.Body), serviceName)
	}

	return apperrors.Upstream(serviceName+" request failed", err)
}

func backendMessage(body []byte) string {
	var parsed BackendErrorBody
	if json.Unmarshal(body, &parsed) == nil {
		if msg := parsed.Message(); msg != "" {
			return msg
		}
	}
	return strings.TrimSpace(string(body))
}

func mapStatus(status int, message, serviceName string) error {
	if message == "" {
		message = http.StatusText(status)
	}

	switch {
	case status == http.StatusNotFound:
		return &apperrors.AppError{
			Code:    "NOT_FOUND",
			Message: message,
			Status:  http.StatusNotFound,
			Err:     apperrors.ErrNotFound,
		}
	case status == http.StatusBadRequest:
		return apperrors.InvalidInput(message)
	case status == http.StatusUnauthorized:
		return apperrors.Unauthorized(message)
	case status == http.StatusForbidden:
		return apperrors.Forbidden(message)
	case status == http.StatusConflict:
		return apperrors.Conflict(message)
	case status == http.StatusTooManyRequests:
		return apperrors.RateLimited(message)
	case status == http.StatusServiceUnavailable:
		return apperrors.ServiceUnavailable(message)
	case IsClientError(status):
		return &apperrors.AppError{
			Code:    "UPSTREAM_REJECTED",
			Message: message,
			Status:  status,
		}
	default:
		// 5xx, and any 1xx or 3xx that reached us, are the backend's fault.
		return apperrors.Upstream(
			message,
			fmt.Errorf("%s returned status %d", serviceName, status),
		)
	}
}

// IsClientError returns true if the HTTP status code is a 4xx client error.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
