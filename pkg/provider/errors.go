package provider

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"

	"github.com/evalforge/evalharness/pkg/evalmodel"
)

// classifyHTTPStatus applies the mandatory status-code mapping from §4.B.
// Returns handled=false when the status is a plain 2xx (caller should
// proceed to parse the body as a success).
func classifyHTTPStatus(statusCode int, body []byte) (kind evalmodel.ErrorKind, message string, handled bool) {
	bodyStr := string(body)
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "", "", false
	case statusCode == 408 || statusCode == 504:
		return evalmodel.ErrTimeout, "request timed out (status " + strconv.Itoa(statusCode) + ")", true
	case statusCode == 429:
		return evalmodel.ErrRateLimited, "rate limited (status 429)", true
	case statusCode == 400 && strings.Contains(strings.ToLower(bodyStr), "context length"):
		return evalmodel.ErrContextExceeded, "context length exceeded", true
	case statusCode == 401 || statusCode == 403:
		return evalmodel.ErrAuthenticationErr, "authentication failed (status " + strconv.Itoa(statusCode) + ")", true
	case statusCode >= 500:
		return evalmodel.ErrServerError, "server error (status " + strconv.Itoa(statusCode) + ")", true
	case containsSafetyBlockMarker(bodyStr):
		return evalmodel.ErrContentFiltered, "content filtered by provider", true
	case statusCode >= 400:
		return evalmodel.ErrUnknown, "unexpected status " + strconv.Itoa(statusCode) + ": " + bodyStr, true
	default:
		return "", "", false
	}
}

func containsSafetyBlockMarker(body string) bool {
	lower := strings.ToLower(body)
	return strings.Contains(lower, "content_filter") || strings.Contains(lower, "safety") && strings.Contains(lower, "block")
}

// classifyTransportError maps a transport-level (non-HTTP-status) failure:
// client deadline, connection refused, DNS, TLS.
func classifyTransportError(err error) evalmodel.ErrorKind {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return evalmodel.ErrTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return evalmodel.ErrTimeout
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "dns"),
		strings.Contains(msg, "tls"),
		strings.Contains(msg, "connection reset"):
		return evalmodel.ErrConnectionError
	default:
		return evalmodel.ErrUnknown
	}
}
