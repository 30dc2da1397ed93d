package tracker

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/coinwatch/coinwatch-backend/internal/coingecko"
)

// Classify maps a raw fetch failure to a displayable FetchError. The
// taxonomy is cosmetic: connectivity, rate-limited (429), auth (401),
// unknown. It never changes how the failure is handled.
func Classify(err error) *FetchError {
	if err == nil {
		return nil
	}

	var apiErr *coingecko.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests:
			return &FetchError{Kind: ErrKindRateLimited, Message: "provider rate limit exceeded"}
		case http.StatusUnauthorized:
			return &FetchError{Kind: ErrKindAuth, Message: "provider rejected credentials"}
		}
		return &FetchError{Kind: ErrKindUnknown, Message: err.Error()}
	}

	if isConnectivityError(err) {
		return &FetchError{Kind: ErrKindConnectivity, Message: err.Error()}
	}

	return &FetchError{Kind: ErrKindUnknown, Message: err.Error()}
}

func isConnectivityError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"connection refused",
		"connection reset",
		"no such host",
		"network is unreachable",
		"broken pipe",
		"timeout",
		"eof",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
