package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrAuthRejected: invalid credentials or a provider-side policy refusal.
	ErrAuthRejected = errors.New("auth rejected")
	// ErrNetwork: transport failure, including an expired call timeout.
	ErrNetwork = errors.New("network error")
	// ErrAccessDenied: a profile write blocked by access-control policy.
	ErrAccessDenied = errors.New("access denied")
	// ErrNotFound: the requested profile does not exist.
	ErrNotFound = errors.New("not found")
	// ErrOther: anything the provider reported that fits none of the above.
	ErrOther = errors.New("remote error")
)

// accessDeniedMarkers are substrings the provider puts into policy
// rejections even when the status code itself is not PermissionDenied.
var accessDeniedMarkers = []string{
	"row-level security",
	"permission denied",
	"42501",
}

// IsAccessDenied reports whether err is an access-control rejection, either
// by sentinel or by one of the provider's policy markers in its message.
func IsAccessDenied(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrAccessDenied) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, m := range accessDeniedMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// mapError converts a gRPC failure into one of the package sentinels,
// keeping the provider's message so marker checks still work.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return fmt.Errorf("%w: %v", ErrNetwork, err)
		}
		return fmt.Errorf("%w: %v", ErrOther, err)
	}

	var kind error
	switch st.Code() {
	case codes.Unauthenticated:
		kind = ErrAuthRejected
	case codes.Unavailable, codes.DeadlineExceeded, codes.Canceled:
		kind = ErrNetwork
	case codes.PermissionDenied:
		kind = ErrAccessDenied
	case codes.NotFound:
		kind = ErrNotFound
	default:
		kind = ErrOther
	}
	return fmt.Errorf("%w: %s", kind, st.Message())
}

// mapAuthError is mapError for the auth service, where a malformed request
// (bad email, weak password) is a rejection of the credentials.
func mapAuthError(err error) error {
	if st, ok := status.FromError(err); ok && st.Code() == codes.InvalidArgument {
		return fmt.Errorf("%w: %s", ErrAuthRejected, st.Message())
	}
	return mapError(err)
}
