// Package common contains constants and small helpers shared by the client
// packages.
package common

// AccessTokenHeaderName is the gRPC metadata key carrying the bearer access
// token on outbound requests.
const AccessTokenHeaderName = "authorization"

// RequestIDHeaderName is the gRPC metadata key carrying a per-call request id.
const RequestIDHeaderName = "x-request-id"

// UsernamePrefix and UsernameIDLength shape placeholder usernames derived from
// a user id: "user_" followed by the first eight characters of the id.
const (
	UsernamePrefix   = "user_"
	UsernameIDLength = 8
)
