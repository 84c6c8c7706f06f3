// Package client contains the client side of the remote auth and profile
// services.
//
// # Overview
//
// The package provides:
//  1. Transport-agnostic contracts: AuthClient (sessions, sign-in/up/out and
//     the push channel of session changes) and ProfileClient (keyed profile
//     records).
//  2. A gRPC implementation, GRPCClient, that keeps the current session in
//     memory and in an optional SessionCache, injects the access token on
//     every call, refreshes an expired session when it is read, and follows
//     the provider's WatchSession stream.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) wiring an
//     SQLite database with embedded goose migrations.
//
// # Error Handling
//
// Remote failures are mapped to sentinels matched with errors.Is:
// ErrAuthRejected, ErrNetwork, ErrAccessDenied, ErrNotFound, ErrOther.
// IsAccessDenied additionally recognises policy rejections by message.
//
// Concurrency & Contexts
//
// GRPCClient is safe for concurrent use. Every remote call is bounded by the
// configured call timeout; an expired call is reported as ErrNetwork.
// Session change events are delivered to handlers one at a time, in order.
package client
