// Package client contains the client-side gateway to the SessionKeeper
// backend.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface) covering
//     login, register, logout, current-user fetch, refresh-token rotation,
//     and the password-reset flow.
//  2. A concrete HTTP/JSON implementation (see HTTPClient) that attaches the
//     bearer access token from a TokenSource and maps failures at the
//     transport boundary.
//  3. Local persistence bootstrap utilities (InitDatabase, RunMigrations)
//     wiring an SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Transport-level failures and 5xx responses surface as *NetworkError with a
// categorized Kind (timeout, bad_response, cancelled, connection,
// certificate, unknown). Domain rejections (4xx) surface as *SessionError
// carrying the server's message. Match both with errors.As.
//
// Concurrency & Contexts
//
// All operations accept context.Context and must honor
// cancellation/timeouts.
package client
