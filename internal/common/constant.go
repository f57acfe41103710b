// Package common contains shared constants, sentinel errors, and small
// helpers used across SessionKeeper components.
package common

// RefreshTokenHeaderName is the HTTP header carrying the opaque refresh token
// on POST /auth/refresh requests; the request body stays empty.
const RefreshTokenHeaderName = "X-Refresh-Token"
