// Package common contains shared constants and the error taxonomy used across
// the account service layers.
package common

const (
	// AuthorizationHeader carries the access token as "Bearer <token>".
	AuthorizationHeader = "Authorization"

	// BearerPrefix is the scheme prefix expected in AuthorizationHeader.
	BearerPrefix = "Bearer "

	// AdminKeyHeader carries the operator key required by the admin routes.
	AdminKeyHeader = "X-Admin-Key"
)
