// Package common contains shared constants and sentinel errors used across
// gophauth components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on inbound and outbound requests.
const AccessTokenHeaderName = "access_token"

// AuthorizationHeaderName is the standard bearer header, accepted as a
// fallback by both transports.
const AuthorizationHeaderName = "authorization"
