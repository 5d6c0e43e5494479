// Package common contains shared constants and sentinel errors used across
// travelbuddy components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// ServiceName is used as the logger and health-check service name.
const ServiceName = "travelbuddy"
