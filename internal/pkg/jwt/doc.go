// Package jwt signs and verifies the short-lived session tokens that bind a
// passcode challenge to an identity between issue and verify.
//
// Tokens are HS512 JWTs. The subject carries the identity and the jti carries
// the opaque challenge reference. The passcode itself is never embedded.
package jwt
