package entity

import "time"

// Challenge is the live passcode record of one identity.
//
// CodeHash is the keyed digest of the code; the plain code only exists in the
// outgoing message. Ref is the opaque reference carried by the session token.
type Challenge struct {
	Identity          string
	CodeHash          string
	Ref               string
	AttemptsRemaining int
	CreatedAt         time.Time
}

// Expired reports whether the challenge is older than ttl at now.
func (c Challenge) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(c.CreatedAt) > ttl
}
