// Package hash provides keyed digests for short-lived secrets.
//
// One-time codes are stored only as an HMAC digest, so a dump of the cache
// does not reveal live codes. Verification is constant time.
package hash
