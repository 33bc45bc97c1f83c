// Package otp generates one-time numeric passcodes.
//
// Codes are drawn uniformly from a cryptographically secure source over the
// range of numbers that have exactly the configured number of digits
// (100000-999999 for six digits).
package otp
