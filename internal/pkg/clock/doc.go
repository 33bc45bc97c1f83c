// Package clock provides a tiny time abstraction.
//
// Business code depends on Clocker instead of calling time.Now directly, so
// expiry windows can be exercised in tests with a Manual clock.
package clock
