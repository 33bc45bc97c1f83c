// Package mail sends email messages over SMTP.
//
// Callers work with the Mail interface and the Message payload so the
// delivery mechanism can be swapped or faked in tests.
package mail
