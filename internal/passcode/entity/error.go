package entity

import (
	"errors"

	"github.com/shandysiswandi/gopasscode/internal/pkg/goerror"
)

// Outcomes returned to callers of Issue and Verify. The transport maps the
// code of each to a status; InvalidCode carries attempts_remaining in its meta.
var (
	ErrSessionInvalid    = goerror.NewBusiness("Invalid OTP session", goerror.CodeInvalidToken)
	ErrSessionExpired    = goerror.NewBusiness("OTP session expired", goerror.CodeExpired)
	ErrChallengeNotFound = goerror.NewBusiness("OTP expired or invalid", goerror.CodeNotFound)
	ErrChallengeExpired  = goerror.NewBusiness("OTP expired. Request a new OTP.", goerror.CodeExpired)
	ErrCodeInvalid       = goerror.NewBusiness("Invalid OTP", goerror.CodeInvalidCode)
	ErrAttemptsExhausted = goerror.NewBusiness("Too many failed attempts. Request a new OTP.", goerror.CodeExhausted)
	ErrDeliveryFailed    = goerror.NewBusiness("Failed to send OTP. Please try again.", goerror.CodeDeliveryFailed)
	ErrResendTooSoon     = goerror.NewBusiness("Please wait before requesting a new OTP.", goerror.CodeTooManyRequest)
)

// Errors reported by a delegated verification provider.
var (
	ErrProviderCodeInvalid      = errors.New("passcode: provider rejected the code")
	ErrProviderSessionExpired   = errors.New("passcode: provider session expired")
	ErrProviderTooManyAttempts  = errors.New("passcode: provider attempt limit reached")
	ErrProviderIdentityRejected = errors.New("passcode: provider rejected the identity")
)
