package inbound

import (
	"github.com/shandysiswandi/gopasscode/internal/passcode/usecase"
	"github.com/shandysiswandi/gopasscode/internal/pkg/router"
)

// HTTPEndpoint exposes the passcode issue and verify handlers.
type HTTPEndpoint struct {
	uc uc
}

// Send issues a one-time passcode to an identity.
// @Summary Send OTP
// @Description Generates a passcode, delivers it to the email or phone identity and returns a session token bound to it.
// @Tags Passcode
// @Accept json
// @Produce json
// @Param request body SendRequest true "Send payload"
// @Success 200 {object} router.successResponse{data=SendResponse} "OTP sent"
// @Failure 400 {object} router.errorResponse "Invalid request body or identity"
// @Failure 429 {object} router.errorResponse "Resend cooldown active"
// @Failure 500 {object} router.errorResponse "Delivery failed"
// @Failure 503 {object} router.errorResponse "Challenge store unavailable"
// @Router /send_otp [post]
func (h *HTTPEndpoint) Send(r *router.Request) (any, error) {
	var req SendRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Issue(r.Context(), usecase.IssueInput{Identity: req.Identity})
	if err != nil {
		return nil, err
	}

	return SendResponse{Token: resp.Token, ExpiresIn: resp.ExpiresIn}, nil
}

// Verify checks a passcode against the session token issued by Send.
// @Summary Verify OTP
// @Description Validates the session token and code. On success the challenge is consumed and the user is resolved.
// @Tags Passcode
// @Accept json
// @Produce json
// @Param request body VerifyRequest true "Verify payload"
// @Success 200 {object} router.successResponse{data=VerifyResponse} "Verified"
// @Failure 400 {object} router.errorResponse "Invalid or expired token, challenge or code"
// @Failure 403 {object} router.errorResponse "Attempts exhausted"
// @Failure 503 {object} router.errorResponse "Challenge store unavailable"
// @Router /verify_otp [post]
func (h *HTTPEndpoint) Verify(r *router.Request) (any, error) {
	var req VerifyRequest
	if err := r.DecodeBody(&req); err != nil {
		return nil, err
	}

	resp, err := h.uc.Verify(r.Context(), usecase.VerifyInput{
		Identity: req.Identity,
		Code:     req.Code,
		Token:    req.Token,
	})
	if err != nil {
		return nil, err
	}

	return VerifyResponse{UserID: resp.UserID, IsNewUser: resp.IsNewUser}, nil
}
