package inbound

import (
	"context"

	"github.com/shandysiswandi/gopasscode/internal/passcode/usecase"
	"github.com/shandysiswandi/gopasscode/internal/pkg/router"
)

type uc interface {
	Issue(ctx context.Context, in usecase.IssueInput) (*usecase.IssueOutput, error)
	Verify(ctx context.Context, in usecase.VerifyInput) (*usecase.VerifyOutput, error)
}

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/send_otp", end.Send)
	r.POST("/verify_otp", end.Verify)
	//
	r.POST("/api/v1/passcode/send", end.Send)
	r.POST("/api/v1/passcode/verify", end.Verify)
}
