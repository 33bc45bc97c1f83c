// Package main provides the entry point for otpctl.
package main

import (
	"fmt"
	"os"

	"github.com/shandysiswandi/gopasscode/internal/otpctl"
)

func main() {
	if err := otpctl.App().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
