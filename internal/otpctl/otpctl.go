// Package otpctl implements a small client for the passcode HTTP API.
package otpctl

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
)

// Build information, set via ldflags.
var Version = "dev"

// ErrRequestFailed is returned when the server answers with a non-2xx status.
var ErrRequestFailed = errors.New("request failed")

const maxResponseBytes = 1 << 20

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "otpctl",
		Usage:   "Send and verify one-time passcodes against a GoPasscode server",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Aliases: []string{"s"},
				Usage:   "GoPasscode base URL",
				EnvVars: []string{"OTPCTL_SERVER"},
				Value:   "http://localhost:8080",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Request timeout",
				Value: 15 * time.Second,
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "send",
				Usage: "Request a passcode for an identity",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "identity", Aliases: []string{"i"}, Usage: "Email or E.164 phone number", Required: true},
				},
				Action: func(c *cli.Context) error {
					return post(c, "/send_otp", map[string]string{
						"identity": c.String("identity"),
					})
				},
			},
			{
				Name:  "verify",
				Usage: "Verify a passcode with the token returned by send",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "identity", Aliases: []string{"i"}, Usage: "Email or E.164 phone number", Required: true},
					&cli.StringFlag{Name: "code", Aliases: []string{"c"}, Usage: "Passcode received", Required: true},
					&cli.StringFlag{Name: "token", Aliases: []string{"t"}, Usage: "Session token from send", Required: true},
				},
				Action: func(c *cli.Context) error {
					return post(c, "/verify_otp", map[string]string{
						"identity": c.String("identity"),
						"code":     c.String("code"),
						"token":    c.String("token"),
					})
				},
			},
		},
	}
}

// post sends payload as JSON and prints the indented response body.
func post(c *cli.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	url := strings.TrimRight(c.String("server"), "/") + path
	req, err := http.NewRequestWithContext(c.Context, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: c.Duration("timeout")}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		out.Reset()
		out.Write(raw)
	}
	fmt.Fprintln(c.App.Writer, out.String())

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s", ErrRequestFailed, resp.Status)
	}
	return nil
}
