package mail

import (
	"context"
	"net"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type received struct {
	from string
	rcpt []string
	data string
}

// fakeSMTP accepts a single session and reports what it received.
func fakeSMTP(t *testing.T, stall bool) (host string, port int, got <-chan received) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	ch := make(chan received, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		if stall {
			time.Sleep(2 * time.Second)
			return
		}

		tp := textproto.NewConn(conn)
		var r received
		_ = tp.PrintfLine("220 fake ESMTP")
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			cmd := strings.ToUpper(line)
			switch {
			case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
				_ = tp.PrintfLine("250 fake")
			case strings.HasPrefix(cmd, "MAIL FROM:"):
				r.from = line[len("MAIL FROM:"):]
				_ = tp.PrintfLine("250 OK")
			case strings.HasPrefix(cmd, "RCPT TO:"):
				r.rcpt = append(r.rcpt, line[len("RCPT TO:"):])
				_ = tp.PrintfLine("250 OK")
			case cmd == "DATA":
				_ = tp.PrintfLine("354 go ahead")
				lines, err := tp.ReadDotLines()
				if err != nil {
					return
				}
				r.data = strings.Join(lines, "\n")
				_ = tp.PrintfLine("250 queued")
			case cmd == "QUIT":
				_ = tp.PrintfLine("221 bye")
				ch <- r
				return
			default:
				_ = tp.PrintfLine("502 unknown")
			}
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return addr.IP.String(), addr.Port, ch
}

func TestSMTP_Send(t *testing.T) {
	host, port, got := fakeSMTP(t, false)

	s, err := NewSMTP(SMTPConfig{Host: host, Port: port, From: "noreply@example.com"})
	require.NoError(t, err)

	err = s.Send(context.Background(), Message{
		To:       []string{"a@example.com"},
		Subject:  "Your OTP Code",
		TextBody: "Your OTP is 123456",
	})
	require.NoError(t, err)

	r := <-got
	assert.Equal(t, "<noreply@example.com>", r.from)
	assert.Equal(t, []string{"<a@example.com>"}, r.rcpt)
	assert.Contains(t, r.data, "Subject: Your OTP Code")
	assert.Contains(t, r.data, "Your OTP is 123456")
}

func TestSMTP_Send_RespectsDeadline(t *testing.T) {
	host, port, _ := fakeSMTP(t, true)

	s, err := NewSMTP(SMTPConfig{Host: host, Port: port, From: "noreply@example.com"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	err = s.Send(ctx, Message{To: []string{"a@example.com"}, TextBody: "x"})
	require.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSMTP_Send_Validation(t *testing.T) {
	_, err := NewSMTP(SMTPConfig{})
	require.ErrorIs(t, err, ErrSMTPHostPortRequired)

	s, err := NewSMTP(SMTPConfig{Host: "127.0.0.1", Port: 1})
	require.NoError(t, err)

	assert.ErrorIs(t, s.Send(context.Background(), Message{}), ErrSMTPNoRecipients)
	assert.ErrorIs(t, s.Send(context.Background(), Message{To: []string{"a@example.com"}}), ErrSMTPNoSender)
	assert.ErrorIs(t, s.Send(context.Background(), Message{
		From:    "x@example.com",
		To:      []string{"a@example.com"},
		Subject: "hi\r\nBcc: victim@example.com",
	}), ErrSMTPHeaderInjection)
}

func TestBuildBody_Multipart(t *testing.T) {
	body, ct := buildBody(Message{TextBody: "t", HTMLBody: "<b>h</b>"})
	assert.True(t, strings.HasPrefix(ct, "multipart/alternative; boundary=gopasscode-boundary-"))
	assert.Contains(t, body, "<b>h</b>")
}
