package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Message struct {
	To      []string
	ReplyTo string
	Subject string
	HTML    string
}

// Sink delivers a message. Implementations must respect ctx or their own timeout.
type Sink interface {
	Send(ctx context.Context, msg Message) error
}

// ResendSink posts messages to the Resend e-mail API.
type ResendSink struct {
	apiKey  string
	url     string
	from    string
	to      []string
	timeout time.Duration
}

func NewResendSink(apiKey, url, from, to string, timeout time.Duration) *ResendSink {
	var recipients []string
	for _, addr := range strings.Split(to, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			recipients = append(recipients, addr)
		}
	}
	return &ResendSink{apiKey: apiKey, url: url, from: from, to: recipients, timeout: timeout}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

func (s *ResendSink) Send(ctx context.Context, msg Message) error {
	to := msg.To
	if len(to) == 0 {
		to = s.to
	}
	if len(to) == 0 {
		return fmt.Errorf("no recipients for %q", msg.Subject)
	}

	timeout := s.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout || timeout == 0 {
			timeout = left
		}
	}
	if timeout <= 0 {
		return context.DeadlineExceeded
	}

	agent := fiber.Post(s.url)
	agent.Set(fiber.HeaderAuthorization, "Bearer "+s.apiKey)
	agent.JSON(resendRequest{
		From:    s.from,
		To:      to,
		Subject: msg.Subject,
		HTML:    msg.HTML,
		ReplyTo: msg.ReplyTo,
	})
	agent.Timeout(timeout)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("send e-mail: %w", errs[0])
	}
	if code < 200 || code >= 300 {
		return fmt.Errorf("send e-mail: status %d: %s", code, body)
	}
	return nil
}

// LogSink writes messages to the log. Used when no e-mail API key is configured.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Send(ctx context.Context, msg Message) error {
	s.logger.Info("notification",
		zap.Strings("to", msg.To),
		zap.String("reply_to", msg.ReplyTo),
		zap.String("subject", msg.Subject))
	return nil
}
