// AngelaMos | 2026
// sender.go

package verification

import (
	"context"
	"log/slog"
)

// LogSender is the development delivery path: it writes the code to the log
// instead of sending mail. Production wires a real mailer behind Sender.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, email, code string) error {
	s.logger.InfoContext(ctx, "verification code issued",
		"email", email,
		"code", code,
	)
	return nil
}
