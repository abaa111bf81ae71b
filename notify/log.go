package notify

import (
	"context"

	"device-lending-api/logger"
)

// LogNotifier stands in when no SENDGRID_API_KEY is configured: every message
// is written to the log and reported as delivered.
type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log.With("client", "lognotifier")}
}

func (n *LogNotifier) Send(_ context.Context, msg Message) error {
	n.log.Info("mail suppressed (no sendgrid key)",
		"event", string(msg.Event),
		"to", msg.To,
		"subject", msg.Subject,
	)
	return nil
}
