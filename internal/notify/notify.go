// Package notify tells matched groups when and where they meet.
package notify

import (
	"context"
	"log/slog"

	"github.com/pkordes/nightspot/internal/domain"
)

// LogNotifier records the notification instead of delivering it.
// It is used when no mail relay is configured.
type LogNotifier struct {
	log *slog.Logger
}

// NewLogNotifier returns a LogNotifier writing to log (slog.Default if nil).
func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

// Notify logs the venue, meeting time and recipients at info level.
func (n *LogNotifier) Notify(ctx context.Context, group []domain.WaitingUser, meetingTime string, venue domain.Venue) error {
	n.log.InfoContext(ctx, "group notification (not delivered, no mail relay configured)",
		"meeting_time", meetingTime,
		"venue", venue.Name,
		"recipients", recipients(group),
	)
	return nil
}

func recipients(group []domain.WaitingUser) []string {
	out := make([]string, len(group))
	for i, u := range group {
		out[i] = u.Email
	}
	return out
}
