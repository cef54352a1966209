package slack

import (
	"context"
	"log/slog"
	"time"

	"github.com/MikeSquared-Agency/hcplog/internal/session"
)

const postTimeout = 10 * time.Second

// Notifier posts session round-trip outcomes to a Slack channel. Turns that
// changed nothing are not posted.
type Notifier struct {
	poster *Poster
	logger *slog.Logger
}

var _ session.Notifier = (*Notifier)(nil)

func NewNotifier(poster *Poster, logger *slog.Logger) *Notifier {
	return &Notifier{poster: poster, logger: logger}
}

func (n *Notifier) RoundTripSucceeded(o session.Outcome) {
	if len(o.Changed) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), postTimeout)
	defer cancel()

	ts, err := n.poster.PostInteractionSummary(ctx, Summary{
		SessionID:     o.SessionID.String(),
		InteractionID: o.InteractionID,
		Record:        o.Record,
		Changed:       o.Changed,
	})
	if err != nil {
		n.logger.Warn("failed to post interaction to slack", "error", err, "session_id", o.SessionID)
		return
	}
	n.logger.Info("posted interaction to slack", "ts", ts, "session_id", o.SessionID)
}

func (n *Notifier) RoundTripFailed(o session.Outcome) {
	ctx, cancel := context.WithTimeout(context.Background(), postTimeout)
	defer cancel()

	if _, err := n.poster.PostFailure(ctx, o.SessionID.String(), o.Error); err != nil {
		n.logger.Warn("failed to post failure to slack", "error", err, "session_id", o.SessionID)
	}
}
