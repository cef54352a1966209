package hermes

import (
	"log/slog"
	"time"

	"github.com/MikeSquared-Agency/hcplog/internal/interaction"
	"github.com/MikeSquared-Agency/hcplog/internal/session"
)

const (
	SubjectReconciled = "interaction.reconciled"
	SubjectFailed     = "interaction.failed"
)

// ReconciledEvent is published after a round-trip changed (or confirmed) the
// session record.
type ReconciledEvent struct {
	SessionID     string             `json:"session_id"`
	InteractionID string             `json:"interaction_id,omitempty"`
	Timestamp     string             `json:"timestamp"`
	Changed       []string           `json:"changed"`
	Record        interaction.Record `json:"record"`
	DurationMS    int64              `json:"duration_ms"`
}

// FailedEvent is published when a round-trip ends in failure.
type FailedEvent struct {
	SessionID  string `json:"session_id"`
	Timestamp  string `json:"timestamp"`
	Error      string `json:"error"`
	DurationMS int64  `json:"duration_ms"`
}

// Publisher is the part of Client the notifier needs.
type Publisher interface {
	Publish(name string, data any) error
}

// Notifier forwards session round-trip outcomes to NATS.
type Notifier struct {
	pub    Publisher
	logger *slog.Logger
	now    func() time.Time
}

var _ session.Notifier = (*Notifier)(nil)

func NewNotifier(pub Publisher, logger *slog.Logger) *Notifier {
	return &Notifier{pub: pub, logger: logger, now: time.Now}
}

func (n *Notifier) RoundTripSucceeded(o session.Outcome) {
	changed := make([]string, len(o.Changed))
	for i, f := range o.Changed {
		changed[i] = string(f)
	}
	evt := ReconciledEvent{
		SessionID:     o.SessionID.String(),
		InteractionID: o.InteractionID,
		Timestamp:     n.now().UTC().Format(time.RFC3339),
		Changed:       changed,
		Record:        o.Record,
		DurationMS:    o.Duration.Milliseconds(),
	}
	if err := n.pub.Publish(SubjectReconciled, evt); err != nil {
		n.logger.Warn("failed to publish reconciled event", "error", err, "session_id", evt.SessionID)
	}
}

func (n *Notifier) RoundTripFailed(o session.Outcome) {
	evt := FailedEvent{
		SessionID:  o.SessionID.String(),
		Timestamp:  n.now().UTC().Format(time.RFC3339),
		Error:      o.Error,
		DurationMS: o.Duration.Milliseconds(),
	}
	if err := n.pub.Publish(SubjectFailed, evt); err != nil {
		n.logger.Warn("failed to publish failure event", "error", err, "session_id", evt.SessionID)
	}
}
