package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/hcplog/internal/interaction"
)

const defaultPostMessageURL = "https://slack.com/api/chat.postMessage"

type Poster struct {
	token   string
	channel string
	client  *http.Client
	logger  *slog.Logger
	apiURL  string
}

func NewPoster(token, channel string, logger *slog.Logger) *Poster {
	return &Poster{
		token:   token,
		channel: channel,
		client:  &http.Client{Timeout: 10 * time.Second},
		apiURL:  defaultPostMessageURL,
		logger:  logger,
	}
}

// Summary is one reconciled round-trip as posted to the channel.
type Summary struct {
	SessionID     string
	InteractionID string
	Record        interaction.Record
	Changed       []interaction.Field
}

// PostInteractionSummary posts the reconciled record to the channel and
// returns the message timestamp.
func (p *Poster) PostInteractionSummary(ctx context.Context, s Summary) (string, error) {
	text := formatInteractionMessage(s)
	return p.post(ctx, map[string]any{
		"channel": p.channel,
		"text":    text,
		"blocks": []map[string]any{
			{
				"type": "section",
				"text": map[string]any{"type": "mrkdwn", "text": text},
			},
		},
	})
}

// PostFailure posts a short notice about a failed round-trip.
func (p *Poster) PostFailure(ctx context.Context, sessionID, msg string) (string, error) {
	return p.post(ctx, map[string]any{
		"channel": p.channel,
		"text":    fmt.Sprintf(":warning: *Extraction failed* (session %s)\n%s", sessionID, msg),
	})
}

func (p *Poster) post(ctx context.Context, payload map[string]any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("slack post: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var slackResp struct {
		OK    bool   `json:"ok"`
		TS    string `json:"ts"`
		Error string `json:"error,omitempty"`
	}
	if err := json.Unmarshal(respBody, &slackResp); err != nil {
		return "", fmt.Errorf("parse slack response: %w", err)
	}
	if !slackResp.OK {
		return "", fmt.Errorf("slack error: %s", slackResp.Error)
	}
	return slackResp.TS, nil
}

func formatInteractionMessage(s Summary) string {
	var sb strings.Builder
	rec, changed := s.Record, s.Changed

	fmt.Fprintf(&sb, "*Interaction logged* (session %s)\n", s.SessionID)

	line := func(label, v string) {
		if v != "" {
			fmt.Fprintf(&sb, "*%s:* %s\n", label, v)
		}
	}
	line("Interaction ID", s.InteractionID)
	line("HCP", rec.HCPName)
	line("Type", string(rec.InteractionType))
	when := strings.TrimSpace(rec.Date + " " + rec.Time)
	line("When", when)
	line("Attendees", rec.Attendees)
	line("Topics", rec.TopicsDiscussed)
	line("Materials", strings.Join(rec.MaterialsShared, ", "))
	line("Samples", strings.Join(rec.SamplesDistributed, ", "))
	line("Sentiment", string(rec.Sentiment))
	line("Outcomes", rec.Outcomes)
	line("Follow-up", rec.FollowUpDate)

	if len(changed) == 0 {
		sb.WriteString("_No fields changed in this turn._")
		return sb.String()
	}
	names := make([]string, len(changed))
	for i, f := range changed {
		names[i] = string(f)
	}
	fmt.Fprintf(&sb, "_Updated: %s_", strings.Join(names, ", "))
	return sb.String()
}
