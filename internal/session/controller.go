package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/hcplog/internal/extraction"
	"github.com/MikeSquared-Agency/hcplog/internal/interaction"
	"github.com/MikeSquared-Agency/hcplog/internal/transcript"
)

// Extractor is the external extraction service.
type Extractor interface {
	Chat(ctx context.Context, text string) (*extraction.Response, error)
}

// Notifier hears about each finished round-trip after the state transition.
type Notifier interface {
	RoundTripSucceeded(o Outcome)
	RoundTripFailed(o Outcome)
}

// Notifiers fans each outcome out to every notifier in order.
type Notifiers []Notifier

func (ns Notifiers) RoundTripSucceeded(o Outcome) {
	for _, n := range ns {
		n.RoundTripSucceeded(o)
	}
}

func (ns Notifiers) RoundTripFailed(o Outcome) {
	for _, n := range ns {
		n.RoundTripFailed(o)
	}
}

// Outcome describes one finished round-trip.
type Outcome struct {
	SessionID uuid.UUID
	Text      string
	Reply     string
	Changed   []interaction.Field
	Record    interaction.Record
	Error     string
	Duration  time.Duration

	// InteractionID is the service's identifier for the logged interaction,
	// when it returned one.
	InteractionID string
}

type Options struct {
	// Timeout bounds each extraction call. Zero means the call may stay
	// pending for as long as the extractor takes.
	Timeout time.Duration

	// DebugTranscript adds a notice with the raw extraction payload after
	// every successful round-trip.
	DebugTranscript bool

	// Greeting is seeded into the transcript as a notice. Empty disables it.
	Greeting string

	Notifier Notifier
}

const defaultReply = "Interaction details updated."

// Controller owns one session: the interaction record, its transcript and the
// state of the single in-flight round-trip.
type Controller struct {
	id         uuid.UUID
	extractor  Extractor
	opts       Options
	logger     *slog.Logger
	transcript *transcript.Log

	mu     sync.Mutex
	record interaction.Record
	state  RequestState

	// notified closes once the latest outcome has reached the notifier.
	notified chan struct{}
}

func New(ext Extractor, opts Options, logger *slog.Logger) *Controller {
	id := uuid.New()
	c := &Controller{
		id:         id,
		extractor:  ext,
		opts:       opts,
		logger:     logger.With("session_id", id.String()),
		transcript: transcript.NewLog(),
		record:     interaction.NewRecord(),
		state:      RequestState{Phase: PhaseIdle},
	}
	if opts.Greeting != "" {
		c.transcript.Append(transcript.KindNotice, opts.Greeting)
	}
	return c
}

func (c *Controller) ID() uuid.UUID { return c.id }

// Submit runs one round-trip for the user's text and returns once it has
// finished. It returns false without doing anything when the trimmed text is
// empty or another round-trip is pending. Failures of the round-trip itself
// are recorded in the transcript and state, never returned.
func (c *Controller) Submit(ctx context.Context, text string) (bool, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return false, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	c.mu.Lock()
	if c.state.Phase == PhasePending {
		c.mu.Unlock()
		c.logger.Debug("submit ignored, round-trip pending")
		return false, nil
	}
	c.state = RequestState{Phase: PhasePending}
	c.transcript.Append(transcript.KindUser, text)
	c.mu.Unlock()

	c.logger.Info("round-trip started", "text_len", len(text))

	callCtx := ctx
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := c.extractor.Chat(callCtx, text)
	elapsed := time.Since(start)

	c.mu.Lock()
	var o Outcome
	if err != nil {
		o = c.failLocked(err)
	} else {
		o = c.succeedLocked(resp)
	}
	o.SessionID = c.id
	o.Text = text
	o.Duration = elapsed
	c.notifyLocked(o, err == nil)
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("round-trip failed", "error", err, "duration_ms", elapsed.Milliseconds())
		return true, nil
	}

	c.logger.Info("round-trip succeeded",
		"changed", o.Changed,
		"duration_ms", elapsed.Milliseconds(),
	)
	return true, nil
}

// notifyLocked hands o to the notifier on its own goroutine so Submit does not
// wait on slow sinks. Outcomes are delivered in the order they happened.
func (c *Controller) notifyLocked(o Outcome, ok bool) {
	n := c.opts.Notifier
	if n == nil {
		return
	}
	prev := c.notified
	done := make(chan struct{})
	c.notified = done

	go func() {
		defer close(done)
		if prev != nil {
			<-prev
		}
		if ok {
			n.RoundTripSucceeded(o)
		} else {
			n.RoundTripFailed(o)
		}
	}()
}

// Flush waits until every outcome so far has been delivered to the notifier,
// or until ctx is done.
func (c *Controller) Flush(ctx context.Context) error {
	c.mu.Lock()
	last := c.notified
	c.mu.Unlock()
	if last == nil {
		return nil
	}
	select {
	case <-last:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) failLocked(err error) Outcome {
	msg := describe(err)
	c.transcript.Append(transcript.KindNotice, "Failed to call server: "+msg)
	c.state = RequestState{Phase: PhaseFailed, ErrorMessage: msg}
	return Outcome{Error: msg, Record: c.record.Clone()}
}

func (c *Controller) succeedLocked(resp *extraction.Response) Outcome {
	reply := strings.TrimSpace(resp.Message)
	if reply == "" {
		reply = defaultReply
	}
	c.transcript.Append(transcript.KindAssistant, reply)

	if c.opts.DebugTranscript {
		c.transcript.Append(transcript.KindNotice, "DEBUG extracted: "+compact(resp.Data))
	}

	fields := interaction.Normalize(interaction.Decode(resp.Data))
	changed := interaction.Reconcile(&c.record, fields)
	c.state = RequestState{Phase: PhaseSucceeded}

	return Outcome{
		Reply:         reply,
		InteractionID: resp.InteractionID,
		Changed:       changed,
		Record:        c.record.Clone(),
	}
}

// describe turns a round-trip error into the message shown to the user.
func describe(err error) string {
	var se *extraction.StatusError
	switch {
	case errors.As(err, &se):
		return se.Error()
	case errors.Is(err, extraction.ErrMissingData):
		return "Malformed response: no extraction data"
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out"
	case errors.Is(err, context.Canceled):
		return "Request cancelled"
	}
	return fmt.Sprintf("Network error: %v", err)
}

func compact(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "null"
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

// State returns the current request state without consuming it.
func (c *Controller) State() RequestState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Observe returns the current request state. A succeeded or failed state is
// delivered once and then reverts to idle; the error message stays until the
// next submit.
func (c *Controller) Observe() RequestState {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	if s.terminal() {
		c.state.Phase = PhaseIdle
	}
	return s
}

// Record returns a copy of the current interaction record.
func (c *Controller) Record() interaction.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.record.Clone()
}

// Edit applies a direct user change to the record.
func (c *Controller) Edit(e interaction.Edit) (interaction.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record.Apply(e); err != nil {
		return c.record.Clone(), fmt.Errorf("apply edit: %w", err)
	}
	c.logger.Debug("record edited")
	return c.record.Clone(), nil
}

// Transcript yields the conversation so far, oldest first.
func (c *Controller) Transcript() iter.Seq[transcript.Entry] {
	return c.transcript.All()
}

// TranscriptSince yields the entries after the first n, for clients that
// already hold a prefix of the conversation.
func (c *Controller) TranscriptSince(n int) iter.Seq[transcript.Entry] {
	return c.transcript.Since(n)
}

// TranscriptLen returns the number of transcript entries.
func (c *Controller) TranscriptLen() int {
	return c.transcript.Len()
}
