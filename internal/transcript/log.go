package transcript

import (
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Kind identifies who produced a transcript entry.
type Kind string

const (
	KindUser      Kind = "user"
	KindAssistant Kind = "assistant"
	KindNotice    Kind = "notice"
)

// Entry is one immutable line of the conversation.
type Entry struct {
	ID   uuid.UUID `json:"id"`
	Kind Kind      `json:"kind"`
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

// Log is an append-only, arrival-ordered conversation history. It is safe for
// concurrent use.
type Log struct {
	mu      sync.RWMutex
	entries []Entry
	now     func() time.Time
}

func NewLog() *Log {
	return &Log{now: time.Now}
}

// Append records a new entry and returns it.
func (l *Log) Append(kind Kind, text string) Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e := Entry{
		ID:   uuid.New(),
		Kind: kind,
		Text: text,
		At:   l.now().UTC(),
	}
	l.entries = append(l.entries, e)
	return e
}

// Len returns the number of entries appended so far.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// All yields the entries present when All was called, oldest first. The
// sequence can be ranged over any number of times.
func (l *Log) All() iter.Seq[Entry] {
	l.mu.RLock()
	snapshot := l.entries[:len(l.entries):len(l.entries)]
	l.mu.RUnlock()

	return func(yield func(Entry) bool) {
		for _, e := range snapshot {
			if !yield(e) {
				return
			}
		}
	}
}

// Since yields entries appended after the first n, oldest first.
func (l *Log) Since(n int) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		i := 0
		for e := range l.All() {
			if i >= n && !yield(e) {
				return
			}
			i++
		}
	}
}
