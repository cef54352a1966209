package transcript

import (
	"slices"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func kinds(seq func(func(Entry) bool)) []Kind {
	var out []Kind
	for e := range seq {
		out = append(out, e.Kind)
	}
	return out
}

func TestLog_AppendOrder(t *testing.T) {
	l := NewLog()
	l.Append(KindUser, "Met Dr. Smith")
	l.Append(KindAssistant, "Logged.")
	l.Append(KindNotice, "Failed to call server.")

	assert.Equal(t, []Kind{KindUser, KindAssistant, KindNotice}, kinds(l.All()))
	assert.Equal(t, 3, l.Len())
}

func TestLog_AllIsRestartable(t *testing.T) {
	l := NewLog()
	l.Append(KindUser, "a")
	l.Append(KindAssistant, "b")

	seq := l.All()
	first := slices.Collect(seq)
	second := slices.Collect(seq)

	require.Len(t, first, 2)
	assert.Equal(t, first, second)
}

func TestLog_AllIsSnapshot(t *testing.T) {
	l := NewLog()
	l.Append(KindUser, "a")

	seq := l.All()
	l.Append(KindAssistant, "b")

	assert.Len(t, slices.Collect(seq), 1)
	assert.Len(t, slices.Collect(l.All()), 2)
}

func TestLog_EarlyBreak(t *testing.T) {
	l := NewLog()
	for range 5 {
		l.Append(KindUser, "x")
	}

	n := 0
	for range l.All() {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestLog_Since(t *testing.T) {
	l := NewLog()
	l.Append(KindNotice, "hello")
	mark := l.Len()
	l.Append(KindUser, "a")
	l.Append(KindAssistant, "b")

	assert.Equal(t, []Kind{KindUser, KindAssistant}, kinds(l.Since(mark)))
	assert.Empty(t, kinds(l.Since(10)))
}

func TestLog_EntriesAreDistinct(t *testing.T) {
	l := NewLog()
	a := l.Append(KindUser, "same")
	b := l.Append(KindUser, "same")

	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.At.IsZero())
}

func TestLog_ConcurrentAppend(t *testing.T) {
	l := NewLog()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Append(KindUser, "x")
			_ = slices.Collect(l.All())
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, l.Len())
}
