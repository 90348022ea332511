package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedAsker blocks every Ask until release is closed or ctx ends.
type gatedAsker struct {
	answer  string
	err     error
	release chan struct{}
	asked   chan string
}

func newGatedAsker(answer string, err error) *gatedAsker {
	return &gatedAsker{answer: answer, err: err, release: make(chan struct{}), asked: make(chan string, 8)}
}

func (a *gatedAsker) Ask(ctx context.Context, question string) (string, error) {
	a.asked <- question
	select {
	case <-a.release:
		return a.answer, a.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

type staticAsker struct {
	answer string
	err    error
}

func (a staticAsker) Ask(ctx context.Context, question string) (string, error) {
	return a.answer, a.err
}

func sequentialIDs() func() string {
	var n int
	return func() string {
		n++
		return fmt.Sprintf("m%d", n)
	}
}

func newTestEngine(asker Asker, opts ...Option) *Engine {
	opts = append([]Option{WithTick(time.Millisecond), WithIDGenerator(sequentialIDs())}, opts...)
	return New(asker, opts...)
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("submission did not finish")
	}
}

func submit(t *testing.T, e *Engine, input string) <-chan struct{} {
	t.Helper()
	require.True(t, e.SetInput(input))
	done, err := e.Submit(context.Background())
	require.NoError(t, err)
	return done
}

func TestFirstSubmissionLifecycle(t *testing.T) {
	asker := newGatedAsker("Hi there, how can I help?", nil)
	e := newTestEngine(asker)
	defer e.Close()

	done := submit(t, e, "  Hello ")
	assert.Equal(t, "", e.Input())
	assert.Equal(t, []Message{
		{ID: "m1", Role: RoleUser, Content: "Hello"},
		{ID: "m2", Role: RoleSystem},
	}, e.Messages())
	assert.Equal(t, State{Phase: PhaseAwaitingAnswer, PlaceholderID: "m2"}, e.State())
	assert.True(t, e.ShouldAnimate("m2"))
	assert.False(t, e.ShouldAnimate("m1"))
	assert.Equal(t, "Hello", <-asker.asked)

	close(asker.release)
	waitDone(t, done)

	assert.Equal(t, []Message{
		{ID: "m1", Role: RoleUser, Content: "Hello"},
		{ID: "m2", Role: RoleSystem, Content: "Hi there, how can I help?", Completed: true},
	}, e.Messages())
	assert.Equal(t, State{Phase: PhaseIdle}, e.State())
	assert.Empty(t, e.Chunks())
	assert.False(t, e.ShouldAnimate("m2"))

	sections := e.Sections()
	require.Len(t, sections, 1)
	assert.False(t, sections[0].IsNewSection)
	assert.Equal(t, e.Messages(), sections[0].Messages)
}

func TestRevealEmitsChunksInOrder(t *testing.T) {
	const answer = "one two three four five"
	var (
		mu     sync.Mutex
		chunks []Chunk
		phases []Phase
	)
	e := newTestEngine(staticAsker{answer: answer}, WithListener(func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		switch ev.Kind {
		case EventChunk:
			chunks = append(chunks, ev.Chunk)
		case EventStateChanged:
			phases = append(phases, ev.State.Phase)
		}
	}))
	defer e.Close()

	waitDone(t, submit(t, e, "count"))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, chunks, 3)
	assert.Equal(t, answer, joinChunks(chunks))
	for i, c := range chunks {
		assert.Equal(t, i, c.ID)
		assert.LessOrEqual(t, len(strings.Fields(c.Text)), 2)
	}
	assert.Equal(t, []Phase{PhaseSubmitting, PhaseAwaitingAnswer, PhaseStreaming, PhaseIdle}, phases)
}

func TestRevealKeepsLineBreaks(t *testing.T) {
	const answer = "Steps:\n\n1. Open it\n2. Close it"
	var (
		mu     sync.Mutex
		chunks []Chunk
	)
	e := newTestEngine(staticAsker{answer: answer}, WithListener(func(ev Event) {
		if ev.Kind == EventChunk {
			mu.Lock()
			chunks = append(chunks, ev.Chunk)
			mu.Unlock()
		}
	}))
	defer e.Close()

	waitDone(t, submit(t, e, "how?"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, answer, joinChunks(chunks))
	assert.Len(t, chunks, 3)
	assert.Equal(t, answer, e.Messages()[1].Content)
}

func TestFailedAskRevealsFallback(t *testing.T) {
	for name, asker := range map[string]Asker{
		"error": staticAsker{err: errors.New("network down")},
		"empty": staticAsker{answer: "  "},
	} {
		t.Run(name, func(t *testing.T) {
			e := newTestEngine(asker)
			defer e.Close()

			waitDone(t, submit(t, e, "question"))

			msgs := e.Messages()
			require.Len(t, msgs, 2)
			assert.Equal(t, FallbackAnswer, msgs[1].Content)
			assert.True(t, msgs[1].Completed)
			assert.Equal(t, PhaseIdle, e.State().Phase)
		})
	}
}

func TestInputIsGatedWhileBusy(t *testing.T) {
	asker := newGatedAsker("answer", nil)
	e := newTestEngine(asker)
	defer e.Close()

	done := submit(t, e, "first")
	<-asker.asked

	assert.False(t, e.SetInput("second"))
	assert.Equal(t, "", e.Input())
	_, err := e.Submit(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
	assert.Len(t, e.Messages(), 2)

	close(asker.release)
	waitDone(t, done)
	assert.True(t, e.SetInput("second"))
}

func TestSubmitRejectsEmptyInput(t *testing.T) {
	e := newTestEngine(staticAsker{answer: "x"})
	defer e.Close()

	_, err := e.Submit(context.Background())
	assert.ErrorIs(t, err, ErrEmptyInput)

	require.True(t, e.SetInput(" \n\t "))
	_, err = e.Submit(context.Background())
	assert.ErrorIs(t, err, ErrEmptyInput)
	assert.Empty(t, e.Messages())
	assert.Equal(t, PhaseIdle, e.State().Phase)
}

func TestLaterSubmissionsOpenNewSections(t *testing.T) {
	e := newTestEngine(staticAsker{answer: "ok then"})
	defer e.Close()

	for _, q := range []string{"one", "two", "three"} {
		waitDone(t, submit(t, e, q))
	}

	msgs := e.Messages()
	require.Len(t, msgs, 6)
	assert.False(t, msgs[0].NewSection)
	assert.True(t, msgs[2].NewSection)
	assert.True(t, msgs[4].NewSection)
	for _, i := range []int{1, 3, 5} {
		assert.False(t, msgs[i].NewSection)
	}

	sections := e.Sections()
	assert.Equal(t, BuildSections(msgs), sections)
	assert.Equal(t, msgs, flatten(sections))
	require.Len(t, sections, 3)
	assert.True(t, sections[2].IsActive)
}

func TestHistorySeedsCompletedMessages(t *testing.T) {
	e := newTestEngine(staticAsker{answer: "fresh"}, WithHistory([]Turn{
		{Question: "q1", Answer: "a1"},
		{Question: "q2", Answer: "a2"},
	}))
	defer e.Close()

	msgs := e.Messages()
	require.Len(t, msgs, 4)
	for _, m := range msgs {
		assert.True(t, m.Completed)
		assert.False(t, e.ShouldAnimate(m.ID))
	}
	assert.False(t, msgs[0].NewSection)
	assert.True(t, msgs[2].NewSection)
	assert.Len(t, e.Sections(), 2)

	waitDone(t, submit(t, e, "q3"))
	msgs = e.Messages()
	require.Len(t, msgs, 6)
	assert.True(t, msgs[4].NewSection)
	assert.Equal(t, "fresh", msgs[5].Content)
}

func TestCloseCancelsInFlightAsk(t *testing.T) {
	asker := newGatedAsker("never", nil)
	e := newTestEngine(asker)

	done := submit(t, e, "hang")
	<-asker.asked

	e.Close()
	waitDone(t, done)

	msgs := e.Messages()
	require.Len(t, msgs, 2)
	assert.False(t, msgs[1].Completed)
	assert.Equal(t, PhaseIdle, e.State().Phase)

	assert.False(t, e.SetInput("again"))
	_, err := e.Submit(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCloseStopsReveal(t *testing.T) {
	started := make(chan struct{})
	var once sync.Once
	e := New(staticAsker{answer: strings.Repeat("word ", 100)},
		WithTick(time.Hour),
		WithListener(func(ev Event) {
			if ev.Kind == EventStateChanged && ev.State.Phase == PhaseStreaming {
				once.Do(func() { close(started) })
			}
		}))

	done := submit(t, e, "long")
	<-started
	e.Close()
	waitDone(t, done)

	assert.Empty(t, e.Chunks())
	assert.False(t, e.Messages()[1].Completed)
}

func TestAskContextBoundsOnlyTheFetch(t *testing.T) {
	asker := newGatedAsker("unused", nil)
	e := newTestEngine(asker)
	defer e.Close()

	ctx, cancel := context.WithCancel(context.Background())
	require.True(t, e.SetInput("slow"))
	done, err := e.Submit(ctx)
	require.NoError(t, err)
	<-asker.asked
	cancel()
	waitDone(t, done)

	msgs := e.Messages()
	assert.Equal(t, FallbackAnswer, msgs[1].Content)
	assert.True(t, msgs[1].Completed)
}

func TestPhaseString(t *testing.T) {
	assert.Equal(t, "idle", PhaseIdle.String())
	assert.Equal(t, "streaming", PhaseStreaming.String())
	assert.Equal(t, "unknown", Phase(42).String())
}
