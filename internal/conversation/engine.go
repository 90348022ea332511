package conversation

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrEmptyInput = errors.New("input is empty")
	ErrBusy       = errors.New("a submission is already in progress")
	ErrClosed     = errors.New("conversation is closed")
)

// Phase is the submission state of an engine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSubmitting
	PhaseAwaitingAnswer
	PhaseStreaming
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSubmitting:
		return "submitting"
	case PhaseAwaitingAnswer:
		return "awaiting_answer"
	case PhaseStreaming:
		return "streaming"
	default:
		return "unknown"
	}
}

// State is the single source of truth for what the engine is doing.
// PlaceholderID is set while awaiting or streaming an answer; Remaining holds
// the words not yet revealed while streaming.
type State struct {
	Phase         Phase
	PlaceholderID string
	Remaining     []string
}

// Asker produces the complete answer to a question.
type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

// Turn is a stored question/answer pair used to seed the log.
type Turn struct {
	Question string
	Answer   string
}

// EventKind tells a listener what changed.
type EventKind int

const (
	EventMessageAppended EventKind = iota
	EventChunk
	EventMessageCompleted
	EventStateChanged
)

// Event is delivered to the listener after the change is applied.
type Event struct {
	Kind    EventKind
	Message Message
	Chunk   Chunk
	State   State
}

// Option configures an Engine.
type Option func(*Engine)

// WithTick sets the delay between revealed chunks.
func WithTick(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.tick = d
		}
	}
}

// WithChunkSize sets how many words each chunk reveals.
func WithChunkSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.chunkSize = n
		}
	}
}

// WithListener registers fn to receive events. fn runs on the engine's
// worker goroutine and may call the engine's read methods, but not Close.
func WithListener(fn func(Event)) Option {
	return func(e *Engine) { e.listener = fn }
}

// WithIDGenerator replaces the message id source.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// WithHistory seeds the log with completed turns. Every turn after the first
// opens a new section.
func WithHistory(turns []Turn) Option {
	return func(e *Engine) { e.history = turns }
}

// Engine drives one conversation. It is safe for concurrent use.
type Engine struct {
	asker     Asker
	tick      time.Duration
	chunkSize int
	listener  func(Event)
	newID     func() string
	history   []Turn

	mu        sync.Mutex
	messages  []Message
	sections  sectionBuilder
	chunks    []Chunk
	completed map[string]struct{}
	input     string
	state     State
	closed    bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New returns an idle engine that sends questions to asker.
func New(asker Asker, opts ...Option) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		asker:     asker,
		tick:      DefaultTick,
		chunkSize: DefaultChunkSize,
		newID:     uuid.NewString,
		completed: make(map[string]struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(e)
	}
	for _, t := range e.history {
		e.appendLocked(Message{ID: e.newID(), Role: RoleUser, Content: t.Question, Completed: true, NewSection: len(e.messages) > 0})
		id := e.newID()
		e.appendLocked(Message{ID: id, Role: RoleSystem, Content: t.Answer, Completed: true})
		e.completed[id] = struct{}{}
	}
	e.history = nil
	return e
}

// SetInput replaces the pending input. It reports false, leaving the input
// untouched, unless the engine is idle.
func (e *Engine) SetInput(s string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || e.state.Phase != PhaseIdle {
		return false
	}
	e.input = s
	return true
}

// Submit sends the pending input. On return the user message and an empty
// answer placeholder are already in the log. The returned channel is closed
// once the answer is fully revealed, or the engine is closed.
// ctx bounds the call to the Asker only; the reveal runs until done or Close.
func (e *Engine) Submit(ctx context.Context) (<-chan struct{}, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrClosed
	}
	if e.state.Phase != PhaseIdle {
		e.mu.Unlock()
		return nil, ErrBusy
	}
	question := strings.TrimSpace(e.input)
	if question == "" {
		e.mu.Unlock()
		return nil, ErrEmptyInput
	}

	var events []Event
	userMsg := Message{ID: e.newID(), Role: RoleUser, Content: question, NewSection: len(e.messages) > 0}
	e.input = ""
	e.appendLocked(userMsg)
	e.state = State{Phase: PhaseSubmitting}
	events = append(events,
		Event{Kind: EventMessageAppended, Message: userMsg},
		Event{Kind: EventStateChanged, State: e.state})

	placeholder := Message{ID: e.newID(), Role: RoleSystem}
	e.appendLocked(placeholder)
	e.state = State{Phase: PhaseAwaitingAnswer, PlaceholderID: placeholder.ID}
	events = append(events,
		Event{Kind: EventMessageAppended, Message: placeholder},
		Event{Kind: EventStateChanged, State: e.state})

	done := make(chan struct{})
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		defer close(done)
		e.emit(events...)
		e.run(ctx, question, placeholder.ID)
	}()
	return done, nil
}

func (e *Engine) run(ctx context.Context, question, placeholderID string) {
	askCtx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(e.ctx, cancel)
	answer, err := e.asker.Ask(askCtx, question)
	stop()
	cancel()
	if err != nil {
		log.Printf("WARN [Conversation] ask failed, revealing fallback: %v", err)
	}
	answer = normalizeAnswer(answer, err)

	if !e.startStreaming(placeholderID, answer) {
		return
	}

	ticker := time.NewTicker(e.tick)
	defer ticker.Stop()
	for {
		select {
		case <-e.ctx.Done():
			e.abort()
			return
		case <-ticker.C:
			if finished := e.step(answer); finished {
				return
			}
		}
	}
}

func (e *Engine) startStreaming(placeholderID, answer string) bool {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		e.abort()
		return false
	}
	e.chunks = nil
	e.state = State{Phase: PhaseStreaming, PlaceholderID: placeholderID, Remaining: splitWords(answer)}
	st := e.stateLocked()
	e.mu.Unlock()

	e.emit(Event{Kind: EventStateChanged, State: st})
	return true
}

// step reveals the next chunk, or completes the placeholder once every word
// has been revealed. It reports whether the reveal is finished.
func (e *Engine) step(answer string) bool {
	e.mu.Lock()
	if len(e.state.Remaining) > 0 {
		var c Chunk
		c, e.state.Remaining = nextChunk(len(e.chunks), e.state.Remaining, e.chunkSize)
		e.chunks = append(e.chunks, c)
		e.mu.Unlock()

		e.emit(Event{Kind: EventChunk, Chunk: c})
		return false
	}

	id := e.state.PlaceholderID
	var done Message
	for i := range e.messages {
		if e.messages[i].ID == id {
			e.messages[i].Content = answer
			e.messages[i].Completed = true
			done = e.messages[i]
			break
		}
	}
	e.sections.replace(done)
	e.completed[id] = struct{}{}
	e.chunks = nil
	e.state = State{Phase: PhaseIdle}
	e.mu.Unlock()

	e.emit(
		Event{Kind: EventMessageCompleted, Message: done},
		Event{Kind: EventStateChanged, State: State{Phase: PhaseIdle}})
	return true
}

// abort drops any in-flight reveal after Close. The placeholder stays
// incomplete.
func (e *Engine) abort() {
	e.mu.Lock()
	e.chunks = nil
	e.state = State{Phase: PhaseIdle}
	e.mu.Unlock()
}

// Close cancels any in-flight fetch or reveal and waits for it to stop.
// Later submissions fail with ErrClosed.
func (e *Engine) Close() {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	e.cancel()
	e.wg.Wait()
}

func (e *Engine) appendLocked(m Message) {
	e.messages = append(e.messages, m)
	e.sections.append(m)
}

func (e *Engine) stateLocked() State {
	st := e.state
	st.Remaining = append([]string(nil), st.Remaining...)
	return st
}

func (e *Engine) emit(events ...Event) {
	if e.listener == nil {
		return
	}
	for _, ev := range events {
		e.listener(ev)
	}
}

// Messages returns a copy of the log.
func (e *Engine) Messages() []Message {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Message(nil), e.messages...)
}

// Sections returns the display sections. It always equals
// BuildSections(e.Messages()).
func (e *Engine) Sections() []Section {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sections.snapshot()
}

// Chunks returns the chunks revealed so far for the answer in progress.
func (e *Engine) Chunks() []Chunk {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Chunk(nil), e.chunks...)
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

func (e *Engine) Input() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.input
}

// ShouldAnimate reports whether the message with id is an answer that has
// not finished its reveal yet.
func (e *Engine) ShouldAnimate(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, done := e.completed[id]; done {
		return false
	}
	for _, m := range e.messages {
		if m.ID == id {
			return m.Role == RoleSystem
		}
	}
	return false
}
