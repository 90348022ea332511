// Package conversation owns a client-side chat transcript: the message log,
// its display sections, and the chunked reveal of each answer.
package conversation

import "strconv"

// Role identifies who authored a message.
type Role string

const (
	RoleUser   Role = "user"
	RoleSystem Role = "system"
)

// Message is one entry of the log. System messages start empty and are
// completed exactly once, when their reveal finishes.
type Message struct {
	ID         string
	Role       Role
	Content    string
	Completed  bool
	NewSection bool
}

// Section is a contiguous run of messages rendered together.
type Section struct {
	ID           string
	Messages     []Message
	IsNewSection bool
	IsActive     bool
	SectionIndex int
}

func sectionID(index int) string {
	return "section-" + strconv.Itoa(index)
}

// BuildSections partitions messages into sections, opening a new one at every
// message flagged NewSection. The first section is never new. Only the last
// section can be active, and only when it was opened by a split.
func BuildSections(messages []Message) []Section {
	var b sectionBuilder
	for _, m := range messages {
		b.append(m)
	}
	return b.snapshot()
}

// sectionBuilder folds messages into sections one at a time so the engine
// does not rebuild the whole list on every append.
type sectionBuilder struct {
	sections []Section
}

func (b *sectionBuilder) append(m Message) {
	n := len(b.sections)
	if n == 0 {
		b.sections = append(b.sections, Section{ID: sectionID(0), Messages: []Message{m}})
		return
	}
	if !m.NewSection {
		b.sections[n-1].Messages = append(b.sections[n-1].Messages, m)
		return
	}
	b.sections[n-1].IsActive = false
	b.sections = append(b.sections, Section{
		ID:           sectionID(n),
		Messages:     []Message{m},
		IsNewSection: true,
		IsActive:     true,
		SectionIndex: n,
	})
}

// replace swaps in an updated copy of the message with the same id.
// Only the last section is searched; messages only change while they are
// the tail of the log.
func (b *sectionBuilder) replace(m Message) {
	if len(b.sections) == 0 {
		return
	}
	msgs := b.sections[len(b.sections)-1].Messages
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].ID == m.ID {
			msgs[i] = m
			return
		}
	}
}

func (b *sectionBuilder) snapshot() []Section {
	out := make([]Section, len(b.sections))
	for i, s := range b.sections {
		s.Messages = append([]Message(nil), s.Messages...)
		out[i] = s
	}
	return out
}
