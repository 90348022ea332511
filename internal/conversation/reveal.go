package conversation

import (
	"strings"
	"time"
)

const (
	// DefaultTick is the delay between two revealed chunks.
	DefaultTick = 40 * time.Millisecond
	// DefaultChunkSize is the number of words revealed per tick.
	DefaultChunkSize = 2

	// FallbackAnswer replaces answers that failed or came back empty.
	FallbackAnswer = "Something went wrong"
)

// Chunk is one group of revealed words. Text carries a trailing space so
// concatenated chunks read as running text.
type Chunk struct {
	ID   int
	Text string
}

// splitWords splits answer on single spaces. Line breaks and repeated spaces
// stay inside the words, so joining them back with " " restores answer.
func splitWords(answer string) []string {
	if answer == "" {
		return nil
	}
	return strings.Split(answer, " ")
}

// SplitChunks splits answer on spaces into ceil(words/size) chunks of at most
// size words each. Concatenating the chunks yields answer plus one trailing
// space.
func SplitChunks(answer string, size int) []Chunk {
	if size <= 0 {
		size = DefaultChunkSize
	}
	words := splitWords(answer)
	chunks := make([]Chunk, 0, (len(words)+size-1)/size)
	for len(words) > 0 {
		var c Chunk
		c, words = nextChunk(len(chunks), words, size)
		chunks = append(chunks, c)
	}
	return chunks
}

// nextChunk takes up to size words off the front of words.
func nextChunk(id int, words []string, size int) (Chunk, []string) {
	n := size
	if n > len(words) {
		n = len(words)
	}
	return Chunk{ID: id, Text: strings.Join(words[:n], " ") + " "}, words[n:]
}

// normalizeAnswer maps unusable answers to FallbackAnswer.
func normalizeAnswer(answer string, err error) string {
	if err != nil || strings.TrimSpace(answer) == "" {
		return FallbackAnswer
	}
	return answer
}
