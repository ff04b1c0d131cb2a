// Package chunker splits extracted document text into bounded segments
// suitable for independent embedding.
package chunker

import (
	"regexp"
	"strings"
)

// DefaultChunkSize is the target chunk budget in characters.
const DefaultChunkSize = 512

var sentenceRegex = regexp.MustCompile(`[^.!?]+[.!?]+\s*|[^.!?]+$`)

// Chunker is a stateless, deterministic text splitter. Identical input
// always yields an identical chunk sequence.
type Chunker struct {
	size int
}

// New creates a Chunker with the given character budget per chunk.
func New(size int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return &Chunker{size: size}
}

// Split cuts text into chunks of at most the configured budget,
// preferring paragraph boundaries, then sentence boundaries, then word
// boundaries. Whitespace-only segments are discarded.
func (c *Chunker) Split(text string) []string {
	var chunks []string
	var b strings.Builder

	flush := func() {
		if s := strings.TrimSpace(b.String()); s != "" {
			chunks = append(chunks, s)
		}
		b.Reset()
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if len(para) > c.size {
			flush()
			chunks = append(chunks, c.splitParagraph(para)...)
			continue
		}
		if b.Len() > 0 && b.Len()+2+len(para) > c.size {
			flush()
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(para)
	}
	flush()

	return chunks
}

// splitParagraph packs sentences of an oversized paragraph into chunks.
func (c *Chunker) splitParagraph(para string) []string {
	var chunks []string
	var b strings.Builder

	flush := func() {
		if s := strings.TrimSpace(b.String()); s != "" {
			chunks = append(chunks, s)
		}
		b.Reset()
	}

	for _, sentence := range sentenceRegex.FindAllString(para, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		if len(sentence) > c.size {
			flush()
			chunks = append(chunks, c.splitHard(sentence)...)
			continue
		}
		if b.Len() > 0 && b.Len()+1+len(sentence) > c.size {
			flush()
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(sentence)
	}
	flush()

	return chunks
}

// splitHard cuts a sentence exceeding the budget at word boundaries,
// falling back to a raw cut when a single word exceeds the budget.
func (c *Chunker) splitHard(s string) []string {
	var chunks []string
	for len(s) > c.size {
		cut := strings.LastIndex(s[:c.size], " ")
		if cut <= 0 {
			cut = c.size
		}
		if piece := strings.TrimSpace(s[:cut]); piece != "" {
			chunks = append(chunks, piece)
		}
		s = strings.TrimSpace(s[cut:])
	}
	if s != "" {
		chunks = append(chunks, s)
	}
	return chunks
}
