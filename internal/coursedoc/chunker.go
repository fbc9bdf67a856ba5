package coursedoc

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultChunkSize is the default maximum number of characters per chunk.
const DefaultChunkSize = 800

// DefaultChunkOverlap is the default number of characters repeated between chunks.
const DefaultChunkOverlap = 100

// Chunker splits text into chunks of whole sentences. A chunk holds as many
// sentences as fit in chunkSize characters; the next chunk starts with the
// trailing sentences of the previous one that fit in overlap characters.
// A sentence longer than chunkSize becomes a chunk of its own.
type Chunker struct {
	chunkSize int
	overlap   int
}

// NewChunker creates a chunker. Non-positive sizes use the defaults and an
// overlap that is not smaller than the chunk size is reduced to a quarter of it.
func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultChunkOverlap
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 4
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}
}

// Split normalises whitespace and returns the chunks of text.
func (c *Chunker) Split(text string) []string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}

	sentences := splitSentences(text)
	var chunks []string

	for start := 0; start < len(sentences); {
		end, size := start, 0
		for end < len(sentences) {
			add := runeLen(sentences[end])
			if end > start {
				add++ // joining space
			}
			if end > start && size+add > c.chunkSize {
				break
			}
			size += add
			end++
		}
		chunks = append(chunks, strings.Join(sentences[start:end], " "))

		if end >= len(sentences) {
			break
		}

		// Carry trailing sentences forward as overlap.
		carried, carriedSize := 0, 0
		for k := end - 1; k > start; k-- {
			add := runeLen(sentences[k])
			if carried > 0 {
				add++
			}
			if carriedSize+add > c.overlap {
				break
			}
			carriedSize += add
			carried++
		}
		start = end - carried
	}

	return chunks
}

// splitSentences breaks text after '.', '!' or '?' when the next word starts
// with an upper-case letter. Abbreviations such as "e.g." and "Dr." do not
// end a sentence.
func splitSentences(text string) []string {
	var (
		sentences []string
		begin     int
	)
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if ch != '.' && ch != '!' && ch != '?' {
			continue
		}
		if i+2 >= len(text) || text[i+1] != ' ' {
			continue
		}
		next, _ := utf8.DecodeRuneInString(text[i+2:])
		if !unicode.IsUpper(next) {
			continue
		}
		if ch == '.' && isAbbreviation(text[begin:i+1]) {
			continue
		}
		sentences = append(sentences, text[begin:i+1])
		begin = i + 2
	}
	if begin < len(text) {
		sentences = append(sentences, text[begin:])
	}
	return sentences
}

// isAbbreviation reports whether s ends in an abbreviation: a dotted
// initialism ("e.g.", "U.S.") or a capitalised short title ("Dr.", "Mr.").
func isAbbreviation(s string) bool {
	word := s
	if idx := strings.LastIndexByte(s, ' '); idx >= 0 {
		word = s[idx+1:]
	}
	word = strings.TrimSuffix(word, ".")
	if word == "" {
		return false
	}
	if strings.Contains(word, ".") {
		return true
	}
	runes := []rune(word)
	return len(runes) <= 2 && unicode.IsUpper(runes[0]) && (len(runes) == 1 || unicode.IsLower(runes[1]))
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
