package usecases

import (
	"strings"
	"unicode/utf8"
)

// ChunkText splits text into windows of maxSize runes, each starting
// maxSize-overlap runes after the previous one. The last chunk may be shorter.
// Dropping the first overlap runes of every chunk after the first and
// concatenating gives back text.
//
// overlap is clamped to [0, maxSize-1] so windows always advance; the
// round trip then holds for the clamped value, not the one passed in.
func ChunkText(text string, maxSize, overlap int) []string {
	if text == "" || maxSize <= 0 {
		return []string{}
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxSize {
		overlap = maxSize - 1
	}

	runes := []rune(text)
	step := maxSize - overlap
	chunks := []string{}
	for start := 0; ; start += step {
		end := min(start+maxSize, len(runes))
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}

// EstimateTokens approximates the model token count of s.
func EstimateTokens(s string) int {
	return utf8.RuneCountInString(s) / 4
}

// ChunkSentences groups whole sentences until the next one would push the
// estimated token count over maxTokens. Sentences that are too long on their
// own are cut with ChunkText.
func ChunkSentences(text string, maxTokens int) []string {
	chunks := []string{}
	if strings.TrimSpace(text) == "" || maxTokens <= 0 {
		return chunks
	}

	var current strings.Builder
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
		current.Reset()
	}

	for _, sentence := range splitSentences(text) {
		if EstimateTokens(sentence) > maxTokens {
			flush()
			chunks = append(chunks, ChunkText(sentence, maxTokens*4, 0)...)
			continue
		}
		if current.Len() > 0 && EstimateTokens(current.String()+" "+sentence) > maxTokens {
			flush()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sentence)
	}
	flush()
	return chunks
}

func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i, r := range text {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if s := strings.TrimSpace(text[start : i+1]); s != "" {
			sentences = append(sentences, s)
		}
		start = i + 1
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
