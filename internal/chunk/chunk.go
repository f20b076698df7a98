// Package chunk splits a bookmark's extracted text into overlapping windows
// for embedding and vector retrieval (§4.5 stage 6). It is a pure function
// package with no external dependencies, matching the teacher's texture for
// small stdlib-only helper packages (e.g. pkg/merkle's hashing helpers).
package chunk

import "strings"

const (
	targetSize = 1000
	overlap    = 100
)

// Split breaks text into chunks of about targetSize characters each, with
// overlap characters of repeated context between consecutive chunks,
// preferring to break at a paragraph boundary, falling back to a sentence
// boundary, and finally a hard cut. Returns nil for empty text.
func Split(text string) []string {
	if text == "" {
		return nil
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + targetSize
		if end >= len(text) {
			chunks = append(chunks, strings.TrimSpace(text[start:]))
			break
		}

		cut := breakPoint(text, start, end)
		chunks = append(chunks, strings.TrimSpace(text[start:cut]))

		next := cut - overlap
		if next <= start {
			next = cut
		}
		start = next
	}

	return chunks
}

// breakPoint finds the preferred split point for text[start:end], searching
// backward from end for a paragraph break, then a sentence end, falling
// back to the hard boundary at end if neither is found within the window.
func breakPoint(text string, start, end int) int {
	window := text[start:end]

	if idx := strings.LastIndex(window, "\n\n"); idx > 0 {
		return start + idx + 2
	}

	if idx := lastSentenceEnd(window); idx > 0 {
		return start + idx
	}

	return end
}

func lastSentenceEnd(window string) int {
	bestIdx, bestEnd := -1, -1
	for _, terminator := range []string{". ", "! ", "? ", ".\n", "!\n", "?\n"} {
		if idx := strings.LastIndex(window, terminator); idx > bestIdx {
			bestIdx = idx
			bestEnd = idx + len(terminator)
		}
	}
	return bestEnd
}
