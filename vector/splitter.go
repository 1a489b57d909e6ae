// vector/splitter.go
package vector

import "strings"

const (
	chunkSize    = 1000
	chunkOverlap = 150
)

// SplitDocument breaks reference text into overlapping chunks of roughly
// chunkSize characters, preferring paragraph, line and sentence boundaries
// over mid-word cuts. The overlap keeps facts that straddle a boundary
// retrievable from both sides.
func SplitDocument(content string) []string {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	if len(content) <= chunkSize {
		return []string{content}
	}

	var chunks []string
	start := 0
	for start < len(content) {
		end := start + chunkSize
		if end >= len(content) {
			chunk := strings.TrimSpace(content[start:])
			if chunk != "" {
				chunks = append(chunks, chunk)
			}
			break
		}

		cut := findCut(content, start, end)
		chunk := strings.TrimSpace(content[start:cut])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := cut - chunkOverlap
		if next <= start {
			next = cut
		}
		start = next
	}

	return chunks
}

// findCut picks the best split position in (start, end], scanning backwards
// for a paragraph break, then a newline, then a sentence end, then a space.
func findCut(content string, start, end int) int {
	window := content[start:end]

	for _, sep := range []string{"\n\n", "\n", ". ", " "} {
		if idx := strings.LastIndex(window, sep); idx > 0 {
			return start + idx + len(sep)
		}
	}

	// No boundary in the window at all; hard cut.
	return end
}
