package pipeline

import (
	"fmt"
	"strings"

	"github.com/fauzanhilmi/vocalis/pkg/search"
)

const systemPreamble = "You are a helpful, concise voice assistant. Keep responses short and conversational."

// searchTriggers marks utterances likely to need fresh information.
var searchTriggers = []string{
	"latest", "today", "current", "news", "price",
	"weather", "score", "stock", "match", "who won",
}

// NeedsSearch reports whether the utterance should be grounded with web
// search results.
func NeedsSearch(utterance string) bool {
	lowered := strings.ToLower(utterance)
	for _, trigger := range searchTriggers {
		if strings.Contains(lowered, trigger) {
			return true
		}
	}
	return false
}

// BuildPrompt composes the generation prompt from the system preamble,
// optional numbered search context and the user utterance.
func BuildPrompt(utterance string, results []search.Result) string {
	var b strings.Builder
	b.WriteString(systemPreamble)
	if len(results) > 0 {
		b.WriteString("\n\nUse the following context when relevant:\n")
		for i, r := range results {
			fmt.Fprintf(&b, "%d. %s: %s\n", i+1, r.Title, r.Content)
		}
	}
	b.WriteString("\nUser: ")
	b.WriteString(utterance)
	return b.String()
}
