package chat

import (
	"regexp"
	"strings"
)

// insightPattern matches a JSON-object-shaped fragment whose content
// includes a field literally named PsychologicalInsight. Dot-all and greedy
// over the whole reply: the match runs from the first opening brace to the
// last closing brace surrounding the tag. The fragment is treated as opaque
// text, never deserialized here.
var insightPattern = regexp.MustCompile(`(?s)\{.*"PsychologicalInsight".*\}`)

// ExtractInsight splits a raw model reply into the text to display and the
// embedded structured-insight fragment, if any. Only the first match is
// used; the fragment is removed verbatim and the remainder trimmed. Replies
// without a fragment come back unchanged with an empty insight.
func ExtractInsight(raw string) (display, insight string) {
	insight = insightPattern.FindString(raw)
	if insight == "" {
		return raw, ""
	}
	display = strings.TrimSpace(strings.Replace(raw, insight, "", 1))
	return display, insight
}
