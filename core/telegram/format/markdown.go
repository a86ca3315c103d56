package format

import (
	"fmt"
	"strings"
)

const (
	// MarkdownV1 denotes Telegram markdown version 1.
	MarkdownV1 = 1
	// MarkdownV2 denotes Telegram markdown version 2.
	MarkdownV2 = 2
)

const (
	mdV1Specials     = "_*`["
	mdV2Specials     = "_*[]()~`>#+-=|{}.!\\"
	mdV2CodeSpecials = "`\\"
)

// EscapeMarkdown escapes special characters for MarkdownV1 or V2.
// For V2, entityType "pre" or "code" limits escaping to backtick and backslash.
func EscapeMarkdown(text string, version int, entityType string) (string, error) {
	switch version {
	case MarkdownV1:
		return escapeSet(text, mdV1Specials), nil
	case MarkdownV2:
		if entityType == "pre" || entityType == "code" {
			return escapeSet(text, mdV2CodeSpecials), nil
		}
		return escapeSet(text, mdV2Specials), nil
	}
	return "", fmt.Errorf("unsupported markdown version: %d", version)
}

// EscapeV2 escapes plain text for MarkdownV2 outside of code entities.
func EscapeV2(text string) string {
	return escapeSet(text, mdV2Specials)
}

func escapeSet(text, specials string) string {
	if !strings.ContainsAny(text, specials) {
		return text
	}
	var b strings.Builder
	b.Grow(len(text) + 8)
	for _, r := range text {
		if strings.ContainsRune(specials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
