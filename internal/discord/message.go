package discord

import (
	"strings"
	"unicode/utf8"
)

// maxMessageLength is Discord's message content limit, in characters.
const maxMessageLength = 2000

// SplitMessage splits text into chunks that fit Discord's message limit,
// preferring newline boundaries, then spaces, before cutting mid-line. The
// limit counts runes, not bytes, and every cut lands on a rune boundary.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 {
		limit = maxMessageLength
	}

	var chunks []string
	for len(text) > 0 {
		if utf8.RuneCountInString(text) <= limit {
			chunks = append(chunks, text)
			break
		}

		head := runeCut(text, limit)
		cut := strings.LastIndex(text[:head], "\n")
		if cut <= 0 {
			cut = strings.LastIndex(text[:head], " ")
		}
		if cut <= 0 {
			cut = head
		}

		chunk := strings.TrimSpace(text[:cut])
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		text = strings.TrimSpace(text[cut:])
	}
	return chunks
}

// runeCut returns the byte offset just past the first limit runes of s.
func runeCut(s string, limit int) int {
	n := 0
	for i := range s {
		if n == limit {
			return i
		}
		n++
	}
	return len(s)
}

// splitArgs splits a command line into arguments, honoring double quotes so
// titles with spaces survive: `add "Team sync" 3pm 30` yields four args.
func splitArgs(s string) []string {
	var args []string
	var current strings.Builder
	inQuotes := false

	flush := func() {
		if current.Len() > 0 {
			args = append(args, current.String())
			current.Reset()
		}
	}

	for _, r := range s {
		switch {
		case r == '"':
			inQuotes = !inQuotes
			if !inQuotes {
				args = append(args, current.String())
				current.Reset()
			}
		case r == ' ' && !inQuotes:
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()
	return args
}
