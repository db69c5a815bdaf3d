package discord

import (
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitMessage_ShortMessage(t *testing.T) {
	chunks := SplitMessage("hello", maxMessageLength)
	if len(chunks) != 1 || chunks[0] != "hello" {
		t.Errorf("Expected the message unchanged, got %v", chunks)
	}
}

func TestSplitMessage_PrefersNewlines(t *testing.T) {
	text := strings.Repeat("line one\n", 5) + "tail"
	chunks := SplitMessage(text, 30)

	for i, chunk := range chunks {
		if len(chunk) > 30 {
			t.Errorf("Chunk %d exceeds the limit: %d chars", i, len(chunk))
		}
		if strings.HasPrefix(chunk, " ") || strings.HasSuffix(chunk, "\n") {
			t.Errorf("Chunk %d has ragged edges: %q", i, chunk)
		}
	}
	if got := strings.Join(chunks, "\n"); !strings.Contains(got, "tail") {
		t.Errorf("Expected the tail to survive splitting, got %q", got)
	}
}

func TestSplitMessage_HardCutWithoutBreakpoints(t *testing.T) {
	text := strings.Repeat("x", 45)
	chunks := SplitMessage(text, 20)

	if len(chunks) != 3 {
		t.Fatalf("Expected 3 chunks, got %d", len(chunks))
	}
	total := 0
	for i, chunk := range chunks {
		if len(chunk) > 20 {
			t.Errorf("Chunk %d exceeds the limit: %d chars", i, len(chunk))
		}
		total += len(chunk)
	}
	if total != 45 {
		t.Errorf("Expected no characters lost, got %d of 45", total)
	}
}

func TestSplitMessage_EventLinesStayIntact(t *testing.T) {
	var b strings.Builder
	b.WriteString("**Schedule for Today:**")
	for i := 1; i <= 100; i++ {
		b.WriteString("\n`[")
		b.WriteString(strings.Repeat("9", 2))
		b.WriteString("]` 09:30 AM (60 min): A moderately long event title")
	}

	chunks := SplitMessage(b.String(), maxMessageLength)
	if len(chunks) < 2 {
		t.Fatalf("Expected the long summary to be split, got %d chunk(s)", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk) > maxMessageLength {
			t.Errorf("Chunk %d exceeds the Discord limit: %d chars", i, len(chunk))
		}
	}
}

func TestSplitMessage_MultibyteTextStaysValid(t *testing.T) {
	// A long CJK answer with no newlines or spaces: every rune is 3 bytes,
	// so a byte-counting cut would land mid-rune.
	text := strings.Repeat("予定は午前九時から始まります。", 200)
	if utf8.RuneCountInString(text) <= maxMessageLength {
		t.Fatal("test text must exceed the limit in runes")
	}

	chunks := SplitMessage(text, maxMessageLength)
	if len(chunks) < 2 {
		t.Fatalf("Expected the text to be split, got %d chunk(s)", len(chunks))
	}

	var rebuilt strings.Builder
	for i, chunk := range chunks {
		if !utf8.ValidString(chunk) {
			t.Errorf("Chunk %d is not valid UTF-8", i)
		}
		if got := utf8.RuneCountInString(chunk); got > maxMessageLength {
			t.Errorf("Chunk %d exceeds the limit: %d runes", i, got)
		}
		rebuilt.WriteString(chunk)
	}
	if rebuilt.String() != text {
		t.Error("Expected no characters lost or corrupted across chunks")
	}
}

func TestSplitArgs(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{`view tomorrow`, []string{"view", "tomorrow"}},
		{`add "Team sync" 3pm 30`, []string{"add", "Team sync", "3pm", "30"}},
		{`add "All hands" "2025-12-24 09:00"`, []string{"add", "All hands", "2025-12-24 09:00"}},
		{`  spaced   out  `, []string{"spaced", "out"}},
		{``, nil},
	}

	for _, tt := range tests {
		got := splitArgs(tt.input)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitArgs(%q) = %v, expected %v", tt.input, got, tt.want)
		}
	}
}
