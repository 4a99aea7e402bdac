package models

import (
	"strings"
	"testing"
)

func TestTruncateForSpeech(t *testing.T) {
	short := "keep me whole"
	if got := TruncateForSpeech(short); got != short {
		t.Errorf("short text changed: %q", got)
	}

	long := strings.Repeat("a", SpeechMaxChars+100)
	got := TruncateForSpeech(long)
	if len([]rune(got)) != SpeechMaxChars {
		t.Errorf("got %d runes, want %d", len([]rune(got)), SpeechMaxChars)
	}

	// Truncation counts runes, not bytes.
	wide := strings.Repeat("語", SpeechMaxChars+10)
	got = TruncateForSpeech(wide)
	if len([]rune(got)) != SpeechMaxChars {
		t.Errorf("multibyte: got %d runes, want %d", len([]rune(got)), SpeechMaxChars)
	}
}
