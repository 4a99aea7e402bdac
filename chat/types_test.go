package chat

import (
	"testing"

	"github.com/aloneprofessor1-oss/MADDI/models"
)

func TestTitleFor(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"short", "Hello", "Hello"},
		{"exactly thirty", "123456789012345678901234567890", "123456789012345678901234567890"},
		{"truncated", "1234567890123456789012345678901234", "123456789012345678901234567890"},
		{"multibyte", "ひらがなひらがなひらがなひらがなひらがなひらがなひらがなひらがな", "ひらがなひらがなひらがなひらがなひらがなひらがなひらがなひら"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TitleFor(tt.in); got != tt.want {
				t.Errorf("TitleFor(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSettingsClamp(t *testing.T) {
	s := UserSettings{Theme: "purple", Volume: 1.8, PlaybackSpeed: 0.1}
	s.Clamp()
	if s.Volume != 1.0 {
		t.Errorf("volume = %v, want 1.0", s.Volume)
	}
	if s.PlaybackSpeed != 0.5 {
		t.Errorf("speed = %v, want 0.5", s.PlaybackSpeed)
	}
	if s.Theme != "dark" {
		t.Errorf("theme = %q, want dark", s.Theme)
	}

	s = UserSettings{Theme: "light", Volume: -0.2, PlaybackSpeed: 3.5}
	s.Clamp()
	if s.Volume != 0 {
		t.Errorf("volume = %v, want 0", s.Volume)
	}
	if s.PlaybackSpeed != 2.0 {
		t.Errorf("speed = %v, want 2.0", s.PlaybackSpeed)
	}
	if s.Theme != "light" {
		t.Errorf("theme = %q, want light", s.Theme)
	}
}

func TestDeriveGroundingSources(t *testing.T) {
	chunks := []models.GroundingChunk{
		{Web: &models.WebSource{URI: "a"}},
		{},
		{Web: &models.WebSource{URI: "b", Title: "B"}},
	}
	out := DeriveGroundingSources(chunks)
	if len(out) != 2 {
		t.Fatalf("got %d sources, want 2", len(out))
	}
	if out[0].URI != "a" || out[0].Title != "" {
		t.Errorf("out[0] = %+v", out[0])
	}
	if out[1].URI != "b" || out[1].Title != "B" {
		t.Errorf("out[1] = %+v", out[1])
	}
}

func TestDeriveGroundingSourcesEmpty(t *testing.T) {
	if out := DeriveGroundingSources(nil); out != nil {
		t.Errorf("expected nil for no chunks, got %+v", out)
	}
	if out := DeriveGroundingSources([]models.GroundingChunk{{}, {}}); out != nil {
		t.Errorf("expected nil when no chunk carries a web source, got %+v", out)
	}
}
