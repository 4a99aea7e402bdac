package chat

import (
	"time"

	"github.com/google/uuid"

	"github.com/aloneprofessor1-oss/MADDI/models"
)

// Persisted record keys. The three records are independently versioned.
const (
	KeySessions      = "sessions"
	KeyActiveSession = "active_session"
	KeySettings      = "settings"
)

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// DefaultTitle is the label of a session before its first user message.
const DefaultTitle = "New Conversation"

// titleMaxChars is how much of the first user message becomes the title.
const titleMaxChars = 30

// GroundingSource is a display-ready citation derived from a backend
// grounding chunk.
type GroundingSource struct {
	Title string `json:"title,omitempty"`
	URI   string `json:"uri,omitempty"`
}

// Message is one turn in a conversation. Immutable once created except for
// media fields populated asynchronously after creation (AudioURL).
type Message struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`

	AudioURL string `json:"audioUrl,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`

	// PsychAnalysis is the raw structured fragment extracted from the
	// model's reply, kept verbatim.
	PsychAnalysis string `json:"psychAnalysis,omitempty"`

	GroundingSources []GroundingSource `json:"groundingSources,omitempty"`
}

// NewMessage constructs a message with a fresh id and timestamp.
func NewMessage(role, text string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// ChatSession is one conversation thread. Messages are append-only and
// their order is never changed.
type ChatSession struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"createdAt"`
}

// NewSession constructs an empty session with the default title.
func NewSession() *ChatSession {
	return &ChatSession{
		ID:        uuid.NewString(),
		Title:     DefaultTitle,
		Messages:  []Message{},
		CreatedAt: time.Now(),
	}
}

// TitleFor derives a session title from the first user message.
func TitleFor(text string) string {
	runes := []rune(text)
	if len(runes) <= titleMaxChars {
		return text
	}
	return string(runes[:titleMaxChars])
}

// UserSettings is the process-wide preference state.
type UserSettings struct {
	Theme         string  `json:"theme"` // "light" or "dark"
	Volume        float64 `json:"volume"`
	PlaybackSpeed float64 `json:"playbackSpeed"`
}

// DefaultSettings returns the settings used when nothing was persisted.
func DefaultSettings() UserSettings {
	return UserSettings{
		Theme:         "dark",
		Volume:        1.0,
		PlaybackSpeed: 1.0,
	}
}

// Clamp forces volume and playback speed into their legal ranges.
func (s *UserSettings) Clamp() {
	if s.Volume < 0 {
		s.Volume = 0
	}
	if s.Volume > 1 {
		s.Volume = 1
	}
	if s.PlaybackSpeed < 0.5 {
		s.PlaybackSpeed = 0.5
	}
	if s.PlaybackSpeed > 2.0 {
		s.PlaybackSpeed = 2.0
	}
	if s.Theme != "light" && s.Theme != "dark" {
		s.Theme = "dark"
	}
}

// DeriveGroundingSources keeps only chunks that carry a web citation and
// maps each to a display source, preserving order.
func DeriveGroundingSources(chunks []models.GroundingChunk) []GroundingSource {
	var out []GroundingSource
	for _, c := range chunks {
		if c.Web == nil {
			continue
		}
		out = append(out, GroundingSource{Title: c.Web.Title, URI: c.Web.URI})
	}
	return out
}
