package models

import "context"

// Role identifies who produced a conversation turn.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// ChatTurn is one prior turn of the conversation, role plus text only.
type ChatTurn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// WebSource is a web citation attached to a grounding chunk.
type WebSource struct {
	URI   string `json:"uri,omitempty"`
	Title string `json:"title,omitempty"`
}

// GroundingChunk is one grounding entry returned by the backend. Entries
// without a Web citation are dropped by the caller before display.
type GroundingChunk struct {
	Web *WebSource `json:"web,omitempty"`
}

// ChatResult is the backend's reply to a chat completion request.
type ChatResult struct {
	ReplyText       string           `json:"reply_text"`
	GroundingChunks []GroundingChunk `json:"grounding_chunks,omitempty"`
}

// SpeechMaxChars caps the text sent to speech synthesis.
const SpeechMaxChars = 500

// Gateway is the stateless request/response contract to the generative
// backend. Implementations must be safe for concurrent use.
type Gateway interface {
	// CompleteChat sends the full prior history plus the new user turn and
	// returns the raw reply text with any grounding chunks.
	CompleteChat(ctx context.Context, history []ChatTurn, newUserText string) (ChatResult, error)

	// SynthesizeSpeech returns base64-encoded raw little-endian 16-bit PCM
	// (mono, 24kHz), or "" when the backend produced no audio.
	SynthesizeSpeech(ctx context.Context, text string) (string, error)

	// SynthesizeImage returns an image data URI, or "" when the backend
	// produced no image.
	SynthesizeImage(ctx context.Context, prompt string) (string, error)
}

// TruncateForSpeech trims text to the synthesis character budget.
func TruncateForSpeech(text string) string {
	runes := []rune(text)
	if len(runes) <= SpeechMaxChars {
		return text
	}
	return string(runes[:SpeechMaxChars])
}
