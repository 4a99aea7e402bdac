package chat

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aloneprofessor1-oss/MADDI/models"
	"github.com/aloneprofessor1-oss/MADDI/pkg/logger"
	"github.com/aloneprofessor1-oss/MADDI/speech"
)

const (
	genericChatError  = "Something went wrong. Please try again."
	genericImageError = "Failed to generate image. Try a different prompt."
)

// Player is the audio playback surface the controller drives. Play is
// non-blocking; starting a new playback stops any in-progress one. Failures
// inside the player are logged and swallowed, never surfaced here.
type Player interface {
	Play(audioURL string)
	Stop()
}

// Controller orchestrates user turns: it appends the user message, invokes
// the backend gateway, parses the reply, and appends the result to the
// active session. It owns the in-flight flags and the surfaced error state.
type Controller struct {
	repo       *Repository
	gateway    models.Gateway
	player     Player
	recognizer speech.Recognizer

	mu            sync.Mutex
	chatInFlight  bool
	imageInFlight bool
	recording     bool
	lastError     string
}

func NewController(repo *Repository, gateway models.Gateway, player Player, recognizer speech.Recognizer) *Controller {
	if recognizer == nil {
		recognizer = speech.Unavailable{}
	}
	return &Controller{
		repo:       repo,
		gateway:    gateway,
		player:     player,
		recognizer: recognizer,
	}
}

func (c *Controller) Repository() *Repository { return c.repo }

// State is the snapshot the presentation layer renders from.
type State struct {
	Sessions      []ChatSession `json:"sessions"`
	ActiveID      string        `json:"activeId"`
	Settings      UserSettings  `json:"settings"`
	ChatInFlight  bool          `json:"chatInFlight"`
	ImageInFlight bool          `json:"imageInFlight"`
	Recording     bool          `json:"recording"`
	LastError     string        `json:"lastError,omitempty"`
}

func (c *Controller) State() State {
	c.mu.Lock()
	st := State{
		ChatInFlight:  c.chatInFlight,
		ImageInFlight: c.imageInFlight,
		Recording:     c.recording,
		LastError:     c.lastError,
	}
	c.mu.Unlock()
	st.Sessions = c.repo.Sessions()
	st.ActiveID = c.repo.ActiveID()
	st.Settings = c.repo.Settings()
	return st
}

// LastError returns the currently surfaced error, empty when none.
func (c *Controller) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// DismissError clears the surfaced error state.
func (c *Controller) DismissError() {
	c.mu.Lock()
	c.lastError = ""
	c.mu.Unlock()
	c.repo.notify()
}

func (c *Controller) setError(msg string) {
	c.mu.Lock()
	c.lastError = msg
	c.mu.Unlock()
}

// SendUserTurn sends one user turn through the backend and appends the
// resulting model message. Empty input after trimming is a silent no-op, as
// is the absence of an active session. On failure the user turn stays in
// the session, no model message is appended, and a single error is
// surfaced.
func (c *Controller) SendUserTurn(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	session, ok := c.repo.Active()
	if !ok {
		logger.Warn("sendUserTurn with no active session")
		return
	}

	userMsg := NewMessage(RoleUser, text)
	prior, appended := c.repo.AppendMessage(session.ID, userMsg)
	if !appended {
		return
	}
	if prior == 0 {
		c.repo.SetTitle(session.ID, TitleFor(text))
	}

	history := historyFor(session.Messages)
	c.completeTurn(ctx, session.ID, history, text)
}

// RetryLastTurn resends the most recent user turn of the active session
// without appending it again. A no-op unless the session's last message is
// a user turn left dangling by a failed request.
func (c *Controller) RetryLastTurn(ctx context.Context) {
	session, ok := c.repo.Active()
	if !ok || len(session.Messages) == 0 {
		return
	}
	last := session.Messages[len(session.Messages)-1]
	if last.Role != RoleUser {
		return
	}
	history := historyFor(session.Messages[:len(session.Messages)-1])
	c.completeTurn(ctx, session.ID, history, last.Text)
}

// completeTurn runs the backend call and result handling shared by send and
// retry: steps 3 through 11 of the turn contract.
func (c *Controller) completeTurn(ctx context.Context, sessionID string, history []models.ChatTurn, text string) {
	c.mu.Lock()
	c.chatInFlight = true
	c.lastError = ""
	c.mu.Unlock()
	c.repo.notify()

	defer func() {
		c.mu.Lock()
		c.chatInFlight = false
		c.mu.Unlock()
		c.repo.notify()
	}()

	result, err := c.gateway.CompleteChat(ctx, history, text)
	if err != nil {
		logger.Errorf("Chat completion failed: %v", err)
		c.setError(errorMessage(err, genericChatError))
		return
	}

	display, insight := ExtractInsight(result.ReplyText)
	modelMsg := NewMessage(RoleModel, display)
	modelMsg.PsychAnalysis = insight
	modelMsg.GroundingSources = DeriveGroundingSources(result.GroundingChunks)

	if _, ok := c.repo.AppendMessage(sessionID, modelMsg); !ok {
		// Session was deleted while the request was in flight.
		return
	}

	// Fire-and-forget: speech synthesis and playback never affect the
	// appended message or surface as a conversation error.
	go c.speakAndAttach(sessionID, modelMsg.ID, display)
}

func historyFor(messages []Message) []models.ChatTurn {
	history := make([]models.ChatTurn, 0, len(messages))
	for _, m := range messages {
		history = append(history, models.ChatTurn{Role: m.Role, Text: m.Text})
	}
	return history
}

func (c *Controller) speakAndAttach(sessionID, messageID, text string) {
	payload, err := c.gateway.SynthesizeSpeech(context.Background(), text)
	if err != nil {
		logger.Debugf("Speech synthesis failed: %v", err)
		return
	}
	if payload == "" {
		return
	}
	audioURL := "data:audio/pcm;base64," + payload
	c.repo.AttachAudio(sessionID, messageID, audioURL)
	if c.player != nil {
		c.player.Play(audioURL)
	}
}

// PlayMessageAudio replays a model message's audio, synthesizing it first
// if it was never attached.
func (c *Controller) PlayMessageAudio(sessionID, messageID string) {
	msg, ok := c.repo.Message(sessionID, messageID)
	if !ok {
		return
	}
	if msg.AudioURL != "" {
		if c.player != nil {
			c.player.Play(msg.AudioURL)
		}
		return
	}
	go c.speakAndAttach(sessionID, messageID, msg.Text)
}

// StopAudio halts the active playback, if any.
func (c *Controller) StopAudio() {
	if c.player != nil {
		c.player.Stop()
	}
}

// GenerateImage requests an image for the prompt and appends a model
// message carrying the result. Concurrent generations are rejected; the
// in-flight flag always clears.
func (c *Controller) GenerateImage(ctx context.Context, prompt string) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return
	}

	c.mu.Lock()
	if c.imageInFlight {
		c.mu.Unlock()
		return
	}
	c.imageInFlight = true
	c.lastError = ""
	c.mu.Unlock()
	c.repo.notify()

	defer func() {
		c.mu.Lock()
		c.imageInFlight = false
		c.mu.Unlock()
		c.repo.notify()
	}()

	session, ok := c.repo.Active()
	if !ok {
		return
	}

	dataURI, err := c.gateway.SynthesizeImage(ctx, prompt)
	if err != nil {
		logger.Errorf("Image generation failed: %v", err)
		c.setError(errorMessage(err, genericImageError))
		return
	}
	if dataURI == "" {
		c.setError(genericImageError)
		return
	}

	msg := NewMessage(RoleModel, fmt.Sprintf("Here is the image for: %q", prompt))
	msg.ImageURL = dataURI
	c.repo.AppendMessage(session.ID, msg)
}

// CaptureVoice records one utterance and sends the transcript as a user
// turn. The recording flag clears exactly once on either terminal state.
// Returns speech.ErrUnavailable when the runtime has no recognizer so the
// caller can surface a blocking notice.
func (c *Controller) CaptureVoice(ctx context.Context) error {
	c.mu.Lock()
	if c.recording {
		c.mu.Unlock()
		return nil
	}
	c.recording = true
	c.mu.Unlock()
	c.repo.notify()

	transcript, err := c.recognizer.Transcribe(ctx)

	c.mu.Lock()
	c.recording = false
	c.mu.Unlock()
	c.repo.notify()

	if err != nil {
		if err != speech.ErrUnavailable {
			logger.Warnf("Voice capture failed: %v", err)
		}
		return err
	}
	c.SendUserTurn(ctx, transcript)
	return nil
}

// NewConversation creates a session and makes it active.
func (c *Controller) NewConversation() *ChatSession {
	return c.repo.CreateSession()
}

// SelectConversation repoints the active session.
func (c *Controller) SelectConversation(id string) error {
	return c.repo.SetActive(id)
}

// DeleteConversation removes a session; the repository handles pointer
// repair and respawning the last session.
func (c *Controller) DeleteConversation(id string) error {
	return c.repo.DeleteSession(id)
}

// ToggleTheme flips between light and dark.
func (c *Controller) ToggleTheme() UserSettings {
	return c.repo.UpdateSettings(func(s *UserSettings) {
		if s.Theme == "dark" {
			s.Theme = "light"
		} else {
			s.Theme = "dark"
		}
	})
}

func (c *Controller) SetVolume(v float64) UserSettings {
	return c.repo.UpdateSettings(func(s *UserSettings) { s.Volume = v })
}

func (c *Controller) SetPlaybackSpeed(v float64) UserSettings {
	return c.repo.UpdateSettings(func(s *UserSettings) { s.PlaybackSpeed = v })
}

func errorMessage(err error, fallback string) string {
	if err == nil || strings.TrimSpace(err.Error()) == "" {
		return fallback
	}
	return err.Error()
}
