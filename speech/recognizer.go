package speech

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when the runtime has no speech-recognition
// capability. Surfaced to the user at the point of use, never stored as a
// persistent error state.
var ErrUnavailable = errors.New("speech recognition is not available in this environment")

// Recognizer captures one utterance from the microphone and returns its
// transcript. Implementations block until a terminal state: transcript or
// error.
type Recognizer interface {
	Transcribe(ctx context.Context) (string, error)
}

// Unavailable is the default recognizer for runtimes without microphone
// speech-to-text.
type Unavailable struct{}

func (Unavailable) Transcribe(ctx context.Context) (string, error) {
	return "", ErrUnavailable
}
