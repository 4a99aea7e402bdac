package audio

import (
	"sync"

	"github.com/aloneprofessor1-oss/MADDI/pkg/logger"
)

// Playback is one in-progress playback; Stop halts it.
type Playback interface {
	Stop()
}

// Device is the audio output surface. Start begins playing the samples at
// the given rate with the requested volume and playback speed applied.
type Device interface {
	Start(sampleRate int, samples []float32, volume, speed float64) (Playback, error)
}

// SettingsFunc supplies the current volume and playback speed at the moment
// a playback starts.
type SettingsFunc func() (volume, speed float64)

// Player decodes stored speech payloads and plays them through a Device.
// Only one playback is active at a time: starting a new one stops any
// in-progress playback first. Every failure is logged and swallowed.
type Player struct {
	device   Device
	settings SettingsFunc

	mu      sync.Mutex
	current Playback
}

func NewPlayer(device Device, settings SettingsFunc) *Player {
	return &Player{device: device, settings: settings}
}

// Play decodes the payload and starts playback with the current settings.
// Non-blocking: the device owns the playback lifecycle.
func (p *Player) Play(audioURL string) {
	samples, err := DecodePayload(audioURL)
	if err != nil {
		logger.Debugf("Audio decode failed: %v", err)
		return
	}

	volume, speed := 1.0, 1.0
	if p.settings != nil {
		volume, speed = p.settings()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil {
		p.current.Stop()
		p.current = nil
	}
	playback, err := p.device.Start(SampleRate, samples, volume, speed)
	if err != nil {
		logger.Debugf("Audio playback failed: %v", err)
		return
	}
	p.current = playback
}

// Stop halts the active playback, if any.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current != nil {
		p.current.Stop()
		p.current = nil
	}
}
