package audio

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/ebitengine/oto/v3"
)

// OtoDevice plays PCM through the system output using oto. The underlying
// context is created once per process on first use, at the fixed backend
// sample rate; speed changes are applied by resampling rather than by
// reconfiguring the device.
type OtoDevice struct {
	once sync.Once
	ctx  *oto.Context
	err  error
}

func NewOtoDevice() *OtoDevice {
	return &OtoDevice{}
}

func (d *OtoDevice) context() (*oto.Context, error) {
	d.once.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   SampleRate,
			ChannelCount: 1,
			Format:       oto.FormatSignedInt16LE,
		}
		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			d.err = fmt.Errorf("failed to open audio device: %w", err)
			return
		}
		<-ready
		d.ctx = ctx
	})
	return d.ctx, d.err
}

func (d *OtoDevice) Start(sampleRate int, samples []float32, volume, speed float64) (Playback, error) {
	ctx, err := d.context()
	if err != nil {
		return nil, err
	}

	stretched := Resample(samples, speed)
	player := ctx.NewPlayer(bytes.NewReader(EncodePCM(stretched)))
	player.SetVolume(volume)
	player.Play()
	return &otoPlayback{player: player}, nil
}

type otoPlayback struct {
	player *oto.Player
	once   sync.Once
}

func (p *otoPlayback) Stop() {
	p.once.Do(func() {
		_ = p.player.Close()
	})
}
