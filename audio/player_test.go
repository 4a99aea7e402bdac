package audio

import (
	"encoding/base64"
	"errors"
	"sync"
	"testing"
)

type startCall struct {
	sampleRate int
	samples    []float32
	volume     float64
	speed      float64
}

type fakePlayback struct {
	mu      sync.Mutex
	stopped bool
}

func (f *fakePlayback) Stop() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

func (f *fakePlayback) isStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

type fakeDevice struct {
	mu        sync.Mutex
	calls     []startCall
	playbacks []*fakePlayback
	err       error
}

func (d *fakeDevice) Start(sampleRate int, samples []float32, volume, speed float64) (Playback, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, startCall{sampleRate, samples, volume, speed})
	if d.err != nil {
		return nil, d.err
	}
	pb := &fakePlayback{}
	d.playbacks = append(d.playbacks, pb)
	return pb, nil
}

func testPayload() string {
	return "data:audio/pcm;base64," + base64.StdEncoding.EncodeToString([]byte{0x00, 0x40, 0x00, 0x20})
}

func TestPlayerPassesSettingsToDevice(t *testing.T) {
	device := &fakeDevice{}
	p := NewPlayer(device, func() (float64, float64) { return 0.7, 1.5 })

	p.Play(testPayload())

	device.mu.Lock()
	defer device.mu.Unlock()
	if len(device.calls) != 1 {
		t.Fatalf("device started %d times", len(device.calls))
	}
	call := device.calls[0]
	if call.sampleRate != SampleRate {
		t.Errorf("sampleRate = %d, want %d", call.sampleRate, SampleRate)
	}
	if call.volume != 0.7 {
		t.Errorf("volume = %v, want 0.7", call.volume)
	}
	if call.speed != 1.5 {
		t.Errorf("speed = %v, want 1.5", call.speed)
	}
	if len(call.samples) != 2 {
		t.Errorf("got %d samples, want 2", len(call.samples))
	}
}

func TestPlayerSingleActivePlayback(t *testing.T) {
	device := &fakeDevice{}
	p := NewPlayer(device, nil)

	p.Play(testPayload())
	p.Play(testPayload())

	device.mu.Lock()
	defer device.mu.Unlock()
	if len(device.playbacks) != 2 {
		t.Fatalf("got %d playbacks", len(device.playbacks))
	}
	if !device.playbacks[0].isStopped() {
		t.Error("first playback should stop when the second starts")
	}
	if device.playbacks[1].isStopped() {
		t.Error("second playback should still be running")
	}
}

func TestPlayerStop(t *testing.T) {
	device := &fakeDevice{}
	p := NewPlayer(device, nil)

	p.Play(testPayload())
	p.Stop()

	device.mu.Lock()
	defer device.mu.Unlock()
	if !device.playbacks[0].isStopped() {
		t.Error("Stop did not halt the active playback")
	}

	// Stop with nothing active is a no-op.
	p.Stop()
}

func TestPlayerSwallowsDecodeFailure(t *testing.T) {
	device := &fakeDevice{}
	p := NewPlayer(device, nil)

	p.Play("data:audio/pcm;base64,@@@not-base64@@@")

	device.mu.Lock()
	defer device.mu.Unlock()
	if len(device.calls) != 0 {
		t.Error("device should not start on a bad payload")
	}
}

func TestPlayerSwallowsDeviceFailure(t *testing.T) {
	device := &fakeDevice{err: errors.New("no output device")}
	p := NewPlayer(device, nil)

	p.Play(testPayload())
	// A failed start leaves nothing active; Stop stays a no-op.
	p.Stop()
}
