package audio

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// SampleRate is the fixed rate of backend speech payloads: raw
// little-endian 16-bit signed PCM, mono, 24kHz.
const SampleRate = 24000

const pcmDataURIPrefix = "data:audio/pcm;base64,"

// DecodePayload turns a stored audio reference (a PCM data URI or a bare
// base64 string) into normalized samples.
func DecodePayload(audioURL string) ([]float32, error) {
	b64 := strings.TrimPrefix(audioURL, pcmDataURIPrefix)
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("invalid audio payload: %w", err)
	}
	if len(raw) < 2 {
		return nil, fmt.Errorf("audio payload too short: %d bytes", len(raw))
	}
	return DecodePCM(raw), nil
}

// DecodePCM converts little-endian 16-bit signed samples to floats in
// [-1,1], dividing by 32768. A trailing odd byte is dropped.
func DecodePCM(raw []byte) []float32 {
	n := len(raw) / 2
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		v := int16(uint16(raw[2*i]) | uint16(raw[2*i+1])<<8)
		samples[i] = float32(v) / 32768
	}
	return samples
}

// EncodePCM converts normalized samples back to little-endian 16-bit
// signed bytes, clamping to the legal range.
func EncodePCM(samples []float32) []byte {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		if s > 1 {
			s = 1
		}
		if s < -1 {
			s = -1
		}
		v := int16(s * 32767)
		out[2*i] = byte(uint16(v))
		out[2*i+1] = byte(uint16(v) >> 8)
	}
	return out
}

// ApplyGain scales samples in place by volume.
func ApplyGain(samples []float32, volume float64) {
	for i := range samples {
		samples[i] *= float32(volume)
	}
}

// Resample time-stretches samples by the playback speed using linear
// interpolation: speed 2.0 halves the duration, 0.5 doubles it.
func Resample(samples []float32, speed float64) []float32 {
	if speed <= 0 || speed == 1.0 || len(samples) == 0 {
		return samples
	}
	n := int(float64(len(samples)) / speed)
	if n < 1 {
		n = 1
	}
	out := make([]float32, n)
	for i := 0; i < n; i++ {
		pos := float64(i) * speed
		j := int(pos)
		if j >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := float32(pos - float64(j))
		out[i] = samples[j]*(1-frac) + samples[j+1]*frac
	}
	return out
}
