package audio

import (
	"encoding/base64"
	"math"
	"testing"
)

func TestDecodePCMKnownBytes(t *testing.T) {
	// 0x0000 = 0, 0x4000 = 16384, 0x8000 = -32768 (little endian).
	raw := []byte{0x00, 0x00, 0x00, 0x40, 0x00, 0x80}
	samples := DecodePCM(raw)
	if len(samples) != 3 {
		t.Fatalf("got %d samples, want 3", len(samples))
	}
	if samples[0] != 0 {
		t.Errorf("samples[0] = %v, want 0", samples[0])
	}
	if samples[1] != 0.5 {
		t.Errorf("samples[1] = %v, want 0.5", samples[1])
	}
	if samples[2] != -1 {
		t.Errorf("samples[2] = %v, want -1", samples[2])
	}
}

func TestDecodePCMDropsTrailingByte(t *testing.T) {
	samples := DecodePCM([]byte{0x00, 0x40, 0xFF})
	if len(samples) != 1 {
		t.Errorf("got %d samples, want 1", len(samples))
	}
}

func TestDecodePayloadWithAndWithoutPrefix(t *testing.T) {
	b64 := base64.StdEncoding.EncodeToString([]byte{0x00, 0x40})

	for _, url := range []string{b64, "data:audio/pcm;base64," + b64} {
		samples, err := DecodePayload(url)
		if err != nil {
			t.Fatalf("DecodePayload(%q): %v", url, err)
		}
		if len(samples) != 1 || samples[0] != 0.5 {
			t.Errorf("samples = %v", samples)
		}
	}
}

func TestDecodePayloadInvalid(t *testing.T) {
	if _, err := DecodePayload("not base64!!!"); err == nil {
		t.Error("expected an error for invalid base64")
	}
	if _, err := DecodePayload(base64.StdEncoding.EncodeToString([]byte{0x01})); err == nil {
		t.Error("expected an error for a sub-sample payload")
	}
}

func TestEncodePCMRoundTrip(t *testing.T) {
	in := []float32{0, 0.5, -0.5, 1, -1}
	out := DecodePCM(EncodePCM(in))
	if len(out) != len(in) {
		t.Fatalf("got %d samples", len(out))
	}
	for i := range in {
		if math.Abs(float64(out[i]-in[i])) > 0.001 {
			t.Errorf("sample %d: %v -> %v", i, in[i], out[i])
		}
	}
}

func TestEncodePCMClamps(t *testing.T) {
	out := DecodePCM(EncodePCM([]float32{2.5, -7}))
	if out[0] < 0.99 {
		t.Errorf("over-range sample should clamp near 1, got %v", out[0])
	}
	if out[1] > -0.99 {
		t.Errorf("under-range sample should clamp near -1, got %v", out[1])
	}
}

func TestApplyGain(t *testing.T) {
	samples := []float32{1, -0.5}
	ApplyGain(samples, 0.5)
	if samples[0] != 0.5 || samples[1] != -0.25 {
		t.Errorf("samples = %v", samples)
	}
}

func TestResample(t *testing.T) {
	in := []float32{0, 1, 0, -1}

	if got := Resample(in, 1.0); len(got) != 4 {
		t.Errorf("speed 1.0 should pass through, got %d samples", len(got))
	}
	if got := Resample(in, 2.0); len(got) != 2 {
		t.Errorf("speed 2.0 should halve duration, got %d samples", len(got))
	}
	if got := Resample(in, 0.5); len(got) != 8 {
		t.Errorf("speed 0.5 should double duration, got %d samples", len(got))
	}
	if got := Resample(nil, 2.0); len(got) != 0 {
		t.Errorf("empty input should stay empty")
	}
}

func TestResampleInterpolates(t *testing.T) {
	in := []float32{0, 1}
	out := Resample(in, 0.5)
	// Position 1 of the output sits halfway between the two inputs.
	if math.Abs(float64(out[1]-0.5)) > 0.001 {
		t.Errorf("out[1] = %v, want 0.5", out[1])
	}
}
