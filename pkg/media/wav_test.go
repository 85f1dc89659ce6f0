package media

import (
	"encoding/binary"
	"testing"
)

func TestWrapWAV(t *testing.T) {
	samples := []byte{0x01, 0x02, 0x03, 0x04}
	wav := WrapWAV(samples, WAVPCM16, 16000)

	if got := Detect(wav); got != WAV {
		t.Fatalf("expected wav container, got %s", got)
	}
	if len(wav) != 44+len(samples) {
		t.Fatalf("expected %d bytes, got %d", 44+len(samples), len(wav))
	}
	if got := binary.LittleEndian.Uint16(wav[20:22]); got != 1 {
		t.Fatalf("expected pcm codec tag 1, got %d", got)
	}
	if got := binary.LittleEndian.Uint32(wav[24:28]); got != 16000 {
		t.Fatalf("expected rate 16000, got %d", got)
	}
	if got := binary.LittleEndian.Uint32(wav[28:32]); got != 32000 {
		t.Fatalf("expected byte rate 32000, got %d", got)
	}
	if got := binary.LittleEndian.Uint16(wav[34:36]); got != 16 {
		t.Fatalf("expected 16 bits per sample, got %d", got)
	}
	if got := binary.LittleEndian.Uint32(wav[40:44]); got != uint32(len(samples)) {
		t.Fatalf("expected data length %d, got %d", len(samples), got)
	}
}

func TestWrapWAVTelephony(t *testing.T) {
	cases := []struct {
		name string
		enc  WAVEncoding
		tag  uint16
	}{
		{"ulaw", WAVULaw, 7},
		{"alaw", WAVALaw, 6},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wav := WrapWAV([]byte{0xFF, 0x7F}, tc.enc, 8000)
			if got := Detect(wav); got != WAV {
				t.Fatalf("expected wav container, got %s", got)
			}
			if got := binary.LittleEndian.Uint16(wav[20:22]); got != tc.tag {
				t.Fatalf("expected codec tag %d, got %d", tc.tag, got)
			}
			if got := binary.LittleEndian.Uint16(wav[34:36]); got != 8 {
				t.Fatalf("expected 8 bits per sample, got %d", got)
			}
			if got := binary.LittleEndian.Uint32(wav[28:32]); got != 8000 {
				t.Fatalf("expected byte rate 8000, got %d", got)
			}
		})
	}
}

func TestWrapWAVRoundTrip(t *testing.T) {
	samples := make([]byte, 320)
	wav := WrapWAV(samples, WAVPCM16, 16000)
	clip, err := ExtractAudio(wav)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if clip.Container != WAV {
		t.Fatalf("expected wav clip, got %s", clip.Container)
	}
	if len(clip.Data) != len(wav) {
		t.Fatal("expected wrapped data to pass through unchanged")
	}
}
