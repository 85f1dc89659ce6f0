package elevenlabs_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/voxflow/voxflow/pkg/elevenlabs"
)

func TestConvert(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v1/voices/") {
			fmt.Fprint(w, voiceJSON("v-target", "Target"))
			return
		}
		if r.URL.Path != "/v1/speech-to-speech/v-target" {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("output_format"); got != "pcm_16000" {
			t.Errorf("expected pcm_16000, got %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
			return
		}
		if got := r.FormValue("model_id"); got != "eleven_multilingual_sts_v2" {
			t.Errorf("expected default sts model, got %q", got)
		}
		if got := r.FormValue("seed"); got != "42" {
			t.Errorf("expected seed 42, got %q", got)
		}
		if got := r.FormValue("remove_background_noise"); got != "true" {
			t.Errorf("expected noise removal flag, got %q", got)
		}
		var settings elevenlabs.VoiceSettings
		if err := json.Unmarshal([]byte(r.FormValue("voice_settings")), &settings); err != nil {
			t.Errorf("bad voice_settings field: %v", err)
		} else if settings.Stability == nil || *settings.Stability != 0.5 {
			t.Errorf("expected stability 0.5, got %+v", settings)
		}

		file, header, err := r.FormFile("audio")
		if err != nil {
			t.Errorf("missing audio part: %v", err)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if string(data) != "source-clip" {
			t.Errorf("unexpected audio upload %q", data)
		}
		if header.Filename != "take1.wav" {
			t.Errorf("unexpected filename %q", header.Filename)
		}
		w.Write([]byte("converted"))
	}))

	audio, err := client.Speech.Convert(t.Context(), &elevenlabs.ConvertRequest{
		Voice:                 elevenlabs.VoiceID("v-target"),
		Audio:                 []byte("source-clip"),
		Filename:              "take1.wav",
		Format:                elevenlabs.FormatPCM_16000,
		Settings:              &elevenlabs.VoiceSettings{Stability: elevenlabs.Float(0.5)},
		Seed:                  elevenlabs.Int(42),
		RemoveBackgroundNoise: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if string(audio.Data) != "converted" {
		t.Fatalf("unexpected audio %q", audio.Data)
	}
	if audio.Format != elevenlabs.FormatPCM_16000 {
		t.Fatalf("expected pcm_16000, got %s", audio.Format)
	}
}

func TestConvertValidation(t *testing.T) {
	calls := newCounter()
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.inc(r.URL.Path)
	}))

	cases := []struct {
		name string
		req  *elevenlabs.ConvertRequest
	}{
		{"missing voice", &elevenlabs.ConvertRequest{Audio: []byte("x")}},
		{"missing audio", &elevenlabs.ConvertRequest{Voice: elevenlabs.VoiceID("v")}},
		{"tts model", &elevenlabs.ConvertRequest{
			Voice: elevenlabs.VoiceID("v"),
			Audio: []byte("x"),
			Model: elevenlabs.ModelMultilingualV2,
		}},
	}
	for _, tc := range cases {
		if _, err := client.Speech.Convert(t.Context(), tc.req); !elevenlabs.IsValidation(err) {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
	if calls.total() != 0 {
		t.Fatalf("validation failures must not reach the network, got %d calls", calls.total())
	}
}
