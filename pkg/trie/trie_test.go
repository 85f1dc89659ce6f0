package trie

import (
	"errors"
	"testing"
)

func mustSet(t *testing.T, tr *Trie[string], pattern, value string) {
	t.Helper()
	if err := tr.SetValue(pattern, value); err != nil {
		t.Fatalf("SetValue(%q): %v", pattern, err)
	}
}

// TestLookup registers pattern sets and checks which paths they match.
// An empty want marks a path that must not match.
func TestLookup(t *testing.T) {
	tests := []struct {
		name     string
		patterns map[string]string
		queries  map[string]string
	}{
		{
			name: "exact paths",
			patterns: map[string]string{
				"elevenlabs/text-to-speech": "tts",
				"elevenlabs/voice-changer":  "convert",
			},
			queries: map[string]string{
				"elevenlabs/text-to-speech": "tts",
				"elevenlabs/voice-changer":  "convert",
				"elevenlabs/dubbing":        "",
			},
		},
		{
			name:     "plus matches exactly one level",
			patterns: map[string]string{"voices/+/preview": "preview"},
			queries: map[string]string{
				"voices/21m00Tcm4TlvDq8ikWAM/preview": "preview",
				"voices/kdmDKE6EkgrWrrykO9Qt/preview": "preview",
				"voices/preview":                      "",
				"voices/a/b/preview":                  "",
				"models/21m00Tcm4TlvDq8ikWAM/preview": "",
			},
		},
		{
			name:     "hash matches the remaining levels",
			patterns: map[string]string{"elevenlabs/#": "catchall"},
			queries: map[string]string{
				"elevenlabs/text-to-speech": "catchall",
				"elevenlabs/voices/list":    "catchall",
				"elevenlabs/a/b/c/d/e":      "catchall",
				"elevenlabs":                "",
				"openai/text-to-speech":     "",
			},
		},
		{
			name:     "plus and hash combined",
			patterns: map[string]string{"voices/+/samples/#": "samples"},
			queries: map[string]string{
				"voices/v1/samples/s1":       "samples",
				"voices/v2/samples/s1/audio": "samples",
				"voices/v1/preview":          "",
				"voices/samples/s1":          "",
				"voices/a/b/samples/s1":      "",
			},
		},
		{
			name: "exact wins over wildcards",
			patterns: map[string]string{
				"elevenlabs/#":              "catchall",
				"elevenlabs/+":              "wildcard",
				"elevenlabs/text-to-speech": "exact",
			},
			queries: map[string]string{
				"elevenlabs/text-to-speech": "exact",
				"elevenlabs/sound-effects":  "wildcard",
				"elevenlabs/voices/list":    "catchall",
			},
		},
		{
			name:     "empty path addresses the root",
			patterns: map[string]string{"": "root"},
			queries:  map[string]string{"": "root"},
		},
		{
			name:     "trailing slash ignored",
			patterns: map[string]string{"elevenlabs/tts/": "tts"},
			queries:  map[string]string{"elevenlabs/tts": "tts"},
		},
		{
			name:     "interior empty segment kept",
			patterns: map[string]string{"elevenlabs//legacy": "legacy"},
			queries: map[string]string{
				"elevenlabs//legacy": "legacy",
				"elevenlabs/legacy":  "",
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr := New[string]()
			for pattern, value := range tc.patterns {
				mustSet(t, tr, pattern, value)
			}
			for path, want := range tc.queries {
				val, ok := tr.GetValue(path)
				if want == "" {
					if ok {
						t.Errorf("GetValue(%q) = %q, true; want no match", path, val)
					}
					continue
				}
				if !ok || val != want {
					t.Errorf("GetValue(%q) = %q, %v; want %q, true", path, val, ok, want)
				}
			}
		})
	}
}

func TestSetValueRejectsInnerHash(t *testing.T) {
	tr := New[string]()
	if err := tr.SetValue("elevenlabs/#/list", "bad"); !errors.Is(err, ErrInvalidPattern) {
		t.Fatalf("SetValue(elevenlabs/#/list) = %v; want ErrInvalidPattern", err)
	}
}

func TestMatchReportsRoute(t *testing.T) {
	tr := New[string]()
	mustSet(t, tr, "voices/+/preview", "preview")

	route, val, ok := tr.Match("voices/21m00Tcm4TlvDq8ikWAM/preview")
	if !ok {
		t.Fatal("Match reported no match")
	}
	if route != "/voices/+/preview" {
		t.Errorf("route = %q; want /voices/+/preview", route)
	}
	if *val != "preview" {
		t.Errorf("value = %q; want preview", *val)
	}
}

func TestSetCallback(t *testing.T) {
	tr := New[int]()

	err := tr.Set("registrations", func(n *int, existed bool) error {
		if existed {
			t.Error("existed reported true on first Set")
		}
		*n = 1
		return nil
	})
	if err != nil {
		t.Fatalf("Set: %v", err)
	}

	err = tr.Set("registrations", func(n *int, existed bool) error {
		if !existed {
			t.Error("existed reported false on second Set")
		}
		*n++
		return nil
	})
	if err != nil {
		t.Fatalf("Set: %v", err)
	}

	if val, ok := tr.GetValue("registrations"); !ok || val != 2 {
		t.Errorf("GetValue(registrations) = %d, %v; want 2, true", val, ok)
	}
}

func TestSetCallbackError(t *testing.T) {
	tr := New[string]()
	boom := errors.New("boom")

	if err := tr.Set("x", func(*string, bool) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("Set = %v; want callback error", err)
	}
	if _, ok := tr.GetValue("x"); ok {
		t.Error("value stored despite callback error")
	}
}

func TestWalkAndLen(t *testing.T) {
	tr := New[string]()
	if tr.Len() != 0 {
		t.Fatalf("Len = %d on empty trie; want 0", tr.Len())
	}

	mustSet(t, tr, "elevenlabs/text-to-speech", "tts")
	mustSet(t, tr, "elevenlabs/sound-effects", "sfx")
	mustSet(t, tr, "audio/transcode", "transcode")

	if tr.Len() != 3 {
		t.Errorf("Len = %d; want 3", tr.Len())
	}

	visited := 0
	tr.Walk(func(path, value string, has bool) {
		if has {
			visited++
		}
	})
	if visited != 3 {
		t.Errorf("Walk visited %d set nodes; want 3", visited)
	}
}

func TestStringSortsEntries(t *testing.T) {
	tr := New[string]()
	mustSet(t, tr, "elevenlabs/text-to-speech", "tts")
	mustSet(t, tr, "elevenlabs/+", "any")
	mustSet(t, tr, "elevenlabs/#", "catchall")

	want := "elevenlabs/#: catchall\nelevenlabs/+: any\nelevenlabs/text-to-speech: tts"
	if got := tr.String(); got != want {
		t.Errorf("String() = %q; want %q", got, want)
	}
}

func TestStructValues(t *testing.T) {
	type handler struct {
		name string
		fn   func()
	}

	tr := New[handler]()
	tr.SetValue("elevenlabs/text-to-speech", handler{name: "tts"})
	tr.SetValue("elevenlabs/+", handler{name: "fallback"})

	if h, ok := tr.GetValue("elevenlabs/text-to-speech"); !ok || h.name != "tts" {
		t.Errorf("GetValue(elevenlabs/text-to-speech) = %+v, %v; want the tts handler", h, ok)
	}
	if h, ok := tr.GetValue("elevenlabs/music"); !ok || h.name != "fallback" {
		t.Errorf("GetValue(elevenlabs/music) = %+v, %v; want the fallback handler", h, ok)
	}
}
