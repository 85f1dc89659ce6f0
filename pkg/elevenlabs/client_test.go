package elevenlabs_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/voxflow/voxflow/pkg/elevenlabs"
)

// counter tracks request counts per endpoint path.
type counter struct {
	mu sync.Mutex
	n  map[string]int
}

func newCounter() *counter {
	return &counter{n: make(map[string]int)}
}

func (c *counter) inc(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n[path]++
}

func (c *counter) get(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n[path]
}

func (c *counter) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	sum := 0
	for _, v := range c.n {
		sum += v
	}
	return sum
}

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

// newTestClient wires a client to a fake API with fast retries.
func newTestClient(t *testing.T, handler http.Handler, opts ...elevenlabs.Option) *elevenlabs.Client {
	t.Helper()
	srv := newTestServer(t, handler)
	base := []elevenlabs.Option{
		elevenlabs.WithBaseURL(srv.URL),
		elevenlabs.WithBackoff(time.Millisecond, 4*time.Millisecond),
	}
	return elevenlabs.NewClient("test-key", append(base, opts...)...)
}

// voiceJSON builds a voice record response body.
func voiceJSON(id, name string) string {
	return fmt.Sprintf(`{"voice_id":%q,"name":%q,"preview_url":"https://cdn.example.com/%s.mp3"}`, id, name, id)
}

// writeAPIError writes the provider's error body shape.
func writeAPIError(w http.ResponseWriter, status int, apiStatus, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"detail":{"status":%q,"message":%q}}`, apiStatus, message)
}

func TestKeyFingerprint(t *testing.T) {
	a := elevenlabs.NewClient("key-one")
	b := elevenlabs.NewClient("key-one")
	c := elevenlabs.NewClient("key-two")

	if a.KeyFingerprint() != b.KeyFingerprint() {
		t.Fatal("same key must produce same fingerprint")
	}
	if a.KeyFingerprint() == c.KeyFingerprint() {
		t.Fatal("different keys must produce different fingerprints")
	}
	if a.KeyFingerprint() == "key-one" {
		t.Fatal("fingerprint must not be the raw key")
	}
	if len(a.KeyFingerprint()) != 16 {
		t.Fatalf("expected 16 hex chars, got %d", len(a.KeyFingerprint()))
	}
}

func TestClientSendsAuthHeader(t *testing.T) {
	var gotKey, gotAgent string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("xi-api-key")
		gotAgent = r.Header.Get("User-Agent")
		fmt.Fprint(w, voiceJSON("v1", "Test"))
	}))

	if _, err := client.Voices.Get(t.Context(), "v1"); err != nil {
		t.Fatal(err)
	}
	if gotKey != "test-key" {
		t.Fatalf("expected api key header, got %q", gotKey)
	}
	if gotAgent == "" {
		t.Fatal("expected a user agent")
	}
}
