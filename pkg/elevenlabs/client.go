package elevenlabs

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"time"
)

const (
	// DefaultBaseURL is the ElevenLabs API origin. Endpoint paths carry
	// their own /v1 or /v2 prefix.
	DefaultBaseURL = "https://api.elevenlabs.io"

	// DefaultWSBaseURL is the websocket origin for realtime synthesis.
	DefaultWSBaseURL = "wss://api.elevenlabs.io"

	// DefaultTimeout is the default request timeout. Generation calls
	// render audio synchronously, so this is deliberately generous.
	DefaultTimeout = 120 * time.Second

	// DefaultMaxRetries is the default retry ceiling for transient
	// failures.
	DefaultMaxRetries = 3

	// DefaultBackoffInitial is the first retry pause.
	DefaultBackoffInitial = time.Second

	// DefaultBackoffMax caps the retry pause.
	DefaultBackoffMax = 30 * time.Second

	// DefaultChunkSize is the read size for streamed audio chunks.
	DefaultChunkSize = 64 * 1024
)

// Client is the ElevenLabs API client.
type Client struct {
	// TTS provides text-to-speech synthesis.
	TTS *TTSService

	// Speech provides speech-to-speech conversion.
	Speech *SpeechService

	// Voices provides voice listing, lookup, cloning, and the voice
	// resolution layer with its preview cache.
	Voices *VoiceService

	// Design provides voice design and saving designed voices.
	Design *DesignService

	// SoundEffects provides sound effect generation.
	SoundEffects *SoundEffectService

	// Music provides music generation.
	Music *MusicService

	// Realtime provides websocket streaming synthesis sessions.
	Realtime *RealtimeService

	config *clientConfig
	http   *httpClient
}

// clientConfig holds the client configuration.
type clientConfig struct {
	apiKey         string
	baseURL        string
	wsBaseURL      string
	httpClient     *http.Client
	timeout        time.Duration
	maxRetries     int
	backoffInitial time.Duration
	backoffMax     time.Duration
	chunkSize      int
	previews       *PreviewCache
}

// Option configures the client.
type Option func(*clientConfig)

// WithBaseURL sets a custom API origin.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithWSBaseURL sets a custom websocket origin for realtime sessions.
func WithWSBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.wsBaseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}

// WithRetry sets the retry ceiling for transient errors.
func WithRetry(maxRetries int) Option {
	return func(c *clientConfig) {
		c.maxRetries = maxRetries
	}
}

// WithBackoff sets the initial and maximum retry pause. A provider
// retry-after hint still overrides the computed pause.
func WithBackoff(initial, max time.Duration) Option {
	return func(c *clientConfig) {
		c.backoffInitial = initial
		c.backoffMax = max
	}
}

// WithPreviewCache shares a voice preview cache across clients. Hosts
// that construct a fresh client per invocation pass the same cache so
// voice resolution stays warm across executions.
func WithPreviewCache(cache *PreviewCache) Option {
	return func(c *clientConfig) {
		c.previews = cache
	}
}

// NewClient creates a new ElevenLabs API client.
//
// Example:
//
//	client := elevenlabs.NewClient(apiKey)
//	client := elevenlabs.NewClient(apiKey, elevenlabs.WithTimeout(5*time.Minute))
func NewClient(apiKey string, opts ...Option) *Client {
	cfg := &clientConfig{
		apiKey:         apiKey,
		baseURL:        DefaultBaseURL,
		wsBaseURL:      DefaultWSBaseURL,
		timeout:        DefaultTimeout,
		maxRetries:     DefaultMaxRetries,
		backoffInitial: DefaultBackoffInitial,
		backoffMax:     DefaultBackoffMax,
		chunkSize:      DefaultChunkSize,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.httpClient == nil {
		cfg.httpClient = &http.Client{
			Timeout: cfg.timeout,
		}
	}
	if cfg.previews == nil {
		cfg.previews = NewPreviewCache()
	}

	c := &Client{
		config: cfg,
		http:   newHTTPClient(cfg),
	}

	c.TTS = newTTSService(c)
	c.Speech = newSpeechService(c)
	c.Voices = newVoiceService(c)
	c.Design = newDesignService(c)
	c.SoundEffects = newSoundEffectService(c)
	c.Music = newMusicService(c)
	c.Realtime = newRealtimeService(c)

	return c
}

// BaseURL returns the configured API origin.
func (c *Client) BaseURL() string {
	return c.config.baseURL
}

// KeyFingerprint returns a short non-secret digest of the API key. It
// keys the preview cache so entries resolved under one key are never
// reused under another; the raw key is never stored or logged.
func (c *Client) KeyFingerprint() string {
	return keyFingerprint(c.config.apiKey)
}

func keyFingerprint(apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return hex.EncodeToString(sum[:8])
}
