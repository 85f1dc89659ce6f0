package elevenlabs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/voxflow/voxflow/pkg/encoding"
)

// RealtimeService synthesizes speech over a bidirectional WebSocket,
// for callers that produce text incrementally and want audio back
// before the text is complete.
type RealtimeService struct {
	client *Client
}

func newRealtimeService(client *Client) *RealtimeService {
	return &RealtimeService{client: client}
}

// RealtimeOptions configure a realtime session.
type RealtimeOptions struct {
	// Model selects the generation model, default ModelFlashV25.
	Model Model `json:"model_id,omitempty" yaml:"model,omitempty"`

	// Format selects the audio encoding, default DefaultFormat.
	Format OutputFormat `json:"-" yaml:"format,omitempty"`

	// Settings override the voice's delivery settings for the session.
	Settings *VoiceSettings `json:"voice_settings,omitempty" yaml:"settings,omitempty"`

	// AutoMode generates as soon as text arrives instead of waiting to
	// fill a chunk schedule. Lower latency, best for full sentences.
	AutoMode bool `json:"auto_mode,omitempty" yaml:"auto_mode,omitempty"`

	// InactivityTimeout is how many seconds the provider keeps an idle
	// socket open, up to 180. Zero keeps the provider default.
	InactivityTimeout int `json:"inactivity_timeout,omitempty" yaml:"inactivity_timeout,omitempty"`

	// SyncAlignment asks for character timing data with each chunk.
	SyncAlignment bool `json:"sync_alignment,omitempty" yaml:"sync_alignment,omitempty"`
}

// Alignment maps spoken characters to their clip timings.
type Alignment struct {
	Chars        []string `json:"chars"`
	StartTimesMS []int    `json:"charStartTimesMs"`
	DurationsMS  []int    `json:"charDurationsMs"`
}

// RealtimeChunk is one audio chunk from a realtime session.
type RealtimeChunk struct {
	Audio     []byte     `json:"-"`
	IsFinal   bool       `json:"is_final"`
	Alignment *Alignment `json:"alignment,omitempty"`
}

// RealtimeSession is an open stream-input synthesis session. Text goes
// in with SendText, audio comes out through Recv. A session is done
// after Finish and the final chunk, or after Close.
type RealtimeSession struct {
	conn    *websocket.Conn
	client  *Client
	voiceID string

	recvChan  chan *RealtimeChunk
	errChan   chan error
	closeChan chan struct{}
	closeOnce sync.Once
}

// OpenSession resolves the voice and opens a realtime session to it.
//
// Example:
//
//	session, err := client.Realtime.OpenSession(ctx, elevenlabs.Preset(elevenlabs.PresetRachel), nil)
//	if err != nil {
//	    return err
//	}
//	defer session.Close()
//
//	session.SendText("It rained all ")
//	session.SendText("night.")
//	session.Finish()
//
//	for chunk, err := range session.Recv() {
//	    if err != nil {
//	        return err
//	    }
//	    // play chunk.Audio
//	}
func (s *RealtimeService) OpenSession(ctx context.Context, voice VoiceRef, opts *RealtimeOptions) (*RealtimeSession, error) {
	if opts == nil {
		opts = &RealtimeOptions{}
	}
	if opts.Settings != nil {
		if err := opts.Settings.validate(); err != nil {
			return nil, err
		}
	}
	p, err := s.client.Voices.Resolve(ctx, voice)
	if err != nil {
		return nil, err
	}

	model := opts.Model
	if model == "" {
		model = ModelFlashV25
	}
	format := opts.Format
	if format == "" {
		format = DefaultFormat
	}
	q := url.Values{
		"model_id":      {string(model)},
		"output_format": {string(format)},
	}
	if opts.AutoMode {
		q.Set("auto_mode", "true")
	}
	if opts.InactivityTimeout > 0 {
		q.Set("inactivity_timeout", strconv.Itoa(opts.InactivityTimeout))
	}
	if opts.SyncAlignment {
		q.Set("sync_alignment", "true")
	}
	endpoint := s.client.config.wsBaseURL + "/v1/text-to-speech/" + url.PathEscape(p.VoiceID) + "/stream-input?" + q.Encode()

	headers := http.Header{}
	headers.Set("xi-api-key", s.client.config.apiKey)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, endpoint, headers)
	if err != nil {
		if resp != nil {
			body, _ := io.ReadAll(resp.Body)
			return nil, &Error{
				Kind:       kindForStatus(resp.StatusCode, ""),
				Message:    fmt.Sprintf("websocket connect failed: %s", string(body)),
				HTTPStatus: resp.StatusCode,
				VoiceID:    p.VoiceID,
				Err:        err,
			}
		}
		return nil, &Error{Kind: KindNetwork, Message: "websocket connect failed", VoiceID: p.VoiceID, Err: err}
	}

	session := &RealtimeSession{
		conn:      conn,
		client:    s.client,
		voiceID:   p.VoiceID,
		recvChan:  make(chan *RealtimeChunk, 100),
		errChan:   make(chan error, 1),
		closeChan: make(chan struct{}),
	}

	go session.receiveLoop()

	// The opening message carries the session voice settings. The
	// single space is the protocol's session-start marker.
	start := map[string]any{"text": " "}
	if opts.Settings != nil {
		start["voice_settings"] = opts.Settings
	}
	if err := conn.WriteJSON(start); err != nil {
		session.Close()
		return nil, fmt.Errorf("session start failed: %w", err)
	}

	return session, nil
}

// VoiceID returns the resolved voice the session speaks with.
func (s *RealtimeSession) VoiceID() string {
	return s.voiceID
}

// SendText queues text for synthesis. Text must be non-empty; an empty
// string is the protocol's end marker and is sent by Finish.
func (s *RealtimeSession) SendText(text string) error {
	if text == "" {
		return validationErrorf("realtime: text must be non-empty")
	}
	return s.conn.WriteJSON(map[string]any{"text": text})
}

// Flush forces generation of everything queued so far without ending
// the session.
func (s *RealtimeSession) Flush() error {
	return s.conn.WriteJSON(map[string]any{"text": " ", "flush": true})
}

// Finish marks the end of input. The provider then synthesizes the
// remaining text and closes with a final chunk.
func (s *RealtimeSession) Finish() error {
	return s.conn.WriteJSON(map[string]any{"text": ""})
}

// Recv returns an iterator over the session's audio chunks. The
// sequence ends after the final chunk, on error, or when the session
// closes.
func (s *RealtimeSession) Recv() iter.Seq2[*RealtimeChunk, error] {
	return func(yield func(*RealtimeChunk, error) bool) {
		for {
			select {
			case chunk, ok := <-s.recvChan:
				if !ok {
					return
				}
				if !yield(chunk, nil) {
					return
				}
				if chunk.IsFinal {
					return
				}
			case err := <-s.errChan:
				yield(nil, err)
				return
			case <-s.closeChan:
				return
			}
		}
	}
}

// Close tears the session down. It is safe to call more than once and
// after Finish.
func (s *RealtimeSession) Close() error {
	s.closeOnce.Do(func() {
		close(s.closeChan)
		s.conn.WriteJSON(map[string]any{"text": ""})
		s.conn.Close()
	})
	return nil
}

type realtimeMessage struct {
	Audio               encoding.Base64Data `json:"audio"`
	IsFinal             *bool               `json:"isFinal"`
	Alignment           *Alignment          `json:"alignment"`
	NormalizedAlignment *Alignment          `json:"normalizedAlignment"`
	Error               string              `json:"error"`
	Message             string              `json:"message"`
}

func (s *RealtimeSession) receiveLoop() {
	defer close(s.recvChan)

	for {
		select {
		case <-s.closeChan:
			return
		default:
		}

		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				select {
				case s.errChan <- &Error{Kind: KindNetwork, Message: "websocket read failed", VoiceID: s.voiceID, Err: err}:
				default:
				}
			}
			return
		}

		var msg realtimeMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			select {
			case s.errChan <- fmt.Errorf("unmarshal session message: %w", err):
			default:
			}
			return
		}

		if msg.Error != "" {
			detail := msg.Message
			if detail == "" {
				detail = msg.Error
			}
			select {
			case s.errChan <- &Error{Kind: KindServer, Message: detail, APIStatus: msg.Error, VoiceID: s.voiceID}:
			default:
			}
			return
		}

		chunk := &RealtimeChunk{}
		if len(msg.Audio) > 0 {
			chunk.Audio = msg.Audio
		}
		if msg.Alignment != nil {
			chunk.Alignment = msg.Alignment
		} else if msg.NormalizedAlignment != nil {
			chunk.Alignment = msg.NormalizedAlignment
		}
		if msg.IsFinal != nil && *msg.IsFinal {
			chunk.IsFinal = true
		}
		if chunk.Audio == nil && !chunk.IsFinal {
			continue
		}

		select {
		case s.recvChan <- chunk:
		case <-s.closeChan:
			return
		}
		if chunk.IsFinal {
			return
		}
	}
}
