package elevenlabs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"google.golang.org/api/iterator"
)

// PresetVoice names a voice bundled with the provider. Preset tags
// resolve through a static table and are accessible to any valid
// account, so resolving one can never be denied.
type PresetVoice string

const (
	PresetAlexandra PresetVoice = "Alexandra"
	PresetAntoni    PresetVoice = "Antoni"
	PresetAustin    PresetVoice = "Austin"
	PresetClyde     PresetVoice = "Clyde"
	PresetDave      PresetVoice = "Dave"
	PresetDomi      PresetVoice = "Domi"
	PresetDrew      PresetVoice = "Drew"
	PresetFin       PresetVoice = "Fin"
	PresetHope      PresetVoice = "Hope"
	PresetJames     PresetVoice = "James"
	PresetJane      PresetVoice = "Jane"
	PresetPaul      PresetVoice = "Paul"
	PresetRachel    PresetVoice = "Rachel"
	PresetSarah     PresetVoice = "Sarah"
	PresetThomas    PresetVoice = "Thomas"
)

// presetVoiceIDs maps preset tags to their provider voice ids.
var presetVoiceIDs = map[PresetVoice]string{
	PresetAlexandra: "kdmDKE6EkgrWrrykO9Qt",
	PresetAntoni:    "ErXwobaYiN019PkySvjV",
	PresetAustin:    "Bj9UqZbhQsanLzgalpEG",
	PresetClyde:     "2EiwWnXFnvU5JabPnv8n",
	PresetDave:      "CYw3kZ02Hs0563khs1Fj",
	PresetDomi:      "AZnzlk1XvdvUeBnXmlld",
	PresetDrew:      "29vD33N1CtxCmqQRPOHJ",
	PresetFin:       "D38z5RcWu1voky8WS1ja",
	PresetHope:      "tnSpp4vdxKPjI9w0GnoV",
	PresetJames:     "EkK5I93UQWFDigLMpZcX",
	PresetJane:      "RILOU7YmBhvwJGDGjNmP",
	PresetPaul:      "5Q0t7uMcjvnagumLfvZi",
	PresetRachel:    "21m00Tcm4TlvDq8ikWAM",
	PresetSarah:     "EXAVITQu4vr4xnSDxMaL",
	PresetThomas:    "GBv7mTt0atIp3Br8iCZE",
}

// PresetVoices returns all preset tags in name order.
func PresetVoices() []PresetVoice {
	out := make([]PresetVoice, 0, len(presetVoiceIDs))
	for name := range presetVoiceIDs {
		out = append(out, name)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// VoiceRef refers to a voice either by preset tag or by custom voice id.
// The zero value is invalid.
type VoiceRef struct {
	preset PresetVoice
	id     string
}

// Preset builds a reference to a bundled voice.
func Preset(name PresetVoice) VoiceRef {
	return VoiceRef{preset: name}
}

// VoiceID builds a reference to a custom voice by its opaque id.
func VoiceID(id string) VoiceRef {
	return VoiceRef{id: id}
}

// ParseVoiceRef interprets s as a preset tag when it matches one, and
// as a custom voice id otherwise.
func ParseVoiceRef(s string) VoiceRef {
	if _, ok := presetVoiceIDs[PresetVoice(s)]; ok {
		return Preset(PresetVoice(s))
	}
	return VoiceID(s)
}

// IsZero reports whether the reference is empty.
func (r VoiceRef) IsZero() bool {
	return r.preset == "" && r.id == ""
}

// String returns the preset tag or the raw voice id.
func (r VoiceRef) String() string {
	if r.preset != "" {
		return string(r.preset)
	}
	return r.id
}

// Voice is a voice record from the provider.
type Voice struct {
	ID          string            `json:"voice_id"`
	Name        string            `json:"name"`
	Category    string            `json:"category,omitempty"`
	Description string            `json:"description,omitempty"`
	Labels      map[string]string `json:"labels,omitempty"`
	PreviewURL  string            `json:"preview_url,omitempty"`
	IsOwner     bool              `json:"is_owner,omitempty"`
	CreatedAt   int64             `json:"created_at_unix,omitempty"`
}

// VoicePreview is a resolved voice reference with its audition sample.
type VoicePreview struct {
	VoiceID    string    `json:"voice_id"`
	Name       string    `json:"name,omitempty"`
	PreviewURL string    `json:"preview_url,omitempty"`
	ResolvedAt time.Time `json:"resolved_at"`
}

// PreviewCache holds resolved voice previews. Entries record the key
// fingerprint they were resolved under; a lookup with a different
// fingerprint misses, so switching keys forces re-resolution. One entry
// per voice id, no size eviction, process-local only.
//
// Safe for concurrent use. Two goroutines resolving the same voice may
// both hit the network; the last write wins, which is correct because
// both resolved the same record.
type PreviewCache struct {
	mu      sync.RWMutex
	entries map[string]previewEntry
}

type previewEntry struct {
	fingerprint string
	preview     VoicePreview
}

// NewPreviewCache creates an empty preview cache.
func NewPreviewCache() *PreviewCache {
	return &PreviewCache{entries: make(map[string]previewEntry)}
}

func (c *PreviewCache) lookup(fingerprint, voiceID string) (VoicePreview, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[voiceID]
	if !ok || e.fingerprint != fingerprint {
		return VoicePreview{}, false
	}
	return e.preview, true
}

func (c *PreviewCache) store(fingerprint, voiceID string, p VoicePreview) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[voiceID] = previewEntry{fingerprint: fingerprint, preview: p}
}

// VoiceService provides voice management and resolution operations.
type VoiceService struct {
	client *Client
}

func newVoiceService(client *Client) *VoiceService {
	return &VoiceService{client: client}
}

// DefaultPageSize is the listing page size when none is given.
const DefaultPageSize = 10

// MaxPageSize is the largest page size the provider accepts.
const MaxPageSize = 100

// ListOptions filters voice listing.
type ListOptions struct {
	// PageSize is the number of voices per page, default DefaultPageSize.
	PageSize int

	// Search filters by name, description, or label text.
	Search string

	// Category filters by voice category: premade, cloned, generated,
	// or professional.
	Category string
}

// voiceListResponse is the wire shape of one listing page.
type voiceListResponse struct {
	Voices        []Voice `json:"voices"`
	HasMore       bool    `json:"has_more"`
	TotalCount    int     `json:"total_count"`
	NextPageToken string  `json:"next_page_token"`
}

// VoicePage is one page of listing results.
type VoicePage struct {
	// Voices are the page entries in provider order.
	Voices []Voice

	// PageIndex counts pages from 0 within one iterator.
	PageIndex int

	// HasMore reports whether another page follows.
	HasMore bool

	// TotalCount is the provider's total matching count.
	TotalCount int
}

// List returns a lazy sequence of voices across all pages.
//
// Each range over the sequence starts a fresh walk at page 0; iterators
// share no cursor state. A page request failure yields the error and
// ends the sequence.
//
// Example:
//
//	for voice, err := range client.Voices.List(ctx, nil) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(voice.Name)
//	}
func (s *VoiceService) List(ctx context.Context, opts *ListOptions) iter.Seq2[*Voice, error] {
	return func(yield func(*Voice, error) bool) {
		it := s.Pages(ctx, opts)
		for {
			page, err := it.Next()
			if err == iterator.Done {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			for i := range page.Voices {
				if !yield(&page.Voices[i], nil) {
					return
				}
			}
		}
	}
}

// Pages returns a page-by-page iterator over the voice listing.
// Next returns iterator.Done after the last page.
func (s *VoiceService) Pages(ctx context.Context, opts *ListOptions) *PageIterator {
	it := &PageIterator{svc: s, ctx: ctx}
	if opts != nil {
		it.opts = *opts
	}
	if it.opts.PageSize <= 0 {
		it.opts.PageSize = DefaultPageSize
	}
	if it.opts.PageSize > MaxPageSize {
		it.opts.PageSize = MaxPageSize
	}
	return it
}

// PageIterator walks the voice listing one page at a time. Each
// iterator owns its own cursor; a fresh iterator always begins at
// page 0.
type PageIterator struct {
	svc       *VoiceService
	ctx       context.Context
	opts      ListOptions
	pageIndex int
	nextToken string
	done      bool
}

// Next fetches the next page. It returns iterator.Done when the listing
// is exhausted. A request failure terminates the iterator and is
// returned as-is.
func (it *PageIterator) Next() (*VoicePage, error) {
	if it.done {
		return nil, iterator.Done
	}

	q := url.Values{}
	q.Set("page_size", strconv.Itoa(it.opts.PageSize))
	if it.opts.Search != "" {
		q.Set("search", it.opts.Search)
	}
	if it.opts.Category != "" {
		q.Set("category", it.opts.Category)
	}
	if it.nextToken != "" {
		q.Set("next_page_token", it.nextToken)
	}

	var resp voiceListResponse
	if err := it.svc.client.http.request(it.ctx, http.MethodGet, "/v2/voices", q, nil, &resp); err != nil {
		it.done = true
		return nil, err
	}

	page := &VoicePage{
		Voices:     resp.Voices,
		PageIndex:  it.pageIndex,
		HasMore:    resp.HasMore,
		TotalCount: resp.TotalCount,
	}
	it.pageIndex++
	it.nextToken = resp.NextPageToken
	if !resp.HasMore || resp.NextPageToken == "" {
		it.done = true
	}
	return page, nil
}

// Get fetches a voice by id. A 403 or 404 on the voice endpoint is
// returned as VoiceAccessDenied or VoiceNotFound.
func (s *VoiceService) Get(ctx context.Context, voiceID string) (*Voice, error) {
	if voiceID == "" {
		return nil, validationErrorf("voice id is required")
	}
	var v Voice
	err := s.client.http.request(ctx, http.MethodGet, "/v1/voices/"+url.PathEscape(voiceID), nil, nil, &v)
	if err != nil {
		return nil, refineVoiceError(err, voiceID)
	}
	return &v, nil
}

// Delete removes a custom voice from the account.
func (s *VoiceService) Delete(ctx context.Context, voiceID string) error {
	if voiceID == "" {
		return validationErrorf("voice id is required")
	}
	err := s.client.http.request(ctx, http.MethodDelete, "/v1/voices/"+url.PathEscape(voiceID), nil, nil, nil)
	if err != nil {
		return refineVoiceError(err, voiceID)
	}
	return nil
}

// CloneSample is one audio sample for instant voice cloning.
type CloneSample struct {
	// Name is the sample filename sent to the provider.
	Name string `json:"name" yaml:"name"`

	// Data is the raw audio bytes.
	Data []byte `json:"-" yaml:"-"`
}

// CloneRequest creates a custom voice from audio samples.
type CloneRequest struct {
	// Name is the display name of the new voice. Required.
	Name string `json:"name" yaml:"name"`

	// Description describes the voice.
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Labels tag the voice with free-form metadata.
	Labels map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`

	// Samples are the cloning source recordings, 1 to 25.
	Samples []CloneSample `json:"-" yaml:"-"`

	// RemoveBackgroundNoise cleans the samples before cloning.
	RemoveBackgroundNoise bool `json:"remove_background_noise,omitempty" yaml:"remove_background_noise,omitempty"`
}

// maxCloneSamples is the provider's cap on cloning source files.
const maxCloneSamples = 25

func (r *CloneRequest) validate() error {
	if r.Name == "" {
		return validationErrorf("clone: name is required")
	}
	if len(r.Samples) == 0 {
		return validationErrorf("clone: at least one audio sample is required")
	}
	if len(r.Samples) > maxCloneSamples {
		return validationErrorf("clone: at most %d samples allowed, got %d", maxCloneSamples, len(r.Samples))
	}
	for i, s := range r.Samples {
		if len(s.Data) == 0 {
			return validationErrorf("clone: sample %d is empty", i)
		}
	}
	return nil
}

// AddResponse is the result of creating a voice.
type AddResponse struct {
	VoiceID              string `json:"voice_id"`
	RequiresVerification bool   `json:"requires_verification"`
}

// Add creates a custom voice by instant cloning.
func (s *VoiceService) Add(ctx context.Context, req *CloneRequest) (*AddResponse, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	fields := map[string]string{
		"name": req.Name,
	}
	if req.Description != "" {
		fields["description"] = req.Description
	}
	if len(req.Labels) > 0 {
		labels, err := json.Marshal(req.Labels)
		if err != nil {
			return nil, fmt.Errorf("marshal labels: %w", err)
		}
		fields["labels"] = string(labels)
	}
	if req.RemoveBackgroundNoise {
		fields["remove_background_noise"] = "true"
	}

	parts := make([]formPart, 0, len(req.Samples))
	for i, sample := range req.Samples {
		name := sample.Name
		if name == "" {
			name = fmt.Sprintf("sample_%d.mp3", i)
		}
		parts = append(parts, formPart{field: "files", filename: name, data: sample.Data})
	}

	var resp AddResponse
	if err := s.client.http.upload(ctx, "/v1/voices/add", nil, fields, parts, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Resolve resolves a voice reference to a validated voice id with its
// preview, consulting the cache first.
//
// Preset tags resolve through the static table and always succeed; the
// preview URL is fetched lazily on first access and a fetch failure
// only degrades the preview, never the resolution. Custom ids are
// probed against the account: VoiceNotFound means the id does not
// exist, VoiceAccessDenied means it exists but the active key's account
// has not added it to My Voices.
func (s *VoiceService) Resolve(ctx context.Context, ref VoiceRef) (*VoicePreview, error) {
	if ref.IsZero() {
		return nil, validationErrorf("voice reference is empty")
	}

	fingerprint := s.client.KeyFingerprint()
	cache := s.client.config.previews

	if ref.preset != "" {
		id, ok := presetVoiceIDs[ref.preset]
		if !ok {
			return nil, validationErrorf("unknown preset voice %q", ref.preset)
		}
		if p, ok := cache.lookup(fingerprint, id); ok {
			return &p, nil
		}
		p := VoicePreview{VoiceID: id, Name: string(ref.preset), ResolvedAt: time.Now()}
		v, err := s.Get(ctx, id)
		if err != nil {
			// Preset ids are valid by construction; a failed preview
			// fetch must not block resolution.
			slog.Debug("elevenlabs: preset preview fetch failed",
				"voice", ref.preset, "error", err)
			return &p, nil
		}
		p.PreviewURL = v.PreviewURL
		if v.Name != "" {
			p.Name = v.Name
		}
		cache.store(fingerprint, id, p)
		return &p, nil
	}

	if p, ok := cache.lookup(fingerprint, ref.id); ok {
		return &p, nil
	}
	v, err := s.Get(ctx, ref.id)
	if err != nil {
		return nil, err
	}
	p := VoicePreview{
		VoiceID:    v.ID,
		Name:       v.Name,
		PreviewURL: v.PreviewURL,
		ResolvedAt: time.Now(),
	}
	cache.store(fingerprint, ref.id, p)
	return &p, nil
}

// FetchPreview resolves the reference and downloads its preview sample.
// The returned bytes are the provider's MP3 audition clip.
func (s *VoiceService) FetchPreview(ctx context.Context, ref VoiceRef) ([]byte, error) {
	p, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if p.PreviewURL == "" {
		return nil, &Error{
			Kind:    KindNotFound,
			Message: fmt.Sprintf("voice %s has no preview sample", p.VoiceID),
			VoiceID: p.VoiceID,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.PreviewURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create preview request: %w", err)
	}
	resp, err := s.client.config.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: err.Error(), VoiceID: p.VoiceID, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, &Error{
			Kind:       kindForStatus(resp.StatusCode, ""),
			Message:    "preview download failed",
			HTTPStatus: resp.StatusCode,
			VoiceID:    p.VoiceID,
		}
	}
	return io.ReadAll(resp.Body)
}

// refineVoiceError narrows transport errors from voice endpoints to the
// voice-specific kinds and attaches remediation wording.
func refineVoiceError(err error, voiceID string) error {
	apiErr, ok := AsError(err)
	if !ok {
		return err
	}
	apiErr.VoiceID = voiceID
	switch apiErr.Kind {
	case KindForbidden:
		apiErr.Kind = KindVoiceAccessDenied
		apiErr.Message = fmt.Sprintf(
			"access to voice %s was denied; confirm the voice has been added to My Voices under the account that owns the active API key", voiceID)
	case KindNotFound:
		apiErr.Kind = KindVoiceNotFound
		apiErr.Message = fmt.Sprintf("voice %s does not exist", voiceID)
	}
	return apiErr
}
