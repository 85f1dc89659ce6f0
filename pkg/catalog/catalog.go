// Package catalog persists local snapshots of provider voices and a history
// of generation runs, backed by a [kv.Store]. The CLI syncs the voice
// library into it so cached listings work offline, and appends a record
// after each generation so past runs can be inspected.
//
// KV key layout:
//
//	voices:{fp}:{voiceID}  → msgpack VoiceRecord
//	history:{ts}:{id}      → msgpack GenerationRecord
//
// {fp} is the API key fingerprint (hex, from the client), so snapshots of
// different accounts never mix. {ts} is a zero-padded nanosecond timestamp;
// zero-padding keeps the store's lexicographic listing order chronological.
package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/voxflow/voxflow/pkg/elevenlabs"
	"github.com/voxflow/voxflow/pkg/kv"
)

// Generation kinds, matching the node names that produce them.
const (
	KindTTS          = "text-to-speech"
	KindSpeech       = "speech-to-speech"
	KindSoundEffects = "sound-effects"
	KindMusic        = "music"
	KindDesign       = "voice-design"
)

// VoiceRecord is a synced snapshot of one provider voice. The json tags
// feed the CLI output path, the msgpack tags the stored encoding.
type VoiceRecord struct {
	ID          string            `json:"voice_id" msgpack:"id"`
	Name        string            `json:"name" msgpack:"name"`
	Category    string            `json:"category,omitempty" msgpack:"cat,omitempty"`
	Description string            `json:"description,omitempty" msgpack:"desc,omitempty"`
	Labels      map[string]string `json:"labels,omitempty" msgpack:"lbl,omitempty"`
	PreviewURL  string            `json:"preview_url,omitempty" msgpack:"purl,omitempty"`
	IsOwner     bool              `json:"is_owner,omitempty" msgpack:"own,omitempty"`

	// SyncedAt is the Unix nanosecond timestamp of the sync that wrote
	// this record.
	SyncedAt int64 `json:"synced_at" msgpack:"ts"`
}

// GenerationRecord describes one audio generation run.
type GenerationRecord struct {
	ID        string `json:"id" msgpack:"id"`
	Kind      string `json:"kind" msgpack:"kind"`
	VoiceID   string `json:"voice_id,omitempty" msgpack:"vid,omitempty"`
	VoiceName string `json:"voice_name,omitempty" msgpack:"vname,omitempty"`
	ModelID   string `json:"model_id,omitempty" msgpack:"model,omitempty"`
	Format    string `json:"format,omitempty" msgpack:"fmt,omitempty"`

	// Text is the prompt or input text of the run.
	Text string `json:"text,omitempty" msgpack:"text,omitempty"`

	// Chars counts the billed input characters, Bytes the produced audio.
	Chars int `json:"chars,omitempty" msgpack:"chars,omitempty"`
	Bytes int `json:"bytes,omitempty" msgpack:"bytes,omitempty"`

	// Path is where the artifact was written, empty if it was not saved.
	Path string `json:"path,omitempty" msgpack:"path,omitempty"`

	// Fingerprint is the API key fingerprint the run used.
	Fingerprint string `json:"key_fingerprint,omitempty" msgpack:"fp,omitempty"`

	// CreatedAt is the Unix nanosecond timestamp of the run.
	CreatedAt int64 `json:"created_at" msgpack:"ts"`
}

// Catalog reads and writes voice snapshots and generation history.
// The caller owns the store's lifecycle.
type Catalog struct {
	store kv.Store
}

// New creates a Catalog over store.
func New(store kv.Store) *Catalog {
	return &Catalog{store: store}
}

// voiceKey builds the KV key for a voice snapshot.
// Format: "voices" + {fp} + {voiceID}
func voiceKey(fingerprint, voiceID string) kv.Key {
	return kv.Key{"voices", fingerprint, voiceID}
}

// voicePrefix returns the prefix for listing one account's snapshot.
func voicePrefix(fingerprint string) kv.Key {
	return kv.Key{"voices", fingerprint}
}

// historyKey builds the KV key for a generation record.
// Format: "history" + {ts} + {id}, with ts zero-padded so the encoded
// keys list in chronological order.
func historyKey(ts int64, id string) kv.Key {
	return kv.Key{"history", fmt.Sprintf("%020d", ts), id}
}

var historyPrefix = kv.Key{"history"}

// SyncVoices replaces the snapshot for fingerprint with voices. Records
// for voices no longer present are removed. Returns the snapshot size.
func (c *Catalog) SyncVoices(ctx context.Context, fingerprint string, voices []elevenlabs.Voice) (int, error) {
	now := nowNano()
	keep := make(map[string]bool, len(voices))
	entries := make([]kv.Entry, 0, len(voices))
	for _, v := range voices {
		rec := VoiceRecord{
			ID:          v.ID,
			Name:        v.Name,
			Category:    v.Category,
			Description: v.Description,
			Labels:      v.Labels,
			PreviewURL:  v.PreviewURL,
			IsOwner:     v.IsOwner,
			SyncedAt:    now,
		}
		data, err := msgpack.Marshal(rec)
		if err != nil {
			return 0, fmt.Errorf("catalog: encode voice %s: %w", v.ID, err)
		}
		keep[v.ID] = true
		entries = append(entries, kv.Entry{Key: voiceKey(fingerprint, v.ID), Value: data})
	}

	var stale []kv.Key
	for entry, err := range c.store.List(ctx, voicePrefix(fingerprint)) {
		if err != nil {
			return 0, err
		}
		id := entry.Key[len(entry.Key)-1]
		if !keep[id] {
			stale = append(stale, entry.Key)
		}
	}
	if len(stale) > 0 {
		if err := c.store.BatchDelete(ctx, stale); err != nil {
			return 0, err
		}
	}
	if len(entries) > 0 {
		if err := c.store.BatchSet(ctx, entries); err != nil {
			return 0, err
		}
	}
	return len(entries), nil
}

// Voices returns the snapshot for fingerprint, sorted by voice id.
// An account that was never synced yields an empty slice.
func (c *Catalog) Voices(ctx context.Context, fingerprint string) ([]VoiceRecord, error) {
	var out []VoiceRecord
	for entry, err := range c.store.List(ctx, voicePrefix(fingerprint)) {
		if err != nil {
			return nil, err
		}
		var rec VoiceRecord
		if err := msgpack.Unmarshal(entry.Value, &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

// Voice returns one snapshot record, or kv.ErrNotFound.
func (c *Catalog) Voice(ctx context.Context, fingerprint, voiceID string) (*VoiceRecord, error) {
	data, err := c.store.Get(ctx, voiceKey(fingerprint, voiceID))
	if err != nil {
		return nil, err
	}
	var rec VoiceRecord
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("catalog: decode voice %s: %w", voiceID, err)
	}
	return &rec, nil
}

// ClearVoices removes the snapshot for fingerprint.
func (c *Catalog) ClearVoices(ctx context.Context, fingerprint string) error {
	var keys []kv.Key
	for entry, err := range c.store.List(ctx, voicePrefix(fingerprint)) {
		if err != nil {
			return err
		}
		keys = append(keys, entry.Key)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.store.BatchDelete(ctx, keys)
}

// AppendGeneration stores a generation record and returns its id.
// A missing ID gets a fresh uuid, a zero CreatedAt the current time.
func (c *Catalog) AppendGeneration(ctx context.Context, rec GenerationRecord) (string, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt == 0 {
		rec.CreatedAt = nowNano()
	}
	data, err := msgpack.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("catalog: encode generation: %w", err)
	}
	if err := c.store.Set(ctx, historyKey(rec.CreatedAt, rec.ID), data); err != nil {
		return "", err
	}
	return rec.ID, nil
}

// History returns the n most recent generation records, newest first.
// n <= 0 returns everything.
func (c *Catalog) History(ctx context.Context, n int) ([]GenerationRecord, error) {
	var all []GenerationRecord
	for entry, err := range c.store.List(ctx, historyPrefix) {
		if err != nil {
			return nil, err
		}
		var rec GenerationRecord
		if err := msgpack.Unmarshal(entry.Value, &rec); err != nil {
			continue
		}
		all = append(all, rec)
	}
	// List order is chronological; flip to newest first.
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	if n > 0 && len(all) > n {
		all = all[:n]
	}
	return all, nil
}

// Generation looks up one history record by id. Unique id prefixes are
// accepted, so sessions can reference records the way git references
// commits. Returns kv.ErrNotFound when nothing matches, or an error
// naming the ambiguity when several records share the prefix.
func (c *Catalog) Generation(ctx context.Context, id string) (*GenerationRecord, error) {
	if id == "" {
		return nil, kv.ErrNotFound
	}
	var matches []GenerationRecord
	for entry, err := range c.store.List(ctx, historyPrefix) {
		if err != nil {
			return nil, err
		}
		recID := entry.Key[len(entry.Key)-1]
		if recID != id && !strings.HasPrefix(recID, id) {
			continue
		}
		var rec GenerationRecord
		if err := msgpack.Unmarshal(entry.Value, &rec); err != nil {
			continue
		}
		if recID == id {
			return &rec, nil
		}
		matches = append(matches, rec)
	}
	switch len(matches) {
	case 0:
		return nil, kv.ErrNotFound
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("catalog: id prefix %q matches %d records", id, len(matches))
	}
}

// ClearHistory removes all generation records.
func (c *Catalog) ClearHistory(ctx context.Context) error {
	var keys []kv.Key
	for entry, err := range c.store.List(ctx, historyPrefix) {
		if err != nil {
			return err
		}
		keys = append(keys, entry.Key)
	}
	if len(keys) == 0 {
		return nil
	}
	return c.store.BatchDelete(ctx, keys)
}

// lastNano tracks the most recently returned timestamp to ensure
// monotonicity. If the wall clock hasn't advanced since the last call,
// the counter increments by 1 nanosecond. This prevents history key
// collisions when records are appended in rapid succession.
var lastNano atomic.Int64

// nowNano returns a monotonically increasing Unix nanosecond timestamp.
// Extracted as a variable to allow test injection.
var nowNano = func() int64 {
	now := time.Now().UnixNano()
	for {
		old := lastNano.Load()
		next := now
		if next <= old {
			next = old + 1
		}
		if lastNano.CompareAndSwap(old, next) {
			return next
		}
	}
}
