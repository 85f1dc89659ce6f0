package catalog

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/voxflow/voxflow/pkg/elevenlabs"
	"github.com/voxflow/voxflow/pkg/kv"
)

const testFP = "3f9a2c1b8d4e5f60"

func newTestCatalog(t *testing.T) *Catalog {
	t.Helper()
	store := kv.NewMemory(nil)
	t.Cleanup(func() { store.Close() })
	return New(store)
}

func sampleVoices() []elevenlabs.Voice {
	return []elevenlabs.Voice{
		{
			ID:       "21m00Tcm4TlvDq8ikWAM",
			Name:     "Rachel",
			Category: "premade",
			Labels:   map[string]string{"accent": "american"},
		},
		{
			ID:       "kdmDKE6EkgrWrrykO9Qt",
			Name:     "Alexandra",
			Category: "premade",
		},
		{
			ID:          "v-custom-001",
			Name:        "Narrator",
			Category:    "cloned",
			Description: "calm documentary narrator",
			IsOwner:     true,
		},
	}
}

func TestSyncVoicesAndList(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	n, err := cat.SyncVoices(ctx, testFP, sampleVoices())
	if err != nil {
		t.Fatalf("SyncVoices: %v", err)
	}
	if n != 3 {
		t.Fatalf("SyncVoices = %d, want 3", n)
	}

	recs, err := cat.Voices(ctx, testFP)
	if err != nil {
		t.Fatalf("Voices: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("len(recs) = %d, want 3", len(recs))
	}
	// List order follows voice id.
	if recs[0].ID != "21m00Tcm4TlvDq8ikWAM" || recs[0].Name != "Rachel" {
		t.Errorf("recs[0] = %+v, want Rachel", recs[0])
	}
	if recs[0].Labels["accent"] != "american" {
		t.Errorf("Labels = %v, want accent=american", recs[0].Labels)
	}
	if recs[2].ID != "v-custom-001" || !recs[2].IsOwner {
		t.Errorf("recs[2] = %+v, want owned v-custom-001", recs[2])
	}
	for _, r := range recs {
		if r.SyncedAt == 0 {
			t.Errorf("voice %s has zero SyncedAt", r.ID)
		}
	}
}

func TestSyncVoicesReplacesSnapshot(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	if _, err := cat.SyncVoices(ctx, testFP, sampleVoices()); err != nil {
		t.Fatalf("first SyncVoices: %v", err)
	}

	// Second sync: Rachel survives, the others are gone, one is new.
	next := []elevenlabs.Voice{
		{ID: "21m00Tcm4TlvDq8ikWAM", Name: "Rachel"},
		{ID: "v-custom-002", Name: "Announcer", IsOwner: true},
	}
	n, err := cat.SyncVoices(ctx, testFP, next)
	if err != nil {
		t.Fatalf("second SyncVoices: %v", err)
	}
	if n != 2 {
		t.Fatalf("SyncVoices = %d, want 2", n)
	}

	recs, err := cat.Voices(ctx, testFP)
	if err != nil {
		t.Fatalf("Voices: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len(recs) = %d, want 2", len(recs))
	}
	if _, err := cat.Voice(ctx, testFP, "v-custom-001"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("stale voice lookup err = %v, want ErrNotFound", err)
	}
}

func TestSyncVoicesFingerprintIsolation(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	if _, err := cat.SyncVoices(ctx, testFP, sampleVoices()); err != nil {
		t.Fatalf("SyncVoices: %v", err)
	}
	other := "aaaabbbbccccdddd"
	if _, err := cat.SyncVoices(ctx, other, []elevenlabs.Voice{{ID: "v-other", Name: "Other"}}); err != nil {
		t.Fatalf("SyncVoices other: %v", err)
	}

	recs, err := cat.Voices(ctx, other)
	if err != nil {
		t.Fatalf("Voices: %v", err)
	}
	if len(recs) != 1 || recs[0].ID != "v-other" {
		t.Fatalf("other account sees %+v, want only v-other", recs)
	}

	// Clearing one account leaves the other intact.
	if err := cat.ClearVoices(ctx, other); err != nil {
		t.Fatalf("ClearVoices: %v", err)
	}
	recs, err = cat.Voices(ctx, testFP)
	if err != nil {
		t.Fatalf("Voices: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("len(recs) = %d after clearing other account, want 3", len(recs))
	}
}

func TestVoiceLookup(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	if _, err := cat.SyncVoices(ctx, testFP, sampleVoices()); err != nil {
		t.Fatalf("SyncVoices: %v", err)
	}

	rec, err := cat.Voice(ctx, testFP, "v-custom-001")
	if err != nil {
		t.Fatalf("Voice: %v", err)
	}
	if rec.Name != "Narrator" || rec.Description != "calm documentary narrator" {
		t.Fatalf("rec = %+v", rec)
	}

	if _, err := cat.Voice(ctx, testFP, "nope"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("missing voice err = %v, want ErrNotFound", err)
	}
}

func TestClearVoicesEmpty(t *testing.T) {
	cat := newTestCatalog(t)
	if err := cat.ClearVoices(context.Background(), testFP); err != nil {
		t.Fatalf("ClearVoices on empty snapshot: %v", err)
	}
}

func TestAppendGenerationAssignsIDAndTime(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	origNow := nowNano
	nowNano = func() int64 { return 999 }
	defer func() { nowNano = origNow }()

	id, err := cat.AppendGeneration(ctx, GenerationRecord{
		Kind:    KindTTS,
		VoiceID: "21m00Tcm4TlvDq8ikWAM",
		ModelID: "eleven_multilingual_v2",
		Text:    "Hello from the catalog.",
		Chars:   23,
	})
	if err != nil {
		t.Fatalf("AppendGeneration: %v", err)
	}
	if id == "" {
		t.Fatal("AppendGeneration returned empty id")
	}

	recs, err := cat.History(ctx, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("len(recs) = %d, want 1", len(recs))
	}
	if recs[0].ID != id {
		t.Errorf("ID = %q, want %q", recs[0].ID, id)
	}
	if recs[0].CreatedAt != 999 {
		t.Errorf("CreatedAt = %d, want 999", recs[0].CreatedAt)
	}
	if recs[0].Kind != KindTTS || recs[0].Chars != 23 {
		t.Errorf("rec = %+v", recs[0])
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	runs := []GenerationRecord{
		{ID: "run-a", Kind: KindTTS, CreatedAt: 1000},
		{ID: "run-b", Kind: KindSoundEffects, CreatedAt: 2000},
		{ID: "run-c", Kind: KindMusic, CreatedAt: 3000},
	}
	for _, r := range runs {
		if _, err := cat.AppendGeneration(ctx, r); err != nil {
			t.Fatalf("AppendGeneration: %v", err)
		}
	}

	recs, err := cat.History(ctx, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("len(recs) = %d, want 3", len(recs))
	}
	if recs[0].ID != "run-c" || recs[1].ID != "run-b" || recs[2].ID != "run-a" {
		t.Fatalf("order = %s, %s, %s; want run-c, run-b, run-a", recs[0].ID, recs[1].ID, recs[2].ID)
	}

	// Limit keeps only the newest.
	recs, err = cat.History(ctx, 2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(recs) != 2 || recs[0].ID != "run-c" || recs[1].ID != "run-b" {
		t.Fatalf("limited history = %+v", recs)
	}
}

func TestGenerationLookup(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	for _, r := range []GenerationRecord{
		{ID: "aabb1122", Kind: KindTTS, CreatedAt: 1000, Path: "tts/clip.mp3"},
		{ID: "aacc3344", Kind: KindMusic, CreatedAt: 2000},
		{ID: "ff990011", Kind: KindSpeech, CreatedAt: 3000},
	} {
		if _, err := cat.AppendGeneration(ctx, r); err != nil {
			t.Fatalf("AppendGeneration: %v", err)
		}
	}

	// Exact id.
	rec, err := cat.Generation(ctx, "aabb1122")
	if err != nil {
		t.Fatalf("Generation: %v", err)
	}
	if rec.Path != "tts/clip.mp3" {
		t.Errorf("Path = %q, want tts/clip.mp3", rec.Path)
	}

	// Unique prefix.
	rec, err = cat.Generation(ctx, "ff")
	if err != nil {
		t.Fatalf("Generation by prefix: %v", err)
	}
	if rec.Kind != KindSpeech {
		t.Errorf("Kind = %q, want %q", rec.Kind, KindSpeech)
	}

	// Ambiguous prefix.
	if _, err := cat.Generation(ctx, "aa"); err == nil || !strings.Contains(err.Error(), "matches") {
		t.Fatalf("ambiguous prefix err = %v, want ambiguity error", err)
	}

	// No match.
	if _, err := cat.Generation(ctx, "zzzz"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("missing id err = %v, want ErrNotFound", err)
	}
	if _, err := cat.Generation(ctx, ""); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("empty id err = %v, want ErrNotFound", err)
	}
}

func TestClearHistory(t *testing.T) {
	cat := newTestCatalog(t)
	ctx := context.Background()

	if _, err := cat.AppendGeneration(ctx, GenerationRecord{ID: "run-a", Kind: KindTTS, CreatedAt: 1000}); err != nil {
		t.Fatalf("AppendGeneration: %v", err)
	}
	if err := cat.ClearHistory(ctx); err != nil {
		t.Fatalf("ClearHistory: %v", err)
	}
	recs, err := cat.History(ctx, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("len(recs) = %d after clear, want 0", len(recs))
	}

	// Clearing again is a no-op.
	if err := cat.ClearHistory(ctx); err != nil {
		t.Fatalf("second ClearHistory: %v", err)
	}
}

func TestHistoryKeyFormat(t *testing.T) {
	key := historyKey(12345, "run-a")
	if len(key) != 3 {
		t.Fatalf("key segments = %d, want 3", len(key))
	}
	if key[0] != "history" || key[1] != "00000000000000012345" || key[2] != "run-a" {
		t.Fatalf("key = %v", key)
	}
}

func TestHistoryKeyLexOrder(t *testing.T) {
	// Zero-padded timestamps must sort chronologically.
	k1 := historyKey(9000, "a")
	k2 := historyKey(10000, "b")
	if k1[1] >= k2[1] {
		t.Fatalf("expected %q < %q", k1[1], k2[1])
	}
}

func TestNowNanoMonotonic(t *testing.T) {
	prev := nowNano()
	for range 1000 {
		next := nowNano()
		if next <= prev {
			t.Fatalf("nowNano went backwards: %d then %d", prev, next)
		}
		prev = next
	}
}
