package storage

import (
	"context"
	"errors"
	"os"
	"testing"
)

// runFileStoreTests exercises the FileStore contract against a backend.
// Behavior specific to one backend is tested next to that backend.
func runFileStoreTests(t *testing.T, open func(t *testing.T) FileStore) {
	t.Run("RoundTrip", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		const data = "ID3fake-mp3-payload"
		if err := WriteAll(ctx, s, "tts/2026-08-25/clip.mp3", []byte(data)); err != nil {
			t.Fatal(err)
		}
		got, err := ReadAll(ctx, s, "tts/2026-08-25/clip.mp3")
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != data {
			t.Fatalf("read back %q; want %q", got, data)
		}
	})

	t.Run("ReadMissing", func(t *testing.T) {
		s := open(t)

		_, err := s.Read(context.Background(), "no-such-clip.mp3")
		if !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("Read on a missing path = %v; want os.ErrNotExist", err)
		}
	})

	t.Run("Exists", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		ok, err := s.Exists(ctx, "clip.wav")
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Fatal("Exists reported an unwritten path")
		}

		if err := WriteAll(ctx, s, "clip.wav", []byte("RIFF")); err != nil {
			t.Fatal(err)
		}
		ok, err = s.Exists(ctx, "clip.wav")
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Fatal("Exists missed a written path")
		}
	})

	t.Run("DeleteIdempotent", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		if err := s.Delete(ctx, "ghost.mp3"); err != nil {
			t.Fatalf("Delete on a missing path: %v", err)
		}

		if err := WriteAll(ctx, s, "tmp.mp3", []byte("x")); err != nil {
			t.Fatal(err)
		}
		for i := 1; i <= 2; i++ {
			if err := s.Delete(ctx, "tmp.mp3"); err != nil {
				t.Fatalf("Delete #%d: %v", i, err)
			}
		}
		ok, err := s.Exists(ctx, "tmp.mp3")
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			t.Fatal("path still exists after delete")
		}
	})

	t.Run("OverwriteTruncates", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		if err := WriteAll(ctx, s, "f.mp3", []byte("first, longer take")); err != nil {
			t.Fatal(err)
		}
		if err := WriteAll(ctx, s, "f.mp3", []byte("take2")); err != nil {
			t.Fatal(err)
		}
		got, err := ReadAll(ctx, s, "f.mp3")
		if err != nil {
			t.Fatal(err)
		}
		if string(got) != "take2" {
			t.Fatalf("read back %q; want %q", got, "take2")
		}
	})
}
