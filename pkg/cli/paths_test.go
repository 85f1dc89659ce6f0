package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewPaths(t *testing.T) {
	paths, err := NewPaths()
	if err != nil {
		t.Fatalf("NewPaths error: %v", err)
	}

	if paths.HomeDir == "" {
		t.Error("HomeDir should not be empty")
	}
}

func TestPaths_BaseDir(t *testing.T) {
	tmpDir := t.TempDir()
	paths := &Paths{HomeDir: tmpDir}

	baseDir := paths.BaseDir()
	expected := filepath.Join(tmpDir, DefaultBaseDir)

	if baseDir != expected {
		t.Errorf("BaseDir() = %q, want %q", baseDir, expected)
	}
}

func TestPaths_ConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	paths := &Paths{HomeDir: tmpDir}

	configFile := paths.ConfigFile()
	expected := filepath.Join(tmpDir, DefaultBaseDir, DefaultConfigFile)

	if configFile != expected {
		t.Errorf("ConfigFile() = %q, want %q", configFile, expected)
	}
}

func TestPaths_CacheDir(t *testing.T) {
	paths := &Paths{HomeDir: t.TempDir()}

	if !strings.HasSuffix(paths.CacheDir(), "cache") {
		t.Errorf("CacheDir() = %q, should end with 'cache'", paths.CacheDir())
	}
}

func TestPaths_CatalogDir(t *testing.T) {
	paths := &Paths{HomeDir: t.TempDir()}

	if !strings.HasSuffix(paths.CatalogDir(), "catalog") {
		t.Errorf("CatalogDir() = %q, should end with 'catalog'", paths.CatalogDir())
	}
}

func TestPaths_ArtifactsDir(t *testing.T) {
	paths := &Paths{HomeDir: t.TempDir()}

	if !strings.HasSuffix(paths.ArtifactsDir(), "artifacts") {
		t.Errorf("ArtifactsDir() = %q, should end with 'artifacts'", paths.ArtifactsDir())
	}
}

func TestPaths_CachePath(t *testing.T) {
	paths := &Paths{HomeDir: t.TempDir()}

	cachePath := paths.CachePath("preview.mp3")
	expected := filepath.Join(paths.CacheDir(), "preview.mp3")

	if cachePath != expected {
		t.Errorf("CachePath() = %q, want %q", cachePath, expected)
	}
}

func TestPaths_ArtifactPath(t *testing.T) {
	paths := &Paths{HomeDir: t.TempDir()}

	artifactPath := paths.ArtifactPath("tts/clip.mp3")
	expected := filepath.Join(paths.ArtifactsDir(), "tts/clip.mp3")

	if artifactPath != expected {
		t.Errorf("ArtifactPath() = %q, want %q", artifactPath, expected)
	}
}

func TestPaths_EnsureDirs(t *testing.T) {
	// Use a temp directory to avoid polluting the user's home.
	paths := &Paths{HomeDir: t.TempDir()}

	ensure := []struct {
		name string
		fn   func() error
		dir  string
	}{
		{"EnsureBaseDir", paths.EnsureBaseDir, paths.BaseDir()},
		{"EnsureCacheDir", paths.EnsureCacheDir, paths.CacheDir()},
		{"EnsureCatalogDir", paths.EnsureCatalogDir, paths.CatalogDir()},
		{"EnsureArtifactsDir", paths.EnsureArtifactsDir, paths.ArtifactsDir()},
	}

	for _, e := range ensure {
		t.Run(e.name, func(t *testing.T) {
			if err := e.fn(); err != nil {
				t.Fatalf("%s error: %v", e.name, err)
			}
			info, err := os.Stat(e.dir)
			if err != nil {
				t.Fatalf("Stat error: %v", err)
			}
			if !info.IsDir() {
				t.Errorf("%s should create a directory", e.name)
			}
		})
	}
}
