package cli

import (
	"os"
	"path/filepath"
)

// Paths resolves the voxflow directory layout under the user's home:
//
//	~/.voxflow/config.yaml   context configuration
//	~/.voxflow/cache/        scratch space for downloads
//	~/.voxflow/catalog/      badger store for synced voices and history
//	~/.voxflow/artifacts/    generated audio, unless --output says otherwise
type Paths struct {
	// HomeDir is the resolved home directory all paths hang off.
	HomeDir string
}

// NewPaths resolves the layout for the current user.
func NewPaths() (*Paths, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &Paths{HomeDir: home}, nil
}

// BaseDir is ~/.voxflow, the root of all tool state.
func (p *Paths) BaseDir() string { return filepath.Join(p.HomeDir, DefaultBaseDir) }

// ConfigFile locates the context configuration inside BaseDir.
func (p *Paths) ConfigFile() string { return filepath.Join(p.BaseDir(), DefaultConfigFile) }

// CacheDir holds downloaded previews and other scratch files.
func (p *Paths) CacheDir() string { return p.sub("cache") }

// CatalogDir holds the badger database of synced voices and history.
func (p *Paths) CatalogDir() string { return p.sub("catalog") }

// ArtifactsDir is the default destination for generated audio.
func (p *Paths) ArtifactsDir() string { return p.sub("artifacts") }

func (p *Paths) sub(name string) string { return filepath.Join(p.BaseDir(), name) }

// CachePath names a file inside CacheDir.
func (p *Paths) CachePath(name string) string { return filepath.Join(p.CacheDir(), name) }

// ArtifactPath names a file inside ArtifactsDir.
func (p *Paths) ArtifactPath(name string) string { return filepath.Join(p.ArtifactsDir(), name) }

// The Ensure variants create their directory on first use.

func (p *Paths) EnsureBaseDir() error      { return ensureDir(p.BaseDir()) }
func (p *Paths) EnsureCacheDir() error     { return ensureDir(p.CacheDir()) }
func (p *Paths) EnsureCatalogDir() error   { return ensureDir(p.CatalogDir()) }
func (p *Paths) EnsureArtifactsDir() error { return ensureDir(p.ArtifactsDir()) }

func ensureDir(dir string) error { return os.MkdirAll(dir, 0o755) }
