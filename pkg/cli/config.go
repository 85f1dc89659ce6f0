package cli

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
)

const (
	// DefaultBaseDir is the configuration directory name under $HOME
	DefaultBaseDir = ".voxflow"
	// DefaultConfigFile is the configuration filename
	DefaultConfigFile = "config.yaml"
)

// Config is the on-disk CLI configuration. Like kubectl, it holds named
// contexts (one per ElevenLabs account or environment) and remembers which
// one is active.
type Config struct {
	// CurrentContext names the active entry in Contexts.
	CurrentContext string `yaml:"current_context,omitempty"`

	// Contexts holds all known contexts by name.
	Contexts map[string]*Context `yaml:"contexts,omitempty"`

	// configPath remembers where the config was loaded from.
	configPath string
}

// Context holds the settings for one ElevenLabs account or environment.
type Context struct {
	// Name matches the context's key in Config.Contexts.
	Name string `yaml:"name"`

	// APIKey is the ElevenLabs API key. The ELEVEN_LABS_API_KEY
	// environment variable takes precedence when set.
	APIKey string `yaml:"api_key,omitempty"`

	// BaseURL overrides the API endpoint, for proxies and tests.
	BaseURL string `yaml:"base_url,omitempty"`

	// Timeout is the per-request timeout in seconds. Zero means the
	// client default.
	Timeout int `yaml:"timeout,omitempty"`

	// MaxRetries caps retry attempts for transient API errors.
	MaxRetries int `yaml:"max_retries,omitempty"`

	// DefaultVoice is the voice used when a command has no --voice flag
	DefaultVoice string `yaml:"default_voice,omitempty"`

	// DefaultModel is the model used when a command has no --model flag
	DefaultModel string `yaml:"default_model,omitempty"`

	// ArtifactStore is where generated audio is kept: a directory path,
	// or s3://bucket/prefix for an S3-compatible store (optional)
	ArtifactStore string `yaml:"artifact_store,omitempty"`

	// Extra carries settings that have no dedicated field.
	Extra map[string]string `yaml:"extra,omitempty"`
}

func defaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, DefaultBaseDir, DefaultConfigFile), nil
}

// LoadConfig loads or creates the configuration at ~/.voxflow/config.yaml.
func LoadConfig() (*Config, error) {
	return LoadConfigWithPath("")
}

// LoadConfigWithPath loads configuration from a custom path, or the default
// location when path is empty. A missing file is created empty.
func LoadConfigWithPath(customPath string) (*Config, error) {
	path := customPath
	if path == "" {
		var err error
		if path, err = defaultConfigPath(); err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := &Config{configPath: path}
	switch data, err := os.ReadFile(path); {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
		if err := cfg.Save(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if cfg.Contexts == nil {
		cfg.Contexts = make(map[string]*Context)
	}
	return cfg, nil
}

// Save writes the configuration to disk. The file is created 0600 since it
// holds API keys.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(c.configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Path reports where the config file lives.
func (c *Config) Path() string { return c.configPath }

// Dir reports the directory holding the config file. Other local state,
// such as the catalog database, lives next to it.
func (c *Config) Dir() string { return filepath.Dir(c.configPath) }

func (c *Config) lookup(name string) (*Context, error) {
	if ctx, ok := c.Contexts[name]; ok {
		return ctx, nil
	}
	return nil, fmt.Errorf("context %q not found", name)
}

// AddContext adds or replaces a context and saves.
func (c *Config) AddContext(name string, ctx *Context) error {
	ctx.Name = name
	c.Contexts[name] = ctx
	return c.Save()
}

// DeleteContext removes a context and saves. If it was the current context,
// the current context is cleared.
func (c *Config) DeleteContext(name string) error {
	if _, err := c.lookup(name); err != nil {
		return err
	}
	delete(c.Contexts, name)
	if c.CurrentContext == name {
		c.CurrentContext = ""
	}
	return c.Save()
}

// UseContext sets the current context and saves.
func (c *Config) UseContext(name string) error {
	if _, err := c.lookup(name); err != nil {
		return err
	}
	c.CurrentContext = name
	return c.Save()
}

// GetContext returns the named context.
func (c *Config) GetContext(name string) (*Context, error) {
	return c.lookup(name)
}

// GetCurrentContext returns the active context.
func (c *Config) GetCurrentContext() (*Context, error) {
	if c.CurrentContext == "" {
		return nil, fmt.Errorf("no current context set")
	}
	return c.lookup(c.CurrentContext)
}

// ResolveContext returns the named context, or the current one when name is
// empty.
func (c *Config) ResolveContext(name string) (*Context, error) {
	if name == "" {
		return c.GetCurrentContext()
	}
	return c.lookup(name)
}

// ListContexts returns all context names, sorted.
func (c *Config) ListContexts() []string {
	return slices.Sorted(maps.Keys(c.Contexts))
}

// GetExtra reads a setting from the context's Extra map.
func (ctx *Context) GetExtra(key string) string {
	return ctx.Extra[key]
}

// SetExtra records a setting in the context's Extra map.
func (ctx *Context) SetExtra(key, value string) {
	if ctx.Extra == nil {
		ctx.Extra = make(map[string]string)
	}
	ctx.Extra[key] = value
}

// MaskAPIKey masks an API key for display, keeping the first and last four
// characters when the key is long enough for that to stay unidentifiable.
func MaskAPIKey(key string) string {
	const keep = 4
	if len(key) <= 2*keep {
		return strings.Repeat("*", len(key))
	}
	return key[:keep] + strings.Repeat("*", len(key)-2*keep) + key[len(key)-keep:]
}
