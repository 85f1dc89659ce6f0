package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadRequest loads a request from a YAML or JSON file into v. The path
// "-" reads from stdin.
func LoadRequest(path string, v any) error {
	if path == "-" {
		return LoadRequestFromStdin(v)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	return ParseRequest(data, path, v)
}

// ParseRequest parses request data based on the file extension, falling
// back to trying YAML then JSON when the extension is unknown.
func ParseRequest(data []byte, filename string, v any) error {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse YAML: %w", err)
		}
		return nil
	case ".json":
		if err := json.Unmarshal(data, v); err != nil {
			return fmt.Errorf("failed to parse JSON: %w", err)
		}
		return nil
	}
	if !decodeAny(data, v, yaml.Unmarshal, json.Unmarshal) {
		return fmt.Errorf("failed to parse file (tried YAML and JSON)")
	}
	return nil
}

// LoadRequestFromStdin loads a request from stdin, trying JSON first since
// piped input is usually machine-generated.
func LoadRequestFromStdin(v any) error {
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}
	if !decodeAny(data, v, json.Unmarshal, yaml.Unmarshal) {
		return fmt.Errorf("failed to parse input (tried JSON and YAML)")
	}
	return nil
}

// decodeAny runs the decoders in order until one accepts the data.
func decodeAny(data []byte, v any, decoders ...func([]byte, any) error) bool {
	for _, decode := range decoders {
		if decode(data, v) == nil {
			return true
		}
	}
	return false
}
