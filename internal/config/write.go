package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"go.yaml.in/yaml/v3"
)

// Marshal serializes cfg as YAML, or as TOML when format is "toml".
func Marshal(cfg *Config, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "toml":
		return toml.Marshal(cfg)
	case "yaml", "yml", "":
		return yaml.Marshal(cfg)
	default:
		return nil, fmt.Errorf("unsupported config format %q", format)
	}
}

// WriteConfig serializes the given Config and writes it to path. The
// format follows the file extension.
func WriteConfig(cfg *Config, path string) error {
	data, err := Marshal(cfg, strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return err
	}
	content := "# arelcop configuration\n" + string(data)
	return os.WriteFile(path, []byte(content), 0644)
}
