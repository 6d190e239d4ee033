package registry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Config is the reloadable configuration file
type Config struct {
	Domain      string                  `toml:"domain" yaml:"domain" json:"domain"`
	Environment string                  `toml:"environment" yaml:"environment" json:"environment"`
	ReleasePath string                  `toml:"release_path" yaml:"release_path" json:"release_path"`
	LogsURL     string                  `toml:"logs_url" yaml:"logs_url" json:"logs_url"`
	Paths       PathsConfig             `toml:"paths" yaml:"paths" json:"paths"`
	Targets     map[string]TargetConfig `toml:"targets" yaml:"targets" json:"targets"`
}

// PathsConfig holds local directories used by pipelines
type PathsConfig struct {
	Build string `toml:"build" yaml:"build" json:"build"`
	Cache string `toml:"cache" yaml:"cache" json:"cache"`
}

// TargetConfig is one entry of the targets table, keyed by app ID
type TargetConfig struct {
	Source       string `toml:"source" yaml:"source" json:"source"`
	RemoteURL    string `toml:"remote_url" yaml:"remote_url" json:"remote_url"`
	Path         string `toml:"path" yaml:"path" json:"path"`
	SSHHost      string `toml:"ssh_host" yaml:"ssh_host" json:"ssh_host"`
	BuildCommand string `toml:"build_command" yaml:"build_command" json:"build_command"`
}

// Load reads a configuration file. The format is chosen by extension:
// .toml, .yaml/.yml, or .json/.jsonc (comments allowed).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V("path", path))
	}

	cfg, err := Parse(filepath.Ext(path), data)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to parse config file", goerr.V("path", path))
	}
	return cfg, nil
}

// Parse decodes data in the format named by ext
func Parse(ext string, data []byte) (*Config, error) {
	var cfg Config

	switch strings.ToLower(ext) {
	case ".toml":
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, goerr.Wrap(err, "invalid toml")
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, goerr.Wrap(err, "invalid yaml")
		}
	case ".json", ".jsonc":
		if err := json.Unmarshal(jsonc.ToJSON(data), &cfg); err != nil {
			return nil, goerr.Wrap(err, "invalid json")
		}
	default:
		return nil, goerr.New("unsupported config format", goerr.V("ext", ext))
	}

	return &cfg, nil
}
