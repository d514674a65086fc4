package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Format represents the configuration file format
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

const defaultHeader = `# gitpow configuration
# repos_root is where repository identifiers are looked up.
# repositories maps identifiers to explicit paths.

`

// fileManager supports both JSON and YAML configuration files
type fileManager struct {
	configPath string
	format     Format
	mu         sync.Mutex
}

// NewYAMLConfigManager creates a config manager that supports both JSON and YAML
func NewYAMLConfigManager(configPath string) (Manager, error) {
	if configPath == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}

	return &fileManager{
		configPath: configPath,
		format:     formatFor(configPath),
	}, nil
}

// DefaultConfigPath returns ~/.config/gitpow/config.yaml.
func DefaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config dir: %w", err)
	}
	return filepath.Join(dir, "gitpow", "config.yaml"), nil
}

func formatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	default:
		// Default to YAML for new files
		return FormatYAML
	}
}

// Load loads the configuration file in either JSON or YAML format
func (m *fileManager) Load() (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, err := m.read()
	if err != nil {
		return nil, err
	}
	loaded := cfg.WithDefaults()
	if err := loaded.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", m.configPath, err)
	}
	return &loaded, nil
}

// read must be called with mu held.
func (m *fileManager) read() (*Config, error) {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, err // Return the raw error for IsNotExist checks
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return decode(data, m.format)
}

func decode(data []byte, format Format) (*Config, error) {
	var cfg Config
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &cfg); err != nil {
			// Try YAML as fallback
			var alt Config
			if yamlErr := yaml.Unmarshal(data, &alt); yamlErr == nil {
				return &alt, nil
			}
			return nil, fmt.Errorf("failed to parse config as JSON: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			// Try JSON as fallback
			var alt Config
			if jsonErr := json.Unmarshal(data, &alt); jsonErr == nil {
				return &alt, nil
			}
			return nil, fmt.Errorf("failed to parse config as YAML: %w", err)
		}
	}
	return &cfg, nil
}

func (m *fileManager) encode(cfg *Config) ([]byte, error) {
	switch m.format {
	case FormatJSON:
		return json.MarshalIndent(cfg, "", "  ")
	case FormatYAML:
		return yaml.Marshal(cfg)
	default:
		return nil, fmt.Errorf("unknown format: %s", m.format)
	}
}

// Save saves the configuration file in the appropriate format
func (m *fileManager) Save(cfg *Config) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := m.encode(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return m.writeAtomic(data)
}

// writeAtomic writes to a temp file then renames it over the config path.
func (m *fileManager) writeAtomic(data []byte) error {
	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	tmpFile := m.configPath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp config file: %w", err)
	}

	if err := os.Rename(tmpFile, m.configPath); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}

// CreateDefaultConfig creates a default configuration file
func (m *fileManager) CreateDefaultConfig() error {
	cfg := Default()

	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := m.encode(&cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	// Add comment header for YAML files
	if m.format == FormatYAML {
		data = append([]byte(defaultHeader), data...)
	}
	return m.writeAtomic(data)
}

// SetRepository maps id to path, creating the file if needed.
func (m *fileManager) SetRepository(id, path string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("repository id cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, err := m.read()
	if err != nil {
		if !os.IsNotExist(err) {
			return err
		}
		d := Default()
		cfg = &d
	}

	if cfg.Repositories == nil {
		cfg.Repositories = make(map[string]string)
	}
	cfg.Repositories[id] = path

	data, err := m.encode(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return m.writeAtomic(data)
}
