// Package config handles daemon configuration file management.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config represents the daemon configuration: default analysis
// parameters plus the socket and data locations the daemon runs against.
type Config struct {
	// SocketPath is the Unix socket the daemon listens on.
	SocketPath string `json:"socketPath"`

	// DataDir is stored and persisted with the configuration; no part of
	// the daemon reads it or writes files there.
	DataDir string `json:"dataDir"`

	// Analysis holds the default constant-Q parameters a run uses when
	// the client doesn't override them.
	Analysis AnalysisConfig `json:"analysis"`

	// Workers holds worker-pool sizing.
	Workers WorkersConfig `json:"workers"`
}

// AnalysisConfig contains the default constant-Q kernel and transform
// parameters.
type AnalysisConfig struct {
	SampleRate    int     `json:"sampleRate"`
	MinFrequency  float64 `json:"minFrequency"`
	MaxFrequency  float64 `json:"maxFrequency"`
	BinsPerOctave int     `json:"binsPerOctave"`
	Threshold     float64 `json:"threshold"`
	FrameInterval int     `json:"frameInterval"`
}

// WorkersConfig contains worker-pool settings.
type WorkersConfig struct {
	// Count is the number of parallel analysis workers. 0 means "use
	// GOMAXPROCS."
	Count int `json:"count"`
}

// DefaultConfig returns the default configuration: the C-major reference
// parameters from spec.md's testable properties, which double as a sane
// musical default (the one octave from C5 to C6, starting an octave above
// middle C, at 24 bins/octave).
func DefaultConfig() *Config {
	return &Config{
		SocketPath: "cqtd.sock",
		DataDir:    "",
		Analysis: AnalysisConfig{
			SampleRate:    44100,
			MinFrequency:  523.25,
			MaxFrequency:  1046.5,
			BinsPerOctave: 24,
			Threshold:     0.0054,
			FrameInterval: 512,
		},
		Workers: WorkersConfig{Count: 0},
	}
}

// Manager handles loading and saving configuration.
type Manager struct {
	configDir  string
	configPath string
	config     *Config
}

// NewManager creates a new configuration manager rooted at configDir.
func NewManager(configDir string) *Manager {
	return &Manager{
		configDir:  configDir,
		configPath: filepath.Join(configDir, "config.json"),
		config:     DefaultConfig(),
	}
}

// Load reads the configuration from disk, writing out defaults if no
// config file exists yet.
func (m *Manager) Load() error {
	if err := os.MkdirAll(m.configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(m.configPath); os.IsNotExist(err) {
		m.config = DefaultConfig()
		return m.Save()
	}

	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	m.config = config
	return nil
}

// Save writes the configuration to disk.
func (m *Manager) Save() error {
	if err := os.MkdirAll(m.configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Get returns the current configuration.
func (m *Manager) Get() *Config {
	return m.config
}

// GetPath returns the config file path.
func (m *Manager) GetPath() string {
	return m.configPath
}

// Update replaces the configuration and persists it.
func (m *Manager) Update(config *Config) error {
	m.config = config
	return m.Save()
}
