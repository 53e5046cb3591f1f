// MIT License
//
// # Copyright (c) 2024 sphinx-core
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// go/src/common/config.go
package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DataDir is the default data directory name under the config dir.
	DataDir = "data"
	// ConfigFileName is the config file read from the config dir.
	ConfigFileName = "config.yaml"
)

// Config holds qvault settings from ~/.qvault/config.yaml.
type Config struct {
	DataDir string        `yaml:"data_dir"`
	KeyDir  string        `yaml:"key_dir"`
	Store   StoreConfig   `yaml:"store"`
	Server  ServerConfig  `yaml:"server"`
	Session SessionConfig `yaml:"session"`
	Log     LogConfig     `yaml:"log"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver string `yaml:"driver"` // leveldb, sqlite or memory
}

// ServerConfig holds the HTTP listen address and the URL clients dial.
// TLS is enabled when both certificate files are set.
type ServerConfig struct {
	Listen  string `yaml:"listen"`
	URL     string `yaml:"url"`
	TLSCert string `yaml:"tls_cert,omitempty"`
	TLSKey  string `yaml:"tls_key,omitempty"`
}

// SessionConfig holds the staleness policy applied by the server.
type SessionConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// LogConfig holds the log level name.
type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration rooted at ConfigDir().
func DefaultConfig() *Config {
	dir := ConfigDir()
	return &Config{
		DataDir: filepath.Join(dir, DataDir),
		KeyDir:  filepath.Join(dir, "keys"),
		Store:   StoreConfig{Driver: "leveldb"},
		Server: ServerConfig{
			Listen: "127.0.0.1:8645",
			URL:    "http://127.0.0.1:8645",
		},
		Session: SessionConfig{
			TTL:           10 * time.Minute,
			SweepInterval: time.Minute,
		},
		Log: LogConfig{Level: "INFO"},
	}
}

// ConfigDir returns the path to ~/.qvault, or QVAULT_HOME when set.
func ConfigDir() string {
	if dir := os.Getenv("QVAULT_HOME"); dir != "" {
		return dir
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".qvault")
	}
	return filepath.Join(homeDir, ".qvault")
}

// LoadGlobal reads the config file from ConfigDir and applies environment
// overrides. A missing file yields the defaults.
func LoadGlobal() (*Config, error) {
	return LoadFile(filepath.Join(ConfigDir(), ConfigFileName))
}

// LoadFile reads the config file at path and applies environment overrides.
func LoadFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"QVAULT_DATA_DIR":     &c.DataDir,
		"QVAULT_KEY_DIR":      &c.KeyDir,
		"QVAULT_STORE_DRIVER": &c.Store.Driver,
		"QVAULT_LISTEN":       &c.Server.Listen,
		"QVAULT_SERVER_URL":   &c.Server.URL,
		"QVAULT_LOG_LEVEL":    &c.Log.Level,
		"QVAULT_TLS_CERT":     &c.Server.TLSCert,
		"QVAULT_TLS_KEY":      &c.Server.TLSKey,
	}
	for name, dst := range strs {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"QVAULT_SESSION_TTL":    &c.Session.TTL,
		"QVAULT_SWEEP_INTERVAL": &c.Session.SweepInterval,
	}
	for name, dst := range durations {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			// Plain integers are taken as seconds.
			secs, convErr := strconv.Atoi(v)
			if convErr != nil {
				return fmt.Errorf("invalid %s %q: %w", name, v, err)
			}
			d = time.Duration(secs) * time.Second
		}
		*dst = d
	}
	return nil
}

// Save writes the config as YAML to path.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// GetLevelDBPath returns the LevelDB directory under a data dir.
func GetLevelDBPath(dataDir string) string {
	return filepath.Join(dataDir, "leveldb")
}

// GetSQLitePath returns the SQLite file under a data dir.
func GetSQLitePath(dataDir string) string {
	return filepath.Join(dataDir, "vaults.sqlite")
}
