// Package config loads the CLI's configuration from a JSON file at an
// XDG-compatible path, with LOOMON_* environment variables taking
// precedence. A .env file in the working directory is honored for
// development setups.
package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

type Config struct {
	Backend  BackendConfig
	Defaults DefaultsConfig
	Storage  StorageConfig
	Log      LogConfig
}

type BackendConfig struct {
	BaseURL   string
	CSRFToken string
}

// DefaultsConfig holds the user's preferred generation settings. They seed
// each new turn and can be changed per call with flags.
type DefaultsConfig struct {
	Quality      string
	Specificity  string
	InternetMode bool
	Model        string
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Backend: BackendConfig{
			BaseURL: "http://localhost:8000/api",
		},
		Defaults: DefaultsConfig{
			Quality:     "balanced",
			Specificity: "간결",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON file at
// $XDG_CONFIG_HOME/loomon/config.json, then applies LOOMON_* environment
// overrides. A .env file in the working directory is loaded first so local
// development can inject environment variables without exporting them.
func Load() (Config, error) {
	_ = godotenv.Load()
	return loadWith(newFileBackend(configFilePath()))
}

func loadWith(b Backend) (Config, error) {
	cfg := defaults()
	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

// CookieFile is the path of the persisted session cookie snapshot.
func (c Config) CookieFile() string {
	return filepath.Join(c.Storage.DataDir, "cookies.json")
}

// StateFile is the path of the persisted session state (session id,
// onboarding flag, goal).
func (c Config) StateFile() string {
	return filepath.Join(c.Storage.DataDir, "state.json")
}

// TranscriptDB is the path of the local transcript cache database.
func (c Config) TranscriptDB() string {
	return filepath.Join(c.Storage.DataDir, "transcripts.db")
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "loomon-data"
		}
	}
	return filepath.Join(dir, "loomon")
}

func configFilePath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config")
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, "loomon", "config.json")
}
