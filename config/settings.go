package config

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Settings represents the application configuration persisted to disk.
type Settings struct {
	Server  ServerSettings  `json:"server"`
	Storage StorageSettings `json:"storage"`
	Library LibrarySettings `json:"library"`
	Auth    AuthSettings    `json:"auth"`
	Log     LogConfig       `json:"log"`
}

type ServerSettings struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// StorageSettings locates the JSON state files (accounts, watch progress,
// catalogue).
type StorageSettings struct {
	Directory string `json:"directory"`
}

// LibrarySettings points at the media files served by the video endpoint.
type LibrarySettings struct {
	Directory string `json:"directory"`
}

type AuthSettings struct {
	// SessionTTLHours bounds how long an issued token stays valid.
	SessionTTLHours int `json:"sessionTtlHours"`
}

type LogConfig struct {
	File       string `json:"file"`
	MaxSize    int    `json:"maxSize"`    // megabytes per file
	MaxBackups int    `json:"maxBackups"` // old files kept
	MaxAge     int    `json:"maxAge"`     // days
	Compress   bool   `json:"compress"`
}

func DefaultSettings() Settings {
	return Settings{
		Server:  ServerSettings{Host: "0.0.0.0", Port: 7880},
		Storage: StorageSettings{Directory: "data"},
		Library: LibrarySettings{Directory: "media"},
		Auth:    AuthSettings{SessionTTLHours: 24 * 30},
		Log: LogConfig{
			File:       "data/logs/reelhouse.log",
			MaxSize:    50,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		},
	}
}

// Manager loads and persists settings to a JSON file.
type Manager struct {
	path string
}

func NewManager(configPath string) *Manager {
	return &Manager{path: configPath}
}

func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// Load reads the settings file, creating it with defaults when missing.
// Fields absent from an older file keep their default values.
func (m *Manager) Load() (Settings, error) {
	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}
	if _, err := os.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		defaults := DefaultSettings()
		if err := m.Save(defaults); err != nil {
			return Settings{}, err
		}
		return defaults, nil
	}

	f, err := os.Open(m.path)
	if err != nil {
		return Settings{}, err
	}
	defer f.Close()

	settings := DefaultSettings()
	dec := json.NewDecoder(f)
	if err := dec.Decode(&settings); err != nil {
		return Settings{}, err
	}
	if settings.Auth.SessionTTLHours <= 0 {
		settings.Auth.SessionTTLHours = DefaultSettings().Auth.SessionTTLHours
	}
	return settings, nil
}

func (m *Manager) Save(s Settings) error {
	if m.path == "" {
		return errors.New("config path not set")
	}
	if err := m.EnsureDir(); err != nil {
		return err
	}
	tmp := m.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, m.path)
}
