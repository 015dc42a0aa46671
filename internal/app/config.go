package app

import (
	"os"
	"path/filepath"
	"runtime"
)

// ServerConfig defines how the HTTP/WebSocket backend should run.
type ServerConfig struct {
	Addr           string
	Path           string
	DBPath         string
	UploadDir      string
	MaxUploadBytes int64
}

// ClientConfig defines the parameters the TUI client needs.
type ClientConfig struct {
	ServerURL string
	Name      string
}

// DefaultDBPath returns a per-user data path for the bundled SQLite file.
func DefaultDBPath() string {
	if env := os.Getenv("HUDDLE_DB_PATH"); env != "" {
		return env
	}
	return filepath.Join(defaultDataDir(), "huddle.db")
}

// DefaultUploadDir returns the directory uploaded attachments are stored in.
func DefaultUploadDir() string {
	if env := os.Getenv("HUDDLE_UPLOAD_DIR"); env != "" {
		return env
	}
	return filepath.Join(defaultDataDir(), "uploads")
}

func defaultDataDir() string {
	if env := os.Getenv("HUDDLE_DATA_DIR"); env != "" {
		return env
	}
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "huddle")
	}
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "Huddle")
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, "Library", "Application Support", "Huddle")
		}
		return filepath.Join(home, ".local", "share", "huddle")
	}
	return filepath.Join(".", ".huddle")
}

// NormalizeJoinPath guarantees the websocket join path starts with '/' and
// falls back to /join when empty.
func NormalizeJoinPath(path string) string {
	if path == "" {
		return "/join"
	}
	if path[0] != '/' {
		return "/" + path
	}
	return path
}
