package config

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"axisim/internal/logging"
)

func watchLogger() *logging.Logger {
	return logging.NewLoggerWithOutput(nil, logging.LevelError, io.Discard)
}

func TestWatchSettingsReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "axisim.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	reloaded := make(chan Settings, 1)
	watcher, err := WatchSettings(path, watchLogger(), nil, func(settings Settings) {
		select {
		case reloaded <- settings:
		default:
		}
	})
	if err != nil {
		t.Fatalf("watch settings: %v", err)
	}
	defer watcher.Close()

	if err := os.WriteFile(path, []byte("server:\n  port: 9100\n"), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case settings := <-reloaded:
		if settings.Server.Port != 9100 {
			t.Fatalf("expected reloaded port 9100, got %d", settings.Server.Port)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}

func TestWatchSettingsIgnoresInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "axisim.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	reloaded := make(chan Settings, 1)
	watcher, err := WatchSettings(path, watchLogger(), nil, func(settings Settings) {
		select {
		case reloaded <- settings:
		default:
		}
	})
	if err != nil {
		t.Fatalf("watch settings: %v", err)
	}
	defer watcher.Close()

	if err := os.WriteFile(path, []byte("server:\n  prot: broken\n"), 0o600); err != nil {
		t.Fatalf("rewrite config: %v", err)
	}

	select {
	case settings := <-reloaded:
		t.Fatalf("invalid config must not trigger reload, got %+v", settings)
	case <-time.After(time.Second):
	}
}

func TestWatchSettingsCloseIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "axisim.yaml")

	watcher, err := WatchSettings(path, watchLogger(), nil, nil)
	if err != nil {
		t.Fatalf("watch settings: %v", err)
	}
	if err := watcher.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := watcher.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
