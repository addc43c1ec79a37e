package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"axisim/internal/logging"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "axisim.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadSettingsMissingFileUsesDefaults(t *testing.T) {
	settings, err := LoadSettings(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if settings.Server.Port != defaultPort {
		t.Fatalf("expected default port %d, got %d", defaultPort, settings.Server.Port)
	}
	if settings.Session.TTL.Std() != 24*time.Hour {
		t.Fatalf("expected default TTL 24h, got %s", settings.Session.TTL.Std())
	}
	if settings.Simulation.AnalysisDepth != "deep" {
		t.Fatalf("expected default depth deep, got %q", settings.Simulation.AnalysisDepth)
	}
}

func TestLoadSettingsReadsFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
  log-level: debug
session:
  ttl: 1h
  reap-interval: 5m
simulation:
  confidence-floor: 0.7
  analysis-depth: comprehensive
`)

	settings, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if settings.Server.Port != 9000 {
		t.Fatalf("expected port 9000, got %d", settings.Server.Port)
	}
	if settings.Level() != logging.LevelDebug {
		t.Fatalf("expected debug level, got %q", settings.Level())
	}
	if settings.Session.TTL.Std() != time.Hour {
		t.Fatalf("expected TTL 1h, got %s", settings.Session.TTL.Std())
	}
	if settings.Session.ReapInterval.Std() != 5*time.Minute {
		t.Fatalf("expected reap interval 5m, got %s", settings.Session.ReapInterval.Std())
	}
	if settings.Simulation.ConfidenceFloor != 0.7 {
		t.Fatalf("expected floor 0.7, got %.3f", settings.Simulation.ConfidenceFloor)
	}
	if settings.Simulation.AnalysisDepth != "comprehensive" {
		t.Fatalf("expected comprehensive depth, got %q", settings.Simulation.AnalysisDepth)
	}
}

func TestLoadSettingsRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
server:
  prot: 9000
`)
	if _, err := LoadSettings(path); err == nil {
		t.Fatal("expected unknown-key error")
	}
}

func TestLoadSettingsRejectsInvalidDuration(t *testing.T) {
	path := writeConfig(t, `
session:
  ttl: soon
`)
	_, err := LoadSettings(path)
	if err == nil {
		t.Fatal("expected duration parse error")
	}
	if !strings.Contains(err.Error(), "invalid duration") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
  token: from-file
`)
	t.Setenv(EnvPort, "9100")
	t.Setenv(EnvToken, "from-env")
	t.Setenv(EnvLogLevel, "warning")

	settings, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if settings.Server.Port != 9100 {
		t.Fatalf("expected env port 9100, got %d", settings.Server.Port)
	}
	if settings.Server.Token != "from-env" {
		t.Fatalf("expected env token, got %q", settings.Server.Token)
	}
	if settings.Level() != logging.LevelWarning {
		t.Fatalf("expected warning level, got %q", settings.Level())
	}
}

func TestResolveConfigPathPrefersEnv(t *testing.T) {
	t.Setenv(EnvConfigPath, "/etc/axisim/config.yaml")
	if got := ResolveConfigPath(); got != "/etc/axisim/config.yaml" {
		t.Fatalf("expected env path, got %q", got)
	}

	t.Setenv(EnvConfigPath, "")
	if got := ResolveConfigPath(); got != DefaultConfigPath {
		t.Fatalf("expected default path, got %q", got)
	}
}

func TestTunablesMapping(t *testing.T) {
	settings := DefaultSettings()
	settings.Session.TTL = Duration(2 * time.Hour)
	settings.Simulation.ConfidenceFloor = 0.6

	tunables := settings.Tunables()
	if tunables.SessionTTL != 2*time.Hour {
		t.Fatalf("expected TTL 2h, got %s", tunables.SessionTTL)
	}
	if tunables.ConfidenceFloor != 0.6 {
		t.Fatalf("expected floor 0.6, got %.3f", tunables.ConfidenceFloor)
	}
	if tunables.StageTimeout != 30*time.Second {
		t.Fatalf("expected default stage timeout, got %s", tunables.StageTimeout)
	}
}

func TestNormalizeSettingsRejectsBadPort(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 70000
`)
	settings, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if settings.Server.Port != defaultPort {
		t.Fatalf("expected fallback port %d, got %d", defaultPort, settings.Server.Port)
	}
}
