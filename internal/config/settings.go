package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"axisim/internal/logging"
	"axisim/internal/orchestrator"
)

// Environment variables. Env always wins over the config file.
const (
	EnvPort       = "AXISIM_PORT"
	EnvToken      = "AXISIM_TOKEN"
	EnvConfigPath = "AXISIM_CONFIG"
	EnvLogLevel   = "AXISIM_LOG_LEVEL"
)

const DefaultConfigPath = "axisim.yaml"
const defaultPort = 8320

// Duration is a time.Duration that unmarshals from YAML strings like "24h".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Settings struct {
	Server     ServerSettings     `yaml:"server"`
	Session    SessionSettings    `yaml:"session"`
	Simulation SimulationSettings `yaml:"simulation"`
}

type ServerSettings struct {
	Port     int    `yaml:"port"`
	Token    string `yaml:"token"`
	LogLevel string `yaml:"log-level"`
}

type SessionSettings struct {
	TTL          Duration `yaml:"ttl"`
	ReapInterval Duration `yaml:"reap-interval"`
	StageTimeout Duration `yaml:"stage-timeout"`
}

type SimulationSettings struct {
	ConfidenceFloor    float64  `yaml:"confidence-floor"`
	ConfidenceBoost    float64  `yaml:"confidence-boost"`
	DefaultConfidence  float64  `yaml:"default-confidence"`
	EfficiencyBaseline Duration `yaml:"efficiency-baseline"`
	AnalysisDepth      string   `yaml:"analysis-depth"`
}

func DefaultSettings() Settings {
	tunables := orchestrator.DefaultTunables()
	return Settings{
		Server: ServerSettings{
			Port:     defaultPort,
			LogLevel: string(logging.LevelInfo),
		},
		Session: SessionSettings{
			TTL:          Duration(tunables.SessionTTL),
			ReapInterval: Duration(tunables.ReapInterval),
			StageTimeout: Duration(tunables.StageTimeout),
		},
		Simulation: SimulationSettings{
			ConfidenceFloor:    tunables.ConfidenceFloor,
			ConfidenceBoost:    tunables.ConfidenceBoost,
			DefaultConfidence:  tunables.DefaultConfidence,
			EfficiencyBaseline: Duration(tunables.EfficiencyBaseline),
			AnalysisDepth:      "deep",
		},
	}
}

// ResolveConfigPath prefers the env override, then the conventional file name.
func ResolveConfigPath() string {
	if path := strings.TrimSpace(os.Getenv(EnvConfigPath)); path != "" {
		return path
	}
	return DefaultConfigPath
}

// LoadSettings reads path over the defaults. A missing file is not an error;
// unknown keys in an existing file are, so typos fail loudly.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	if strings.TrimSpace(path) != "" {
		payload, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Settings{}, err
			}
		} else if len(bytes.TrimSpace(payload)) > 0 {
			decoder := yaml.NewDecoder(bytes.NewReader(payload))
			decoder.KnownFields(true)
			if err := decoder.Decode(&settings); err != nil {
				return Settings{}, fmt.Errorf("invalid config %s: %w", path, err)
			}
		}
	}

	settings = applyEnvOverrides(settings)
	return normalizeSettings(settings), nil
}

func applyEnvOverrides(settings Settings) Settings {
	if raw := strings.TrimSpace(os.Getenv(EnvPort)); raw != "" {
		if port, err := strconv.Atoi(raw); err == nil && port > 0 && port < 65536 {
			settings.Server.Port = port
		}
	}
	if token := os.Getenv(EnvToken); token != "" {
		settings.Server.Token = token
	}
	if level := strings.TrimSpace(os.Getenv(EnvLogLevel)); level != "" {
		settings.Server.LogLevel = level
	}
	return settings
}

func normalizeSettings(settings Settings) Settings {
	defaults := DefaultSettings()
	if settings.Server.Port <= 0 || settings.Server.Port > 65535 {
		settings.Server.Port = defaults.Server.Port
	}
	if _, ok := logging.ParseLevel(settings.Server.LogLevel); !ok {
		settings.Server.LogLevel = defaults.Server.LogLevel
	}
	if settings.Session.TTL <= 0 {
		settings.Session.TTL = defaults.Session.TTL
	}
	if settings.Session.ReapInterval <= 0 {
		settings.Session.ReapInterval = defaults.Session.ReapInterval
	}
	if settings.Session.StageTimeout <= 0 {
		settings.Session.StageTimeout = defaults.Session.StageTimeout
	}
	if settings.Simulation.AnalysisDepth == "" {
		settings.Simulation.AnalysisDepth = defaults.Simulation.AnalysisDepth
	}
	return settings
}

// Tunables maps the configured policy values onto the orchestrator's
// tunables. Out-of-range values fall back inside Normalize.
func (s Settings) Tunables() orchestrator.Tunables {
	return orchestrator.Tunables{
		SessionTTL:         s.Session.TTL.Std(),
		ReapInterval:       s.Session.ReapInterval.Std(),
		StageTimeout:       s.Session.StageTimeout.Std(),
		ConfidenceFloor:    s.Simulation.ConfidenceFloor,
		ConfidenceBoost:    s.Simulation.ConfidenceBoost,
		DefaultConfidence:  s.Simulation.DefaultConfidence,
		EfficiencyBaseline: s.Simulation.EfficiencyBaseline.Std(),
	}.Normalize()
}

// Level returns the configured minimum log level.
func (s Settings) Level() logging.Level {
	if level, ok := logging.ParseLevel(s.Server.LogLevel); ok {
		return level
	}
	return logging.LevelInfo
}
