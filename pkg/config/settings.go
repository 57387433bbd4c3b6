package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Settings holds the runtime knobs that live outside the CLI flags: a
// config.yaml next to the binary's config directory plus environment
// overrides.
type Settings struct {
	LogLevel          string `yaml:"log_level"`
	DefaultWorkingDir string `yaml:"default_working_dir"`
}

const (
	envLogLevel = "LMAGENT_LOG_LEVEL"
	envWorkDir  = "LMAGENT_WORKDIR"
)

// LoadEnvFile pulls a .env file from the current directory into the process
// environment when present. A missing file is not an error.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadSettings reads the YAML settings file at path (missing or malformed
// files fall back to defaults), then applies environment overrides and
// expands ~ and $VAR references in the working directory.
func LoadSettings(path string) Settings {
	settings := Settings{
		LogLevel:          "INFO",
		DefaultWorkingDir: mustGetwd(),
	}

	if data, err := os.ReadFile(path); err == nil {
		var fromFile Settings
		if err := yaml.Unmarshal(data, &fromFile); err == nil {
			if fromFile.LogLevel != "" {
				settings.LogLevel = fromFile.LogLevel
			}
			if fromFile.DefaultWorkingDir != "" {
				settings.DefaultWorkingDir = fromFile.DefaultWorkingDir
			}
		}
	}

	if v := os.Getenv(envLogLevel); v != "" {
		settings.LogLevel = v
	}
	if v := os.Getenv(envWorkDir); v != "" {
		settings.DefaultWorkingDir = v
	}

	settings.LogLevel = strings.ToUpper(settings.LogLevel)
	settings.DefaultWorkingDir = expandPath(settings.DefaultWorkingDir)
	return settings
}

// DefaultSettingsPath locates config.yaml under the user config directory.
func DefaultSettingsPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, "lmagent", "config.yaml")
}

func expandPath(path string) string {
	expanded := os.ExpandEnv(path)
	if expanded == "~" || strings.HasPrefix(expanded, "~/") || strings.HasPrefix(expanded, `~\`) {
		if home, err := os.UserHomeDir(); err == nil {
			expanded = home + expanded[1:]
		}
	}
	return filepath.Clean(expanded)
}

func mustGetwd() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}
