// Package config loads application settings with viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const configName = "dentalceph"

// FileName is the settings file looked up in the config directory.
const FileName = configName + ".json"

// ToolSettings holds the initial toolbar state.
type ToolSettings struct {
	Default    string  `json:"default" mapstructure:"default"`
	Color      string  `json:"color" mapstructure:"color"`
	Thickness  float64 `json:"thickness" mapstructure:"thickness"`
	FontSize   float64 `json:"fontSize" mapstructure:"fontSize"`
	FontFamily string  `json:"fontFamily" mapstructure:"fontFamily"`
}

// ViewSettings holds the initial display transform.
type ViewSettings struct {
	Zoom     float64 `json:"zoom" mapstructure:"zoom"`
	Rotation float64 `json:"rotation" mapstructure:"rotation"`
}

// ExportSettings controls exported files.
type ExportSettings struct {
	BaseName      string `json:"baseName" mapstructure:"baseName"`
	JPEGQuality   int    `json:"jpegQuality" mapstructure:"jpegQuality"`
	DefaultFormat string `json:"defaultFormat" mapstructure:"defaultFormat"`
}

// HitSettings controls line picking.
type HitSettings struct {
	Tolerance float64 `json:"tolerance" mapstructure:"tolerance"`
}

// AngleSettings controls measured angle arcs.
type AngleSettings struct {
	ArcRadius float64 `json:"arcRadius" mapstructure:"arcRadius"`
}

// Settings is the full application configuration.
type Settings struct {
	LogLevel string `json:"logLevel" mapstructure:"logLevel"`
	LogFile  string `json:"logFile" mapstructure:"logFile"`

	Tool   ToolSettings   `json:"tool" mapstructure:"tool"`
	View   ViewSettings   `json:"view" mapstructure:"view"`
	Export ExportSettings `json:"export" mapstructure:"export"`
	Hit    HitSettings    `json:"hit" mapstructure:"hit"`
	Angle  AngleSettings  `json:"angle" mapstructure:"angle"`
}

func setDefaults() {
	viper.SetDefault("logLevel", "info")
	viper.SetDefault("logFile", "")

	viper.SetDefault("tool.default", "point")
	viper.SetDefault("tool.color", "#ff9800")
	viper.SetDefault("tool.thickness", 4)
	viper.SetDefault("tool.fontSize", 18)
	viper.SetDefault("tool.fontFamily", "Arial")

	viper.SetDefault("view.zoom", 100)
	viper.SetDefault("view.rotation", 0)

	viper.SetDefault("hit.tolerance", 8)
	viper.SetDefault("angle.arcRadius", 32)

	viper.SetDefault("export.baseName", "dentalceph")
	viper.SetDefault("export.jpegQuality", 92)
	viper.SetDefault("export.defaultFormat", "png")
}

// DefaultDir returns the per-user configuration directory.
func DefaultDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "dentalceph")
}

// Load reads FileName from configDir on top of the defaults. Environment
// variables prefixed DENTALCEPH_ override both (DENTALCEPH_TOOL_COLOR sets
// tool.color). A missing file is not an error.
func Load(configDir string) (Settings, error) {
	setDefaults()

	viper.SetEnvPrefix("DENTALCEPH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetConfigName(configName)
	viper.SetConfigType("json")
	viper.AddConfigPath(configDir)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return Current()
}

// Current returns the settings as currently resolved by viper.
func Current() (Settings, error) {
	var s Settings
	if err := viper.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("error decoding config: %w", err)
	}
	if s.Hit.Tolerance <= 0 {
		return Settings{}, fmt.Errorf("hit.tolerance must be positive, got %v", s.Hit.Tolerance)
	}
	if s.View.Zoom <= 0 {
		return Settings{}, fmt.Errorf("view.zoom must be positive, got %v", s.View.Zoom)
	}
	return s, nil
}

// SaveTool records the toolbar state and writes the settings file into
// configDir, creating the directory if needed.
func SaveTool(configDir string, t ToolSettings) error {
	viper.Set("tool.default", t.Default)
	viper.Set("tool.color", t.Color)
	viper.Set("tool.thickness", t.Thickness)
	viper.Set("tool.fontSize", t.FontSize)
	viper.Set("tool.fontFamily", t.FontFamily)

	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("error creating config dir: %w", err)
	}
	if err := viper.WriteConfigAs(filepath.Join(configDir, FileName)); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}
