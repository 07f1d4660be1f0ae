package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/PizzaHomicide/reelcore/internal/surface"
)

// Config represents the application configuration
type Config struct {
	Player   PlayerConfig   `yaml:"player,omitempty"`
	Video    VideoConfig    `yaml:"video,omitempty"`
	Controls ControlsConfig `yaml:"controls,omitempty"`
	Playback PlaybackConfig `yaml:"playback,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
}

// PlayerConfig selects the playback engine
type PlayerConfig struct {
	Type string `yaml:"type,omitempty"` // "mpv"
	Path string `yaml:"path,omitempty"`
	Args string `yaml:"args,omitempty"`
}

// VideoConfig holds the initial properties of the video.  Pointer fields default to a non-zero value and are pointers
// so that a config file can still set them to false or zero.
type VideoConfig struct {
	ResizeMode string   `yaml:"resize_mode,omitempty"`
	Repeat     bool     `yaml:"repeat,omitempty"`
	Paused     bool     `yaml:"paused,omitempty"`
	Muted      bool     `yaml:"muted,omitempty"`
	Volume     *float64 `yaml:"volume,omitempty"`
	// Seek is the initial position as a fraction of the duration, applied once the duration is known.
	Seek float64 `yaml:"seek,omitempty"`
}

// ControlsConfig tunes the transport overlay
type ControlsConfig struct {
	Enabled          *bool         `yaml:"enabled,omitempty"`
	AutoHideNav      *bool         `yaml:"auto_hide_nav,omitempty"`
	Timeout          time.Duration `yaml:"timeout,omitempty"`
	ProgressInterval time.Duration `yaml:"progress_interval,omitempty"`
	ResumeOnTap      bool          `yaml:"resume_on_tap,omitempty"`
	SeekStep         time.Duration `yaml:"seek_step,omitempty"`
}

// PlaybackConfig tunes the playback state machine
type PlaybackConfig struct {
	ProgressInterval  time.Duration `yaml:"progress_interval,omitempty"`
	BufferInterval    time.Duration `yaml:"buffer_interval,omitempty"`
	SeekToBeginOnStop *bool         `yaml:"seek_to_begin_on_stop,omitempty"`
}

// LoggingConfig contains log related settings
type LoggingConfig struct {
	Level    string `yaml:"level,omitempty"`
	FilePath string `yaml:"file_path,omitempty"`
}

func (v VideoConfig) VolumeLevel() float64 {
	if v.Volume == nil {
		return 1
	}
	return *v.Volume
}

func (c ControlsConfig) IsEnabled() bool     { return c.Enabled == nil || *c.Enabled }
func (c ControlsConfig) IsAutoHideNav() bool { return c.AutoHideNav == nil || *c.AutoHideNav }

func (p PlaybackConfig) IsSeekToBeginOnStop() bool {
	return p.SeekToBeginOnStop == nil || *p.SeekToBeginOnStop
}

// Load builds a configuration struct from multiple sources using these steps:
// 1. Create a base config with default values
// 2. If no config file exists on disk, save the default config to that location
// 3. Apply 'dynamic' properties.  Dynamic properties are those that are determined at runtime, for example log file location which is different per OS.
// 4. Load & merge the config file, overwriting any defaults with user-specified values
// 5. Apply environment variable overrides
// 6. Validate the result
func Load() (*Config, error) {
	// 1. Start with base defaults
	cfg := createBaseDefaultConfig()

	configPath, err := getConfigPath()
	if err != nil {
		return nil, fmt.Errorf("unable to determine config file path: %w", err)
	}

	// 2. If no config file exists on disk, then write a default one
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		// If there is an error saving the default config, then still let the application startup using the defaults.
		_ = save(cfg, configPath)
	}

	// 3. Apply dynamic defaults if necessary
	applyDynamicDefaults(cfg)

	// 4. Load the config from disk and merge it into the base defaults
	fileConfig, err := loadFromDisk(configPath)
	if err != nil {
		return nil, err
	}
	// Overrides the config with any values coming from the loaded file
	if err = mergo.Merge(cfg, fileConfig, mergo.WithOverride, mergo.WithTransformers(explicitPointers{})); err != nil {
		return nil, fmt.Errorf("error merging config loaded from disk: %w", err)
	}

	// 5. Apply the environment variable overrides which take precedence
	if err := applyEnvVarOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that cannot be caught while parsing.
func (c *Config) Validate() error {
	if _, err := surface.ParseScaleMode(c.Video.ResizeMode); err != nil {
		return fmt.Errorf("invalid video.resize_mode: %w", err)
	}
	if v := c.Video.VolumeLevel(); v < 0 || v > 1 {
		return fmt.Errorf("invalid video.volume %v: must be between 0 and 1", v)
	}
	if c.Video.Seek < 0 || c.Video.Seek > 1 {
		return fmt.Errorf("invalid video.seek %v: must be a fraction between 0 and 1", c.Video.Seek)
	}
	for name, d := range map[string]time.Duration{
		"controls.progress_interval": c.Controls.ProgressInterval,
		"playback.progress_interval": c.Playback.ProgressInterval,
		"playback.buffer_interval":   c.Playback.BufferInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("invalid %s %v: must be positive", name, d)
		}
	}
	return nil
}

// applyDynamicDefaults sets runtime-determined default values for any properties that haven't been explicitly configured.
// Unlike static defaults, these values might change between runs based on the environment or system configuration.
func applyDynamicDefaults(cfg *Config) {
	cfg.Logging.FilePath = defaultLogFilePath()
}

// loadFromDisk loads the YAML config from disk and returns the unmarshalled Config
func loadFromDisk(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unable to parse config file: %w", err)
	}

	return cfg, nil
}

func save(cfg *Config, configPath string) error {
	// Create config dir if not exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}

// UpdateConfig reads the existing config, applies the update function, and saves it back to disk
func UpdateConfig(updateFn func(*Config)) error {
	configPath, err := getConfigPath()
	if err != nil {
		return fmt.Errorf("unable to determine config file path: %w", err)
	}

	cfg, err := loadFromDisk(configPath)
	if err != nil {
		return fmt.Errorf("error loading config file from disk: %w", err)
	}

	// Apply the updates
	updateFn(cfg)

	return save(cfg, configPath)
}

// getConfigPath returns the path to the config file.  Uses the environment variable override if present, else tries
// to use OS config location defaults.
func getConfigPath() (string, error) {
	configPath := os.Getenv("REELCORE_CONFIG_PATH")
	if configPath != "" {
		return configPath, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "reelcore", "config.yaml"), nil
}

func boolPtr(b bool) *bool        { return &b }
func floatPtr(f float64) *float64 { return &f }

// explicitPointers makes a pointer set in the file replace the default outright.  Without it mergo merges the pointed
// to values, and a false or zero from the file would never win over the default.
type explicitPointers struct{}

func (explicitPointers) Transformer(typ reflect.Type) func(dst, src reflect.Value) error {
	switch typ {
	case reflect.TypeOf((*bool)(nil)), reflect.TypeOf((*float64)(nil)):
		return func(dst, src reflect.Value) error {
			if !src.IsNil() && dst.CanSet() {
				dst.Set(src)
			}
			return nil
		}
	}
	return nil
}

// createBaseDefaultConfig creates a config with all default values
func createBaseDefaultConfig() *Config {
	return &Config{
		Player: PlayerConfig{
			Type: "mpv",
			Path: "mpv",
		},
		Video: VideoConfig{
			ResizeMode: surface.ScaleFitCenter.String(),
			Volume:     floatPtr(1),
		},
		Controls: ControlsConfig{
			Enabled:          boolPtr(true),
			AutoHideNav:      boolPtr(true),
			Timeout:          3 * time.Second,
			ProgressInterval: 250 * time.Millisecond,
			SeekStep:         5 * time.Second,
		},
		Playback: PlaybackConfig{
			ProgressInterval:  250 * time.Millisecond,
			BufferInterval:    500 * time.Millisecond,
			SeekToBeginOnStop: boolPtr(true),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// defaultLogFilePath returns the path to the log file.  Tries to use expected OS location defaults.
func defaultLogFilePath() string {
	var basePath string
	homedir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to logging in the current directory if home directory cannot be determined
		return filepath.Join(".", "reelcore.log")
	}

	switch runtime.GOOS {
	case "windows":
		// Windows:  %LOCALAPPDATA%\reelcore\logs
		if appData := os.Getenv("LOCALAPPDATA"); appData != "" {
			basePath = filepath.Join(appData, "reelcore", "logs")
		} else {
			basePath = filepath.Join(homedir, "AppData", "local", "reelcore", "logs")
		}
	case "darwin":
		// macOS:  ~/Library/Logs/reelcore
		basePath = filepath.Join(homedir, "Library", "Logs", "reelcore")
	default:
		// Linux/BSD:  XDG_STATE_HOME
		if xdgState := os.Getenv("XDG_STATE_HOME"); xdgState != "" {
			basePath = filepath.Join(xdgState, "reelcore", "logs")
		} else {
			basePath = filepath.Join(homedir, ".local", "state", "reelcore", "logs")
		}
	}

	err = os.MkdirAll(basePath, 0700)
	if err != nil {
		// If we failed to create the directory, fallback to logging in the current directory
		return filepath.Join(".", "reelcore.log")
	}
	return filepath.Join(basePath, "reelcore.log")
}
