package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type envVar struct {
	name  string
	desc  string
	apply func(*Config, string) error
}

func parseBool(s string) (bool, error) {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("expected a boolean, got %q", s)
	}
	return b, nil
}

func parseDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("expected a duration such as 3s or 250ms, got %q", s)
	}
	return d, nil
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("expected a number, got %q", s)
	}
	return f, nil
}

var supportedEnvVars = []envVar{
	{
		// Only here for documentation purposes.  Does not override any values in the config as this environment variable
		// points to where the config should be loaded.  It is handled prior to loading the config.
		name:  "REELCORE_CONFIG_PATH",
		desc:  "Sets the path to the config file.  Default: OS-specific config directory",
		apply: func(c *Config, s string) error { return nil }, // Special case, no-op
	},
	{
		name:  "REELCORE_CONFIG_PLAYER_TYPE",
		desc:  "Sets the playback engine.  Only `mpv` is supported.  Default: mpv",
		apply: func(c *Config, s string) error { c.Player.Type = s; return nil },
	},
	{
		name:  "REELCORE_CONFIG_PLAYER_PATH",
		desc:  "Sets the path to the mpv binary.  Default: mpv",
		apply: func(c *Config, s string) error { c.Player.Path = s; return nil },
	},
	{
		name:  "REELCORE_CONFIG_PLAYER_ARGS",
		desc:  "Sets extra arguments passed to mpv.  Default: None",
		apply: func(c *Config, s string) error { c.Player.Args = s; return nil },
	},
	{
		name:  "REELCORE_CONFIG_VIDEO_RESIZE_MODE",
		desc:  "Sets how the video is scaled.  One of: none, fit-within, fill-stretch, fit-center, center-crop.  Default: fit-center",
		apply: func(c *Config, s string) error { c.Video.ResizeMode = s; return nil },
	},
	{
		name: "REELCORE_CONFIG_VIDEO_REPEAT",
		desc: "Restarts the video when it ends.  Default: false",
		apply: func(c *Config, s string) (err error) {
			c.Video.Repeat, err = parseBool(s)
			return err
		},
	},
	{
		name: "REELCORE_CONFIG_VIDEO_PAUSED",
		desc: "Starts the video paused.  Default: false",
		apply: func(c *Config, s string) (err error) {
			c.Video.Paused, err = parseBool(s)
			return err
		},
	},
	{
		name: "REELCORE_CONFIG_VIDEO_MUTED",
		desc: "Starts the video muted.  Default: false",
		apply: func(c *Config, s string) (err error) {
			c.Video.Muted, err = parseBool(s)
			return err
		},
	},
	{
		name: "REELCORE_CONFIG_VIDEO_VOLUME",
		desc: "Sets the volume between 0 and 1.  Default: 1",
		apply: func(c *Config, s string) error {
			v, err := parseFloat(s)
			if err == nil {
				c.Video.Volume = &v
			}
			return err
		},
	},
	{
		name: "REELCORE_CONFIG_VIDEO_SEEK",
		desc: "Sets the starting position as a fraction of the duration.  Default: 0",
		apply: func(c *Config, s string) (err error) {
			c.Video.Seek, err = parseFloat(s)
			return err
		},
	},
	{
		name: "REELCORE_CONFIG_CONTROLS_ENABLED",
		desc: "Shows the transport controls.  Default: true",
		apply: func(c *Config, s string) error {
			b, err := parseBool(s)
			if err == nil {
				c.Controls.Enabled = &b
			}
			return err
		},
	},
	{
		name: "REELCORE_CONFIG_CONTROLS_AUTO_HIDE_NAV",
		desc: "Hides the host chrome while the controls are hidden in fullscreen.  Default: true",
		apply: func(c *Config, s string) error {
			b, err := parseBool(s)
			if err == nil {
				c.Controls.AutoHideNav = &b
			}
			return err
		},
	},
	{
		name: "REELCORE_CONFIG_CONTROLS_TIMEOUT",
		desc: "Sets how long the controls stay visible without interaction.  Default: 3s",
		apply: func(c *Config, s string) (err error) {
			c.Controls.Timeout, err = parseDuration(s)
			return err
		},
	},
	{
		name: "REELCORE_CONFIG_CONTROLS_RESUME_ON_TAP",
		desc: "Resumes paused playback when a tap reveals the controls.  Default: false",
		apply: func(c *Config, s string) (err error) {
			c.Controls.ResumeOnTap, err = parseBool(s)
			return err
		},
	},
	{
		name: "REELCORE_CONFIG_PLAYBACK_SEEK_TO_BEGIN_ON_STOP",
		desc: "Rewinds to the start when playback ends without repeat.  Default: true",
		apply: func(c *Config, s string) error {
			b, err := parseBool(s)
			if err == nil {
				c.Playback.SeekToBeginOnStop = &b
			}
			return err
		},
	},
	{
		name:  "REELCORE_CONFIG_LOGGING_LEVEL",
		desc:  "Sets the logging level.  One of: trace, debug, info, warn, error.  Default: info",
		apply: func(c *Config, s string) error { c.Logging.Level = s; return nil },
	},
	{
		name:  "REELCORE_CONFIG_LOGGING_FILE_PATH",
		desc:  "Sets the logging file path.  Default: OS-specific",
		apply: func(c *Config, s string) error { c.Logging.FilePath = s; return nil },
	},
}

func applyEnvVarOverrides(c *Config) error {
	for _, envVar := range supportedEnvVars {
		if value := os.Getenv(envVar.name); value != "" {
			if err := envVar.apply(c, value); err != nil {
				return fmt.Errorf("invalid %s: %w", envVar.name, err)
			}
		}
	}
	return nil
}

// EnvVarHelp lists the supported environment variables and what they do.
func EnvVarHelp() [][2]string {
	help := make([][2]string, 0, len(supportedEnvVars))
	for _, envVar := range supportedEnvVars {
		help = append(help, [2]string{envVar.name, envVar.desc})
	}
	return help
}
