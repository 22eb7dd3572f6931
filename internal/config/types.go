// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	// RuntimeNative runs sh actions through the host shell.
	RuntimeNative RuntimeMode = "native"
	// RuntimeVirtual runs sh actions in the embedded shell interpreter.
	RuntimeVirtual RuntimeMode = "virtual"

	// ColorSchemeAuto detects the terminal color scheme automatically.
	ColorSchemeAuto ColorScheme = "auto"
	// ColorSchemeDark forces dark color scheme.
	ColorSchemeDark ColorScheme = "dark"
	// ColorSchemeLight forces light color scheme.
	ColorSchemeLight ColorScheme = "light"

	// LogFormatText renders human-readable log lines.
	LogFormatText LogFormat = "text"
	// LogFormatJSON renders one JSON object per log line.
	LogFormatJSON LogFormat = "json"
)

var (
	// ErrInvalidRuntimeMode is returned when a RuntimeMode value is not recognized.
	ErrInvalidRuntimeMode = errors.New("invalid runtime mode")
	// ErrInvalidColorScheme is returned when a ColorScheme value is not recognized.
	ErrInvalidColorScheme = errors.New("invalid color scheme")
	// ErrInvalidLogLevel is returned when a log level is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level")
	// ErrInvalidLogFormat is returned when a LogFormat value is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// RuntimeMode selects how sh actions run.
	RuntimeMode string

	// ColorScheme specifies the terminal color scheme preference.
	ColorScheme string

	// LogLevel is the minimum level written to the log.
	LogLevel string

	// LogFormat selects the log line encoding.
	LogFormat string

	// InvalidValueError reports a field holding an unrecognized value. It
	// wraps one of the ErrInvalid* sentinels.
	InvalidValueError struct {
		Field string
		Value string
		kind  error
	}

	// InvalidConfigError collects every field error found in a Config.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		// Rigfile is used when no -f flag is given.
		Rigfile string `json:"rigfile" mapstructure:"rigfile" toml:"rigfile"`
		// DefaultRuntime is the runtime for sh actions that do not name one.
		DefaultRuntime RuntimeMode `json:"default_runtime" mapstructure:"default_runtime" toml:"default_runtime"`
		// Shell is the host shell for native sh actions.
		Shell string    `json:"shell" mapstructure:"shell" toml:"shell"`
		Log   LogConfig `json:"log" mapstructure:"log" toml:"log"`
		UI    UIConfig  `json:"ui" mapstructure:"ui" toml:"ui"`
		Watch WatchConfig `json:"watch" mapstructure:"watch" toml:"watch"`

		// Source is the config file the values were read from; empty when
		// only defaults and the environment applied.
		Source string `json:"-" mapstructure:"-" toml:"-"`
	}

	// LogConfig configures logging.
	LogConfig struct {
		Level  LogLevel  `json:"level" mapstructure:"level" toml:"level"`
		Format LogFormat `json:"format" mapstructure:"format" toml:"format"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		// Verbose prints a progress line per task.
		Verbose     bool        `json:"verbose" mapstructure:"verbose" toml:"verbose"`
		ColorScheme ColorScheme `json:"color_scheme" mapstructure:"color_scheme" toml:"color_scheme"`
	}

	// WatchConfig configures watch mode defaults.
	WatchConfig struct {
		// Debounce applies when the rigfile's watch block sets none.
		Debounce string `json:"debounce" mapstructure:"debounce" toml:"debounce"`
	}
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		DefaultRuntime: RuntimeNative,
		Shell:          "sh",
		Log: LogConfig{
			Level:  "warn",
			Format: LogFormatText,
		},
		UI: UIConfig{
			ColorScheme: ColorSchemeAuto,
		},
		Watch: WatchConfig{
			Debounce: "500ms",
		},
	}
}

// Error implements the error interface.
func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("%s: %v %q", e.Field, e.kind, e.Value)
}

// Unwrap returns the sentinel for the kind of value that was invalid.
func (e *InvalidValueError) Unwrap() error { return e.kind }

// Error implements the error interface for InvalidConfigError.
func (e *InvalidConfigError) Error() string {
	if len(e.FieldErrors) == 1 {
		return "invalid config: " + e.FieldErrors[0].Error()
	}
	return fmt.Sprintf("invalid config: %d field error(s): %v", len(e.FieldErrors), errors.Join(e.FieldErrors...))
}

// Unwrap returns ErrInvalidConfig and the field errors.
func (e *InvalidConfigError) Unwrap() []error {
	return append([]error{ErrInvalidConfig}, e.FieldErrors...)
}

// Validate reports whether m is a known runtime mode.
func (m RuntimeMode) Validate() error {
	switch m {
	case RuntimeNative, RuntimeVirtual:
		return nil
	default:
		return &InvalidValueError{Field: "default_runtime", Value: string(m), kind: ErrInvalidRuntimeMode}
	}
}

// Validate reports whether c is a known color scheme.
func (c ColorScheme) Validate() error {
	switch c {
	case ColorSchemeAuto, ColorSchemeDark, ColorSchemeLight:
		return nil
	default:
		return &InvalidValueError{Field: "ui.color_scheme", Value: string(c), kind: ErrInvalidColorScheme}
	}
}

// Validate reports whether l is a known log level.
func (l LogLevel) Validate() error {
	switch l {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return &InvalidValueError{Field: "log.level", Value: string(l), kind: ErrInvalidLogLevel}
	}
}

// Validate reports whether f is a known log format.
func (f LogFormat) Validate() error {
	switch f {
	case LogFormatText, LogFormatJSON:
		return nil
	default:
		return &InvalidValueError{Field: "log.format", Value: string(f), kind: ErrInvalidLogFormat}
	}
}

// DebounceDuration parses the watch debounce.
func (w WatchConfig) DebounceDuration() (time.Duration, error) {
	d, err := time.ParseDuration(w.Debounce)
	if err != nil {
		return 0, fmt.Errorf("watch.debounce: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("watch.debounce: %q must be positive", w.Debounce)
	}
	return d, nil
}

// Validate checks every field. Environment overrides bypass the CUE schema,
// so this runs after all sources are merged.
func (c *Config) Validate() error {
	var errs []error
	for _, err := range []error{
		c.DefaultRuntime.Validate(),
		c.Log.Level.Validate(),
		c.Log.Format.Validate(),
		c.UI.ColorScheme.Validate(),
	} {
		if err != nil {
			errs = append(errs, err)
		}
	}
	if c.Shell == "" {
		errs = append(errs, errors.New("shell: must not be empty"))
	}
	if _, err := c.Watch.DebounceDuration(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}
