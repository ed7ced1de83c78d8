// Package config reads the JSON configuration shared by the command line
// tools.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/carbocation/pfx"

	"github.com/carbocation/qtmatrix/channel"
	"github.com/carbocation/qtmatrix/missingvalue"
	"github.com/carbocation/qtmatrix/outlier"
)

// DatabaseEnv, when set, overrides the database path of the file.
const DatabaseEnv = "QTMATRIX_DB"

type Config struct {
	ConfigPath string `json:"-"`

	Database string `json:"database"`

	SignalToNoise          float64   `json:"signal_to_noise_threshold"`
	MissingValueIndicators []float64 `json:"extra_missing_value_indicators"`

	OutlierQuantile float64 `json:"outlier_quantile"`
	OutlierFraction float64 `json:"outlier_fraction"`

	// Layouts restricts channel recognition to the named vendor layouts.
	// Empty means all of them.
	Layouts           []string       `json:"layouts"`
	ExtraChannelRules []channel.Rule `json:"extra_channel_rules"`

	// ExpectedSamples, when positive, is checked against merged dimensions.
	ExpectedSamples int `json:"expected_samples"`
}

func Default() Config {
	return Config{
		Database:        "qtmatrix.db",
		SignalToNoise:   missingvalue.DefaultSignalToNoise,
		OutlierQuantile: outlier.DefaultQuantile,
		OutlierFraction: outlier.DefaultFraction,
	}
}

// ParseFromPath reads a JSON file over the defaults. An empty path yields
// the defaults. The environment is consulted last.
func ParseFromPath(path string) (Config, error) {
	out := Default()
	out.ConfigPath = expandHomeDir(path)

	if path != "" {
		f, err := os.Open(out.ConfigPath)
		if err != nil {
			return out, pfx.Err(err)
		}
		defer f.Close()

		dec := json.NewDecoder(f)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&out); err != nil {
			if e, ok := err.(*json.SyntaxError); ok {
				return out, pfx.Err(fmt.Errorf("%s: syntax error at byte offset %d: %w", path, e.Offset, err))
			}
			return out, pfx.Err(fmt.Errorf("%s: %w", path, err))
		}
	}

	if db := os.Getenv(DatabaseEnv); db != "" {
		out.Database = db
	}
	out.Database = expandHomeDir(out.Database)

	return out, out.Validate()
}

func (c Config) Validate() error {
	if !(c.SignalToNoise > 0) {
		return fmt.Errorf("signal_to_noise_threshold must be positive, got %v", c.SignalToNoise)
	}
	if c.OutlierQuantile <= 0 || c.OutlierQuantile >= 100 {
		return fmt.Errorf("outlier_quantile must be between 0 and 100, got %v", c.OutlierQuantile)
	}
	if c.OutlierFraction <= 0 || c.OutlierFraction > 1 {
		return fmt.Errorf("outlier_fraction must be in (0, 1], got %v", c.OutlierFraction)
	}
	if c.ExpectedSamples < 0 {
		return fmt.Errorf("expected_samples cannot be negative")
	}
	if _, err := c.Policy(); err != nil {
		return err
	}
	return nil
}

// Policy builds the channel naming policy: the selected layouts plus any
// extra rules.
func (c Config) Policy() (*channel.Policy, error) {
	p := channel.Default()
	if len(c.Layouts) > 0 {
		var err error
		if p, err = channel.NewPolicyByName(c.Layouts...); err != nil {
			return nil, err
		}
	}
	if len(c.ExtraChannelRules) == 0 {
		return p, nil
	}
	return p.With(c.ExtraChannelRules...)
}

// Via https://stackoverflow.com/a/17617721/199475
func expandHomeDir(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	usr, err := user.Current()
	if err != nil {
		return path
	}
	if path == "~" {
		return usr.HomeDir
	}
	return filepath.Join(usr.HomeDir, path[2:])
}
