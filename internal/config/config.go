// Package config loads astrule settings from defaults, an optional
// .astrule.yaml file and ASTRULE_* environment variables.
package config

import (
	"regexp"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	tt "github.com/gnolang/astrule/internal/types"
)

// FileName is the configuration file looked up in the root directory.
const FileName = ".astrule.yaml"

// DefaultSelect selects rules whose name starts with an upper-case letter.
const DefaultSelect = "[A-Z].*"

// Config is the complete astrule configuration.
type Config struct {
	Spec     string            `yaml:"spec" mapstructure:"spec"`         // rule document path
	Include  []string          `yaml:"include" mapstructure:"include"`   // glob patterns of files to match
	Exclude  []string          `yaml:"exclude" mapstructure:"exclude"`   // glob patterns of files to skip
	Select   string            `yaml:"select" mapstructure:"select"`     // rules to report, full match
	Unselect string            `yaml:"unselect" mapstructure:"unselect"` // rules to drop, full match
	Timeout  time.Duration     `yaml:"timeout" mapstructure:"timeout"`
	Severity map[string]string `yaml:"severity" mapstructure:"severity"` // rule name -> severity
	Cache    CacheConfig       `yaml:"cache" mapstructure:"cache"`
}

// CacheConfig controls the per-file result cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir     string `yaml:"dir" mapstructure:"dir"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Spec:     "rules.yaml",
		Include:  []string{"**.go"},
		Exclude:  []string{".git/**", "vendor/**", "**/vendor/**", "testdata/**", "**/testdata/**"},
		Select:   DefaultSelect,
		Unselect: "",
		Timeout:  5 * time.Minute,
		Severity: map[string]string{},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".astrule-cache",
		},
	}
}

// SelectRegexp compiles Select, nil when empty.
func (c *Config) SelectRegexp() (*regexp.Regexp, error) {
	return compileOptional("select", c.Select)
}

// UnselectRegexp compiles Unselect, nil when empty.
func (c *Config) UnselectRegexp() (*regexp.Regexp, error) {
	return compileOptional("unselect", c.Unselect)
}

// SeverityOf returns the configured severity of a rule, SeverityError when
// unset. Rule names are compared ignoring case since configuration keys are
// case-insensitive.
func (c *Config) SeverityOf(rule string) tt.Severity {
	for name, level := range c.Severity {
		if !strings.EqualFold(name, rule) {
			continue
		}
		if s, err := tt.ParseSeverity(level); err == nil {
			return s
		}
	}
	return tt.SeverityError
}

func compileOptional(key, expr string) (*regexp.Regexp, error) {
	if expr == "" {
		return nil, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid %s expression", key)
	}
	return re, nil
}
