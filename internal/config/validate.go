package config

import (
	"github.com/cockroachdb/errors"

	tt "github.com/gnolang/astrule/internal/types"
)

var (
	// ErrEmptySpec indicates a missing rule document path.
	ErrEmptySpec = errors.New("empty spec path")

	// ErrInvalidTimeout indicates a non-positive timeout.
	ErrInvalidTimeout = errors.New("invalid timeout")

	// ErrInvalidSeverity indicates an unknown severity name.
	ErrInvalidSeverity = errors.New("invalid severity")

	// ErrInvalidSelector indicates a select or unselect expression that does not compile.
	ErrInvalidSelector = errors.New("invalid rule selector")
)

// Validate checks the configuration and reports every problem found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Spec == "" {
		errs = append(errs, ErrEmptySpec)
	}
	if cfg.Timeout <= 0 {
		errs = append(errs, errors.Wrapf(ErrInvalidTimeout, "timeout must be positive, got %s", cfg.Timeout))
	}
	for rule, level := range cfg.Severity {
		if _, err := tt.ParseSeverity(level); err != nil {
			errs = append(errs, errors.Wrapf(ErrInvalidSeverity, "rule %s: %q", rule, level))
		}
	}
	if _, err := cfg.SelectRegexp(); err != nil {
		errs = append(errs, errors.Mark(err, ErrInvalidSelector))
	}
	if _, err := cfg.UnselectRegexp(); err != nil {
		errs = append(errs, errors.Mark(err, ErrInvalidSelector))
	}

	return errors.Join(errs...)
}
