package config

import (
	"fmt"
	"strings"

	apperrors "github.com/muman613/nomad-helper/pkg/errors"
)

// Validate performs comprehensive validation of the entire config.
// It aggregates all errors and returns them, allowing the caller to print all issues at once.
func (c *Config) Validate() []error {
	var errs []error

	if _, err := c.Address(); err != nil {
		errs = append(errs, apperrors.NewValidationError("host", err.Error(), c.Host))
	}

	if strings.TrimSpace(c.CertPath) == "" {
		errs = append(errs, apperrors.NewValidationError("cert_path", "must not be empty", c.CertPath))
	}

	switch c.LogType {
	case LogTypeStderr, LogTypeStdout:
	default:
		errs = append(errs, apperrors.NewValidationError("log_type",
			fmt.Sprintf("must be %q or %q; got %q", LogTypeStderr, LogTypeStdout, c.LogType), c.LogType))
	}

	switch c.TaskPolicy {
	case PolicyLexical, PolicyDeclared:
	default:
		errs = append(errs, apperrors.NewValidationError("task_policy",
			fmt.Sprintf("must be %q or %q; got %q", PolicyLexical, PolicyDeclared, c.TaskPolicy), c.TaskPolicy))
	}

	if _, err := c.Location(); err != nil {
		errs = append(errs, apperrors.NewValidationError("timezone", err.Error(), c.Timezone))
	}

	if c.Timeout <= 0 {
		errs = append(errs, apperrors.NewValidationError("timeout",
			fmt.Sprintf("must be > 0; got %s", c.Timeout), c.Timeout))
	}

	errs = append(errs, c.validateLogging()...)

	return errs
}

func (c *Config) validateLogging() []error {
	var errs []error

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, apperrors.NewValidationError("logging.level",
			fmt.Sprintf("invalid value %q; expected one of debug, info, warn, error", c.Logging.Level), c.Logging.Level))
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, apperrors.NewValidationError("logging.format",
			fmt.Sprintf("invalid value %q; expected json or console", c.Logging.Format), c.Logging.Format))
	}

	return errs
}
