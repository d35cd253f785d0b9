package fireworks

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is wrapped by every construction-time parameter error.
var ErrInvalidConfig = errors.New("fireworks: invalid configuration")

// ConfigError reports the parameter that made a simulation unusable.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("fireworks: invalid %s (%v): %s", e.Field, e.Value, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

func configErr(field string, value any, reason string) error {
	return &ConfigError{Field: field, Value: value, Reason: reason}
}
