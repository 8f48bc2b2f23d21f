package telemetry

import (
	"regexp"

	"codeberg.org/mutker/kitchenctl/internal/errors"
)

const defaultNamespace = "kitchenctl"

var namespacePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

type Config struct {
	Namespace string
	// WithRuntime adds the Go runtime and process collectors.
	WithRuntime bool
}

func DefaultConfig() Config {
	return Config{
		Namespace:   defaultNamespace,
		WithRuntime: true,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()
	if !namespacePattern.MatchString(c.Namespace) {
		return errFactory.WithData(ErrInvalidConfig, c.Namespace)
	}
	return nil
}
