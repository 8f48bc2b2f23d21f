package telemetry

import "codeberg.org/mutker/kitchenctl/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrorCode("telemetry_invalid_config")

	// Registration Errors
	ErrRegister = errors.ErrorCode("telemetry_register_failed")
)
