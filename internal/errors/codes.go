package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrUnavailable     ErrorCode = "service_unavailable"
	ErrAlreadyRunning  ErrorCode = "already_running"

	// Configuration errors
	ErrInvalidConfig   ErrorCode = "invalid_configuration"
	ErrBindFlags       ErrorCode = "bind_flags_failed"
	ErrReadConfig      ErrorCode = "read_config_failed"
	ErrInvalidInterval ErrorCode = "invalid_interval"
	ErrInvalidDriver   ErrorCode = "invalid_driver"

	// Logging errors
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Initialization errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"

	// Command errors
	ErrInvalidInput ErrorCode = "invalid_input"
	ErrNotFound     ErrorCode = "not_found"
	ErrInvalidState ErrorCode = "invalid_state"

	// Delivery errors
	ErrDeliveryFailed ErrorCode = "delivery_failed"
	ErrTimeout        ErrorCode = "operation_timeout"

	// Application errors
	ErrInitApp     ErrorCode = "init_app_failed"
	ErrClockStart  ErrorCode = "clock_start_failed"
	ErrHTTPServer  ErrorCode = "http_server_failed"
	ErrCloseEngine ErrorCode = "close_engine_failed"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:        "Internal error occurred",
	ErrInvalidArgument: "Invalid argument provided",
	ErrUnavailable:     "Service unavailable",
	ErrAlreadyRunning:  "Another instance is already running",
	ErrInvalidConfig:   "Invalid configuration",
	ErrBindFlags:       "Failed to bind flags",
	ErrReadConfig:      "Failed to read config file",
	ErrInvalidInterval: "Invalid interval value",
	ErrInvalidDriver:   "Unknown driver",
	ErrInvalidLogLevel: "Invalid log level",
	ErrInitFailed:      "Initialization failed",
	ErrShutdownFailed:  "Shutdown failed",
	ErrInvalidInput:    "Invalid input",
	ErrNotFound:        "Not found",
	ErrInvalidState:    "Invalid state for operation",
	ErrDeliveryFailed:  "External delivery failed",
	ErrTimeout:         "Operation timed out",
	ErrInitApp:         "Failed to initialize application",
	ErrClockStart:      "Failed to start clock",
	ErrHTTPServer:      "HTTP server failed",
	ErrCloseEngine:     "Failed to close engine",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
