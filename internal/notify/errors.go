package notify

import "codeberg.org/mutker/kitchenctl/internal/errors"

const (
	// Storage Errors
	ErrInvalidDBPath          = errors.ErrorCode("notify_invalid_db_path")
	ErrStorageInit            = errors.ErrorCode("notify_storage_init_failed")
	ErrStorageAccess          = errors.ErrorCode("notify_storage_access_failed")
	ErrStorageClose           = errors.ErrorCode("notify_storage_close_failed")
	ErrSchemaInitFailed       = errors.ErrorCode("notify_schema_init_failed")
	ErrSchemaValidationFailed = errors.ErrorCode("notify_schema_validation_failed")
	ErrSchemaMigrationFailed  = errors.ErrorCode("notify_schema_migration_failed")

	// Delivery Errors
	ErrDeliveryFailed = errors.ErrDeliveryFailed
	ErrDeliveryPanic  = errors.ErrorCode("notify_delivery_panic")
)
