package archive

import "github.com/healthsync/vitalsim/internal/errors"

const (
	// Configuration errors
	ErrInvalidConfig = errors.ErrorCode("archive_invalid_config")
	ErrInvalidDBPath = errors.ErrorCode("archive_invalid_db_path")

	// Recording errors
	ErrInvalidReading = errors.ErrorCode("archive_invalid_reading")
	ErrRecordFailed   = errors.ErrorCode("archive_record_failed")

	// Storage errors
	ErrStorageInit   = errors.ErrorCode("archive_storage_init_failed")
	ErrStorageAccess = errors.ErrorCode("archive_storage_access_failed")
	ErrStorageClose  = errors.ErrorCode("archive_storage_close_failed")
	ErrSchemaInit    = errors.ErrorCode("archive_schema_init_failed")
)
