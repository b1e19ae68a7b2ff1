package logging

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

func logCleanupFailure(logger *slog.Logger, msg string, err error, operation, component string) {
	LogError(logger, msg, err,
		slog.String("operation", operation),
		slog.String("component", component))
}

// SafeCloseWithLogging closes closer and logs a failure instead of returning it.
// A nil closer is ignored.
func SafeCloseWithLogging(closer io.Closer, logger *slog.Logger, operation string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logCleanupFailure(logger, "failed to close resource", err, operation, "resource_management")
	}
}

// SafeRollbackWithLogging is meant to be deferred right after a transaction
// begins. Rolling back a committed transaction reports sql.ErrTxDone, which
// is not logged.
func SafeRollbackWithLogging(tx interface{ Rollback() error }, logger *slog.Logger, operation string) {
	if tx == nil {
		return
	}
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		logCleanupFailure(logger, "failed to rollback transaction", err, operation, "database")
	}
}

// HandleDeferredError runs deferredOp and, if it fails, logs the failure and
// stores it in *originalErr unless that already holds an error.
func HandleDeferredError(originalErr *error, deferredOp func() error, logger *slog.Logger, operation string) {
	if deferredOp == nil {
		return
	}
	err := deferredOp()
	if err == nil {
		return
	}
	logCleanupFailure(logger, "deferred operation failed", err, operation, "deferred_cleanup")
	if *originalErr == nil {
		*originalErr = fmt.Errorf("%s failed: %w", operation, err)
	}
}
