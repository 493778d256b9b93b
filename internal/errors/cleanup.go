// Package errors provides cleanup helpers that keep close errors visible.
package errors

import (
	"errors"
	"io"
	"os"

	"github.com/rs/zerolog"
)

// DeferClose closes closer and logs a failure at warn level.
// Use it in defer statements for readers whose close error carries no data.
func DeferClose(logger zerolog.Logger, closer io.Closer, msg string) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logger.Warn().Err(err).Msg(msg)
	}
}

// CloseInto closes closer and records its error in *errp unless *errp is
// already set. Use it with a named return for written files, where a failed
// close means lost data.
func CloseInto(closer io.Closer, errp *error) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil && *errp == nil {
		*errp = err
	}
}

// RemoveOnError deletes path when *errp is set, logging a failed removal.
// It keeps partially written files from looking like complete downloads.
func RemoveOnError(logger zerolog.Logger, path string, errp *error) {
	if *errp == nil {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn().Err(err).Str("path", path).Msg("Failed to remove partial file")
	}
}
