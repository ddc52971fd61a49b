// Package sl contains helper functions for the slog logger.
// The main purpose is to simplify building structured log fields,
// for example when attaching error information.
package sl

import "log/slog"

// Err returns a slog.Attr with the key "error" and the error text as value.
// Keeps error output uniform across the codebase.
//
// Example:
//
//	log.Error("failed to do something", sl.Err(err))
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}
