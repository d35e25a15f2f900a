package core

import "errors"

var (
	// ErrFileNotFound is returned for unknown, expired or foreign file IDs.
	ErrFileNotFound = errors.New("file not found")

	// ErrFileTooLarge is returned when an upload exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrSessionFull is returned when a session already holds the maximum
	// number of files.
	ErrSessionFull = errors.New("session full")

	// ErrTooManyConversions is returned when every conversion slot is
	// occupied and the wait timeout expires. Clients should retry after a
	// short delay.
	ErrTooManyConversions = errors.New("too many conversions in progress, please try again later")

	// ErrTooManyFiles is returned for files past the per-request limit.
	ErrTooManyFiles = errors.New("too many files in one upload")

	// ErrNoFile is returned when an upload request carries no file.
	ErrNoFile = errors.New("no file provided")
)
