// Package core provides the business logic of the file converter.
//
// This package contains the session-scoped file store and the service that
// runs the cleaning pipeline. It has no transport dependencies and is used
// by the web handlers and tests alike.
//
// # Service
//
// [Service.AddFile] reads an upload, parses it once to validate it and
// stores the raw bytes under a generated ID. [Service.Process] re-parses
// those bytes for every request and runs the pipeline with the request's
// own options, so no cleaned table outlives the request that built it.
// [Service.Convert] additionally records the produced artifact in the
// conversion history.
//
// Files belong to the session carried in the context (see
// [ContextWithSession]) and expire after a period of inactivity. A sweeper
// started with [Service.StartSweeper] releases expired files.
//
// # Concurrency
//
// Pipeline runs are bounded by a [ConvertLimiter]. When every slot is
// taken, runs wait up to the configured timeout and then fail with
// [ErrTooManyConversions].
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each category has a code for support reference:
//
//   - FILE001-FILE005: File errors (size, parsing, format)
//   - PIPE001-PIPE003: Pipeline errors (columns, options, serialization)
//   - UPL001-UPL006: Upload and session errors
//   - RATE001: Rate limiting
package core
