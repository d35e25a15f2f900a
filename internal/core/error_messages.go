package core

// error_messages.go maps technical errors to user-facing messages.
//
// Every message carries a code that users can quote to support staff.
// Codes are grouped by category:
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: file exceeds the upload size limit
//	          Patterns: "file too large"
//
//	FILE002 - Empty file: file has no header row
//	          Patterns: "empty file"
//
//	FILE003 - Unreadable file: content could not be parsed
//	          Patterns: "parse error"
//
//	FILE004 - Unsupported format: extension is not .csv or .xlsx
//	          Patterns: "unsupported format"
//
//	FILE005 - No file: request contained no file
//	          Patterns: "no file provided"
//
// # Pipeline Errors (PIPE001-PIPE099)
//
//	PIPE001 - Unknown column: selection names a column the file lacks
//	          Patterns: "unknown column"
//
//	PIPE002 - Invalid options: output format or switches are invalid
//	          Patterns: "invalid options"
//
//	PIPE003 - Serialization failed: output could not be written
//	          Patterns: "serialization failed"
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL001 - File expired: stored file was not found
//	         Patterns: "file not found"
//
//	UPL002 - System busy: every conversion slot is in use
//	         Patterns: "too many conversions"
//
//	UPL003 - Session full: too many files are held for this session
//	         Patterns: "session full"
//
//	UPL004 - Request cancelled
//	         Patterns: "context canceled"
//
//	UPL005 - Request timeout
//	         Patterns: "context deadline exceeded"
//
//	UPL006 - Too many files in one upload request
//	         Patterns: "too many files"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//	          Patterns: "rate limit"
//
// # Default (ERR000)
//
// Returned when nothing matches. Check the logs for the technical error,
// which is always logged with the request ID.
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Checked first: a bad output format also mentions "unsupported format".
	{
		pattern: "invalid options",
		msg: UserMessage{
			Message: "The conversion options are invalid",
			Action:  "Choose CSV or Excel as the output format",
			Code:    "PIPE002",
		},
	},

	// File errors
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the file into smaller parts",
			Code:    "FILE001",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The file is empty",
			Action:  "Upload a file with a header row",
			Code:    "FILE002",
		},
	},
	{
		pattern: "parse error",
		msg: UserMessage{
			Message: "The file could not be read",
			Action:  "Check that the file is a valid CSV or Excel workbook",
			Code:    "FILE003",
		},
	},
	{
		pattern: "unsupported format",
		msg: UserMessage{
			Message: "Unsupported file type",
			Action:  "Upload a .csv or .xlsx file",
			Code:    "FILE004",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Choose at least one CSV or Excel file",
			Code:    "FILE005",
		},
	},

	// Pipeline errors
	{
		pattern: "unknown column",
		msg: UserMessage{
			Message: "A selected column does not exist in this file",
			Action:  "Pick columns from the list shown for this file",
			Code:    "PIPE001",
		},
	},
	{
		pattern: "serialization failed",
		msg: UserMessage{
			Message: "The converted file could not be written",
			Action:  "Please try again or choose another output format",
			Code:    "PIPE003",
		},
	},

	// Upload and session errors
	{
		pattern: "file not found",
		msg: UserMessage{
			Message: "This file is no longer available",
			Action:  "Files expire after a period of inactivity. Please upload it again",
			Code:    "UPL001",
		},
	},
	{
		pattern: "too many conversions",
		msg: UserMessage{
			Message: "The converter is busy",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "session full",
		msg: UserMessage{
			Message: "Too many files are open",
			Action:  "Remove a file before uploading another",
			Code:    "UPL003",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "UPL005",
		},
	},
	{
		pattern: "too many files",
		msg: UserMessage{
			Message: "Too many files in one upload",
			Action:  "Upload fewer files at a time",
			Code:    "UPL006",
		},
	},

	// Rate limiting
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It returns the first matching pattern, or the ERR000 fallback.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display:
// "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
