package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JonMunkholm/fileconverter/internal/codec"
	"github.com/JonMunkholm/fileconverter/internal/pipeline"
	"github.com/JonMunkholm/fileconverter/internal/table"
)

func TestMapError(t *testing.T) {
	_, csvErr := codec.ReadCSV(strings.NewReader("a\n1,2\n"))
	_, emptyErr := codec.ReadCSV(strings.NewReader(""))
	_, fmtErr := codec.FormatFromFilename("notes.txt")

	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:     "nil error returns empty",
			err:      nil,
			wantCode: "",
		},
		{
			name:        "file too large",
			err:         fmt.Errorf("read report.csv: %w", ErrFileTooLarge),
			wantCode:    "FILE001",
			wantMessage: "File exceeds the maximum upload size",
		},
		{
			name:     "empty file wins over parse error",
			err:      emptyErr,
			wantCode: "FILE002",
		},
		{
			name:     "csv parse error",
			err:      csvErr,
			wantCode: "FILE003",
		},
		{
			name:     "unsupported format",
			err:      fmtErr,
			wantCode: "FILE004",
		},
		{
			name:        "unknown column",
			err:         fmt.Errorf("project a.csv: %w %q", table.ErrUnknownColumn, "Z"),
			wantCode:    "PIPE001",
			wantMessage: "A selected column does not exist in this file",
		},
		{
			name:     "invalid options",
			err:      pipeline.ErrInvalidOptions,
			wantCode: "PIPE002",
		},
		{
			name:     "invalid output format",
			err:      fmt.Errorf("%w: %v", pipeline.ErrInvalidOptions, fmtErr),
			wantCode: "PIPE002",
		},
		{
			name:     "serialization failed",
			err:      &codec.IOError{Format: codec.XLSX, Op: "flush", Err: errors.New("disk full")},
			wantCode: "PIPE003",
		},
		{
			name:     "file not found",
			err:      ErrFileNotFound,
			wantCode: "UPL001",
		},
		{
			name:     "busy",
			err:      ErrTooManyConversions,
			wantCode: "UPL002",
		},
		{
			name:     "session full",
			err:      ErrSessionFull,
			wantCode: "UPL003",
		},
		{
			name:     "cancelled",
			err:      context.Canceled,
			wantCode: "UPL004",
		},
		{
			name:     "deadline",
			err:      context.DeadlineExceeded,
			wantCode: "UPL005",
		},
		{
			name:     "too many files",
			err:      fmt.Errorf("extra.csv: %w", ErrTooManyFiles),
			wantCode: "UPL006",
		},
		{
			name:        "rate limit",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:     "case insensitive matching",
			err:      errors.New("UNKNOWN COLUMN \"x\""),
			wantCode: "PIPE001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			assert.Equal(t, tt.wantCode, got.Code, "MapError(%v)", tt.err)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, got.Message)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	assert.Equal(t,
		"The converter is busy (Code: UPL002). Please wait a moment and try again",
		FormatUserError(ErrTooManyConversions))
	assert.Empty(t, FormatUserError(nil))
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"known error is user facing", ErrFileNotFound, true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUserFacing(tt.err))
		})
	}
}
