package core

// error_messages.go maps errors to user-facing messages.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. Users can quote the code returned in the response envelope.
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL007 - Invalid request parameters (field-level detail in "errors")
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large (default limit 10MB)
//	FILE002 - File could not be parsed as CSV or Excel
//	FILE003 - Encoding error
//	FILE004 - No file was uploaded
//	FILE005 - File parsed but contained no valid sales rows
//	FILE006 - Unsupported file extension
//	FILE007 - Unsupported MIME type
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - Too many uploads in progress
//	UPL004 - Request cancelled
//	UPL005 - Request timed out
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key
//	DB004 - Store unavailable or batch rejected
//	DB005 - Connection reset
//	DB006 - Timeout
//
// # Other
//
//	NF001   - Route not found
//	NF002   - Method not allowed
//	AUTH001 - Missing API key
//	AUTH002 - Invalid API key
//	RATE001 - Rate limited
//	ERR000  - Unexpected error; check the server logs by request ID
//
// # Matching
//
// Errors produced by this package are matched with errors.Is against the
// sentinel table first. Errors from drivers and the runtime fall back to a
// case-insensitive substring table. The first match wins in both tables.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// sentinelMessages maps the package's own errors to user messages.
var sentinelMessages = []struct {
	target error
	msg    UserMessage
}{
	{ErrFileTooLarge, UserMessage{
		Message: "File size too large",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE001",
	}},
	{ErrParse, UserMessage{
		Message: "File could not be read as a spreadsheet",
		Action:  "Ensure the file is a valid CSV or Excel workbook with a header row",
		Code:    "FILE002",
	}},
	{ErrNoFile, UserMessage{
		Message: "No file uploaded",
		Action:  "Please select a CSV or Excel file to upload",
		Code:    "FILE004",
	}},
	{ErrNoValidData, UserMessage{
		Message: "No valid data found in the uploaded file",
		Action:  "Each row needs a date, product, category, region and a positive quantity and price",
		Code:    "FILE005",
	}},
	{ErrUnsupportedFormat, UserMessage{
		Message: "Unsupported file format",
		Action:  "Upload a .csv, .xlsx or .xls file",
		Code:    "FILE006",
	}},
	{ErrUnsupportedMediaType, UserMessage{
		Message: "Invalid file type. Only CSV and Excel files are allowed.",
		Action:  "Upload a .csv, .xlsx or .xls file",
		Code:    "FILE007",
	}},
	{ErrTooManyUploads, UserMessage{
		Message: "System is busy processing other uploads",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}},
	{ErrPersistence, UserMessage{
		Message: "Unable to save data",
		Action:  "Please try again in a few moments",
		Code:    "DB004",
	}},
	{context.Canceled, UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}},
	{context.DeadlineExceeded, UserMessage{
		Message: "Request timed out",
		Action:  "Try uploading a smaller file or try again later",
		Code:    "UPL005",
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) from drivers
// and the runtime to user messages. More specific patterns come first.
var errorPatterns = []errorPattern{
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this ID already exists",
			Action:  "Check the file for duplicate rows",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "File contains invalid characters",
			Action:  "Save file as UTF-8 encoding",
			Code:    "FILE003",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
	{
		pattern: "route not found",
		msg: UserMessage{
			Message: "Route not found",
			Action:  "Check the request path",
			Code:    "NF001",
		},
	},
	{
		pattern: "method not allowed",
		msg: UserMessage{
			Message: "Method not allowed",
			Action:  "Check the HTTP method for this route",
			Code:    "NF002",
		},
	},
	{
		pattern: "missing api key",
		msg: UserMessage{
			Message: "Authentication required",
			Action:  "Send a valid key in the X-API-Key header",
			Code:    "AUTH001",
		},
	},
	{
		pattern: "invalid api key",
		msg: UserMessage{
			Message: "API key not accepted",
			Action:  "Check the configured API key",
			Code:    "AUTH002",
		},
	},
}

// validationMessage is returned for ValidationErrors.
var validationMessage = UserMessage{
	Message: "Invalid request parameters",
	Action:  "Correct the listed fields and retry",
	Code:    "VAL007",
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	msg := MapError(fmt.Errorf("%w: sheet missing", ErrParse))
//	// msg.Code == "FILE002"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var verrs ValidationErrors
	if errors.As(err, &verrs) {
		return validationMessage
	}

	for _, s := range sentinelMessages {
		if errors.Is(err, s.target) {
			return s.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
