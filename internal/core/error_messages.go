package core

// error_messages.go maps technical errors to user-facing messages with a
// code staff can look up.
//
//	REQ001-REQ099  malformed API requests
//	IMP001-IMP099  import job and file preconditions
//	VAL001-VAL099  row field validation
//	FILE001-FILE099 file size and format
//	UPL001-UPL099  import slot and request lifecycle
//	DB001-DB099    database constraints and connectivity
//	AUTH001-AUTH099 API keys and the identity provider
//	RATE001        request throttling
//	ERR000         anything else; check the logs for the technical error
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Request payloads
	{"invalid request", UserMessage{"The request is invalid", "Check the request fields and try again", "REQ001"}},
	{"invalid import id", UserMessage{"The import id is not valid", "Use the id returned when the import was created", "REQ002"}},

	// Import preconditions
	{"empty file", UserMessage{"The file has no header row", "Upload a CSV file with a header row and at least one data row", "IMP001"}},
	{"unreadable file", UserMessage{"The file is not CSV text", "Export the sheet as CSV (comma separated) and upload it again", "IMP002"}},
	{"import job not found", UserMessage{"Import not found", "Refresh the import history and try again", "IMP003"}},
	{"import job is not pending", UserMessage{"This import has already been processed", "Start a new import for this file", "IMP004"}},
	{"unknown import type", UserMessage{"Unknown import type", "Choose users, subjects, groups or schedules", "IMP005"}},
	{"import type does not match job", UserMessage{"The import type does not match the import job", "Start a new import with the correct type", "IMP006"}},
	{"not found; import", UserMessage{"A referenced record does not exist yet", "Import the prerequisite data first, then retry the failed rows", "IMP007"}},
	{"already exists", UserMessage{"A record with this key already exists", "Remove rows that were already imported", "IMP008"}},
	{"precondition failed", UserMessage{"The file could not be processed", "Check the file format and try again", "IMP009"}},

	// Row validation
	{"must be a date", UserMessage{"Invalid date format", "Use YYYY-MM-DD, e.g. 2024-03-15", "VAL001"}},
	{"must be an integer", UserMessage{"Invalid number", "Use whole numbers within the allowed range", "VAL002"}},
	{"must be a positive integer", UserMessage{"Invalid number", "Use a whole number of at least 1", "VAL002"}},
	{"missing required fields", UserMessage{"A required field is empty", "Fill in every required column", "VAL003"}},
	{"is required", UserMessage{"A required field is empty", "Fill in every required field", "VAL003"}},
	{"must be one of", UserMessage{"Value is not in the allowed list", "Check the allowed values for this column", "VAL004"}},
	{"invalid email", UserMessage{"Invalid email address", "Use the form name@domain.tld", "VAL005"}},
	{"must be a time", UserMessage{"Invalid time format", "Use 24 hour HH:MM, e.g. 08:30", "VAL006"}},
	{"end time must be after start time", UserMessage{"The class ends before it starts", "Make hora_fin later than hora_inicio", "VAL007"}},

	// File
	{"file too large", UserMessage{"File exceeds the maximum size", "Split the file into smaller files", "FILE001"}},
	{"unterminated quoted field", UserMessage{"A quoted value is not closed", "Close every opening quote; values may not span lines", "FILE002"}},
	{"no file provided", UserMessage{"No file was selected", "Select a CSV file to upload", "FILE003"}},

	// Import slots and request lifecycle
	{"too many concurrent imports", UserMessage{"The system is busy with other imports", "Please wait a moment and try again", "UPL002"}},
	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "UPL004"}},
	{"context deadline exceeded", UserMessage{"Request timed out", "Try a smaller file or check your connection", "UPL005"}},

	// Database
	{"duplicate key", UserMessage{"A record with this ID already exists", "Remove duplicate rows from your file", "DB001"}},
	{"unique constraint", UserMessage{"This value must be unique but already exists", "Check for duplicate entries in your CSV", "DB002"}},
	{"violates unique", UserMessage{"A duplicate value was found", "Review your data for duplicate key values", "DB002"}},
	{"foreign key", UserMessage{"Referenced record does not exist", "Import prerequisite data first", "DB003"}},
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB004"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB005"}},
	{"timeout", UserMessage{"Operation timed out", "Try a smaller file or try again later", "DB006"}},
	{"deadlock", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB007"}},

	// Auth
	{"api key", UserMessage{"Missing or invalid API key", "Provide a valid key in the X-API-Key header", "AUTH001"}},
	{"identity provider", UserMessage{"The authentication service rejected the request", "Check the auth service configuration and try again", "AUTH002"}},

	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, the ERR000 fallback is returned.
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

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
