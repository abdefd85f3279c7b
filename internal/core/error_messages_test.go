package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{"nil error returns empty", nil, ""},
		{"empty file precondition", &PreconditionError{Err: ErrEmptyFile}, "IMP001"},
		{"unreadable file", ErrUnreadableFile, "IMP002"},
		{"job not found", fmt.Errorf("get job: %w", ErrJobNotFound), "IMP003"},
		{"job not pending", ErrJobNotPending, "IMP004"},
		{"unknown kind", fmt.Errorf("%w: %q", ErrUnknownKind, "teachers"), "IMP005"},
		{"missing reference", &ReferenceError{Entity: "teacher", Field: "username", Value: "jdoe", Prerequisite: KindUsers}, "IMP007"},
		{"duplicate", &DuplicateError{Entity: "subject", Field: "code", Value: "MAT100"}, "IMP008"},
		{"invalid date", ValidationError{Field: "fecha", Message: "must be a date in YYYY-MM-DD format"}, "VAL001"},
		{"credits out of range", ValidationError{Field: "credits", Message: "must be an integer between 1 and 10"}, "VAL002"},
		{"missing fields", MissingFieldsError{Fields: []string{"code"}}, "VAL003"},
		{"bad enum", ValidationError{Field: "role", Message: "must be one of: admin"}, "VAL004"},
		{"unterminated quote", ErrUnterminatedQuote, "FILE002"},
		{"busy", ErrTooManyImports, "UPL002"},
		{"duplicate key", errors.New("ERROR: duplicate key value violates unique constraint"), "DB001"},
		{"connection refused", errors.New("dial tcp: connection refused"), "DB004"},
		{"rate limit", errors.New("rate limit exceeded"), "RATE001"},
		{"unknown error returns default", errors.New("some random internal error"), "ERR000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrTooManyImports)

	expected := "The system is busy with other imports (Code: UPL002). Please wait a moment and try again"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	if IsUserFacing(nil) {
		t.Error("IsUserFacing(nil) = true")
	}
	if !IsUserFacing(ErrEmptyFile) {
		t.Error("IsUserFacing(ErrEmptyFile) = false")
	}
	if IsUserFacing(errors.New("random internal error xyz")) {
		t.Error("IsUserFacing(unknown) = true")
	}
}

func TestNewUserError(t *testing.T) {
	if got := NewUserError(nil); got != nil {
		t.Errorf("NewUserError(nil) = %v, want nil", got)
	}

	techErr := errors.New("pq: duplicate key value")
	userErr := NewUserError(techErr)
	if userErr.Error() != "A record with this ID already exists" {
		t.Errorf("Error() = %q, want user message", userErr.Error())
	}
	if !errors.Is(userErr, techErr) {
		t.Error("Unwrap() should return original error")
	}
}
