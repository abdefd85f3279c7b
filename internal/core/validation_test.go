package core

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestRequireFields(t *testing.T) {
	rec := NewRecord(2, []string{"username", "full_name", "email"}, []string{"jperez", "  ", ""})

	err := RequireFields(rec, "username", "full_name", "email")
	var missing MissingFieldsError
	if !errors.As(err, &missing) {
		t.Fatalf("RequireFields error = %v, want MissingFieldsError", err)
	}
	if !reflect.DeepEqual(missing.Fields, []string{"full_name", "email"}) {
		t.Errorf("missing = %v", missing.Fields)
	}
	if err.Error() != "missing required fields: full_name, email" {
		t.Errorf("message = %q", err.Error())
	}

	if err := RequireFields(rec, "username"); err != nil {
		t.Errorf("RequireFields(username) = %v, want nil", err)
	}
}

func TestIntInRange(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"", 1, false},
		{"1", 1, false},
		{"10", 10, false},
		{"11", 0, true},
		{"0", 0, true},
		{"4.5", 0, true},
		{"four", 0, true},
	}
	for _, tt := range tests {
		got, err := IntInRange("credits", tt.raw, 1, 1, 10)
		if (err != nil) != tt.wantErr {
			t.Errorf("IntInRange(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("IntInRange(%q) = %d, want %d", tt.raw, got, tt.want)
		}
		if err != nil && !strings.Contains(err.Error(), "between 1 and 10") {
			t.Errorf("IntInRange(%q) message = %q", tt.raw, err.Error())
		}
	}
}

func TestPositiveInt(t *testing.T) {
	if n, err := PositiveInt("max_students", "", 30); err != nil || n != 30 {
		t.Errorf("PositiveInt(empty) = %d, %v", n, err)
	}
	if n, err := PositiveInt("max_students", "25", 30); err != nil || n != 25 {
		t.Errorf("PositiveInt(25) = %d, %v", n, err)
	}
	for _, raw := range []string{"0", "-3", "x"} {
		if _, err := PositiveInt("max_students", raw, 30); err == nil {
			t.Errorf("PositiveInt(%q) error = nil", raw)
		}
	}
}

func TestParseActive(t *testing.T) {
	tests := map[string]bool{
		"":       true,
		"true":   true,
		"1":      true,
		"TRUE":   true,
		"yes":    true,
		"maybe":  true,
		"si":     true,
		"activo": true,
		"false":  false,
		"FALSE":  false,
		"0":      false,
		"no":     false,
		" off ":  false,
	}
	for raw, want := range tests {
		if got := ParseActive(raw); got != want {
			t.Errorf("ParseActive(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestValidEmail(t *testing.T) {
	valid := []string{"juan.perez@email.com", "a@b.co", "x+tag@sub.domain.org"}
	invalid := []string{"", "juan", "juan@", "juan@email", "@email.com", "juan perez@email.com"}

	for _, e := range valid {
		if !ValidEmail(e) {
			t.Errorf("ValidEmail(%q) = false", e)
		}
	}
	for _, e := range invalid {
		if ValidEmail(e) {
			t.Errorf("ValidEmail(%q) = true", e)
		}
	}
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("fecha", "2024-03-15")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if !got.Equal(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("ParseDate = %v", got)
	}

	for _, raw := range []string{"15/03/2024", "2024-3-15", "2024-02-30", "2024-03-15T10:00"} {
		if _, err := ParseDate("fecha", raw); err == nil {
			t.Errorf("ParseDate(%q) error = nil", raw)
		}
	}
}

func TestParseClock(t *testing.T) {
	got, err := ParseClock("hora_inicio", "10:30")
	if err != nil {
		t.Fatalf("ParseClock: %v", err)
	}
	if got != 10*time.Hour+30*time.Minute {
		t.Errorf("ParseClock = %v", got)
	}
	if FormatClock(got) != "10:30" {
		t.Errorf("FormatClock = %q", FormatClock(got))
	}

	for _, raw := range []string{"9:30", "24:00", "10:60", "10.30", "10:30:00"} {
		if _, err := ParseClock("hora_inicio", raw); err == nil {
			t.Errorf("ParseClock(%q) error = nil", raw)
		}
	}
}

func TestOneOf(t *testing.T) {
	got, err := OneOf("role", "", RoleDocente, Roles)
	if err != nil || got != RoleDocente {
		t.Errorf("OneOf(empty) = %q, %v", got, err)
	}

	got, err = OneOf("role", "Coordinador", RoleDocente, Roles)
	if err != nil || got != RoleCoordinador {
		t.Errorf("OneOf(Coordinador) = %q, %v", got, err)
	}

	_, err = OneOf("role", "teacher", RoleDocente, Roles)
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("OneOf(teacher) error = %v, want ValidationError", err)
	}
	if verr.Field != "role" || verr.Value != "teacher" {
		t.Errorf("ValidationError = %+v", verr)
	}
}

func TestOptional(t *testing.T) {
	if Optional("") != nil {
		t.Error("Optional(empty) != nil")
	}
	if p := Optional("B201"); p == nil || *p != "B201" {
		t.Errorf("Optional(B201) = %v", p)
	}
}
