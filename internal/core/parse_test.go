package core

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseRow(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    []string
		wantErr error
	}{
		{"simple", "a,b,c", []string{"a", "b", "c"}, nil},
		{"quoted comma", `a,"b,c",d`, []string{"a", "b,c", "d"}, nil},
		{"trims fields", "  a , b ,c  ", []string{"a", "b", "c"}, nil},
		{"empty fields kept", "a,,c,", []string{"a", "", "c", ""}, nil},
		{"single field", "only", []string{"only"}, nil},
		{"quotes dropped", `"Juan Pérez",docente`, []string{"Juan Pérez", "docente"}, nil},
		{"escaped quote collapses", `"say ""hi""",x`, []string{"say hi", "x"}, nil},
		{"unterminated quote", `a,"b,c`, nil, ErrUnterminatedQuote},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRow(tt.line)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseRow(%q) error = %v, want %v", tt.line, err, tt.wantErr)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseRow(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestSplitLines(t *testing.T) {
	got := SplitLines("h1,h2\r\n\r\na,b\n   \nc,d\n")
	want := []string{"h1,h2", "a,b", "c,d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitLines = %q, want %q", got, want)
	}
}

func TestParseContent(t *testing.T) {
	t.Run("numbers rows over non-blank lines", func(t *testing.T) {
		file, err := ParseContent("code,name\n\nMAT100,Calculus\r\nFIS100,\"Physics, I\"\n")
		if err != nil {
			t.Fatalf("ParseContent: %v", err)
		}
		if !reflect.DeepEqual(file.Headers, []string{"code", "name"}) {
			t.Errorf("Headers = %q", file.Headers)
		}
		if len(file.Rows) != 2 {
			t.Fatalf("got %d rows, want 2", len(file.Rows))
		}
		if file.Rows[0].Line != 2 || file.Rows[1].Line != 3 {
			t.Errorf("row lines = %d,%d, want 2,3", file.Rows[0].Line, file.Rows[1].Line)
		}
		if file.Rows[1].Fields[1] != "Physics, I" {
			t.Errorf("quoted field = %q", file.Rows[1].Fields[1])
		}
	})

	t.Run("header only", func(t *testing.T) {
		file, err := ParseContent("code,name\n")
		if err != nil {
			t.Fatalf("ParseContent: %v", err)
		}
		if len(file.Rows) != 0 {
			t.Errorf("got %d rows, want 0", len(file.Rows))
		}
	})

	t.Run("bad row kept with error", func(t *testing.T) {
		file, err := ParseContent("code,name\n\"MAT100,Calc\nFIS100,Physics")
		if err != nil {
			t.Fatalf("ParseContent: %v", err)
		}
		if !errors.Is(file.Rows[0].Err, ErrUnterminatedQuote) {
			t.Errorf("row 2 err = %v, want ErrUnterminatedQuote", file.Rows[0].Err)
		}
		if file.Rows[0].Text != `"MAT100,Calc` {
			t.Errorf("row 2 text = %q", file.Rows[0].Text)
		}
		if file.Rows[1].Err != nil {
			t.Errorf("row 3 err = %v, want nil", file.Rows[1].Err)
		}
	})

	errTests := []struct {
		name    string
		content string
		want    error
	}{
		{"empty", "", ErrEmptyFile},
		{"blank lines only", "\n \r\n\t\n", ErrEmptyFile},
		{"unbalanced header", "\"code,name\nMAT100,x", ErrUnreadableFile},
		{"unnamed header", ",,\na,b,c", ErrUnreadableFile},
	}
	for _, tt := range errTests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseContent(tt.content)
			if !errors.Is(err, tt.want) {
				t.Errorf("ParseContent error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewRecord(t *testing.T) {
	rec := NewRecord(2, []string{"Code", "name", "credits"}, []string{" MAT100 ", "Calculus"})

	if got := rec.Get("code"); got != "MAT100" {
		t.Errorf("Get(code) = %q, want MAT100", got)
	}
	if got := rec.Get("credits"); got != "" {
		t.Errorf("missing trailing value = %q, want empty", got)
	}
	if !rec.Has("CREDITS") {
		t.Error("Has(CREDITS) = false, want true")
	}
	if rec.Has("description") {
		t.Error("Has(description) = true, want false")
	}

	raw := rec.Raw()
	want := map[string]string{"Code": " MAT100 ", "name": "Calculus", "credits": ""}
	if !reflect.DeepEqual(raw, want) {
		t.Errorf("Raw() = %v, want %v", raw, want)
	}
	raw["name"] = "changed"
	if rec.Get("name") != "Calculus" {
		t.Error("Raw() must return a copy")
	}
}
