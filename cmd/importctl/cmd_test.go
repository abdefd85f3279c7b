package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/academia/internal/config"
	"github.com/JonMunkholm/academia/internal/core"
	"github.com/JonMunkholm/academia/internal/store"
)

// setup returns a CLI whose commands all share one in-memory store.
func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	t.Helper()
	var out, errOut bytes.Buffer

	mem := store.NewMemory()
	svc := core.NewService(mem, mem, mem, core.Options{})

	cli := newCommandLine(&out, &errOut)
	cli.openService = func(context.Context, bool) (*core.Service, func(), error) {
		return svc, func() {}, nil
	}
	cli.loadConfig = func() (*config.Config, error) {
		return nil, errors.New("no database in tests")
	}
	return cli, &out
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "materias.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

type cliTest struct {
	name       string
	args       []string
	wantErrStr string
	wantOut    []string
}

func TestCommandLine(t *testing.T) {
	file := writeCSV(t, "code,name,credits\nMAT100,Calculus I,4\nMAT100,Calculus II,3\n")

	tests := []cliTest{
		{
			name:    "run",
			args:    []string{"run", "--type", "subjects", "--file", file},
			wantOut: []string{"processed=2 successful=1 failed=1", "ROW", `subject with code "MAT100" already exists`, "code=MAT100 credits=3 name=Calculus II"},
		},
		{name: "run without file", args: []string{"run", "--type", "subjects"}, wantErrStr: `required flag(s) "file" not set`},
		{name: "run unknown type", args: []string{"run", "--type", "teachers", "--file", file}, wantErrStr: "unknown import type"},
		{name: "run missing file", args: []string{"run", "--type", "subjects", "--file", "/nonexistent.csv"}, wantErrStr: "read /nonexistent.csv"},
		{name: "run bad actor", args: []string{"run", "--type", "subjects", "--file", file, "--imported-by", "me"}, wantErrStr: "--imported-by"},
		{name: "template", args: []string{"template", "groups"}, wantOut: []string{"name,code,semester,year,max_students,subject_code"}},
		{name: "template unknown", args: []string{"template", "rooms"}, wantErrStr: "unknown import type"},
		{name: "errors bad id", args: []string{"errors", "abc"}, wantErrStr: `invalid import id "abc"`},
		{name: "errors unknown job", args: []string{"errors", "6f1c2a4e-6b8d-4c1f-9a55-0d9f3b7e2c10"}, wantErrStr: "import job not found"},
		{name: "list bad status", args: []string{"list", "--status", "done"}, wantErrStr: `unknown job status "done"`},
		{name: "migrate dry run", args: []string{"--dry-run", "migrate"}, wantErrStr: "drop --dry-run"},
		{name: "migrate without config", args: []string{"migrate"}, wantErrStr: "no database in tests"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli, out := setup(t)
			err := cli.run(context.Background(), tt.args)
			if tt.wantErrStr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrStr)
				return
			}
			require.NoError(t, err)
			for _, want := range tt.wantOut {
				assert.Contains(t, out.String(), want)
			}
		})
	}
}

func TestCommandLine_RunThenInspect(t *testing.T) {
	cli, out := setup(t)
	ctx := context.Background()
	file := writeCSV(t, "code,name\nMAT100,Calculus\nMAT 200,Algebra\n")

	require.NoError(t, cli.run(ctx, []string{"run", "--json", "--type", "subjects", "--file", file}))

	var result struct {
		ImportID   string          `json:"import_id"`
		Processed  int             `json:"processed"`
		Successful int             `json:"successful"`
		Failed     int             `json:"failed"`
		Errors     []core.RowError `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &result))
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 3, result.Errors[0].RowNumber)

	out.Reset()
	require.NoError(t, cli.run(ctx, []string{"list", "--type", "subjects"}))
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], result.ImportID)
	assert.Contains(t, lines[1], "materias.csv")
	assert.Contains(t, lines[1], "completed")

	out.Reset()
	require.NoError(t, cli.run(ctx, []string{"errors", result.ImportID}))
	assert.Contains(t, out.String(), "must not contain spaces")
}

func TestCommandLine_EmptyFileFailsJob(t *testing.T) {
	cli, out := setup(t)
	ctx := context.Background()
	file := writeCSV(t, "\n\n")

	err := cli.run(ctx, []string{"run", "--type", "users", "--file", file})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "IMP001")

	out.Reset()
	require.NoError(t, cli.run(ctx, []string{"list", "--status", "failed", "--json"}))

	var jobs []core.ImportJob
	require.NoError(t, json.Unmarshal(out.Bytes(), &jobs))
	require.Len(t, jobs, 1)
	assert.Equal(t, core.KindUsers, jobs[0].Kind)
}

func TestFormatRowData(t *testing.T) {
	got := formatRowData(map[string]string{"name": "Calculus", "code": "MAT100"})
	assert.Equal(t, "code=MAT100 name=Calculus", got)
}
