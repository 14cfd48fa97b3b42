package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fuelCSV = `Id,Start time,Completion time,Company Name,Issue(s) List
1,2024-01-15,2024-01-16,Acme Co,Sensor Fail; OTP
2,2024-01-20,,Acme Co,Sensor Fail
3,2024-02-03,,Acme Co,Sensor Fail
4,2024-02-10,,Beta Ltd,Bluetooth issue
`

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fuel.csv")
	require.NoError(t, os.WriteFile(path, []byte(fuelCSV), 0o644))
	return path
}

func TestRun_Overview(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-file", writeFixture(t)}, &stdout, &stderr)
	require.NoError(t, err)

	var overview struct {
		Total    int `json:"total"`
		Resolved int `json:"resolved"`
		Pending  int `json:"pending"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &overview))
	assert.Equal(t, 4, overview.Total)
	assert.Equal(t, 1, overview.Resolved)
	assert.Equal(t, 3, overview.Pending)
}

func TestRun_SearchFiltersRecords(t *testing.T) {
	var stdout, stderr bytes.Buffer
	args := []string{"-file", writeFixture(t), "-view", "records", "-search", "beta"}
	require.NoError(t, run(context.Background(), args, &stdout, &stderr))

	var records []map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &records))
	assert.Len(t, records, 1)
}

func TestRun_ExportWritesCSV(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.csv")
	var stdout, stderr bytes.Buffer
	args := []string{"-file", writeFixture(t), "-out", out, "-start", "2024-02-01"}
	require.NoError(t, run(context.Background(), args, &stdout, &stderr))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 3, "header plus two February tickets")
	assert.Empty(t, stdout.String())
}

func TestRun_Errors(t *testing.T) {
	fixture := writeFixture(t)

	tests := []struct {
		name        string
		args        []string
		errContains string
	}{
		{"missing file flag", []string{}, "-file is required"},
		{"unknown kind", []string{"-file", fixture, "-kind", "lubricant"}, "unknown sheet kind"},
		{"unknown view", []string{"-file", fixture, "-view", "nope"}, "unknown view"},
		{"calibration on fuel", []string{"-file", fixture, "-view", "calibration"}, "after-sales"},
		{"inverted date range", []string{"-file", fixture, "-start", "2024-03-20", "-end", "2024-03-01"}, "end date is before start date"},
		{"missing workbook", []string{"-file", filepath.Join(t.TempDir(), "gone.csv")}, "not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := run(context.Background(), tt.args, &stdout, &stderr)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
		})
	}
}

func TestRun_Help(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-h"}, &stdout, &stderr)
	assert.ErrorIs(t, err, flag.ErrHelp)
	assert.Contains(t, stderr.String(), "-file")
}

func TestExitCode(t *testing.T) {
	dir := t.TempDir()
	headersOnly := filepath.Join(dir, "fuel-empty.csv")
	require.NoError(t, os.WriteFile(headersOnly, []byte("Id,Company Name\n"), 0o644))

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"headers only", []string{"-file", headersOnly}, exitDataErr},
		{"missing file", []string{"-file", filepath.Join(dir, "gone.csv")}, exitNoInput},
		{"unknown view", []string{"-file", writeFixture(t), "-view", "pie"}, exitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			err := run(context.Background(), tt.args, &stdout, &stderr)
			require.Error(t, err)
			assert.Equal(t, tt.want, exitCode(err))
		})
	}
}
