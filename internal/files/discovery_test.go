package files

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opspulse/pkg/contracts/domain"
)

// writeFiles creates names in dir, each one minute newer than the last.
func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	base := time.Now().Add(-time.Hour)
	for i, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("test content"), 0644))
		modTime := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(path, modTime, modTime))
	}
}

func TestNewDiscovery(t *testing.T) {
	basePath := "/test/base"
	discovery := NewDiscovery(basePath)

	assert.NotNil(t, discovery)
	assert.Equal(t, basePath, discovery.basePath)
}

func TestFindWorkbooks(t *testing.T) {
	tests := []struct {
		name     string
		files    []string
		expected []string
	}{
		{
			name:     "supported extensions in age order",
			files:    []string{"fuel.xlsx", "support.CSV", "old.xls", "macro.xlsm"},
			expected: []string{"fuel.xlsx", "support.CSV", "old.xls", "macro.xlsm"},
		},
		{
			name:     "other files skipped",
			files:    []string{"fuel.xlsx", "notes.txt", "report.pdf"},
			expected: []string{"fuel.xlsx"},
		},
		{
			name:     "empty directory",
			files:    nil,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			writeFiles(t, filepath.Join(tmpDir, "data"), tt.files...)

			found, err := NewDiscovery(tmpDir).FindWorkbooks("data")
			require.NoError(t, err)

			var names []string
			for _, f := range found {
				names = append(names, f.Name)
				assert.Equal(t, filepath.Join(tmpDir, "data", f.Name), f.Path)
			}
			assert.Equal(t, tt.expected, names)
		})
	}
}

func TestFindWorkbooks_MissingDirectory(t *testing.T) {
	found, err := NewDiscovery(t.TempDir()).FindWorkbooks("absent")

	assert.NoError(t, err)
	assert.Empty(t, found)
}

func TestFindWorkbooks_AbsoluteDir(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "fuel.csv")

	found, err := NewDiscovery("/ignored").FindWorkbooks(dir)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, filepath.Join(dir, "fuel.csv"), found[0].Path)
}

func TestMatchesKind(t *testing.T) {
	tests := []struct {
		name string
		kind domain.SheetKind
		want bool
	}{
		{"fuel.xlsx", domain.SheetFuel, true},
		{"Fuel Tickets 2024.xlsx", domain.SheetFuel, true},
		{"after-sales.csv", domain.SheetAfterSales, true},
		{"After_Sales_March.xlsx", domain.SheetAfterSales, true},
		{"aftersales.xlsx", domain.SheetAfterSales, true},
		{"support-q1.csv", domain.SheetAfterSales, true},
		{"support.csv", domain.SheetFuel, false},
		{"my-fuel.xlsx", domain.SheetFuel, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesKind(tt.name, tt.kind))
		})
	}
}

func TestLatestForKind(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "fuel-jan.xlsx", "support.csv", "fuel-feb.csv", "notes.txt")
	discovery := NewDiscovery(dir)

	latest, ok := discovery.LatestForKind("", domain.SheetFuel)
	require.True(t, ok)
	assert.Equal(t, "fuel-feb.csv", latest.Name)

	latest, ok = discovery.LatestForKind("", domain.SheetAfterSales)
	require.True(t, ok)
	assert.Equal(t, "support.csv", latest.Name)
}

func TestLatestForKind_None(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "fuel.xlsx")

	_, ok := NewDiscovery(dir).LatestForKind("", domain.SheetAfterSales)
	assert.False(t, ok)
}

func TestGetLatestFile(t *testing.T) {
	now := time.Now()
	files := []FileInfo{
		{Name: "a", ModTime: now.Add(-2 * time.Hour)},
		{Name: "b", ModTime: now},
		{Name: "c", ModTime: now.Add(-time.Hour)},
	}

	latest, ok := GetLatestFile(files)
	assert.True(t, ok)
	assert.Equal(t, "b", latest.Name)

	_, ok = GetLatestFile(nil)
	assert.False(t, ok)
}
