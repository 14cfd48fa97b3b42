package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"opspulse/internal/dataprocessing"
	"opspulse/pkg/contracts/domain"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// kindPrefixes are the lower-cased file name prefixes that mark a workbook as
// belonging to a sheet kind.
var kindPrefixes = map[domain.SheetKind][]string{
	domain.SheetFuel:       {"fuel"},
	domain.SheetAfterSales: {"after-sales", "after_sales", "aftersales", "support"},
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

func (d *Discovery) resolve(dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

// FindWorkbooks finds every file in dir with a supported workbook extension,
// oldest first. A missing directory yields no files.
func (d *Discovery) FindWorkbooks(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !dataprocessing.IsSupportedFile(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime.Before(files[j].ModTime)
	})

	return files, nil
}

// FindForKind narrows FindWorkbooks to the files named for kind.
func (d *Discovery) FindForKind(dir string, kind domain.SheetKind) ([]FileInfo, error) {
	all, err := d.FindWorkbooks(dir)
	if err != nil {
		return nil, err
	}

	var files []FileInfo
	for _, f := range all {
		if MatchesKind(f.Name, kind) {
			files = append(files, f)
		}
	}
	return files, nil
}

// LatestForKind returns the most recently modified workbook for kind. Read
// errors are reported as not found.
func (d *Discovery) LatestForKind(dir string, kind domain.SheetKind) (FileInfo, bool) {
	files, err := d.FindForKind(dir, kind)
	if err != nil {
		return FileInfo{}, false
	}
	return GetLatestFile(files)
}

// MatchesKind reports whether a file name starts with one of kind's prefixes.
func MatchesKind(name string, kind domain.SheetKind) bool {
	lower := strings.ToLower(filepath.Base(name))
	for _, prefix := range kindPrefixes[kind] {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// GetLatestFile returns the most recently modified file from a list
func GetLatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}

	latest := files[0]
	for _, file := range files[1:] {
		if file.ModTime.After(latest.ModTime) {
			latest = file
		}
	}

	return latest, true
}
