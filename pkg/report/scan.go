package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/devicelab-dev/pages-reporter/pkg/core"
	"github.com/devicelab-dev/pages-reporter/pkg/logger"
)

// ScanBundles reads the metadata of every completed bundle directly under
// root and returns them newest first. Children without metadata.json are
// skipped. Unparseable metadata is an ErrCorruptMetadata error.
func ScanBundles(root string) ([]Entry, error) {
	children, err := os.ReadDir(root)
	if err != nil {
		return nil, core.ErrReadFailed.WithMessage(fmt.Sprintf("list %s", root)).WithCause(err)
	}

	entries := make([]Entry, 0, len(children))
	for _, child := range children {
		dir := filepath.Join(root, child.Name())
		if !isDir(dir, child) {
			continue
		}
		entry, ok, err := readEntry(dir)
		if err != nil {
			return nil, err
		}
		if !ok {
			logger.Debug("skip %s (no %s)", dir, MetadataFile)
			continue
		}
		entry.Dir = child.Name()
		entries = append(entries, entry)
	}

	// ReadDir is sorted by name, so equal timestamps stay in name order
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})
	return entries, nil
}

// isDir follows symlinks, so a linked bundle directory counts.
func isDir(path string, d fs.DirEntry) bool {
	if d.IsDir() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// readEntry loads dir/metadata.json. ok is false when the file is absent.
func readEntry(dir string) (Entry, bool, error) {
	path := filepath.Join(dir, MetadataFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, core.ErrReadFailed.WithMessage(fmt.Sprintf("read %s", path)).WithCause(err)
	}

	corrupt := core.ErrCorruptMetadata.
		WithMessage(fmt.Sprintf("parse %s", path)).
		WithDetails(map[string]interface{}{"path": path})

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Entry{}, false, corrupt.WithCause(err)
	}
	if fields == nil {
		return Entry{}, false, corrupt.WithCause(errors.New("metadata is not a JSON object"))
	}

	var ts string
	if raw, ok := fields["timestamp"]; ok {
		if err := json.Unmarshal(raw, &ts); err != nil {
			return Entry{}, false, corrupt.WithCause(fmt.Errorf("timestamp: %w", err))
		}
	}

	return Entry{Timestamp: ts, Raw: json.RawMessage(data)}, true, nil
}
