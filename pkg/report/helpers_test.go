package report

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/pages-reporter/pkg/config"
)

var fixedTime = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

func fixedClock() time.Time { return fixedTime }

// writeTree creates files (relative path -> content) under root.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// readTree returns every regular file under root keyed by slash path.
func readTree(t *testing.T, root string) map[string]string {
	t.Helper()
	out := map[string]string{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !d.Type().IsRegular() {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return out
}

func publishConfig(pageRoot, dirName string, reports ...config.ReportSource) *config.Config {
	return &config.Config{
		PagePath:      pageRoot,
		ActionPath:    filepath.Dir(pageRoot),
		ReportName:    "Nightly",
		DirectoryName: dirName,
		CommitSHA:     "abc123",
		RunNumber:     "42",
		Reports:       reports,
	}
}

// writeBundle fakes a published bundle with the given metadata body.
func writeBundle(t *testing.T, pageRoot, name, metadata string) {
	t.Helper()
	writeTree(t, pageRoot, map[string]string{name + "/" + MetadataFile: metadata})
}

// manifestConfig returns a config whose template lives in its own dir.
func manifestConfig(t *testing.T, pageRoot, template string) *config.Config {
	t.Helper()
	action := t.TempDir()
	writeTree(t, action, map[string]string{config.DefaultTemplate: template})
	return &config.Config{PagePath: pageRoot, ActionPath: action}
}
