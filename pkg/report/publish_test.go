package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devicelab-dev/pages-reporter/pkg/config"
	"github.com/devicelab-dev/pages-reporter/pkg/core"
)

func TestPublish_CopiesReportsAndWritesMetadata(t *testing.T) {
	src := t.TempDir()
	junit := filepath.Join(src, "junit")
	allure := filepath.Join(src, "allure")
	writeTree(t, junit, map[string]string{
		"results.xml":        "<testsuite/>",
		"nested/deep/a.json": `{"a":1}`,
	})
	writeTree(t, allure, map[string]string{"index.html": "<html></html>"})
	pageRoot := filepath.Join(t.TempDir(), "pages")

	cfg := publishConfig(pageRoot, "run42",
		config.ReportSource{Kind: "junit", Path: junit},
		config.ReportSource{Kind: "allure", Path: allure},
	)
	result, err := Publish(cfg, WithClock(fixedClock))
	require.NoError(t, err)

	bundle := filepath.Join(pageRoot, "run42")
	assert.Equal(t, bundle, result.BundleDir)
	assert.Equal(t, 3, result.Files)
	assert.Equal(t, readTree(t, junit), readTree(t, filepath.Join(bundle, "junit")))
	assert.Equal(t, readTree(t, allure), readTree(t, filepath.Join(bundle, "allure")))

	children, err := os.ReadDir(bundle)
	require.NoError(t, err)
	var names []string
	for _, c := range children {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"junit", "allure", MetadataFile}, names)

	data, err := os.ReadFile(filepath.Join(bundle, MetadataFile))
	require.NoError(t, err)
	var md Metadata
	require.NoError(t, json.Unmarshal(data, &md))
	assert.Equal(t, Metadata{
		Name:      "Nightly",
		CommitSHA: "abc123",
		RunNumber: "42",
		Timestamp: "20240102-030405",
		DirName:   "run42",
		Reports:   []string{"junit", "allure"},
	}, md)
	assert.Equal(t, md, result.Metadata)
}

func TestPublish_MetadataFormat(t *testing.T) {
	pageRoot := t.TempDir()

	_, err := Publish(publishConfig(pageRoot, "run1"), WithClock(fixedClock))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(pageRoot, "run1", MetadataFile))
	require.NoError(t, err)
	want := `{
    "name": "Nightly",
    "commit_sha": "abc123",
    "run_number": "42",
    "timestamp": "20240102-030405",
    "dirName": "run1",
    "reports": []
}`
	assert.Equal(t, want, string(data))
}

func TestPublish_TimestampIsUTCWithinCall(t *testing.T) {
	pageRoot := t.TempDir()

	start := time.Now().UTC().Truncate(time.Second)
	result, err := Publish(publishConfig(pageRoot, "run1"))
	end := time.Now().UTC()
	require.NoError(t, err)

	ts := result.Metadata.Timestamp
	assert.Len(t, ts, 15)
	assert.Regexp(t, regexp.MustCompile(`^\d{8}-\d{6}$`), ts)
	parsed, err := time.Parse(TimestampFormat, ts)
	require.NoError(t, err)
	assert.False(t, parsed.Before(start), "timestamp %s before start %s", parsed, start)
	assert.False(t, parsed.After(end), "timestamp %s after end %s", parsed, end)
}

func TestPublish_ConflictLeavesExistingBundle(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"new.xml": "new"})
	pageRoot := t.TempDir()
	writeTree(t, pageRoot, map[string]string{
		"run42/" + MetadataFile: `{"timestamp":"20230101-000000"}`,
		"run42/junit/old.xml":   "old",
	})
	before := readTree(t, filepath.Join(pageRoot, "run42"))

	_, err := Publish(publishConfig(pageRoot, "run42", config.ReportSource{Kind: "junit", Path: src}))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrBundleExists)
	assert.Equal(t, core.ErrCategoryConflict, core.CategoryOf(err))
	assert.Equal(t, before, readTree(t, filepath.Join(pageRoot, "run42")))
}

func TestPublish_SecondRunSameNameFails(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"a.txt": "a"})
	pageRoot := t.TempDir()
	cfg := publishConfig(pageRoot, "run42", config.ReportSource{Kind: "unit", Path: src})

	_, err := Publish(cfg, WithClock(fixedClock))
	require.NoError(t, err)
	first := readTree(t, filepath.Join(pageRoot, "run42"))

	writeTree(t, src, map[string]string{"b.txt": "b"})
	_, err = Publish(cfg, WithClock(func() time.Time { return fixedTime.Add(time.Hour) }))
	assert.ErrorIs(t, err, core.ErrBundleExists)
	assert.Equal(t, first, readTree(t, filepath.Join(pageRoot, "run42")))
}

func TestPublish_MissingSourceCreatesNothing(t *testing.T) {
	pageRoot := t.TempDir()
	cfg := publishConfig(pageRoot, "run42",
		config.ReportSource{Kind: "junit", Path: filepath.Join(t.TempDir(), "missing")},
	)

	_, err := Publish(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrSourceMissing)
	assert.Equal(t, core.ErrCategoryIO, core.CategoryOf(err))
	assert.NoDirExists(t, filepath.Join(pageRoot, "run42"))
}

func TestPublish_SourceIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "report.xml")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := Publish(publishConfig(t.TempDir(), "run42", config.ReportSource{Kind: "junit", Path: file}))
	assert.ErrorIs(t, err, core.ErrSourceMissing)
}

func TestPublish_PageRootIsFile(t *testing.T) {
	pageRoot := filepath.Join(t.TempDir(), "pages")
	require.NoError(t, os.WriteFile(pageRoot, []byte("not a dir"), 0o644))

	_, err := Publish(publishConfig(pageRoot, "run42"))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrPageRootNotDir)
	assert.Equal(t, core.ErrCategoryConfig, core.CategoryOf(err))
}

func TestPublish_CreatesPageRoot(t *testing.T) {
	pageRoot := filepath.Join(t.TempDir(), "a", "b", "pages")

	_, err := Publish(publishConfig(pageRoot, "run1"), WithClock(fixedClock))
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(pageRoot, "run1", MetadataFile))
}

func TestPublish_MissingConfigTouchesNothing(t *testing.T) {
	pageRoot := filepath.Join(t.TempDir(), "pages")
	cfg := publishConfig(pageRoot, "run42")
	cfg.CommitSHA = ""

	_, err := Publish(cfg)
	assert.ErrorIs(t, err, core.ErrMissingRequired)
	assert.NoDirExists(t, pageRoot)
}

func TestPublish_RejectsEscapingName(t *testing.T) {
	pageRoot := t.TempDir()

	_, err := Publish(publishConfig(pageRoot, "../outside"))
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
	assert.NoDirExists(t, filepath.Join(filepath.Dir(pageRoot), "outside"))
}

func TestPublish_RejectsNestedName(t *testing.T) {
	pageRoot := t.TempDir()
	src := t.TempDir()
	writeTree(t, src, map[string]string{"results.xml": "<testsuite/>"})
	junit := config.ReportSource{Kind: "junit", Path: src}

	_, err := Publish(publishConfig(pageRoot, "run42", junit), WithClock(fixedClock))
	require.NoError(t, err)
	before := readTree(t, filepath.Join(pageRoot, "run42"))

	_, err = Publish(publishConfig(pageRoot, "run42/again", junit), WithClock(fixedClock))
	assert.ErrorIs(t, err, core.ErrInvalidConfig)
	assert.Equal(t, before, readTree(t, filepath.Join(pageRoot, "run42")))
}

func TestPublish_SymlinkedSource(t *testing.T) {
	target := t.TempDir()
	writeTree(t, target, map[string]string{
		"index.html":  "report",
		"data/a.json": "{}",
	})
	src := filepath.Join(t.TempDir(), "junit")
	require.NoError(t, os.Symlink(target, src))
	pageRoot := t.TempDir()

	result, err := Publish(publishConfig(pageRoot, "run1", config.ReportSource{Kind: "junit", Path: src}), WithClock(fixedClock))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Files)
	assert.Equal(t, readTree(t, target), readTree(t, filepath.Join(pageRoot, "run1", "junit")))
}

func TestPublish_Exclude(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{
		"index.html":         "ok",
		"data/result.json":   "ok",
		"data/scratch.tmp":   "skip",
		"cache/blob.bin":     "skip",
		"deep/x/y/debug.tmp": "skip",
	})
	pageRoot := t.TempDir()
	cfg := publishConfig(pageRoot, "run1", config.ReportSource{Kind: "e2e", Path: src})
	cfg.Site.Exclude = []string{"**/*.tmp", "cache"}

	result, err := Publish(cfg, WithClock(fixedClock))
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"index.html":       "ok",
		"data/result.json": "ok",
	}, readTree(t, filepath.Join(pageRoot, "run1", "e2e")))
	assert.Equal(t, 2, result.Files)
	assert.Equal(t, int64(4), result.Bytes)
}

func TestPublish_PartialBundleIsInvisible(t *testing.T) {
	src := t.TempDir()
	writeTree(t, src, map[string]string{"a.txt": "a"})
	pageRoot := t.TempDir()
	cfg := publishConfig(pageRoot, "run1", config.ReportSource{Kind: "unit", Path: src})
	cfg.Site.Exclude = []string{"[bad"}

	_, err := Publish(cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrCopyFailed)
	assert.NoFileExists(t, filepath.Join(pageRoot, "run1", MetadataFile))

	entries, err := ScanBundles(pageRoot)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
