package report

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/devicelab-dev/pages-reporter/pkg/config"
	"github.com/devicelab-dev/pages-reporter/pkg/core"
	"github.com/devicelab-dev/pages-reporter/pkg/logger"
)

// PublishOption configures Publish.
type PublishOption func(*publishOptions)

type publishOptions struct {
	now func() time.Time
}

// WithClock sets the clock used for the metadata timestamp.
func WithClock(now func() time.Time) PublishOption {
	return func(o *publishOptions) {
		o.now = now
	}
}

// Publish creates a new bundle under cfg.PagePath named cfg.DirectoryName,
// copies every report source into it under its kind, and writes the
// metadata file last. An existing bundle of the same name is never touched.
//
// A failed copy can leave a bundle directory without metadata.json on disk;
// the manifest builder ignores such directories.
func Publish(cfg *config.Config, opts ...PublishOption) (*PublishResult, error) {
	o := &publishOptions{now: time.Now}
	for _, opt := range opts {
		opt(o)
	}

	if err := cfg.ValidatePublish(); err != nil {
		return nil, err
	}

	if err := preparePageRoot(cfg.PagePath); err != nil {
		return nil, err
	}

	bundleDir := filepath.Join(cfg.PagePath, cfg.DirectoryName)
	if _, err := os.Lstat(bundleDir); err == nil {
		return nil, bundleExists(bundleDir, nil)
	}

	// Check sources before the bundle exists so bad input leaves nothing behind
	for _, src := range cfg.Reports {
		info, err := os.Stat(src.Path)
		if err != nil {
			return nil, sourceMissing(src, err)
		}
		if !info.IsDir() {
			return nil, sourceMissing(src, fmt.Errorf("%s is not a directory", src.Path))
		}
	}

	// Mkdir fails if the name was taken since the check above
	if err := os.Mkdir(bundleDir, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, bundleExists(bundleDir, err)
		}
		return nil, core.ErrWriteFailed.
			WithMessage(fmt.Sprintf("create report directory %s", bundleDir)).
			WithCause(err)
	}

	result := &PublishResult{BundleDir: bundleDir}
	kinds := make([]string, 0, len(cfg.Reports))
	for _, src := range cfg.Reports {
		dst := filepath.Join(bundleDir, src.Kind)
		stats, err := copyTree(src.Path, dst, cfg.Site.Exclude)
		if err != nil {
			return nil, core.ErrCopyFailed.
				WithMessage(fmt.Sprintf("copy %s report from %s", src.Kind, src.Path)).
				WithDetails(map[string]interface{}{"kind": src.Kind, "source": src.Path, "bundle": bundleDir}).
				WithCause(err)
		}
		logger.Info("copied %s report: %d files, %s", src.Kind, stats.Files, humanize.Bytes(uint64(stats.Bytes)))
		result.Files += stats.Files
		result.Bytes += stats.Bytes
		kinds = append(kinds, src.Kind)
	}

	result.Metadata = Metadata{
		Name:      cfg.ReportName,
		CommitSHA: cfg.CommitSHA,
		RunNumber: cfg.RunNumber,
		Timestamp: o.now().UTC().Format(TimestampFormat),
		DirName:   cfg.DirectoryName,
		Reports:   kinds,
	}

	mdPath := filepath.Join(bundleDir, MetadataFile)
	if err := atomicWriteJSON(mdPath, result.Metadata); err != nil {
		return nil, core.ErrWriteFailed.
			WithMessage(fmt.Sprintf("write %s", mdPath)).
			WithCause(err)
	}

	logger.Info("Report generated at %s", bundleDir)
	return result, nil
}

// preparePageRoot creates the page root if missing. An existing non-directory
// is a configuration error.
func preparePageRoot(root string) error {
	info, err := os.Stat(root)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := ensureDir(root); err != nil {
			return core.ErrWriteFailed.WithMessage(fmt.Sprintf("create page root %s", root)).WithCause(err)
		}
		return nil
	case err != nil:
		return core.ErrReadFailed.WithMessage(fmt.Sprintf("stat page root %s", root)).WithCause(err)
	case !info.IsDir():
		return core.ErrPageRootNotDir.
			WithMessage(fmt.Sprintf("%s is not a directory", root)).
			WithDetails(map[string]interface{}{"path": root})
	}
	return nil
}

func bundleExists(dir string, cause error) error {
	err := core.ErrBundleExists.
		WithMessage(fmt.Sprintf("Report directory %s already exists", dir)).
		WithDetails(map[string]interface{}{"path": dir})
	if cause != nil {
		return err.WithCause(cause)
	}
	return err
}

func sourceMissing(src config.ReportSource, cause error) error {
	return core.ErrSourceMissing.
		WithMessage(fmt.Sprintf("%s report source %s", src.Kind, src.Path)).
		WithDetails(map[string]interface{}{"kind": src.Kind, "source": src.Path}).
		WithCause(cause)
}
