package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/devicelab-dev/pages-reporter/pkg/config"
	"github.com/devicelab-dev/pages-reporter/pkg/core"
	"github.com/devicelab-dev/pages-reporter/pkg/logger"
)

// BuildManifest rebuilds index.html and manifest.json at the page root from
// the bundles currently present. Nothing is written unless every bundle's
// metadata parses. A page root that exists but is not a directory is logged
// and skipped without error.
func BuildManifest(cfg *config.Config) (*ManifestResult, error) {
	if err := cfg.ValidateCommon(); err != nil {
		return nil, err
	}
	root := cfg.PagePath

	info, err := os.Stat(root)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := ensureDir(root); err != nil {
			return nil, core.ErrWriteFailed.WithMessage(fmt.Sprintf("create page root %s", root)).WithCause(err)
		}
	case err != nil:
		return nil, core.ErrReadFailed.WithMessage(fmt.Sprintf("stat page root %s", root)).WithCause(err)
	case !info.IsDir():
		logger.Warn("%s is not a directory, manifest not generated", root)
		return &ManifestResult{Skipped: true}, nil
	}

	tmplPath := cfg.TemplatePath()
	tmplInfo, err := os.Stat(tmplPath)
	if err != nil || !tmplInfo.Mode().IsRegular() {
		return nil, core.ErrTemplateMissing.
			WithMessage(fmt.Sprintf("%s does not exist", tmplPath)).
			WithDetails(map[string]interface{}{"path": tmplPath})
	}

	entries, err := ScanBundles(root)
	if err != nil {
		return nil, err
	}

	tmpl, err := os.ReadFile(tmplPath)
	if err != nil {
		return nil, core.ErrReadFailed.WithMessage(fmt.Sprintf("read %s", tmplPath)).WithCause(err)
	}
	manifest, err := renderManifest(entries)
	if err != nil {
		return nil, core.ErrWriteFailed.WithMessage("render manifest").WithCause(err)
	}

	indexPath := filepath.Join(root, IndexFile)
	if err := atomicWriteFile(indexPath, tmpl); err != nil {
		return nil, core.ErrWriteFailed.WithMessage(fmt.Sprintf("write %s", indexPath)).WithCause(err)
	}
	manifestPath := filepath.Join(root, ManifestFile)
	if err := atomicWriteFile(manifestPath, manifest); err != nil {
		return nil, core.ErrWriteFailed.WithMessage(fmt.Sprintf("write %s", manifestPath)).WithCause(err)
	}

	logger.Info("Manifest generated at %s (%d reports)", root, len(entries))
	return &ManifestResult{Entries: entries}, nil
}

// renderManifest lays out the entries' raw metadata as one JSON array.
func renderManifest(entries []Entry) ([]byte, error) {
	raws := make([]json.RawMessage, 0, len(entries))
	for _, e := range entries {
		raws = append(raws, e.Raw)
	}
	return marshalJSON(raws)
}
