// Package config holds the run configuration for pages-reporter. Values are
// collected once at startup (flags, environment, site file) and passed to the
// publisher and manifest builder explicitly.
package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/devicelab-dev/pages-reporter/pkg/core"
)

// Environment variables read by the CLI.
const (
	EnvPagePath      = "GH_PAGE_PATH"
	EnvActionPath    = "ACTION_PATH"
	EnvReportName    = "REPORT_NAME"
	EnvDirectoryName = "REPORT_DIRECTORY_NAME"
	EnvCommitSHA     = "COMMIT_SHA"
	EnvRunNumber     = "RUN_NUMBER"
)

// DefaultTemplate is the landing page template, relative to the action path.
const DefaultTemplate = "resources/index.html"

var (
	reportEnvPattern = regexp.MustCompile(`^TEST_REPORT_([a-zA-Z0-9_\-]+)_PATH$`)
	kindPattern      = regexp.MustCompile(`^[a-z0-9_\-]+$`)
)

// ReportSource is one test report kind and the directory holding its output.
type ReportSource struct {
	Kind string
	Path string
}

// Config is the validated run configuration.
type Config struct {
	PagePath   string // Page root holding all bundles
	ActionPath string // Base for resolving the landing page template

	// Publisher identity
	ReportName    string
	DirectoryName string
	CommitSHA     string
	RunNumber     string

	Reports []ReportSource // In caller order
	Site    SiteConfig
}

// TemplatePath returns the landing page template location.
func (c *Config) TemplatePath() string {
	tmpl := c.Site.Template
	if tmpl == "" {
		tmpl = DefaultTemplate
	}
	if filepath.IsAbs(tmpl) {
		return tmpl
	}
	return filepath.Join(c.ActionPath, tmpl)
}

// ValidateCommon checks the inputs both commands need.
func (c *Config) ValidateCommon() error {
	return requireAll([][2]string{
		{EnvPagePath, c.PagePath},
		{EnvActionPath, c.ActionPath},
	})
}

// ValidatePublish checks everything the publisher needs before it touches
// the filesystem.
func (c *Config) ValidatePublish() error {
	if err := c.ValidateCommon(); err != nil {
		return err
	}
	if err := requireAll([][2]string{
		{EnvReportName, c.ReportName},
		{EnvDirectoryName, c.DirectoryName},
		{EnvCommitSHA, c.CommitSHA},
		{EnvRunNumber, c.RunNumber},
	}); err != nil {
		return err
	}
	if err := ValidateBundleName(c.DirectoryName); err != nil {
		return err
	}
	for _, r := range c.Reports {
		if !kindPattern.MatchString(r.Kind) {
			return core.ErrInvalidConfig.WithMessage(fmt.Sprintf("invalid report kind %q", r.Kind))
		}
		if r.Path == "" {
			return core.ErrMissingRequired.
				WithMessage(fmt.Sprintf("test report path for %q is empty", r.Kind)).
				WithDetails(map[string]interface{}{"kind": r.Kind})
		}
	}
	return nil
}

func requireAll(pairs [][2]string) error {
	for _, p := range pairs {
		if p[1] == "" {
			return core.ErrMissingRequired.
				WithMessage(fmt.Sprintf("%s is required", p[0])).
				WithDetails(map[string]interface{}{"variable": p[0]})
		}
	}
	return nil
}

// ValidateBundleName requires name to be a single path segment, so every
// bundle is an immediate child of the page root and never nests in another.
func ValidateBundleName(name string) error {
	invalid := core.ErrInvalidConfig.WithDetails(map[string]interface{}{"variable": EnvDirectoryName})
	switch {
	case name == "." || name == "..":
		return invalid.WithMessage(fmt.Sprintf("report directory name %q is not a directory name", name))
	case strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator):
		return invalid.WithMessage(fmt.Sprintf("report directory name %q must not contain a path separator", name))
	}
	return nil
}

// DiscoverReports collects TEST_REPORT_<KIND>_PATH variables from environ,
// preserving environ order. The kind is the lower-cased middle segment.
// A kind seen twice keeps its first position and its last value.
func DiscoverReports(environ []string) ([]ReportSource, error) {
	var sources []ReportSource
	for _, kv := range environ {
		key, value, _ := strings.Cut(kv, "=")
		m := reportEnvPattern.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		if value == "" {
			return nil, core.ErrMissingRequired.
				WithMessage(fmt.Sprintf("environment variable %s is passed but empty", key)).
				WithDetails(map[string]interface{}{"variable": key})
		}
		sources = addSource(sources, ReportSource{Kind: strings.ToLower(m[1]), Path: value})
	}
	return sources, nil
}

// ParseReportFlags parses kind=path pairs and appends them to base.
func ParseReportFlags(base []ReportSource, pairs []string) ([]ReportSource, error) {
	sources := append([]ReportSource(nil), base...)
	for _, pair := range pairs {
		kind, path, ok := strings.Cut(pair, "=")
		kind = strings.ToLower(strings.TrimSpace(kind))
		if !ok || !kindPattern.MatchString(kind) {
			return nil, core.ErrInvalidConfig.WithMessage(fmt.Sprintf("invalid report %q, expected kind=path", pair))
		}
		if path == "" {
			return nil, core.ErrMissingRequired.WithMessage(fmt.Sprintf("test report path for %q is empty", kind))
		}
		sources = addSource(sources, ReportSource{Kind: kind, Path: path})
	}
	return sources, nil
}

func addSource(sources []ReportSource, src ReportSource) []ReportSource {
	for i := range sources {
		if sources[i].Kind == src.Kind {
			sources[i].Path = src.Path
			return sources
		}
	}
	return append(sources, src)
}
