// Package cli provides the command-line interface for pages-reporter.
package cli

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/pages-reporter/pkg/config"
	"github.com/devicelab-dev/pages-reporter/pkg/logger"
)

// Version is set at build time.
var Version = "dev"

// globalFlags are available to all commands. Flags are built per app since
// urfave/cli stores env-derived values on the flag itself.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "page-path",
			Usage:   "Page root holding all published reports",
			EnvVars: []string{config.EnvPagePath},
		},
		&cli.StringFlag{
			Name:    "action-path",
			Usage:   "Base path for the landing page template and reporter.yaml",
			EnvVars: []string{config.EnvActionPath},
		},
		&cli.StringFlag{
			Name:    "config",
			Usage:   "Path to site config (default: <action-path>/reporter.yaml)",
			EnvVars: []string{"REPORTER_CONFIG"},
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Usage:   "Enable verbose logging",
			EnvVars: []string{"REPORTER_VERBOSE"},
		},
		&cli.StringFlag{
			Name:    "log-file",
			Usage:   "Also append log output to this file",
			EnvVars: []string{"REPORTER_LOG_FILE"},
		},
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "pages-reporter",
		Usage:   "Publish test reports to a static page root and index them",
		Version: Version,
		Description: `pages-reporter keeps a directory of test report bundles, one per CI run,
and a manifest.json listing them newest first.

Examples:
  GH_PAGE_PATH=gh-pages ACTION_PATH=. REPORT_NAME=Nightly REPORT_DIRECTORY_NAME=run42 \
  COMMIT_SHA=abc123 RUN_NUMBER=42 TEST_REPORT_JUNIT_PATH=build/junit pages-reporter publish
  pages-reporter --page-path gh-pages --action-path . manifest
  pages-reporter --page-path gh-pages list`,
		Flags: globalFlags(),
		Commands: []*cli.Command{
			newPublishCommand(),
			newManifestCommand(),
			newListCommand(),
		},
		Before: func(c *cli.Context) error {
			logger.SetVerbose(c.Bool("verbose"))
			if path := c.String("log-file"); path != "" {
				return logger.Init(path)
			}
			return nil
		},
	}
}

// Execute runs the CLI.
func Execute() {
	os.Exit(execute(newApp(), os.Args))
}

// execute runs app and returns the process exit code. A terminal error is
// logged before the log file is closed, so --log-file captures it too.
func execute(app *cli.App, args []string) int {
	err := app.Run(args)
	if err != nil {
		logger.Error("%v", err)
	}
	logger.Close()
	if err != nil {
		return 1
	}
	return 0
}

// loadConfig builds the configuration shared by all commands and validates
// the page and action paths.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := &config.Config{
		PagePath:   c.String("page-path"),
		ActionPath: c.String("action-path"),
	}
	if err := cfg.ValidateCommon(); err != nil {
		return nil, err
	}
	site, err := loadSite(c.String("config"), cfg.ActionPath)
	if err != nil {
		return nil, err
	}
	cfg.Site = *site
	return cfg, nil
}

func loadSite(path, actionPath string) (*config.SiteConfig, error) {
	if path != "" {
		return config.LoadSite(path)
	}
	return config.LoadSiteFromDir(actionPath)
}
