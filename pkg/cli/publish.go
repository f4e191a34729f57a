package cli

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/pages-reporter/pkg/config"
	"github.com/devicelab-dev/pages-reporter/pkg/report"
)

func newPublishCommand() *cli.Command {
	return &cli.Command{
		Name:  "publish",
		Usage: "Copy test reports into a new bundle under the page root",
		Description: `Creates <page-path>/<directory>/ and copies each test report directory
into it under its kind, then writes metadata.json.

Report sources come from TEST_REPORT_<KIND>_PATH environment variables
(kind is lower-cased) followed by any --report kind=path flags.
Publishing into an existing directory fails and leaves it untouched.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "name",
				Usage:   "Report display name",
				EnvVars: []string{config.EnvReportName},
			},
			&cli.StringFlag{
				Name:    "directory",
				Usage:   "Bundle directory name (must be unique under the page root)",
				EnvVars: []string{config.EnvDirectoryName},
			},
			&cli.StringFlag{
				Name:    "commit",
				Usage:   "Commit SHA",
				EnvVars: []string{config.EnvCommitSHA},
			},
			&cli.StringFlag{
				Name:    "run-number",
				Usage:   "CI run number",
				EnvVars: []string{config.EnvRunNumber},
			},
			&cli.StringSliceFlag{
				Name:  "report",
				Usage: "Test report source as kind=path (repeatable)",
			},
		},
		Action: runPublish,
	}
}

func runPublish(c *cli.Context) error {
	cfg, err := publishConfig(c)
	if err != nil {
		return err
	}
	_, err = report.Publish(cfg)
	return err
}

func publishConfig(c *cli.Context) (*config.Config, error) {
	cfg := &config.Config{
		PagePath:      c.String("page-path"),
		ActionPath:    c.String("action-path"),
		ReportName:    c.String("name"),
		DirectoryName: c.String("directory"),
		CommitSHA:     c.String("commit"),
		RunNumber:     c.String("run-number"),
	}

	sources, err := config.DiscoverReports(os.Environ())
	if err != nil {
		return nil, err
	}
	cfg.Reports, err = config.ParseReportFlags(sources, c.StringSlice("report"))
	if err != nil {
		return nil, err
	}

	// All inputs are checked before the site file or the filesystem is read
	if err := cfg.ValidatePublish(); err != nil {
		return nil, err
	}

	site, err := loadSite(c.String("config"), cfg.ActionPath)
	if err != nil {
		return nil, err
	}
	cfg.Site = *site
	return cfg, nil
}
