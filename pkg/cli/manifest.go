package cli

import (
	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/pages-reporter/pkg/report"
)

func newManifestCommand() *cli.Command {
	return &cli.Command{
		Name:  "manifest",
		Usage: "Regenerate manifest.json and index.html at the page root",
		Description: `Reads metadata.json from every bundle under the page root and writes
manifest.json (newest first) plus a copy of the landing page template as
index.html. Bundles without metadata.json are skipped; unparseable
metadata aborts the run without writing anything.`,
		Action: runManifest,
	}
}

func runManifest(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	_, err = report.BuildManifest(cfg)
	return err
}
