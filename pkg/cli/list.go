package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/pages-reporter/pkg/config"
	"github.com/devicelab-dev/pages-reporter/pkg/core"
	"github.com/devicelab-dev/pages-reporter/pkg/report"
)

func newListCommand() *cli.Command {
	return &cli.Command{
		Name:   "list",
		Usage:  "List published reports, newest first",
		Action: runList,
	}
}

func runList(c *cli.Context) error {
	root := c.String("page-path")
	if root == "" {
		return core.ErrMissingRequired.WithMessage(config.EnvPagePath + " is required")
	}
	entries, err := listEntries(root)
	if err != nil {
		return err
	}
	return printEntries(c.App.Writer, entries, time.Now())
}

func listEntries(root string) ([]report.Entry, error) {
	info, err := os.Stat(root)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, core.ErrReadFailed.WithMessage(fmt.Sprintf("stat page root %s", root)).WithCause(err)
	}
	if !info.IsDir() {
		return nil, core.ErrPageRootNotDir.WithMessage(fmt.Sprintf("%s is not a directory", root))
	}
	return report.ScanBundles(root)
}

func printEntries(w io.Writer, entries []report.Entry, now time.Time) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No reports found.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIMESTAMP\tAGE\tDIRECTORY\tRUN\tCOMMIT\tREPORTS")
	for _, e := range entries {
		md, err := e.Metadata()
		if err != nil {
			return core.ErrCorruptMetadata.WithMessage(fmt.Sprintf("decode %s", e.Dir)).WithCause(err)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			orDash(e.Timestamp), age(e.Timestamp, now), e.Dir,
			orDash(md.RunNumber), orDash(shortSHA(md.CommitSHA)), orDash(strings.Join(md.Reports, ",")))
	}
	return tw.Flush()
}

func age(ts string, now time.Time) string {
	t, err := time.Parse(report.TimestampFormat, ts)
	if err != nil {
		return "-"
	}
	return humanize.RelTime(t, now, "ago", "from now")
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
