package report

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/devicelab-dev/pages-reporter/pkg/logger"
)

// copyStats counts what copyTree wrote.
type copyStats struct {
	Files int
	Bytes int64
}

// copyTree recursively copies the directory src to dst. dst must not exist.
// Paths under src matching any exclude pattern (doublestar syntax, relative
// to src, forward slashes) are skipped. Symlinks, including src itself, are
// followed and their targets copied, so the result holds no links.
func copyTree(src, dst string, exclude []string) (copyStats, error) {
	for _, p := range exclude {
		if !doublestar.ValidatePattern(p) {
			return copyStats{}, fmt.Errorf("invalid exclude pattern %q", p)
		}
	}

	info, err := os.Stat(src)
	if err != nil {
		return copyStats{}, err
	}
	if !info.IsDir() {
		return copyStats{}, fmt.Errorf("%s is not a directory", src)
	}

	c := &treeCopier{exclude: exclude, active: map[string]bool{}}
	err = c.copyDir(src, dst, "", info)
	return c.stats, err
}

type treeCopier struct {
	exclude []string
	stats   copyStats
	// resolved paths of the directories on the current branch
	active map[string]bool
}

func (c *treeCopier) copyDir(src, dst, rel string, info fs.FileInfo) error {
	resolved, err := filepath.EvalSymlinks(src)
	if err != nil {
		return err
	}
	if c.active[resolved] {
		return fmt.Errorf("symlink cycle: %s leads back to %s", src, resolved)
	}
	c.active[resolved] = true
	defer delete(c.active, resolved)

	if err := os.Mkdir(dst, dirMode(info.Mode())); err != nil {
		return err
	}

	children, err := os.ReadDir(resolved)
	if err != nil {
		return err
	}
	for _, child := range children {
		childRel := path.Join(rel, child.Name())
		skip, err := excluded(childRel, c.exclude)
		if err != nil {
			return err
		}
		srcPath := filepath.Join(resolved, child.Name())
		if skip {
			logger.Debug("skip %s (excluded)", srcPath)
			continue
		}

		fi, err := os.Stat(srcPath)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, child.Name())

		switch {
		case fi.IsDir():
			if err := c.copyDir(srcPath, target, childRel, fi); err != nil {
				return err
			}
		case fi.Mode().IsRegular():
			n, err := copyFile(srcPath, target, fi)
			if err != nil {
				return err
			}
			c.stats.Files++
			c.stats.Bytes += n
			logger.Debug("copied %s", srcPath)
		default:
			logger.Debug("skip %s (not a regular file)", srcPath)
		}
	}
	return nil
}

// copyFile copies a single regular file, keeping its mode and mtime.
func copyFile(src, dst string, info fs.FileInfo) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, err
	}
	return n, os.Chtimes(dst, info.ModTime(), info.ModTime())
}

// excluded reports whether rel matches any pattern.
func excluded(rel string, patterns []string) (bool, error) {
	for _, p := range patterns {
		ok, err := doublestar.Match(p, rel)
		if err != nil {
			return false, fmt.Errorf("exclude pattern %q: %w", p, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// dirMode keeps the source permissions plus owner rwx, so the copy of a
// read-only directory can still be filled.
func dirMode(m fs.FileMode) fs.FileMode {
	return m.Perm() | 0o700
}
