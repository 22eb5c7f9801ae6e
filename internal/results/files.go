package results

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ccms-ucsd/resultview/internal/core/domain"
)

// checkReadable fails unless path is an existing regular file that can be opened.
func checkReadable(path string) error {
	if path == "" {
		return fmt.Errorf("%w: no file given", domain.ErrUnreadable)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrUnreadable, path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", domain.ErrUnreadable, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrUnreadable, path, err)
	}
	return f.Close()
}

// checkWritableDir fails unless dir is an existing directory that accepts new files.
func checkWritableDir(dir string) error {
	if dir == "" {
		return fmt.Errorf("%w: no directory given", domain.ErrUnwritable)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrUnwritable, dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrUnwritable, dir)
	}
	probe, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrUnwritable, dir, err)
	}
	name := probe.Name()
	probe.Close()
	return os.Remove(name)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// olderThan reports whether target was modified strictly before source.
// Equal timestamps count as fresh.
func olderThan(target, source string) bool {
	ti, err := os.Stat(target)
	if err != nil {
		return false
	}
	si, err := os.Stat(source)
	if err != nil {
		return false
	}
	return ti.ModTime().Before(si.ModTime())
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// baseName strips the directory and the last extension.
func baseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// bareName strips the directory and every extension.
func bareName(path string) string {
	name := filepath.Base(path)
	for ext := filepath.Ext(name); ext != "" && ext != name; ext = filepath.Ext(name) {
		name = strings.TrimSuffix(name, ext)
	}
	return name
}

// blockPrefixed prefixes name with "<block>_" unless already present.
func blockPrefixed(block, name string) string {
	if block == "" {
		return name
	}
	prefix := block + "_"
	if strings.HasPrefix(name, prefix) {
		return name
	}
	return prefix + name
}

// copyAtomic copies src to dest through a temporary file in dest's directory.
func copyAtomic(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	bw := bufio.NewWriter(tmp)
	if _, err := io.Copy(bw, in); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}

// removeIfExists deletes path, ignoring a missing file.
func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
