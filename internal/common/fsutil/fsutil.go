package fsutil

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrTooLarge is returned by ReadLimited when a file exceeds the limit.
var ErrTooLarge = errors.New("file too large")

// ExpandHome expands a leading '~' to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}

// ReadLimited reads the file at path (after home expansion) and returns its
// base name and content. Files larger than max bytes fail with ErrTooLarge;
// max <= 0 means no limit.
func ReadLimited(path string, max int64) (string, []byte, error) {
	p, err := ExpandHome(strings.TrimSpace(path))
	if err != nil {
		return "", nil, err
	}
	f, err := os.Open(p)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return "", nil, err
	}
	if st.IsDir() {
		return "", nil, fmt.Errorf("%s: is a directory", p)
	}
	var r io.Reader = f
	if max > 0 {
		if st.Size() > max {
			return "", nil, fmt.Errorf("%s: %w (%d > %d bytes)", p, ErrTooLarge, st.Size(), max)
		}
		r = io.LimitReader(f, max+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", nil, fmt.Errorf("read %s: %w", p, err)
	}
	if max > 0 && int64(len(data)) > max {
		return "", nil, fmt.Errorf("%s: %w", p, ErrTooLarge)
	}
	return filepath.Base(p), data, nil
}
