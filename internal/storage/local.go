package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage keeps objects as files below a base directory, the layout the
// development upload handler writes to.
type LocalStorage struct {
	baseDir string
}

func NewLocalStorage(baseDir string) (*LocalStorage, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve storage dir: %w", err)
	}
	return &LocalStorage{baseDir: abs}, nil
}

// Remove deletes every key it can. Missing files count as removed; other
// failures are joined into the returned error.
func (l *LocalStorage) Remove(ctx context.Context, keys []string) (int, error) {
	if len(keys) == 0 {
		return 0, ErrNoKeys
	}

	var errs []error
	removed := 0
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		path, err := l.resolve(key)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

func (l *LocalStorage) resolve(key string) (string, error) {
	path := filepath.Join(l.baseDir, filepath.FromSlash(key))
	if path == l.baseDir || !strings.HasPrefix(path, l.baseDir+string(filepath.Separator)) {
		return "", ErrKeyOutsideDir
	}
	return path, nil
}
