// Package file persists each storage key as one file under a data directory.
// For a single-operator tool this is the closest stand-in for the browser's
// localStorage: plain files, no daemon, survives restarts.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type Backend struct {
	dir string
}

func New(dir string) (*Backend, error) {
	if dir == "" {
		dir = "data"
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Backend{dir: dir}, nil
}

func (b *Backend) path(key string) string {
	// Keys are fixed identifiers, but guard against path separators anyway.
	safe := strings.ReplaceAll(key, string(os.PathSeparator), "_")
	return filepath.Join(b.dir, safe+".json")
}

func (b *Backend) Load(_ context.Context, key string) (string, bool, error) {
	raw, err := os.ReadFile(b.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(raw), true, nil
}

func (b *Backend) Save(_ context.Context, key string, value string) error {
	// Write through a temp file so a crash mid-write never leaves a
	// half-written payload behind.
	tmp := b.path(key) + ".tmp"
	if err := os.WriteFile(tmp, []byte(value), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, b.path(key))
}

func (b *Backend) Delete(_ context.Context, key string) error {
	err := os.Remove(b.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
