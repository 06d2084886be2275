// Copyright (c) 2014 Square, Inc

package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
)

const fileExt = ".yaml"

// File stores each document as <dir>/<key>.yaml. Writes go to a temporary
// file that is renamed over the old one. Updates are serialised within a
// process only.
type File struct {
	dir string
	mu  sync.Mutex
}

func OpenFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	log.Debugf("Using file store in %s", dir)
	return &File{dir: dir}, nil
}

func (f *File) path(key string) string {
	return filepath.Join(f.dir, key+fileExt)
}

func (f *File) load(key string) (*Document, error) {
	buf, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return NewDocument(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	return decodeYAML(buf)
}

func (f *File) View(ctx context.Context, key string, fn func(*Document) error) error {
	if err := begin(ctx, key); err != nil {
		return err
	}
	f.mu.Lock()
	doc, err := f.load(key)
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return fn(doc)
}

func (f *File) Update(ctx context.Context, key string, fn func(*Document) error) error {
	if err := begin(ctx, key); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.load(key)
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	buf, err := encodeYAML(doc)
	if err != nil {
		return err
	}
	return f.write(key, buf)
}

func (f *File) write(key string, buf []byte) error {
	tmp, err := os.CreateTemp(f.dir, "."+key+".*.tmp")
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		return fmt.Errorf("store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path(key)); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	log.Debugf("Wrote %s", f.path(key))
	return nil
}

func (f *File) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}

	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileExt) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, fileExt))
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *File) Close() error { return nil }
