// Copyright (c) 2014 Square, Inc

package store

import (
	"context"
	"sort"
	"sync"
)

// Memory keeps encoded documents in process. It is mostly useful in tests.
type Memory struct {
	mu   sync.Mutex
	docs map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{docs: map[string][]byte{}}
}

func (m *Memory) View(ctx context.Context, key string, fn func(*Document) error) error {
	if err := begin(ctx, key); err != nil {
		return err
	}
	m.mu.Lock()
	buf := m.docs[key]
	m.mu.Unlock()

	doc, err := decodeYAML(buf)
	if err != nil {
		return err
	}
	return fn(doc)
}

func (m *Memory) Update(ctx context.Context, key string, fn func(*Document) error) error {
	if err := begin(ctx, key); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, err := decodeYAML(m.docs[key])
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
	m.docs[key] = buf
	return nil
}

func (m *Memory) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.docs))
	for k := range m.docs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *Memory) Close() error { return nil }
