// Copyright (c) 2014 Square, Inc

// Package store persists Documents under string keys. Every backend offers
// a read-only View scope and an Update scope that loads, mutates and writes
// a document atomically.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrInvalidKey = errors.New("store: invalid document key")

// Store is a keyed collection of documents.
type Store interface {
	// View calls fn with the document at key. Changes fn makes are
	// discarded.
	View(ctx context.Context, key string, fn func(*Document) error) error
	// Update calls fn with the document at key and persists it if fn
	// returns nil. Concurrent updates of one store are serialised.
	Update(ctx context.Context, key string, fn func(*Document) error) error
	// Keys lists the stored documents in lexical order.
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

// Open returns the backend named by kind ("file", "bolt" or "memory")
// rooted at path.
func Open(kind, path string) (Store, error) {
	switch kind {
	case "file":
		f, err := OpenFile(path)
		if err != nil {
			return nil, err
		}
		return f, nil
	case "bolt":
		b, err := OpenBolt(path)
		if err != nil {
			return nil, err
		}
		return b, nil
	case "memory":
		return NewMemory(), nil
	}
	return nil, fmt.Errorf("store: unknown backend %q", kind)
}

func checkKey(key string) error {
	if key == "" || strings.HasPrefix(key, ".") || strings.ContainsAny(key, "/\\\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

func begin(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return checkKey(key)
}

func decodeYAML(buf []byte) (*Document, error) {
	doc := NewDocument()
	if len(buf) == 0 {
		return doc, nil
	}
	var root map[string]interface{}
	if err := yaml.Unmarshal(buf, &root); err != nil {
		return nil, fmt.Errorf("store: decode yaml: %w", err)
	}
	if root != nil {
		doc.root = root
	}
	return doc, nil
}

func encodeYAML(doc *Document) ([]byte, error) {
	var root yaml.Node
	if err := root.Encode(doc.root); err != nil {
		return nil, fmt.Errorf("store: encode yaml: %w", err)
	}
	quoteKeys(&root)
	buf, err := yaml.Marshal(&root)
	if err != nil {
		return nil, fmt.Errorf("store: encode yaml: %w", err)
	}
	return buf, nil
}

// quoteKeys double-quotes every mapping key, and any scalar tagged as a
// merge key, so that a name such as << loads back as a plain string.
func quoteKeys(n *yaml.Node) {
	for i, c := range n.Content {
		if (n.Kind == yaml.MappingNode && i%2 == 0) || c.Tag == "!!merge" {
			c.Tag = "!!str"
			c.Style = yaml.DoubleQuotedStyle
		}
		quoteKeys(c)
	}
}

func decodeJSON(buf []byte) (*Document, error) {
	doc := NewDocument()
	if len(buf) == 0 {
		return doc, nil
	}
	var root map[string]interface{}
	if err := json.Unmarshal(buf, &root); err != nil {
		return nil, fmt.Errorf("store: decode json: %w", err)
	}
	if root != nil {
		doc.root = root
	}
	return doc, nil
}

func encodeJSON(doc *Document) ([]byte, error) {
	buf, err := json.Marshal(doc.root)
	if err != nil {
		return nil, fmt.Errorf("store: encode json: %w", err)
	}
	return buf, nil
}
