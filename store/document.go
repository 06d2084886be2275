// Copyright (c) 2014 Square, Inc

package store

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyPath = errors.New("store: empty key path")
	ErrNotMap    = errors.New("store: path does not lead through a map")
	ErrNotList   = errors.New("store: value is not a list")
)

// Document is a tree of maps, lists and scalars addressed by key paths.
// It is the unit a Store loads and persists. Lists are []interface{} and
// maps are map[string]interface{}, the shapes yaml.v3 and encoding/json
// produce when decoding into interface{}.
type Document struct {
	root map[string]interface{}
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{root: map[string]interface{}{}}
}

// Fetch returns the value at keys. A nil value counts as missing.
func (d *Document) Fetch(keys ...string) (interface{}, bool) {
	var cur interface{} = d.root
	for _, k := range keys {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		if cur, ok = m[k]; !ok {
			return nil, false
		}
	}
	return cur, cur != nil
}

// FetchOr returns the value at keys, or def when it is missing.
func (d *Document) FetchOr(def interface{}, keys ...string) interface{} {
	if v, ok := d.Fetch(keys...); ok {
		return v
	}
	return def
}

// Set stores value at keys, creating intermediate maps.
func (d *Document) Set(value interface{}, keys ...string) error {
	m, err := d.parent(keys, true)
	if err != nil {
		return err
	}
	m[keys[len(keys)-1]] = normalize(value)
	return nil
}

// Append adds value to the list at keys, creating the list if needed.
func (d *Document) Append(value interface{}, keys ...string) error {
	m, err := d.parent(keys, true)
	if err != nil {
		return err
	}
	last := keys[len(keys)-1]
	switch list := m[last].(type) {
	case nil:
		m[last] = []interface{}{normalize(value)}
	case []interface{}:
		m[last] = append(list, normalize(value))
	default:
		return fmt.Errorf("%w: %s", ErrNotList, strings.Join(keys, "."))
	}
	return nil
}

// Delete removes the value at keys and returns it.
func (d *Document) Delete(keys ...string) (interface{}, bool) {
	if len(keys) == 0 {
		return nil, false
	}
	m, err := d.parent(keys, false)
	if err != nil || m == nil {
		return nil, false
	}
	last := keys[len(keys)-1]
	v, ok := m[last]
	delete(m, last)
	return v, ok
}

// SetIfEmpty stores value at keys unless a non-empty value is already there.
func (d *Document) SetIfEmpty(value interface{}, keys ...string) error {
	if v, ok := d.Fetch(keys...); ok && !isEmpty(v) {
		return nil
	}
	return d.Set(value, keys...)
}

// parent walks to the map holding the last key. With create unset a
// missing branch yields a nil map and no error.
func (d *Document) parent(keys []string, create bool) (map[string]interface{}, error) {
	if len(keys) == 0 {
		return nil, ErrEmptyPath
	}
	m := d.root
	for i, k := range keys[:len(keys)-1] {
		next, ok := m[k]
		if !ok || next == nil {
			if !create {
				return nil, nil
			}
			child := map[string]interface{}{}
			m[k] = child
			m = child
			continue
		}
		child, ok := next.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotMap, strings.Join(keys[:i+1], "."))
		}
		m = child
	}
	return m, nil
}

func isEmpty(v interface{}) bool {
	switch v := v.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []interface{}:
		return len(v) == 0
	case map[string]interface{}:
		return len(v) == 0
	}
	return false
}

// normalize converts typed slices and maps to the decoded shapes so that a
// document looks the same before and after a round trip through a backend.
func normalize(v interface{}) interface{} {
	switch v := v.(type) {
	case []string:
		list := make([]interface{}, len(v))
		for i, s := range v {
			list[i] = s
		}
		return list
	case map[string][]string:
		m := make(map[string]interface{}, len(v))
		for k, s := range v {
			m[k] = normalize(s)
		}
		return m
	}
	return v
}
