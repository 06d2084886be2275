// Copyright (c) 2014 Square, Inc

package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_SetAndFetch(t *testing.T) {
	doc := NewDocument()
	require.NoError(t, doc.Set([]string{"a", "b"}, "nodes", "node1"))

	v, ok := doc.Fetch("nodes", "node1")
	require.True(t, ok)
	assert.Equal(t, []interface{}{"a", "b"}, v)

	_, ok = doc.Fetch("nodes", "node2")
	assert.False(t, ok)
	_, ok = doc.Fetch("nodes", "node1", "deeper")
	assert.False(t, ok)
}

func TestDocument_FetchOr(t *testing.T) {
	doc := NewDocument()
	require.NoError(t, doc.Set(nil, "empty"))

	assert.Equal(t, "def", doc.FetchOr("def", "missing"))
	assert.Equal(t, "def", doc.FetchOr("def", "empty"))
}

func TestDocument_SetThroughScalar(t *testing.T) {
	doc := NewDocument()
	require.NoError(t, doc.Set("x", "scalar"))

	err := doc.Set("y", "scalar", "child")
	assert.ErrorIs(t, err, ErrNotMap)
}

func TestDocument_Append(t *testing.T) {
	doc := NewDocument()
	require.NoError(t, doc.Append("orphan", "groups"))
	require.NoError(t, doc.Append("compute", "groups"))

	v, _ := doc.Fetch("groups")
	assert.Equal(t, []interface{}{"orphan", "compute"}, v)

	require.NoError(t, doc.Set("x", "scalar"))
	assert.ErrorIs(t, doc.Append("y", "scalar"), ErrNotList)
}

func TestDocument_Delete(t *testing.T) {
	doc := NewDocument()
	require.NoError(t, doc.Set("v", "nodes", "n1"))

	v, ok := doc.Delete("nodes", "n1")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	_, ok = doc.Delete("nodes", "n1")
	assert.False(t, ok)
	_, ok = doc.Delete("missing", "n1")
	assert.False(t, ok)
	_, ok = doc.Delete()
	assert.False(t, ok)
}

func TestDocument_SetIfEmpty(t *testing.T) {
	doc := NewDocument()
	require.NoError(t, doc.SetIfEmpty([]string{"orphan"}, "groups"))
	require.NoError(t, doc.SetIfEmpty([]string{"other"}, "groups"))

	v, _ := doc.Fetch("groups")
	assert.Equal(t, []interface{}{"orphan"}, v)

	require.NoError(t, doc.Set([]string{}, "list"))
	require.NoError(t, doc.SetIfEmpty([]string{"filled"}, "list"))
	v, _ = doc.Fetch("list")
	assert.Equal(t, []interface{}{"filled"}, v)
}

func TestDocument_EmptyPath(t *testing.T) {
	doc := NewDocument()
	assert.ErrorIs(t, doc.Set("x"), ErrEmptyPath)
	assert.ErrorIs(t, doc.Append("x"), ErrEmptyPath)
}
