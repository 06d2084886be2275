// Copyright (c) 2014 Square, Inc

package groups

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/square/nodeattr/nodes"
	"github.com/square/nodeattr/store"
)

func newConfig(t *testing.T) *Config {
	t.Helper()
	c, err := New("my-test-cluster", store.NewDocument())
	require.NoError(t, err)
	return c
}

func TestConfig_Empty(t *testing.T) {
	c := newConfig(t)

	assert.Equal(t, "my-test-cluster", c.Cluster())
	assert.Equal(t, []string{OrphanGroup}, c.RawGroups())
	assert.Empty(t, c.NodesList())
	assert.Empty(t, c.Orphans())
	assert.Empty(t, c.NodesInGroup("some-random-group"))

	idx, ok := c.GroupIndex(OrphanGroup)
	assert.True(t, ok)
	assert.Equal(t, 0, idx)

	_, ok = c.GroupIndex("some-missing-group")
	assert.False(t, ok)

	assert.NoError(t, c.RemoveGroup("missing"))
	assert.NoError(t, c.RemoveNodes("missing[1-10]"))
	assert.ErrorIs(t, c.RemoveGroup(OrphanGroup), ErrRemovingOrphanGroup)
}

func TestConfig_AddGroup(t *testing.T) {
	c := newConfig(t)
	require.NoError(t, c.AddGroup("my-first-group"))

	idx, ok := c.GroupIndex("my-first-group")
	require.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, map[string]int{OrphanGroup: 0, "my-first-group": 1}, c.GroupsHash())

	require.NoError(t, c.AddGroup("some-other-group"))
	require.NoError(t, c.AddGroup("my-first-group"))

	assert.Equal(t, []string{OrphanGroup, "my-first-group", "some-other-group"}, c.RawGroups())
	idx, _ = c.GroupIndex("my-first-group")
	assert.Equal(t, 1, idx, "re-adding keeps the index")

	assert.ErrorIs(t, c.AddGroup(""), ErrEmptyGroupName)
}

func TestConfig_RemoveGroup(t *testing.T) {
	c := newConfig(t)
	require.NoError(t, c.AddGroup("first"))
	require.NoError(t, c.AddNodes("first_group_node", "first", "second"))
	require.NoError(t, c.AddNodes("second_group_node", "second", "first"))

	secondIdx, ok := c.GroupIndex("second")
	require.True(t, ok)

	require.NoError(t, c.RemoveGroup("first"))

	assert.NotContains(t, c.RawGroups(), "first")
	assert.Equal(t, []string{OrphanGroup, "", "second"}, c.RawGroups())
	assert.NotContains(t, c.NodesList(), "first_group_node")
	assert.Contains(t, c.NodesList(), "second_group_node")

	idx, ok := c.GroupIndex("second")
	assert.True(t, ok)
	assert.Equal(t, secondIdx, idx, "later groups keep their index")

	_, ok = c.GroupIndex("")
	assert.False(t, ok)
	assert.Equal(t, map[string]int{OrphanGroup: 0, "second": 2}, c.GroupsHash())
}

func TestConfig_AddNodes(t *testing.T) {
	const pattern = "node[01-10]"
	names := nodes.MustExpand(pattern)

	t.Run("without groups", func(t *testing.T) {
		c := newConfig(t)
		require.NoError(t, c.AddNodes(pattern))

		assert.ElementsMatch(t, names, c.NodesList())
		assert.Equal(t, []string{OrphanGroup}, c.GroupsForNode(names[0]))
		assert.ElementsMatch(t, names, c.Orphans())
	})

	t.Run("re-adding replaces the groups", func(t *testing.T) {
		c := newConfig(t)
		require.NoError(t, c.AddNodes(pattern))
		require.NoError(t, c.AddNodes(pattern, "new_group1", "new_group2"))

		assert.Len(t, c.NodesList(), len(names))
		assert.Equal(t, []string{"new_group1", "new_group2"}, c.GroupsForNode(names[0]))

		hash := c.GroupsHash()
		assert.Contains(t, hash, "new_group1", "primary group is added")
		assert.NotContains(t, hash, "new_group2", "secondary groups are not")
		assert.Empty(t, c.Orphans())
	})

	t.Run("missing groups keep their order", func(t *testing.T) {
		c := newConfig(t)
		require.NoError(t, c.AddNodes(pattern, "missing1", "missing2"))
		assert.Equal(t, []string{"missing1", "missing2"}, c.GroupsForNode(names[0]))
	})

	t.Run("syntax errors pass through", func(t *testing.T) {
		c := newConfig(t)
		err := c.AddNodes("node[2-1]", "g")

		var syntaxErr *nodes.SyntaxError
		require.True(t, errors.As(err, &syntaxErr))
		assert.Equal(t, "2-1", syntaxErr.Pattern)
		assert.Empty(t, c.NodesList())
		assert.Equal(t, []string{OrphanGroup}, c.RawGroups())
	})
}

func TestConfig_RemoveNodes(t *testing.T) {
	const pattern = "node[01-10]"
	names := nodes.MustExpand(pattern)

	t.Run("single node", func(t *testing.T) {
		c := newConfig(t)
		require.NoError(t, c.AddNodes(pattern))
		require.NoError(t, c.RemoveNodes(names[0]))

		assert.NotContains(t, c.NodesList(), names[0])
		assert.Equal(t, names[1:], c.NodesList())
	})

	t.Run("whole range", func(t *testing.T) {
		c := newConfig(t)
		require.NoError(t, c.AddNodes(pattern))
		require.NoError(t, c.RemoveNodes(pattern))
		assert.Empty(t, c.NodesList())
	})

	t.Run("syntax error", func(t *testing.T) {
		c := newConfig(t)
		var syntaxErr *nodes.SyntaxError
		assert.True(t, errors.As(c.RemoveNodes("node[]"), &syntaxErr))
	})
}

func TestConfig_GroupMembership(t *testing.T) {
	c := newConfig(t)
	for _, node := range []string{"node1", "node2", "node4"} {
		require.NoError(t, c.AddNodes(node, "other", "group1"))
		require.NoError(t, c.AddNodes("primary_"+node, "group1"))
		require.NoError(t, c.AddNodes("not_"+node))
	}

	assert.ElementsMatch(t,
		[]string{"node1", "node2", "node4", "primary_node1", "primary_node2", "primary_node4"},
		c.NodesInGroup("group1"))
	assert.ElementsMatch(t,
		[]string{"primary_node1", "primary_node2", "primary_node4"},
		c.NodesInPrimaryGroup("group1"))
	assert.ElementsMatch(t, []string{"not_node1", "not_node2", "not_node4"}, c.Orphans())
}

func TestConfig_NodesListIsNaturallySorted(t *testing.T) {
	c := newConfig(t)
	require.NoError(t, c.AddNodes("node[1-3],node10,node20"))

	assert.Equal(t, []string{"node1", "node2", "node3", "node10", "node20"}, c.NodesList())
}

func TestUpdateAndView(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()

	err := Update(ctx, st, "cluster1", func(c *Config) error {
		if err := c.AddNodes("gpu[1-4]", "gpu"); err != nil {
			return err
		}
		return c.RemoveGroup("gpu")
	})
	require.NoError(t, err)

	err = Update(ctx, st, "cluster1", func(c *Config) error {
		return c.AddNodes("cpu[1-2]", "cpu", "batch")
	})
	require.NoError(t, err)

	err = Update(ctx, st, "cluster1", func(c *Config) error {
		require.NoError(t, c.AddNodes("never[1-2]"))
		return c.AddNodes("broken[")
	})
	var syntaxErr *nodes.SyntaxError
	require.True(t, errors.As(err, &syntaxErr))

	err = View(ctx, st, "cluster1", func(c *Config) error {
		assert.Equal(t, []string{OrphanGroup, "", "cpu"}, c.RawGroups())
		assert.Equal(t, []string{"cpu1", "cpu2"}, c.NodesList())
		assert.Equal(t, []string{"cpu", "batch"}, c.GroupsForNode("cpu1"))
		assert.Equal(t, map[string][]string{
			"cpu1": {"cpu", "batch"},
			"cpu2": {"cpu", "batch"},
		}, c.RawNodes())
		return nil
	})
	require.NoError(t, err)
}

func TestUpdateAndView_YAMLSignificantNames(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()

	require.NoError(t, Update(ctx, st, "cluster1", func(c *Config) error {
		return c.AddNodes("<<,~,1,true", "1", "null")
	}))
	require.NoError(t, Update(ctx, st, "cluster1", func(c *Config) error {
		return c.AddGroup("<<")
	}))

	err := View(ctx, st, "cluster1", func(c *Config) error {
		assert.Equal(t, []string{OrphanGroup, "1", "<<"}, c.RawGroups())
		assert.ElementsMatch(t, []string{"<<", "~", "1", "true"}, c.NodesList())
		assert.Equal(t, []string{"1", "null"}, c.GroupsForNode("<<"))
		assert.ElementsMatch(t, []string{"<<", "~", "1", "true"}, c.NodesInGroup("null"))
		return nil
	})
	require.NoError(t, err)
}
