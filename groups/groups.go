// Copyright (c) 2014 Square, Inc

// Package groups tracks which groups the nodes of a cluster belong to.
//
// A cluster document holds an ordered list of group names and a map from
// node name to the node's groups, the first being its primary group. Group
// indices are stable: removing a group blanks its slot instead of shifting
// the groups after it. Slot 0 is the orphan group, which collects every node
// without a group and can not be removed.
package groups

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/xlab/handysort"

	"github.com/square/nodeattr/nodes"
	"github.com/square/nodeattr/store"
)

// OrphanGroup is the group of nodes that were added without one.
const OrphanGroup = "orphan"

var (
	ErrRemovingOrphanGroup = errors.New("groups: can not remove the orphan group")
	ErrEmptyGroupName      = errors.New("groups: group name is empty")
)

const (
	groupsKey = "groups"
	nodesKey  = "nodes"
)

// Config is the group view of one cluster document. It is only valid inside
// the store scope it was created in; see View and Update.
type Config struct {
	cluster string
	doc     *store.Document
}

// New wraps doc, seeding the group list with the orphan group.
func New(cluster string, doc *store.Document) (*Config, error) {
	if err := doc.SetIfEmpty([]string{OrphanGroup}, groupsKey); err != nil {
		return nil, err
	}
	if _, ok := doc.FetchOr(nil, groupsKey).([]interface{}); !ok {
		return nil, fmt.Errorf("groups: cluster %s: %q is not a list", cluster, groupsKey)
	}
	return &Config{cluster: cluster, doc: doc}, nil
}

// View runs fn against a read-only Config for cluster.
func View(ctx context.Context, st store.Store, cluster string, fn func(*Config) error) error {
	return st.View(ctx, cluster, func(doc *store.Document) error {
		c, err := New(cluster, doc)
		if err != nil {
			return err
		}
		return fn(c)
	})
}

// Update runs fn against a Config for cluster and saves the result if fn
// succeeds.
func Update(ctx context.Context, st store.Store, cluster string, fn func(*Config) error) error {
	return st.Update(ctx, cluster, func(doc *store.Document) error {
		c, err := New(cluster, doc)
		if err != nil {
			return err
		}
		return fn(c)
	})
}

func (c *Config) Cluster() string { return c.cluster }

func (c *Config) groupSlots() []interface{} {
	list, _ := c.doc.FetchOr(nil, groupsKey).([]interface{})
	return list
}

// RawGroups returns the group slots in index order. Removed groups leave
// an empty string behind.
func (c *Config) RawGroups() []string {
	slots := c.groupSlots()
	names := make([]string, len(slots))
	for i, g := range slots {
		names[i] = toString(g)
	}
	return names
}

// RawNodes returns every node with its stored groups, which may be empty.
func (c *Config) RawNodes() map[string][]string {
	m, _ := c.doc.FetchOr(nil, nodesKey).(map[string]interface{})
	raw := make(map[string][]string, len(m))
	for node, groups := range m {
		raw[node] = toStrings(groups)
	}
	return raw
}

// NodesList returns the node names in natural order (node2 before node10).
func (c *Config) NodesList() []string {
	m, _ := c.doc.FetchOr(nil, nodesKey).(map[string]interface{})
	names := make([]string, 0, len(m))
	for node := range m {
		names = append(names, node)
	}
	sort.Sort(handysort.Strings(names))
	return names
}

// GroupsHash maps each live group to its index.
func (c *Config) GroupsHash() map[string]int {
	hash := map[string]int{}
	for i, g := range c.RawGroups() {
		if g == "" {
			continue
		}
		if _, ok := hash[g]; !ok {
			hash[g] = i
		}
	}
	return hash
}

// GroupIndex returns the index of group.
func (c *Config) GroupIndex(group string) (int, bool) {
	if group == "" {
		return 0, false
	}
	for i, g := range c.RawGroups() {
		if g == group {
			return i, true
		}
	}
	return 0, false
}

// GroupsForNode returns the groups of node, primary first. Nodes without
// groups, including unknown nodes, are orphans.
func (c *Config) GroupsForNode(node string) []string {
	groups := toStrings(c.doc.FetchOr(nil, nodesKey, node))
	if len(groups) == 0 {
		return []string{OrphanGroup}
	}
	return groups
}

func (c *Config) NodesInGroup(group string) []string {
	var members []string
	for _, node := range c.NodesList() {
		for _, g := range c.GroupsForNode(node) {
			if g == group {
				members = append(members, node)
				break
			}
		}
	}
	return members
}

func (c *Config) NodesInPrimaryGroup(group string) []string {
	var members []string
	for _, node := range c.NodesList() {
		if c.GroupsForNode(node)[0] == group {
			members = append(members, node)
		}
	}
	return members
}

func (c *Config) Orphans() []string {
	return c.NodesInGroup(OrphanGroup)
}

// AddGroup appends group unless it already has a slot.
func (c *Config) AddGroup(group string) error {
	if group == "" {
		return ErrEmptyGroupName
	}
	if _, ok := c.GroupIndex(group); ok {
		return nil
	}
	return c.doc.Append(group, groupsKey)
}

// RemoveGroup blanks the slot of group and removes the nodes whose primary
// group it was. Nodes holding it as a secondary group keep it.
func (c *Config) RemoveGroup(group string) error {
	if group == OrphanGroup {
		return ErrRemovingOrphanGroup
	}
	for _, node := range c.NodesInPrimaryGroup(group) {
		c.doc.Delete(nodesKey, node)
	}
	slots := c.groupSlots()
	for i, g := range slots {
		if toString(g) == group {
			slots[i] = nil
		}
	}
	return nil
}

// AddNodes assigns groups to every node in pattern, replacing what the
// nodes had before. The primary group is created if needed; further groups
// are recorded on the nodes only.
func (c *Config) AddNodes(pattern string, groups ...string) error {
	names, err := nodes.Expand(pattern)
	if err != nil {
		return err
	}
	if len(groups) > 0 {
		if err := c.AddGroup(groups[0]); err != nil {
			return err
		}
	}
	for _, node := range names {
		if err := c.doc.Set(append([]string{}, groups...), nodesKey, node); err != nil {
			return err
		}
	}
	return nil
}

// RemoveNodes forgets every node in pattern. Unknown nodes are ignored.
func (c *Config) RemoveNodes(pattern string) error {
	names, err := nodes.Expand(pattern)
	if err != nil {
		return err
	}
	for _, node := range names {
		c.doc.Delete(nodesKey, node)
	}
	return nil
}

func toString(v interface{}) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return v
	}
	return fmt.Sprint(v)
}

func toStrings(v interface{}) []string {
	list, _ := v.([]interface{})
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, toString(s))
	}
	return out
}
