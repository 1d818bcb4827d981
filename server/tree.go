package main

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/nguyenvanduc62915/network/common"
)

// Project walks every group the user belongs to and assembles the full tree
// snapshot returned after each read or mutation. The tree is rebuilt from
// scratch on every call; nothing is cached, so the filesystem stays the
// single source of truth.
func Project(storageRoot string, store Store, username string) (*common.TreeNode, error) {
	groups, err := store.AllGroupNames()
	if err != nil {
		return nil, err
	}

	root := &common.TreeNode{
		Name:     "",
		Path:     "",
		Type:     common.NodeRoot,
		Children: []*common.TreeNode{},
	}

	for _, group := range groups {
		members, err := store.GetMembers(group)
		if err != nil {
			return nil, err
		}
		role, ok := memberRole(members, username)
		if !ok {
			continue
		}

		// The leader annotation is computed once per group: the
		// requester's own name when they lead the group, empty
		// otherwise. It marks delete permission, not node ownership.
		leader := ""
		if role == RoleLeader {
			leader = username
		}

		node, err := walk(storageRoot, group, leader)
		if err != nil {
			// A registered group whose directory vanished must not
			// take the whole projection down with it; it shows up
			// empty until something recreates content under it.
			if !os.IsNotExist(errors.Cause(err)) {
				return nil, err
			}
			node = &common.TreeNode{
				Name:     group,
				Path:     group,
				Type:     common.NodeDir,
				Leader:   leader,
				Children: []*common.TreeNode{},
			}
		}
		root.Children = append(root.Children, node)
	}

	return root, nil
}

// walk builds the subtree rooted at relPath. Directories sort before files,
// then lexicographically, so two walks of an unchanged directory produce
// identical snapshots.
func walk(storageRoot, relPath, leader string) (*common.TreeNode, error) {
	fsPath := filepath.Join(storageRoot, filepath.FromSlash(relPath))
	info, err := os.Stat(fsPath)
	if err != nil {
		return nil, errors.Wrapf(err, "stat %s", relPath)
	}

	node := &common.TreeNode{
		Name:   filepath.Base(fsPath),
		Path:   relPath,
		Leader: leader,
	}

	if !info.IsDir() {
		node.Type = common.NodeFile
		node.Size = info.Size()
		return node, nil
	}

	node.Type = common.NodeDir
	node.Children = []*common.TreeNode{}

	entries, err := os.ReadDir(fsPath)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", relPath)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		child, err := walk(storageRoot, relPath+common.Separator+entry.Name(), leader)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}

	return node, nil
}

// groupOfPath validates a wire path and extracts its leading segment, which
// names the group. A valid path has at least two segments, all non-empty and
// none of them "." or "..": an empty trailing segment would make the path
// name the group root itself, and dot segments would escape the storage root
// once filepath.Join cleans them.
func groupOfPath(path string) (string, bool) {
	segments := strings.Split(path, common.Separator)
	if len(segments) < 2 {
		return "", false
	}
	for _, seg := range segments {
		if seg == "" || seg == "." || seg == ".." {
			return "", false
		}
	}
	return segments[0], true
}
