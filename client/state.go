package main

import (
	"strings"

	"github.com/nguyenvanduc62915/network/common"
)

// ClientState holds the client's view of the server: who is signed in, the
// last full tree snapshot, and the node currently being browsed.
type ClientState struct {
	CurrentUser string
	Tree        *common.TreeNode
	Current     *common.TreeNode
}

var State = &ClientState{}

// SetTree installs a fresh snapshot and re-resolves Current inside it by
// path. The server always returns the whole tree, never a delta, so the
// previous Current node is stale the moment a new snapshot arrives; if its
// path no longer exists the viewpoint falls back to the root.
func (s *ClientState) SetTree(root *common.TreeNode) {
	var path string
	if s.Current != nil {
		path = s.Current.Path
	}

	s.Tree = root
	s.Current = root
	if path == "" {
		return
	}

	if node := common.FindPath(root, path); node != nil {
		s.Current = node
	}
}

// Enter descends into a child directory of the current node by name.
func (s *ClientState) Enter(name string) bool {
	if s.Current == nil {
		return false
	}
	for _, child := range s.Current.Children {
		if child.Name == name && child.Type == common.NodeDir {
			s.Current = child
			return true
		}
	}
	return false
}

// Up moves to the parent of the current node, resolved by trimming the last
// path segment and re-searching the snapshot.
func (s *ClientState) Up() {
	if s.Current == nil || s.Current.Path == "" {
		return
	}

	path := s.Current.Path
	parent := ""
	if idx := strings.LastIndex(path, common.Separator); idx > 0 {
		parent = path[:idx]
	}

	if node := common.FindPath(s.Tree, parent); node != nil {
		s.Current = node
	} else {
		s.Current = s.Tree
	}
}

// Child finds an immediate child of the current node by name, any type.
func (s *ClientState) Child(name string) *common.TreeNode {
	if s.Current == nil {
		return nil
	}
	for _, child := range s.Current.Children {
		if child.Name == name {
			return child
		}
	}
	return nil
}

// Reset clears all navigation and identity state (sign-out, disconnect).
func (s *ClientState) Reset() {
	s.CurrentUser = ""
	s.Tree = nil
	s.Current = nil
}
