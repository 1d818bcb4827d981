package common

import "encoding/json"

// Node types inside a projected tree.
const (
	NodeRoot = "root"
	NodeDir  = "dir"
	NodeFile = "file"
)

// TreeNode is one node of the projected file tree a server returns after
// every read or mutation. The synthetic root holds one child per group the
// requesting user belongs to; paths are relative to the storage root and the
// group's own directory is always the first segment. Leader carries the
// requesting user's username on every node of a group they lead, and is
// empty otherwise.
type TreeNode struct {
	Name     string      `json:"name"`
	Path     string      `json:"path"`
	Type     string      `json:"type"`
	Leader   string      `json:"leader,omitempty"`
	Size     int64       `json:"size,omitempty"`
	Children []*TreeNode `json:"children,omitempty"`
}

// MarshalTree serializes a tree for a response body.
func MarshalTree(root *TreeNode) ([]byte, error) {
	return json.Marshal(root)
}

// UnmarshalTree parses a tree from a response body.
func UnmarshalTree(data []byte) (*TreeNode, error) {
	var root TreeNode
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	return &root, nil
}

// FindPath looks a node up by path with a breadth-first walk. The client
// uses it to relocate its current directory inside every fresh snapshot,
// since the server always returns the whole tree and never a delta.
func FindPath(root *TreeNode, path string) *TreeNode {
	if root == nil {
		return nil
	}

	queue := []*TreeNode{root}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		if node.Path == path {
			return node
		}
		queue = append(queue, node.Children...)
	}

	return nil
}
