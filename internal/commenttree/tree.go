package commenttree

import (
	"errors"
	"sort"
)

var (
	ErrUnknownNode = errors.New("commenttree: unknown node")
	ErrDuplicateID = errors.New("commenttree: duplicate node id")
)

// Node is one comment position inside a Tree
type Node struct {
	ID          string
	Parent      int
	Depth       int
	Path        string
	NumChild    int
	Descendants int
}

// Tree is an arena of nodes for a single post, indexed by id.
// It is not safe for concurrent use.
type Tree struct {
	nodes []Node
	index map[string]int
	order []int // node indices sorted by path
}

// New creates a tree holding only the synthetic root
func New(rootID string) *Tree {
	t := &Tree{index: make(map[string]int)}
	t.nodes = append(t.nodes, Node{
		ID:     rootID,
		Parent: -1,
		Depth:  1,
		Path:   RootPath(),
	})
	t.index[rootID] = 0
	t.order = []int{0}
	return t
}

// Root returns the root node
func (t *Tree) Root() Node {
	return t.nodes[0]
}

// Len returns the number of nodes including the root
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Get returns the node with the given id
func (t *Tree) Get(id string) (Node, bool) {
	i, ok := t.index[id]
	if !ok {
		return Node{}, false
	}
	return t.nodes[i], true
}

// AddChild appends a new node as the last child of parentID.
// Only the parent and its ancestors are updated.
func (t *Tree) AddChild(parentID, id string) (Node, error) {
	pi, ok := t.index[parentID]
	if !ok {
		return Node{}, ErrUnknownNode
	}
	if _, exists := t.index[id]; exists {
		return Node{}, ErrDuplicateID
	}

	parent := &t.nodes[pi]
	path, err := ChildPath(parent.Path, parent.NumChild+1)
	if err != nil {
		return Node{}, err
	}
	parent.NumChild++

	node := Node{
		ID:     id,
		Parent: pi,
		Depth:  parent.Depth + 1,
		Path:   path,
	}
	t.nodes = append(t.nodes, node)
	ni := len(t.nodes) - 1
	t.index[id] = ni

	for ai := pi; ai >= 0; ai = t.nodes[ai].Parent {
		t.nodes[ai].Descendants++
	}

	pos := sort.Search(len(t.order), func(i int) bool {
		return t.nodes[t.order[i]].Path > path
	})
	t.order = append(t.order, 0)
	copy(t.order[pos+1:], t.order[pos:])
	t.order[pos] = ni

	return node, nil
}

// Subtree returns the descendants of id in pre-order, the node itself excluded
func (t *Tree) Subtree(id string) ([]Node, error) {
	i, ok := t.index[id]
	if !ok {
		return nil, ErrUnknownNode
	}

	lo, hi := SubtreeRange(t.nodes[i].Path)
	start := sort.Search(len(t.order), func(k int) bool {
		return t.nodes[t.order[k]].Path > lo
	})
	end := sort.Search(len(t.order), func(k int) bool {
		return t.nodes[t.order[k]].Path >= hi
	})

	result := make([]Node, 0, end-start)
	for _, ni := range t.order[start:end] {
		result = append(result, t.nodes[ni])
	}
	return result, nil
}

// Ancestors returns the proper ancestors of id, root first
func (t *Tree) Ancestors(id string) ([]Node, error) {
	i, ok := t.index[id]
	if !ok {
		return nil, ErrUnknownNode
	}

	var chain []Node
	for ai := t.nodes[i].Parent; ai >= 0; ai = t.nodes[ai].Parent {
		chain = append(chain, t.nodes[ai])
	}
	for l, r := 0, len(chain)-1; l < r; l, r = l+1, r-1 {
		chain[l], chain[r] = chain[r], chain[l]
	}
	return chain, nil
}
