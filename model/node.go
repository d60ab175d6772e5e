package model

import "fmt"

// Node is a search graph node. Position is fixed at creation; Cost (g),
// Estimate (h) and Parent are owned by the search that created the node.
type Node struct {
	row, col int
	Cost     float64
	Estimate float64
	Parent   *Node
}

func NewNode(row, col int) *Node {
	return &Node{row: row, col: col}
}

func (n *Node) Row() int { return n.row }

func (n *Node) Col() int { return n.col }

func (n *Node) Position() Position { return Position{Row: n.row, Col: n.col} }

func (n *Node) TotalCost() float64 { return n.Cost + n.Estimate }

// Equal compares positions only.
func (n *Node) Equal(other *Node) bool {
	if n == other {
		return true
	}
	if n == nil || other == nil {
		return false
	}
	return n.row == other.row && n.col == other.col
}

// Len counts the nodes in the parent chain, n included.
func (n *Node) Len() int {
	l := 0
	for cur := n; cur != nil; cur = cur.Parent {
		l++
	}
	return l
}

// Path returns the chain as positions from the root to n.
func (n *Node) Path() []Position {
	path := make([]Position, n.Len())
	i := len(path) - 1
	for cur := n; cur != nil; cur = cur.Parent {
		path[i] = cur.Position()
		i--
	}
	return path
}

func (n *Node) String() string {
	return fmt.Sprintf("(%d, %d, %g, %g)", n.row, n.col, n.Cost, n.Estimate)
}
