package antrsvp

// path.go holds the Path type, the ordered list of node ids a message
// has visited.  A Path only grows by appending, except when a loop
// is cut out of it by Excise.

import (
	"golang.org/x/exp/slices"
)

// Path is the ordered sequence of node identifiers a message has visited.
// Position 0 is always the message source once the message is built.
type Path []int

// Len returns the number of hops recorded
func (p Path) Len() int {
	return len(p)
}

// Contains reports whether the node has been visited
func (p Path) Contains(nodeID int) bool {
	return slices.Contains(p, nodeID)
}

// PositionOf returns the index of the first occurrence of nodeID, or -1
func (p Path) PositionOf(nodeID int) int {
	return slices.Index(p, nodeID)
}

// First returns the node at the head of the path
func (p Path) First() (int, bool) {
	if len(p) == 0 {
		return -1, false
	}
	return p[0], true
}

// Last returns the most recently appended node
func (p Path) Last() (int, bool) {
	if len(p) == 0 {
		return -1, false
	}
	return p[len(p)-1], true
}

// SubPath returns a copy of the hops from index 'from' to the end
func (p Path) SubPath(from int) Path {
	if from < 0 {
		from = 0
	}
	if from >= len(p) {
		return Path{}
	}
	return p.Clone()[from:]
}

// SubPathRange returns a copy of the hops with index in [from, to)
func (p Path) SubPathRange(from, to int) Path {
	if from < 0 {
		from = 0
	}
	if to > len(p) {
		to = len(p)
	}
	if from >= to {
		return Path{}
	}
	rtn := make(Path, to-from)
	copy(rtn, p[from:to])
	return rtn
}

// Clone returns an independent copy
func (p Path) Clone() Path {
	rtn := make(Path, len(p))
	copy(rtn, p)
	return rtn
}

// Append adds a hop to the end of the path
func (p *Path) Append(nodeID int) {
	*p = append(*p, nodeID)
}

// Excise cuts a loop out of the path.  Every hop recorded after the first
// occurrence of nodeID is removed, leaving nodeID as the last element.
// The number of hops removed is returned; when nodeID is not on the path
// nothing changes and 0 is returned.
func (p *Path) Excise(nodeID int) int {
	idx := p.PositionOf(nodeID)
	if idx < 0 {
		return 0
	}
	removed := len(*p) - (idx + 1)
	*p = (*p)[:idx+1]
	return removed
}

// Equal is true when both paths hold the same hops in the same order
func (p Path) Equal(q Path) bool {
	return slices.Equal(p, q)
}

// crosses reports whether the path traverses the (undirected) edge a-b
func (p Path) crosses(a, b int) bool {
	for idx := 1; idx < len(p); idx++ {
		if (p[idx-1] == a && p[idx] == b) || (p[idx-1] == b && p[idx] == a) {
			return true
		}
	}
	return false
}
