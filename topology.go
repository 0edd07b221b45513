package antrsvp

// topology.go holds the physical network: nodes, and bidirectional links
// with a propagation delay, a data rate and a number of wavelengths.
// The graph lives in gonum's simple package so that shortest paths come
// from graph/path.  Node processors never read the Topology; each builds
// its own local view from it when created.

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

// LinkAttr describes one (bidirectional) fiber link
type LinkAttr struct {
	Delay       float64 // propagation delay, seconds
	DataRate    float64 // control channel rate, bits per second
	Wavelengths int
}

// edgeKey names an undirected edge, lower id first
type edgeKey struct {
	a, b int
}

func makeEdgeKey(a, b int) edgeKey {
	if b < a {
		a, b = b, a
	}
	return edgeKey{a: a, b: b}
}

// Topology is the network graph plus the attributes of its links
type Topology struct {
	graph    *simple.WeightedUndirectedGraph
	links    map[edgeKey]LinkAttr
	names    map[int]string
	cachedSP map[int]path.Shortest
}

// NewTopology creates an empty network
func NewTopology() *Topology {
	return &Topology{graph: simple.NewWeightedUndirectedGraph(0, math.Inf(1)),
		links: make(map[edgeKey]LinkAttr), names: make(map[int]string),
		cachedSP: make(map[int]path.Shortest)}
}

// AddNode adds a node; adding an existing id only renames it
func (topo *Topology) AddNode(id int, name string) {
	if topo.graph.Node(int64(id)) == nil {
		topo.graph.AddNode(simple.Node(id))
	}
	topo.names[id] = name
	topo.cachedSP = make(map[int]path.Shortest)
}

// AddLink connects two existing nodes.  The delay is the edge weight for shortest paths.
func (topo *Topology) AddLink(a, b int, attr LinkAttr) error {
	if a == b {
		return fmt.Errorf("link %d-%d is a self loop", a, b)
	}
	if !topo.HasNode(a) {
		return fmt.Errorf("%w: %d", ErrUnknownNode, a)
	}
	if !topo.HasNode(b) {
		return fmt.Errorf("%w: %d", ErrUnknownNode, b)
	}
	weightedEdge := simple.WeightedEdge{F: simple.Node(a), T: simple.Node(b), W: attr.Delay}
	topo.graph.SetWeightedEdge(weightedEdge)
	topo.links[makeEdgeKey(a, b)] = attr
	topo.cachedSP = make(map[int]path.Shortest)
	return nil
}

// HasNode reports whether the node is in the network
func (topo *Topology) HasNode(id int) bool {
	return topo.graph.Node(int64(id)) != nil
}

// HasEdge reports whether a and b are directly connected
func (topo *Topology) HasEdge(a, b int) bool {
	return topo.graph.HasEdgeBetween(int64(a), int64(b))
}

// Name returns the name given to a node
func (topo *Topology) Name(id int) string {
	name, present := topo.names[id]
	if !present {
		return fmt.Sprintf("node-%d", id)
	}
	return name
}

// Nodes lists the node ids in increasing order
func (topo *Topology) Nodes() []int {
	return sortedIDs(topo.graph.Nodes())
}

// Neighbors lists the nodes adjacent to id, in increasing order
func (topo *Topology) Neighbors(id int) []int {
	if !topo.HasNode(id) {
		return []int{}
	}
	return sortedIDs(topo.graph.From(int64(id)))
}

// Degree is the number of links at a node
func (topo *Topology) Degree(id int) int {
	return len(topo.Neighbors(id))
}

// Link returns the attributes of the link between a and b
func (topo *Topology) Link(a, b int) (LinkAttr, bool) {
	if !topo.HasEdge(a, b) {
		return LinkAttr{}, false
	}
	attr, present := topo.links[makeEdgeKey(a, b)]
	return attr, present
}

// RemoveEdge cuts the link between a and b
func (topo *Topology) RemoveEdge(a, b int) {
	topo.graph.RemoveEdge(int64(a), int64(b))
	delete(topo.links, makeEdgeKey(a, b))
	topo.cachedSP = make(map[int]path.Shortest)
}

// RemoveNode removes a node along with all its links
func (topo *Topology) RemoveNode(id int) {
	for _, nbr := range topo.Neighbors(id) {
		delete(topo.links, makeEdgeKey(id, nbr))
	}
	topo.graph.RemoveNode(int64(id))
	topo.cachedSP = make(map[int]path.Shortest)
}

// ShortestPath returns the minimum-delay path from src to dst, inclusive of both, and
// its delay.  The shortest path tree rooted at src is cached until the topology changes.
func (topo *Topology) ShortestPath(src, dst int) (Path, float64, bool) {
	if !topo.HasNode(src) || !topo.HasNode(dst) {
		return nil, math.Inf(1), false
	}
	spTree, present := topo.cachedSP[src]
	if !present {
		spTree = path.DijkstraFrom(topo.graph.Node(int64(src)), topo.graph)
		topo.cachedSP[src] = spTree
	}
	nodes, weight := spTree.To(int64(dst))
	if len(nodes) == 0 {
		return nil, math.Inf(1), false
	}
	rtn := make(Path, len(nodes))
	for idx, node := range nodes {
		rtn[idx] = int(node.ID())
	}
	return rtn, weight, true
}

// sortedIDs drains a gonum node iterator into a sorted list of ids
func sortedIDs(nodes graph.Nodes) []int {
	rtn := []int{}
	for nodes.Next() {
		rtn = append(rtn, int(nodes.Node().ID()))
	}
	sort.Ints(rtn)
	return rtn
}
