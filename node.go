package antrsvp

// node.go holds the state a node processor keeps and the pieces both node
// variants share.  A node only ever mutates its own state; other nodes learn
// about it solely through the messages it emits.  Every processing step
// returns at most one event (possibly a MULTIPLE) with absolute timestamps.

import (
	"log/slog"
	"sort"
)

// failureEpsilon separates messages emitted in reaction to a failure from
// the failure notice that triggered them
const failureEpsilon = 1e-9

// LinkState is a node's view of one outgoing link
type LinkState struct {
	Neighbor    int
	Delay       float64
	DataRate    float64
	Wavelengths int
	Mask        WavelengthMask
	Bytes       int64 // control traffic carried, for utilization reports
}

func newLinkState(nbr int, attr LinkAttr) *LinkState {
	return &LinkState{Neighbor: nbr, Delay: attr.Delay, DataRate: attr.DataRate,
		Wavelengths: attr.Wavelengths, Mask: NewWavelengthMask(attr.Wavelengths)}
}

// hopDelay is propagation plus transmission of a packet of the given size
func (ls *LinkState) hopDelay(bytes int) float64 {
	if ls.DataRate <= 0.0 {
		return ls.Delay
	}
	return ls.Delay + float64(bytes*8)/ls.DataRate
}

func (ls *LinkState) allocate(l int) bool {
	if !ls.Mask.IsFree(l) {
		return false
	}
	ls.Mask = ls.Mask.Allocate(l)
	return true
}

func (ls *LinkState) release(l int) {
	ls.Mask = ls.Mask.Release(l)
}

// LinkUsage is a snapshot of a link's occupancy, reported once per time slice
type LinkUsage struct {
	Node        int
	Neighbor    int
	Wavelengths int
	Used        int
	Bytes       int64
}

// NodeProcessor is the per-node logic the control plane dispatches messages to
type NodeProcessor interface {
	ID() int
	ProcessAnt(now float64, ant *Ant) *Event
	ProcessSignaling(now float64, msg *SignalingMessage) *Event
	ProcessFailure(now float64, lf *LinkFailure) *Event
	Link(nbr int) (*LinkState, bool)
	Table() *RoutingTable
	Model() *StatisticalParametricModel
	Usage() *WavelengthUsageTable
	ActiveConnection(flowLabel int) (*Connection, bool)
	LinkUsage() []LinkUsage
}

// NewNodeProcessor builds the processor of the configured variant for a node,
// its local view taken from the topology
func NewNodeProcessor(ctx *SimulationContext, params *Params, id int) NodeProcessor {
	base := newBaseNode(ctx, params, id)
	if params.Variant == CrankbackNodeVariant {
		return &LSRNode{baseNode: base, history: make(map[int]*crankbackRecord)}
	}
	return &AntNetNode{baseNode: base}
}

// baseNode is the state and behavior common to both variants
type baseNode struct {
	id     int
	ctx    *SimulationContext
	params *Params
	log    *slog.Logger

	links  map[int]*LinkState
	table  *RoutingTable
	model  *StatisticalParametricModel
	policy ReinforcementPolicy
	usage  *WavelengthUsageTable

	active       map[int]*Connection // by flow label
	seenFailures map[int]bool
}

func newBaseNode(ctx *SimulationContext, params *Params, id int) *baseNode {
	topo := ctx.Topo
	neighbors := topo.Neighbors(id)
	destinations := []int{}
	for _, dest := range topo.Nodes() {
		if dest != id {
			destinations = append(destinations, dest)
		}
	}

	bn := &baseNode{id: id, ctx: ctx, params: params, log: ctx.Log.With("node", id),
		links: make(map[int]*LinkState), policy: params.reinforcement(),
		active: make(map[int]*Connection), seenFailures: make(map[int]bool)}

	for _, nbr := range neighbors {
		attr, _ := topo.Link(id, nbr)
		bn.links[nbr] = newLinkState(nbr, attr)
	}
	bn.table = NewRoutingTable(id, neighbors, destinations)
	bn.model = NewStatisticalParametricModel(id, destinations, params.ExpFactor, params.WindowReduction)
	bn.usage = NewWavelengthUsageTable(params.Wavelengths, params.UsageWindow)
	return bn
}

func (bn *baseNode) ID() int {
	return bn.id
}

func (bn *baseNode) Link(nbr int) (*LinkState, bool) {
	ls, present := bn.links[nbr]
	return ls, present
}

func (bn *baseNode) Table() *RoutingTable {
	return bn.table
}

func (bn *baseNode) Model() *StatisticalParametricModel {
	return bn.model
}

func (bn *baseNode) Usage() *WavelengthUsageTable {
	return bn.usage
}

func (bn *baseNode) ActiveConnection(flowLabel int) (*Connection, bool) {
	conn, present := bn.active[flowLabel]
	return conn, present
}

// LinkUsage snapshots every outgoing link, in neighbor order
func (bn *baseNode) LinkUsage() []LinkUsage {
	rtn := []LinkUsage{}
	for _, nbr := range bn.neighborIDs() {
		ls := bn.links[nbr]
		rtn = append(rtn, LinkUsage{Node: bn.id, Neighbor: nbr, Wavelengths: ls.Mask.Size(),
			Used: ls.Mask.Size() - ls.Mask.FreeCount(), Bytes: ls.Bytes})
	}
	return rtn
}

// neighborIDs lists the neighbors with a live link, in increasing order
func (bn *baseNode) neighborIDs() []int {
	rtn := make([]int, 0, len(bn.links))
	for nbr := range bn.links {
		rtn = append(rtn, nbr)
	}
	sort.Ints(rtn)
	return rtn
}

// activeFlows lists the flow labels of the active connections, in increasing order
func (bn *baseNode) activeFlows() []int {
	rtn := make([]int, 0, len(bn.active))
	for flow := range bn.active {
		rtn = append(rtn, flow)
	}
	sort.Ints(rtn)
	return rtn
}

// freeWavelengths counts the free wavelengths on every outgoing link
func (bn *baseNode) freeWavelengths() map[int]int {
	rtn := make(map[int]int)
	for nbr, ls := range bn.links {
		rtn[nbr] = ls.Mask.FreeCount()
	}
	return rtn
}

func (bn *baseNode) antRNG() RandomStream {
	return bn.ctx.Stream(AntStream)
}

// send moves a message to an adjacent node, arriving after the link's delay
// for a packet of the message's size.  A missing link drops the message.
func (bn *baseNode) send(now float64, msg Message, nbr int) *Event {
	ls, present := bn.links[nbr]
	if !present {
		bn.log.Warn("no link, message dropped", "to", nbr, "kind", msg.Kind())
		return ignoreEvent(now)
	}
	delay := ls.hopDelay(msg.Base().Bytes)
	ls.Bytes += int64(msg.Base().Bytes)
	msg.Base().advance(nbr)
	return arrivalEvent(now+delay, msg)
}

// removeAdjacency forgets a neighbor after the link to it failed
func (bn *baseNode) removeAdjacency(nbr int) {
	delete(bn.links, nbr)
	bn.table.RemoveNeighbor(nbr)
}
