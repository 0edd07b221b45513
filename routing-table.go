package antrsvp

// routing-table.go holds the pheromone table of a node.  For every
// destination it keeps one level per neighbor; levels of a destination
// start out uniform and sum to one.  Ants use the table stochastically
// to explore, signaling uses it deterministically or stochastically to
// pick the next hop of a lightpath, and backward ants reinforce it.

import (
	"math"
	"sort"

	"golang.org/x/exp/slices"
)

// RandomStream is the one method of a random number stream the routing logic needs
type RandomStream interface {
	RandU01() float64
}

// NeighborAttr is the pheromone level of one neighbor toward one destination
type NeighborAttr struct {
	Neighbor int
	Level    float64
}

// Choice pairs a neighbor with its selection probability
type Choice struct {
	Neighbor int
	Prob     float64
}

// nodeSet is a set of node ids used as an exclusion (tabu) list
type nodeSet map[int]bool

func newNodeSet(ids ...int) nodeSet {
	ns := make(nodeSet)
	for _, id := range ids {
		ns[id] = true
	}
	return ns
}

func (ns nodeSet) has(id int) bool {
	if ns == nil {
		return false
	}
	return ns[id]
}

func (ns nodeSet) union(other nodeSet) nodeSet {
	rtn := make(nodeSet)
	for id := range ns {
		rtn[id] = true
	}
	for id := range other {
		rtn[id] = true
	}
	return rtn
}

// RoutingTable is the pheromone table of a single node.  Entries are kept
// sorted by neighbor id so that every scan over them is deterministic.
type RoutingTable struct {
	node      int
	neighbors []int
	entries   map[int][]NeighborAttr
}

// NewRoutingTable creates uniform entries toward every destination other than node
func NewRoutingTable(node int, neighbors []int, destinations []int) *RoutingTable {
	rt := &RoutingTable{node: node, entries: make(map[int][]NeighborAttr)}
	rt.neighbors = slices.Clone(neighbors)
	sort.Ints(rt.neighbors)
	rt.neighbors = slices.Compact(rt.neighbors)

	for _, dest := range destinations {
		rt.AddDestination(dest)
	}
	return rt
}

// AddDestination creates a uniform entry toward dest, unless one exists
func (rt *RoutingTable) AddDestination(dest int) {
	if dest == rt.node {
		return
	}
	if _, present := rt.entries[dest]; present {
		return
	}
	attrs := make([]NeighborAttr, len(rt.neighbors))
	for idx, nbr := range rt.neighbors {
		attrs[idx] = NeighborAttr{Neighbor: nbr, Level: 1.0 / float64(len(rt.neighbors))}
	}
	rt.entries[dest] = attrs
}

// Neighbors returns the neighbors the table routes over
func (rt *RoutingTable) Neighbors() []int {
	return slices.Clone(rt.neighbors)
}

func (rt *RoutingTable) hasNeighbor(nbr int) bool {
	_, found := slices.BinarySearch(rt.neighbors, nbr)
	return found
}

// Destinations lists the destinations with an entry, in increasing order
func (rt *RoutingTable) Destinations() []int {
	dests := make([]int, 0, len(rt.entries))
	for dest := range rt.entries {
		dests = append(dests, dest)
	}
	sort.Ints(dests)
	return dests
}

// Entry returns a copy of the levels toward dest
func (rt *RoutingTable) Entry(dest int) []NeighborAttr {
	return slices.Clone(rt.entries[dest])
}

// Level returns the pheromone level of nbr toward dest
func (rt *RoutingTable) Level(dest, nbr int) (float64, bool) {
	for _, attr := range rt.entries[dest] {
		if attr.Neighbor == nbr {
			return attr.Level, true
		}
	}
	return 0.0, false
}

// eligible returns the entries toward dest whose neighbor is not excluded
func (rt *RoutingTable) eligible(dest int, exclude nodeSet) []NeighborAttr {
	rtn := []NeighborAttr{}
	for _, attr := range rt.entries[dest] {
		if !exclude.has(attr.Neighbor) {
			rtn = append(rtn, attr)
		}
	}
	return rtn
}

// SelectDeterministic returns the eligible neighbor with the highest level.
// Ties go to the lowest neighbor id.
func (rt *RoutingTable) SelectDeterministic(dest int, exclude nodeSet) (int, bool) {
	best := -1
	bestLevel := math.Inf(-1)
	for _, attr := range rt.eligible(dest, exclude) {
		if attr.Level > bestLevel {
			best = attr.Neighbor
			bestLevel = attr.Level
		}
	}
	return best, best >= 0
}

// SelectStochastic draws an eligible neighbor with probability proportional to its level
func (rt *RoutingTable) SelectStochastic(dest int, exclude nodeSet, rng RandomStream) (int, bool) {
	elig := rt.eligible(dest, exclude)
	if len(elig) == 0 {
		return -1, false
	}
	choices := make([]Choice, len(elig))
	sum := 0.0
	for _, attr := range elig {
		sum += attr.Level
	}
	for idx, attr := range elig {
		if sum > 0.0 {
			choices[idx] = Choice{Neighbor: attr.Neighbor, Prob: attr.Level / sum}
		} else {
			choices[idx] = Choice{Neighbor: attr.Neighbor, Prob: 1.0 / float64(len(elig))}
		}
	}
	return draw(choices, rng), true
}

// HeuristicDistribution mixes the pheromone levels toward dest with the number of
// free wavelengths on the link to each neighbor:
//
//	p(n) = (level(n) + alpha*h(n)) / (1 + alpha)
//
// where level is normalized over the eligible neighbors and h(n) is free(n)^power
// normalized the same way.  When no eligible link has a free wavelength the
// heuristic term is dropped.  The probabilities sum to one.
func (rt *RoutingTable) HeuristicDistribution(dest int, tabu nodeSet, free map[int]int,
	alpha, power float64) []Choice {

	elig := rt.eligible(dest, tabu)
	if len(elig) == 0 {
		return []Choice{}
	}
	levelSum := 0.0
	heurSum := 0.0
	heur := make([]float64, len(elig))
	for idx, attr := range elig {
		levelSum += attr.Level
		heur[idx] = math.Pow(float64(free[attr.Neighbor]), power)
		heurSum += heur[idx]
	}

	rtn := make([]Choice, len(elig))
	for idx, attr := range elig {
		level := 1.0 / float64(len(elig))
		if levelSum > 0.0 {
			level = attr.Level / levelSum
		}
		prob := level
		if heurSum > 0.0 && alpha > 0.0 {
			prob = (level + alpha*heur[idx]/heurSum) / (1.0 + alpha)
		}
		rtn[idx] = Choice{Neighbor: attr.Neighbor, Prob: prob}
	}
	return rtn
}

// SelectWithHeuristic draws from the heuristic distribution.  Nothing is
// drawn from rng when every neighbor is in the tabu set.
func (rt *RoutingTable) SelectWithHeuristic(dest int, tabu nodeSet, free map[int]int,
	alpha, power float64, rng RandomStream) (int, bool) {

	choices := rt.HeuristicDistribution(dest, tabu, free, alpha, power)
	if len(choices) == 0 {
		return -1, false
	}
	return draw(choices, rng), true
}

// draw inverts the cumulative distribution of the choices at one uniform sample
func draw(choices []Choice, rng RandomStream) int {
	u := rng.RandU01()
	cum := 0.0
	for _, choice := range choices {
		cum += choice.Prob
		if u < cum {
			return choice.Neighbor
		}
	}
	// rounding left u above the total
	return choices[len(choices)-1].Neighbor
}

// SelectForAnt picks the next hop of a forward ant.  Unvisited neighbors are
// drawn from the heuristic distribution; when every neighbor has been visited
// the best neighbor is taken regardless, and the loop that closes is cut out of
// the ant's path.  The second return is true when a loop was cut.
func (rt *RoutingTable) SelectForAnt(ant *Ant, free map[int]int, alpha, power float64,
	markLoop bool, rng RandomStream) (int, bool, bool) {

	tabu := newNodeSet(ant.Path...)
	if nxt, ok := rt.SelectWithHeuristic(ant.Target, tabu, free, alpha, power, rng); ok {
		return nxt, false, true
	}

	nxt, ok := rt.SelectDeterministic(ant.Target, nil)
	if !ok {
		return -1, false, false
	}
	if ant.Path.Contains(nxt) {
		ant.exciseLoop(nxt)
		if markLoop {
			ant.Looped = true
		}
		return nxt, true, true
	}
	return nxt, false, true
}

// Reinforce applies what a backward ant measured.  For every node the ant
// reached after this one, the trip time is compared against the model; trips
// the policy accepts update the model and raise the level of the neighbor the
// ant left through.  It returns the number of destinations reinforced.
func (rt *RoutingTable) Reinforce(ant *Ant, model *StatisticalParametricModel, policy ReinforcementPolicy) int {
	pos := ant.Position()
	nxt, ok := ant.forwardNeighbor()
	if !ok || !rt.hasNeighbor(nxt) {
		return 0
	}
	updated := 0
	for idx := pos + 1; idx < len(ant.Path); idx++ {
		dest := ant.Path[idx]
		if dest == rt.node {
			continue
		}
		view, present := model.View(dest)
		if !present {
			continue
		}
		cost := ant.costTo(idx)
		if !policy.Accept(view, cost, dest == ant.Target) {
			continue
		}
		model.Update(dest, cost)
		r := policy.Magnitude(view, cost, len(rt.neighbors))
		rt.reinforceEntry(dest, nxt, r)
		updated += 1
	}
	return updated
}

// reinforceEntry raises the level of chosen toward dest by r and lowers the
// others proportionally, which keeps the entry summing to one
func (rt *RoutingTable) reinforceEntry(dest, chosen int, r float64) {
	attrs := rt.entries[dest]
	for idx := range attrs {
		if attrs[idx].Neighbor == chosen {
			attrs[idx].Level += r * (1.0 - attrs[idx].Level)
		} else {
			attrs[idx].Level -= r * attrs[idx].Level
		}
	}
}

// RemoveNeighbor drops nbr from the table.  The remaining levels are not
// renormalized; selection normalizes over eligible neighbors anyway.
func (rt *RoutingTable) RemoveNeighbor(nbr int) {
	if idx, found := slices.BinarySearch(rt.neighbors, nbr); found {
		rt.neighbors = slices.Delete(rt.neighbors, idx, idx+1)
	}
	for dest, attrs := range rt.entries {
		rt.entries[dest] = slices.DeleteFunc(attrs, func(attr NeighborAttr) bool {
			return attr.Neighbor == nbr
		})
	}
}

// RemoveDestination drops the entry toward dest
func (rt *RoutingTable) RemoveDestination(dest int) {
	delete(rt.entries, dest)
}
