package antrsvp

// statistics.go holds the per-node model of trip times toward every
// destination, and the reinforcement policy that turns a measured trip
// time into an update of the pheromone table.

import (
	"math"
)

// LocalParametricView summarizes the trip times seen toward one destination
type LocalParametricView struct {
	Mean     float64
	Variance float64
	Window   int     // number of samples the best value is taken over, saturates at the model window
	Best     float64 // best trip time within the window
	Samples  int

	bestAge int
}

// StdDev is the square root of the variance estimate
func (lpv *LocalParametricView) StdDev() float64 {
	if lpv.Variance <= 0.0 {
		return 0.0
	}
	return math.Sqrt(lpv.Variance)
}

// UpperBound is the upper edge of the confidence interval around the mean,
// +Inf while there are no samples
func (lpv *LocalParametricView) UpperBound(z float64) float64 {
	if lpv.Samples == 0 || lpv.Window == 0 {
		return math.Inf(1)
	}
	return lpv.Mean + z*lpv.StdDev()/math.Sqrt(float64(lpv.Window))
}

// StatisticalParametricModel is the set of views a node keeps, one per destination
type StatisticalParametricModel struct {
	node      int
	eta       float64
	maxWindow int
	views     map[int]*LocalParametricView
}

// NewStatisticalParametricModel creates empty views toward every destination other than node.
// eta weighs new samples in the exponential mean; the window over which the best trip
// time is remembered is 5*reduction/eta samples.
func NewStatisticalParametricModel(node int, destinations []int, eta, reduction float64) *StatisticalParametricModel {
	spm := &StatisticalParametricModel{node: node, eta: eta, views: make(map[int]*LocalParametricView)}
	spm.maxWindow = 1
	if eta > 0.0 {
		spm.maxWindow = int(5.0 * reduction / eta)
	}
	if spm.maxWindow < 1 {
		spm.maxWindow = 1
	}
	for _, dest := range destinations {
		spm.AddDestination(dest)
	}
	return spm
}

// MaxWindow is the number of samples over which the best trip time is remembered
func (spm *StatisticalParametricModel) MaxWindow() int {
	return spm.maxWindow
}

// AddDestination creates an empty view, unless one exists
func (spm *StatisticalParametricModel) AddDestination(dest int) {
	if dest == spm.node {
		return
	}
	if _, present := spm.views[dest]; !present {
		spm.views[dest] = &LocalParametricView{Best: math.Inf(1)}
	}
}

func (spm *StatisticalParametricModel) RemoveDestination(dest int) {
	delete(spm.views, dest)
}

// View returns the view toward dest
func (spm *StatisticalParametricModel) View(dest int) (*LocalParametricView, bool) {
	view, present := spm.views[dest]
	return view, present
}

// Update folds a measured trip time toward dest into its view
func (spm *StatisticalParametricModel) Update(dest int, cost float64) {
	view, present := spm.views[dest]
	if !present {
		return
	}
	if view.Samples == 0 {
		view.Mean = cost
		view.Variance = 0.0
	} else {
		delta := cost - view.Mean
		view.Mean += spm.eta * delta
		view.Variance += spm.eta * (delta*delta - view.Variance)
	}
	view.Samples += 1
	if view.Window < spm.maxWindow {
		view.Window += 1
	}

	// the best value ages out once it is older than the window
	if cost <= view.Best || view.bestAge >= spm.maxWindow {
		view.Best = cost
		view.bestAge = 0
	} else {
		view.bestAge += 1
	}
}

// ReinforcementPolicy decides whether a trip time is good enough to reinforce
// the route that produced it, and by how much
type ReinforcementPolicy interface {
	Accept(view *LocalParametricView, cost float64, isTarget bool) bool
	Magnitude(view *LocalParametricView, cost float64, neighbors int) float64
}

// maxReinforcement keeps every pheromone level strictly inside (0,1)
const maxReinforcement = 0.99

// AntNetReinforcement scores a trip time against the best and the upper
// confidence bound of the view, then squashes the score so that small
// differences matter less on nodes with many neighbors
type AntNetReinforcement struct {
	Z         float64 // confidence coefficient
	C1, C2    float64 // weights of the best-time and confidence-interval terms
	Amplifier float64 // squashing steepness
}

// Accept admits the trip when it lies under the upper confidence bound, or ends at the target
func (anr *AntNetReinforcement) Accept(view *LocalParametricView, cost float64, isTarget bool) bool {
	if isTarget || view == nil {
		return true
	}
	return cost < view.UpperBound(anr.Z)
}

// Magnitude returns a reinforcement in [0, maxReinforcement].  It is meant to be
// called after the view has absorbed cost.
func (anr *AntNetReinforcement) Magnitude(view *LocalParametricView, cost float64, neighbors int) float64 {
	if view == nil || neighbors < 1 {
		return 0.0
	}
	var r float64
	if cost <= 0.0 {
		r = anr.C1 + anr.C2
	} else {
		iInf := view.Best
		if math.IsInf(iInf, 1) || iInf > cost {
			iInf = cost
		}
		r = anr.C1 * (iInf / cost)

		iSup := view.UpperBound(anr.Z)
		if math.IsInf(iSup, 1) {
			iSup = cost
		}
		interval := iSup - iInf
		if interval > 0.0 && interval+(cost-iInf) > 0.0 {
			r += anr.C2 * interval / (interval + (cost - iInf))
		}
	}
	r = math.Max(0.0, math.Min(1.0, r))
	r = anr.squash(r, neighbors) / anr.squash(1.0, neighbors)
	return math.Max(0.0, math.Min(maxReinforcement, r))
}

func (anr *AntNetReinforcement) squash(x float64, neighbors int) float64 {
	if x <= 0.0 {
		return 0.0
	}
	return 1.0 / (1.0 + math.Exp(anr.Amplifier/(x*float64(neighbors))))
}
