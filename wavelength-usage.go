package antrsvp

// wavelength-usage.go holds the per-node table of wavelength occupancy
// histograms built from what backward ants report.  The crankback node
// variant uses the aggregate histogram to rank wavelengths for the
// most-used and least-used assignment policies.

import (
	"sort"

	"github.com/gammazero/deque"
	"golang.org/x/exp/slices"
)

// WavelengthUsage is the occupancy histogram toward one destination.
// With a positive window only the most recent window samples are counted.
type WavelengthUsage struct {
	counts  []int
	window  int
	samples *deque.Deque[[]int]
}

func newWavelengthUsage(n, window int) *WavelengthUsage {
	return &WavelengthUsage{counts: make([]int, n), window: window, samples: deque.New[[]int]()}
}

func (wu *WavelengthUsage) add(sample []int) {
	cpy := make([]int, len(wu.counts))
	copy(cpy, sample)
	for l, v := range cpy {
		wu.counts[l] += v
	}
	if wu.window <= 0 {
		return
	}
	wu.samples.PushBack(cpy)
	for wu.samples.Len() > wu.window {
		old := wu.samples.PopFront()
		for l, v := range old {
			wu.counts[l] -= v
		}
	}
}

// Counts returns a copy of the histogram
func (wu *WavelengthUsage) Counts() []int {
	return slices.Clone(wu.counts)
}

// WavelengthUsageTable holds one histogram per destination
type WavelengthUsageTable struct {
	wavelengths int
	window      int
	byDest      map[int]*WavelengthUsage
}

// NewWavelengthUsageTable creates an empty table for n wavelengths
func NewWavelengthUsageTable(n, window int) *WavelengthUsageTable {
	return &WavelengthUsageTable{wavelengths: n, window: window, byDest: make(map[int]*WavelengthUsage)}
}

// Update folds an occupancy sample collected on the way to dest into the table
func (wut *WavelengthUsageTable) Update(dest int, sample []int) {
	wu, present := wut.byDest[dest]
	if !present {
		wu = newWavelengthUsage(wut.wavelengths, wut.window)
		wut.byDest[dest] = wu
	}
	wu.add(sample)
}

// Usage returns the histogram toward dest
func (wut *WavelengthUsageTable) Usage(dest int) ([]int, bool) {
	wu, present := wut.byDest[dest]
	if !present {
		return nil, false
	}
	return wu.Counts(), true
}

// Destinations lists, in increasing order, the destinations with a histogram
func (wut *WavelengthUsageTable) Destinations() []int {
	dests := make([]int, 0, len(wut.byDest))
	for dest := range wut.byDest {
		dests = append(dests, dest)
	}
	sort.Ints(dests)
	return dests
}

// Aggregate sums the histograms of all destinations
func (wut *WavelengthUsageTable) Aggregate() []int {
	rtn := make([]int, wut.wavelengths)
	for _, dest := range wut.Destinations() {
		for l, v := range wut.byDest[dest].counts {
			rtn[l] += v
		}
	}
	return rtn
}

// Ranking orders the wavelengths by aggregate usage, most used first when
// mostUsed is set and least used first otherwise.  Ties go to the lower wavelength.
func (wut *WavelengthUsageTable) Ranking(mostUsed bool) []int {
	agg := wut.Aggregate()
	rtn := make([]int, wut.wavelengths)
	for l := range rtn {
		rtn[l] = l
	}
	sort.SliceStable(rtn, func(i, j int) bool {
		if mostUsed {
			return agg[rtn[i]] > agg[rtn[j]]
		}
		return agg[rtn[i]] < agg[rtn[j]]
	})
	return rtn
}

// RemoveDestination forgets the histogram toward dest
func (wut *WavelengthUsageTable) RemoveDestination(dest int) {
	delete(wut.byDest, dest)
}
