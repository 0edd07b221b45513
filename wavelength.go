package antrsvp

// wavelength.go holds the two representations of a set of candidate
// wavelengths.  A WavelengthMask records which wavelengths of a link are
// free; a LabelSet is an ordered list of candidate wavelengths, the order
// expressing preference.

import (
	"fmt"
	"strings"

	"github.com/bits-and-blooms/bitset"
	"golang.org/x/exp/slices"
)

// WavelengthPolicy selects the wavelength assigned to a lightpath
type WavelengthPolicy int

const (
	FirstFit WavelengthPolicy = iota
	MostUsed
	LeastUsed
)

var policyToStr map[WavelengthPolicy]string = map[WavelengthPolicy]string{
	FirstFit:  "first-fit",
	MostUsed:  "most-used",
	LeastUsed: "least-used",
}

func (wp WavelengthPolicy) String() string {
	str, present := policyToStr[wp]
	if !present {
		return fmt.Sprintf("WavelengthPolicy(%d)", int(wp))
	}
	return str
}

// ParseWavelengthPolicy accepts the names produced by String, case ignored
func ParseWavelengthPolicy(name string) (WavelengthPolicy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for policy, str := range policyToStr {
		if str == name {
			return policy, nil
		}
	}
	return FirstFit, fmt.Errorf("%w: wavelength policy %q", ErrInvalidParameter, name)
}

// WavelengthMask is a value type; operations that change it return a new mask.
// A set bit marks a free wavelength.
type WavelengthMask struct {
	free *bitset.BitSet
	size uint
}

// NewWavelengthMask returns a mask of n wavelengths, all free
func NewWavelengthMask(n int) WavelengthMask {
	if n < 0 {
		n = 0
	}
	free := bitset.New(uint(n))
	for idx := uint(0); idx < uint(n); idx++ {
		free.Set(idx)
	}
	return WavelengthMask{free: free, size: uint(n)}
}

// Size is the number of wavelengths the mask describes
func (wm WavelengthMask) Size() int {
	return int(wm.size)
}

// IsFree reports whether wavelength l is available
func (wm WavelengthMask) IsFree(l int) bool {
	if wm.free == nil || l < 0 || uint(l) >= wm.size {
		return false
	}
	return wm.free.Test(uint(l))
}

// FreeCount is the number of available wavelengths
func (wm WavelengthMask) FreeCount() int {
	if wm.free == nil {
		return 0
	}
	return int(wm.free.Count())
}

// Empty is true when no wavelength is available
func (wm WavelengthMask) Empty() bool {
	return wm.FreeCount() == 0
}

// FirstFree returns the lowest-numbered free wavelength
func (wm WavelengthMask) FirstFree() (int, bool) {
	if wm.free == nil {
		return -1, false
	}
	l, found := wm.free.NextSet(0)
	if !found || l >= wm.size {
		return -1, false
	}
	return int(l), true
}

// FreeLabels lists the free wavelengths in increasing order
func (wm WavelengthMask) FreeLabels() []int {
	rtn := []int{}
	if wm.free == nil {
		return rtn
	}
	for l, found := wm.free.NextSet(0); found && l < wm.size; l, found = wm.free.NextSet(l + 1) {
		rtn = append(rtn, int(l))
	}
	return rtn
}

// Occupancy returns a 0/1 vector with 1 at every busy wavelength
func (wm WavelengthMask) Occupancy() []int {
	rtn := make([]int, wm.size)
	for l := range rtn {
		if !wm.IsFree(l) {
			rtn[l] = 1
		}
	}
	return rtn
}

// Intersect returns the wavelengths free in both masks
func (wm WavelengthMask) Intersect(other WavelengthMask) WavelengthMask {
	if wm.free == nil || other.free == nil {
		return WavelengthMask{free: bitset.New(0), size: 0}
	}
	size := wm.size
	if other.size < size {
		size = other.size
	}
	return WavelengthMask{free: wm.free.Intersection(other.free), size: size}
}

// Allocate returns a copy of the mask with wavelength l marked busy
func (wm WavelengthMask) Allocate(l int) WavelengthMask {
	cpy := wm.clone()
	if l >= 0 && uint(l) < cpy.size {
		cpy.free.Clear(uint(l))
	}
	return cpy
}

// Release returns a copy of the mask with wavelength l marked free
func (wm WavelengthMask) Release(l int) WavelengthMask {
	cpy := wm.clone()
	if l >= 0 && uint(l) < cpy.size {
		cpy.free.Set(uint(l))
	}
	return cpy
}

func (wm WavelengthMask) clone() WavelengthMask {
	if wm.free == nil {
		return WavelengthMask{free: bitset.New(0), size: 0}
	}
	return WavelengthMask{free: wm.free.Clone(), size: wm.size}
}

func (wm WavelengthMask) String() string {
	var sb strings.Builder
	for l := 0; l < int(wm.size); l++ {
		if wm.IsFree(l) {
			sb.WriteByte('0')
		} else {
			sb.WriteByte('1')
		}
	}
	return sb.String()
}

// LabelSet is an ordered set of candidate wavelengths.  Like WavelengthMask
// it is treated as a value; narrowing it returns a new set.
type LabelSet struct {
	labels []int
}

// NewLabelSet builds a set holding the given labels in the given order, duplicates dropped
func NewLabelSet(labels []int) LabelSet {
	rtn := make([]int, 0, len(labels))
	for _, l := range labels {
		if !slices.Contains(rtn, l) {
			rtn = append(rtn, l)
		}
	}
	return LabelSet{labels: rtn}
}

// FullLabelSet holds wavelengths 0..n-1 in increasing order
func FullLabelSet(n int) LabelSet {
	rtn := make([]int, 0, n)
	for l := 0; l < n; l++ {
		rtn = append(rtn, l)
	}
	return LabelSet{labels: rtn}
}

func (ls LabelSet) Len() int {
	return len(ls.labels)
}

func (ls LabelSet) Empty() bool {
	return len(ls.labels) == 0
}

// Labels returns a copy of the labels in preference order
func (ls LabelSet) Labels() []int {
	return slices.Clone(ls.labels)
}

func (ls LabelSet) Contains(l int) bool {
	return slices.Contains(ls.labels, l)
}

// First returns the most preferred label
func (ls LabelSet) First() (int, bool) {
	if len(ls.labels) == 0 {
		return -1, false
	}
	return ls.labels[0], true
}

// Intersect keeps, in the current order, the labels free in the mask
func (ls LabelSet) Intersect(wm WavelengthMask) LabelSet {
	rtn := make([]int, 0, len(ls.labels))
	for _, l := range ls.labels {
		if wm.IsFree(l) {
			rtn = append(rtn, l)
		}
	}
	return LabelSet{labels: rtn}
}

// Reorder returns the members of the set ordered as they appear in
// ranking; members absent from ranking keep their relative order at the end
func (ls LabelSet) Reorder(ranking []int) LabelSet {
	rtn := make([]int, 0, len(ls.labels))
	for _, l := range ranking {
		if ls.Contains(l) && !slices.Contains(rtn, l) {
			rtn = append(rtn, l)
		}
	}
	for _, l := range ls.labels {
		if !slices.Contains(rtn, l) {
			rtn = append(rtn, l)
		}
	}
	return LabelSet{labels: rtn}
}
