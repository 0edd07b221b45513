package antrsvp

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// scriptedStream replays fixed variates, then repeats the last one
type scriptedStream struct {
	vals []float64
	idx  int
}

func newScriptedStream(vals ...float64) *scriptedStream {
	return &scriptedStream{vals: vals}
}

func (ss *scriptedStream) RandU01() float64 {
	if len(ss.vals) == 0 {
		return 0.0
	}
	if ss.idx >= len(ss.vals) {
		return ss.vals[len(ss.vals)-1]
	}
	v := ss.vals[ss.idx]
	ss.idx += 1
	return v
}

// ringTopology builds n nodes in a ring, every link with the same attributes
func ringTopology(t *testing.T, n int, delay float64, wavelengths int) *Topology {
	t.Helper()
	topo, err := RingTopoDesc("ring", n, delay, 0.0, wavelengths).BuildTopology()
	require.NoError(t, err)
	return topo
}

// testParams returns the defaults adjusted for small deterministic scenarios
func testParams(wavelengths int) *Params {
	params := DefaultParams()
	params.Wavelengths = wavelengths
	params.FaultDelay = 0.0
	return params
}

// newTestControlPlane builds a control plane whose random streams are scripted
func newTestControlPlane(t *testing.T, topo *Topology, params *Params, accounting Accounting) *ControlPlane {
	t.Helper()
	ctx := NewSimulationContext(topo, nil, params)
	ctx.SetStream(AntStream, newScriptedStream(0.0))
	ctx.SetStream(BckgrndStream, newScriptedStream(0.0))
	return NewControlPlane(ctx, params, accounting, CreateTraceManager("test", true))
}

// drain processes evt and every event it leads to, in timestamp order, until
// nothing is left or the horizon is passed.  It returns the events processed.
func drain(t *testing.T, cp *ControlPlane, evt *Event, horizon float64) []*Event {
	t.Helper()
	pending := []*Event{}
	push := func(evt *Event) {
		if evt == nil {
			return
		}
		if evt.Kind == Multiple {
			pending = append(pending, evt.Events...)
		} else {
			pending = append(pending, evt)
		}
		sort.SliceStable(pending, func(i, j int) bool { return pending[i].Time < pending[j].Time })
	}
	push(evt)

	done := []*Event{}
	for len(pending) > 0 {
		nxt := pending[0]
		pending = pending[1:]
		if nxt.Time > horizon {
			break
		}
		res, err := cp.Process(nxt.Time, nxt)
		require.NoError(t, err)
		done = append(done, nxt)
		push(res)
	}
	return done
}

// countKind counts the processed events of a kind
func countKind(evts []*Event, kind EventKind) int {
	count := 0
	for _, evt := range evts {
		if evt.Kind == kind {
			count += 1
		}
	}
	return count
}

// entrySum adds up the levels of an entry
func entrySum(attrs []NeighborAttr) float64 {
	sum := 0.0
	for _, attr := range attrs {
		sum += attr.Level
	}
	return sum
}
