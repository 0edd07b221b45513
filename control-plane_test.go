package antrsvp

import (
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControlPlane_Establish(t *testing.T) {
	assert := assert.New(t)
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	accounting := NewMockAccounting(ctl)
	accounting.EXPECT().AddSuccessful(gomock.Any()).Do(func(msg Message) {
		sig := msg.(*SignalingMessage)
		assert.Equal(ResvMsg, sig.Header)
		assert.Equal(0, sig.Current(), "the RESV is accounted for at the source")
	}).Times(1)

	cp := newTestControlPlane(t, ringTopology(t, 4, 0.001, 1), testParams(1), accounting)
	evts := drain(t, cp, cp.NewRequest(0.0, 0, 2, 5.0), 1.0)

	require.Equal(t, 1, countKind(evts, LightpathEstablished))
	for _, evt := range evts {
		if evt.Kind == LightpathEstablished {
			assert.InDelta(0.004, evt.Time, 1e-9)
		}
	}
	conn, ok := cp.Active(0)
	require.True(t, ok)
	assert.Equal(Path{0, 1, 2}, conn.Path)
	assert.Equal(2, conn.Path.Len()-1)
	assert.Equal(0, conn.Wavelength)
	assert.InDelta(0.002, conn.Start, 1e-9)
	assert.InDelta(0.004, conn.Ready, 1e-9)

	lp, ok := cp.Lightpath(0)
	require.True(t, ok)
	assert.Equal(LightpathStateEstablished, lp.State())
	assert.Same(conn, lp.Connection)

	assert.NotEmpty(cp.trace.Traces[0], "signaling hops are traced")
}

func TestControlPlane_LinkFailureRestoration(t *testing.T) {
	assert := assert.New(t)

	col := NewCollector()
	cp := newTestControlPlane(t, ringTopology(t, 4, 0.001, 1), testParams(1), col)
	drain(t, cp, cp.NewRequest(0.0, 0, 2, 10.0), 0.5)
	original, ok := cp.Active(0)
	require.True(t, ok)
	require.Equal(t, Path{0, 1, 2}, original.Path)

	// the refresh ants take the other side of the ring
	cp.ctx.SetStream(AntStream, newScriptedStream(0.99))
	evts := drain(t, cp, newEvent(FailureLink, 1.0, EdgeFailure{A: 1, B: 2}), 1.5)

	var problem *Event
	for _, evt := range evts {
		if evt.Kind == LightpathProblem {
			problem = evt
			break
		}
	}
	require.NotNil(t, problem)
	msg := problem.Content.(*SignalingMessage)
	assert.Equal(LSPFailure, msg.Err.Code)
	assert.InDelta(1.001, problem.Time, 1e-6)

	restored, ok := cp.Restored(0)
	require.True(t, ok)
	req := restored.Request
	assert.True(req.Restoration)
	assert.InDelta(10.0-(problem.Time-original.Start), req.Duration, 1e-9)
	_, ok = cp.Disrupted(0)
	assert.False(ok, "a restored lightpath is no longer disrupted")

	assert.Equal(Path{0, 3, 2}, restored.Path)
	assert.InDelta(problem.Time+cp.params.HoldOff+0.002, restored.Start, 1e-9)
	active, _ := cp.Active(0)
	assert.Same(restored, active)

	lp, _ := cp.Lightpath(0)
	assert.Equal(LightpathStateEstablished, lp.State())
	assert.Equal(1.0, testutil.ToFloat64(col.restored))
	assert.False(cp.ctx.Topo.HasEdge(1, 2))

	// nothing is left reserved on the cut path
	node1, _ := cp.Node(1)
	link, _ := node1.Link(0)
	assert.Equal(1, link.Mask.FreeCount())
	node0, _ := cp.Node(0)
	link, _ = node0.Link(1)
	assert.Equal(1, link.Mask.FreeCount())
}

func TestControlPlane_NodeFailure(t *testing.T) {
	assert := assert.New(t)

	cp := newTestControlPlane(t, ringTopology(t, 4, 0.001, 1), testParams(1), NewCollector())
	drain(t, cp, cp.NewRequest(0.0, 0, 2, 10.0), 0.5)

	drain(t, cp, newEvent(FailureNode, 1.0, 1), 1.5)

	_, present := cp.Node(1)
	assert.False(present)
	assert.False(cp.ctx.Topo.HasNode(1))

	restored, ok := cp.Restored(0)
	require.True(t, ok)
	assert.Equal(Path{0, 3, 2}, restored.Path)
	node0, _ := cp.Node(0)
	assert.Equal([]int{3}, node0.Table().Neighbors())
}

func TestControlPlane_NoRerouting(t *testing.T) {
	assert := assert.New(t)

	col := NewCollector()
	params := testParams(1)
	params.Scope = NoRerouting
	cp := newTestControlPlane(t, ringTopology(t, 4, 0.001, 1), params, col)
	drain(t, cp, cp.NewRequest(0.0, 0, 2, 10.0), 0.5)

	evts := drain(t, cp, newEvent(FailureLink, 1.0, EdgeFailure{A: 1, B: 2}), 1.5)
	assert.Equal(1, countKind(evts, LightpathProblem))

	_, ok := cp.Disrupted(0)
	assert.False(ok)
	_, ok = cp.Active(0)
	assert.False(ok)
	lp, _ := cp.Lightpath(0)
	assert.Equal(LightpathStateFailed, lp.State())
	assert.Equal(1.0, testutil.ToFloat64(col.failed.WithLabelValues("signaling", LSPFailure.String())))
}

func TestControlPlane_Teardown(t *testing.T) {
	assert := assert.New(t)

	cp := newTestControlPlane(t, ringTopology(t, 4, 0.001, 1), testParams(1), NewCollector())
	evts := drain(t, cp, cp.NewRequest(0.0, 0, 2, 1.0), 2.0)
	assert.Equal(1, countKind(evts, LightpathRemoved))

	lp, _ := cp.Lightpath(0)
	assert.Equal(LightpathStateReleased, lp.State())

	// the same wavelength serves the next request
	drain(t, cp, cp.NewRequest(2.0, 0, 2, 1.0), 2.5)
	conn, ok := cp.Active(1)
	require.True(t, ok)
	assert.Equal(0, conn.Wavelength)
}

func TestControlPlane_Process(t *testing.T) {
	tests := []struct {
		name   string
		evt    *Event
		expect func(t *testing.T, cp *ControlPlane, res *Event, err error)
	}{
		{
			name: "unknown event kind",
			evt:  &Event{Kind: EventKind(99), Time: 0.0},
			expect: func(t *testing.T, cp *ControlPlane, res *Event, err error) {
				assert := assert.New(t)
				assert.ErrorIs(err, ErrUnknownEvent)
				assert.Nil(res)
			},
		},
		{
			name: "content does not match the kind",
			evt:  newEvent(LightpathRequested, 0.0, 5),
			expect: func(t *testing.T, cp *ControlPlane, res *Event, err error) {
				assert.ErrorIs(t, err, ErrInvalidContent)
			},
		},
		{
			name: "arrival without a message",
			evt:  newEvent(PacketArrival, 0.0, "nothing"),
			expect: func(t *testing.T, cp *ControlPlane, res *Event, err error) {
				assert.ErrorIs(t, err, ErrInvalidContent)
			},
		},
		{
			name: "ignore",
			evt:  ignoreEvent(0.0),
			expect: func(t *testing.T, cp *ControlPlane, res *Event, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				assert.Nil(res)
			},
		},
		{
			name: "failure of a link that does not exist",
			evt:  newEvent(FailureLink, 0.0, &EdgeFailure{A: 0, B: 2}),
			expect: func(t *testing.T, cp *ControlPlane, res *Event, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				assert.Nil(res)
				assert.Equal(4, len(cp.ctx.Topo.Nodes()))
			},
		},
		{
			name: "failure of a node that does not exist",
			evt:  newEvent(FailureNode, 0.0, 17),
			expect: func(t *testing.T, cp *ControlPlane, res *Event, err error) {
				assert := assert.New(t)
				assert.NoError(err)
				assert.Nil(res)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cp := newTestControlPlane(t, ringTopology(t, 4, 0.001, 1), testParams(1), NewCollector())
			res, err := cp.Process(tc.evt.Time, tc.evt)
			tc.expect(t, cp, res, err)
		})
	}
}

func TestControlPlane_RequestWithoutRoute(t *testing.T) {
	tests := []struct {
		name           string
		source, target int
	}{
		{name: "source is the target", source: 1, target: 1},
		{name: "unknown target", source: 1, target: 12},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)
			ctl := gomock.NewController(t)
			defer ctl.Finish()

			accounting := NewMockAccounting(ctl)
			accounting.EXPECT().AddFailed(gomock.Any()).Times(1)
			cp := newTestControlPlane(t, ringTopology(t, 4, 0.001, 1), testParams(1), accounting)

			res, err := cp.Process(0.0, cp.NewRequest(0.0, tc.source, tc.target, 1.0))
			assert.NoError(err)
			assert.Nil(res)
			lp, _ := cp.Lightpath(0)
			assert.Equal(LightpathStateFailed, lp.State())
		})
	}
}

func TestControlPlane_Blocking(t *testing.T) {
	assert := assert.New(t)

	col := NewCollector()
	cp := newTestControlPlane(t, lineTopology(t, 3, 0.001, 1), testParams(1), col)
	drain(t, cp, cp.NewRequest(0.0, 0, 2, 10.0), 0.5)
	drain(t, cp, cp.NewRequest(1.0, 0, 2, 10.0), 1.5)

	sum := col.Summary()
	assert.Equal(1, sum.Established)
	assert.Equal(1, sum.Blocked)
	assert.Equal(0.5, sum.Blocking)
	assert.Equal(1.0, testutil.ToFloat64(col.failed.WithLabelValues("signaling", LabelSetExhausted.String())))
}

func TestControlPlane_ResvCutShort(t *testing.T) {
	assert := assert.New(t)

	// the PATH has passed node 1 when 0-1 fails; the RESV then finds no way back
	col := NewCollector()
	cp := newTestControlPlane(t, ringTopology(t, 4, 0.001, 1), testParams(1), col)
	evts := drain(t, cp, multipleEvent(0.0,
		cp.NewRequest(0.0, 0, 2, 10.0),
		newEvent(FailureLink, 0.0025, EdgeFailure{A: 0, B: 1})), 0.5)

	require.Equal(t, 1, countKind(evts, LightpathProblem))
	assert.Equal(0, countKind(evts, LightpathEstablished))

	lp, _ := cp.Lightpath(0)
	assert.Equal(LightpathStateFailed, lp.State())
	_, ok := cp.Active(0)
	assert.False(ok)

	sum := col.Summary()
	assert.Equal(0, sum.Established)
	assert.Equal(1, sum.Blocked)
	assert.Equal(1.0, testutil.ToFloat64(col.failed.WithLabelValues("signaling", NoRouteAvailable.String())))

	// what the RESV reserved on its way is given back
	node1, _ := cp.Node(1)
	link, _ := node1.Link(2)
	assert.Equal(1, link.Mask.FreeCount())
	_, held := node1.ActiveConnection(0)
	assert.False(held)
	node2, _ := cp.Node(2)
	_, held = node2.ActiveConnection(0)
	assert.False(held)
}

func TestControlPlane_HoldOffBurst(t *testing.T) {
	tests := []struct {
		name    string
		holdOff float64
		antRate float64
		ants    int
	}{
		{"default rate", 0.01, 1000.0, 10},
		{"product not exact in floating point", 0.29, 100.0, 29},
		{"no ants", 0.05, 0.0, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)
			params := testParams(1)
			params.HoldOff = tc.holdOff
			params.AntRate = tc.antRate
			cp := newTestControlPlane(t, ringTopology(t, 4, 0.001, 1), params, NewCollector())
			_, err := cp.Process(0.0, cp.NewRequest(0.0, 0, 2, 1.0))
			require.NoError(t, err)
			lp, ok := cp.Lightpath(0)
			require.True(t, ok)

			res := cp.holdOffResend(1.0, lp)
			require.NotNil(t, res)
			evts := []*Event{res}
			if res.Kind == Multiple {
				evts = res.Events
			}
			require.Len(t, evts, tc.ants+1)

			path := evts[0].Content.(*SignalingMessage)
			assert.Equal(PathMsg, path.Header)
			assert.True(path.Restoration)
			assert.InDelta(1.0+tc.holdOff, evts[0].Time, 1e-12)

			for idx, evt := range evts[1:] {
				ant := evt.Content.(*Ant)
				assert.Equal(0, ant.Source)
				assert.Equal(2, ant.Target)
				assert.InDelta(1.0+float64(idx)*tc.holdOff/float64(tc.ants), evt.Time, 1e-12)
			}
		})
	}
}

func TestControlPlane_DepartedNodesForgotten(t *testing.T) {
	tests := []struct {
		name    string
		variant NodeVariant
		topo    func(t *testing.T) *Topology
		evt     *Event
		node    int
		gone    int
		dests   []int
	}{
		{
			name:    "node failure",
			variant: AntNetNodeVariant,
			topo:    func(t *testing.T) *Topology { return ringTopology(t, 4, 0.001, 1) },
			evt:     newEvent(FailureNode, 1.0, 3),
			node:    1,
			gone:    3,
			dests:   []int{0, 2},
		},
		{
			name:    "crankback prunes a node left without links",
			variant: CrankbackNodeVariant,
			topo:    func(t *testing.T) *Topology { return lineTopology(t, 3, 0.001, 1) },
			evt:     newEvent(FailureLink, 1.0, EdgeFailure{A: 1, B: 2}),
			node:    0,
			gone:    2,
			dests:   []int{1},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)
			params := testParams(1)
			params.Variant = tc.variant
			cp := newTestControlPlane(t, tc.topo(t), params, NewCollector())
			drain(t, cp, tc.evt, 2.0)

			node, ok := cp.Node(tc.node)
			require.True(t, ok)
			assert.Equal(tc.dests, node.Table().Destinations())
			_, present := node.Model().View(tc.gone)
			assert.False(present)
			assert.False(cp.ctx.Topo.HasNode(tc.gone))
			for _, dest := range cp.ctx.Topo.Nodes() {
				if dest != tc.node {
					_, present := node.Model().View(dest)
					assert.True(present)
				}
			}
			assert.Len(cp.ctx.Topo.Nodes(), len(tc.dests)+1)
		})
	}
}
