package antrsvp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessFailure(t *testing.T) {
	tests := []struct {
		name   string
		topo   func(t *testing.T) *Topology
		node   int
		notice *LinkFailure
		expect func(t *testing.T, node NodeProcessor, res *Event)
	}{
		{
			name:   "end point drops the link and floods the notice",
			topo:   func(t *testing.T) *Topology { return ringTopology(t, 4, 0.001, 2) },
			node:   1,
			notice: newLinkFailure(7, 1, 2, 1, -1),
			expect: func(t *testing.T, node NodeProcessor, res *Event) {
				assert := assert.New(t)
				require.NotNil(t, res)
				assert.Equal(PacketArrival, res.Kind)
				assert.InDelta(0.001, res.Time, 1e-12)
				fwd := res.Content.(*LinkFailure)
				assert.Equal(0, fwd.Current())
				assert.Equal(1, fwd.From)
				assert.Equal(7, fwd.FailureID)

				_, linked := node.Link(2)
				assert.False(linked)
				assert.Equal([]int{0}, node.Table().Neighbors())
			},
		},
		{
			name:   "other nodes pass it on to everyone but the sender",
			topo:   func(t *testing.T) *Topology { return ringTopology(t, 4, 0.001, 2) },
			node:   3,
			notice: newLinkFailure(7, 1, 2, 3, 2),
			expect: func(t *testing.T, node NodeProcessor, res *Event) {
				assert := assert.New(t)
				require.NotNil(t, res)
				assert.Equal(PacketArrival, res.Kind)
				assert.Equal(0, res.Content.(*LinkFailure).Current())
				assert.Equal([]int{0, 2}, node.Table().Neighbors())
			},
		},
		{
			name:   "nothing left to flood to",
			topo:   func(t *testing.T) *Topology { return lineTopology(t, 2, 0.001, 2) },
			node:   0,
			notice: newLinkFailure(3, 0, 1, 0, -1),
			expect: func(t *testing.T, node NodeProcessor, res *Event) {
				assert := assert.New(t)
				require.NotNil(t, res)
				assert.Equal(Ignore, res.Kind)
				assert.Empty(node.Table().Neighbors())
			},
		},
		{
			name: "a node that left the network is forgotten as a destination",
			topo: func(t *testing.T) *Topology { return ringTopology(t, 4, 0.001, 2) },
			node: 3,
			notice: func() *LinkFailure {
				lf := newLinkFailure(8, 0, 1, 3, 0)
				lf.Gone = []int{1}
				return lf
			}(),
			expect: func(t *testing.T, node NodeProcessor, res *Event) {
				assert := assert.New(t)
				require.NotNil(t, res)
				fwd := res.Content.(*LinkFailure)
				assert.Equal([]int{1}, fwd.Gone)

				assert.Equal([]int{0, 2}, node.Table().Destinations())
				_, present := node.Model().View(1)
				assert.False(present)
				assert.Equal([]int{2}, node.Usage().Destinations())
				assert.Equal([]int{1, 0}, node.Usage().Aggregate())
				assert.Equal([]int{0, 1}, node.Usage().Ranking(true))
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			params := testParams(2)
			ctx := NewSimulationContext(tc.topo(t), nil, params)
			node := NewNodeProcessor(ctx, params, tc.node)
			node.Usage().Update(1, []int{0, 3})
			node.Usage().Update(2, []int{1, 0})
			tc.expect(t, node, node.ProcessFailure(0.0, tc.notice))
		})
	}
}

func TestProcessFailure_SeenOnce(t *testing.T) {
	assert := assert.New(t)

	params := testParams(2)
	ctx := NewSimulationContext(ringTopology(t, 4, 0.001, 2), nil, params)
	node := NewNodeProcessor(ctx, params, 3)

	first := node.ProcessFailure(0.0, newLinkFailure(4, 1, 2, 3, 2))
	assert.Equal(PacketArrival, first.Kind)
	again := node.ProcessFailure(0.5, newLinkFailure(4, 1, 2, 3, 0))
	assert.Equal(Ignore, again.Kind)
	other := node.ProcessFailure(0.5, newLinkFailure(5, 0, 1, 3, 0))
	assert.Equal(PacketArrival, other.Kind, "a new failure id is flooded again")
}

func TestProcessFailure_DisruptsConnections(t *testing.T) {
	assert := assert.New(t)

	cp := newTestControlPlane(t, lineTopology(t, 3, 0.001, 2), testParams(2), NewCollector())
	drain(t, cp, cp.NewRequest(0.0, 0, 2, 5.0), 1.0)
	conn, ok := cp.Active(0)
	require.True(t, ok)

	// the upstream end point of 1-2 reports back to the source
	node1, _ := cp.Node(1)
	res := node1.ProcessFailure(1.0, newLinkFailure(0, 1, 2, 1, -1))
	require.NotNil(t, res)
	require.Equal(t, Multiple, res.Kind)

	var pathErr *SignalingMessage
	for _, sub := range res.Events {
		if msg, ok := sub.Content.(*SignalingMessage); ok {
			pathErr = msg
			assert.Greater(sub.Time, 1.001)
		}
	}
	require.NotNil(t, pathErr)
	assert.Equal(PathErrMsg, pathErr.Header)
	assert.Equal(LSPFailure, pathErr.Err.Code)
	assert.True(pathErr.Err.RemovePath)
	assert.Equal(0, pathErr.Current())
	assert.Same(conn, pathErr.Connection)
	_, ok = node1.ActiveConnection(0)
	assert.False(ok)

	// the downstream end point tears down toward the target, here itself
	node2, _ := cp.Node(2)
	res = node2.ProcessFailure(1.0, newLinkFailure(0, 1, 2, 2, -1))
	require.NotNil(t, res)
	require.Equal(t, LightpathRemoved, res.Kind)
	tear := res.Content.(*SignalingMessage)
	assert.Equal(PathTearMsg, tear.Header)
	assert.Equal(LSPFailure, tear.Err.Code)
}
