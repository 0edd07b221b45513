package antrsvp

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lineTopology builds n nodes joined in a line 0-1-...-(n-1)
func lineTopology(t *testing.T, n int, delay float64, wavelengths int) *Topology {
	t.Helper()
	td := CreateTopoDesc("line")
	for id := 0; id < n; id++ {
		td.AddNode(id, "")
	}
	for id := 0; id+1 < n; id++ {
		td.AddLink(id, id+1, delay, 0.0, wavelengths)
	}
	topo, err := td.BuildTopology()
	require.NoError(t, err)
	return topo
}

func TestProcessAnt_RoundTrip(t *testing.T) {
	assert := assert.New(t)

	col := NewCollector()
	cp := newTestControlPlane(t, ringTopology(t, 4, 0.001, 2), testParams(2), col)

	drain(t, cp, cp.LaunchAnt(0.0, 0, 2), 1.0)
	assert.Equal(1.0, testutil.ToFloat64(col.succeeded.WithLabelValues("ant")))

	node0, _ := cp.Node(0)
	level, _ := node0.Table().Level(2, 1)
	assert.Greater(level, 0.5, "the source learned the route through 1")
	other, _ := node0.Table().Level(2, 3)
	assert.Less(other, 0.5)
	assert.InDelta(1.0, entrySum(node0.Table().Entry(2)), 1e-12)

	node1, _ := cp.Node(1)
	level, _ = node1.Table().Level(2, 2)
	assert.Greater(level, 0.5)

	view, _ := node0.Model().View(2)
	assert.Equal(1, view.Samples)
	assert.InDelta(0.002, view.Mean, 1e-9)

	link, _ := node0.Link(1)
	assert.Greater(link.Bytes, int64(0), "ant bytes are charged to the links crossed")
}

func TestProcessAnt_HopLimit(t *testing.T) {
	assert := assert.New(t)

	col := NewCollector()
	params := testParams(2)
	params.HopLimit = 1
	cp := newTestControlPlane(t, ringTopology(t, 6, 0.001, 2), params, col)

	drain(t, cp, cp.LaunchAnt(0.0, 0, 3), 1.0)
	assert.Equal(0.0, testutil.ToFloat64(col.succeeded.WithLabelValues("ant")))
	assert.Equal(1.0, testutil.ToFloat64(col.failed.WithLabelValues("ant", "killed")))
}

func TestProcessAnt_IsolatedSource(t *testing.T) {
	assert := assert.New(t)

	col := NewCollector()
	topo := lineTopology(t, 2, 0.001, 2)
	topo.AddNode(5, "lonely")
	cp := newTestControlPlane(t, topo, testParams(2), col)

	drain(t, cp, cp.LaunchAnt(0.0, 5, 0), 1.0)
	assert.Equal(1.0, testutil.ToFloat64(col.failed.WithLabelValues("ant", "killed")))
}

func TestProcessAnt_CollectsUsage(t *testing.T) {
	assert := assert.New(t)

	params := testParams(4)
	params.Variant = CrankbackNodeVariant
	cp := newTestControlPlane(t, lineTopology(t, 3, 0.001, 4), params, NewCollector())

	node0, _ := cp.Node(0)
	link, _ := node0.Link(1)
	assert.True(link.allocate(1))

	drain(t, cp, cp.LaunchAnt(0.0, 0, 2), 1.0)

	usage, ok := node0.Usage().Usage(2)
	assert.True(ok)
	assert.Equal([]int{0, 1, 0, 0}, usage)

	node1, _ := cp.Node(1)
	_, ok = node1.Usage().Usage(2)
	assert.False(ok, "only the source learns the occupancy")
}
