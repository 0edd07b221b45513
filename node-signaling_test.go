package antrsvp

import (
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessSignaling_LabelSetExhausted(t *testing.T) {
	assert := assert.New(t)
	ctl := gomock.NewController(t)
	defer ctl.Finish()

	accounting := NewMockAccounting(ctl)
	var failed *SignalingMessage
	accounting.EXPECT().AddFailed(gomock.Any()).Do(func(msg Message) {
		failed = msg.(*SignalingMessage)
	}).Times(1)

	cp := newTestControlPlane(t, lineTopology(t, 3, 0.001, 1), testParams(1), accounting)
	node1, _ := cp.Node(1)
	link, _ := node1.Link(2)
	require.True(t, link.allocate(0))

	drain(t, cp, cp.NewRequest(0.0, 0, 2, 1.0), 1.0)

	require.NotNil(t, failed)
	assert.Equal(PathErrMsg, failed.Header)
	assert.Equal(LabelSetExhausted, failed.Err.Code)
	lp, _ := cp.Lightpath(failed.FlowLabel)
	assert.Equal(LightpathStateFailed, lp.State())
}

func TestProcessSignaling_AdmissionControl(t *testing.T) {
	assert := assert.New(t)

	col := NewCollector()
	cp := newTestControlPlane(t, lineTopology(t, 3, 0.001, 2), testParams(2), col)

	// walk the PATH to the target; its RESV is then on the way to node 1
	evt := cp.NewRequest(0.0, 0, 2, 5.0)
	var err error
	for idx := 0; idx < 4; idx++ {
		evt, err = cp.Process(evt.Time, evt)
		require.NoError(t, err)
		require.Equal(t, PacketArrival, evt.Kind)
	}
	resv := evt.Content.(*SignalingMessage)
	require.Equal(t, ResvMsg, resv.Header)
	require.Equal(t, 1, resv.Current())
	require.Equal(t, 0, resv.Connection.Wavelength)

	// someone else takes the wavelength meanwhile
	node1, _ := cp.Node(1)
	link, _ := node1.Link(2)
	require.True(t, link.allocate(0))

	res, err := cp.Process(evt.Time, evt)
	require.NoError(t, err)
	require.Equal(t, Multiple, res.Kind)
	require.Len(t, res.Events, 2)
	headers := []Header{}
	for _, sub := range res.Events {
		headers = append(headers, sub.Content.(*SignalingMessage).Header)
	}
	assert.ElementsMatch([]Header{ResvErrMsg, PathErrMsg}, headers)

	drain(t, cp, res, 1.0)

	conn, ok := cp.Active(resv.FlowLabel)
	require.True(t, ok, "the source tried again")
	assert.Equal(1, conn.Wavelength)
	lp, _ := cp.Lightpath(resv.FlowLabel)
	assert.Equal(1, lp.Tries)
	assert.Equal(LightpathStateEstablished, lp.State())

	node2, _ := cp.Node(2)
	active, ok := node2.ActiveConnection(resv.FlowLabel)
	assert.True(ok)
	assert.Same(conn, active)
}

func TestProcessSignaling_Teardown(t *testing.T) {
	assert := assert.New(t)

	col := NewCollector()
	cp := newTestControlPlane(t, lineTopology(t, 3, 0.001, 2), testParams(2), col)

	evts := drain(t, cp, cp.NewRequest(0.0, 0, 2, 1.0), 5.0)
	assert.Equal(1, countKind(evts, LightpathEstablished))
	assert.Equal(1, countKind(evts, LightpathTeardown))
	assert.Equal(1, countKind(evts, LightpathRemoved))

	_, ok := cp.Active(0)
	assert.False(ok)
	lp, _ := cp.Lightpath(0)
	assert.Equal(LightpathStateReleased, lp.State())
	for _, lu := range cp.LinkUsage() {
		assert.Equal(0, lu.Used, "link %d-%d", lu.Node, lu.Neighbor)
	}
	for _, id := range []int{0, 1, 2} {
		node, _ := cp.Node(id)
		_, ok := node.ActiveConnection(0)
		assert.False(ok, "node %d", id)
	}
}

func TestProcessSignaling_ReservesDownstreamLinks(t *testing.T) {
	assert := assert.New(t)

	cp := newTestControlPlane(t, lineTopology(t, 3, 0.001, 2), testParams(2), NewCollector())
	drain(t, cp, cp.NewRequest(0.0, 0, 2, 5.0), 1.0)

	used := map[[2]int]int{}
	for _, lu := range cp.LinkUsage() {
		used[[2]int{lu.Node, lu.Neighbor}] = lu.Used
	}
	assert.Equal(1, used[[2]int{0, 1}])
	assert.Equal(1, used[[2]int{1, 2}])
	assert.Equal(0, used[[2]int{1, 0}])
	assert.Equal(0, used[[2]int{2, 1}])
}
