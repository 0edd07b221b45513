package antrsvp

// control-plane.go holds the dispatcher every event goes through.  It owns
// the node processors and the lifecycle record of every lightpath.  Packet
// arrivals go to the node the packet is at; LIGHTPATH_* events are the
// nodes telling the control plane how a reservation ended, and failure
// events change the topology.  Process never schedules anything itself:
// it returns the follow-up event, with absolute timestamps, for the
// scheduler to enqueue.

import (
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/exp/slices"
)

// ControlPlane dispatches events to node processors and tracks lightpaths
type ControlPlane struct {
	ctx        *SimulationContext
	params     *Params
	accounting Accounting
	trace      *TraceManager
	log        *slog.Logger

	nodes      map[int]NodeProcessor
	lightpaths map[int]*Lightpath        // every flow label ever issued
	active     map[int]*Connection       // established lightpaths
	disrupted  map[int]*LightpathRequest // restoration requests of lightpaths cut by a failure
	restored   map[int]*Connection       // lightpaths re-established after a failure

	nxtFlowLabel int
	nxtFailureID int
	nxtAntID     int
	nxtRequestID int
}

// NewControlPlane creates a node processor for every node of the topology
func NewControlPlane(ctx *SimulationContext, params *Params, accounting Accounting, trace *TraceManager) *ControlPlane {
	cp := &ControlPlane{ctx: ctx, params: params, accounting: accounting, trace: trace,
		log: ctx.Log.With("component", "control-plane"),
		nodes: make(map[int]NodeProcessor), lightpaths: make(map[int]*Lightpath),
		active: make(map[int]*Connection), disrupted: make(map[int]*LightpathRequest),
		restored: make(map[int]*Connection)}

	for _, id := range ctx.Topo.Nodes() {
		cp.nodes[id] = NewNodeProcessor(ctx, params, id)
		if err := trace.AddName(id, ctx.Topo.Name(id), "node"); err != nil {
			cp.log.Warn("trace dictionary", "error", err)
		}
	}
	return cp
}

// Accounting returns the collaborator outcomes are reported to
func (cp *ControlPlane) Accounting() Accounting {
	return cp.accounting
}

// Node returns the processor of a node still in the network
func (cp *ControlPlane) Node(id int) (NodeProcessor, bool) {
	node, present := cp.nodes[id]
	return node, present
}

// Lightpath returns the record of a flow label
func (cp *ControlPlane) Lightpath(flowLabel int) (*Lightpath, bool) {
	lp, present := cp.lightpaths[flowLabel]
	return lp, present
}

// Active returns the established connection of a flow label
func (cp *ControlPlane) Active(flowLabel int) (*Connection, bool) {
	conn, present := cp.active[flowLabel]
	return conn, present
}

// Disrupted returns the pending restoration request of a flow label cut by a failure
func (cp *ControlPlane) Disrupted(flowLabel int) (*LightpathRequest, bool) {
	req, present := cp.disrupted[flowLabel]
	return req, present
}

// Restored returns the connection that replaced a lightpath cut by a failure
func (cp *ControlPlane) Restored(flowLabel int) (*Connection, bool) {
	conn, present := cp.restored[flowLabel]
	return conn, present
}

// LinkUsage snapshots every link of every node, in node order
func (cp *ControlPlane) LinkUsage() []LinkUsage {
	rtn := []LinkUsage{}
	for _, id := range cp.ctx.Topo.Nodes() {
		if node, present := cp.nodes[id]; present {
			rtn = append(rtn, node.LinkUsage()...)
		}
	}
	return rtn
}

// NewRequest builds the LIGHTPATH_REQUEST event of a demand arriving at now
func (cp *ControlPlane) NewRequest(now float64, source, target int, duration float64) *Event {
	req := &LightpathRequest{ID: cp.nxtRequestID, Source: source, Target: target,
		Arrival: now, Duration: duration}
	cp.nxtRequestID += 1
	return newEvent(LightpathRequested, now, req)
}

// LaunchAnt builds the arrival of a new forward ant at its source
func (cp *ControlPlane) LaunchAnt(now float64, source, target int) *Event {
	ant := NewAnt(cp.nxtAntID, source, target, now, cp.params.HopLimit,
		cp.params.AntBaseBytes, cp.params.BytesPerHop)
	cp.nxtAntID += 1
	if cp.params.Variant == CrankbackNodeVariant {
		ant.Usage = make([]int, cp.params.Wavelengths)
	}
	return arrivalEvent(now, ant)
}

// Process handles one event and returns the follow-up, nil when there is none.
// An error is returned for event kinds it has no handler for and for events
// whose content does not match their kind.
func (cp *ControlPlane) Process(now float64, evt *Event) (*Event, error) {
	switch evt.Kind {
	case PacketArrival:
		return cp.packetArrival(now, evt)

	case LightpathRequested:
		req, ok := evt.Content.(*LightpathRequest)
		if !ok {
			return nil, cp.invalid(evt)
		}
		return cp.request(now, req), nil

	case LightpathEstablished, LightpathProblem, LightpathRemoved:
		msg, ok := evt.Content.(*SignalingMessage)
		if !ok {
			return nil, cp.invalid(evt)
		}
		switch evt.Kind {
		case LightpathEstablished:
			return cp.established(now, msg), nil
		case LightpathProblem:
			return cp.problem(now, msg), nil
		}
		return cp.removed(now, msg), nil

	case LightpathTeardown:
		conn, ok := evt.Content.(*Connection)
		if !ok {
			return nil, cp.invalid(evt)
		}
		return cp.teardown(now, conn), nil

	case FailureLink:
		var ef EdgeFailure
		switch content := evt.Content.(type) {
		case EdgeFailure:
			ef = content
		case *EdgeFailure:
			ef = *content
		default:
			return nil, cp.invalid(evt)
		}
		return cp.failLink(now, ef.A, ef.B), nil

	case FailureNode:
		id, ok := evt.Content.(int)
		if !ok {
			return nil, cp.invalid(evt)
		}
		return cp.failNode(now, id), nil

	case AntRouted, AntKilled, Ignore, Multiple:
		return cp.interpret(now, evt), nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownEvent, evt.Kind)
}

func (cp *ControlPlane) invalid(evt *Event) error {
	return fmt.Errorf("%w: %v carries %T", ErrInvalidContent, evt.Kind, evt.Content)
}

// interpret consumes the outcome events a node produced (ant fates, IGNORE) and
// returns what remains to be scheduled
func (cp *ControlPlane) interpret(now float64, res *Event) *Event {
	if res == nil {
		return nil
	}
	switch res.Kind {
	case AntRouted, AntKilled:
		msg, ok := res.Content.(Message)
		if !ok {
			return nil
		}
		if res.Kind == AntRouted {
			cp.accounting.AddSuccessful(msg)
		} else {
			cp.accounting.AddFailed(msg)
		}
		return nil
	case Ignore:
		return nil
	case Multiple:
		kept := []*Event{}
		for _, sub := range res.Events {
			if nxt := cp.interpret(now, sub); nxt != nil {
				kept = append(kept, nxt)
			}
		}
		return multipleEvent(now, kept...)
	}
	return res
}

func (cp *ControlPlane) packetArrival(now float64, evt *Event) (*Event, error) {
	msg, ok := evt.Content.(Message)
	if !ok {
		return nil, cp.invalid(evt)
	}
	nodeID := msg.Base().Current()
	node, present := cp.nodes[nodeID]
	if !present {
		cp.dropped(now, msg, nodeID)
		return nil, nil
	}

	var res *Event
	switch m := msg.(type) {
	case *Ant:
		res = node.ProcessAnt(now, m)
	case *SignalingMessage:
		AddSignalTrace(cp.trace, now, m, nodeID, "arrive")
		res = node.ProcessSignaling(now, m)
	case *LinkFailure:
		res = node.ProcessFailure(now, m)
	default:
		return nil, cp.invalid(evt)
	}
	return cp.interpret(now, res), nil
}

// dropped accounts for a message that reached a node no longer in the network
func (cp *ControlPlane) dropped(now float64, msg Message, nodeID int) {
	cp.log.Warn("message dropped at removed node", "node", nodeID, "kind", msg.Kind(), "time", now)
	switch m := msg.(type) {
	case *Ant:
		cp.accounting.AddFailed(m)
	case *SignalingMessage:
		if m.Header != PathMsg && m.Header != ResvMsg {
			return
		}
		if lp, present := cp.lightpaths[m.FlowLabel]; present && lp.State() == LightpathStatePending {
			m.Err = &SignalingError{Code: NoRouteAvailable}
			cp.giveUp(now, lp, m)
		}
	}
}

// pathMessage builds the PATH of a reservation attempt for the flow
func (cp *ControlPlane) pathMessage(req *LightpathRequest, flowLabel int, restoration bool) *SignalingMessage {
	msg := &SignalingMessage{Packet: newPacket(req.Source, req.Target, cp.params.HopLimit),
		FlowLabel: flowLabel, Header: PathMsg, Request: req, Restoration: restoration}
	if cp.params.Variant == CrankbackNodeVariant {
		msg.Labels = FullLabelSet(cp.params.Wavelengths)
	} else {
		msg.Mask = NewWavelengthMask(cp.params.Wavelengths)
	}
	return msg
}

func (cp *ControlPlane) request(now float64, req *LightpathRequest) *Event {
	flowLabel := cp.nxtFlowLabel
	cp.nxtFlowLabel += 1
	lp := newLightpath(flowLabel, req, cp.log)
	cp.lightpaths[flowLabel] = lp

	msg := cp.pathMessage(req, flowLabel, req.Restoration)
	_, srcPresent := cp.nodes[req.Source]
	_, dstPresent := cp.nodes[req.Target]
	if req.Source == req.Target || !srcPresent || !dstPresent {
		msg.Err = &SignalingError{Code: NoRouteAvailable}
		return cp.giveUp(now, lp, msg)
	}
	return arrivalEvent(now, msg)
}

func (cp *ControlPlane) established(now float64, msg *SignalingMessage) *Event {
	lp, present := cp.lightpaths[msg.FlowLabel]
	if !present || msg.Connection == nil {
		cp.log.Error("established lightpath of unknown flow", "flow", msg.FlowLabel)
		return nil
	}
	conn := msg.Connection
	conn.Ready = now
	lp.Connection = conn
	cp.active[msg.FlowLabel] = conn
	cp.accounting.AddSuccessful(msg)
	if msg.Restoration {
		cp.restored[msg.FlowLabel] = conn
		delete(cp.disrupted, msg.FlowLabel)
	}
	lp.transition(LightpathEventEstablish)
	AddSignalTrace(cp.trace, now, msg, msg.Source, "established")
	if sp, _, ok := cp.ctx.Topo.ShortestPath(lp.Request.Source, lp.Request.Target); ok {
		cp.log.Debug("lightpath established", "flow", msg.FlowLabel, "hops", len(conn.Path)-1,
			"shortest", len(sp)-1, "wavelength", conn.Wavelength)
	}

	return newEvent(LightpathTeardown, now+lp.Request.Duration, conn)
}

func (cp *ControlPlane) problem(now float64, msg *SignalingMessage) *Event {
	lp, present := cp.lightpaths[msg.FlowLabel]
	if !present {
		cp.log.Error("problem with unknown flow", "flow", msg.FlowLabel)
		return nil
	}
	code := NoError
	if msg.Err != nil {
		code = msg.Err.Code
	}
	AddSignalTrace(cp.trace, now, msg, msg.Source, "problem")
	_, isDisrupted := cp.disrupted[msg.FlowLabel]

	switch code {
	case AdmissionControlFailure:
		// the route was fine, the wavelength was taken meanwhile: try again at once
		lp.Tries += 1
		if lp.Tries >= cp.params.MaxTries {
			return cp.giveUp(now, lp, msg)
		}
		return arrivalEvent(now, cp.pathMessage(lp.Request, lp.FlowLabel, isDisrupted))

	case NoRouteAvailable, LabelSetExhausted:
		lp.Tries += 1
		if lp.Tries < cp.params.MaxTries && isDisrupted && cp.params.Scope == EndToEndRerouting {
			return cp.holdOffResend(now, lp)
		}
		return cp.giveUp(now, lp, msg)

	case LSPFailure:
		return cp.disrupt(now, lp, msg)
	}
	return cp.giveUp(now, lp, msg)
}

// disrupt handles a lightpath cut by a failure.  The remaining holding time
// becomes a restoration request, sent after the hold-off unless rerouting is off.
func (cp *ControlPlane) disrupt(now float64, lp *Lightpath, msg *SignalingMessage) *Event {
	conn := msg.Connection
	if conn == nil || lp.Connection != conn {
		return nil
	}
	lp.Tries = 0
	delete(cp.active, lp.FlowLabel)
	lp.transition(LightpathEventDisrupt)

	residual := lp.Request.Duration - (now - conn.Start)
	if residual <= 0.0 {
		lp.transition(LightpathEventRelease)
		return nil
	}
	restoration := &LightpathRequest{ID: lp.Request.ID, Source: lp.Request.Source,
		Target: lp.Request.Target, Arrival: now, Duration: residual, Restoration: true}
	lp.Request = restoration
	cp.disrupted[lp.FlowLabel] = restoration

	if cp.params.Scope == NoRerouting {
		return cp.giveUp(now, lp, msg)
	}
	return cp.holdOffResend(now, lp)
}

// holdOffResend sends the PATH again after the hold-off, preceded by a burst of
// ants, evenly spaced over the hold-off, to refresh the pheromone tables
func (cp *ControlPlane) holdOffResend(now float64, lp *Lightpath) *Event {
	msg := cp.pathMessage(lp.Request, lp.FlowLabel, true)
	evts := []*Event{arrivalEvent(now+cp.params.HoldOff, msg)}

	ants := int(math.Round(cp.params.HoldOff * cp.params.AntRate))
	for idx := 0; idx < ants; idx++ {
		t := now + float64(idx)*cp.params.HoldOff/float64(ants)
		evts = append(evts, cp.LaunchAnt(t, lp.Request.Source, lp.Request.Target))
	}
	cp.log.Debug("reservation resent after hold-off", "flow", lp.FlowLabel, "ants", ants, "tries", lp.Tries)
	return multipleEvent(now, evts...)
}

// giveUp reports a lightpath that will not be established
func (cp *ControlPlane) giveUp(now float64, lp *Lightpath, msg *SignalingMessage) *Event {
	cp.accounting.AddFailed(msg)
	lp.transition(LightpathEventFail)
	delete(cp.disrupted, lp.FlowLabel)
	return nil
}

func (cp *ControlPlane) teardown(now float64, conn *Connection) *Event {
	if cur, present := cp.active[conn.FlowLabel]; !present || cur != conn {
		// superseded by a restoration, or already cut by a failure
		return nil
	}
	return arrivalEvent(now, newTearMessage(conn, PathTearMsg, 0))
}

func (cp *ControlPlane) removed(now float64, msg *SignalingMessage) *Event {
	AddSignalTrace(cp.trace, now, msg, msg.Target, "removed")
	if msg.Err != nil && msg.Err.Code == LSPFailure {
		// the matching PATH_ERR drives restoration
		return nil
	}
	if cur, present := cp.active[msg.FlowLabel]; !present || cur != msg.Connection {
		return nil
	}
	delete(cp.active, msg.FlowLabel)
	delete(cp.disrupted, msg.FlowLabel)
	delete(cp.restored, msg.FlowLabel)
	if lp, present := cp.lightpaths[msg.FlowLabel]; present {
		lp.transition(LightpathEventRelease)
	}
	return nil
}

// failLink cuts the link a-b and schedules the notices to its end points
func (cp *ControlPlane) failLink(now float64, a, b int) *Event {
	topo := cp.ctx.Topo
	if !topo.HasNode(a) || !topo.HasNode(b) || !topo.HasEdge(a, b) {
		return nil
	}
	failureID, gone := cp.cutLink(a, b)
	return cp.notifyFailure(now, failureID, a, b, gone)
}

// failNode cuts every link of the node, then removes it
func (cp *ControlPlane) failNode(now float64, id int) *Event {
	topo := cp.ctx.Topo
	if !topo.HasNode(id) {
		return nil
	}
	type cut struct {
		failureID, a, b int
		gone            []int
	}
	cuts := []cut{}
	for _, nbr := range topo.Neighbors(id) {
		failureID, gone := cp.cutLink(id, nbr)
		if !slices.Contains(gone, id) {
			gone = append(gone, id)
		}
		cuts = append(cuts, cut{failureID: failureID, a: id, b: nbr, gone: gone})
	}
	if topo.HasNode(id) {
		topo.RemoveNode(id)
	}
	delete(cp.nodes, id)
	cp.log.Info("node failed", "node", id, "links", len(cuts))

	evts := []*Event{}
	for _, c := range cuts {
		evts = append(evts, cp.notifyFailure(now, c.failureID, c.a, c.b, c.gone))
	}
	return multipleEvent(now, evts...)
}

// cutLink removes the edge from the topology and returns the failure id given to it.
// The crankback variant also prunes end points left without links; those are
// returned as gone.
func (cp *ControlPlane) cutLink(a, b int) (int, []int) {
	topo := cp.ctx.Topo
	topo.RemoveEdge(a, b)
	failureID := cp.nxtFailureID
	cp.nxtFailureID += 1
	cp.log.Info("link failed", "a", a, "b", b, "failure", failureID)

	gone := []int{}
	if cp.params.Variant == CrankbackNodeVariant {
		for _, end := range []int{a, b} {
			if topo.HasNode(end) && topo.Degree(end) == 0 {
				topo.RemoveNode(end)
				delete(cp.nodes, end)
				gone = append(gone, end)
			}
		}
	}
	return failureID, gone
}

// notifyFailure tells the surviving end points of a-b, after the fault localization delay.
// The notice names the nodes that left the network along with the link.
func (cp *ControlPlane) notifyFailure(now float64, failureID, a, b int, gone []int) *Event {
	evts := []*Event{}
	for _, end := range []int{a, b} {
		if _, present := cp.nodes[end]; present {
			lf := newLinkFailure(failureID, a, b, end, -1)
			lf.Gone = gone
			evts = append(evts, arrivalEvent(now+cp.params.FaultDelay, lf))
		}
	}
	return multipleEvent(now, evts...)
}
