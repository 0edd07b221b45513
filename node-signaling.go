package antrsvp

// node-signaling.go holds the reservation protocol as a node runs it.
//
// A PATH message travels from source to target, choosing its next hop from
// the pheromone table and narrowing the set of wavelengths free on every
// link it crosses.  The target picks a wavelength and answers with a RESV,
// which retraces the path reserving that wavelength on each node's
// downstream link.  Errors travel back as PATH_ERR (toward the source) and
// RESV_ERR (toward the target), teardown as PATH_TEAR and RESV_TEAR.
// Whatever reaches an end of the path is handed to the control plane as a
// LIGHTPATH_* event.

// AntNetNode is the plain variant: deterministic next hops for signaling,
// first-fit wavelength assignment over a wavelength mask
type AntNetNode struct {
	*baseNode
}

func (an *AntNetNode) ProcessAnt(now float64, ant *Ant) *Event {
	return an.processAnt(now, ant, antOptions{power: 1.0})
}

func (an *AntNetNode) ProcessSignaling(now float64, msg *SignalingMessage) *Event {
	if msg.Header == PathMsg {
		return an.processPath(now, msg)
	}
	return an.handleSignaling(now, msg)
}

func (an *AntNetNode) processPath(now float64, msg *SignalingMessage) *Event {
	if msg.Mask.Empty() {
		return an.pathError(now, msg, LabelSetExhausted)
	}
	if an.id == msg.Target {
		l, _ := msg.Mask.FirstFree()
		return an.materialize(now, msg, l)
	}

	nxt, ok := an.table.SelectDeterministic(msg.Target, newNodeSet(msg.Path...))
	ls, linked := an.links[nxt]
	if !ok || !linked || msg.HopLimit <= 0 {
		return an.pathError(now, msg, NoRouteAvailable)
	}
	msg.Mask = msg.Mask.Intersect(ls.Mask)
	msg.HopLimit -= 1
	an.log.Debug("PATH forward", "flow", msg.FlowLabel, "to", nxt, "free", msg.Mask.FreeCount())
	return an.send(now, msg, nxt)
}

// materialize turns a PATH that reached its target into a RESV for wavelength l
func (bn *baseNode) materialize(now float64, msg *SignalingMessage, l int) *Event {
	conn := &Connection{FlowLabel: msg.FlowLabel, Path: msg.Path.Clone(), Wavelength: l,
		Request: msg.Request, Start: now}
	bn.active[msg.FlowLabel] = conn
	msg.Connection = conn
	msg.Header = ResvMsg
	msg.toBackward()
	bn.log.Debug("lightpath materialized", "flow", msg.FlowLabel, "wavelength", l, "hops", len(conn.Path)-1)
	return bn.upstream(now, msg)
}

// pathError turns a PATH around as a PATH_ERR carrying code
func (bn *baseNode) pathError(now float64, msg *SignalingMessage, code ErrorCode) *Event {
	msg.Header = PathErrMsg
	msg.Err = &SignalingError{Code: code}
	msg.toBackward()
	bn.log.Debug("PATH failed", "flow", msg.FlowLabel, "code", code.String())
	return bn.upstream(now, msg)
}

// handleSignaling runs everything but PATH, the same for both variants
func (bn *baseNode) handleSignaling(now float64, msg *SignalingMessage) *Event {
	switch msg.Header {
	case ResvMsg:
		return bn.processResv(now, msg)
	case PathErrMsg:
		if msg.Err != nil && msg.Err.RemovePath {
			bn.release(msg.FlowLabel, msg.Connection)
		}
		return bn.upstream(now, msg)
	case ResvErrMsg, PathTearMsg:
		bn.release(msg.FlowLabel, msg.Connection)
		return bn.downstream(now, msg)
	case ResvTearMsg:
		bn.release(msg.FlowLabel, msg.Connection)
		return bn.upstream(now, msg)
	}
	bn.log.Error("unexpected signaling message", "header", msg.Header.String(), "flow", msg.FlowLabel)
	return ignoreEvent(now)
}

// processResv reserves the connection's wavelength on the downstream link
func (bn *baseNode) processResv(now float64, msg *SignalingMessage) *Event {
	conn := msg.Connection
	if nxt, ok := msg.forwardNeighbor(); ok {
		ls, present := bn.links[nxt]
		if !present || !ls.allocate(conn.Wavelength) {
			return bn.admissionFailure(now, msg)
		}
	}
	bn.active[msg.FlowLabel] = conn
	return bn.upstream(now, msg)
}

// admissionFailure handles a RESV whose wavelength was taken in the meantime.
// A RESV_ERR releases what the nodes downstream already reserved, a PATH_ERR
// tells the source.
func (bn *baseNode) admissionFailure(now float64, msg *SignalingMessage) *Event {
	bn.log.Debug("admission control failed", "flow", msg.FlowLabel, "wavelength", msg.Connection.Wavelength)

	var fwd *Event
	resvErr := msg.clone()
	resvErr.Header = ResvErrMsg
	resvErr.Dir = Forward
	resvErr.Err = &SignalingError{Code: AdmissionControlFailure}
	if nxt, ok := resvErr.forwardNeighbor(); ok {
		fwd = bn.send(now, resvErr, nxt)
	}

	pathErr := msg.clone()
	pathErr.Header = PathErrMsg
	pathErr.Err = &SignalingError{Code: AdmissionControlFailure}
	return multipleEvent(now, fwd, bn.upstream(now, pathErr))
}

// release frees what this node reserved for the flow.  conn, when given, must be
// the connection registered here; a newer connection of the same flow is left alone.
func (bn *baseNode) release(flowLabel int, conn *Connection) {
	cur, present := bn.active[flowLabel]
	if !present || (conn != nil && cur != conn) {
		return
	}
	if nxt, ok := cur.nextHop(bn.id); ok {
		if ls, linked := bn.links[nxt]; linked {
			ls.release(cur.Wavelength)
		}
	}
	delete(bn.active, flowLabel)
}

// upstream moves a message one hop toward the source, or delivers it there
func (bn *baseNode) upstream(now float64, msg *SignalingMessage) *Event {
	prev, ok := msg.backwardNeighbor()
	if !ok {
		return bn.deliver(now, msg)
	}
	if _, linked := bn.links[prev]; !linked {
		return bn.unreachable(now, msg, prev)
	}
	return bn.send(now, msg, prev)
}

// downstream moves a message one hop toward the target, or delivers it there
func (bn *baseNode) downstream(now float64, msg *SignalingMessage) *Event {
	nxt, ok := msg.forwardNeighbor()
	if !ok {
		return bn.deliver(now, msg)
	}
	if _, linked := bn.links[nxt]; !linked {
		return bn.unreachable(now, msg, nxt)
	}
	return bn.send(now, msg, nxt)
}

// unreachable handles a signaling message whose next hop was cut after the
// message set out.  The control plane hears of it at once so that the attempt
// ends up in the accounting.  A RESV also gives back what was reserved for it
// here and downstream.
func (bn *baseNode) unreachable(now float64, msg *SignalingMessage, nbr int) *Event {
	bn.log.Warn("no link, signaling cut short", "flow", msg.FlowLabel,
		"header", msg.Header.String(), "to", nbr)

	switch msg.Header {
	case ResvMsg:
		bn.release(msg.FlowLabel, msg.Connection)

		resvErr := msg.clone()
		resvErr.Header = ResvErrMsg
		resvErr.Dir = Forward
		resvErr.Err = &SignalingError{Code: NoRouteAvailable}
		var fwd *Event
		if _, ok := resvErr.forwardNeighbor(); ok {
			fwd = bn.downstream(now, resvErr)
		}

		problem := msg.clone()
		problem.Header = PathErrMsg
		problem.Dir = Backward
		problem.Err = &SignalingError{Code: NoRouteAvailable}
		return multipleEvent(now, fwd, newEvent(LightpathProblem, now, problem))

	case PathErrMsg:
		return newEvent(LightpathProblem, now, msg)

	case PathTearMsg, ResvTearMsg:
		return newEvent(LightpathRemoved, now, msg)
	}
	// a RESV_ERR stops here; the end points of the cut link release the rest
	return ignoreEvent(now)
}

// deliver hands a message that reached an end of its path to the control plane
func (bn *baseNode) deliver(t float64, msg *SignalingMessage) *Event {
	switch msg.Header {
	case ResvMsg:
		return newEvent(LightpathEstablished, t, msg)
	case PathErrMsg:
		return newEvent(LightpathProblem, t, msg)
	case PathTearMsg, ResvTearMsg:
		return newEvent(LightpathRemoved, t, msg)
	}
	return ignoreEvent(t)
}
