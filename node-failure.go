package antrsvp

// node-failure.go holds how a node reacts to a link failure notice.  The
// notice is flooded to every neighbor once per failure id.  The two end
// points of the failed link also drop the adjacency, and for every
// connection crossing the link the upstream end point sends a PATH_ERR
// back to the source while the downstream end point tears the rest of the
// path down toward the target.  Nodes that left the network with the
// failure are dropped as destinations everywhere the notice reaches.

func (bn *baseNode) ProcessFailure(now float64, lf *LinkFailure) *Event {
	if bn.seenFailures[lf.FailureID] {
		return ignoreEvent(now)
	}
	bn.seenFailures[lf.FailureID] = true
	for _, gone := range lf.Gone {
		bn.forgetDestination(gone)
	}

	evts := []*Event{}
	if bn.id == lf.A || bn.id == lf.B {
		other := lf.B
		if bn.id == lf.B {
			other = lf.A
		}
		evts = append(evts, bn.disruptConnections(now, other)...)
		bn.removeAdjacency(other)
		bn.log.Info("link failed", "neighbor", other, "failure", lf.FailureID)
	}

	for _, nbr := range bn.neighborIDs() {
		if nbr == lf.From {
			continue
		}
		fwd := newLinkFailure(lf.FailureID, lf.A, lf.B, nbr, bn.id)
		fwd.Gone = lf.Gone
		evts = append(evts, arrivalEvent(now+bn.links[nbr].Delay, fwd))
	}
	if len(evts) == 0 {
		return ignoreEvent(now)
	}
	return multipleEvent(now, evts...)
}

// disruptConnections handles the active connections crossing the link to other
func (bn *baseNode) disruptConnections(now float64, other int) []*Event {
	evts := []*Event{}
	for _, flow := range bn.activeFlows() {
		conn := bn.active[flow]
		idx := conn.Path.PositionOf(bn.id)
		if idx < 0 {
			continue
		}
		switch {
		case idx+1 < len(conn.Path) && conn.Path[idx+1] == other:
			bn.release(flow, conn)
			pathErr := newTearMessage(conn, PathErrMsg, idx)
			pathErr.Err = &SignalingError{Code: LSPFailure, RemovePath: true}
			evts = append(evts, bn.afterFailure(now, pathErr))
		case idx > 0 && conn.Path[idx-1] == other:
			bn.release(flow, conn)
			tear := newTearMessage(conn, PathTearMsg, idx)
			tear.Err = &SignalingError{Code: LSPFailure}
			evts = append(evts, bn.afterFailure(now, tear))
		}
	}
	return evts
}

// afterFailure sends a message built in reaction to a failure one hop along its
// path, a small epsilon after the notice.  At an end of the path it is delivered.
func (bn *baseNode) afterFailure(now float64, msg *SignalingMessage) *Event {
	var nbr int
	var ok bool
	if msg.Dir == Backward {
		nbr, ok = msg.backwardNeighbor()
	} else {
		nbr, ok = msg.forwardNeighbor()
	}
	if !ok {
		return bn.deliver(now+failureEpsilon, msg)
	}
	ls, present := bn.links[nbr]
	if !present {
		return nil
	}
	msg.advance(nbr)
	return arrivalEvent(now+ls.Delay+failureEpsilon, msg)
}

// forgetDestination drops every trace of a node that left the network: its
// pheromone entry, its trip time view and its usage histogram
func (bn *baseNode) forgetDestination(dest int) {
	bn.table.RemoveDestination(dest)
	bn.model.RemoveDestination(dest)
	bn.usage.RemoveDestination(dest)
	bn.log.Debug("destination forgotten", "destination", dest)
}
