package antrsvp

// lsr.go holds the crankback variant of the node processor.  It differs
// from the plain node in three ways.  Candidate wavelengths travel as an
// ordered label set whose order follows the configured assignment policy.
// Under segment rerouting the next hop of a PATH is drawn stochastically,
// and a node that sees a PATH_ERR come back may retry the rest of the path
// through a neighbor it has not tried yet, a bounded number of times.
// Its ants also weigh free wavelengths more heavily and report the
// occupancy they saw, which feeds the wavelength usage table.

// crankbackRecord is what a node remembers about a PATH it forwarded, so
// that it can send it again along another branch
type crankbackRecord struct {
	labels   LabelSet
	hopLimit int
	tried    []int
}

// LSRNode is the crankback variant
type LSRNode struct {
	*baseNode
	history map[int]*crankbackRecord // by flow label
}

func (lsr *LSRNode) ProcessAnt(now float64, ant *Ant) *Event {
	return lsr.processAnt(now, ant, antOptions{power: lsr.params.Power, markLoop: true, learnUsage: true})
}

func (lsr *LSRNode) ProcessSignaling(now float64, msg *SignalingMessage) *Event {
	switch msg.Header {
	case PathMsg:
		return lsr.processPath(now, msg)
	case PathErrMsg:
		return lsr.processPathErr(now, msg)
	case ResvMsg:
		delete(lsr.history, msg.FlowLabel)
	}
	return lsr.handleSignaling(now, msg)
}

// History returns what the node remembers of the flow's PATH
func (lsr *LSRNode) History(flowLabel int) (LabelSet, []int, bool) {
	rec, present := lsr.history[flowLabel]
	if !present {
		return LabelSet{}, nil, false
	}
	return rec.labels, append([]int{}, rec.tried...), true
}

func (lsr *LSRNode) processPath(now float64, msg *SignalingMessage) *Event {
	rec, present := lsr.history[msg.FlowLabel]
	if !present {
		rec = &crankbackRecord{labels: msg.Labels, hopLimit: msg.HopLimit}
		lsr.history[msg.FlowLabel] = rec
	}
	if msg.Labels.Empty() {
		return lsr.fail(now, msg, LabelSetExhausted)
	}
	if lsr.id == msg.Target {
		delete(lsr.history, msg.FlowLabel)
		l, _ := msg.Labels.First()
		return lsr.materialize(now, msg, l)
	}

	exclude := newNodeSet(msg.Path...).union(newNodeSet(rec.tried...))
	nxt, ok := lsr.selectNextHop(msg.Target, exclude)
	ls, linked := lsr.links[nxt]
	if !ok || !linked || msg.HopLimit <= 0 {
		return lsr.fail(now, msg, NoRouteAvailable)
	}
	rec.tried = append(rec.tried, nxt)

	candidates := msg.Labels.Intersect(ls.Mask)
	switch lsr.params.Policy {
	case MostUsed:
		candidates = candidates.Reorder(lsr.usage.Ranking(true))
	case LeastUsed:
		candidates = candidates.Reorder(lsr.usage.Ranking(false))
	}
	msg.Labels = candidates
	msg.HopLimit -= 1
	lsr.log.Debug("PATH forward", "flow", msg.FlowLabel, "to", nxt, "labels", candidates.Len())
	return lsr.send(now, msg, nxt)
}

// selectNextHop draws the next hop under segment rerouting and takes the best one otherwise
func (lsr *LSRNode) selectNextHop(target int, exclude nodeSet) (int, bool) {
	if lsr.params.Scope == SegmentRerouting {
		return lsr.table.SelectStochastic(target, exclude, lsr.antRNG())
	}
	return lsr.table.SelectDeterministic(target, exclude)
}

func (lsr *LSRNode) fail(now float64, msg *SignalingMessage, code ErrorCode) *Event {
	delete(lsr.history, msg.FlowLabel)
	return lsr.pathError(now, msg, code)
}

// processPathErr retries the PATH from here when segment rerouting allows it,
// and otherwise passes the error on toward the source
func (lsr *LSRNode) processPathErr(now float64, msg *SignalingMessage) *Event {
	rec, present := lsr.history[msg.FlowLabel]
	if present && lsr.params.Scope == SegmentRerouting && msg.Err != nil && !msg.Err.RemovePath &&
		(msg.Err.Code == NoRouteAvailable || msg.Err.Code == LabelSetExhausted) {

		if msg.Reroutes >= lsr.params.MaxReroutes {
			msg.Err.Code = ReroutingLimitExceeded
		} else if lsr.hasAlternative(msg, rec) {
			msg.Reroutes += 1
			return lsr.retry(now, msg, rec)
		}
	}
	delete(lsr.history, msg.FlowLabel)
	return lsr.handleSignaling(now, msg)
}

// hasAlternative tells whether a neighbor is left that the PATH has neither visited nor tried
func (lsr *LSRNode) hasAlternative(msg *SignalingMessage, rec *crankbackRecord) bool {
	visited := msg.Path.SubPathRange(0, msg.Position()+1)
	exclude := newNodeSet(visited...).union(newNodeSet(rec.tried...))
	_, ok := lsr.table.SelectDeterministic(msg.Target, exclude)
	return ok
}

// retry rebuilds the PATH as it was when it first left this node and sends it again
func (lsr *LSRNode) retry(now float64, msg *SignalingMessage, rec *crankbackRecord) *Event {
	msg.Path = msg.Path.SubPathRange(0, msg.Position()+1)
	msg.recording = true
	msg.Dir = Forward
	msg.Header = PathMsg
	msg.Err = nil
	msg.Labels = rec.labels
	msg.HopLimit = rec.hopLimit
	lsr.log.Debug("crankback", "flow", msg.FlowLabel, "reroutes", msg.Reroutes, "tried", rec.tried)
	return lsr.processPath(now, msg)
}
