package antrsvp

// node-ant.go holds the ant state machine of a node.  A forward ant is
// routed hop by hop toward its target; at the target it turns around and
// walks its recorded path back, reinforcing every node's pheromone table
// on the way.  The ant ends as ANT_ROUTED back at its source, or as
// ANT_KILLED when it cannot move on.

// antOptions carries what differs between the variants in ant handling
type antOptions struct {
	power      float64 // exponent on free-wavelength counts
	markLoop   bool    // flag ants whose path had a loop cut out
	learnUsage bool    // fold collected occupancy into the usage table
}

func (bn *baseNode) processAnt(now float64, ant *Ant, opts antOptions) *Event {
	if ant.Dir == Forward {
		return bn.forwardAnt(now, ant, opts)
	}
	return bn.backwardAnt(now, ant, opts)
}

func (bn *baseNode) forwardAnt(now float64, ant *Ant, opts antOptions) *Event {
	if bn.id == ant.Target {
		ant.toBackward()
		prev, ok := ant.backwardNeighbor()
		if !ok {
			return newEvent(AntKilled, now, ant)
		}
		return bn.sendAntBack(now, ant, prev)
	}

	nxt, looped, ok := bn.table.SelectForAnt(ant, bn.freeWavelengths(), bn.params.Alpha,
		opts.power, opts.markLoop, bn.antRNG())
	if !ok || ant.HopLimit <= 0 {
		bn.log.Debug("ant killed", "ant", ant.ID, "target", ant.Target, "hops", ant.HopLimit)
		return newEvent(AntKilled, now, ant)
	}
	ls, present := bn.links[nxt]
	if !present {
		return newEvent(AntKilled, now, ant)
	}
	ant.HopLimit -= 1

	if ant.collecting() {
		for l, busy := range ls.Mask.Occupancy() {
			if l < len(ant.Usage) {
				ant.Usage[l] += busy
			}
		}
	}

	delay := ls.hopDelay(ant.Bytes)
	ls.Bytes += int64(ant.Bytes)
	if !looped {
		ant.visit(nxt, now+delay)
	}
	bn.log.Debug("ant forward", "ant", ant.ID, "to", nxt, "looped", looped)
	return arrivalEvent(now+delay, ant)
}

func (bn *baseNode) backwardAnt(now float64, ant *Ant, opts antOptions) *Event {
	bn.table.Reinforce(ant, bn.model, bn.policy)

	if bn.id == ant.Source {
		if opts.learnUsage && ant.collecting() && !ant.Looped {
			bn.usage.Update(ant.Target, ant.Usage)
		}
		return newEvent(AntRouted, now, ant)
	}
	prev, ok := ant.backwardNeighbor()
	if !ok {
		return newEvent(AntKilled, now, ant)
	}
	return bn.sendAntBack(now, ant, prev)
}

// sendAntBack moves a backward ant one hop toward its source
func (bn *baseNode) sendAntBack(now float64, ant *Ant, prev int) *Event {
	ls, present := bn.links[prev]
	if !present {
		bn.log.Debug("ant lost its way back", "ant", ant.ID, "to", prev)
		return newEvent(AntKilled, now, ant)
	}
	delay := ls.hopDelay(ant.Bytes)
	ls.Bytes += int64(ant.Bytes)
	ant.advance(prev)
	return arrivalEvent(now+delay, ant)
}
