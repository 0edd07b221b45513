package antrsvp

// traffic.go holds the generators that drive an experiment: streams of
// lightpath requests, periodic forward ants, and the requests and failures
// an experiment schedules at fixed times.  Each stream is an event handler
// that does its work and schedules its own next occurrence.  All draws come
// from the background stream.

import (
	"fmt"
	"math"
	"strings"

	"github.com/iti/evt/evtm"
	"github.com/iti/evt/vrtime"
)

// expRV returns a sample of an exponentially distributed random number
func expRV(u01, rate float64) float64 {
	return -math.Log(1.0-u01) / rate
}

// sampleExpRV draws an exponential interval with rate params[0]
func sampleExpRV(u01 float64, params []float64) float64 {
	return expRV(u01, params[0])
}

// sampleConst returns the constant interval 1/params[0]
func sampleConst(u01 float64, params []float64) float64 {
	return 1.0 / params[0]
}

// distribution maps a model name to its sampler
func distribution(model string) (func(float64, []float64) float64, error) {
	switch strings.ToLower(model) {
	case "", "expon", "exp", "exponential":
		return sampleExpRV, nil
	case "const", "constant":
		return sampleConst, nil
	}
	return nil, fmt.Errorf("%w: distribution %q", ErrInvalidParameter, model)
}

// Generator schedules the traffic an experiment describes
type Generator struct {
	sim *Simulation
	exp *ExpDesc
	rng RandomStream

	requestStreams []*requestStream
	antStreams     []*antStream
}

type requestStream struct {
	gen     *Generator
	desc    RequestStreamDesc
	arrival func(float64, []float64) float64
	holding func(float64, []float64) float64
}

type antStream struct {
	gen     *Generator
	node    int
	rate    float64
	arrival func(float64, []float64) float64
}

// NewGenerator prepares the streams of the experiment
func NewGenerator(sim *Simulation, exp *ExpDesc) (*Generator, error) {
	gen := &Generator{sim: sim, exp: exp, rng: sim.cp.ctx.Stream(BckgrndStream)}
	topo := sim.cp.ctx.Topo

	for _, rsd := range exp.RequestStreams {
		arrival, err := distribution(rsd.Model)
		if err != nil {
			return nil, err
		}
		holding, err := distribution(rsd.HoldingModel)
		if err != nil {
			return nil, err
		}
		gen.requestStreams = append(gen.requestStreams,
			&requestStream{gen: gen, desc: rsd, arrival: arrival, holding: holding})
	}

	for _, asd := range exp.AntStreams {
		arrival, err := distribution(asd.Model)
		if err != nil {
			return nil, err
		}
		nodes := []int{asd.Node}
		if asd.Node < 0 {
			nodes = topo.Nodes()
		}
		for _, node := range nodes {
			gen.antStreams = append(gen.antStreams, &antStream{gen: gen, node: node, rate: asd.Rate, arrival: arrival})
		}
	}
	return gen, nil
}

// Start schedules the fixed-time requests and failures and the first occurrence of every stream
func (gen *Generator) Start() {
	evtMgr := gen.sim.evtMgr
	cp := gen.sim.cp

	for _, rd := range gen.exp.Requests {
		evt := cp.NewRequest(rd.Time, rd.Source, rd.Target, rd.Duration)
		gen.sim.Schedule(evt)
	}
	for _, fd := range gen.exp.Failures {
		if strings.ToLower(fd.Kind) == "node" {
			gen.sim.Schedule(newEvent(FailureNode, fd.Time, fd.Node))
		} else {
			gen.sim.Schedule(newEvent(FailureLink, fd.Time, EdgeFailure{A: fd.A, B: fd.B}))
		}
	}
	for _, rs := range gen.requestStreams {
		first := rs.desc.Start + rs.arrival(gen.rng.RandU01(), []float64{rs.desc.Rate})
		evtMgr.Schedule(rs, nil, requestArrival, vrtime.SecondsToTime(first))
	}
	for _, as := range gen.antStreams {
		first := as.arrival(gen.rng.RandU01(), []float64{as.rate})
		evtMgr.Schedule(as, nil, antLaunch, vrtime.SecondsToTime(first))
	}
}

// pickPair draws two distinct nodes still in the network
func (gen *Generator) pickPair() (int, int, bool) {
	nodes := gen.sim.cp.ctx.Topo.Nodes()
	if len(nodes) < 2 {
		return -1, -1, false
	}
	src := nodes[int(gen.rng.RandU01()*float64(len(nodes)))%len(nodes)]
	others := make([]int, 0, len(nodes)-1)
	for _, node := range nodes {
		if node != src {
			others = append(others, node)
		}
	}
	dst := others[int(gen.rng.RandU01()*float64(len(others)))%len(others)]
	return src, dst, true
}

// requestArrival issues one lightpath request and schedules the next
func requestArrival(evtMgr *evtm.EventManager, context any, data any) any {
	rs := context.(*requestStream)
	gen := rs.gen
	now := evtMgr.CurrentSeconds()
	if rs.desc.Stop > 0.0 && now > rs.desc.Stop {
		return nil
	}

	src, dst := rs.desc.Source, rs.desc.Target
	ok := true
	if src < 0 || dst < 0 {
		src, dst, ok = gen.pickPair()
	}
	holding := rs.holding(gen.rng.RandU01(), []float64{1.0 / rs.desc.Holding})
	if ok {
		gen.sim.Schedule(gen.sim.cp.NewRequest(now, src, dst, holding))
	}

	interarrival := rs.arrival(gen.rng.RandU01(), []float64{rs.desc.Rate})
	evtMgr.Schedule(rs, nil, requestArrival, vrtime.SecondsToTime(interarrival))
	return nil
}

// antLaunch sends one forward ant toward a random destination and schedules the next.
// The stream ends once its node has left the network.
func antLaunch(evtMgr *evtm.EventManager, context any, data any) any {
	as := context.(*antStream)
	gen := as.gen
	cp := gen.sim.cp
	now := evtMgr.CurrentSeconds()

	if _, present := cp.Node(as.node); !present {
		return nil
	}
	dests := []int{}
	for _, node := range cp.ctx.Topo.Nodes() {
		if node != as.node {
			dests = append(dests, node)
		}
	}
	if len(dests) > 0 {
		dst := dests[int(gen.rng.RandU01()*float64(len(dests)))%len(dests)]
		gen.sim.Schedule(cp.LaunchAnt(now, as.node, dst))
	}

	interarrival := as.arrival(gen.rng.RandU01(), []float64{as.rate})
	evtMgr.Schedule(as, nil, antLaunch, vrtime.SecondsToTime(interarrival))
	return nil
}
