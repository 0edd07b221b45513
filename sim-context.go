package antrsvp

// sim-context.go holds what every component of a run shares: the topology
// handle, the logger and the named random number streams.

import (
	"log/slog"

	"github.com/iti/rngstream"
)

// names of the random number streams.  Ant decisions draw from one, traffic
// and background activity from the other, so that adding traffic does not
// perturb the sequence of ant decisions.
const (
	AntStream     = "ant"
	BckgrndStream = "bckgrnd"
)

// SimulationContext bundles the shared handles of a run
type SimulationContext struct {
	Topo    *Topology
	Log     *slog.Logger
	streams map[string]RandomStream
}

// NewSimulationContext creates the named streams.  A stream's seed is honored by
// discarding that many variates before the run starts.
func NewSimulationContext(topo *Topology, logger *slog.Logger, params *Params) *SimulationContext {
	if logger == nil {
		logger = discardLogger()
	}
	ctx := &SimulationContext{Topo: topo, Log: logger, streams: make(map[string]RandomStream)}
	ctx.streams[AntStream] = seededStream(AntStream, params.AntSeed)
	ctx.streams[BckgrndStream] = seededStream(BckgrndStream, params.BckgrndSeed)
	return ctx
}

func seededStream(name string, seed int) RandomStream {
	rngstrm := rngstream.New(name)
	for idx := 0; idx < seed; idx++ {
		rngstrm.RandU01()
	}
	return rngstrm
}

// Stream returns the named stream
func (ctx *SimulationContext) Stream(name string) RandomStream {
	return ctx.streams[name]
}

// SetStream replaces a named stream, e.g. with a scripted one
func (ctx *SimulationContext) SetStream(name string, rs RandomStream) {
	ctx.streams[name] = rs
}
