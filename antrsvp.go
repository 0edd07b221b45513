package antrsvp

// antrsvp.go ties the pieces of an experiment together.  The input files
// (topology, parameters, experiment) are named in a map, read and checked
// all at once, and turned into the structures a run needs: topology,
// shared context, control plane, accounting, simulation and traffic
// generator.

import (
	"fmt"
	"log/slog"

	"github.com/iti/evt/evtm"
)

// Experiment is everything a run is made of
type Experiment struct {
	Ctx       *SimulationContext
	CP        *ControlPlane
	Sim       *Simulation
	Gen       *Generator
	Collector *Collector
	Trace     *TraceManager
	Exp       *ExpDesc
	Params    *Params
}

// GetExperimentDescs accepts a map that holds the names of the input files of an experiment
// and returns the descriptions they hold.  The "params" entry is optional; default
// parameters are used when it is absent.
func GetExperimentDescs(syn map[string]string) (*TopoDesc, *ParamDesc, *ExpDesc, error) {
	var errs []error

	names := []string{syn["topo"], syn["exp"]}
	if len(syn["params"]) > 0 {
		names = append(names, syn["params"])
	}
	if _, err := CheckReadableFiles(names); err != nil {
		return nil, nil, nil, err
	}

	empty := make([]byte, 0)

	td, err := ReadTopoDesc(syn["topo"], useYAML(syn["topo"]), empty)
	errs = append(errs, err)

	pd := DefaultParamDesc()
	if len(syn["params"]) > 0 {
		pd, err = ReadParamDesc(syn["params"], useYAML(syn["params"]), empty)
		errs = append(errs, err)
	}

	xd, err := ReadExpDesc(syn["exp"], useYAML(syn["exp"]), empty)
	errs = append(errs, err)

	if err := ReportErrs(errs); err != nil {
		return nil, nil, nil, err
	}
	return td, pd, xd, nil
}

// BuildExperiment reads the named input files and assembles an experiment on evtMgr
func BuildExperiment(evtMgr *evtm.EventManager, syn map[string]string, logger *slog.Logger, traceActive bool) (*Experiment, error) {
	td, pd, xd, err := GetExperimentDescs(syn)
	if err != nil {
		return nil, err
	}
	return AssembleExperiment(evtMgr, td, pd, xd, logger, traceActive)
}

// AssembleExperiment builds an experiment from descriptions already in memory
func AssembleExperiment(evtMgr *evtm.EventManager, td *TopoDesc, pd *ParamDesc, xd *ExpDesc,
	logger *slog.Logger, traceActive bool) (*Experiment, error) {

	topo, terr := td.BuildTopology()
	params, perr := pd.Params()
	if err := ReportErrs([]error{terr, perr}); err != nil {
		return nil, err
	}
	if err := xd.Validate(topo); err != nil {
		return nil, fmt.Errorf("experiment %s: %w", xd.Name, err)
	}

	ctx := NewSimulationContext(topo, logger, params)
	collector := NewCollector()
	trace := CreateTraceManager(xd.Name, traceActive)
	cp := NewControlPlane(ctx, params, collector, trace)
	sim := NewSimulation(evtMgr, cp, params.TimeSlice)
	gen, err := NewGenerator(sim, xd)
	if err != nil {
		return nil, err
	}

	ctx.Log.Info("experiment built", "name", xd.Name, "variant", params.Variant.String(),
		"nodes", len(topo.Nodes()), "horizon", xd.Horizon)

	return &Experiment{Ctx: ctx, CP: cp, Sim: sim, Gen: gen, Collector: collector,
		Trace: trace, Exp: xd, Params: params}, nil
}

// Run starts the traffic and runs the simulation to the experiment's horizon
func (x *Experiment) Run() Summary {
	x.Gen.Start()
	x.Sim.Run(x.Exp.Horizon)
	x.Ctx.Log.Info("experiment done", "name", x.Exp.Name, "events", x.Sim.Processed(),
		"anomalies", x.Sim.Anomalies())
	return x.Collector.Summary()
}
