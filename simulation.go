package antrsvp

// simulation.go connects the control plane to the discrete-event engine.
// Every event the control plane returns is enqueued on the evtm event
// manager at its timestamp; a MULTIPLE is split so that each of its
// members is enqueued on its own.  Events run one at a time in timestamp
// order, so no locking is needed anywhere.

import (
	"log/slog"

	"github.com/iti/evt/evtm"
	"github.com/iti/evt/vrtime"
)

// Simulation runs a control plane on an event manager
type Simulation struct {
	evtMgr    *evtm.EventManager
	cp        *ControlPlane
	log       *slog.Logger
	recorder  InstantaneousRecorder
	slice     float64
	anomalies int
	processed int
}

// NewSimulation checks once whether the accounting wants per-slice link snapshots
func NewSimulation(evtMgr *evtm.EventManager, cp *ControlPlane, slice float64) *Simulation {
	sim := &Simulation{evtMgr: evtMgr, cp: cp, log: cp.log, slice: slice}
	if recorder, ok := cp.accounting.(InstantaneousRecorder); ok {
		sim.recorder = recorder
	}
	return sim
}

// EventManager returns the engine events are scheduled on
func (sim *Simulation) EventManager() *evtm.EventManager {
	return sim.evtMgr
}

// ControlPlane returns the dispatcher events are handed to
func (sim *Simulation) ControlPlane() *ControlPlane {
	return sim.cp
}

// Anomalies counts the events the control plane rejected with an error
func (sim *Simulation) Anomalies() int {
	return sim.anomalies
}

// Processed counts the events handed to the control plane
func (sim *Simulation) Processed() int {
	return sim.processed
}

// Schedule enqueues an event at its timestamp; timestamps in the past run now
func (sim *Simulation) Schedule(evt *Event) {
	if evt == nil {
		return
	}
	if evt.Kind == Multiple {
		for _, sub := range evt.Events {
			sim.Schedule(sub)
		}
		return
	}
	offset := evt.Time - sim.evtMgr.CurrentSeconds()
	if offset < 0.0 {
		offset = 0.0
	}
	sim.evtMgr.Schedule(sim, evt, dispatchEvent, vrtime.SecondsToTime(offset))
}

// dispatchEvent is the handler of every scheduled Event
func dispatchEvent(evtMgr *evtm.EventManager, context any, data any) any {
	sim := context.(*Simulation)
	evt := data.(*Event)
	sim.processed += 1

	nxt, err := sim.cp.Process(evtMgr.CurrentSeconds(), evt)
	if err != nil {
		sim.anomalies += 1
		sim.log.Error("event rejected", "kind", evt.Kind.String(), "time", evtMgr.CurrentSeconds(), "error", err)
		return nil
	}
	sim.Schedule(nxt)
	return nil
}

// Run starts the per-slice snapshots, when wanted, and runs the engine to the horizon
func (sim *Simulation) Run(horizon float64) {
	if sim.recorder != nil && sim.slice > 0.0 {
		sim.evtMgr.Schedule(sim, nil, recordSlice, vrtime.SecondsToTime(sim.slice))
	}
	sim.evtMgr.Run(horizon)
}

// recordSlice hands the accounting a snapshot of every link and reschedules itself
func recordSlice(evtMgr *evtm.EventManager, context any, data any) any {
	sim := context.(*Simulation)
	sim.recorder.SetInstantaneousValues(evtMgr.CurrentSeconds(), sim.cp.LinkUsage())
	evtMgr.Schedule(sim, nil, recordSlice, vrtime.SecondsToTime(sim.slice))
	return nil
}
