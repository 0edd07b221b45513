package antrsvp

// lifecycle.go holds the control plane's record of a lightpath from the
// moment it is requested until it is released or given up on.

import (
	"log/slog"

	"github.com/looplab/fsm"
)

const (
	// LightpathStatePending is the state while a reservation attempt is in flight
	LightpathStatePending = "Pending"

	// LightpathStateEstablished is the state while the lightpath carries traffic
	LightpathStateEstablished = "Established"

	// LightpathStateDisrupted is the state after a failure cut the lightpath, until it is restored
	LightpathStateDisrupted = "Disrupted"

	// LightpathStateReleased is the state after teardown completed
	LightpathStateReleased = "Released"

	// LightpathStateFailed is the state of a request that could not be served
	LightpathStateFailed = "Failed"
)

const (
	LightpathEventEstablish = "Establish"
	LightpathEventDisrupt   = "Disrupt"
	LightpathEventRelease   = "Release"
	LightpathEventFail      = "Fail"
)

// Lightpath tracks one flow label
type Lightpath struct {
	FlowLabel  int
	Request    *LightpathRequest
	Connection *Connection
	Tries      int
	FSM        *fsm.FSM

	log *slog.Logger
}

func newLightpath(flowLabel int, req *LightpathRequest, logger *slog.Logger) *Lightpath {
	lp := &Lightpath{FlowLabel: flowLabel, Request: req, log: logger.With("flow", flowLabel)}

	lp.FSM = fsm.NewFSM(
		LightpathStatePending,
		fsm.Events{
			{Name: LightpathEventEstablish, Src: []string{LightpathStatePending, LightpathStateDisrupted}, Dst: LightpathStateEstablished},
			{Name: LightpathEventDisrupt, Src: []string{LightpathStateEstablished}, Dst: LightpathStateDisrupted},
			{Name: LightpathEventRelease, Src: []string{LightpathStateEstablished, LightpathStateDisrupted}, Dst: LightpathStateReleased},
			{Name: LightpathEventFail, Src: []string{LightpathStatePending, LightpathStateDisrupted}, Dst: LightpathStateFailed},
		},
		fsm.Callbacks{
			"enter_state": func(e *fsm.Event) {
				lp.log.Info("lightpath state changed", "from", e.Src, "to", e.Dst,
					"source", lp.Request.Source, "target", lp.Request.Target)
			},
		},
	)
	return lp
}

// transition fires evt when the current state allows it; other attempts are ignored
func (lp *Lightpath) transition(evt string) {
	if !lp.FSM.Can(evt) {
		lp.log.Debug("lightpath transition skipped", "event", evt, "state", lp.FSM.Current())
		return
	}
	if err := lp.FSM.Event(evt); err != nil {
		lp.log.Error("lightpath transition failed", "event", evt, "error", err)
	}
}

// State is the current lifecycle state
func (lp *Lightpath) State() string {
	return lp.FSM.Current()
}
