package antrsvp

// event.go holds the events exchanged between the control plane and the
// scheduler.  Every handler returns at most one event; several follow-up
// events are bundled into a single MULTIPLE event.

import (
	"fmt"
)

// EventKind identifies what an Event asks the control plane to do
type EventKind int

const (
	PacketArrival EventKind = iota
	LightpathRequested
	LightpathEstablished
	LightpathProblem
	LightpathTeardown
	LightpathRemoved
	FailureLink
	FailureNode
	AntRouted
	AntKilled
	Ignore
	Multiple
)

var evtKindToStr map[EventKind]string = map[EventKind]string{
	PacketArrival:        "PACKET_ARRIVAL",
	LightpathRequested:   "LIGHTPATH_REQUEST",
	LightpathEstablished: "LIGHTPATH_ESTABLISHED",
	LightpathProblem:     "LIGHTPATH_PROBLEM",
	LightpathTeardown:    "LIGHTPATH_TEARDOWN",
	LightpathRemoved:     "LIGHTPATH_REMOVED",
	FailureLink:          "FAILURE_LINK",
	FailureNode:          "FAILURE_NODE",
	AntRouted:            "ANT_ROUTED",
	AntKilled:            "ANT_KILLED",
	Ignore:               "IGNORE",
	Multiple:             "MULTIPLE",
}

var strToEvtKind map[string]EventKind

func (ek EventKind) String() string {
	str, present := evtKindToStr[ek]
	if !present {
		return fmt.Sprintf("EventKind(%d)", int(ek))
	}
	return str
}

// Event is a timestamped instruction for the control plane.  Content's
// dynamic type depends on Kind; Events is only populated for MULTIPLE.
type Event struct {
	Kind        EventKind
	Time        float64
	InitialTime float64
	Content     any
	Events      []*Event
}

// EdgeFailure is the content of a FAILURE_LINK event
type EdgeFailure struct {
	A, B int
}

func newEvent(kind EventKind, t float64, content any) *Event {
	return &Event{Kind: kind, Time: t, InitialTime: t, Content: content}
}

func arrivalEvent(t float64, msg Message) *Event {
	return newEvent(PacketArrival, t, msg)
}

func ignoreEvent(t float64) *Event {
	return newEvent(Ignore, t, nil)
}

// multipleEvent bundles events.  nil entries are dropped, nested MULTIPLE
// events are flattened, and a single survivor is returned unwrapped.
func multipleEvent(t float64, evts ...*Event) *Event {
	flat := []*Event{}
	for _, evt := range evts {
		if evt == nil {
			continue
		}
		if evt.Kind == Multiple {
			flat = append(flat, evt.Events...)
			continue
		}
		flat = append(flat, evt)
	}
	switch len(flat) {
	case 0:
		return nil
	case 1:
		return flat[0]
	}
	rtn := newEvent(Multiple, t, nil)
	rtn.Events = flat
	return rtn
}

// ParseEventKind maps a name like "FAILURE_LINK" back to its kind
func ParseEventKind(name string) (EventKind, error) {
	kind, present := strToEvtKind[name]
	if !present {
		return Ignore, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
	}
	return kind, nil
}

func init() {
	strToEvtKind = make(map[string]EventKind)
	for kind, str := range evtKindToStr {
		strToEvtKind[str] = kind
	}
}
