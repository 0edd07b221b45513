package antrsvp

// trace.go gathers, when asked to, a record of every signaling hop and
// lifecycle step of every lightpath, for post-run analysis.

import (
	"fmt"
	"strconv"

	"github.com/iti/evt/vrtime"
	"gopkg.in/yaml.v3"
)

// TraceInst is one serialized trace record
type TraceInst struct {
	TraceTime string `json:"tracetime" yaml:"tracetime"`
	TraceType string `json:"tracetype" yaml:"tracetype"`
	TraceStr  string `json:"tracestr" yaml:"tracestr"`
}

// NameType is an entry of the dictionary mapping node ids to a (name,type) pair
type NameType struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// TraceManager gathers trace records, keyed by flow label
type TraceManager struct {
	// experiment uses trace
	InUse bool `json:"inuse" yaml:"inuse"`

	// name of experiment
	ExpName string `json:"expname" yaml:"expname"`

	// text name associated with each node id
	NameByID map[int]NameType `json:"namebyid" yaml:"namebyid"`

	// all trace records for this experiment, by flow label
	Traces map[int][]TraceInst `json:"traces" yaml:"traces"`
}

// CreateTraceManager is a constructor.  When active is false every method
// is a no-op, so calls can stay in place whether or not a trace is wanted.
func CreateTraceManager(expName string, active bool) *TraceManager {
	tm := new(TraceManager)
	tm.InUse = active
	tm.ExpName = expName
	tm.NameByID = make(map[int]NameType)
	tm.Traces = make(map[int][]TraceInst)
	return tm
}

// Active tells whether records are being gathered
func (tm *TraceManager) Active() bool {
	return tm != nil && tm.InUse
}

// AddTrace stores a record under the flow label
func (tm *TraceManager) AddTrace(flowLabel int, trace TraceInst) {
	if !tm.Active() {
		return
	}
	tm.Traces[flowLabel] = append(tm.Traces[flowLabel], trace)
}

// AddName adds an element to the id -> (name,type) dictionary
func (tm *TraceManager) AddName(id int, name string, objDesc string) error {
	if !tm.Active() {
		return nil
	}
	if _, present := tm.NameByID[id]; present {
		return fmt.Errorf("duplicated id %d in trace dictionary", id)
	}
	tm.NameByID[id] = NameType{Name: name, Type: objDesc}
	return nil
}

// WriteToFile stores the trace, as yaml or json depending on the file extension
func (tm *TraceManager) WriteToFile(filename string) error {
	if !tm.Active() {
		return nil
	}
	return writeDesc(filename, tm)
}

// SignalTrace records a signaling message at a node, or a lifecycle step of a lightpath
type SignalTrace struct {
	Time      float64 `yaml:"time"`
	Ticks     int64   `yaml:"ticks"`
	Priority  int64   `yaml:"priority"`
	FlowLabel int     `yaml:"flowlabel"`
	NodeID    int     `yaml:"nodeid"`
	Op        string  `yaml:"op"`
	Header    string  `yaml:"header,omitempty"`
	Code      string  `yaml:"code,omitempty"`
	Hops      int     `yaml:"hops"`
}

func (st *SignalTrace) Serialize() string {
	bytes, merr := yaml.Marshal(*st)
	if merr != nil {
		return merr.Error()
	}
	return string(bytes)
}

// AddSignalTrace records msg being handled at nodeID
func AddSignalTrace(tm *TraceManager, now float64, msg *SignalingMessage, nodeID int, op string) {
	if !tm.Active() {
		return
	}
	vrt := vrtime.SecondsToTime(now)
	st := &SignalTrace{Time: vrt.Seconds(), Ticks: vrt.Ticks(), Priority: vrt.Pri(),
		FlowLabel: msg.FlowLabel, NodeID: nodeID, Op: op, Header: msg.Header.String(),
		Hops: len(msg.Path) - 1}
	if msg.Err != nil {
		st.Code = msg.Err.Code.String()
	}
	traceTime := strconv.FormatFloat(now, 'f', -1, 64)
	tm.AddTrace(msg.FlowLabel, TraceInst{TraceTime: traceTime, TraceType: "signal", TraceStr: st.Serialize()})
}
