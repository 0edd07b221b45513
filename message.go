package antrsvp

// message.go defines the packets that travel between node processors:
// ants that probe and reinforce routes, RSVP-like signaling messages
// that reserve lightpaths, and link-failure notices that are flooded
// after a fault.

import (
	"fmt"
)

// Direction tells whether a packet is moving away from its source or back to it
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "backward"
	}
	return "forward"
}

// Header identifies the kind of a signaling message
type Header int

const (
	PathMsg Header = iota
	ResvMsg
	PathErrMsg
	ResvErrMsg
	PathTearMsg
	ResvTearMsg
)

var headerToStr map[Header]string = map[Header]string{
	PathMsg:     "PATH",
	ResvMsg:     "RESV",
	PathErrMsg:  "PATH_ERR",
	ResvErrMsg:  "RESV_ERR",
	PathTearMsg: "PATH_TEAR",
	ResvTearMsg: "RESV_TEAR",
}

func (h Header) String() string {
	str, present := headerToStr[h]
	if !present {
		return fmt.Sprintf("Header(%d)", int(h))
	}
	return str
}

// ErrorCode classifies why a reservation attempt failed
type ErrorCode int

const (
	NoError ErrorCode = iota
	NoRouteAvailable
	LabelSetExhausted
	AdmissionControlFailure
	LSPFailure
	ReroutingLimitExceeded
)

var errCodeToStr map[ErrorCode]string = map[ErrorCode]string{
	NoError:                 "none",
	NoRouteAvailable:        "no-route-available",
	LabelSetExhausted:       "label-set-exhausted",
	AdmissionControlFailure: "admission-control",
	LSPFailure:              "lsp-failure",
	ReroutingLimitExceeded:  "rerouting-limit-exceeded",
}

func (ec ErrorCode) String() string {
	str, present := errCodeToStr[ec]
	if !present {
		return fmt.Sprintf("ErrorCode(%d)", int(ec))
	}
	return str
}

// SignalingError is the error payload of PATH_ERR / RESV_ERR messages.
// RemovePath is set when the upstream nodes must drop the reservation as the error passes.
type SignalingError struct {
	Code       ErrorCode
	RemovePath bool
}

// Message is satisfied by everything a node processor can be handed
type Message interface {
	Base() *Packet
	Kind() string
}

// Packet holds the addressing and route-recording state shared by all messages
type Packet struct {
	Source   int
	Target   int
	Path     Path
	HopLimit int
	Bytes    int
	Dir      Direction

	pos       int  // index in Path of the node processing the packet
	recording bool // hops are appended only while recording
}

func newPacket(source, target, hopLimit int) Packet {
	return Packet{Source: source, Target: target, Path: Path{source}, HopLimit: hopLimit,
		Dir: Forward, pos: 0, recording: true}
}

// Current returns the id of the node where the packet is being processed
func (pckt *Packet) Current() int {
	if pckt.pos < 0 || pckt.pos >= len(pckt.Path) {
		return -1
	}
	return pckt.Path[pckt.pos]
}

// Position returns the index of the processing node in the recorded path
func (pckt *Packet) Position() int {
	return pckt.pos
}

// Recording tells whether hops are still being appended to the path
func (pckt *Packet) Recording() bool {
	return pckt.recording
}

// advance moves the packet to nodeID.  While recording the hop is appended,
// otherwise the packet walks the recorded path to the adjacent entry.
func (pckt *Packet) advance(nodeID int) {
	if pckt.recording {
		pckt.Path.Append(nodeID)
		pckt.pos = len(pckt.Path) - 1
		return
	}
	if pckt.pos+1 < len(pckt.Path) && pckt.Path[pckt.pos+1] == nodeID {
		pckt.pos += 1
		return
	}
	if pckt.pos > 0 && pckt.Path[pckt.pos-1] == nodeID {
		pckt.pos -= 1
		return
	}
	if idx := pckt.Path.PositionOf(nodeID); idx >= 0 {
		pckt.pos = idx
	}
}

// IsVisited reports whether nodeID is on the recorded path
func (pckt *Packet) IsVisited(nodeID int) bool {
	return pckt.Path.Contains(nodeID)
}

// toBackward turns the packet around.  The current node is not appended again
// and recording stops, so the packet retraces its recorded path.
func (pckt *Packet) toBackward() {
	pckt.Dir = Backward
	pckt.recording = false
}

// stopRecording freezes the path without changing direction
func (pckt *Packet) stopRecording() {
	pckt.recording = false
}

// backwardNeighbor returns the node visited just before the processing node.
// The false return at the source is a terminal condition, not an error.
func (pckt *Packet) backwardNeighbor() (int, bool) {
	if pckt.pos <= 0 || pckt.pos >= len(pckt.Path) {
		return -1, false
	}
	return pckt.Path[pckt.pos-1], true
}

// forwardNeighbor returns the node recorded just after the processing node.
// The false return at the end of the path is a terminal condition.
func (pckt *Packet) forwardNeighbor() (int, bool) {
	if pckt.pos < 0 || pckt.pos+1 >= len(pckt.Path) {
		return -1, false
	}
	return pckt.Path[pckt.pos+1], true
}

// Ant is a probe that discovers routes going forward and reinforces
// the pheromone tables of the nodes it visited coming back
type Ant struct {
	Packet
	ID          int
	BytesPerHop int
	Usage       []int     // wavelength occupancy collected on the way out, nil when not collecting
	Looped      bool      // set when a loop was cut out of the path
	Stamps      []float64 // arrival time at each entry of Path
}

// NewAnt creates a forward ant at its source
func NewAnt(id, source, target int, now float64, hopLimit, baseBytes, bytesPerHop int) *Ant {
	ant := &Ant{Packet: newPacket(source, target, hopLimit), ID: id, BytesPerHop: bytesPerHop}
	ant.Bytes = baseBytes + bytesPerHop
	ant.Stamps = []float64{now}
	return ant
}

func (ant *Ant) Base() *Packet {
	return &ant.Packet
}

func (ant *Ant) Kind() string {
	return "ant"
}

// collecting tells whether the ant gathers wavelength occupancy
func (ant *Ant) collecting() bool {
	return ant.Usage != nil
}

// visit advances the ant to nodeID, reached at time t
func (ant *Ant) visit(nodeID int, t float64) {
	recording := ant.recording
	ant.advance(nodeID)
	if recording {
		ant.Stamps = append(ant.Stamps, t)
		ant.Bytes += ant.BytesPerHop
	}
}

// exciseLoop cuts the loop closing at nodeID and shrinks the payload to match.
// The ant is left positioned at nodeID.
func (ant *Ant) exciseLoop(nodeID int) int {
	removed := ant.Path.Excise(nodeID)
	if len(ant.Stamps) > len(ant.Path) {
		ant.Stamps = ant.Stamps[:len(ant.Path)]
	}
	ant.pos = len(ant.Path) - 1
	ant.Bytes -= removed * ant.BytesPerHop
	return removed
}

// costTo returns the time the ant took to get from the processing node to path index idx
func (ant *Ant) costTo(idx int) float64 {
	if idx < 0 || idx >= len(ant.Stamps) || ant.pos >= len(ant.Stamps) {
		return 0.0
	}
	return ant.Stamps[idx] - ant.Stamps[ant.pos]
}

// LightpathRequest describes a demand for a wavelength path between two nodes
type LightpathRequest struct {
	ID          int
	Source      int
	Target      int
	Arrival     float64
	Duration    float64
	Restoration bool
}

// Connection is an established lightpath
type Connection struct {
	FlowLabel  int
	Path       Path
	Wavelength int
	Request    *LightpathRequest
	Start      float64 // the PATH reached the target
	Ready      float64 // the RESV reached the source
}

// nextHop returns the node following nodeID on the connection's path
func (conn *Connection) nextHop(nodeID int) (int, bool) {
	idx := conn.Path.PositionOf(nodeID)
	if idx < 0 || idx+1 >= len(conn.Path) {
		return -1, false
	}
	return conn.Path[idx+1], true
}

// SignalingMessage carries the reservation protocol
type SignalingMessage struct {
	Packet
	FlowLabel   int
	Header      Header
	Request     *LightpathRequest
	Connection  *Connection
	Mask        WavelengthMask // candidate wavelengths, plain nodes
	Labels      LabelSet       // candidate wavelengths, crankback nodes
	Err         *SignalingError
	Restoration bool
	Reroutes    int // crankback attempts spent so far
}

func (msg *SignalingMessage) Base() *Packet {
	return &msg.Packet
}

func (msg *SignalingMessage) Kind() string {
	return "signaling"
}

// clone returns a copy with its own path, so that two copies may travel independently
func (msg *SignalingMessage) clone() *SignalingMessage {
	cpy := *msg
	cpy.Path = msg.Path.Clone()
	if msg.Err != nil {
		errCpy := *msg.Err
		cpy.Err = &errCpy
	}
	return &cpy
}

// newTearMessage builds a PATH_TEAR (or RESV_TEAR) that walks the connection
// path starting at index pos
func newTearMessage(conn *Connection, header Header, pos int) *SignalingMessage {
	msg := &SignalingMessage{FlowLabel: conn.FlowLabel, Header: header,
		Request: conn.Request, Connection: conn}
	msg.Source = conn.Request.Source
	msg.Target = conn.Request.Target
	msg.Path = conn.Path.Clone()
	msg.pos = pos
	msg.recording = false
	msg.Dir = Forward
	if header == ResvTearMsg || header == PathErrMsg {
		msg.Dir = Backward
	}
	return msg
}

// LinkFailure is flooded through the network once per failure id
type LinkFailure struct {
	Packet
	FailureID int
	A, B      int // end points of the failed edge
	From      int   // neighbor the notice arrived from, -1 at the end points
	Gone      []int // nodes that left the network with this failure
}

func newLinkFailure(failureID, a, b, at, from int) *LinkFailure {
	lf := &LinkFailure{FailureID: failureID, A: a, B: b, From: from}
	lf.Packet = newPacket(at, at, 0)
	return lf
}

func (lf *LinkFailure) Base() *Packet {
	return &lf.Packet
}

func (lf *LinkFailure) Kind() string {
	return "failure"
}
