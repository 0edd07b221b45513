package antrsvp

// desc-exp.go holds the serializable description of an experiment: how
// long it runs, which lightpath requests and ants are generated, and
// which links or nodes fail when.

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// RequestDesc is one lightpath request at a fixed time
type RequestDesc struct {
	Time     float64 `json:"time" yaml:"time"`
	Source   int     `json:"source" yaml:"source"`
	Target   int     `json:"target" yaml:"target"`
	Duration float64 `json:"duration" yaml:"duration"`
}

// RequestStreamDesc generates lightpath requests.  A negative Source or Target
// draws a random pair of distinct nodes for every request.
type RequestStreamDesc struct {
	Name         string  `json:"name" yaml:"name"`
	Source       int     `json:"source" yaml:"source"`
	Target       int     `json:"target" yaml:"target"`
	Rate         float64 `json:"rate" yaml:"rate"`                 // requests per second
	Holding      float64 `json:"holding" yaml:"holding"`           // mean holding time, seconds
	Model        string  `json:"model" yaml:"model"`               // inter-arrival distribution, "expon" or "const"
	HoldingModel string  `json:"holdingmodel" yaml:"holdingmodel"` // holding time distribution
	Start        float64 `json:"start" yaml:"start"`
	Stop         float64 `json:"stop" yaml:"stop"` // zero runs to the horizon
}

// AntStreamDesc launches forward ants from a node, or from every node when Node is negative
type AntStreamDesc struct {
	Node  int     `json:"node" yaml:"node"`
	Rate  float64 `json:"rate" yaml:"rate"`
	Model string  `json:"model" yaml:"model"`
}

// FailureDesc is a link ("link", A-B) or node ("node", Node) failure at a fixed time
type FailureDesc struct {
	Time float64 `json:"time" yaml:"time"`
	Kind string  `json:"kind" yaml:"kind"`
	A    int     `json:"a" yaml:"a"`
	B    int     `json:"b" yaml:"b"`
	Node int     `json:"node" yaml:"node"`
}

// ExpDesc describes an experiment
type ExpDesc struct {
	Name           string              `json:"name" yaml:"name"`
	Horizon        float64             `json:"horizon" yaml:"horizon"`
	Requests       []RequestDesc       `json:"requests" yaml:"requests"`
	RequestStreams []RequestStreamDesc `json:"requeststreams" yaml:"requeststreams"`
	AntStreams     []AntStreamDesc     `json:"antstreams" yaml:"antstreams"`
	Failures       []FailureDesc       `json:"failures" yaml:"failures"`
}

// CreateExpDesc is a constructor
func CreateExpDesc(name string, horizon float64) *ExpDesc {
	return &ExpDesc{Name: name, Horizon: horizon, Requests: []RequestDesc{},
		RequestStreams: []RequestStreamDesc{}, AntStreams: []AntStreamDesc{}, Failures: []FailureDesc{}}
}

func (ed *ExpDesc) AddRequest(t float64, source, target int, duration float64) {
	ed.Requests = append(ed.Requests, RequestDesc{Time: t, Source: source, Target: target, Duration: duration})
}

func (ed *ExpDesc) AddLinkFailure(t float64, a, b int) {
	ed.Failures = append(ed.Failures, FailureDesc{Time: t, Kind: "link", A: a, B: b})
}

func (ed *ExpDesc) AddNodeFailure(t float64, node int) {
	ed.Failures = append(ed.Failures, FailureDesc{Time: t, Kind: "node", Node: node})
}

// knownModel tells whether a distribution name is one the generator can sample
func knownModel(model string) bool {
	_, err := distribution(model)
	return err == nil
}

// Validate reports every problem of the description at once.  Node ids are
// checked against topo when it is given.
func (ed *ExpDesc) Validate(topo *Topology) error {
	var errs *multierror.Error
	checkNode := func(what string, id int) {
		if topo != nil && id >= 0 && !topo.HasNode(id) {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w: %d", what, ErrUnknownNode, id))
		}
	}
	if !(ed.Horizon > 0.0) {
		errs = multierror.Append(errs, fmt.Errorf("%w: horizon must be positive, is %v", ErrInvalidParameter, ed.Horizon))
	}
	for idx, rd := range ed.Requests {
		what := fmt.Sprintf("request %d", idx)
		checkNode(what, rd.Source)
		checkNode(what, rd.Target)
		if rd.Source < 0 || rd.Target < 0 {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w: end points must be given", what, ErrInvalidParameter))
		}
		if rd.Duration <= 0.0 {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w: duration %v", what, ErrInvalidParameter, rd.Duration))
		}
	}
	for idx, rsd := range ed.RequestStreams {
		what := fmt.Sprintf("request stream %d", idx)
		checkNode(what, rsd.Source)
		checkNode(what, rsd.Target)
		if !(rsd.Rate > 0.0) || !(rsd.Holding > 0.0) {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w: rate and holding must be positive", what, ErrInvalidParameter))
		}
		if !knownModel(rsd.Model) || !knownModel(rsd.HoldingModel) {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w: unknown distribution", what, ErrInvalidParameter))
		}
	}
	for idx, asd := range ed.AntStreams {
		what := fmt.Sprintf("ant stream %d", idx)
		checkNode(what, asd.Node)
		if !(asd.Rate > 0.0) || !knownModel(asd.Model) {
			errs = multierror.Append(errs, fmt.Errorf("%s: %w: rate %v, model %q", what, ErrInvalidParameter, asd.Rate, asd.Model))
		}
	}
	for idx, fd := range ed.Failures {
		what := fmt.Sprintf("failure %d", idx)
		switch strings.ToLower(fd.Kind) {
		case "link":
			checkNode(what, fd.A)
			checkNode(what, fd.B)
		case "node":
			checkNode(what, fd.Node)
		default:
			errs = multierror.Append(errs, fmt.Errorf("%s: %w: kind %q", what, ErrInvalidParameter, fd.Kind))
		}
	}
	return errs.ErrorOrNil()
}

// WriteToFile serializes the ExpDesc, as yaml or json depending on the file extension
func (ed *ExpDesc) WriteToFile(filename string) error {
	return writeDesc(filename, ed)
}

// ReadExpDesc deserializes an ExpDesc from dict, or from the named file when dict is empty
func ReadExpDesc(filename string, useYAML bool, dict []byte) (*ExpDesc, error) {
	var err error
	if len(dict) == 0 {
		dict, err = readDescFile(filename, "experiment")
		if err != nil {
			return nil, err
		}
	}
	example := ExpDesc{}
	if useYAML {
		err = yaml.Unmarshal(dict, &example)
	} else {
		err = json.Unmarshal(dict, &example)
	}
	if err != nil {
		return nil, err
	}
	return &example, nil
}
