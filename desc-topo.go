package antrsvp

// desc-topo.go holds the serializable description of a network: named
// nodes and the fiber links joining them.  A TopoDesc can be built in code
// through its Add methods or read from a yaml or json file, and is turned
// into a Topology by BuildTopology.

import (
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// NodeDesc names a node
type NodeDesc struct {
	ID   int    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// LinkDesc describes a bidirectional link between nodes A and B
type LinkDesc struct {
	A           int     `json:"a" yaml:"a"`
	B           int     `json:"b" yaml:"b"`
	Delay       float64 `json:"delay" yaml:"delay"`
	DataRate    float64 `json:"datarate" yaml:"datarate"`
	Wavelengths int     `json:"wavelengths" yaml:"wavelengths"`
}

// TopoDesc describes a network
type TopoDesc struct {
	Name  string     `json:"name" yaml:"name"`
	Nodes []NodeDesc `json:"nodes" yaml:"nodes"`
	Links []LinkDesc `json:"links" yaml:"links"`
}

// CreateTopoDesc is a constructor
func CreateTopoDesc(name string) *TopoDesc {
	return &TopoDesc{Name: name, Nodes: []NodeDesc{}, Links: []LinkDesc{}}
}

// AddNode appends a node.  An empty name is replaced by a default one.
func (td *TopoDesc) AddNode(id int, name string) {
	if name == "" {
		name = fmt.Sprintf("node-%d", id)
	}
	td.Nodes = append(td.Nodes, NodeDesc{ID: id, Name: name})
}

// AddLink appends a link
func (td *TopoDesc) AddLink(a, b int, delay, dataRate float64, wavelengths int) {
	td.Links = append(td.Links, LinkDesc{A: a, B: b, Delay: delay, DataRate: dataRate, Wavelengths: wavelengths})
}

// RingTopoDesc describes n nodes 0..n-1 joined in a ring by identical links
func RingTopoDesc(name string, n int, delay, dataRate float64, wavelengths int) *TopoDesc {
	td := CreateTopoDesc(name)
	for id := 0; id < n; id++ {
		td.AddNode(id, "")
	}
	for id := 0; id < n; id++ {
		td.AddLink(id, (id+1)%n, delay, dataRate, wavelengths)
	}
	return td
}

// Validate reports every problem of the description at once
func (td *TopoDesc) Validate() error {
	var errs *multierror.Error
	ids := make(map[int]bool)
	for _, nd := range td.Nodes {
		if ids[nd.ID] {
			errs = multierror.Append(errs, fmt.Errorf("node id %d declared twice", nd.ID))
		}
		ids[nd.ID] = true
	}

	seen := make(map[edgeKey]bool)
	for idx, ld := range td.Links {
		if !ids[ld.A] || !ids[ld.B] {
			errs = multierror.Append(errs, fmt.Errorf("link %d: %w: %d-%d", idx, ErrUnknownNode, ld.A, ld.B))
		}
		if ld.A == ld.B {
			errs = multierror.Append(errs, fmt.Errorf("link %d: self loop at %d", idx, ld.A))
		}
		key := makeEdgeKey(ld.A, ld.B)
		if seen[key] {
			errs = multierror.Append(errs, fmt.Errorf("link %d: %d-%d declared twice", idx, ld.A, ld.B))
		}
		seen[key] = true
		if ld.Delay < 0.0 {
			errs = multierror.Append(errs, fmt.Errorf("link %d: %w: negative delay %v", idx, ErrInvalidParameter, ld.Delay))
		}
		if ld.DataRate < 0.0 {
			errs = multierror.Append(errs, fmt.Errorf("link %d: %w: negative data rate %v", idx, ErrInvalidParameter, ld.DataRate))
		}
		if ld.Wavelengths <= 0 {
			errs = multierror.Append(errs, fmt.Errorf("link %d: %w: %d wavelengths", idx, ErrInvalidParameter, ld.Wavelengths))
		}
	}
	return errs.ErrorOrNil()
}

// BuildTopology validates the description and builds the network it describes
func (td *TopoDesc) BuildTopology() (*Topology, error) {
	if err := td.Validate(); err != nil {
		return nil, err
	}
	topo := NewTopology()
	for _, nd := range td.Nodes {
		topo.AddNode(nd.ID, nd.Name)
	}
	for _, ld := range td.Links {
		attr := LinkAttr{Delay: ld.Delay, DataRate: ld.DataRate, Wavelengths: ld.Wavelengths}
		if err := topo.AddLink(ld.A, ld.B, attr); err != nil {
			return nil, err
		}
	}
	return topo, nil
}

// WriteToFile serializes the TopoDesc, as yaml or json depending on the file extension
func (td *TopoDesc) WriteToFile(filename string) error {
	return writeDesc(filename, td)
}

// ReadTopoDesc deserializes a TopoDesc from dict, or from the named file when dict is empty
func ReadTopoDesc(filename string, useYAML bool, dict []byte) (*TopoDesc, error) {
	var err error
	if len(dict) == 0 {
		dict, err = readDescFile(filename, "topology")
		if err != nil {
			return nil, err
		}
	}
	example := TopoDesc{}
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
