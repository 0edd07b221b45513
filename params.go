package antrsvp

// params.go holds the tunables of the routing and signaling logic.
// ParamDesc is the serializable form read from a description file,
// Params the validated form the simulation runs with.

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// NodeVariant selects which node processor runs at every node
type NodeVariant int

const (
	AntNetNodeVariant NodeVariant = iota
	CrankbackNodeVariant
)

func (nv NodeVariant) String() string {
	if nv == CrankbackNodeVariant {
		return "crankback"
	}
	return "antnet"
}

// ParseNodeVariant accepts "antnet", and "crankback" or "lsr"
func ParseNodeVariant(name string) (NodeVariant, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "antnet", "":
		return AntNetNodeVariant, nil
	case "crankback", "lsr":
		return CrankbackNodeVariant, nil
	}
	return AntNetNodeVariant, fmt.Errorf("%w: node variant %q", ErrInvalidParameter, name)
}

// ReroutingScope says where a failed reservation may be retried
type ReroutingScope int

const (
	NoRerouting ReroutingScope = iota
	SegmentRerouting
	EndToEndRerouting
)

func (rs ReroutingScope) String() string {
	switch rs {
	case SegmentRerouting:
		return "segment"
	case EndToEndRerouting:
		return "end-to-end"
	}
	return "none"
}

func ParseReroutingScope(name string) (ReroutingScope, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none", "":
		return NoRerouting, nil
	case "segment":
		return SegmentRerouting, nil
	case "end-to-end", "endtoend", "end_to_end":
		return EndToEndRerouting, nil
	}
	return NoRerouting, fmt.Errorf("%w: rerouting scope %q", ErrInvalidParameter, name)
}

// ParamDesc is the serializable description of the tunables
type ParamDesc struct {
	Variant     string `json:"variant" yaml:"variant"`
	Wavelengths int    `json:"wavelengths" yaml:"wavelengths"`

	// ants
	HopLimit     int     `json:"hoplimit" yaml:"hoplimit"`
	AntBaseBytes int     `json:"antbasebytes" yaml:"antbasebytes"`
	BytesPerHop  int     `json:"bytesperhop" yaml:"bytesperhop"`
	Alpha        float64 `json:"alpha" yaml:"alpha"`
	Power        float64 `json:"power" yaml:"power"`

	// reinforcement
	ZFactor         float64 `json:"zfactor" yaml:"zfactor"`
	C1              float64 `json:"c1" yaml:"c1"`
	C2              float64 `json:"c2" yaml:"c2"`
	Amplifier       float64 `json:"amplifier" yaml:"amplifier"`
	ExpFactor       float64 `json:"expfactor" yaml:"expfactor"`
	WindowReduction float64 `json:"windowreduction" yaml:"windowreduction"`

	// signaling
	HoldOff     float64 `json:"holdoff" yaml:"holdoff"`
	AntRate     float64 `json:"antrate" yaml:"antrate"`
	MaxTries    int     `json:"maxtries" yaml:"maxtries"`
	MaxReroutes int     `json:"maxreroutes" yaml:"maxreroutes"`
	Policy      string  `json:"policy" yaml:"policy"`
	Scope       string  `json:"scope" yaml:"scope"`
	FaultDelay  float64 `json:"faultdelay" yaml:"faultdelay"`

	// bookkeeping
	AntSeed     int     `json:"antseed" yaml:"antseed"`
	BckgrndSeed int     `json:"bckgrndseed" yaml:"bckgrndseed"`
	UsageWindow int     `json:"usagewindow" yaml:"usagewindow"`
	TimeSlice   float64 `json:"timeslice" yaml:"timeslice"`
}

// DefaultParamDesc returns the tunables an experiment starts from
func DefaultParamDesc() *ParamDesc {
	return &ParamDesc{
		Variant:         "antnet",
		Wavelengths:     8,
		HopLimit:        30,
		AntBaseBytes:    24,
		BytesPerHop:     8,
		Alpha:           0.45,
		Power:           1.0,
		ZFactor:         1.7,
		C1:              0.7,
		C2:              0.3,
		Amplifier:       10.0,
		ExpFactor:       0.005,
		WindowReduction: 0.3,
		HoldOff:         0.01,
		AntRate:         1000.0,
		MaxTries:        3,
		MaxReroutes:     3,
		Policy:          "first-fit",
		Scope:           "end-to-end",
		FaultDelay:      0.001,
		TimeSlice:       1.0,
	}
}

// Validate reports every out-of-range value at once
func (pd *ParamDesc) Validate() error {
	var errs *multierror.Error
	positive := func(name string, v float64) {
		if !(v > 0.0) {
			errs = multierror.Append(errs, fmt.Errorf("%w: %s must be positive, is %v", ErrInvalidParameter, name, v))
		}
	}
	nonNegative := func(name string, v float64) {
		if v < 0.0 {
			errs = multierror.Append(errs, fmt.Errorf("%w: %s must not be negative, is %v", ErrInvalidParameter, name, v))
		}
	}
	positive("wavelengths", float64(pd.Wavelengths))
	positive("hoplimit", float64(pd.HopLimit))
	nonNegative("antbasebytes", float64(pd.AntBaseBytes))
	nonNegative("bytesperhop", float64(pd.BytesPerHop))
	nonNegative("alpha", pd.Alpha)
	positive("power", pd.Power)
	positive("zfactor", pd.ZFactor)
	nonNegative("c1", pd.C1)
	nonNegative("c2", pd.C2)
	positive("amplifier", pd.Amplifier)
	if !(pd.ExpFactor > 0.0 && pd.ExpFactor <= 1.0) {
		errs = multierror.Append(errs, fmt.Errorf("%w: expfactor must lie in (0,1], is %v", ErrInvalidParameter, pd.ExpFactor))
	}
	positive("windowreduction", pd.WindowReduction)
	nonNegative("holdoff", pd.HoldOff)
	nonNegative("antrate", pd.AntRate)
	positive("maxtries", float64(pd.MaxTries))
	nonNegative("maxreroutes", float64(pd.MaxReroutes))
	nonNegative("faultdelay", pd.FaultDelay)
	nonNegative("usagewindow", float64(pd.UsageWindow))
	nonNegative("timeslice", pd.TimeSlice)

	if _, err := ParseNodeVariant(pd.Variant); err != nil {
		errs = multierror.Append(errs, err)
	}
	if _, err := ParseWavelengthPolicy(pd.Policy); err != nil {
		errs = multierror.Append(errs, err)
	}
	if _, err := ParseReroutingScope(pd.Scope); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs.ErrorOrNil()
}

// Params is the validated set of tunables
type Params struct {
	Variant         NodeVariant
	Wavelengths     int
	HopLimit        int
	AntBaseBytes    int
	BytesPerHop     int
	Alpha           float64
	Power           float64
	ZFactor         float64
	C1, C2          float64
	Amplifier       float64
	ExpFactor       float64
	WindowReduction float64
	HoldOff         float64
	AntRate         float64
	MaxTries        int
	MaxReroutes     int
	Policy          WavelengthPolicy
	Scope           ReroutingScope
	FaultDelay      float64
	AntSeed         int
	BckgrndSeed     int
	UsageWindow     int
	TimeSlice       float64
}

// Params validates the description and converts it
func (pd *ParamDesc) Params() (*Params, error) {
	if err := pd.Validate(); err != nil {
		return nil, err
	}
	variant, _ := ParseNodeVariant(pd.Variant)
	policy, _ := ParseWavelengthPolicy(pd.Policy)
	scope, _ := ParseReroutingScope(pd.Scope)

	return &Params{Variant: variant, Wavelengths: pd.Wavelengths, HopLimit: pd.HopLimit,
		AntBaseBytes: pd.AntBaseBytes, BytesPerHop: pd.BytesPerHop, Alpha: pd.Alpha, Power: pd.Power,
		ZFactor: pd.ZFactor, C1: pd.C1, C2: pd.C2, Amplifier: pd.Amplifier, ExpFactor: pd.ExpFactor,
		WindowReduction: pd.WindowReduction, HoldOff: pd.HoldOff, AntRate: pd.AntRate,
		MaxTries: pd.MaxTries, MaxReroutes: pd.MaxReroutes, Policy: policy, Scope: scope,
		FaultDelay: pd.FaultDelay, AntSeed: pd.AntSeed, BckgrndSeed: pd.BckgrndSeed,
		UsageWindow: pd.UsageWindow, TimeSlice: pd.TimeSlice}, nil
}

// DefaultParams is DefaultParamDesc, converted
func DefaultParams() *Params {
	params, err := DefaultParamDesc().Params()
	if err != nil {
		panic(err)
	}
	return params
}

// reinforcement builds the policy the nodes score backward ants with
func (params *Params) reinforcement() ReinforcementPolicy {
	return &AntNetReinforcement{Z: params.ZFactor, C1: params.C1, C2: params.C2, Amplifier: params.Amplifier}
}

// antPower is the exponent applied to free-wavelength counts by the ant heuristic
func (params *Params) antPower() float64 {
	if params.Variant == CrankbackNodeVariant {
		return params.Power
	}
	return 1.0
}

// WriteToFile serializes the ParamDesc, as yaml or json depending on the file extension
func (pd *ParamDesc) WriteToFile(filename string) error {
	return writeDesc(filename, pd)
}

// ReadParamDesc deserializes a ParamDesc from dict, or from the named file when dict is empty.
// Fields absent from the input keep their default values.
func ReadParamDesc(filename string, useYAML bool, dict []byte) (*ParamDesc, error) {
	var err error
	if len(dict) == 0 {
		dict, err = readDescFile(filename, "parameters")
		if err != nil {
			return nil, err
		}
	}
	example := DefaultParamDesc()
	if useYAML {
		err = yaml.Unmarshal(dict, example)
	} else {
		err = json.Unmarshal(dict, example)
	}
	if err != nil {
		return nil, err
	}
	return example, nil
}

// readDescFile reads a description file, the error naming what it was meant to describe
func readDescFile(filename, what string) ([]byte, error) {
	fileInfo, err := os.Stat(filename)
	if err != nil || fileInfo.IsDir() {
		return nil, fmt.Errorf("%s description %s does not exist or cannot be read", what, filename)
	}
	return os.ReadFile(filename)
}

// writeDesc serializes a description; the file extension picks yaml or json
func writeDesc(filename string, desc any) error {
	pathExt := path.Ext(filename)
	var bytes []byte
	var merr error

	switch pathExt {
	case ".yaml", ".YAML", ".yml":
		bytes, merr = yaml.Marshal(desc)
	case ".json", ".JSON":
		bytes, merr = json.MarshalIndent(desc, "", "\t")
	default:
		return fmt.Errorf("%s: extension must be .yaml, .yml or .json", filename)
	}
	if merr != nil {
		return merr
	}
	return os.WriteFile(filename, bytes, 0o644)
}

// useYAML tells from the file extension whether a description is yaml
func useYAML(filename string) bool {
	pathExt := path.Ext(filename)
	return pathExt == ".yaml" || pathExt == ".YAML" || pathExt == ".yml"
}
