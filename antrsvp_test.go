package antrsvp

import (
	"path/filepath"
	"testing"

	"github.com/iti/evt/evtm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeExperiment stores a small ring experiment under dir and returns the file map
func writeExperiment(t *testing.T, dir string, withParams bool) map[string]string {
	t.Helper()
	syn := map[string]string{
		"topo": filepath.Join(dir, "topo.yaml"),
		"exp":  filepath.Join(dir, "exp.json"),
	}
	require.NoError(t, RingTopoDesc("ring", 4, 0.001, 0.0, 2).WriteToFile(syn["topo"]))

	xd := CreateExpDesc("files", 2.0)
	xd.AddRequest(0.5, 0, 2, 1.0)
	require.NoError(t, xd.WriteToFile(syn["exp"]))

	if withParams {
		syn["params"] = filepath.Join(dir, "params.yaml")
		pd := DefaultParamDesc()
		pd.Variant = "crankback"
		pd.Policy = "most-used"
		require.NoError(t, pd.WriteToFile(syn["params"]))
	}
	return syn
}

func TestBuildExperiment(t *testing.T) {
	tests := []struct {
		name       string
		withParams bool
		variant    NodeVariant
	}{
		{"default parameters", false, AntNetNodeVariant},
		{"crankback parameters", true, CrankbackNodeVariant},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)
			syn := writeExperiment(t, t.TempDir(), tc.withParams)

			x, err := BuildExperiment(evtm.New(), syn, discardLogger(), true)
			require.NoError(t, err)
			assert.Equal(tc.variant, x.Params.Variant)
			assert.Equal("files", x.Exp.Name)
			assert.True(x.Trace.Active())

			sum := x.Run()
			assert.Equal(1, sum.Established)
			assert.Equal(0, sum.Blocked)
			assert.NotEmpty(x.Trace.Traces)
		})
	}
}

func TestBuildExperiment_Errors(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	syn := writeExperiment(t, dir, false)

	missing := map[string]string{"topo": syn["topo"], "exp": filepath.Join(dir, "absent.yaml")}
	_, err := BuildExperiment(evtm.New(), missing, discardLogger(), false)
	assert.Error(err)

	xd := CreateExpDesc("bad", 1.0)
	xd.AddRequest(0.1, 0, 11, 1.0)
	_, err = AssembleExperiment(evtm.New(), RingTopoDesc("ring", 4, 0.001, 0.0, 2),
		DefaultParamDesc(), xd, discardLogger(), false)
	assert.ErrorIs(err, ErrUnknownNode)

	pd := DefaultParamDesc()
	pd.Wavelengths = -1
	td := RingTopoDesc("ring", 4, 0.001, 0.0, 0)
	_, err = AssembleExperiment(evtm.New(), td, pd, CreateExpDesc("bad", 1.0), discardLogger(), false)
	assert.ErrorIs(err, ErrInvalidParameter)
	assert.Contains(err.Error(), "wavelengths")
}
