package main

import (
	"path/filepath"

	"github.com/iti/antrsvp"
	"github.com/spf13/cobra"
)

var (
	initDir      string
	initExt      string
	ringSize     int
	ringWl       int
	ringDelay    float64
	ringDataRate float64
)

// initCmd writes a starter set of descriptions: a ring network, default parameters
// and an experiment with one request stream, ants from every node and one link failure
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write example input files",
	RunE: func(cmd *cobra.Command, args []string) error {
		topoName := filepath.Join(initDir, "topo"+initExt)
		paramsName := filepath.Join(initDir, "params"+initExt)
		expName := filepath.Join(initDir, "exp"+initExt)
		if _, err := antrsvp.CheckOutputFiles([]string{topoName, paramsName, expName}); err != nil {
			return err
		}

		td := antrsvp.RingTopoDesc("ring", ringSize, ringDelay, ringDataRate, ringWl)
		pd := antrsvp.DefaultParamDesc()
		pd.Wavelengths = ringWl

		xd := antrsvp.CreateExpDesc("ring-example", 10.0)
		xd.RequestStreams = append(xd.RequestStreams, antrsvp.RequestStreamDesc{Name: "background",
			Source: -1, Target: -1, Rate: 5.0, Holding: 1.0, Model: "expon", HoldingModel: "expon"})
		xd.AntStreams = append(xd.AntStreams, antrsvp.AntStreamDesc{Node: -1, Rate: 50.0, Model: "expon"})
		if ringSize > 1 {
			xd.AddLinkFailure(5.0, 0, 1)
		}

		return antrsvp.ReportErrs([]error{td.WriteToFile(topoName), pd.WriteToFile(paramsName),
			xd.WriteToFile(expName)})
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVarP(&initDir, "dir", "d", ".", "directory the files are written to")
	initCmd.Flags().StringVar(&initExt, "ext", ".yaml", "file extension, .yaml or .json")
	initCmd.Flags().IntVarP(&ringSize, "nodes", "n", 6, "number of ring nodes")
	initCmd.Flags().IntVarP(&ringWl, "wavelengths", "w", 8, "wavelengths per link")
	initCmd.Flags().Float64Var(&ringDelay, "delay", 0.001, "propagation delay of a link, seconds")
	initCmd.Flags().Float64Var(&ringDataRate, "datarate", 1e9, "data rate of a link, bits per second")
}
