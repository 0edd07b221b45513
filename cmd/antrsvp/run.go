package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/iti/antrsvp"
	"github.com/iti/evt/evtm"
	"github.com/spf13/cobra"
)

var (
	topoFile   string
	paramsFile string
	expFile    string
	traceFile  string
)

// runCmd runs one experiment and prints its summary
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run an experiment",
	Long:  `Reads the topology, parameter and experiment descriptions, runs the experiment to its horizon and prints a summary as json.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := antrsvp.ParseLogLevel(logLevel)
		if err != nil {
			return err
		}
		logger, err := antrsvp.NewLogger(level, logPath)
		if err != nil {
			return err
		}
		if len(traceFile) > 0 {
			if _, err := antrsvp.CheckOutputFiles([]string{traceFile}); err != nil {
				return err
			}
		}

		syn := map[string]string{"topo": topoFile, "params": paramsFile, "exp": expFile}
		x, err := antrsvp.BuildExperiment(evtm.New(), syn, logger, len(traceFile) > 0)
		if err != nil {
			return err
		}
		sum := x.Run()

		if len(traceFile) > 0 {
			if err := x.Trace.WriteToFile(traceFile); err != nil {
				return err
			}
		}
		bytes, err := json.MarshalIndent(sum, "", "\t")
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, string(bytes))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&topoFile, "topo", "t", "", "topology description (yaml or json)")
	runCmd.Flags().StringVarP(&paramsFile, "params", "p", "", "parameter description, defaults when absent")
	runCmd.Flags().StringVarP(&expFile, "exp", "e", "", "experiment description")
	runCmd.Flags().StringVar(&traceFile, "trace", "", "write a signaling trace to this file")
	_ = runCmd.MarkFlagRequired("topo")
	_ = runCmd.MarkFlagRequired("exp")
}
