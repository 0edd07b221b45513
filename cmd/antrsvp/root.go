package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	logLevel string
	logPath  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "antrsvp",
	Short: "Ant-routed lightpath signaling simulator",
	Long: `antrsvp simulates the set-up, failure and restoration of lightpaths in a
wavelength-routed optical network.  Routing tables are kept by ants; lightpaths
are reserved hop by hop by PATH and RESV messages.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "info", "debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logPath, "log-file", "", "also write the log to this file")
}
