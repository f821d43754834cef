package main

import (
	"github.com/spf13/cobra"

	"sockroute/internal/version"
)

var (
	// rootFlag is the project directory holding www/ and .sockroute/
	rootFlag  string
	verbosity int
	quiet     bool
)

var rootCmd = &cobra.Command{
	Use:   "sockroute",
	Short: "sockroute - a raw socket request router",
	Long: `sockroute reads line-oriented GET requests straight off TCP connections,
routes the path to a small set of handlers (static pages, random images,
arithmetic, a GitHub proxy, a compatibility score and a shared chat log) and
writes back a status line, one header and the body.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("sockroute version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&rootFlag, "root", ".", "Project directory")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress log output")
}
