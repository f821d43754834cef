package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sockroute/internal/version"
)

var versionFormat string

type buildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := parseFormat(versionFormat)
		if err != nil {
			return err
		}
		if format == FormatHuman {
			fmt.Fprintln(cmd.OutOrStdout(), version.Full())
			return nil
		}
		s, err := encode(buildInfo{
			Version:   version.Version,
			Commit:    version.Commit,
			BuildDate: version.BuildDate,
		}, format)
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), s)
		return nil
	},
}

func init() {
	versionCmd.Flags().StringVar(&versionFormat, "format", "human", "Output format (human, json, toml, yaml)")
	rootCmd.AddCommand(versionCmd)
}
