package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var catalogFormat string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect the image catalog served by /json",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog entries in order",
	RunE:  runCatalogList,
}

func init() {
	catalogListCmd.Flags().StringVar(&catalogFormat, "format", "human", "Output format (human, json, toml, yaml)")

	catalogCmd.AddCommand(catalogListCmd)
	rootCmd.AddCommand(catalogCmd)
}

// catalogListing is the machine-readable form; it matches the catalog file layout.
type catalogListing struct {
	Images []catalogImage `json:"images"`
}

type catalogImage struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

func runCatalogList(cmd *cobra.Command, args []string) error {
	format, err := parseFormat(catalogFormat)
	if err != nil {
		return err
	}
	root, err := projectRoot()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	cat, err := loadCatalog(root, cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format != FormatHuman {
		var listing catalogListing
		for _, e := range cat.Entries() {
			listing.Images = append(listing.Images, catalogImage{Label: e.Label, URL: e.URL})
		}
		s, err := encode(listing, format)
		if err != nil {
			return err
		}
		fmt.Fprint(out, s)
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tLABEL\tURL")
	for i, e := range cat.Entries() {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", i, e.Label, e.URL)
	}
	return tw.Flush()
}
