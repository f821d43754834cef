package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"sockroute/internal/config"
	"sockroute/internal/paths"
)

var (
	configFormat string
	configForce  bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage sockroute configuration",
	Long:  "View and manage configuration stored in .sockroute/config.json",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long: `Display the configuration after defaults, config file and environment
overrides are applied.

Examples:
  sockroute config show                # Human-readable summary
  sockroute config show --format json  # Same layout as config.json
  sockroute config show --format toml`,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE:  runConfigInit,
}

var configEnvCmd = &cobra.Command{
	Use:   "env",
	Short: "List supported environment variables",
	Run:   runConfigEnv,
}

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "human", "Output format (human, json, toml, yaml)")
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configEnvCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	format, err := parseFormat(configFormat)
	if err != nil {
		return err
	}
	root, err := projectRoot()
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig(root)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	out := cmd.OutOrStdout()
	if format != FormatHuman {
		s, err := encode(cfg, format)
		if err != nil {
			return err
		}
		fmt.Fprint(out, s)
		return nil
	}

	configPath := paths.ConfigPath(root)
	fmt.Fprintln(out, "sockroute Configuration")
	fmt.Fprintln(out, strings.Repeat("─", 50))
	if _, err := os.Stat(configPath); err == nil {
		fmt.Fprintf(out, "Source: %s\n", configPath)
	} else {
		fmt.Fprintln(out, "Source: defaults (no config file found)")
	}

	var overridden []string
	for _, o := range config.EnvOverrides() {
		if v, ok := os.LookupEnv(o.Name); ok {
			overridden = append(overridden, fmt.Sprintf("  %s=%s → %s", o.Name, v, o.Key))
		}
	}
	if len(overridden) > 0 {
		fmt.Fprintln(out, "\nEnvironment Overrides:")
		for _, line := range overridden {
			fmt.Fprintln(out, line)
		}
	}
	fmt.Fprintln(out)

	fmt.Fprintf(out, "  listen:      %s (%s", cfg.Addr(), cfg.Server.Mode)
	if cfg.Server.Mode == config.ModePool {
		fmt.Fprintf(out, ", %d workers", cfg.Server.Workers)
	}
	fmt.Fprintln(out, ")")
	if cfg.Server.ReadTimeoutSeconds > 0 {
		fmt.Fprintf(out, "  read limit:  %s\n", cfg.ReadTimeout())
	}
	fmt.Fprintf(out, "  web root:    %s\n", cfg.Web.Root)
	if cfg.Catalog.Path != "" {
		fmt.Fprintf(out, "  catalog:     %s\n", cfg.Catalog.Path)
	} else {
		fmt.Fprintf(out, "  catalog:     %d inline entries\n", len(cfg.Catalog.Entries))
	}
	fmt.Fprintf(out, "  chat:        %s at %s\n", cfg.Chat.Backend, cfg.ChatPath(root))
	fmt.Fprintf(out, "  github:      %s (timeout %s, strict errors %v)\n", cfg.Fetch.BaseURL, cfg.FetchTimeout(), cfg.Fetch.StrictErrors)
	fmt.Fprintf(out, "  logging:     %s, %s\n", cfg.Logging.Format, cfg.Logging.Level)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(out, "\nInvalid: %v\n", err)
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}

	configPath := paths.ConfigPath(root)
	if _, err := os.Stat(configPath); err == nil && !configForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := config.DefaultConfig().Save(root); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", configPath)
	return nil
}

func runConfigEnv(cmd *cobra.Command, args []string) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Supported environment variables:")
	fmt.Fprintln(out)
	for _, o := range config.EnvOverrides() {
		fmt.Fprintf(out, "  %-42s %s\n", o.Name, o.Key)
	}
	fmt.Fprintf(out, "\n  %-42s %s\n", paths.StateDirEnvVar, "state directory (default <root>/.sockroute)")
}
