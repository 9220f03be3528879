package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/celerix-dev/alphabot/internal/config"
	"github.com/celerix-dev/alphabot/internal/engine"
	"github.com/celerix-dev/alphabot/pkg/schema"
	"github.com/spf13/cobra"
)

var (
	envFile    string
	jsonOutput bool
	usageLimit int
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "alphabot",
		Short: "Inspect the AlphaBot checkout ledger",
		Long: `alphabot reads the files maintained by alphabotd.

Environment Variables:
  ALPHABOT_STATE_FILE   Path of the checkout state file (default: checkout.log)
  ALPHABOT_USAGE_LOG    Path of the usage log (default: usage.log)`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional .env file to read settings from")
	root.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON instead of text")

	usage := &cobra.Command{
		Use:   "usage",
		Short: "Show recent commands from the usage log",
		RunE:  runUsage,
	}
	usage.Flags().IntVarP(&usageLimit, "limit", "n", 20, "number of entries to show (0 for all)")

	root.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "Show who holds the workstation",
			RunE:  runStatus,
		},
		usage,
		&cobra.Command{
			Use:   "init",
			Short: "Create the state file as available if it does not exist",
			RunE:  runInit,
		},
	)
	return root
}

func loadConfig() (*config.Config, error) {
	return config.Load(envFile)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sf, err := engine.NewStateFile(cfg.StateFile)
	if err != nil {
		return err
	}
	state, elapsed, err := engine.NewLedger(sf).Status()
	if err != nil {
		return err
	}

	if jsonOutput {
		report := schema.StatusReport{Resource: cfg.ResourceName, Available: state.Free()}
		if !state.Free() {
			report.Holder = state.Holder
			report.Since = &state.Since
			minutes := engine.Minutes(elapsed)
			report.ElapsedMin = &minutes
		}
		return printJSON(cmd, report)
	}

	if state.Free() {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is available!\n", cfg.ResourceName)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is in use by: %s (%s min) since %s\n",
		cfg.ResourceName, state.Holder, engine.ElapsedMinutes(elapsed), state.Since.Format(time.RFC1123))
	return nil
}

func runUsage(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ul, err := engine.NewUsageLog(cfg.UsageLog)
	if err != nil {
		return err
	}
	entries, err := ul.Tail(usageLimit)
	if err != nil {
		return err
	}

	if jsonOutput {
		records := make([]schema.UsageRecord, 0, len(entries))
		for _, e := range entries {
			records = append(records, schema.UsageRecord{Timestamp: e.At, Actor: e.Actor, Text: e.Text})
		}
		return printJSON(cmd, records)
	}

	for _, e := range entries {
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %-24s %s\n", e.At.Format("2006-01-02 15:04:05"), e.Actor, e.Text)
	}
	return nil
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sf, err := engine.NewStateFile(cfg.StateFile)
	if err != nil {
		return err
	}
	created, err := sf.Init(time.Now())
	if err != nil {
		return err
	}
	if created {
		fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", cfg.StateFile)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "%s already exists\n", cfg.StateFile)
	}
	return nil
}

func printJSON(cmd *cobra.Command, v any) error {
	bytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(bytes))
	return nil
}
