// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"code.hybscloud.com/coop/internal/config"
	"code.hybscloud.com/coop/internal/logging"
	"code.hybscloud.com/coop/internal/sim"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Boot the simulated machine and run the scheduler",
	RunE:  runSimulation,
}

func init() {
	runCmd.Flags().String("duration", "", "override run.duration (e.g. 5s)")
	runCmd.Flags().String("log-level", "", "override log.level (debug|info|warn|error)")
	runCmd.Flags().String("report", "", "write a msgpack run report to this file")
}

// loadConfig reads --config, or the defaults when it is empty.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Config{}, err
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func runSimulation(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if d, _ := cmd.Flags().GetString("duration"); d != "" {
		cfg.Run.Duration = d
	}
	if l, _ := cmd.Flags().GetString("log-level"); l != "" {
		cfg.Log.Level = l
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := logging.NewLogger(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format)
	s, err := sim.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	report, err := s.Run(ctx)
	if err != nil {
		return err
	}

	printReport(cmd.OutOrStdout(), report)

	if path, _ := cmd.Flags().GetString("report"); path != "" {
		data, err := report.MarshalBinary()
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	return nil
}

func printReport(w io.Writer, r sim.Report) {
	head := color.New(color.FgCyan, color.Bold)
	warn := color.New(color.FgYellow)

	head.Fprintln(w, "scheduler")
	fmt.Fprintf(w, "  uptime      %v\n", r.Uptime)
	fmt.Fprintf(w, "  interrupts  %d\n", r.Interrupts)
	fmt.Fprintf(w, "  halts       %d\n", r.Halts)
	fmt.Fprintf(w, "  tasks       adopted=%d completed=%d failed=%d polls=%d\n",
		r.Adopted, r.Completed, r.Failed, r.Polled)

	head.Fprintln(w, "devices")
	fmt.Fprintf(w, "  mouse       states=%d cursor=(%d,%d)\n", r.MouseStates, r.CursorX, r.CursorY)
	fmt.Fprintf(w, "  keyboard    %q\n", r.Keys)
	fmt.Fprintf(w, "  heartbeats  %d\n", r.Heartbeats)
	if r.Dropped > 0 {
		warn.Fprintf(w, "  dropped     %d events\n", r.Dropped)
	}
}
