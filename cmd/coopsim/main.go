// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command coopsim runs the cooperative scheduler on a simulated single-core
// machine driven by timer, mouse and keyboard interrupts.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "coopsim",
	Short: "Simulate the interrupt-driven cooperative scheduler",
	Long: `coopsim boots a software single-core machine, attaches a periodic timer,
a PS/2 mouse and a keyboard as interrupt sources, and runs the scheduler
against them for a bounded time.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)

	rootCmd.PersistentFlags().String("config", "", "path to a TOML configuration file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
