package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/peepdrive/peepdrive/internal/blockdev"
	"github.com/peepdrive/peepdrive/internal/config"
	"github.com/peepdrive/peepdrive/internal/lvm"
	"github.com/peepdrive/peepdrive/internal/report"
	"github.com/spf13/cobra"
)

var (
	cfgFile    string
	vgName     string
	outputPath string
	humanSizes bool
	recordRun  bool
)

var rootCmd = &cobra.Command{
	Use:   "peepdrive",
	Short: "LVM topology inventory for disaster-recovery preparation",
	Long: `Peepdrive writes a human-readable inventory of LVM storage topology:
volume groups, the physical volumes composing each (in the order recorded
by the VG's own metadata), and the logical volumes carved from them.

It is strictly read-only. The report captures enough ordering and identity
information to reconstruct a volume group after drive reordering, hardware
replacement, or OS reinstall.`,
	Args:          cobra.NoArgs,
	SilenceErrors: true,
	SilenceUsage:  true,
	Run:           runReport,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is /etc/peepdrive/config.yaml)")

	rootCmd.Flags().StringVar(&vgName, "vg", "", "restrict the report to one volume group")
	rootCmd.Flags().StringVar(&outputPath, "output", "", "destination report file (default peepdrive.txt)")
	rootCmd.Flags().BoolVar(&humanSizes, "human", false, "accepted for compatibility; sizes are always reported in GiB")
	rootCmd.Flags().BoolVar(&recordRun, "record", false, "record a run summary in the history database")

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

func runReport(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(2)
	}

	// Required query tools are checked once, before anything else runs.
	if err := lvm.CheckTools(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(3)
	}
	if err := blockdev.CheckTools(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(3)
	}

	out := outputPath
	if out == "" {
		out = cfg.Output
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	gen := &report.Generator{
		LVM:      lvm.NewClient(),
		Devices:  blockdev.NewResolver(),
		Hostname: hostname,
	}

	sum, err := gen.WriteFile(vgName, out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if recordRun || cfg.History.Enabled {
		// History is best-effort: a failed recording never fails the run.
		if err := recordRunHistory(cfg, hostname, vgName, out, sum); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not record run history: %v\n", err)
		}
	}

	msg := fmt.Sprintf("Report written to %s (%d lines)", out, sum.Lines)
	if isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Printf("\033[32m%s\033[0m\n", msg)
	} else {
		fmt.Println(msg)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		rootCmd.Usage()
		os.Exit(2)
	}
}
