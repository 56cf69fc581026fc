package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/peepdrive/peepdrive/internal/config"
	"github.com/peepdrive/peepdrive/internal/history"
	"github.com/peepdrive/peepdrive/internal/report"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded report runs",
	Long: `List report runs recorded in the history database.

Runs are recorded when history is enabled in the config file or the report
is generated with --record. Comparing runs shows whether physical volume
counts or ordering sources changed between captures.`,
	Args: cobra.NoArgs,
	Run:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show per-VG detail for a recorded run",
	Args:  cobra.ExactArgs(1),
	Run:   runHistoryShow,
}

func init() {
	historyCmd.PersistentFlags().String("db", "", "history database path (default is /var/lib/peepdrive/history.db)")
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to show")

	historyCmd.AddCommand(historyShowCmd)
}

func openHistory(cmd *cobra.Command) (*history.DB, error) {
	path, _ := cmd.Flags().GetString("db")
	if path == "" {
		cfg, err := config.Load(cfgFile)
		if err == nil {
			path = cfg.History.Path
		}
	}
	if path == "" {
		path = history.DefaultPath
	}

	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("no history database at %s", path)
	}

	return history.Open(path)
}

func runHistoryList(cmd *cobra.Command, args []string) {
	db, err := openHistory(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	limit, _ := cmd.Flags().GetInt("limit")

	runs, err := db.RecentRuns(limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error querying runs: %v\n", err)
		os.Exit(1)
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded. Generate a report with --record to populate.")
		return
	}

	fmt.Printf("%-10s %-15s %-15s %-12s %4s %4s %4s %10s\n",
		"ID", "AGE", "HOST", "FILTER", "VGS", "PVS", "LVS", "SIZE")
	fmt.Println(strings.Repeat("-", 80))

	for _, r := range runs {
		filter := r.VGFilter
		if filter == "" {
			filter = "-"
		}

		fmt.Printf("%-10s %-15s %-15s %-12s %4d %4d %4d %10s\n",
			shortID(r.ID),
			humanize.Time(r.CreatedAt),
			r.Hostname,
			filter,
			r.VGCount, r.PVCount, r.LVCount,
			humanize.IBytes(uint64(r.TotalBytes)))
	}
}

func runHistoryShow(cmd *cobra.Command, args []string) {
	db, err := openHistory(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	runID := args[0]

	runs, err := db.RecentRuns(1000)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	var match *history.Run
	for _, r := range runs {
		if r.ID == runID || shortID(r.ID) == runID {
			match = r
			break
		}
	}
	if match == nil {
		fmt.Fprintf(os.Stderr, "Run not found: %s\n", runID)
		os.Exit(1)
	}

	fmt.Printf("Run: %s\n", match.ID)
	fmt.Println(strings.Repeat("-", 40))
	fmt.Printf("  Recorded:  %s\n", match.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("  Hostname:  %s\n", match.Hostname)
	fmt.Printf("  Output:    %s\n", match.OutputPath)
	fmt.Printf("  Lines:     %d\n", match.ReportLines)
	fmt.Println()

	vgs, err := db.RunVGs(match.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(vgs) == 0 {
		fmt.Println("No volume groups in this run.")
		return
	}

	fmt.Printf("%-20s %-15s %4s %4s %10s\n", "VG", "ORDER SOURCE", "PVS", "LVS", "SIZE")
	fmt.Println(strings.Repeat("-", 60))
	for _, vg := range vgs {
		fmt.Printf("%-20s %-15s %4d %4d %10s\n",
			vg.VGName, vg.OrderTier, vg.PVCount, vg.LVCount,
			humanize.IBytes(uint64(vg.SizeBytes)))
	}
}

// recordRunHistory stores one run summary after the report has been written.
func recordRunHistory(cfg *config.Config, hostname, vgFilter, outPath string, sum report.Summary) error {
	db, err := history.Open(cfg.History.Path)
	if err != nil {
		return err
	}
	defer db.Close()

	run := &history.Run{
		ID:          uuid.NewString(),
		Hostname:    hostname,
		VGFilter:    vgFilter,
		OutputPath:  outPath,
		VGCount:     len(sum.VGs),
		PVCount:     sum.PVCount(),
		LVCount:     sum.LVCount(),
		ReportLines: sum.Lines,
	}

	vgs := make([]history.RunVG, 0, len(sum.VGs))
	for _, vg := range sum.VGs {
		run.TotalBytes += int64(vg.SizeBytes)
		vgs = append(vgs, history.RunVG{
			RunID:     run.ID,
			VGName:    vg.Name,
			OrderTier: vg.Tier.String(),
			PVCount:   vg.PVCount,
			LVCount:   vg.LVCount,
			SizeBytes: int64(vg.SizeBytes),
		})
	}

	return db.RecordRun(run, vgs)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
