package main

import (
	"github.com/spf13/cobra"

	"github.com/okian/dojo/internal/sim"
)

var replayOpts sim.Config

var replayCmd = &cobra.Command{
	Use:   "replay [scenario...]",
	Short: "Stream scenarios into fresh sessions and verify the detected actions",
	Long: `Replay opens one session per scenario (times --repeat), posts its frames in
batches, ends the session and checks the event log and report against what the
scenario contains. With no arguments every built-in scenario is replayed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := replayOpts
		cfg.BaseURL = baseURL
		cfg.Timeout = timeout
		cfg.Scenarios = args
		cfg.Progress = cmd.ErrOrStderr()

		results, stats, err := sim.Run(cmd.Context(), cfg)
		if len(results) > 0 {
			if werr := sim.WriteSummary(cmd.OutOrStdout(), results, stats); werr != nil && err == nil {
				err = werr
			}
		}
		return err
	},
}

func init() {
	f := replayCmd.Flags()
	f.IntVar(&replayOpts.Repeat, "repeat", 1, "sessions opened per scenario")
	f.IntVarP(&replayOpts.Workers, "workers", "w", sim.DefaultWorkers, "sessions replayed concurrently")
	f.IntVarP(&replayOpts.BatchSize, "batch", "b", sim.DefaultBatchSize, "frames per request")
	f.Float64Var(&replayOpts.Jitter, "jitter", 0, "keypoint noise in pixels")
	f.Uint64Var(&replayOpts.Seed, "seed", 1, "noise seed")
	f.Float64Var(&replayOpts.FPS, "fps", 0, "pace frames per second (0 = as fast as possible)")
	f.BoolVar(&replayOpts.Resend, "resend", false, "post every batch twice to exercise deduplication")
	f.BoolVar(&replayOpts.Strict, "strict", false, "fail when verification reports warnings")
	f.IntVar(&replayOpts.Retries, "retries", sim.DefaultRetries, "attempts per batch while the server applies backpressure")
	f.StringVarP(&replayOpts.Output, "output", "o", "", "write results as JSON to this file")
	rootCmd.AddCommand(replayCmd)
}
