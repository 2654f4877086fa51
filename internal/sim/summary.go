package sim

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/okian/dojo/internal/domain/model"
)

var actionOrder = []model.ActionType{ //nolint:gochecknoglobals // column order
	model.ActionPunch, model.ActionKick, model.ActionBlock, model.ActionDodge,
}

// WriteSummary prints one row per session followed by run totals.
func WriteSummary(w io.Writer, results []Result, stats Stats) error {
	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "SCENARIO\tSESSION\tFRAMES\tDUP\tPUNCH\tKICK\tBLOCK\tDODGE\tKEYFRAMES\tMOTION\tSTATUS")
	for _, r := range results {
		if r.Scenario == "" {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d", r.Scenario, r.SessionID, r.Frames, r.Duplicates)
		for _, t := range actionOrder {
			fmt.Fprintf(tw, "\t%d", r.Actions[t])
		}
		var keyframes int
		for _, n := range r.KeyFrames {
			keyframes += n
		}
		fmt.Fprintf(tw, "\t%d\t%s\t%s\n", keyframes, r.Report.Motion.MotionType, status(r))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	var fps float64
	if stats.Duration > 0 {
		fps = float64(stats.FramesSent) / stats.Duration.Seconds()
	}
	_, err := fmt.Fprintf(w, "\n%d sessions, %d failed, %d frames sent (%d duplicate), %d warnings in %s (%.0f frames/s)\n",
		stats.Sessions, stats.Failed, stats.FramesSent, stats.Duplicates, stats.Warnings,
		stats.Duration.Round(time.Millisecond), fps)
	return err
}

func status(r Result) string {
	switch {
	case r.Err != "":
		return "error: " + r.Err
	case len(r.Warnings) > 0:
		return fmt.Sprintf("%d warnings: %s", len(r.Warnings), r.Warnings[0])
	default:
		return "ok"
	}
}
