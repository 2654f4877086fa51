package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/dojo/internal/synth"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the built-in scenarios",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "NAME\tFRAMES\tDURATION")
		fmt.Fprintln(w, "----\t------\t--------")
		for _, name := range synth.Scenarios() {
			sc, err := synth.Build(name, 0, 0)
			if err != nil {
				return err
			}
			d := time.Duration(len(sc.Frames)*synth.DefaultStepMS) * time.Millisecond
			fmt.Fprintf(w, "%s\t%d\t%s\n", name, len(sc.Frames), d)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
