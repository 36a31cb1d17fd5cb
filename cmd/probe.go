package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/goplayer/internal/adapter/mediainfo"
	"github.com/tejashwikalptaru/goplayer/internal/logger"
)

var errNothingPlayable = errors.New("nothing playable found")

func newProbeCommand(global *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "probe file|folder|url...",
		Short: "Show the playlist entries the given targets would produce",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := global.loadSettings()
			if err != nil {
				return err
			}

			loggerCfg := logger.FromSettings(settings.Log.Level, settings.Log.Format)
			loggerCfg.Output = cmd.ErrOrStderr()
			prober := mediainfo.NewProber(logger.NewLogger(loggerCfg), nil)

			items, probeErr := prober.ProbeAll(cmd.Context(), args, nil)
			if probeErr != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "skipped:", probeErr)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "#\tTITLE\tSUBTITLE\tURI")
			for i, item := range items {
				subtitle := item.SubtitleURI
				if subtitle == "" {
					subtitle = "-"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i+1, item.Title, subtitle, item.URI)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if len(items) == 0 {
				return errNothingPlayable
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print entries as JSON")
	return cmd
}
