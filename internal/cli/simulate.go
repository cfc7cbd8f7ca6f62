package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"rundown-orchestrator/internal/orchestrator"
	"rundown-orchestrator/internal/playout"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type simulateOptions struct {
	file      string
	takes     int
	loopStart string
	loopEnd   string
	queue     string
	queueAt   int
	noColor   bool
}

func newSimulateCmd() *cobra.Command {
	var opts simulateOptions
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run takes through a rundown document and print each step",
		Long: "simulate imports a rundown document into an in-memory playlist, activates it,\n" +
			"optionally sets QuickLoop markers and a queued segment, then takes N times.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.noColor {
				color.NoColor = true
			}
			settings, err := studioSettings(flagStudio)
			if err != nil {
				return err
			}
			return runSimulation(cmd.Context(), cmd.OutOrStdout(), settings, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Rundown document (YAML or JSON)")
	cmd.Flags().IntVarP(&opts.takes, "takes", "n", 5, "Number of takes")
	cmd.Flags().StringVar(&opts.loopStart, "loop-start", "", `QuickLoop start marker ("part:p3", "segment:seg2", "playlist")`)
	cmd.Flags().StringVar(&opts.loopEnd, "loop-end", "", "QuickLoop end marker")
	cmd.Flags().StringVar(&opts.queue, "queue", "", "Segment to queue")
	cmd.Flags().IntVar(&opts.queueAt, "queue-after", 1, "Queue the segment after this many takes")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "Disable colour output")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

var (
	onAir   = color.New(color.FgHiGreen, color.Bold)
	nextCol = color.New(color.FgCyan)
	loopCol = color.New(color.FgYellow)
	queued  = color.New(color.FgHiMagenta)
	ended   = color.New(color.FgRed)
)

func runSimulation(ctx context.Context, w io.Writer, settings playout.StudioSettings, opts simulateOptions) error {
	doc, err := orchestrator.LoadDocumentFile(opts.file)
	if err != nil {
		return err
	}
	id := playout.PlaylistID(doc.ID)
	if id == "" {
		id = "simulation"
	}

	svc := orchestrator.NewService(orchestrator.NewInMemoryRepository(), settings, orchestrator.WithLogger(log))
	if _, err := svc.ImportPlaylist(ctx, id, doc); err != nil {
		return err
	}
	st, err := svc.Activate(ctx, id)
	if err != nil {
		return err
	}

	for _, m := range []struct {
		role playout.MarkerRole
		spec string
	}{{playout.RoleStart, opts.loopStart}, {playout.RoleEnd, opts.loopEnd}} {
		if m.spec == "" {
			continue
		}
		marker, err := ParseMarker(m.spec)
		if err != nil {
			return fmt.Errorf("--loop-%s: %w", m.role, err)
		}
		if st, err = svc.SetQuickLoopMarker(ctx, id, m.role, marker); err != nil {
			return err
		}
	}

	fmt.Fprintf(w, "playlist %s %q, next %s\n", id, doc.Name, describe(st.Next))

	for i := 1; i <= opts.takes; i++ {
		if opts.queue != "" && i == opts.queueAt+1 {
			if st, err = svc.QueueSegment(ctx, id, playout.SegmentID(opts.queue)); err != nil {
				return err
			}
			queued.Fprintf(w, "queued %s, next %s\n", opts.queue, describe(st.Next))
		}

		var res orchestrator.TakeResult
		st, res, err = svc.Take(ctx, id)
		if errors.Is(err, orchestrator.ErrNoNextPart) {
			ended.Fprintln(w, "nothing left to take")
			break
		}
		if err != nil {
			return err
		}
		writeTake(w, i, st, res)
	}

	fmt.Fprintln(w)
	fmt.Fprint(w, orchestrator.RenderRundown(st))
	return nil
}

func writeTake(w io.Writer, n int, st *orchestrator.PlayoutState, res orchestrator.TakeResult) {
	fmt.Fprintf(w, "take %2d  ", n)
	onAir.Fprintf(w, "%-10s", st.Current.Part.ID)
	fmt.Fprintf(w, " %-24s next ", st.Current.Part.Title)
	nextCol.Fprint(w, describe(st.Next))
	if st.Current.Part.AutoNext {
		loopCol.Fprint(w, " [autonext]")
	}
	if res.ConsumedQueue {
		queued.Fprint(w, " [queued]")
	}
	if res.LoopWrapped {
		loopCol.Fprint(w, " [loop]")
	}
	if res.EndOfRundown {
		ended.Fprint(w, " [end of rundown]")
	}
	fmt.Fprintln(w)
}

func describe(pi *playout.PartInstance) string {
	if pi == nil {
		return "-"
	}
	return string(pi.Part.ID)
}
