package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	goGate "github.com/MrEthical07/goGate"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

type dryRunOptions struct {
	tick  time.Duration
	stay  bool
	quiet bool
}

func newDryRunCommand(opts *rootOptions) *cobra.Command {
	dr := &dryRunOptions{}

	cmd := &cobra.Command{
		Use:   "dryrun",
		Short: "Walk the configured checkpoints once and print the issued key",
		Long: `Walk the configured checkpoints against a live engine: open each link,
report that the page lost foreground, wait out the countdown and verify.

--tick shortens a countdown second, --stay skips the foreground-loss report
to show how verification is rejected.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer rt.Close()

			cfg := rt.settings.EngineConfig()
			cfg.Flow.TickInterval = dr.tick
			cfg.Metrics.Enabled = false
			b, err := rt.builder(cfg)
			if err != nil {
				return err
			}
			engine, err := b.Build()
			if err != nil {
				return err
			}
			defer engine.Close()

			return runDryRun(cmd.Context(), engine, dr, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().DurationVar(&dr.tick, "tick", time.Second, "Length of one countdown second")
	cmd.Flags().BoolVar(&dr.stay, "stay", false, "Do not report foreground loss")
	cmd.Flags().BoolVarP(&dr.quiet, "quiet", "q", false, "Hide progress bars")
	return cmd
}

func runDryRun(ctx context.Context, engine *goGate.Engine, dr *dryRunOptions, out, progress io.Writer) error {
	if dr.quiet {
		progress = io.Discard
	}

	view, err := engine.CreateSession(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = engine.EndSession(context.Background(), view.ID) }()

	fmt.Fprintf(out, "%s: %d checkpoint(s)\n", view.AppName, view.TotalCheckpoints)
	if view, err = engine.Start(ctx, view.ID); err != nil {
		return err
	}

	for view.Step == goGate.StepCheckpoint {
		i := view.CheckpointIndex
		cp := view.Checkpoint

		target, err := engine.OpenLink(ctx, view.ID, i)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "[%d/%d] %s -> %s\n", i+1, view.TotalCheckpoints, cp.Title, target)

		if !dr.stay {
			if _, err := engine.ReportForegroundLoss(ctx, view.ID, i); err != nil {
				return err
			}
		}

		if err := waitReady(ctx, engine, view.ID, cp, dr.tick, progress); err != nil {
			return err
		}

		res, err := engine.Verify(ctx, view.ID, i)
		if errors.Is(err, goGate.ErrLinkNotOpened) {
			fmt.Fprintln(out, res.Session.Checkpoint.Message)
			return err
		}
		if err != nil {
			return err
		}
		view = res.Session
	}

	if view.Key == nil {
		return fmt.Errorf("flow ended in step %s without a key", view.Step)
	}
	fmt.Fprintf(out, "key: %s\n", view.Key.Value)
	fmt.Fprintf(out, "expires: %s\n", view.Key.ExpiresAt.Format(time.RFC3339))
	return nil
}

// waitReady polls the session until the checkpoint countdown completes.
func waitReady(ctx context.Context, engine *goGate.Engine, id string, cp *goGate.CheckpointView, tick time.Duration, progress io.Writer) error {
	var bar *progressbar.ProgressBar
	if cp.WaitDurationSeconds > 0 {
		bar = progressbar.NewOptions(cp.WaitDurationSeconds,
			progressbar.OptionSetWriter(progress),
			progressbar.OptionSetDescription(cp.Title),
			progressbar.OptionSetWidth(30),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	poll := tick / 4
	if poll < time.Millisecond {
		poll = time.Millisecond
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		view, err := engine.Session(ctx, id)
		if err != nil {
			return err
		}
		cv := view.Checkpoint
		if cv == nil {
			return fmt.Errorf("session left checkpoint step while waiting")
		}
		if bar != nil {
			_ = bar.Set(cp.WaitDurationSeconds - cv.RemainingSeconds)
		}
		if cv.Phase == goGate.PhaseReady {
			if bar != nil {
				_ = bar.Finish()
			}
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
