package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"

	"github.com/mcdev12/nexora/go/internal/focus"
	"github.com/mcdev12/nexora/go/internal/models"
	"github.com/mcdev12/nexora/go/internal/rpc"
	"github.com/mcdev12/nexora/go/internal/timer"
)

type modeFlags struct {
	name    string
	hours   int
	minutes int
}

func (f *modeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "session name (custom mode)")
	cmd.Flags().IntVar(&f.hours, "hours", 0, "session hours (custom mode)")
	cmd.Flags().IntVar(&f.minutes, "minutes", 25, "session minutes (custom mode)")
}

func (f *modeFlags) mode(modeType string) (models.FocusMode, error) {
	if models.FocusModeType(modeType) == models.FocusModeCustom {
		return focus.ValidateCustomMode(f.name, f.hours, f.minutes)
	}
	return focus.ModeByType(models.FocusModeType(modeType))
}

func newTimerCmd(flags *globalFlags) *cobra.Command {
	var (
		mf     modeFlags
		cycles int
	)

	cmd := &cobra.Command{
		Use:       "timer [pomodoro|deepwork|custom]",
		Short:     "Run a focus session in the foreground",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(models.FocusModePomodoro), string(models.FocusModeDeepWork), string(models.FocusModeCustom)},
		RunE: func(cmd *cobra.Command, args []string) error {
			modeType := string(models.FocusModePomodoro)
			if len(args) == 1 {
				modeType = args[0]
			}
			mode, err := mf.mode(modeType)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			services, err := setupServices(ctx, cfg, clockwork.NewRealClock())
			if err != nil {
				return err
			}
			defer services.Close()
			services.Start(ctx)

			return runTimer(ctx, cmd.OutOrStdout(), services.Focus, mode, cycles)
		},
	}

	mf.register(cmd)
	cmd.Flags().IntVar(&cycles, "cycles", 1, "focus phases to complete before exiting (0 runs until interrupted)")
	return cmd
}

// runTimer counts mode down, printing every event, until the session completes,
// cycles focus phases have finished or ctx is cancelled.
func runTimer(ctx context.Context, out io.Writer, app *focus.App, mode models.FocusMode, cycles int) error {
	done := make(chan struct{})
	var (
		once     sync.Once
		finished atomic.Int32
	)
	unsub := app.Subscribe(func(e timer.Event) {
		printEvent(out, e)
		switch e.Type {
		case timer.EventFocusComplete:
			if n := finished.Add(1); cycles > 0 && int(n) >= cycles {
				once.Do(func() { close(done) })
			}
		case timer.EventSessionComplete:
			once.Do(func() { close(done) })
		}
	})
	defer unsub()

	if _, err := app.Select(ctx, mode); err != nil {
		return err
	}
	if _, err := app.Start(ctx); err != nil {
		return err
	}

	select {
	case <-done:
	case <-ctx.Done():
	}
	if _, err := app.Stop(context.Background()); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d focus phase(s) completed\n", finished.Load())
	return nil
}

func printEvent(out io.Writer, e timer.Event) {
	if e.Type == timer.EventTick {
		fmt.Fprintf(out, "\r%-5s %s", e.Snapshot.Phase, e.Snapshot.Display)
		return
	}
	fmt.Fprintf(out, "\n%s: %s (%s, %s left)\n", e.Type, e.Snapshot.Mode.Name, e.Snapshot.Phase, e.Snapshot.Display)
}

func printSnapshot(out io.Writer, snap timer.Snapshot) {
	fmt.Fprintf(out, "%s  %s  %s  %s  sessions=%d\n",
		snap.Mode.Name, snap.Phase, snap.Status, snap.Display, snap.CompletedSessions)
}

func newRemoteCmd() *cobra.Command {
	var (
		addr string
		mf   modeFlags
	)

	client := func() *rpc.TimerClient {
		return rpc.NewTimerClient(http.DefaultClient, addr)
	}
	control := func(use, short string, fn func(c *rpc.TimerClient, ctx context.Context) (timer.Snapshot, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				snap, err := fn(client(), cmd.Context())
				if err != nil {
					return err
				}
				printSnapshot(cmd.OutOrStdout(), snap)
				return nil
			},
		}
	}

	cmd := &cobra.Command{
		Use:   "remote",
		Short: "Control the timer of a running daemon",
	}
	cmd.PersistentFlags().StringVar(&addr, "addr", "http://localhost:8080", "daemon base URL")

	cmd.AddCommand(control("state", "Show the timer state", (*rpc.TimerClient).GetState))
	cmd.AddCommand(control("start", "Start or resume the timer", (*rpc.TimerClient).Start))
	cmd.AddCommand(control("pause", "Pause the timer", (*rpc.TimerClient).Pause))
	cmd.AddCommand(control("stop", "Stop and reset the timer", (*rpc.TimerClient).Stop))

	sel := &cobra.Command{
		Use:   "select [pomodoro|deepwork|custom]",
		Short: "Select the focus mode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := client().Select(cmd.Context(), models.FocusModeType(args[0]), mf.name, mf.hours, mf.minutes)
			if err != nil {
				return err
			}
			printSnapshot(cmd.OutOrStdout(), snap)
			return nil
		},
	}
	mf.register(sel)
	cmd.AddCommand(sel)

	return cmd
}
