package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/unkn0wn-root/tipcache"
	"github.com/unkn0wn-root/tipcache/api"
	"github.com/unkn0wn-root/tipcache/internal/config"
	"github.com/unkn0wn-root/tipcache/internal/devserver"
	"github.com/unkn0wn-root/tipcache/tooltip"
)

var defaultHoverIDs = []string{"site-1", "site-2", "site-42", "site-1", "site-99", "site-404"}

type hoverOptions struct {
	backend  string
	format   string
	embedded bool
	ids      []string
	dwell    time.Duration
	gap      time.Duration
	plain    bool
}

func newHoverCommand(root *rootOptions) *cobra.Command {
	opts := &hoverOptions{}

	cmd := &cobra.Command{
		Use:   "hover",
		Short: "Replay hover movements over a listing and print the tooltips",
		Long: `Replay pointer movements over a simulated listing of the given website ids,
followed by a docker item and an icon button, and print every tooltip shown.

Each item is hovered for --dwell and left for --gap. Repeated ids exercise
the cache; unknown or failing ids show the error tooltip. With --embedded a
fixture backend is started on a loopback port for the duration of the run.`,
		Example: `  tipdash hover --embedded
  tipdash hover --backend http://127.0.0.1:8787 --ids site-1,site-3 --format cbor`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if opts.backend != "" {
				cfg.Backend.URL = opts.backend
			}
			if opts.format != "" {
				cfg.Backend.Format = opts.format
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			profile := termenv.EnvColorProfile()
			if opts.plain {
				profile = termenv.Ascii
			}
			out := cmd.OutOrStdout()
			log := slog.Default()

			run := runHover
			if opts.embedded {
				run = runEmbedded
			}
			if err := run(ctx, cfg, opts, out, profile, log); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.backend, "backend", "", "backend base URL (default from config)")
	cmd.Flags().StringVar(&opts.format, "format", "", "wire format to request: json or cbor")
	cmd.Flags().BoolVar(&opts.embedded, "embedded", false, "start a fixture backend for this run")
	cmd.Flags().StringSliceVar(&opts.ids, "ids", defaultHoverIDs, "website ids to hover, in order")
	cmd.Flags().DurationVar(&opts.dwell, "dwell", 600*time.Millisecond, "time spent on each item")
	cmd.Flags().DurationVar(&opts.gap, "gap", 400*time.Millisecond, "time between items")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "disable colors")

	return cmd
}

// runEmbedded serves the fixtures on a loopback port and runs the scenario
// against it; the first failure stops both.
func runEmbedded(ctx context.Context, cfg *config.Config, opts *hoverOptions, out io.Writer, profile termenv.Profile, log *slog.Logger) error {
	fx, err := loadFixtures(cfg.Serve.Fixtures)
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	cfg.Backend.URL = "http://" + ln.Addr().String()

	g, gctx := errgroup.WithContext(ctx)
	srvCtx, stopServer := context.WithCancel(gctx)
	g.Go(func() error {
		return serveUntil(srvCtx, ln, devserver.New(fx, log), log)
	})
	g.Go(func() error {
		defer stopServer()
		return runHover(gctx, cfg, opts, out, profile, log)
	})
	return g.Wait()
}

func runHover(ctx context.Context, cfg *config.Config, opts *hoverOptions, out io.Writer, profile termenv.Profile, log *slog.Logger) error {
	client, err := api.NewClient(cfg.Backend.URL, cfg.ClientOptions(log)...)
	if err != nil {
		return err
	}
	co := tipcache.NewCoordinator(client.Website, cfg.CoordinatorConfig(log))
	defer co.Close()

	sc := newScene(out, opts.ids, profile)
	ctrl := tooltip.New(sc, sc, co, cfg.TooltipConfig(log))
	defer ctrl.Destroy()

	for _, it := range sc.items {
		sc.hover(it)
		ctrl.OnPointerEnter(tooltip.Event{Target: it})
		if err := pause(ctx, opts.dwell); err != nil {
			return err
		}
		sc.hover(nil)
		ctrl.OnPointerLeave(tooltip.Event{Target: it})
		if err := pause(ctx, opts.gap); err != nil {
			return err
		}
	}

	// let the last error tooltip dismiss itself
	if err := pause(ctx, cfg.TooltipConfig(nil).ErrorDismiss); err != nil {
		return err
	}
	printStats(out, co.Stats())
	return nil
}

func printStats(w io.Writer, st tipcache.CoordinatorStats) {
	fmt.Fprintf(w, "\nrequests: %d fetched, %d from cache, %d joined, %d merged, %d queued, %d cancelled, %d failed\n",
		st.Fetches, st.Hits, st.Joins, st.Merges, st.Queued, st.Cancelled, st.Failures)
	fmt.Fprintf(w, "cache: %d/%d entries, hit ratio %.2f, %d evicted, %d expired\n",
		st.Cache.Size, st.Cache.Capacity, st.Cache.HitRatio, st.Cache.Evictions, st.Cache.Expirations)
}

func pause(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
