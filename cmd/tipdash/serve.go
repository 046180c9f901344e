package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/unkn0wn-root/tipcache/internal/config"
	"github.com/unkn0wn-root/tipcache/internal/devserver"
)

const shutdownTimeout = 5 * time.Second

func newServeCommand(opts *rootOptions) *cobra.Command {
	var addr, fixtures string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the fixture backend",
		Long: `Run an HTTP backend answering GET /websites/{id} from YAML fixtures.

Responses are JSON unless the client asks for application/cbor. Without
--fixtures the bundled fixture set is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Serve.Addr = addr
			}
			if fixtures != "" {
				cfg.Serve.Fixtures = fixtures
			}

			log := slog.Default()
			fx, err := loadFixtures(cfg.Serve.Fixtures)
			if err != nil {
				return err
			}

			ln, err := net.Listen("tcp", cfg.Serve.Addr)
			if err != nil {
				return fmt.Errorf("failed to listen: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.ErrOrStderr(), "backend listening on http://%s (%d websites)\n", ln.Addr(), len(fx.Websites))
			return serveUntil(ctx, ln, devserver.New(fx, log), log)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default "+config.DefaultServeAddr+")")
	cmd.Flags().StringVar(&fixtures, "fixtures", "", "YAML fixture file")

	return cmd
}

// serveUntil serves h on ln until ctx is done, then shuts down gracefully.
func serveUntil(ctx context.Context, ln net.Listener, h http.Handler, log *slog.Logger) error {
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Debug("backend shutting down", "addr", ln.Addr().String())
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func loadFixtures(path string) (devserver.Fixtures, error) {
	if path == "" {
		return devserver.DefaultFixtures()
	}
	return devserver.LoadFixtures(path)
}
