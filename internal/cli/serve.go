package cli

import (
	"context"
	stderrors "errors"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/opcmap/policymap/internal/server"
	"github.com/opcmap/policymap/internal/watch"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string
	var watchMode bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the data root as a read-only JSON API",
		Long: `Serve the data root as a read-only JSON API.

By default every request reads the data root afresh. With --watch the data
is loaded once and reloaded whenever a record file changes; requests always
see one complete snapshot.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !cmd.Flags().Changed("addr") {
				addr = c.Config.Server.Addr
			}
			if !cmd.Flags().Changed("watch") {
				watchMode = c.Config.Server.Watch
			}

			loader := c.loader()
			if !watchMode {
				// Fail fast on a missing data root rather than on the first request.
				if _, err := c.loadSnapshot(ctx); err != nil {
					return err
				}
				return ignoreCanceled(server.New(server.LoaderSource{Loader: loader}, c.Logger).ListenAndServe(ctx, addr))
			}

			live, err := server.NewLiveSource(ctx, loader)
			if err != nil {
				return err
			}
			w, err := watch.New(c.Config.DataDir, watch.WithLogger(c.Logger))
			if err != nil {
				return err
			}

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return server.New(live, c.Logger).ListenAndServe(gctx, addr)
			})
			r := &reloader{source: live, logger: loggerFromContext(ctx)}
			g.Go(func() error {
				return w.Run(gctx, r.onChange)
			})
			return ignoreCanceled(g.Wait())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	cmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "reload data when files change")

	return cmd
}

// ignoreCanceled treats cancellation as a clean exit for long-running
// commands.
func ignoreCanceled(err error) error {
	if stderrors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// reloader refreshes live data after each burst of file changes. The
// watcher calls onChange from a single goroutine.
type reloader struct {
	source interface {
		Reload(ctx context.Context) error
	}
	logger *log.Logger

	// failures counts consecutive failed reloads.
	failures int
}

func (r *reloader) onChange(ctx context.Context, changed []string) {
	r.logger.Debug("Reloading", "changed", changed)
	if err := r.source.Reload(ctx); err != nil {
		r.failures++
		r.logger.Warn("Serving stale data", "failed_reloads", r.failures)
		return
	}
	if r.failures > 0 {
		r.logger.Info("Reload recovered", "failed_reloads", r.failures)
	}
	r.failures = 0
}
