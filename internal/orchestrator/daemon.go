package orchestrator

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/adamancini/planetsync/internal/types"
)

// RunDaemon runs update cycles forever at the configured interval,
// until ctx is cancelled. A failed cycle is logged and counted but
// never stops the loop. When a metrics address is configured, a
// Prometheus endpoint is served alongside the loop.
func (o *Orchestrator) RunDaemon(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if addr := o.cfg.MetricsAddress; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: addr, Handler: mux}

		g.Go(func() error {
			o.log.Info("serving metrics", "address", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		o.log.Info("daemon started", "interval", o.cfg.Interval().String())
		for {
			out := o.RunCycle(ctx, false)
			o.logOutcome(out)

			select {
			case <-ctx.Done():
				o.log.Info("daemon stopping")
				return ctx.Err()
			case <-time.After(o.cfg.Interval()):
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (o *Orchestrator) logOutcome(out *Outcome) {
	switch out.Result {
	case types.ResultNoChange:
		o.log.Debug("cycle complete", "result", out.Result.String())
	case types.ResultUpdated:
		o.log.Info("cycle complete", "result", out.Result.String(),
			"added", out.Added, "removed", out.Removed)
	case types.ResultRolledBack:
		o.log.Warn("cycle complete", "result", out.Result.String(),
			"reason", out.Reason, "error", out.Err)
	default:
		o.log.Error("cycle complete", "result", out.Result.String(),
			"reason", out.Reason, "error", out.Err)
	}
}
