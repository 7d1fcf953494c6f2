package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ava-labs/crank/rpc"
	"github.com/ava-labs/crank/storage"
	"github.com/ava-labs/crank/trace"
	"github.com/ava-labs/crank/x/programs/runtime"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON-RPC and websocket API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listen != "" {
				opts.cfg.RPC.ListenAddress = listen
			}
			return opts.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "overrides the configured listen address")
	return cmd
}

func (o *rootOptions) serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ledger, err := storage.New(o.cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := ledger.Close(); err != nil {
			o.log.Warn("failed to close ledger", zap.Error(err))
		}
	}()

	tp, shutdownTracing, err := trace.New(&o.cfg.Trace)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			o.log.Warn("failed to stop tracing", zap.Error(err))
		}
	}()

	reg := prometheus.NewRegistry()
	if err := reg.Register(collectors.NewGoCollector()); err != nil {
		return err
	}
	rt, err := o.newRuntime(
		runtime.WithLedger(ledger),
		runtime.WithRegisterer(reg),
		runtime.WithTracerProvider(tp),
	)
	if err != nil {
		return err
	}
	server, err := rpc.NewServer(o.log, &o.cfg.RPC, rt, reg)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(server.ListenAndServe)
	g.Go(func() error {
		<-gctx.Done()
		o.log.Info("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(sctx)
	})
	return g.Wait()
}
