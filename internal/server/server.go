// Package server runs a bootstrapped storefront: the HTTP API, the gRPC
// health endpoint, queue workers, the websocket hub and scheduled tasks.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/internal/bootstrap"
	grpcserver "github.com/shashiranjanraj/storefront/pkg/grpc"
	"github.com/shashiranjanraj/storefront/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// Options tune what Run starts.
type Options struct {
	// Workers is the number of queue workers; 0 runs none in this process.
	Workers int
	// HTTPAddr and GRPCAddr default to APP_PORT and GRPC_PORT.
	HTTPAddr string
	GRPCAddr string
	NoGRPC   bool
}

func (o Options) withDefaults() Options {
	if o.HTTPAddr == "" {
		o.HTTPAddr = ":" + config.AppPort()
	}
	if o.GRPCAddr == "" {
		o.GRPCAddr = ":" + config.GRPCPort()
	}
	return o
}

// Run serves until ctx ends or a listener fails, then shuts everything down
// in reverse order of startup.
func Run(ctx context.Context, app *bootstrap.App, opts Options) error {
	opts = opts.withDefaults()

	bg, stopBackground := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	goRun := func(fn func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn(bg)
		}()
	}

	goRun(app.Hub.Run)
	goRun(Tasks(app).Start)
	if opts.Workers > 0 {
		app.Queue.Start(bg, opts.Workers)
	}

	errCh := make(chan error, 2)

	httpSrv := &http.Server{
		Addr:              opts.HTTPAddr,
		Handler:           app.HTTP.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	go func() {
		logger.Info("server: http listening", "addr", opts.HTTPAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()

	var rpc *grpcserver.Server
	if !opts.NoGRPC {
		lis, err := net.Listen("tcp", opts.GRPCAddr)
		if err != nil {
			errCh <- fmt.Errorf("grpc listen: %w", err)
		} else {
			rpc = grpcserver.New(app.Store.Ping)
			go func() {
				logger.Info("server: grpc listening", "addr", opts.GRPCAddr)
				if err := rpc.Serve(lis); err != nil {
					errCh <- fmt.Errorf("grpc: %w", err)
				}
			}()
		}
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("server: shutting down")
	case runErr = <-errCh:
		logger.Error("server: listener failed", "error", runErr)
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpSrv.Shutdown(sctx); err != nil {
		logger.Warn("server: http shutdown", "error", err)
	}
	if rpc != nil {
		rpc.Stop(sctx)
	}
	stopBackground()
	app.Queue.Wait()
	app.Events.Wait()
	wg.Wait()

	if err := app.Close(sctx); err != nil {
		logger.Warn("server: close", "error", err)
	}
	logger.Info("server: stopped")
	return runErr
}
