package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/storefront/config"
	"github.com/shashiranjanraj/storefront/internal/bootstrap"
)

var queueWorkersFlag int

// storefront queue:work
var queueWorkCmd = &cobra.Command{
	Use:   "queue:work",
	Short: "Process queued jobs (order confirmation mail) without serving HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, err := bootstrap.New(ctx)
		if err != nil {
			return err
		}
		if config.QueueDriver() != "redis" || app.Redis == nil {
			fmt.Println("⚠️  The memory queue is per-process; this worker only sees jobs when QUEUE_DRIVER=redis.")
		}

		workers := queueWorkersFlag
		if workers < 1 {
			workers = 5
		}
		fmt.Printf("🚀 Queue worker started (%d workers). Press Ctrl+C to stop.\n", workers)
		app.Queue.Start(ctx, workers)

		<-ctx.Done()
		app.Queue.Wait()
		fmt.Println("\n⚡ Queue worker stopped.")
		return app.Close(context.Background())
	},
}

func init() {
	queueWorkCmd.Flags().IntVarP(&queueWorkersFlag, "workers", "w", 5, "Number of concurrent workers")
}
