package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/storefront/app/routes"
	"github.com/shashiranjanraj/storefront/internal/bootstrap"
	"github.com/shashiranjanraj/storefront/internal/server"
	"github.com/shashiranjanraj/storefront/pkg/router"
)

var (
	serveWorkersFlag int
	serveNoGRPCFlag  bool
)

// storefront serve
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API, gRPC health server and queue workers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, err := bootstrap.New(ctx)
		if err != nil {
			return err
		}
		return server.Run(ctx, app, server.Options{
			Workers: serveWorkersFlag,
			NoGRPC:  serveNoGRPCFlag,
		})
	},
}

// storefront route:list
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List all named API routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		r := router.New()
		routes.RegisterAPI(r, routes.Handlers{})

		infos := r.Routes()
		sort.Slice(infos, func(i, j int) bool {
			if infos[i].Path != infos[j].Path {
				return infos[i].Path < infos[j].Path
			}
			return infos[i].Method < infos[j].Method
		})

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH\tNAME")
		fmt.Fprintln(w, "------\t----\t----")
		for _, ri := range infos {
			fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
		}
		return w.Flush()
	},
}

func init() {
	serveCmd.Flags().IntVarP(&serveWorkersFlag, "workers", "w", 2, "Queue workers to run in-process (0 to disable)")
	serveCmd.Flags().BoolVar(&serveNoGRPCFlag, "no-grpc", false, "Do not start the gRPC health server")
}
