// Command storefront runs the lighting storefront API and manages its data.
//
//	storefront serve              # HTTP + gRPC + queue workers
//	storefront migrate            # apply pending migrations
//	storefront seed               # admin account and sample catalog
//	storefront route:list
//	storefront orders list --status pending
//	storefront cart add 3 --qty 2 && storefront cart checkout --name ...
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "storefront",
	Short:         "Storefront API server and admin CLI",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Server
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)

	// Database
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(migrateRollbackCmd)
	rootCmd.AddCommand(migrateStatusCmd)
	rootCmd.AddCommand(seedCmd)

	// Workers
	rootCmd.AddCommand(queueWorkCmd)

	// Operations
	rootCmd.AddCommand(ordersCmd)
	rootCmd.AddCommand(cartCmd)
}
