// Command muestras administers the textile sample catalog: it serves the
// browser console and offers the same pages from the terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/muestras/config"
	"github.com/shashiranjanraj/muestras/pkg/cache"
	"github.com/shashiranjanraj/muestras/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "muestras",
	Short:         "Textile sample catalog admin",
	Long:          "muestras manages the catalog of brands, fabrics, samples and models kept by the catalog backend.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(); err != nil {
			return fmt.Errorf("config: %w", err)
		}
		logger.SetOutput(os.Stderr, config.LogLevel())

		if config.TokenStore() == "redis" {
			if err := cache.Connect(); err != nil {
				return err
			}
		} else if err := cache.Connect(); err != nil {
			logger.Debug("redis unavailable, toasts stay in memory", "error", err)
		}
		return nil
	},
}

func init() {
	// Console
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(routeListCmd)

	// Session
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)

	// Catalog
	rootCmd.AddCommand(pagesCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(moveCmd)

	// Attachments
	rootCmd.AddCommand(uploadCmd)
	rootCmd.AddCommand(rmAssetCmd)
	rootCmd.AddCommand(fetchCmd)
}
