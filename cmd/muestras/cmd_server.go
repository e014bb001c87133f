package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/muestras/app/routes"
	"github.com/shashiranjanraj/muestras/app/services"
	"github.com/shashiranjanraj/muestras/config"
	"github.com/shashiranjanraj/muestras/pkg/app"
	"github.com/shashiranjanraj/muestras/pkg/router"
	"github.com/shashiranjanraj/muestras/pkg/schedule"
	"github.com/shashiranjanraj/muestras/pkg/session"
	"github.com/shashiranjanraj/muestras/pkg/storage"
	"github.com/shashiranjanraj/muestras/pkg/workerpool"
)

func console(cfg services.Config) (*app.Application, *services.Console) {
	if cfg.TokenDriver == "file" {
		// Browser sessions never share the CLI token file.
		cfg.TokenDriver = "memory"
		if cfg.Cache != nil {
			cfg.TokenDriver = "redis"
		}
	}
	c := services.NewConsole(cfg, session.DefaultOptions())
	a := app.New().
		Sessions(c.Sessions().Middleware).
		Routes(func(r *router.Router) { routes.RegisterAPI(r, c) })
	return a, c
}

// muestras serve
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the browser console",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := storage.Connect(ctx); err != nil {
			return err
		}
		pool := workerpool.New(config.UploadConcurrency())
		defer pool.Shutdown()

		cfg := services.ConfigFromEnv()
		cfg.Uploads = pool
		a, c := console(cfg)

		jobs := schedule.New(nil)
		c.Housekeeping(jobs, time.Minute)

		fmt.Printf("Console on :%s, backend %s. Press Ctrl+C to stop.\n", config.AppPort(), config.BackendURL())
		return a.Background(jobs.Run).Serve(ctx)
	},
}

// muestras route:list
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List the console routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, _ := console(services.ConfigFromEnv())
		infos := a.Router().Routes()

		w := newTable(os.Stdout)
		fmt.Fprintln(w, "METHOD\tPATH\tNAME")
		fmt.Fprintln(w, "------\t----\t----")
		for _, ri := range infos {
			fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
		}
		return w.Flush()
	},
}
