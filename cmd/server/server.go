package main

import (
	"context"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/zucenko/pathfinder/model"
	"github.com/zucenko/pathfinder/server"
	"golang.org/x/sync/errgroup"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

var (
	configPath string
	portFlag   string
	mapFlag    string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "pathfinder",
		Short:        "Grid A* search service",
		SilenceUsage: true,
		RunE:         runServe,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file")
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Serve the map and search API with websocket watchers",
		RunE:  runServe,
	}
	serve.Flags().StringVarP(&portFlag, "port", "p", "", "listen port (overrides config and PORT)")
	serve.Flags().StringVarP(&mapFlag, "map", "m", "", "map file loaded at start-up")
	root.AddCommand(serve, newSolveCmd())
	return root
}

func loadConfig() (server.Config, error) {
	cfg, err := server.LoadConfig(configPath)
	if err != nil {
		return cfg, err
	}
	if portFlag != "" {
		cfg.Port = portFlag
	}
	if mapFlag != "" {
		cfg.MapFile = mapFlag
	}
	cfg.ApplyLogging()
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	options, err := cfg.Search.Options()
	if err != nil {
		return err
	}

	grid := model.NewGrid()
	if cfg.MapFile != "" {
		if err := server.LoadMapFile(cfg.MapFile, grid); err != nil {
			return err
		}
	}
	searchServer := server.NewSearchServer(cfg, grid, server.NewSearchController(grid, options...))
	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: searchServer.Routes(),
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error { return searchServer.Loop(ctx) })
	group.Go(func() error {
		log.Printf("listening on port %s", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		searchServer.Controller.Quiesce()
		return httpServer.Shutdown(shutdownCtx)
	})
	return group.Wait()
}
