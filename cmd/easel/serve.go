package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"easel/internal/action"
	"easel/internal/canvas"
	"easel/internal/config"
	"easel/internal/llm"
	"easel/internal/logging"
	"easel/internal/schedule"
	serverhttp "easel/internal/server/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP front end",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runServe(cmd.Context(), cfg)
	},
}

func runServe(ctx context.Context, cfg *config.Config) error {
	logger := logging.NewComponentLogger("serve")

	streamer, err := llm.NewOpenAIClient(llm.Config{
		BaseURL:     cfg.Model.BaseURL,
		APIKey:      cfg.Model.APIKey,
		Model:       cfg.Model.Name,
		Temperature: cfg.Model.Temperature,
		Timeout:     cfg.Model.Timeout,
	}, logging.NewComponentLogger("llm"))
	if err != nil {
		return err
	}

	doc := canvas.NewMemoryDocument()
	sched := schedule.New(streamer, action.Builtin(), doc,
		logging.NewComponentLogger("schedule"),
		schedule.WithMaxTurns(cfg.Run.MaxTurns))

	server := serverhttp.NewServer(serverhttp.Config{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		Debug:        cfg.Server.Debug,
		AllowOrigins: cfg.Server.AllowOrigins,
	}, sched, doc, logging.NewComponentLogger("http"))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Start(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		sched.Cancel()
		return nil
	})

	logger.Info("serving on %s:%d (model %s)", cfg.Server.Host, cfg.Server.Port, cfg.Model.Name)
	return g.Wait()
}
