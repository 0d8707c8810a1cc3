package servecmder

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/devchat/cmd/devchat/cmdutil"
	"github.com/papercomputeco/devchat/pkg/completion"
	"github.com/papercomputeco/devchat/pkg/config"
	"github.com/papercomputeco/devchat/pkg/imagegen"
	"github.com/papercomputeco/devchat/server"
)

const serveLongDesc string = `Run the devchat HTTP API.

Browser front-ends create a session, submit messages to it and read the
conversation back. Every exchange is recorded in the transcript store.
Changes to the config file's API key are picked up without a restart.

Examples:
  devchat serve
  devchat serve --listen :9090 --sqlite ~/.devchat/devchat.db`

const serveShortDesc string = "Run the HTTP API server"

type serveCommander struct {
	listen     string
	sqlitePath string
	strict     bool
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd.Context(), cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", "", "Address to listen on (overrides server.listen)")
	cmd.Flags().StringVarP(&cmder.sqlitePath, "sqlite", "s", "", "Path to transcript SQLite database (overrides server.db_path)")
	cmd.Flags().BoolVar(&cmder.strict, "strict", false, "Fail at startup when no API key is configured")

	return cmd
}

func (c *serveCommander) run(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := cmdutil.LoadConfig(cmd)
	if err != nil {
		return err
	}

	log := cmdutil.NewLogger(cfg, os.Stdout)
	defer log.Sync()

	if err := cmdutil.CheckCredential(cfg, c.strict, log); err != nil {
		return err
	}

	serverConfig := c.serverConfig(cfg)
	log.Info("devchat server starting",
		zap.String("listen", serverConfig.ListenAddr),
		zap.String("model", serverConfig.Model),
		zap.Bool("debug", cfg.Debug),
	)

	client := completion.New(cfg.Completion(), log)
	srv, err := server.New(serverConfig, client, imagegen.New(), log)
	if err != nil {
		return fmt.Errorf("could not create server: %w", err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		path := cmdutil.ConfigPath(cmd)
		err := config.Watch(watchCtx, path, log, func(updated config.Config) {
			client.SetAPIKey(updated.OpenRouter.APIKey)
			if updated.CheckCredential() != nil {
				log.Warn("API key removed from config")
			}
		})
		if err != nil {
			log.Warn("config reload disabled", zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		if err := srv.Close(); err != nil {
			log.Warn("failed to close server", zap.Error(err))
		}
	}()

	if err := srv.Run(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

func (c *serveCommander) serverConfig(cfg config.Config) server.Config {
	sc := server.Config{
		ListenAddr: cfg.Server.Listen,
		DBPath:     cfg.Server.DBPath,
		Model:      cfg.OpenRouter.Model,
		ImageDelay: cfg.ImageDelay(),
		Greeting:   cfg.Chat.Greeting,
		RateLimit:  cfg.Server.RateLimit,
		RateBurst:  cfg.Server.RateBurst,
	}
	if c.listen != "" {
		sc.ListenAddr = c.listen
	}
	if c.sqlitePath != "" {
		sc.DBPath = c.sqlitePath
	}
	return sc
}
