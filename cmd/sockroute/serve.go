package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"sockroute/internal/server"
	"sockroute/internal/slogutil"
	"sockroute/internal/version"
)

var (
	serveHost        string
	servePort        int
	serveMode        string
	serveWorkers     int
	serveWebRoot     string
	serveChatBackend string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the socket server",
	Long: `Start accepting raw TCP connections. Each connection carries one GET
request and receives one response before it is closed.

Flags override .sockroute/config.json and SOCKROUTE_* environment variables.

Examples:
  sockroute serve                          # Port 9000, one connection at a time
  sockroute serve --port 8080 --mode pool --workers 16
  sockroute serve --chat-backend sqlite    # Keep chat in .sockroute/chat.db`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default from config)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (default from config)")
	serveCmd.Flags().StringVar(&serveMode, "mode", "", "Scheduling: sequential, per-connection or pool")
	serveCmd.Flags().IntVar(&serveWorkers, "workers", 0, "Worker count in pool mode")
	serveCmd.Flags().StringVar(&serveWebRoot, "web-root", "", "Directory holding the static pages")
	serveCmd.Flags().StringVar(&serveChatBackend, "chat-backend", "", "Chat log backend: file or sqlite")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	root, err := projectRoot()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("host") {
		cfg.Server.Host = serveHost
	}
	if flags.Changed("port") {
		cfg.Server.Port = servePort
	}
	if flags.Changed("mode") {
		cfg.Server.Mode = serveMode
	}
	if flags.Changed("workers") {
		cfg.Server.Workers = serveWorkers
	}
	if flags.Changed("web-root") {
		cfg.Web.Root = serveWebRoot
	}
	if flags.Changed("chat-backend") {
		cfg.Chat.Backend = serveChatBackend
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	factory := slogutil.NewLoggerFactory(root, cfg)
	if quiet || verbosity > 0 {
		factory.SetLevel(slogutil.LevelFromVerbosity(verbosity, quiet))
	}
	defer func() { _ = factory.Close() }()

	logger, err := factory.ServerLogger(os.Stderr)
	if err != nil {
		logger.Warn("Server log file unavailable, logging to console only", "error", err.Error())
	}

	a, err := buildApp(root, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	mode, err := server.ParseMode(cfg.Server.Mode)
	if err != nil {
		return err
	}
	srv := server.New(a.handlers.Router(), server.Options{
		Mode:        mode,
		Workers:     cfg.Server.Workers,
		ReadTimeout: cfg.ReadTimeout(),
	}, logger)

	// main cancels cmd.Context() on SIGINT/SIGTERM. The accept loop runs on
	// a detached context so Shutdown can drain in-flight connections.
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	serveCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()

	addr := cfg.Addr()
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting sockroute",
			"version", version.Version,
			"addr", addr,
			"chat", cfg.Chat.Backend,
			"webRoot", cfg.Web.Root,
		)
		serverErr <- srv.ListenAndServe(serveCtx, addr)
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, server.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("Received shutdown signal")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Error during shutdown", "error", err.Error())
			return err
		}
		<-serverErr
		logger.Info("Server stopped gracefully")
		return nil
	}
}
