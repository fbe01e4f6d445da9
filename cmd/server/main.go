// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/ifallious/Wynncraft-Item-Viewer/internal/api"
	"github.com/ifallious/Wynncraft-Item-Viewer/internal/app"
	"github.com/ifallious/Wynncraft-Item-Viewer/internal/config"
	"github.com/ifallious/Wynncraft-Item-Viewer/internal/utils"
)

const shutdownTimeout = 30 * time.Second

var (
	configFile string
	portFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "wynnview",
	Short: "Wynncraft item database proxy and query server",
	Long: `wynnview relays the Wynncraft item database through a CORS-enabled facade
and answers filter, sort and facet queries over the fetched collection.

Run without a subcommand to start the server.`,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML configuration file (overrides CONFIG_FILE)")
	rootCmd.PersistentFlags().StringVar(&portFlag, "port", "", "listen port (overrides PORT)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(newQueryCmd())
	rootCmd.AddCommand(newFacetsCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig loads the configuration singleton with flag overrides applied
func loadConfig() (*config.AppConfig, error) {
	if configFile != "" {
		os.Setenv("CONFIG_FILE", configFile)
	}
	if err := config.InitConfig(); err != nil {
		return nil, err
	}

	cfg := config.GetCurrentConfig()
	if portFlag != "" {
		cfg.Port = portFlag
		config.SetCurrentConfig(cfg)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := utils.GetLogger()
	logger.SetLogLevel(utils.ParseLogLevel(cfg.LogLevel))
	if err := utils.InitLogger(filepath.Join(cfg.LogDir, "server.log")); err != nil {
		logger.Warn("File logging disabled", map[string]interface{}{"error": err.Error()})
	}
	defer logger.Sync()

	if !cfg.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	application, err := app.InitServices(cfg)
	if err != nil {
		return err
	}
	defer application.Shutdown()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application.Start(ctx)

	router, err := api.SetupRouter()
	if err != nil {
		return err
	}

	return serveHTTP(ctx, router, cfg.Port)
}

// serveHTTP runs the server until ctx is done, then shuts it down gracefully
func serveHTTP(ctx context.Context, handler http.Handler, port string) error {
	logger := utils.GetLogger()

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server listening", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("Server stopped", nil)
	return nil
}
