package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/theapemachine/ukg/pkg/auth"
	"github.com/theapemachine/ukg/pkg/service"
)

var (
	portFlag int
	hostFlag string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long:  longServe,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			eng, err := openEngine(ctx)
			if err != nil {
				return err
			}
			defer closeEngine(context.Background(), eng)

			authSvc, err := authService()
			if err != nil {
				return err
			}

			cfg := service.DefaultConfig()
			if host := viper.GetString("ukg.server.host"); host != "" {
				cfg.Host = host
			}

			if port := viper.GetInt("ukg.server.port"); port > 0 {
				cfg.Port = port
			}

			if cmd.Flags().Changed("host") {
				cfg.Host = hostFlag
			}

			if cmd.Flags().Changed("port") {
				cfg.Port = portFlag
			}

			srv := service.NewServer(cfg, eng, authSvc)
			errs := make(chan error, 1)

			go func() {
				errs <- srv.Start()
			}()

			select {
			case err := <-errs:
				return err
			case <-ctx.Done():
			}

			log.Info("shutting down")

			shutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			return srv.Shutdown(shutdown)
		},
	}
)

/*
authService returns nil when ukg.auth.enabled is false.
*/
func authService() (*auth.Service, error) {
	if !viper.GetBool("ukg.auth.enabled") {
		return nil, nil
	}

	cfg := auth.DefaultConfig()
	cfg.Secret = viper.GetString("ukg.auth.secret")

	if limit := viper.GetInt64("ukg.auth.rateLimit"); limit > 0 {
		cfg.RateLimit = limit
	}

	return auth.NewService(cfg)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&hostFlag, "host", "0.0.0.0", "address to listen on")
	serveCmd.Flags().IntVar(&portFlag, "port", 3210, "port to listen on")
}

var longServe = `
Serve the HTTP API: queries, graph inspection and editing, personas, memory
recall, health and Prometheus metrics.

Examples:
  ukg serve --port 3210
`
