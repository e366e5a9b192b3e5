package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RoyceAzure/lab/freshmarket/internal/logger"
	"github.com/RoyceAzure/lab/freshmarket/internal/mockapi"
	"github.com/spf13/cobra"
)

func (c *cli) mockServerCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:         "mock-server",
		Short:       "Run the in-memory backend for local development",
		Annotations: map[string]string{"standalone": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cf := c.loadConfig()
			if port == "" {
				port = cf.MockServerPort
			}
			l := logger.New(cf.ModulerName+"-mock", cf.LogLevel, cf.LogFormat, logger.WithOutput(cmd.ErrOrStderr()))

			server, err := mockapi.NewServer(cf.MockJwtSecret, &l)
			if err != nil {
				return err
			}
			srv := &http.Server{
				Addr:              fmt.Sprintf(":%s", port),
				Handler:           server.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// 設置訊號監聽
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigChan)

			shutdownCompleted := make(chan struct{}, 1)
			go func() {
				<-sigChan
				l.Info().Msg("received shutdown signal")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					l.Error().Err(err).Msg("server shutdown error")
				}
				shutdownCompleted <- struct{}{}
			}()

			l.Info().Str("addr", srv.Addr).Msg("mock server starting, api under /api/v1")
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			<-shutdownCompleted
			l.Info().Msg("mock server closed")
			return nil
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (default MOCK_SERVER_PORT)")
	return cmd
}
