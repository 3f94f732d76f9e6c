package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/plangraph/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve [plan]",
	Short: "Start the HTTP server",
	Long: `Exposes a JSON API over HTTP: POST /runs walks a posted plan definition,
GET /runs lists stored runs, and /metrics serves Prometheus metrics.
The OpenAPI document is served at /openapi.yaml.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		env := loadEnv(cmd)
		addr, _ := cmd.Flags().GetString("addr")
		if !cmd.Flags().Changed("addr") {
			addr = env.Config.Server.Addr
		}

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		services, err := cli.NewServices(sigCtx, env, planArg(args))
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		defer services.Close()

		handler, err := services.HTTPHandler(env)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}

		srv := &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			env.Logger.Info("Starting plangraph server", "addr", srv.Addr, "store", env.Config.Store.Backend)
			serverErrors <- srv.ListenAndServe()
		}()

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				fmt.Printf("Server error: %v\n", err)
				os.Exit(1)
			}

		case <-sigCtx.Done():
			env.Logger.Info("Start shutdown", "signal", sigCtx.Signal())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				env.Logger.Error("Graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
				if err := srv.Close(); err != nil {
					env.Logger.Error("Error killing server", "err", err)
				}
			}
			env.Logger.Info("plangraph server stopped gracefully")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", ":8080", "Address to listen on")
}
