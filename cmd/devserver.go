package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Daskott/kontakt/devserver"
	"github.com/spf13/cobra"
)

var (
	portArg   int
	secretArg string
)

func createDevServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Start a local contacts backend for development",
		Long: `Starts an in-memory implementation of the contacts backend.
Use it with '--dev' on the other commands. All data is lost when it stops`,
		RunE: func(cmd *cobra.Command, args []string) error {
			port, secret := portArg, secretArg

			// flags win over the config file
			if clientConfig, _, err := loadConfig(); err == nil {
				if !cmd.Flags().Changed("port") && clientConfig.DevServer.Port != 0 {
					port = clientConfig.DevServer.Port
				}
				if !cmd.Flags().Changed("secret") && clientConfig.DevServer.Secret != "" {
					secret = clientConfig.DevServer.Secret
				}
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			return devserver.New(secret, newLogger()).ListenAndServe(ctx, port)
		},
	}

	cmd.Flags().IntVar(&portArg, "port", 3000, "port to listen on")
	cmd.Flags().StringVar(&secretArg, "secret", "dev-secret", "secret used to sign access tokens")

	return cmd
}
