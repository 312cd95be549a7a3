package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/securescan-api/internal/config"
	"github.com/securescan-api/internal/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:           "securescan-api",
	Short:         "SecureScan OTP email verification service",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if err := godotenv.Load(); err != nil {
			fmt.Fprintln(os.Stderr, "No .env file found, reading from environment")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, bootstrapCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the process logger.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogEncoding()})
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
