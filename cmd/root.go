package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/bbernhard/emotion-playground/internal/config"
	"github.com/bbernhard/emotion-playground/internal/logging"
	"github.com/getsentry/raven-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is the application version.
const Version = "0.1.0"

// Execute loads .env and PLAYGROUND_* variables, then runs the command line.
// Flags take precedence over the environment.
func Execute() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "Couldn't load .env file:", err)
		os.Exit(1)
	}

	cfg := config.Defaults()
	if err := cfg.ApplyEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd(&cfg).ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "playground",
		Short:   "Upload a photo, find a face and tell how the person feels",
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := logging.Setup(cfg.LogLevel, cfg.LogFile); err != nil {
				return err
			}
			if cfg.SentryDSN != "" {
				if err := raven.SetDSN(cfg.SentryDSN); err != nil {
					return fmt.Errorf("couldn't configure sentry: %w", err)
				}
			}
			if cfg.Release {
				log.Info("[Main] Starting gin in release mode!")
				gin.SetMode(gin.ReleaseMode)
			}
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&cfg.Release, "release", cfg.Release, "Run in release mode")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (trace, debug, info, warn, error)")
	flags.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Additionally write logs to this (rotated) file")
	flags.StringVar(&cfg.StaticDir, "static-dir", cfg.StaticDir, "Static file root; uploads and results are stored in its uploads subdirectory")
	flags.StringVar(&cfg.CascadeFile, "cascade-file", cfg.CascadeFile, "Haar cascade used for face detection")
	flags.StringVar(&cfg.ModelDir, "model-dir", cfg.ModelDir, "Directory with graph.pb, labels.txt and model_info.json of the emotion model")
	flags.StringVar(&cfg.RedisAddress, "redis-address", cfg.RedisAddress, "Address to the Redis server; enables the /v1 prediction API")
	flags.IntVar(&cfg.RedisMaxConnections, "redis-max-connections", cfg.RedisMaxConnections, "Max connections to Redis")
	flags.StringVar(&cfg.SentryDSN, "sentry-dsn", cfg.SentryDSN, "Report errors to this Sentry DSN")

	rootCmd.AddCommand(newWebCmd(cfg), newWorkerCmd(cfg))
	return rootCmd
}
