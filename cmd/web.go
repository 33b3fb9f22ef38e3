package cmd

import (
	"errors"
	"net/http"

	"github.com/bbernhard/emotion-playground/internal/config"
	"github.com/bbernhard/emotion-playground/internal/queue"
	"github.com/bbernhard/emotion-playground/internal/web"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newWebCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "web",
		Short: "Serve the upload form and the prediction API",
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Debug("[Main] Starting Playground Web...")

			p, _, closer, err := newPipeline(cfg)
			if err != nil {
				return err
			}
			defer closer()

			options := []web.Option{web.WithStaticDir(cfg.StaticDir)}
			if cfg.AsyncEnabled() {
				redisPool := queue.NewPool(cfg.RedisAddress, cfg.RedisMaxConnections)
				defer redisPool.Close()

				q := queue.NewRedisQueue(redisPool)
				if err := q.Ping(); err != nil {
					log.Warn("[Main] Redis at ", cfg.RedisAddress, " isn't reachable yet: ", err.Error())
				}
				options = append(options, web.WithQueue(q))
			}

			server, err := web.NewServer(p, options...)
			if err != nil {
				return err
			}

			err = server.Run(cmd.Context(), cfg.Listen)
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&cfg.Listen, "listen", cfg.Listen, "Address to listen on")
	return cmd
}
