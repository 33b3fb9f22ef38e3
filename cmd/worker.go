package cmd

import (
	"errors"
	"time"

	"github.com/bbernhard/emotion-playground/internal/config"
	"github.com/bbernhard/emotion-playground/internal/queue"
	"github.com/bbernhard/emotion-playground/internal/worker"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newWorkerCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Process requests queued through the /v1 prediction API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cfg.AsyncEnabled() {
				return errors.New("the worker needs --redis-address")
			}

			log.Debug("[Main] Starting Playground Worker...")

			p, modelInfo, closer, err := newPipeline(cfg)
			if err != nil {
				return err
			}
			defer closer()

			redisPool := queue.NewPool(cfg.RedisAddress, cfg.RedisMaxConnections)
			defer redisPool.Close()
			q := queue.NewRedisQueue(redisPool)

			log.Debug("[Main] Starting Dispatcher...")
			jobQueue := make(chan worker.Job, cfg.MaxWorkerQueueSize)
			dispatcher := worker.NewDispatcher(jobQueue, cfg.MaxWorkers, p, q, modelInfo)
			dispatcher.Run()

			worker.Poll(cmd.Context(), q, jobQueue, time.Second)

			// requests already popped from redis are finished before exiting
			close(jobQueue)
			log.Info("[Main] Waiting for ", len(jobQueue), " queued request(s) to finish...")
			dispatcher.Wait()
			return nil
		},
	}

	cmd.Flags().IntVar(&cfg.MaxWorkers, "max-workers", cfg.MaxWorkers, "The number of workers to start")
	cmd.Flags().IntVar(&cfg.MaxWorkerQueueSize, "max-worker-queue-size", cfg.MaxWorkerQueueSize, "The size of job queue")
	return cmd
}
