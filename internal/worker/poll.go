package worker

import (
	"context"
	"errors"
	"time"

	"github.com/bbernhard/emotion-playground/internal/datastructures"
	"github.com/bbernhard/emotion-playground/internal/queue"
	log "github.com/sirupsen/logrus"
)

type Source interface {
	Pop() (datastructures.PredictionRequest, error)
}

// Poll moves requests from source onto jobQueue until ctx is done. An empty
// or failing source is retried after interval.
func Poll(ctx context.Context, source Source, jobQueue chan<- Job, interval time.Duration) {
	for {
		select {
		case <-ctx.Done():
			log.Debug("[Main] Stopped polling for requests")
			return
		default:
		}

		predictionRequest, err := source.Pop()
		if err != nil {
			if !errors.Is(err, queue.ErrNotFound) {
				log.Debug("[Main] Couldn't fetch request: ", err.Error())
			}
			select {
			case <-time.After(interval): //nothing in queue, sleep
			case <-ctx.Done():
				return
			}
			continue
		}

		log.Debug("[Main] Got a new request to process")

		// the request is off redis now, so it's handed over even when ctx is
		// already done; the dispatcher keeps draining until jobQueue is closed
		jobQueue <- Job{PredictionRequest: predictionRequest}
	}
}
