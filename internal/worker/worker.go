package worker

import (
	"sync"

	"github.com/bbernhard/emotion-playground/internal/datastructures"
	"github.com/getsentry/raven-go"
	log "github.com/sirupsen/logrus"
)

type Processor interface {
	Process(ts string, uploadPath string) (*datastructures.Analysis, error)
}

type ResultStore interface {
	StoreResult(res datastructures.PredictionResult) error
}

// Job holds the attributes needed to perform unit of work.
type Job struct {
	PredictionRequest datastructures.PredictionRequest
}

// NewWorker creates takes a numeric id and a channel w/ worker pool.
func NewWorker(id int, workerPool chan chan Job, processor Processor, store ResultStore, modelInfo datastructures.ModelInfo) Worker {
	return Worker{
		id:         id,
		jobQueue:   make(chan Job),
		workerPool: workerPool,
		processor:  processor,
		store:      store,
		modelInfo:  modelInfo,
	}
}

type Worker struct {
	id         int
	jobQueue   chan Job
	workerPool chan chan Job
	processor  Processor
	store      ResultStore
	modelInfo  datastructures.ModelInfo
}

// start runs the worker until its jobQueue is closed. A job that was handed
// over is always finished first.
func (w Worker) start(wg *sync.WaitGroup) {
	log.Debug("[Worker] Worker ", w.id, " starting")

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			// Add my jobQueue to the worker pool. The pool has room for
			// every worker, so this never blocks.
			w.workerPool <- w.jobQueue

			job, ok := <-w.jobQueue
			if !ok {
				log.Debug("[Worker] Worker ", w.id, " stopping")
				return
			}
			w.handle(job)
		}
	}()
}

func (w Worker) handle(job Job) {
	req := job.PredictionRequest

	predictionResult := datastructures.PredictionResult{
		Uuid:      req.Uuid,
		ModelInfo: w.modelInfo,
	}

	analysis, err := w.processor.Process(req.Timestamp, req.Filename)
	if err != nil {
		log.Debug("[Worker] Couldn't predict: ", err.Error())
		raven.CaptureError(err, map[string]string{"uuid": req.Uuid})
		predictionResult.Error = "Couldn't process request"
	} else {
		predictionResult.Analysis = analysis
	}

	// the result is kept for an hour; files in the upload dir stay, the
	// rendered URL points at them
	if err := w.store.StoreResult(predictionResult); err != nil {
		log.Debug("[Worker] Couldn't store prediction result: ", err.Error())
		raven.CaptureError(err, map[string]string{"uuid": req.Uuid})
	}
}

// NewDispatcher creates, and returns a new Dispatcher object. The caller owns
// jobQueue and closes it once nothing more will be sent.
func NewDispatcher(jobQueue chan Job, maxWorkers int, processor Processor, store ResultStore, modelInfo datastructures.ModelInfo) *Dispatcher {
	workerPool := make(chan chan Job, maxWorkers)

	return &Dispatcher{
		jobQueue:   jobQueue,
		maxWorkers: maxWorkers,
		workerPool: workerPool,
		processor:  processor,
		store:      store,
		modelInfo:  modelInfo,
		done:       make(chan struct{}),
	}
}

type Dispatcher struct {
	workerPool chan chan Job
	maxWorkers int
	jobQueue   chan Job
	processor  Processor
	store      ResultStore
	modelInfo  datastructures.ModelInfo
	workers    []Worker
	wg         sync.WaitGroup
	done       chan struct{}
}

func (d *Dispatcher) Run() {
	for i := 0; i < d.maxWorkers; i++ {
		worker := NewWorker(i+1, d.workerPool, d.processor, d.store, d.modelInfo)
		worker.start(&d.wg)
		d.workers = append(d.workers, worker)
	}

	go d.dispatch()
}

// Wait blocks until jobQueue has been closed and every job sent on it has
// been processed and its result stored.
func (d *Dispatcher) Wait() {
	<-d.done
	d.wg.Wait()
}

func (d *Dispatcher) dispatch() {
	defer close(d.done)

	for job := range d.jobQueue {
		workerJobQueue := <-d.workerPool
		workerJobQueue <- job
	}

	// queue drained, every job is with a worker by now
	for _, w := range d.workers {
		close(w.jobQueue)
	}
}
