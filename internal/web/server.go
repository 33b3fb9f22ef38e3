package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"net/http"
	"path"
	"time"

	"github.com/bbernhard/emotion-playground/internal/datastructures"
	"github.com/bbernhard/emotion-playground/internal/middleware"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	StaticPrefix = "/static"
	UploadPrefix = StaticPrefix + "/uploads"
)

type Analyzer interface {
	Ingest(r io.Reader) (string, string, error)
	Analyze(r io.Reader) (*datastructures.Analysis, error)
}

type JobQueue interface {
	Enqueue(req datastructures.PredictionRequest) error
	Result(uuid string) (datastructures.PredictionResult, error)
}

type Option func(*Server) error

type Server struct {
	router    *gin.Engine
	analyzer  Analyzer
	queue     JobQueue
	staticDir string
}

func WithQueue(q JobQueue) Option {
	return func(s *Server) error {
		if q == nil {
			return errors.New("queue must not be nil")
		}
		s.queue = q
		return nil
	}
}

func WithStaticDir(dir string) Option {
	return func(s *Server) error {
		s.staticDir = dir
		return nil
	}
}

// NewServer wires the routes. The /v1 prediction API is only registered
// when a queue is configured.
func NewServer(analyzer Analyzer, options ...Option) (*Server, error) {
	if analyzer == nil {
		return nil, errors.New("analyzer is required")
	}

	s := &Server{analyzer: analyzer, staticDir: "static"}
	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	router := gin.New()
	router.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery())
	router.SetHTMLTemplate(tmpl)

	router.GET("/", s.index)
	router.POST("/predict", s.predict)
	router.Static(StaticPrefix, s.staticDir)

	if s.queue != nil {
		v1 := router.Group("/v1", middleware.Cors())
		v1.OPTIONS("/predict", func(c *gin.Context) {
			c.JSON(http.StatusOK, struct{}{})
		})
		v1.POST("/predict", s.enqueuePrediction)
		v1.GET("/predict/:uuid", s.getPrediction)
	}

	s.router = router
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on address until ctx is cancelled.
func (s *Server) Run(ctx context.Context, address string) error {
	srv := &http.Server{
		Addr:    address,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("[Main] Listening on ", address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("[Main] Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func resultURL(resultFile string) string {
	if resultFile == "" {
		return ""
	}
	return path.Join(UploadPrefix, resultFile)
}
