package cmd

import (
	"fmt"

	"github.com/bbernhard/emotion-playground/internal/config"
	"github.com/bbernhard/emotion-playground/internal/datastructures"
	"github.com/bbernhard/emotion-playground/internal/ingest"
	"github.com/bbernhard/emotion-playground/internal/pipeline"
	"github.com/bbernhard/emotion-playground/internal/predict"
	"github.com/bbernhard/emotion-playground/internal/vision"
	log "github.com/sirupsen/logrus"
)

// newPipeline loads the face detector and the emotion model. The returned
// func releases both.
func newPipeline(cfg *config.Config) (*pipeline.Pipeline, datastructures.ModelInfo, func(), error) {
	var modelInfo datastructures.ModelInfo

	if err := ingest.EnsureDir(cfg.UploadDir()); err != nil {
		return nil, modelInfo, nil, fmt.Errorf("couldn't create upload directory: %w", err)
	}

	log.Debug("[Main] Loading face detector from ", cfg.CascadeFile)
	detector, err := vision.NewCascadeDetector(cfg.CascadeFile)
	if err != nil {
		return nil, modelInfo, nil, err
	}

	log.Debug("[Main] Loading emotion model from ", cfg.ModelDir)
	predictor := predict.NewTensorflowPredictor()
	if err := predictor.Load(cfg.ModelDir); err != nil {
		detector.Close()
		return nil, modelInfo, nil, err
	}
	modelInfo = predictor.ModelInfo()

	closer := func() {
		predictor.Close()
		detector.Close()
	}

	p := pipeline.New(ingest.NewIngestor(cfg.UploadDir()), detector, predictor, vision.NewAnnotator())
	return p, modelInfo, closer, nil
}
