// Package pipeline runs an uploaded photo through ingestion, face detection,
// emotion classification and annotation.
package pipeline

import (
	"fmt"
	"image"
	"io"
	"path/filepath"

	"github.com/bbernhard/emotion-playground/internal/datastructures"
	"github.com/bbernhard/emotion-playground/internal/emotion"
	"github.com/bbernhard/emotion-playground/internal/ingest"
	"github.com/disintegration/imaging"
	log "github.com/sirupsen/logrus"
)

type FaceLocator interface {
	Locate(path string) ([]image.Rectangle, error)
}

type Classifier interface {
	Classify(face image.Image) (datastructures.EmotionResult, error)
}

type Annotator interface {
	Annotate(src string, dst string, box image.Rectangle, label string) error
}

type Pipeline struct {
	ingestor   *ingest.Ingestor
	locator    FaceLocator
	classifier Classifier
	annotator  Annotator
}

func New(ingestor *ingest.Ingestor, locator FaceLocator, classifier Classifier, annotator Annotator) *Pipeline {
	return &Pipeline{
		ingestor:   ingestor,
		locator:    locator,
		classifier: classifier,
		annotator:  annotator,
	}
}

func (p *Pipeline) Ingest(r io.Reader) (string, string, error) {
	return p.ingestor.Ingest(r)
}

// Analyze ingests r and processes the stored upload.
func (p *Pipeline) Analyze(r io.Reader) (*datastructures.Analysis, error) {
	ts, uploadPath, err := p.Ingest(r)
	if err != nil {
		return nil, err
	}
	return p.Process(ts, uploadPath)
}

// Process detects faces in an already ingested upload. Only the first box
// the detector reports is classified and annotated; the annotated copy is
// written next to the upload under the same timestamp. Nothing is written
// when no face is found.
func (p *Pipeline) Process(ts string, uploadPath string) (*datastructures.Analysis, error) {
	analysis := &datastructures.Analysis{
		Timestamp:  ts,
		UploadFile: filepath.Base(uploadPath),
		Result:     emotion.NoFaceDetected,
	}

	faces, err := p.locator.Locate(uploadPath)
	if err != nil {
		return nil, fmt.Errorf("couldn't detect faces: %w", err)
	}
	analysis.Faces = faces
	if len(faces) == 0 {
		return analysis, nil
	}

	img, err := imaging.Open(uploadPath)
	if err != nil {
		return nil, fmt.Errorf("couldn't open %s: %w", uploadPath, err)
	}

	box := faces[0].Intersect(img.Bounds())
	if box.Empty() {
		return nil, fmt.Errorf("face box %v is outside of image bounds %v", faces[0], img.Bounds())
	}

	res, err := p.classifier.Classify(imaging.Crop(img, box))
	if err != nil {
		return nil, fmt.Errorf("couldn't classify emotion: %w", err)
	}
	log.Debug("[Pipeline] Dominant emotion for ", analysis.UploadFile, ": ", res.Label)

	resultName := ingest.ResultName(ts)
	if err := p.annotator.Annotate(uploadPath, filepath.Join(p.ingestor.Dir(), resultName), box, res.Label); err != nil {
		return nil, fmt.Errorf("couldn't annotate: %w", err)
	}

	analysis.Emotion = &res
	analysis.ResultFile = resultName
	analysis.Result = emotion.Verdict(res.Label)
	return analysis, nil
}
