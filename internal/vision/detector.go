package vision

import (
	"errors"
	"fmt"
	"image"
	"sync"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

const (
	ScaleFactor  = 1.1
	MinNeighbors = 5
)

var (
	ErrCascadeLoad = errors.New("couldn't load cascade file")
	ErrImageRead   = errors.New("couldn't read image")
	ErrImageWrite  = errors.New("couldn't write image")
)

// CascadeDetector finds frontal faces with an OpenCV Haar cascade.
// gocv.CascadeClassifier is not safe for concurrent use, so calls are
// serialised.
type CascadeDetector struct {
	mu         sync.Mutex
	classifier gocv.CascadeClassifier
}

func NewCascadeDetector(cascadeFile string) (*CascadeDetector, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(cascadeFile) {
		classifier.Close()
		log.Debug("[Detector] Couldn't load cascade file ", cascadeFile)
		return nil, fmt.Errorf("%w: %s", ErrCascadeLoad, cascadeFile)
	}
	return &CascadeDetector{classifier: classifier}, nil
}

// Locate returns the face boxes in the image at path, in the order the
// cascade reports them.
func (d *CascadeDetector) Locate(path string) ([]image.Rectangle, error) {
	img := gocv.IMRead(path, gocv.IMReadColor)
	defer img.Close()
	if img.Empty() {
		return nil, fmt.Errorf("%w: %s", ErrImageRead, path)
	}

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)

	d.mu.Lock()
	faces := d.classifier.DetectMultiScaleWithParams(gray, ScaleFactor, MinNeighbors, 0, image.Point{}, image.Point{})
	d.mu.Unlock()

	log.Debug("[Detector] Found ", len(faces), " face(s) in ", path)
	return faces, nil
}

func (d *CascadeDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.classifier.Close()
}
