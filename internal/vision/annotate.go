package vision

import (
	"fmt"
	"image"
	"image/color"

	log "github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

var (
	BoxColor   = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	LabelColor = color.RGBA{R: 12, G: 255, B: 36, A: 255}
)

const (
	boxThickness   = 2
	labelThickness = 2
	labelScale     = 0.8
	labelOffset    = 10
)

type Annotator struct{}

func NewAnnotator() *Annotator {
	return &Annotator{}
}

// Annotate draws box and label onto the image at src and writes the result
// to dst.
func (a *Annotator) Annotate(src string, dst string, box image.Rectangle, label string) error {
	img := gocv.IMRead(src, gocv.IMReadColor)
	defer img.Close()
	if img.Empty() {
		return fmt.Errorf("%w: %s", ErrImageRead, src)
	}

	gocv.Rectangle(&img, box, BoxColor, boxThickness)
	gocv.PutText(
		&img,
		label,
		image.Point{X: box.Min.X, Y: box.Min.Y - labelOffset},
		gocv.FontHersheySimplex,
		labelScale,
		LabelColor,
		labelThickness)

	if !gocv.IMWrite(dst, img) {
		log.Debug("[Annotator] Couldn't write ", dst)
		return fmt.Errorf("%w: %s", ErrImageWrite, dst)
	}
	return nil
}
