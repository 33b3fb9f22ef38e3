// Package ingest turns an uploaded image into a JPEG on disk.
package ingest

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	log "github.com/sirupsen/logrus"
)

const TimestampLayout = "20060102_150405"

var ErrDecode = errors.New("couldn't decode image")

func UploadName(ts string) string {
	return "upload_" + ts + ".jpg"
}

func ResultName(ts string) string {
	return "result_" + ts + ".jpg"
}

type Ingestor struct {
	dir string
	now func() time.Time
}

func NewIngestor(dir string) *Ingestor {
	return &Ingestor{dir: dir, now: time.Now}
}

// WithClock replaces the clock used to derive file names.
func (i *Ingestor) WithClock(now func() time.Time) *Ingestor {
	i.now = now
	return i
}

func (i *Ingestor) Dir() string {
	return i.dir
}

// Ingest decodes r, drops any alpha channel and saves the picture as
// upload_<timestamp>.jpg. It returns the timestamp and the written path.
func (i *Ingestor) Ingest(r io.Reader) (string, string, error) {
	img, err := imaging.Decode(r)
	if err != nil {
		log.Debug("[Ingest] Couldn't decode image: ", err.Error())
		return "", "", fmt.Errorf("%w: %v", ErrDecode, err)
	}

	ts := i.now().Format(TimestampLayout)
	path := filepath.Join(i.dir, UploadName(ts))
	if err := imaging.Save(Opaque(img), path); err != nil {
		log.Debug("[Ingest] Couldn't save image: ", err.Error())
		return "", "", fmt.Errorf("couldn't save %s: %w", path, err)
	}

	log.Debug("[Ingest] Saved upload to ", path)
	return ts, path, nil
}

// Opaque returns a copy of img with every pixel fully opaque. The colour
// channels are kept as they are, not premultiplied against black.
func Opaque(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

// EnsureDir creates the upload directory if it doesn't exist yet.
func EnsureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		log.Debug("[Main] Creating upload directory ", dir, " as it doesn't exist")
		return os.MkdirAll(dir, 0755)
	} else if err != nil {
		return err
	}
	return nil
}
