package emotion

import (
	"bufio"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/bbernhard/emotion-playground/internal/datastructures"
	"github.com/disintegration/imaging"
	log "github.com/sirupsen/logrus"
)

const (
	Angry    = "angry"
	Disgust  = "disgust"
	Fear     = "fear"
	Happy    = "happy"
	Sad      = "sad"
	Surprise = "surprise"
	Neutral  = "neutral"
)

const NoFaceDetected = "No face detected."

// Verdict maps a dominant emotion label to the text shown to the user.
// Only the comparison is case-insensitive; other labels are echoed verbatim.
func Verdict(label string) string {
	switch strings.ToLower(label) {
	case Happy:
		return "😊 The person looks happy!"
	case Sad:
		return "😢 The person looks sad!"
	}
	return fmt.Sprintf("The detected emotion is %s.", label)
}

func LoadLabels(path string) ([]string, error) {
	var labels []string
	file, err := os.Open(path)
	if err != nil {
		log.Debug("[Loading Labels] Couldn't open file: ", err)
		return labels, err
	}
	defer file.Close()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		label := strings.TrimSpace(scanner.Text())
		if label == "" {
			continue
		}
		labels = append(labels, label)
	}
	if err := scanner.Err(); err != nil {
		log.Debug("[Loading Labels] Failed to read labels file: ", err.Error())
		return labels, err
	}

	return labels, nil
}

// BestLabel picks the most probable label. Scores are reported in percent.
func BestLabel(probabilities []float32, labels []string) (datastructures.EmotionResult, error) {
	var result datastructures.EmotionResult
	if len(probabilities) == 0 {
		return result, fmt.Errorf("empty probability vector")
	}
	if len(probabilities) != len(labels) {
		return result, fmt.Errorf("got %d probabilities for %d labels", len(probabilities), len(labels))
	}

	bestIdx := 0
	result.Emotions = make(map[string]float32, len(labels))
	for i, p := range probabilities {
		if p > probabilities[bestIdx] {
			bestIdx = i
		}
		result.Emotions[labels[i]] = p * 100.0
	}

	result.Score = probabilities[bestIdx] * 100.0
	result.Label = labels[bestIdx]

	return result, nil
}

// Input resizes a face crop to the model's input geometry and returns it as
// a [1][H][W][C] batch, normalised with (v - Mean) / Std. C is 1 for
// grayscale models and 3 (R, G, B) otherwise.
func Input(img image.Image, info datastructures.ModelInfo) ([][][][]float32, error) {
	w, h := info.InputWidth, info.InputHeight
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid model input size %dx%d", w, h)
	}
	std := info.Std
	if std == 0 {
		std = 1
	}

	resized := imaging.Resize(img, w, h, imaging.Box)
	if info.Grayscale {
		resized = imaging.Grayscale(resized)
	}

	sz := resized.Bounds().Size()
	if sz.X != w || sz.Y != h {
		return nil, fmt.Errorf("input image is required to be %dx%d pixels, was %dx%d", w, h, sz.X, sz.Y)
	}

	channels := 3
	if info.Grayscale {
		channels = 1
	}

	rows := make([][][]float32, h)
	for y := 0; y < h; y++ {
		rows[y] = make([][]float32, w)
		for x := 0; x < w; x++ {
			i := resized.PixOffset(x, y)
			px := make([]float32, channels)
			for c := 0; c < channels; c++ {
				px[c] = (float32(resized.Pix[i+c]) - info.Mean) / std
			}
			rows[y][x] = px
		}
	}
	return [][][][]float32{rows}, nil
}
