package predict

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/bbernhard/emotion-playground/internal/datastructures"
	"github.com/bbernhard/emotion-playground/internal/emotion"
	log "github.com/sirupsen/logrus"
	tf "github.com/tensorflow/tensorflow/tensorflow/go"
)

var ErrModelLoad = errors.New("couldn't load model")

// defaults for a FER-2013 style network: 48x48 grayscale, pixels scaled to [0, 1]
var defaultModelInfo = datastructures.ModelInfo{
	InputOperation:  "input_1",
	OutputOperation: "predictions/Softmax",
	InputWidth:      48,
	InputHeight:     48,
	Grayscale:       true,
	Mean:            0,
	Std:             255,
}

type TensorflowPredictor struct {
	labels    []string
	graph     *tf.Graph
	session   *tf.Session
	modelInfo datastructures.ModelInfo
}

func NewTensorflowPredictor() *TensorflowPredictor {
	return &TensorflowPredictor{}
}

// Load reads model_info.json, labels.txt and graph.pb from basePath.
func (p *TensorflowPredictor) Load(basePath string) error {
	modelInfo := defaultModelInfo
	modelInfoFile, err := os.ReadFile(filepath.Join(basePath, "model_info.json"))
	if err != nil {
		log.Debug("[Main] Couldn't read model info: ", err.Error())
		return fmt.Errorf("%w: %v", ErrModelLoad, err)
	}
	if err := json.Unmarshal(modelInfoFile, &modelInfo); err != nil {
		log.Debug("[Main] Couldn't parse model info: ", err.Error())
		return fmt.Errorf("%w: %v", ErrModelLoad, err)
	}
	p.modelInfo = modelInfo

	labels, err := emotion.LoadLabels(filepath.Join(basePath, "labels.txt"))
	if err != nil {
		log.Debug("[Main] Couldn't get labels: ", err.Error())
		return fmt.Errorf("%w: %v", ErrModelLoad, err)
	}
	p.labels = labels

	model, err := os.ReadFile(filepath.Join(basePath, "graph.pb"))
	if err != nil {
		log.Debug("[Main] Couldn't read model: ", err.Error())
		return fmt.Errorf("%w: %v", ErrModelLoad, err)
	}

	p.graph = tf.NewGraph()
	if err := p.graph.Import(model, ""); err != nil {
		log.Debug("[Main] Couldn't construct graph: ", err.Error())
		return fmt.Errorf("%w: %v", ErrModelLoad, err)
	}
	for _, op := range []string{modelInfo.InputOperation, modelInfo.OutputOperation} {
		if p.graph.Operation(op) == nil {
			return fmt.Errorf("%w: operation %q not found in graph", ErrModelLoad, op)
		}
	}

	p.session, err = tf.NewSession(p.graph, nil)
	if err != nil {
		log.Debug("[Main] Couldn't start session: ", err.Error())
		return fmt.Errorf("%w: %v", ErrModelLoad, err)
	}

	return nil
}

func (p *TensorflowPredictor) ModelInfo() datastructures.ModelInfo {
	return p.modelInfo
}

// Classify returns the dominant emotion of face. The region is analysed as
// given; no check is made that it actually contains a face.
func (p *TensorflowPredictor) Classify(face image.Image) (datastructures.EmotionResult, error) {
	var res datastructures.EmotionResult

	input, err := emotion.Input(face, p.modelInfo)
	if err != nil {
		log.Debug("[Predicting Emotion] Couldn't prepare input: ", err.Error())
		return res, err
	}
	tensor, err := tf.NewTensor(input)
	if err != nil {
		log.Debug("[Predicting Emotion] Couldn't create tensor from image: ", err.Error())
		return res, err
	}

	// Session.Run is safe for concurrent use
	output, err := p.session.Run(
		map[tf.Output]*tf.Tensor{
			p.graph.Operation(p.modelInfo.InputOperation).Output(0): tensor,
		},
		[]tf.Output{
			p.graph.Operation(p.modelInfo.OutputOperation).Output(0),
		},
		nil)
	if err != nil {
		log.Debug("[Predicting Emotion] Couldn't run prediction: ", err.Error())
		return res, err
	}

	// batch size is 1
	batch, ok := output[0].Value().([][]float32)
	if !ok || len(batch) == 0 {
		return res, fmt.Errorf("unexpected output of type %T", output[0].Value())
	}
	return emotion.BestLabel(batch[0], p.labels)
}

func (p *TensorflowPredictor) Close() error {
	if p.session == nil {
		return nil
	}
	return p.session.Close()
}
