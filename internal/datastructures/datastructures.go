package datastructures

import "image"

type EmotionResult struct {
	Label    string             `json:"label"`
	Score    float32            `json:"score"`
	Emotions map[string]float32 `json:"emotions"`
}

type ModelInfo struct {
	Build     int32    `json:"build"`
	Created   string   `json:"created"`
	TrainedOn []string `json:"trained_on"`
	BasedOn   string   `json:"based_on"`

	InputOperation  string  `json:"input_operation"`
	OutputOperation string  `json:"output_operation"`
	InputWidth      int     `json:"input_width"`
	InputHeight     int     `json:"input_height"`
	Grayscale       bool    `json:"grayscale"`
	Mean            float32 `json:"mean"`
	Std             float32 `json:"std"`
}

// Analysis summarises one pass through the pipeline. ResultFile and Emotion
// are only set when at least one face was found.
type Analysis struct {
	Timestamp  string            `json:"timestamp"`
	UploadFile string            `json:"upload_file"`
	ResultFile string            `json:"result_file,omitempty"`
	Faces      []image.Rectangle `json:"faces"`
	Emotion    *EmotionResult    `json:"emotion,omitempty"`
	Result     string            `json:"result"`
}

type PredictionRequest struct {
	Uuid      string `json:"uuid"`
	Filename  string `json:"filename"`
	Timestamp string `json:"timestamp"`
	Created   int64  `json:"created"`
}

type PredictionResult struct {
	Uuid      string    `json:"uuid"`
	Analysis  *Analysis `json:"analysis,omitempty"`
	ModelInfo ModelInfo `json:"model_info"`
	Error     string    `json:"error"`
}

type PredictMeResult struct {
	Result    string             `json:"result"`
	Label     string             `json:"label"`
	Score     float32            `json:"score"`
	Emotions  map[string]float32 `json:"emotions,omitempty"`
	ImageUrl  string             `json:"image_url,omitempty"`
	ModelInfo ModelInfo          `json:"model_info"`
	Error     string             `json:"error,omitempty"`
}
