package web

import (
	"errors"
	"net/http"
	"time"

	"github.com/bbernhard/emotion-playground/internal/datastructures"
	"github.com/bbernhard/emotion-playground/internal/ingest"
	"github.com/bbernhard/emotion-playground/internal/middleware"
	"github.com/bbernhard/emotion-playground/internal/queue"
	"github.com/getsentry/raven-go"
	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	log "github.com/sirupsen/logrus"
)

func (s *Server) index(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{"result": nil, "image_url": nil})
}

func (s *Server) predict(c *gin.Context) {
	file, header, err := c.Request.FormFile("image")
	if err != nil || header.Filename == "" {
		c.Redirect(http.StatusFound, "/")
		return
	}
	defer file.Close()

	analysis, err := s.analyzer.Analyze(file)
	if err != nil {
		s.fail(c, err)
		return
	}

	log.Debug("[Predicting] ", analysis.UploadFile, ": ", analysis.Result)
	c.HTML(http.StatusOK, "index.html", gin.H{
		"result":    analysis.Result,
		"image_url": resultURL(analysis.ResultFile),
	})
}

// fail answers with a bare 500, there is no user facing message.
func (s *Server) fail(c *gin.Context, err error) {
	log.Error("[Predicting] Couldn't process request: ", err.Error())
	raven.CaptureError(err, map[string]string{"request_id": c.GetString(middleware.RequestIDKey)})
	c.Error(err)
	c.AbortWithStatus(http.StatusInternalServerError)
}

func (s *Server) enqueuePrediction(c *gin.Context) {
	file, _, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Picture is missing"})
		return
	}
	defer file.Close()

	id, err := uuid.NewV4()
	if err != nil {
		log.Debug("[Predicting] Couldn't create uuid: ", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Couldn't accept request - please try again later"})
		return
	}

	ts, uploadPath, err := s.analyzer.Ingest(file)
	if errors.Is(err, ingest.ErrDecode) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Picture couldn't be decoded"})
		return
	}
	if err != nil {
		log.Debug("[Predicting] Couldn't accept request: ", err.Error())
		raven.CaptureError(err, nil)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Couldn't accept request - please try again later"})
		return
	}

	//add a prediction request to the 'predictme' queue
	predictionRequest := datastructures.PredictionRequest{
		Uuid:      id.String(),
		Filename:  uploadPath,
		Timestamp: ts,
		Created:   time.Now().Unix(),
	}
	if err := s.queue.Enqueue(predictionRequest); err != nil {
		log.Debug("[Predicting] Couldn't accept request: ", err.Error())
		raven.CaptureError(err, nil)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Couldn't accept request - please try again later"})
		return
	}

	c.Header("Location", predictionRequest.Uuid)
	c.JSON(http.StatusAccepted, gin.H{})
}

func (s *Server) getPrediction(c *gin.Context) {
	id := c.Param("uuid")

	predictionResult, err := s.queue.Result(id)
	if errors.Is(err, queue.ErrNotFound) {
		//nothing available yet. Which means either the uuid is wrong or processing isn't finished.
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	if err != nil {
		log.Debug("[Predicting] Couldn't get status of request: ", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Couldn't get status of request - please try again later"})
		return
	}

	res := datastructures.PredictMeResult{
		ModelInfo: predictionResult.ModelInfo,
		Error:     predictionResult.Error,
	}
	if a := predictionResult.Analysis; a != nil {
		res.Result = a.Result
		res.ImageUrl = resultURL(a.ResultFile)
		if a.Emotion != nil {
			res.Label = a.Emotion.Label
			res.Score = a.Emotion.Score
			res.Emotions = a.Emotion.Emotions
		}
	}
	c.JSON(http.StatusOK, res)
}
