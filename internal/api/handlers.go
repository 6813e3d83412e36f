package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	"scribe/internal/apperrors"
	"scribe/internal/logger"
	"scribe/internal/model"
	"scribe/internal/pipeline"
	"scribe/internal/utils"
)

// WelcomeMessage is returned by GET /.
const WelcomeMessage = "Welcome to the OCR Backend! Use /transcribe to transcribe audio."

// audioField is the multipart field carrying the upload.
const audioField = "audio"

// Transcriber runs one upload through the transcription pipeline.
type Transcriber interface {
	Run(ctx context.Context, up pipeline.Upload) (*model.Transcription, error)
}

// Handler serves the HTTP routes.
type Handler struct {
	transcriber Transcriber
	maxUpload   int64
	log         *logger.Logger
}

// NewHandler creates a Handler. maxUpload is only used for error messages;
// the limit itself is enforced by BodyLimit.
func NewHandler(t Transcriber, maxUpload int64, log *logger.Logger) *Handler {
	return &Handler{
		transcriber: t,
		maxUpload:   maxUpload,
		log:         log.WithComponent("api"),
	}
}

// RegisterRoutes mounts the service routes on r.
func RegisterRoutes(r *gin.Engine, h *Handler) {
	r.GET("/", h.home)
	r.GET("/health", h.healthCheck)
	r.POST("/transcribe", h.transcribe)
}

func (h *Handler) home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": WelcomeMessage})
}

// healthCheck returns server health status
func (h *Handler) healthCheck(c *gin.Context) {
	utils.Success(c, gin.H{
		"status":  "ok",
		"service": "scribe",
	})
}

// transcribe handles POST /transcribe with a multipart "audio" file.
func (h *Handler) transcribe(c *gin.Context) {
	defer func() {
		if form := c.Request.MultipartForm; form != nil {
			_ = form.RemoveAll()
		}
	}()

	file, err := c.FormFile(audioField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			utils.Error(c, apperrors.Validation(fmt.Sprintf("Uploaded file exceeds the %s limit", humanize.Bytes(uint64(h.maxUpload)))).WithCause(err))
			return
		}
		h.log.Warn("no audio file in request", logger.Fields(
			logger.FieldRequestID, requestID(c),
			"content_type", c.ContentType(),
			"error", err.Error(),
		))
		utils.Error(c, apperrors.Validation("No audio file uploaded").WithCause(err))
		return
	}

	src, err := file.Open()
	if err != nil {
		utils.Error(c, apperrors.Internal(fmt.Errorf("open upload: %w", err)))
		return
	}
	defer src.Close()

	h.log.Info("received upload", logger.Fields(
		logger.FieldRequestID, requestID(c),
		logger.FieldFilename, file.Filename,
		logger.FieldSizeBytes, file.Size,
	))

	rec, err := h.transcriber.Run(c.Request.Context(), pipeline.Upload{
		Filename:  file.Filename,
		Body:      src,
		RequestID: requestID(c),
	})
	if err != nil {
		utils.Error(c, err)
		return
	}

	c.Header("X-Transcription-Id", rec.ID.String())
	utils.Success(c, gin.H{"text": rec.Transcript})
}
