package handlers

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apierrors "aitranscribe/internal/api/errors"
	"aitranscribe/internal/api/middleware"
	"aitranscribe/internal/app/transcription"
)

// Processor transcribes one uploaded file.
type Processor interface {
	Process(ctx context.Context, filename string, src io.Reader) (*transcription.Document, error)
}

// TranscribeHandler serves the upload endpoint the client posts to.
type TranscribeHandler struct {
	processor      Processor
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewTranscribeHandler creates a new transcribe handler
func NewTranscribeHandler(processor Processor, maxUploadBytes int64, logger *zap.Logger) *TranscribeHandler {
	return &TranscribeHandler{
		processor:      processor,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Transcribe handles POST /transcribe
//
// Expects multipart/form-data with the audio in field "file" and answers
// with the transcript as a text/plain attachment.
func (h *TranscribeHandler) Transcribe(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			middleware.HandleError(c, apierrors.NewTooLargeError(h.maxUploadBytes))
			return
		}
		middleware.HandleError(c, apierrors.NewBadRequestError("no file provided"))
		return
	}

	if fileHeader.Filename == "" {
		middleware.HandleError(c, apierrors.NewBadRequestError("no file selected"))
		return
	}

	doc, err := h.process(c.Request.Context(), fileHeader)
	if err != nil {
		h.logger.Error("Transcription failed",
			zap.String("request_id", c.GetString(middleware.RequestIDKey)),
			zap.String("file", fileHeader.Filename),
			zap.Error(err),
		)
		c.Error(err)
		middleware.HandleError(c, apierrors.NewInternalError("An unexpected error occurred"))
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+doc.Filename+`"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(doc.Render()))
}

func (h *TranscribeHandler) process(ctx context.Context, fileHeader *multipart.FileHeader) (*transcription.Document, error) {
	src, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return h.processor.Process(ctx, fileHeader.Filename, src)
}
