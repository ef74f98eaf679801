package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"aitranscribe/internal/app/download"
	apperrors "aitranscribe/internal/app/errors"
	"aitranscribe/internal/app/notify"
)

// Handler submits a selected file to the transcription endpoint and saves
// whatever comes back as transcription.txt.
//
// A Handler keeps no per-upload state, so concurrent Upload calls are
// allowed and run independently. Nothing is retried, cached or
// de-duplicated.
type Handler struct {
	endpoint string
	client   *http.Client
	saver    download.Saver
	notifier notify.Notifier
	logger   *zap.Logger
	metrics  *Metrics
}

// Option configures a Handler.
type Option func(*Handler)

// WithEndpoint overrides DefaultEndpoint.
func WithEndpoint(endpoint string) Option {
	return func(h *Handler) {
		h.endpoint = endpoint
	}
}

// WithHTTPClient sets the client used for the POST.
func WithHTTPClient(client *http.Client) Option {
	return func(h *Handler) {
		h.client = client
	}
}

// WithSaver sets where downloads are written.
func WithSaver(saver download.Saver) Option {
	return func(h *Handler) {
		h.saver = saver
	}
}

// WithNotifier sets the user-visible message channel.
func WithNotifier(notifier notify.Notifier) Option {
	return func(h *Handler) {
		h.notifier = notifier
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// WithMetrics records outcomes on m.
func WithMetrics(m *Metrics) Option {
	return func(h *Handler) {
		h.metrics = m
	}
}

// NewHandler creates a Handler. Without options it posts to
// DefaultEndpoint, saves into the working directory and prints messages
// to stderr.
func NewHandler(opts ...Option) *Handler {
	h := &Handler{
		endpoint: DefaultEndpoint,
		client:   http.DefaultClient,
		saver:    download.NewFileSaver(""),
		notifier: notify.NewConsoleNotifier(nil),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Endpoint returns the URL uploads are posted to.
func (h *Handler) Endpoint() string {
	return h.endpoint
}

// Upload runs one request/response cycle for the first file in selection.
//
// With no file it warns and returns OutcomeNoFile without touching the
// network. Any failure after that is logged, reported with one generic
// alert and returned as OutcomeTransportError.
func (h *Handler) Upload(ctx context.Context, selection Selection) (result Result) {
	start := time.Now()
	defer func() {
		h.metrics.observe(result.Outcome, time.Since(start))
	}()

	file, ok := lo.First(selection)
	if !ok || file == nil {
		h.notifier.Warn(MessageNoFile)
		return Result{Outcome: OutcomeNoFile, Err: apperrors.ErrNoFile}
	}

	path, size, status, err := h.submit(ctx, file)
	if err != nil {
		h.logger.Error("Upload failed",
			zap.String("file", file.Name),
			zap.String("endpoint", h.endpoint),
			zap.Error(err),
		)
		h.notifier.Alert(MessageFailed)
		return Result{Outcome: OutcomeTransportError, StatusCode: status, Err: err}
	}

	h.logger.Info("Transcription downloaded",
		zap.String("file", file.Name),
		zap.String("path", path),
		zap.Int64("bytes", size),
		zap.Int("status", status),
		zap.Duration("elapsed", time.Since(start)),
	)

	return Result{Outcome: OutcomeSuccess, Path: path, Size: size, StatusCode: status}
}

// submit posts the file and saves the response. Panics from the file
// handle or the saver come back as errors.
func (h *Handler) submit(ctx context.Context, file *SelectedFile) (path string, size int64, status int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.WithCause(apperrors.ErrRequestFailed, fmt.Errorf("panic: %v", r))
		}
	}()

	body, contentType, err := buildForm(file)
	if err != nil {
		return "", 0, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, body)
	if err != nil {
		return "", 0, 0, apperrors.WithCause(apperrors.ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", contentType)

	h.logger.Debug("Submitting file",
		zap.String("file", file.Name),
		zap.String("endpoint", h.endpoint),
		zap.Int("body_bytes", body.Len()),
	)

	resp, err := h.client.Do(req)
	if err != nil {
		return "", 0, 0, apperrors.WithCause(apperrors.ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	// The body is kept whatever the status; the server's error text
	// becomes the download.
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, resp.StatusCode, apperrors.WithCause(apperrors.ErrResponseInvalid, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		h.logger.Warn("Transcription endpoint returned non-success status",
			zap.Int("status", resp.StatusCode),
			zap.String("file", file.Name),
		)
	}

	path, err = h.saver.Save(download.DefaultFilename, data)
	if err != nil {
		return "", 0, resp.StatusCode, err
	}
	return path, int64(len(data)), resp.StatusCode, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// buildForm encodes file as the single "file" part of a multipart body.
func buildForm(file *SelectedFile) (*bytes.Buffer, string, error) {
	if file.Open == nil {
		return nil, "", apperrors.WithCause(apperrors.ErrFileReadFailed, fmt.Errorf("%s has no content", file.Name))
	}

	src, err := file.Open()
	if err != nil {
		return nil, "", apperrors.WithCause(apperrors.ErrFileReadFailed, err)
	}
	defer src.Close()

	var requestBody bytes.Buffer
	writer := multipart.NewWriter(&requestBody)

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		FieldName, quoteEscaper.Replace(file.Name)))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", apperrors.WithCause(apperrors.ErrRequestFailed, err)
	}
	if _, err := io.Copy(part, src); err != nil {
		return nil, "", apperrors.WithCause(apperrors.ErrFileReadFailed, err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", apperrors.WithCause(apperrors.ErrRequestFailed, err)
	}

	return &requestBody, writer.FormDataContentType(), nil
}
