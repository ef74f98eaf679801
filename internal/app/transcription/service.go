package transcription

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"go.uber.org/zap"

	apperrors "aitranscribe/internal/app/errors"
)

// Transcriber turns an audio file on disk into text.
type Transcriber interface {
	Transcribe(ctx context.Context, inputFilePath string) (string, error)
}

// Summarizer condenses a transcript.
type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// Document is a finished transcript ready to be sent as a download.
type Document struct {
	Filename string
	Text     string
	Summary  string
}

// Service stores an upload in a scratch directory, transcribes it and
// appends a summary when a Summarizer is configured.
type Service struct {
	transcriber Transcriber
	summarizer  Summarizer
	workDir     string
	logger      *zap.Logger
}

// NewService creates a Service. summarizer may be nil; workDir "" uses
// the system temp directory.
func NewService(transcriber Transcriber, summarizer Summarizer, workDir string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		transcriber: transcriber,
		summarizer:  summarizer,
		workDir:     workDir,
		logger:      logger,
	}
}

// Process transcribes the upload read from src. The scratch copy is
// always removed before returning.
func (s *Service) Process(ctx context.Context, filename string, src io.Reader) (*Document, error) {
	dir, err := os.MkdirTemp(s.workDir, "upload-")
	if err != nil {
		return nil, apperrors.WithCause(apperrors.ErrFileWriteFailed, err)
	}
	defer os.RemoveAll(dir)

	safeName := SecureFilename(filename)
	path := filepath.Join(dir, safeName)
	if err := writeFile(path, src); err != nil {
		return nil, err
	}

	s.logger.Info("Transcribing audio", zap.String("file", safeName))
	text, err := s.transcriber.Transcribe(ctx, path)
	if err != nil {
		return nil, apperrors.WithCause(apperrors.ErrTranscriptionFailed, err)
	}

	doc := &Document{
		Filename: strings.TrimSuffix(safeName, filepath.Ext(safeName)) + ".txt",
		Text:     text,
	}

	if s.summarizer != nil && strings.TrimSpace(text) != "" {
		s.logger.Info("Adding transcription summary", zap.String("file", safeName))
		summary, err := s.summarizer.Summarize(ctx, text)
		if err != nil {
			// The transcript is still worth returning without the summary.
			s.logger.Warn("Summary failed",
				zap.String("file", safeName),
				zap.Error(apperrors.WithCause(apperrors.ErrSummaryFailed, err)),
			)
		} else {
			doc.Summary = summary
		}
	}

	return doc, nil
}

// Render returns the download body: the transcript, then the summary
// block when there is one.
func (d *Document) Render() string {
	var b strings.Builder
	b.WriteString(d.Text)
	if !strings.HasSuffix(d.Text, "\n") {
		b.WriteString("\n")
	}
	if d.Summary != "" {
		fmt.Fprintf(&b, "\n\n-----\n\nSummary: %s\n", d.Summary)
	}
	return b.String()
}

func writeFile(path string, src io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return apperrors.WithCause(apperrors.ErrFileWriteFailed, err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		return apperrors.WithCause(apperrors.ErrFileReadFailed, err)
	}
	if err := f.Close(); err != nil {
		return apperrors.WithCause(apperrors.ErrFileWriteFailed, err)
	}
	return nil
}

// SecureFilename reduces an uploaded filename to a safe slug that keeps
// its extension. Names with nothing usable get a random stem.
func SecureFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	ext := filepath.Ext(name)
	stem := slug.Make(strings.TrimSuffix(name, ext))
	ext = slug.Make(strings.TrimPrefix(ext, "."))

	if stem == "" {
		stem = "upload-" + uuid.NewString()[:8]
	}
	if ext == "" {
		return stem
	}
	return stem + "." + ext
}
