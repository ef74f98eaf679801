package upload

import (
	"bytes"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// DefaultEndpoint is the transcription service the widget posts to.
const DefaultEndpoint = "https://aitranscribe.replit.app/transcribe"

// FieldName is the multipart field carrying the file.
const FieldName = "file"

// User-visible messages.
const (
	MessageNoFile = "Please select a file"
	MessageFailed = "An error occurred while processing the file"
)

// SelectedFile is an opaque binary handle with its filename and MIME type.
// The handler only reads it for the duration of one request.
type SelectedFile struct {
	Name        string
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// Selection is the list of files picked by the user. Only the first
// entry is ever submitted.
type Selection []*SelectedFile

// FileFromPath references a file on disk. Nothing is read until the
// handler opens it.
func FileFromPath(path string) *SelectedFile {
	return &SelectedFile{
		Name:        filepath.Base(path),
		ContentType: contentTypeFor(path),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}
}

// audioTypes covers formats the platform MIME table often lacks.
var audioTypes = map[string]string{
	".mp3":  "audio/mpeg",
	".wav":  "audio/wav",
	".m4a":  "audio/mp4",
	".flac": "audio/flac",
	".ogg":  "audio/ogg",
	".webm": "audio/webm",
	".mp4":  "video/mp4",
}

func contentTypeFor(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if t, ok := audioTypes[ext]; ok {
		return t
	}
	return mime.TypeByExtension(ext)
}

// FileFromBytes wraps in-memory content as a selected file.
func FileFromBytes(name, contentType string, data []byte) *SelectedFile {
	return &SelectedFile{
		Name:        name,
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// SelectPaths builds a Selection from file paths, in order.
func SelectPaths(paths ...string) Selection {
	selection := make(Selection, 0, len(paths))
	for _, p := range paths {
		selection = append(selection, FileFromPath(p))
	}
	return selection
}

// Outcome is the terminal state of one upload.
type Outcome string

const (
	OutcomeNoFile         Outcome = "no_file"
	OutcomeTransportError Outcome = "transport_error"
	OutcomeSuccess        Outcome = "success"
)

// Result describes how an upload ended. Path and Size are set on
// success; Err is set otherwise.
type Result struct {
	Outcome    Outcome
	Path       string
	Size       int64
	StatusCode int
	Err        error
}

// OK reports whether the download was saved.
func (r Result) OK() bool {
	return r.Outcome == OutcomeSuccess
}
