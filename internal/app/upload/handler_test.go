package upload

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aitranscribe/internal/app/download"
	apperrors "aitranscribe/internal/app/errors"
	"aitranscribe/internal/app/notify"
)

// receivedUpload is what the mock transcription server saw.
type receivedUpload struct {
	method      string
	fieldNames  []string
	filename    string
	contentType string
	content     string
	query       string
	auth        string
}

// createMockTranscribeServer answers every POST with reply and records
// the multipart form it received.
func createMockTranscribeServer(t *testing.T, status int, reply string) (*httptest.Server, *[]receivedUpload, *sync.Mutex) {
	var (
		mu       sync.Mutex
		received []receivedUpload
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := receivedUpload{
			method: r.Method,
			query:  r.URL.RawQuery,
			auth:   r.Header.Get("Authorization"),
		}

		if err := r.ParseMultipartForm(10 << 20); err == nil {
			for name := range r.MultipartForm.File {
				rec.fieldNames = append(rec.fieldNames, name)
			}
			for name := range r.MultipartForm.Value {
				rec.fieldNames = append(rec.fieldNames, name)
			}
			if file, header, err := r.FormFile("file"); err == nil {
				data, _ := io.ReadAll(file)
				file.Close()
				rec.filename = header.Filename
				rec.contentType = header.Header.Get("Content-Type")
				rec.content = string(data)
			}
		}

		mu.Lock()
		received = append(received, rec)
		mu.Unlock()

		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(status)
		w.Write([]byte(reply))
	}))
	t.Cleanup(server.Close)

	return server, &received, &mu
}

func newTestHandler(endpoint string, saver download.Saver, recorder *notify.Recorder, opts ...Option) *Handler {
	base := []Option{
		WithEndpoint(endpoint),
		WithSaver(saver),
		WithNotifier(recorder),
	}
	return NewHandler(append(base, opts...)...)
}

func TestUpload_NoFileSelected(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()

	for _, selection := range []Selection{nil, {}, {nil}} {
		saver := download.NewMemorySaver()
		recorder := &notify.Recorder{}
		h := newTestHandler(server.URL, saver, recorder)

		result := h.Upload(context.Background(), selection)

		assert.Equal(t, OutcomeNoFile, result.Outcome)
		assert.True(t, errors.Is(result.Err, apperrors.ErrNoFile))
		assert.False(t, result.OK())
		assert.Empty(t, saver.Downloads())
		assert.Equal(t, []notify.Message{{Level: notify.LevelWarn, Text: MessageNoFile}}, recorder.Messages())
	}

	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestUpload_PostsSingleFilePart(t *testing.T) {
	server, received, mu := createMockTranscribeServer(t, http.StatusOK, "hello world")

	saver := download.NewMemorySaver()
	recorder := &notify.Recorder{}
	h := newTestHandler(server.URL+"/transcribe", saver, recorder)

	selection := Selection{FileFromBytes("audio.mp3", "audio/mpeg", []byte("ID3 fake mp3"))}
	result := h.Upload(context.Background(), selection)
	require.True(t, result.OK(), "upload failed: %v", result.Err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, *received, 1)
	got := (*received)[0]
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, []string{"file"}, got.fieldNames)
	assert.Equal(t, "audio.mp3", got.filename)
	assert.Equal(t, "audio/mpeg", got.contentType)
	assert.Equal(t, "ID3 fake mp3", got.content)
	assert.Empty(t, got.query)
	assert.Empty(t, got.auth)
}

func TestUpload_OnlyFirstFileIsSent(t *testing.T) {
	server, received, mu := createMockTranscribeServer(t, http.StatusOK, "ok")

	h := newTestHandler(server.URL, download.NewMemorySaver(), &notify.Recorder{})
	result := h.Upload(context.Background(), Selection{
		FileFromBytes("first.wav", "", []byte("one")),
		FileFromBytes("second.wav", "", []byte("two")),
	})
	require.True(t, result.OK())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, *received, 1)
	assert.Equal(t, "first.wav", (*received)[0].filename)
	assert.Equal(t, "application/octet-stream", (*received)[0].contentType)
}

func TestUpload_SavesResponseAsTranscription(t *testing.T) {
	server, _, _ := createMockTranscribeServer(t, http.StatusOK, "hello world")

	dir := t.TempDir()
	audio := filepath.Join(dir, "audio.mp3")
	require.NoError(t, os.WriteFile(audio, []byte("fake audio"), 0644))

	outDir := filepath.Join(dir, "downloads")
	recorder := &notify.Recorder{}
	h := newTestHandler(server.URL, download.NewFileSaver(outDir), recorder)

	result := h.Upload(context.Background(), SelectPaths(audio))
	require.True(t, result.OK(), "upload failed: %v", result.Err)

	assert.Equal(t, filepath.Join(outDir, "transcription.txt"), result.Path)
	assert.Equal(t, int64(len("hello world")), result.Size)
	assert.Equal(t, http.StatusOK, result.StatusCode)

	content, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(content))
	assert.Empty(t, recorder.Messages())
}

func TestUpload_ErrorStatusBodyIsStillDownloaded(t *testing.T) {
	server, _, _ := createMockTranscribeServer(t, http.StatusInternalServerError, `{"error":"boom"}`)

	saver := download.NewMemorySaver()
	recorder := &notify.Recorder{}
	h := newTestHandler(server.URL, saver, recorder)

	result := h.Upload(context.Background(), Selection{FileFromBytes("a.wav", "", []byte("x"))})

	require.True(t, result.OK())
	assert.Equal(t, http.StatusInternalServerError, result.StatusCode)
	downloads := saver.Downloads()
	require.Len(t, downloads, 1)
	assert.Equal(t, download.DefaultFilename, downloads[0].Name)
	assert.Equal(t, `{"error":"boom"}`, string(downloads[0].Data))
	assert.Empty(t, recorder.Messages())
}

func TestUpload_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL
	server.Close()

	saver := download.NewMemorySaver()
	recorder := &notify.Recorder{}
	h := newTestHandler(endpoint, saver, recorder)

	var result Result
	assert.NotPanics(t, func() {
		result = h.Upload(context.Background(), Selection{FileFromBytes("audio.mp3", "", []byte("x"))})
	})

	assert.Equal(t, OutcomeTransportError, result.Outcome)
	assert.True(t, errors.Is(result.Err, apperrors.ErrRequestFailed))
	assert.Empty(t, saver.Downloads())
	assert.Equal(t, []notify.Message{{Level: notify.LevelAlert, Text: MessageFailed}}, recorder.Messages())
}

func TestUpload_TruncatedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("short"))
	}))
	defer server.Close()

	saver := download.NewMemorySaver()
	recorder := &notify.Recorder{}
	h := newTestHandler(server.URL, saver, recorder)

	result := h.Upload(context.Background(), Selection{FileFromBytes("a.wav", "", []byte("x"))})

	assert.Equal(t, OutcomeTransportError, result.Outcome)
	assert.True(t, errors.Is(result.Err, apperrors.ErrResponseInvalid))
	assert.Empty(t, saver.Downloads())
	assert.Equal(t, []notify.Message{{Level: notify.LevelAlert, Text: MessageFailed}}, recorder.Messages())
}

func TestUpload_UnreadableFile(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()

	recorder := &notify.Recorder{}
	h := newTestHandler(server.URL, download.NewMemorySaver(), recorder)

	missing := filepath.Join(t.TempDir(), "missing.mp3")
	result := h.Upload(context.Background(), SelectPaths(missing))

	assert.Equal(t, OutcomeTransportError, result.Outcome)
	assert.True(t, errors.Is(result.Err, apperrors.ErrFileReadFailed))
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
	assert.Equal(t, []notify.Message{{Level: notify.LevelAlert, Text: MessageFailed}}, recorder.Messages())
}

func TestUpload_PanicInFileHandleIsContained(t *testing.T) {
	recorder := &notify.Recorder{}
	h := newTestHandler("http://127.0.0.1:0", download.NewMemorySaver(), recorder)

	file := &SelectedFile{
		Name: "bad.mp3",
		Open: func() (io.ReadCloser, error) { panic("handle revoked") },
	}

	var result Result
	assert.NotPanics(t, func() {
		result = h.Upload(context.Background(), Selection{file})
	})
	assert.Equal(t, OutcomeTransportError, result.Outcome)
	assert.Contains(t, result.Err.Error(), "handle revoked")
	assert.Len(t, recorder.Messages(), 1)
}

func TestUpload_CancelledContext(t *testing.T) {
	server, _, _ := createMockTranscribeServer(t, http.StatusOK, "never")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	saver := download.NewMemorySaver()
	h := newTestHandler(server.URL, saver, &notify.Recorder{})
	result := h.Upload(ctx, Selection{FileFromBytes("a.wav", "", []byte("x"))})

	assert.Equal(t, OutcomeTransportError, result.Outcome)
	assert.True(t, errors.Is(result.Err, context.Canceled))
	assert.Empty(t, saver.Downloads())
}

func TestUpload_RepeatedUploadsAreIndependent(t *testing.T) {
	server, received, mu := createMockTranscribeServer(t, http.StatusOK, "hello world")

	outDir := t.TempDir()
	h := newTestHandler(server.URL, download.NewFileSaver(outDir), &notify.Recorder{})
	selection := Selection{FileFromBytes("audio.mp3", "audio/mpeg", []byte("x"))}

	first := h.Upload(context.Background(), selection)
	second := h.Upload(context.Background(), selection)
	require.True(t, first.OK())
	require.True(t, second.OK())

	assert.NotEqual(t, first.Path, second.Path)
	mu.Lock()
	assert.Len(t, *received, 2)
	mu.Unlock()
}

func TestUpload_ConcurrentUploads(t *testing.T) {
	server, received, mu := createMockTranscribeServer(t, http.StatusOK, "hello world")

	saver := download.NewMemorySaver()
	h := newTestHandler(server.URL, saver, &notify.Recorder{})

	const n = 10
	var wg sync.WaitGroup
	results := make([]Result, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = h.Upload(context.Background(), Selection{FileFromBytes("a.wav", "", []byte("x"))})
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.True(t, r.OK())
	}
	assert.Len(t, saver.Downloads(), n)
	mu.Lock()
	assert.Len(t, *received, n)
	mu.Unlock()
}

func TestUpload_RecordsMetrics(t *testing.T) {
	server, _, _ := createMockTranscribeServer(t, http.StatusOK, "ok")

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	h := newTestHandler(server.URL, download.NewMemorySaver(), &notify.Recorder{}, WithMetrics(metrics))

	h.Upload(context.Background(), nil)
	h.Upload(context.Background(), Selection{FileFromBytes("a.wav", "", []byte("x"))})
	h.Upload(context.Background(), Selection{FileFromBytes("b.wav", "", []byte("y"))})

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.uploads.WithLabelValues(string(OutcomeNoFile))))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.uploads.WithLabelValues(string(OutcomeSuccess))))

	// A second set on the same registry shares the collectors.
	again := NewMetrics(reg)
	assert.Equal(t, 2.0, testutil.ToFloat64(again.uploads.WithLabelValues(string(OutcomeSuccess))))
}

func TestUpload_AudioScenario(t *testing.T) {
	server, received, mu := createMockTranscribeServer(t, http.StatusOK, "hello world")

	dir := t.TempDir()
	audio := filepath.Join(dir, "audio.mp3")
	require.NoError(t, os.WriteFile(audio, []byte{0xFF, 0xFB, 0x90, 0x00}, 0644))

	h := newTestHandler(server.URL, download.NewFileSaver(dir), &notify.Recorder{})
	result := h.Upload(context.Background(), SelectPaths(audio))
	require.True(t, result.OK())

	assert.Equal(t, "transcription.txt", filepath.Base(result.Path))
	content, err := os.ReadFile(result.Path)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(content))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, *received, 1)
	assert.Equal(t, "audio.mp3", (*received)[0].filename)
	assert.Equal(t, "audio/mpeg", (*received)[0].contentType)
	assert.Equal(t, string([]byte{0xFF, 0xFB, 0x90, 0x00}), (*received)[0].content)
}

func TestNewHandler_Defaults(t *testing.T) {
	h := NewHandler()
	assert.Equal(t, DefaultEndpoint, h.Endpoint())
	assert.Equal(t, "https://aitranscribe.replit.app/transcribe", h.Endpoint())
}
