package server

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxmind/rxmind-backend/internal/imaging"
	"github.com/rxmind/rxmind-backend/internal/processor"
)

const sampleCompletion = "Summary: Take medicine twice daily.\nChecklist: [Take pill at 8am, Take pill at 8pm]"

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeExtractor struct {
	mu    sync.Mutex
	calls int
	text  string
	err   error
}

func (f *fakeExtractor) Name() string { return "fake-ocr" }

func (f *fakeExtractor) ExtractText(ctx context.Context, img *imaging.DecodedImage) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.text, f.err
}

type fakeGenerator struct {
	mu     sync.Mutex
	calls  int
	output string
	err    error
}

func (f *fakeGenerator) Model() string { return "fake-llm" }

func (f *fakeGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.output, f.err
}

type fakeHealth map[string]string

func (f fakeHealth) HealthCheck(context.Context) map[string]string { return f }

type testServer struct {
	router    *gin.Engine
	extractor *fakeExtractor
	generator *fakeGenerator
}

func newTestServer(t *testing.T, maxUpload int64) *testServer {
	t.Helper()

	ext := &fakeExtractor{text: "Take 1 tablet by mouth twice daily"}
	gen := &fakeGenerator{output: sampleCompletion}

	summarizer, err := processor.NewLLMSummarizer(gen, time.Second)
	require.NoError(t, err)

	proc, err := processor.NewUploadProcessor(&processor.ProcessorConfig{
		Extractor:  ext,
		Summarizer: summarizer,
	})
	require.NoError(t, err)

	router := NewRouter(&RouterConfig{
		Processor:      proc,
		MaxUploadSize:  maxUpload,
		AllowedOrigins: []string{"*"},
	})

	return &testServer{router: router, extractor: ext, generator: gen}
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := 0; x < 8; x++ {
		img.Set(x, x, color.Black)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func multipartRequest(t *testing.T, field, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if field != "" {
		part, err := w.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	} else {
		require.NoError(t, w.WriteField("note", "no file here"))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload-image/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestUploadImageSuccess(t *testing.T) {
	ts := newTestServer(t, 1<<20)

	rec := serve(ts.router, multipartRequest(t, "file", "label.png", pngBytes(t)))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Take 1 tablet by mouth twice daily", body["extracted_text"])
	assert.Equal(t, sampleCompletion, body["llm_summary"])
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, processor.MessageSuccess, body["message"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, 1, ts.extractor.calls)
	assert.Equal(t, 1, ts.generator.calls)
}

func TestUploadImageInvalidImage(t *testing.T) {
	ts := newTestServer(t, 1<<20)

	rec := serve(ts.router, multipartRequest(t, "file", "notes.txt", []byte("definitely not an image")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"detail":"Uploaded file is not a valid image"}`, rec.Body.String())
	assert.Zero(t, ts.extractor.calls)
	assert.Zero(t, ts.generator.calls)
}

func TestUploadImageSummaryFailureIsPartial(t *testing.T) {
	ts := newTestServer(t, 1<<20)
	ts.generator.err = errors.New("quota exceeded")

	rec := serve(ts.router, multipartRequest(t, "file", "label.png", pngBytes(t)))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Take 1 tablet by mouth twice daily", body["extracted_text"])
	assert.NotContains(t, body, "llm_summary")
	assert.Equal(t, "partial", body["status"])
	assert.Equal(t, processor.MessageSummaryMissing, body["message"])
}

func TestUploadImageEmptyText(t *testing.T) {
	ts := newTestServer(t, 1<<20)
	ts.extractor.text = ""

	rec := serve(ts.router, multipartRequest(t, "file", "blank.png", pngBytes(t)))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "", body["extracted_text"])
	assert.Equal(t, 1, ts.generator.calls)
}

func TestUploadImageMissingFile(t *testing.T) {
	ts := newTestServer(t, 1<<20)

	rec := serve(ts.router, multipartRequest(t, "", "", nil))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["detail"], "No file uploaded")
	assert.Zero(t, ts.extractor.calls)
}

func TestUploadImageWrongField(t *testing.T) {
	ts := newTestServer(t, 1<<20)

	rec := serve(ts.router, multipartRequest(t, "image", "label.png", pngBytes(t)))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUploadImageNotMultipart(t *testing.T) {
	ts := newTestServer(t, 1<<20)

	req := httptest.NewRequest(http.MethodPost, "/upload-image/", bytes.NewReader(pngBytes(t)))
	req.Header.Set("Content-Type", "image/png")
	rec := serve(ts.router, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUploadImageTooLarge(t *testing.T) {
	ts := newTestServer(t, 1024)

	tests := []struct {
		name string
		size int
	}{
		{"over the body limit", 256 * 1024},
		{"over the file limit", 4096},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(ts.router, multipartRequest(t, "file", "big.png", bytes.Repeat([]byte{0x89}, tt.size)))

			assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
			assert.Contains(t, decodeBody(t, rec)["detail"], "1024 bytes")
		})
	}
	assert.Zero(t, ts.extractor.calls)
}

func TestUploadImageRejectsOversizedDimensions(t *testing.T) {
	ts := newTestServer(t, 1<<20)

	// PNG signature plus an IHDR declaring 20000x20000 grayscale, no pixel data
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], 20000)
	binary.BigEndian.PutUint32(ihdr[4:8], 20000)
	ihdr[8] = 8
	chunk := append([]byte("IHDR"), ihdr...)

	var data bytes.Buffer
	data.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&data, binary.BigEndian, uint32(len(ihdr)))
	data.Write(chunk)
	_ = binary.Write(&data, binary.BigEndian, crc32.ChecksumIEEE(chunk))

	rec := serve(ts.router, multipartRequest(t, "file", "huge.png", data.Bytes()))

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.JSONEq(t, `{"detail":"Image dimensions exceed the maximum of 40000000 pixels"}`, rec.Body.String())
	assert.Zero(t, ts.extractor.calls)
	assert.Zero(t, ts.generator.calls)
}

func TestUploadImageOCRFailure(t *testing.T) {
	ts := newTestServer(t, 1<<20)
	ts.extractor.err = errors.New("tesseract: failed to load language")

	rec := serve(ts.router, multipartRequest(t, "file", "label.png", pngBytes(t)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"detail":"Failed to extract text from image"}`, rec.Body.String())
	assert.Zero(t, ts.generator.calls)
}

func TestUploadImageEchoesRequestID(t *testing.T) {
	ts := newTestServer(t, 1<<20)

	req := multipartRequest(t, "file", "label.png", pngBytes(t))
	req.Header.Set("X-Request-ID", "req-123")
	rec := serve(ts.router, req)

	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
}

func TestUploadImageDeterministic(t *testing.T) {
	ts := newTestServer(t, 1<<20)
	data := pngBytes(t)

	first := decodeBody(t, serve(ts.router, multipartRequest(t, "file", "label.png", data)))
	second := decodeBody(t, serve(ts.router, multipartRequest(t, "file", "label.png", data)))

	assert.Equal(t, first["extracted_text"], second["extracted_text"])
}

func TestHealth(t *testing.T) {
	t.Run("no dependencies", func(t *testing.T) {
		ts := newTestServer(t, 1<<20)
		rec := serve(ts.router, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("degraded dependency", func(t *testing.T) {
		r := NewRouter(&RouterConfig{
			Processor:      nil,
			Health:         fakeHealth{"postgres": "ok", "redis": "connection refused"},
			MaxUploadSize:  1024,
			AllowedOrigins: []string{"*"},
		})
		rec := serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "degraded", body["status"])
		assert.Contains(t, body["dependencies"], "redis")
	})
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, 1<<20)

	req := httptest.NewRequest(http.MethodOptions, "/upload-image/", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := serve(ts.router, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestErrorResponseUnknownError(t *testing.T) {
	status, payload := ErrorResponse(errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error", payload.Detail)
}
