package batch

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/sentinel-voice/sentinel/internal/engine"
)

type fakeRecognizer struct {
	finalAt   map[int]engine.Result
	flush     engine.Result
	fed       int
	closed    int
	lastFinal engine.Result
}

func (f *fakeRecognizer) AcceptAudio(pcm []byte) bool {
	f.fed++
	if res, ok := f.finalAt[f.fed]; ok {
		f.lastFinal = res
		return true
	}
	return false
}

func (f *fakeRecognizer) Partial() (string, error)            { return "", nil }
func (f *fakeRecognizer) Result() (engine.Result, error)      { return f.lastFinal, nil }
func (f *fakeRecognizer) FinalResult() (engine.Result, error) { return f.flush, nil }
func (f *fakeRecognizer) Close()                              { f.closed++ }

type fakeFactory struct {
	rec   *fakeRecognizer
	calls int
	rates []float64
}

func (f *fakeFactory) NewRecognizer(rate float64) (engine.Recognizer, error) {
	f.calls++
	f.rates = append(f.rates, rate)
	return f.rec, nil
}

func (f *fakeFactory) ModelName() string { return "test-model" }
func (f *fakeFactory) ModelPath() string { return "/models/test-model" }

func newTestHandler(readiness *engine.Readiness) (*echo.Echo, *Handler) {
	e := echo.New()
	h := NewHandler(HandlerConfig{
		Readiness: readiness,
		Log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	h.RegisterRoutes(e)
	return e, h
}

func readyFactory(rec *fakeRecognizer) (*engine.Readiness, *fakeFactory) {
	factory := &fakeFactory{rec: rec}
	readiness := engine.NewReadiness()
	readiness.MarkReady(factory)
	return readiness, factory
}

func upload(t *testing.T, e *echo.Echo, filename string, data []byte, query string) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/transcribe"+query, body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestTranscribe_RejectsNonWAVFilename(t *testing.T) {
	readiness, factory := readyFactory(&fakeRecognizer{})
	e, _ := newTestHandler(readiness)

	rec := upload(t, e, "speech.mp3", makeWAV(t, 16000, 1, 16, 1600), "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid_file_type") {
		t.Errorf("expected invalid_file_type, got %s", rec.Body.String())
	}
	if factory.calls != 0 {
		t.Error("recognizer must not be created for rejected uploads")
	}
}

func TestTranscribe_RejectsMissingFile(t *testing.T) {
	readiness, _ := readyFactory(&fakeRecognizer{})
	e, _ := newTestHandler(readiness)

	req := httptest.NewRequest(http.MethodPost, "/api/transcribe", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "missing_file") {
		t.Errorf("expected missing_file, got %s", rec.Body.String())
	}
}

func TestTranscribe_RejectsEmptyFile(t *testing.T) {
	readiness, _ := readyFactory(&fakeRecognizer{})
	e, _ := newTestHandler(readiness)

	rec := upload(t, e, "empty.wav", nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "empty_file") {
		t.Errorf("expected empty_file, got %s", rec.Body.String())
	}
}

func TestTranscribe_RejectsGarbage(t *testing.T) {
	readiness, _ := readyFactory(&fakeRecognizer{})
	e, _ := newTestHandler(readiness)

	rec := upload(t, e, "noise.wav", []byte("this is not a riff container at all"), "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid_wav") {
		t.Errorf("expected invalid_wav, got %s", rec.Body.String())
	}
}

func TestTranscribe_RejectsTooLong(t *testing.T) {
	readiness, factory := readyFactory(&fakeRecognizer{})
	e, _ := newTestHandler(readiness)

	// 2 seconds of audio against a 1 second limit
	rec := upload(t, e, "long.wav", makeWAV(t, 16000, 1, 16, 32000), "?max_seconds=1")
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "audio_too_long") {
		t.Errorf("expected audio_too_long, got %s", rec.Body.String())
	}
	if factory.calls != 0 {
		t.Error("recognizer must not be created for rejected uploads")
	}
}

func TestTranscribe_RejectsBadMaxSeconds(t *testing.T) {
	readiness, _ := readyFactory(&fakeRecognizer{})
	e, _ := newTestHandler(readiness)

	data := makeWAV(t, 16000, 1, 16, 1600)
	for _, q := range []string{"?max_seconds=0", "?max_seconds=3601", "?max_seconds=soon"} {
		rec := upload(t, e, "ok.wav", data, q)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("query %s: expected 400, got %d", q, rec.Code)
		}
	}
}

func TestTranscribe_RejectsUnsupportedBitDepth(t *testing.T) {
	readiness, _ := readyFactory(&fakeRecognizer{})
	e, _ := newTestHandler(readiness)

	rec := upload(t, e, "deep.wav", makeWAV(t, 16000, 1, 32, 1600), "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid_sample_width") {
		t.Errorf("expected invalid_sample_width, got %s", rec.Body.String())
	}
}

func TestTranscribe_NotReady(t *testing.T) {
	e, _ := newTestHandler(engine.NewReadiness())

	rec := upload(t, e, "ok.wav", makeWAV(t, 16000, 1, 16, 1600), "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "engine_not_ready") {
		t.Errorf("expected engine_not_ready, got %s", rec.Body.String())
	}
}

func TestTranscribe_Mono(t *testing.T) {
	fr := &fakeRecognizer{
		finalAt: map[int]engine.Result{
			2: {Text: "hello", Words: []engine.Word{{Word: "hello", Start: 0.1, End: 0.4}}},
		},
		flush: engine.Result{Text: "world", Words: []engine.Word{{Word: "world", Start: 0.5, End: 0.9}}},
	}
	readiness, factory := readyFactory(fr)
	e, _ := newTestHandler(readiness)

	// 10000 frames at 4000 per chunk: 3 chunks fed
	rec := upload(t, e, "speech.wav", makeWAV(t, 16000, 1, 16, 10000), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp TranscribeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Text != "hello world" {
		t.Errorf("expected 'hello world', got %q", resp.Text)
	}
	if len(resp.Result) != 2 {
		t.Errorf("expected 2 words, got %d", len(resp.Result))
	}
	if resp.SampleRate != 16000 || resp.Channels != 1 {
		t.Errorf("unexpected format echo: %+v", resp)
	}
	if resp.DurationSec < 0.6 || resp.DurationSec > 0.7 {
		t.Errorf("expected ~0.625s, got %v", resp.DurationSec)
	}

	if fr.fed != 3 {
		t.Errorf("expected 3 chunks fed, got %d", fr.fed)
	}
	if fr.closed != 1 {
		t.Errorf("expected recognizer closed once, got %d", fr.closed)
	}
	if len(factory.rates) != 1 || factory.rates[0] != 16000 {
		t.Errorf("expected recognizer at the file rate, got %v", factory.rates)
	}
}

func TestTranscribe_StereoAccepted(t *testing.T) {
	fr := &fakeRecognizer{flush: engine.Result{Text: "ok"}}
	readiness, _ := readyFactory(fr)
	e, _ := newTestHandler(readiness)

	rec := upload(t, e, "stereo.wav", makeWAV(t, 44100, 2, 16, 4410), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp TranscribeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Channels != 2 {
		t.Errorf("expected 2 channels, got %d", resp.Channels)
	}
	if resp.Text != "ok" {
		t.Errorf("expected 'ok', got %q", resp.Text)
	}
}
