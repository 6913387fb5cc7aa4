package batch

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sentinel-voice/sentinel/internal/engine"
	"github.com/sentinel-voice/sentinel/internal/shared"
	"github.com/sentinel-voice/sentinel/internal/stats"
	"github.com/sentinel-voice/sentinel/internal/transcript"
)

const (
	defaultMaxSeconds = 60
	minMaxSeconds     = 1
	maxMaxSeconds     = 3600

	chunkFrames = 4000
)

type TranscribeResponse struct {
	Text        string        `json:"text"`
	Result      []engine.Word `json:"result"`
	SampleRate  int           `json:"sample_rate"`
	Channels    int           `json:"channels"`
	DurationSec float64       `json:"duration_sec"`
}

type HandlerConfig struct {
	Readiness   *engine.Readiness
	Transcripts *transcript.Store
	Stats       *stats.Store
	Log         *slog.Logger
}

type Handler struct {
	readiness   *engine.Readiness
	transcripts *transcript.Store
	stats       *stats.Store
	log         *slog.Logger
}

func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	return &Handler{
		readiness:   cfg.Readiness,
		transcripts: cfg.Transcripts,
		stats:       cfg.Stats,
		log:         cfg.Log.With("handler", "batch"),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.POST("/api/transcribe", h.Transcribe)
}

// Transcribe runs recognition over one uploaded WAV file.
//
//	@Summary		Transcribe a WAV file
//	@Tags			stt
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file		formData	file	true	"16-bit PCM WAV, mono or stereo"
//	@Param			max_seconds	query		int		false	"Duration limit in seconds (1-3600, default 60)"
//	@Success		200	{object}	TranscribeResponse
//	@Failure		400	{object}	shared.APIError
//	@Failure		413	{object}	shared.APIError
//	@Failure		503	{object}	shared.APIError
//	@Router			/api/transcribe [post]
func (h *Handler) Transcribe(c echo.Context) error {
	maxSeconds := defaultMaxSeconds
	if raw := c.QueryParam("max_seconds"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < minMaxSeconds || v > maxMaxSeconds {
			return shared.BadRequest("invalid_max_seconds",
				fmt.Sprintf("max_seconds must be between %d and %d", minMaxSeconds, maxMaxSeconds))
		}
		maxSeconds = v
	}

	file, err := c.FormFile("file")
	if err != nil {
		return shared.BadRequest("missing_file", "Missing file upload")
	}
	if !strings.HasSuffix(strings.ToLower(file.Filename), ".wav") {
		return shared.BadRequest("invalid_file_type", "Only .wav files are accepted")
	}

	src, err := file.Open()
	if err != nil {
		return shared.BadRequest("unreadable_file", "Failed to read upload")
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return shared.BadRequest("unreadable_file", "Failed to read upload")
	}
	if len(data) == 0 {
		return shared.BadRequest("empty_file", "Uploaded file is empty")
	}

	a, err := Decode(data)
	if err != nil {
		return shared.BadRequest("invalid_wav", "Invalid or unsupported WAV file")
	}
	if a.Duration > time.Duration(maxSeconds)*time.Second {
		return shared.PayloadTooLarge("audio_too_long",
			fmt.Sprintf("Audio is %.1fs, limit is %ds", a.Duration.Seconds(), maxSeconds))
	}
	if a.BitDepth != 16 {
		return shared.BadRequest("invalid_sample_width", "WAV must be 16-bit PCM")
	}
	if a.Channels != 1 && a.Channels != 2 {
		return shared.BadRequest("invalid_channels", "WAV must be mono or stereo")
	}

	factory, err := h.readiness.Handle()
	if err != nil {
		return shared.ServiceUnavailable("engine_not_ready", err.Error())
	}

	rec, err := factory.NewRecognizer(float64(a.SampleRate))
	if err != nil {
		h.log.Error("failed to create recognizer", "error", err, "sample_rate", a.SampleRate)
		return shared.InternalError("recognizer_failed", "Failed to create recognizer")
	}
	defer rec.Close()

	text, words, err := transcribe(rec, a)
	if err != nil {
		h.log.Error("transcription failed", "error", err)
		return shared.InternalError("transcription_failed", "Transcription failed")
	}

	ctx := c.Request().Context()
	if err := h.stats.BatchRequest(ctx); err != nil {
		h.log.Warn("failed to count batch request", "error", err)
	}
	if err := h.stats.AudioBytes(ctx, int64(len(a.PCM))); err != nil {
		h.log.Warn("failed to count audio bytes", "error", err)
	}
	if text != "" {
		err := h.transcripts.Create(ctx, &transcript.Transcript{
			Source:      transcript.SourceBatch,
			Text:        text,
			SampleRate:  a.SampleRate,
			Channels:    a.Channels,
			DurationSec: a.Duration.Seconds(),
		})
		if err != nil {
			h.log.Warn("failed to persist transcript", "error", err)
		}
	}

	if words == nil {
		words = []engine.Word{}
	}
	return c.JSON(http.StatusOK, TranscribeResponse{
		Text:        text,
		Result:      words,
		SampleRate:  a.SampleRate,
		Channels:    a.Channels,
		DurationSec: a.Duration.Seconds(),
	})
}

// transcribe feeds the samples in fixed-size chunks and joins every
// finalized utterance, including the trailing flush.
func transcribe(rec engine.Recognizer, a *Audio) (string, []engine.Word, error) {
	chunk := chunkFrames * a.Channels * 2
	var parts []string
	var words []engine.Word

	for off := 0; off < len(a.PCM); off += chunk {
		end := off + chunk
		if end > len(a.PCM) {
			end = len(a.PCM)
		}
		if !rec.AcceptAudio(a.PCM[off:end]) {
			continue
		}
		res, err := rec.Result()
		if err != nil {
			return "", nil, err
		}
		if res.Text != "" {
			parts = append(parts, res.Text)
			words = append(words, res.Words...)
		}
	}

	res, err := rec.FinalResult()
	if err != nil {
		return "", nil, err
	}
	if res.Text != "" {
		parts = append(parts, res.Text)
		words = append(words, res.Words...)
	}
	return strings.Join(parts, " "), words, nil
}
