package stt

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/sentinel-voice/sentinel/internal/engine"
	"github.com/sentinel-voice/sentinel/internal/shared"
	"github.com/sentinel-voice/sentinel/internal/stats"
	"github.com/sentinel-voice/sentinel/internal/transcript"
)

const (
	MinSampleRate = 8000
	MaxSampleRate = 48000

	maxFrameSize = 1 << 20
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

type HandlerConfig struct {
	Readiness   *engine.Readiness
	Manager     *Manager
	Transcripts *transcript.Store
	Stats       *stats.Store
	DefaultRate int
	Log         *slog.Logger
}

type Handler struct {
	readiness   *engine.Readiness
	manager     *Manager
	transcripts *transcript.Store
	stats       *stats.Store
	defaultRate int
	log         *slog.Logger
}

func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.DefaultRate == 0 {
		cfg.DefaultRate = 16000
	}
	return &Handler{
		readiness:   cfg.Readiness,
		manager:     cfg.Manager,
		transcripts: cfg.Transcripts,
		stats:       cfg.Stats,
		defaultRate: cfg.DefaultRate,
		log:         cfg.Log.With("handler", "stt"),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/ws", h.Stream)
}

// Stream upgrades the connection and runs a streaming recognition session.
// Binary frames are little-endian 16-bit mono PCM at the negotiated sample
// rate; every frame is answered with a partial or final transcript event.
//
//	@Summary		Stream audio for transcription
//	@Tags			stt
//	@Param			sample_rate	query	int	false	"PCM sample rate in Hz (8000-48000, default 16000)"
//	@Success		101
//	@Failure		400	{object}	shared.APIError
//	@Failure		503	{object}	shared.APIError
//	@Router			/ws [get]
func (h *Handler) Stream(c echo.Context) error {
	rate := h.defaultRate
	if raw := c.QueryParam("sample_rate"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return shared.BadRequest("invalid_sample_rate", "sample_rate must be an integer")
		}
		rate = v
	}
	if rate < MinSampleRate || rate > MaxSampleRate {
		return shared.BadRequest("invalid_sample_rate",
			fmt.Sprintf("sample_rate must be between %d and %d", MinSampleRate, MaxSampleRate))
	}

	factory, err := h.readiness.Handle()
	if err != nil {
		return shared.ServiceUnavailable("engine_not_ready", err.Error())
	}

	rec, err := factory.NewRecognizer(float64(rate))
	if err != nil {
		h.log.Error("failed to create recognizer", "error", err, "sample_rate", rate)
		return shared.InternalError("recognizer_failed", "Failed to create recognizer")
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		rec.Close()
		return err
	}
	conn.SetReadLimit(maxFrameSize)

	id := "sess_" + uuid.New().String()
	sess := NewSession(SessionConfig{
		ID:         id,
		SampleRate: rate,
		Channels:   1,
		Recognizer: rec,
		Conn:       conn,
		Log:        h.log,
		OnFinal:    h.recordFinal(id, rate),
	})

	h.manager.Add(sess)
	defer h.manager.Remove(id)

	ctx := context.Background()
	if err := h.stats.SessionStarted(ctx); err != nil {
		h.log.Warn("failed to count session", "error", err)
	}

	h.log.Info("session started", "session_id", id, "sample_rate", rate, "remote", c.RealIP())
	sess.Run()
	h.log.Info("session ended",
		"session_id", id,
		"audio_bytes", sess.AudioBytes(),
	)

	if err := h.stats.AudioBytes(ctx, sess.AudioBytes()); err != nil {
		h.log.Warn("failed to count audio bytes", "error", err)
	}
	return nil
}

func (h *Handler) recordFinal(sessionID string, rate int) func(engine.Result) {
	return func(res engine.Result) {
		ctx := context.Background()
		err := h.transcripts.Create(ctx, &transcript.Transcript{
			SessionID:  sessionID,
			Source:     transcript.SourceStream,
			Text:       res.Text,
			SampleRate: rate,
			Channels:   1,
		})
		if err != nil {
			h.log.Warn("failed to persist transcript", "error", err, "session_id", sessionID)
		}
		if err := h.stats.FinalEmitted(ctx); err != nil {
			h.log.Warn("failed to count final", "error", err)
		}
	}
}
