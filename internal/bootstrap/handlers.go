package bootstrap

import (
	"context"
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/fx"

	"github.com/sentinel-voice/sentinel/internal/batch"
	"github.com/sentinel-voice/sentinel/internal/engine"
	"github.com/sentinel-voice/sentinel/internal/health"
	"github.com/sentinel-voice/sentinel/internal/stats"
	"github.com/sentinel-voice/sentinel/internal/stt"
	"github.com/sentinel-voice/sentinel/internal/transcript"
)

type HandlerParams struct {
	fx.In

	HealthHandler     *health.Handler
	StreamHandler     *stt.Handler
	BatchHandler      *batch.Handler
	TranscriptHandler *transcript.Handler
}

func RegisterRoutes(e *echo.Echo, params HandlerParams) {
	params.HealthHandler.RegisterRoutes(e)
	params.StreamHandler.RegisterRoutes(e)
	params.BatchHandler.RegisterRoutes(e)
	params.TranscriptHandler.RegisterRoutes(e)

	e.GET("/swagger/*", echoSwagger.EchoWrapHandlerV3())
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func ProvideLogger(cfg *Config) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
}

func ProvideManager(logger *slog.Logger) *stt.Manager {
	return stt.NewManager(logger)
}

func ProvideStreamHandler(cfg *Config, readiness *engine.Readiness, manager *stt.Manager, transcripts *transcript.Store, statsStore *stats.Store, logger *slog.Logger) *stt.Handler {
	return stt.NewHandler(stt.HandlerConfig{
		Readiness:   readiness,
		Manager:     manager,
		Transcripts: transcripts,
		Stats:       statsStore,
		DefaultRate: cfg.DefaultSampleRate,
		Log:         logger,
	})
}

func ProvideBatchHandler(readiness *engine.Readiness, transcripts *transcript.Store, statsStore *stats.Store, logger *slog.Logger) *batch.Handler {
	return batch.NewHandler(batch.HandlerConfig{
		Readiness:   readiness,
		Transcripts: transcripts,
		Stats:       statsStore,
		Log:         logger,
	})
}

func ProvideHealthHandler(cfg *Config, readiness *engine.Readiness, manager *stt.Manager) *health.Handler {
	return health.NewHandler(health.HandlerConfig{
		AppName:     AppName,
		Version:     Version,
		DefaultRate: cfg.DefaultSampleRate,
		Readiness:   readiness,
		Manager:     manager,
	})
}

func ProvideTranscriptHandler(store *transcript.Store, logger *slog.Logger) *transcript.Handler {
	return transcript.NewHandler(store, logger)
}

func StopSessions(lc fx.Lifecycle, manager *stt.Manager) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			manager.CloseAll()
			return nil
		},
	})
}

var HandlersModule = fx.Options(
	fx.Provide(
		ProvideLogger,
		ProvideManager,
		ProvideStreamHandler,
		ProvideBatchHandler,
		ProvideHealthHandler,
		ProvideTranscriptHandler,
	),
	fx.Invoke(RegisterRoutes),
	fx.Invoke(StopSessions),
)
