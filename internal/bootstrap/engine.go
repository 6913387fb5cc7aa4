package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"go.uber.org/fx"

	"github.com/sentinel-voice/sentinel/internal/engine"
	"github.com/sentinel-voice/sentinel/internal/transcript"
)

func ProvideReadiness() *engine.Readiness {
	return engine.NewReadiness()
}

// LoadEngine runs the one-time model load on startup, before the listener
// accepts connections. A failed load does not abort the process: the
// readiness state carries the reason and every handler answers 503 with it.
func LoadEngine(lc fx.Lifecycle, cfg *Config, readiness *engine.Readiness, store *transcript.Store, logger *slog.Logger) {
	var model *engine.Model

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := store.Migrate(); err != nil {
				logger.Warn("transcript migration failed, history disabled", "error", err)
			}

			path, err := cfg.ResolveModelPath()
			if err != nil {
				logger.Error("engine unavailable", "error", err)
				readiness.MarkFailed(err)
				return nil
			}

			logger.Info("loading model", "path", path)
			start := time.Now()
			m, err := engine.LoadModel(path)
			if err != nil {
				logger.Error("engine unavailable", "error", err)
				readiness.MarkFailed(err)
				return nil
			}

			model = m
			readiness.MarkReady(m)
			logger.Info("model loaded",
				"model", m.ModelName(),
				"elapsed", time.Since(start),
			)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if model != nil {
				model.Close()
			}
			return nil
		},
	})
}

var EngineModule = fx.Options(
	fx.Provide(ProvideReadiness),
	fx.Invoke(LoadEngine),
)
