package health

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sentinel-voice/sentinel/internal/engine"
	"github.com/sentinel-voice/sentinel/internal/stt"
)

type AppInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type EngineInfo struct {
	Name string `json:"name"`
}

type ModelInfo struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

type Defaults struct {
	SampleRate int `json:"sample_rate"`
}

type Sessions struct {
	Active int `json:"active"`
}

type Response struct {
	Status    string     `json:"status"`
	App       AppInfo    `json:"app"`
	Engine    EngineInfo `json:"engine"`
	Model     *ModelInfo `json:"model,omitempty"`
	Defaults  Defaults   `json:"defaults"`
	Sessions  Sessions   `json:"sessions"`
	UptimeSec float64    `json:"uptime_seconds"`
	Error     string     `json:"error,omitempty"`
}

type HandlerConfig struct {
	AppName     string
	Version     string
	DefaultRate int
	Readiness   *engine.Readiness
	Manager     *stt.Manager
}

type Handler struct {
	appName     string
	version     string
	defaultRate int
	readiness   *engine.Readiness
	manager     *stt.Manager
	startedAt   time.Time
}

func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		appName:     cfg.AppName,
		version:     cfg.Version,
		defaultRate: cfg.DefaultRate,
		readiness:   cfg.Readiness,
		manager:     cfg.Manager,
		startedAt:   time.Now(),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
}

// Health reports service identity and whether the engine can serve.
// It returns 200 only once the model has loaded.
//
//	@Summary		Service health and identity
//	@Tags			health
//	@Produce		json
//	@Success		200	{object}	Response
//	@Failure		503	{object}	Response
//	@Router			/health [get]
func (h *Handler) Health(c echo.Context) error {
	resp := Response{
		App:       AppInfo{Name: h.appName, Version: h.version},
		Engine:    EngineInfo{Name: engine.Name},
		Defaults:  Defaults{SampleRate: h.defaultRate},
		UptimeSec: time.Since(h.startedAt).Seconds(),
	}
	if h.manager != nil {
		resp.Sessions = Sessions{Active: h.manager.Count()}
	}

	factory, err := h.readiness.Handle()
	if err != nil {
		resp.Status = h.readiness.State().String()
		resp.Error = err.Error()
		return c.JSON(http.StatusServiceUnavailable, resp)
	}

	resp.Status = "ok"
	resp.Model = &ModelInfo{
		Name: factory.ModelName(),
		Path: factory.ModelPath(),
	}
	return c.JSON(http.StatusOK, resp)
}
