package transcript

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/sentinel-voice/sentinel/internal/shared"
)

type Handler struct {
	store *Store
	log   *slog.Logger
}

func NewHandler(store *Store, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		store: store,
		log:   log.With("handler", "transcript"),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/transcripts", h.List)
	e.GET("/api/transcripts/:id", h.Get)
}

// List returns recent transcripts, newest first.
//
//	@Summary		List recent transcripts
//	@Tags			transcripts
//	@Produce		json
//	@Param			limit	query		int	false	"Max entries (default 50, cap 200)"
//	@Success		200		{array}		Transcript
//	@Failure		404		{object}	shared.APIError
//	@Router			/api/transcripts [get]
func (h *Handler) List(c echo.Context) error {
	if h.store == nil {
		return shared.NotFound("history_disabled", "Transcript history is not configured")
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return shared.BadRequest("invalid_limit", "limit must be an integer")
		}
		limit = v
	}

	items, err := h.store.Recent(c.Request().Context(), limit)
	if err != nil {
		h.log.Error("failed to list transcripts", "error", err)
		return shared.InternalError("list_failed", "Failed to list transcripts")
	}
	if items == nil {
		items = []Transcript{}
	}
	return c.JSON(http.StatusOK, items)
}

// Get returns one transcript by id.
//
//	@Summary		Get a transcript
//	@Tags			transcripts
//	@Produce		json
//	@Param			id	path		string	true	"Transcript ID"
//	@Success		200	{object}	Transcript
//	@Failure		404	{object}	shared.APIError
//	@Router			/api/transcripts/{id} [get]
func (h *Handler) Get(c echo.Context) error {
	if h.store == nil {
		return shared.NotFound("history_disabled", "Transcript history is not configured")
	}

	t, err := h.store.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NotFound("transcript_not_found", "Transcript not found")
		}
		h.log.Error("failed to load transcript", "error", err)
		return shared.InternalError("get_failed", "Failed to load transcript")
	}
	return c.JSON(http.StatusOK, t)
}
