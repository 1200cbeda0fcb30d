package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/codertg2/legalai/internal/engine"
	"github.com/codertg2/legalai/models"
	"github.com/codertg2/legalai/session/session_models"
)

// Pipeline is the engine surface the HTTP layer consumes.
type Pipeline interface {
	Search(ctx context.Context, sessionID, query string) (engine.Response, error)
	FollowUp(ctx context.Context, sessionID, query string) (engine.Response, error)
	UpdateEvaluation(ctx context.Context, query, answer, evaluation string) error
	UpdateFeedback(ctx context.Context, query, answer, feedback string) error
	CleanHistory(ctx context.Context, sessionID string) error
	SearchHistory(ctx context.Context, sessionID, q string, k int) ([]session_models.HistoryHit, error)
}

// Handler serves the pipeline's tool surface. The session id travels in the
// X-Session-ID header; an empty id starts a new session and the response
// echoes the assigned one.
type Handler struct {
	Engine Pipeline
	Logger *log.Logger
}

func (h *Handler) Register(g *echo.Group) {
	g.POST("/search", h.search)
	g.POST("/follow_up", h.followUp)
	g.POST("/evaluation", h.evaluation)
	g.POST("/feedback", h.feedback)
	g.POST("/clean_history", h.cleanHistory)
	g.GET("/history/search", h.historySearch)
}

type queryRequest struct {
	Query string `json:"query"`
}

type evaluationRequest struct {
	Query      string `json:"query"`
	Response   string `json:"response"`
	Evaluation string `json:"evaluation"`
}

type feedbackRequest struct {
	Query    string `json:"query"`
	Response string `json:"response"`
	Feedback string `json:"feedback"`
}

func (h *Handler) search(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil || req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}
	res, err := h.Engine.Search(c.Request().Context(), c.Request().Header.Get("X-Session-ID"), req.Query)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	c.Response().Header().Set("X-Session-ID", res.SessionID)
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) followUp(c echo.Context) error {
	var req queryRequest
	if err := c.Bind(&req); err != nil || req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}
	res, err := h.Engine.FollowUp(c.Request().Context(), c.Request().Header.Get("X-Session-ID"), req.Query)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	c.Response().Header().Set("X-Session-ID", res.SessionID)
	return c.JSON(http.StatusOK, res)
}

func (h *Handler) evaluation(c echo.Context) error {
	var req evaluationRequest
	if err := c.Bind(&req); err != nil || req.Query == "" || req.Response == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query and response are required")
	}
	err := h.Engine.UpdateEvaluation(c.Request().Context(), req.Query, req.Response, req.Evaluation)
	switch {
	case errors.Is(err, models.ErrEntryNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "no cached entry for that query and response")
	case err != nil:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) feedback(c echo.Context) error {
	var req feedbackRequest
	if err := c.Bind(&req); err != nil || req.Query == "" || req.Response == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query and response are required")
	}
	err := h.Engine.UpdateFeedback(c.Request().Context(), req.Query, req.Response, req.Feedback)
	switch {
	case errors.Is(err, models.ErrEntryNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "no cached entry for that query and response")
	case err != nil:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) cleanHistory(c echo.Context) error {
	sessionID := c.Request().Header.Get("X-Session-ID")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "X-Session-ID header is required")
	}
	if err := h.Engine.CleanHistory(c.Request().Context(), sessionID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "cleaned"})
}

func (h *Handler) historySearch(c echo.Context) error {
	sessionID := c.Request().Header.Get("X-Session-ID")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "X-Session-ID header is required")
	}
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}
	k, _ := strconv.Atoi(c.QueryParam("k"))
	hits, err := h.Engine.SearchHistory(c.Request().Context(), sessionID, q, k)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"hits": hits})
}
