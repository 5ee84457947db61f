package handler

import (
	"context"  // provides context with cancellation for store calls
	"net/http" // HTTP status codes and primitives
	"strings"  // string manipulation utilities
	"time"     // timeouts for store calls

	"github.com/labstack/echo/v4" // Echo framework for HTTP routing

	"github.com/iliyamo/quota-sentry/internal/service" // quota use cases
)

// QuotaHandler bundles dependencies for the quota endpoints.
type QuotaHandler struct {
	Quota *service.QuotaService
}

func NewQuotaHandler(q *service.QuotaService) *QuotaHandler {
	return &QuotaHandler{Quota: q}
}

type consumeResp struct {
	UserID  string `json:"user_id"`
	Outcome string `json:"outcome"` // consumed | locked
}

// Consume handles PUT /v1/quota/consume/:id. Locked is reported with
// 200 like a successful consume: the request was accepted, it just had
// no effect. Only an unknown user is a 404 and only a store failure is
// a 500.
func (h *QuotaHandler) Consume(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	outcome, err := h.Quota.Consume(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "consume quota failed"})
	}
	if outcome == service.OutcomeNotFound {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	return c.JSON(http.StatusOK, consumeResp{UserID: id, Outcome: string(outcome)})
}

// List handles GET /v1/quota and returns the quota projections of all
// live users in whichever store is currently active.
func (h *QuotaHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Quota.ListQuota(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list quota failed"})
	}
	return c.JSON(http.StatusOK, users)
}
