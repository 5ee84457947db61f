package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/quota-sentry/internal/model"
	"github.com/iliyamo/quota-sentry/internal/service"
)

// AdminHandler exposes the administrative surface: wiping and
// re-seeding both stores, dumping their contents, and triggering a
// reconciliation run outside its schedule. All routes sit behind the
// admin JWT middleware.
type AdminHandler struct {
	Admin *service.AdminService
	Sync  *service.SyncService
}

func NewAdminHandler(a *service.AdminService, s *service.SyncService) *AdminHandler {
	return &AdminHandler{Admin: a, Sync: s}
}

// Wipe handles DELETE /v1/admin/data and clears both stores.
func (h *AdminHandler) Wipe(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	if err := h.Admin.WipeAll(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "wipe failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "data deleted from both stores"})
}

// Seed handles PUT /v1/admin/seed: wipe both stores, then load each
// with its partition of the initial data.
func (h *AdminHandler) Seed(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	if err := h.Admin.Seed(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "seed failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "data seeded to both stores"})
}

// Dump handles GET /v1/admin/data and returns the live records of both
// stores.
func (h *AdminHandler) Dump(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	users, err := h.Admin.DumpAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "dump failed"})
	}
	return c.JSON(http.StatusOK, users)
}

// DumpStore handles GET /v1/admin/data/:store for a single store,
// where :store is "primary" or "secondary".
func (h *AdminHandler) DumpStore(c echo.Context) error {
	id, ok := model.ParseStoreID(c.Param("store"))
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown store"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	users, err := h.Admin.Dump(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "dump failed"})
	}
	return c.JSON(http.StatusOK, users)
}

// SyncNow handles POST /v1/admin/sync and runs one reconciliation pass
// immediately, returning its summary. The run shares the scheduler's
// in-flight guard, so it cannot overlap a scheduled run.
func (h *AdminHandler) SyncNow(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 60*time.Second)
	defer cancel()

	sum := h.Sync.Synchronize(ctx)
	return c.JSON(http.StatusOK, sum)
}
