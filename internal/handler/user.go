package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/quota-sentry/internal/model"
	"github.com/iliyamo/quota-sentry/internal/repository"
	"github.com/iliyamo/quota-sentry/internal/service"
)

// UserHandler exposes the user CRUD surface. Every operation is served
// by whichever store the router currently deems active; the standby
// store catches up on the next sync run.
type UserHandler struct {
	Quota *service.QuotaService
}

func NewUserHandler(q *service.QuotaService) *UserHandler {
	return &UserHandler{Quota: q}
}

// ----- DTOs -----

type userReq struct {
	ID               string     `json:"id"`
	FirstName        string     `json:"first_name"`
	LastName         string     `json:"last_name"`
	LastLoginTimeUTC *time.Time `json:"last_login_time_utc"`
	Requests         int        `json:"requests"`
	Locked           bool       `json:"locked"`
	Created          *time.Time `json:"created"`
	Modified         *time.Time `json:"modified"`
}

func (r userReq) toModel() model.User {
	u := model.User{
		ID:               strings.TrimSpace(r.ID),
		FirstName:        strings.TrimSpace(r.FirstName),
		LastName:         strings.TrimSpace(r.LastName),
		LastLoginTimeUTC: r.LastLoginTimeUTC,
		Requests:         r.Requests,
		Locked:           r.Locked,
	}
	if r.Created != nil {
		u.Created = r.Created.UTC()
	}
	if r.Modified != nil {
		u.Modified = r.Modified.UTC()
	}
	return u
}

// Create handles POST /v1/users. A missing id gets a generated UUID.
func (h *UserHandler) Create(c echo.Context) error {
	var req userReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Requests < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "requests must be non-negative"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Quota.CreateUser(ctx, req.toModel())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	return c.JSON(http.StatusCreated, u.DTO())
}

// Get handles GET /v1/users/:id.
func (h *UserHandler) Get(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Quota.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "get user failed"})
	}
	return c.JSON(http.StatusOK, u)
}

// Update handles PUT /v1/users/:id. The write lands under the store's
// last-write-wins rule: a stale Modified leaves the stored record
// untouched, which is reported with 409.
func (h *UserHandler) Update(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user id required"})
	}
	var req userReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Requests < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "requests must be non-negative"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	applied, err := h.Quota.UpdateUser(ctx, id, req.toModel())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update user failed"})
	}
	if !applied {
		return c.JSON(http.StatusConflict, echo.Map{"error": "stored record is newer"})
	}
	return c.JSON(http.StatusOK, echo.Map{"user_id": id, "updated": true})
}

// Delete handles DELETE /v1/users/:id. Deletion is a tombstone, not a
// removal; the next sync run propagates it and then purges the record.
func (h *UserHandler) Delete(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Quota.DeleteUser(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete user failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
