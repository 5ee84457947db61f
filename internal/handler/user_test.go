package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/quota-sentry/internal/model"
)

func TestUserHandler_Create(t *testing.T) {
	svc, primary := newQuotaService(t, 3)
	h := NewUserHandler(svc)

	t.Run("generates an id", func(t *testing.T) {
		rec := doRequest(t, http.MethodPost, "/v1/users",
			`{"first_name":"Ada","last_name":"Lovelace"}`, h.Create, nil)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp model.UserDTO
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.ID)

		u, err := primary.GetByID(context.Background(), resp.ID)
		require.NoError(t, err)
		assert.Equal(t, "Ada", u.FirstName)
	})

	t.Run("negative requests is 400", func(t *testing.T) {
		rec := doRequest(t, http.MethodPost, "/v1/users",
			`{"first_name":"Ada","requests":-1}`, h.Create, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body is 400", func(t *testing.T) {
		rec := doRequest(t, http.MethodPost, "/v1/users", `{"first_name":`, h.Create, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUserHandler_Get(t *testing.T) {
	svc, primary := newQuotaService(t, 3)
	now := time.Now().UTC()
	require.NoError(t, primary.Create(context.Background(), model.User{ID: "u1", FirstName: "Ada", Modified: now}))
	h := NewUserHandler(svc)

	rec := doRequest(t, http.MethodGet, "/v1/users/u1", "", h.Get, map[string]string{"id": "u1"})
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp model.UserDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Ada", resp.FirstName)

	rec = doRequest(t, http.MethodGet, "/v1/users/ghost", "", h.Get, map[string]string{"id": "ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserHandler_Update(t *testing.T) {
	svc, primary := newQuotaService(t, 3)
	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, primary.Create(context.Background(), model.User{ID: "u1", FirstName: "Ada", Modified: now}))
	h := NewUserHandler(svc)

	t.Run("newer write is applied", func(t *testing.T) {
		body := fmt.Sprintf(`{"first_name":"Grace","modified":%q}`, now.Add(time.Minute).Format(time.RFC3339))
		rec := doRequest(t, http.MethodPut, "/v1/users/u1", body, h.Update, map[string]string{"id": "u1"})
		assert.Equal(t, http.StatusOK, rec.Code)

		u, err := primary.GetByID(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, "Grace", u.FirstName)
	})

	t.Run("absent id inserts", func(t *testing.T) {
		rec := doRequest(t, http.MethodPut, "/v1/users/fresh",
			`{"first_name":"Edsger"}`, h.Update, map[string]string{"id": "fresh"})
		assert.Equal(t, http.StatusOK, rec.Code)

		u, err := primary.GetByID(context.Background(), "fresh")
		require.NoError(t, err)
		assert.Equal(t, "Edsger", u.FirstName)
		assert.False(t, u.Created.IsZero(), "inserted record carries real timestamps")
	})

	t.Run("stale write is 409", func(t *testing.T) {
		body := fmt.Sprintf(`{"first_name":"stale","modified":%q}`, now.Add(-time.Minute).Format(time.RFC3339))
		rec := doRequest(t, http.MethodPut, "/v1/users/u1", body, h.Update, map[string]string{"id": "u1"})
		assert.Equal(t, http.StatusConflict, rec.Code)

		u, err := primary.GetByID(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, "Grace", u.FirstName, "stored record untouched")
	})
}

func TestUserHandler_Delete(t *testing.T) {
	svc, primary := newQuotaService(t, 3)
	now := time.Now().UTC()
	require.NoError(t, primary.Create(context.Background(), model.User{ID: "u1", Modified: now}))
	h := NewUserHandler(svc)

	rec := doRequest(t, http.MethodDelete, "/v1/users/u1", "", h.Delete, map[string]string{"id": "u1"})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	_, err := primary.GetByID(context.Background(), "u1")
	require.Error(t, err)

	all, err := primary.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Deleted)
}
