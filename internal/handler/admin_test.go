package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/minigarage/showroom/internal/config"
	"github.com/minigarage/showroom/internal/repository"
	"github.com/minigarage/showroom/internal/service"
	"github.com/minigarage/showroom/internal/utils"
)

func newLoginHandler(t *testing.T) *AdminHandler {
	t.Helper()
	hash, err := utils.HashPassword("s3cret", bcrypt.MinCost)
	require.NoError(t, err)
	cfg := config.Config{
		JWTSecret:         "test-secret",
		AccessTTLMin:      15,
		AdminUsername:     "admin",
		AdminPasswordHash: hash,
	}
	items := repository.NewItemRepo(nil)
	holds := repository.NewHoldRepo(nil)
	orders := repository.NewOrderRepo(nil)
	res := service.NewReservationService(nil, items, holds, time.Minute)
	return NewAdminHandler(cfg, items, holds, orders, res)
}

func postLogin(t *testing.T, h *AdminHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/admin/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Login(e.NewContext(req, rec)))
	return rec
}

func TestAdminLogin(t *testing.T) {
	h := newLoginHandler(t)

	t.Run("valid credentials yield a token", func(t *testing.T) {
		rec := postLogin(t, h, `{"username":"admin","password":"s3cret"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.NotEmpty(t, body["access_token"])
		assert.NotEmpty(t, body["expires_at"])
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		rec := postLogin(t, h, `{"username":"admin","password":"nope"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown username is rejected the same way", func(t *testing.T) {
		rec := postLogin(t, h, `{"username":"root","password":"s3cret"}`)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed body is a bad request", func(t *testing.T) {
		rec := postLogin(t, h, `{"username":`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestItemRequestToItem(t *testing.T) {
	t.Run("defaults applied", func(t *testing.T) {
		it, err := itemRequest{Name: " Skyline GT-R ", Price: "15.50"}.toItem()
		require.NoError(t, err)
		assert.Equal(t, "Skyline GT-R", it.Name)
		assert.Equal(t, int64(1550), it.PriceCents)
		assert.Equal(t, "available", it.Status)
		assert.Equal(t, uint32(1), it.Quantity)
		assert.Nil(t, it.Code)
	})

	t.Run("optional fields become pointers", func(t *testing.T) {
		it, err := itemRequest{Name: "x", Price: "3", Code: "JDM-01", Category: "jdm"}.toItem()
		require.NoError(t, err)
		require.NotNil(t, it.Code)
		assert.Equal(t, "JDM-01", *it.Code)
		require.NotNil(t, it.Category)
		assert.Equal(t, "jdm", *it.Category)
	})

	t.Run("rejections", func(t *testing.T) {
		cases := map[string]itemRequest{
			"missing name":   {Price: "1.00"},
			"bad price":      {Name: "x", Price: "1.2.3"},
			"negative price": {Name: "x", Price: "-5"},
			"unknown status": {Name: "x", Price: "1.00", Status: "archived"},
		}
		for name, req := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := req.toItem()
				assert.Error(t, err)
			})
		}
	})
}
