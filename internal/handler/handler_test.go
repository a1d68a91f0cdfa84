package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"marketplace/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

func newTestContext(t *testing.T, method string, target string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestWriteError_HTTPError(t *testing.T) {
	c, rec := newTestContext(t, http.MethodGet, "/")

	err := writeError(c, usecase.NewHTTPError(http.StatusNotFound, usecase.CodeNotFound, "order not found"))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "order not found"))
	assert.True(t, strings.Contains(rec.Body.String(), usecase.CodeNotFound))
}

func TestWriteError_UnknownError_HidesDetail(t *testing.T) {
	c, rec := newTestContext(t, http.MethodGet, "/")

	err := writeError(c, errors.New("pq: connection refused"))
	assert.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	//DBエラーの中身は漏らさない
	assert.False(t, strings.Contains(rec.Body.String(), "connection refused"))
	assert.True(t, strings.Contains(rec.Body.String(), "internal server error"))
}

func TestParsePathID(t *testing.T) {
	c, _ := newTestContext(t, http.MethodGet, "/")
	c.SetParamNames("id")
	c.SetParamValues("42")

	id, err := parsePathID(c, "id")
	assert.NoError(t, err)
	assert.Equal(t, int64(42), id)

	c.SetParamValues("abc")
	_, err = parsePathID(c, "id")
	assert.Error(t, err)

	c.SetParamValues("-1")
	_, err = parsePathID(c, "id")
	assert.Error(t, err)
}

func TestParseIntQuery_Default(t *testing.T) {
	c, _ := newTestContext(t, http.MethodGet, "/?limit=50")

	v, err := parseIntQuery(c, "limit", 20)
	assert.NoError(t, err)
	assert.Equal(t, 50, v)

	v, err = parseIntQuery(c, "page", 1)
	assert.NoError(t, err)
	assert.Equal(t, 1, v)
}
