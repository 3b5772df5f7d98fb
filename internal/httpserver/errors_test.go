package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/videotube/internal/service"
	"github.com/Skotchmaster/videotube/internal/transport"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		kind error
		want int
	}{
		{service.ErrValidation, http.StatusBadRequest},
		{service.ErrUpload, http.StatusBadRequest},
		{service.ErrUnauthorized, http.StatusUnauthorized},
		{service.ErrNotFound, http.StatusNotFound},
		{service.ErrConflict, http.StatusConflict},
		{service.ErrInternal, http.StatusInternalServerError},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.kind), tt.kind.Error())
	}
}

func renderError(t *testing.T, err error) (*httptest.ResponseRecorder, transport.APIResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	ErrorHandler(err, c)

	var body transport.APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestErrorHandler_ServiceError(t *testing.T) {
	rec, body := renderError(t, &service.Error{Kind: service.ErrConflict, Msg: "user with email or username already exists"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, http.StatusConflict, body.StatusCode)
	assert.False(t, body.Success)
	assert.Nil(t, body.Data)
	assert.Equal(t, "user with email or username already exists", body.Message)
}

func TestErrorHandler_HTTPError(t *testing.T) {
	rec, body := renderError(t, httpError(&service.Error{Kind: service.ErrNotFound, Msg: "user does not exist"}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "user does not exist", body.Message)

	rec, body = renderError(t, echo.ErrMethodNotAllowed)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "Method Not Allowed", body.Message)
}

func TestErrorHandler_HidesInternals(t *testing.T) {
	rec, body := renderError(t, errors.New("pq: password authentication failed"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", body.Message)

	rec, body = renderError(t, echo.NewHTTPError(http.StatusInternalServerError, "dial tcp 10.0.0.1:5432"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", body.Message)

	rec, body = renderError(t, httpError(errors.New("raw")))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal server error", body.Message)
}
