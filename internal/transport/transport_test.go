package transport

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/videotube/internal/models"
)

func TestNewResponse_Envelope(t *testing.T) {
	body, err := json.Marshal(NewResponse(http.StatusCreated, map[string]string{"k": "v"}, "created"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"statusCode":201,"data":{"k":"v"},"message":"created","success":true}`, string(body))

	body, err = json.Marshal(NewResponse(http.StatusConflict, nil, "taken"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"statusCode":409,"data":null,"message":"taken","success":false}`, string(body))
}

func TestNewUserResponse_HasNoSecrets(t *testing.T) {
	digest := "digest"
	u := &models.User{
		ID:           uuid.New(),
		Username:     "neo",
		PasswordHash: "bcrypt-hash",
		RefreshToken: &digest,
	}

	body, err := json.Marshal(NewUserResponse(u))
	require.NoError(t, err)
	assert.NotContains(t, string(body), "bcrypt-hash")
	assert.NotContains(t, string(body), "digest")
	assert.NotContains(t, string(body), "password")
	assert.Contains(t, string(body), `"username":"neo"`)
}

func TestCookies(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	c := CreateCookie(AccessCookie, "tok", "/", exp)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Empty(t, c.Domain)
	assert.Equal(t, exp, c.Expires)

	d := DeleteCookie(RefreshCookie, "/")
	assert.Equal(t, -1, d.MaxAge)
	assert.Empty(t, d.Value)
}
