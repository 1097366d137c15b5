package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medassist/database"
)

func protected(secret string) http.Handler {
	return Middleware(func() string { return secret })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok:" + Subject(r.Context())))
	}))
}

func call(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/campagnes", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestMintAndParse(t *testing.T) {
	token, err := Mint("s3cret", "admin", time.Hour)
	require.NoError(t, err)
	sub, err := Parse("s3cret", token)
	require.NoError(t, err)
	assert.Equal(t, "admin", sub)

	_, err = Parse("other", token)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)

	_, err = Mint("", "admin", time.Hour)
	assert.Error(t, err)
}

func TestMiddleware(t *testing.T) {
	h := protected("s3cret")

	rec := call(h, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Authentification requise")

	assert.Equal(t, http.StatusUnauthorized, call(h, "pas-un-jeton").Code)

	token, err := Mint("s3cret", "admin", time.Hour)
	require.NoError(t, err)
	rec = call(h, token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok:admin", rec.Body.String())
}

func TestMiddlewareExpired(t *testing.T) {
	prev := database.Now
	t.Cleanup(func() { database.Now = prev })

	database.Now = func() time.Time { return time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC) }
	token, err := Mint("s3cret", "admin", time.Hour)
	require.NoError(t, err)

	database.Now = func() time.Time { return time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC) }
	rec := call(protected("s3cret"), token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "expirée")
}

func TestMiddlewareDisabled(t *testing.T) {
	rec := call(protected(""), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok:", rec.Body.String())
}
