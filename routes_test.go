package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"medassist/auth"
	"medassist/config"
	"medassist/database"
	"medassist/loader"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testSecret = "secret-de-test"

func noBrowser(ctx context.Context, html []byte) ([]byte, error) {
	return nil, errors.New("no browser in tests")
}

func newApp(t *testing.T, secret string) (*sqlx.DB, http.Handler) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, loader.InitDatabase(context.Background(), db, ""))

	prev := database.Now
	database.Now = func() time.Time { return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { database.Now = prev })

	config.SetPath(filepath.Join(t.TempDir(), "medassist_config.json"))
	cfg := config.Default()
	cfg.TimeZone = "UTC"
	cfg.UploadDir = t.TempDir()
	cfg.JWTSecret = secret
	config.Set(cfg)
	t.Cleanup(func() {
		config.SetPath("./medassist_config.json")
		config.Set(config.Default())
	})

	return db, SetupRoutes(db, noBrowser)
}

func call(t *testing.T, h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthzAndMetricsAreOpen(t *testing.T) {
	_, h := newApp(t, testSecret)

	rec := call(t, h, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = call(t, h, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "medassist_http_requests_total")
}

func TestAPIRequiresToken(t *testing.T) {
	_, h := newApp(t, testSecret)

	rec := call(t, h, http.MethodGet, "/api/campagnes", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Authentification requise.")

	assert.Equal(t, http.StatusUnauthorized, call(t, h, http.MethodGet, "/api/campagnes", "", "pas-un-jeton").Code)

	token, err := auth.Mint(testSecret, "admin", time.Hour)
	require.NoError(t, err)
	rec = call(t, h, http.MethodGet, "/api/campagnes", "", token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"total":0`)
}

func TestCampaignFlowThroughRouter(t *testing.T) {
	_, h := newApp(t, "")

	rec := call(t, h, http.MethodPost, "/api/campagnes",
		`{"nom":"Caravane Témara","typeAssistanceId":1,"dateDebut":"2025-06-01","dateFin":"2025-06-30","montantBudget":3000}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var c struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.Equal(t, int64(1), c.ID)

	rec = call(t, h, http.MethodPost, "/api/beneficiaires",
		`{"campagneId":1,"nom":"Alaoui","prenom":"Fatima","cin":"AB123456","decision":"accepte"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(t, h, http.MethodGet, "/api/campagnes/1/credit", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"restant":2850`)

	rec = call(t, h, http.MethodGet, "/api/campagnes/1/statistiques", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = call(t, h, http.MethodGet, "/api/tableau-de-bord", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, call(t, h, http.MethodGet, "/api/campagnes/99", "", "").Code)
	assert.Equal(t, http.StatusNotFound, call(t, h, http.MethodGet, "/api/kafalas/1/fiche?format=pdf", "", "").Code)
}

func TestConfigRedactsSecretAndKeepsIt(t *testing.T) {
	_, h := newApp(t, testSecret)
	token, err := auth.Mint(testSecret, "admin", time.Hour)
	require.NoError(t, err)

	rec := call(t, h, http.MethodGet, "/api/config", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), testSecret)
	assert.NotContains(t, rec.Body.String(), "jwtSecret")

	rec = call(t, h, http.MethodPost, "/api/config", `{"importFolderPath":"/nulle/part"}`, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "/nulle/part")

	dir := t.TempDir()
	rec = call(t, h, http.MethodPost, "/api/config", `{"importFolderPath":"`+dir+`","uploadDir":"`+dir+`","maxUploadMB":5}`, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := config.GetConfig()
	assert.Equal(t, testSecret, got.JWTSecret)
	assert.Equal(t, dir, got.ImportFolderPath)
	assert.Equal(t, 5, got.MaxUploadMB)
}
