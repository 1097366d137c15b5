package respond

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medassist/database"
	"medassist/model"
)

func TestPaging(t *testing.T) {
	cases := []struct {
		query string
		want  model.Paging
	}{
		{"", model.Paging{Page: 1, PerPage: 25}},
		{"page=3&parPage=50", model.Paging{Page: 3, PerPage: 50}},
		{"page=0&parPage=0", model.Paging{Page: 1, PerPage: 25}},
		{"page=abc&parPage=5000", model.Paging{Page: 1, PerPage: 200}},
	}
	for _, tc := range cases {
		r := httptest.NewRequest(http.MethodGet, "/x?"+tc.query, nil)
		assert.Equal(t, tc.want, Paging(r), tc.query)
	}
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{database.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("create: %w", database.ErrConflict), http.StatusConflict},
		{database.ErrInUse, http.StatusConflict},
		{model.ValidationErrors{"nom": "obligatoire"}, http.StatusUnprocessableEntity},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		Error(rec, httptest.NewRequest(http.MethodGet, "/", nil), tc.err)
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
		assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	}
}

func TestInternalErrorHidesDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, httptest.NewRequest(http.MethodGet, "/", nil), fmt.Errorf("failed to list kafalas: no such column: kafil_nom"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "kafil_nom")
	assert.JSONEq(t, `{"message":"Erreur interne, réessayez plus tard."}`, rec.Body.String())
}

func TestValidationBody(t *testing.T) {
	rec := httptest.NewRecorder()
	Validation(rec, model.ValidationErrors{"cin": "format invalide"})

	var body struct {
		Message string            `json:"message"`
		Errors  map[string]string `json:"errors"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "format invalide", body.Errors["cin"])
	assert.NotEmpty(t, body.Message)
}

func TestIDAndDecode(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		id, ok := ID(w, r, "id")
		if !ok {
			return
		}
		var payload struct {
			Nom string `json:"nom"`
		}
		if !Decode(w, r, &payload) {
			return
		}
		JSON(w, http.StatusOK, map[string]interface{}{"id": id, "nom": payload.Nom})
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/items/7", strings.NewReader(`{"nom":"Sara"}`)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":7,"nom":"Sara"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/items/-1", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/items/7", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
