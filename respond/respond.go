// Package respond holds the JSON reply helpers shared by every handler.
package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"medassist/database"
	"medassist/model"
)

const (
	defaultPerPage = 25
	maxPerPage     = 200
)

func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("failed to encode response", zap.Error(err))
	}
}

// Message writes {"message": msg}.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"message": msg})
}

// Error maps repository errors onto HTTP statuses.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	var verrs model.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		Validation(w, verrs)
	case errors.Is(err, database.ErrNotFound):
		Message(w, http.StatusNotFound, "Élément introuvable.")
	case errors.Is(err, database.ErrConflict):
		Message(w, http.StatusConflict, "Un enregistrement actif avec les mêmes informations existe déjà.")
	case errors.Is(err, database.ErrInUse):
		Message(w, http.StatusConflict, "Cet élément est encore utilisé et ne peut pas être supprimé.")
	default:
		zap.L().Error("request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		Message(w, http.StatusInternalServerError, "Erreur interne, réessayez plus tard.")
	}
}

func Validation(w http.ResponseWriter, errs model.ValidationErrors) {
	JSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
		"message": "Certains champs sont invalides.",
		"errors":  errs,
	})
}

// Decode reads a JSON body into v, answering 400 when it is malformed.
func Decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		Message(w, http.StatusBadRequest, "Corps de requête invalide.")
		return false
	}
	return true
}

// ID reads the {name} URL parameter as a positive integer.
func ID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		Message(w, http.StatusBadRequest, "Identifiant invalide.")
		return 0, false
	}
	return id, true
}

// QueryInt64 returns 0 for a missing or malformed parameter.
func QueryInt64(r *http.Request, name string) int64 {
	v, err := strconv.ParseInt(r.URL.Query().Get(name), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// Paging reads page and parPage, clamping them to the accepted range.
func Paging(r *http.Request) model.Paging {
	q := r.URL.Query()
	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	perPage, err := strconv.Atoi(q.Get("parPage"))
	if err != nil || perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return model.Paging{Page: page, PerPage: perPage}
}
