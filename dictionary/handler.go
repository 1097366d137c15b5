// Package dictionary serves the reference tables: situations, assistance
// types and budgets.
package dictionary

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"

	"medassist/database"
	"medassist/model"
	"medassist/respond"
)

var codePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

type inUseFunc func(ctx context.Context, db database.DBTX, id int64) (bool, error)

// DeleteHandler soft deletes a dictionary row unless something active still references it.
func DeleteHandler(db *sqlx.DB, table string, inUse inUseFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, ok := respond.ID(w, r, "id")
		if !ok {
			return
		}
		used, err := inUse(ctx, db, id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		if used {
			respond.Error(w, r, database.ErrInUse)
			return
		}
		if err := database.SoftDelete(ctx, db, table, id); err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Message(w, http.StatusOK, "Élément supprimé.")
	}
}

func RestoreHandler(db *sqlx.DB, table string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ID(w, r, "id")
		if !ok {
			return
		}
		if err := database.Restore(r.Context(), db, table, id); err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Message(w, http.StatusOK, "Élément restauré.")
	}
}

// pageOf cuts one page out of a full dictionary listing; the tables are
// small enough to be read whole.
func pageOf[T any](items []T, p model.Paging) model.Page[T] {
	start := p.Offset()
	if start > len(items) {
		start = len(items)
	}
	end := start + p.PerPage
	if end > len(items) {
		end = len(items)
	}
	return model.NewPage(items[start:end], len(items), p)
}

// Situations

func validateSituation(s *model.Situation) model.ValidationErrors {
	errs := model.ValidationErrors{}
	s.Libelle = strings.TrimSpace(s.Libelle)
	if s.Libelle == "" {
		errs.Add("libelle", "Le libellé est obligatoire.")
	}
	return errs
}

func ListSituationsHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		situations, err := database.ListSituations(r.Context(), db, r.URL.Query().Get("q"))
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, pageOf(situations, respond.Paging(r)))
	}
}

func GetSituationHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ID(w, r, "id")
		if !ok {
			return
		}
		s, err := database.GetSituation(r.Context(), db, id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, s)
	}
}

func SaveSituationHandler(db *sqlx.DB, create bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var s model.Situation
		if !create {
			id, ok := respond.ID(w, r, "id")
			if !ok {
				return
			}
			s.ID = id
		}
		var payload struct {
			Libelle     string `json:"libelle"`
			Description string `json:"description"`
		}
		if !respond.Decode(w, r, &payload) {
			return
		}
		s.Libelle, s.Description = payload.Libelle, payload.Description
		if errs := validateSituation(&s); errs.HasErrors() {
			respond.Validation(w, errs)
			return
		}

		var err error
		if create {
			err = database.CreateSituation(ctx, db, &s)
		} else {
			err = database.UpdateSituation(ctx, db, &s)
		}
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		saved, err := database.GetSituation(ctx, db, s.ID)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, statusFor(create), saved)
	}
}

// Assistance types

type assistanceTypeInput struct {
	Code         string  `json:"code"`
	Libelle      string  `json:"libelle"`
	PrixUnitaire float64 `json:"prixUnitaire"`
	Description  string  `json:"description"`
}

func (in *assistanceTypeInput) validate() model.ValidationErrors {
	errs := model.ValidationErrors{}
	in.Code = strings.TrimSpace(in.Code)
	in.Libelle = strings.TrimSpace(in.Libelle)
	if in.Code == "" {
		errs.Add("code", "Le code est obligatoire.")
	} else if !codePattern.MatchString(in.Code) {
		errs.Add("code", "Le code ne peut contenir que des minuscules, chiffres et _.")
	}
	if in.Libelle == "" {
		errs.Add("libelle", "Le libellé est obligatoire.")
	}
	if in.PrixUnitaire < 0 {
		errs.Add("prixUnitaire", "Le prix unitaire ne peut pas être négatif.")
	}
	return errs
}

func ListAssistanceTypesHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		types, err := database.ListAssistanceTypes(r.Context(), db, r.URL.Query().Get("q"))
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, pageOf(types, respond.Paging(r)))
	}
}

func GetAssistanceTypeHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ID(w, r, "id")
		if !ok {
			return
		}
		t, err := database.GetAssistanceType(r.Context(), db, id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, t)
	}
}

func SaveAssistanceTypeHandler(db *sqlx.DB, create bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var t model.AssistanceType
		if !create {
			id, ok := respond.ID(w, r, "id")
			if !ok {
				return
			}
			t.ID = id
		}
		var in assistanceTypeInput
		if !respond.Decode(w, r, &in) {
			return
		}
		if errs := in.validate(); errs.HasErrors() {
			respond.Validation(w, errs)
			return
		}
		t.Code, t.Libelle, t.PrixUnitaire, t.Description = in.Code, in.Libelle, in.PrixUnitaire, in.Description

		var err error
		if create {
			err = database.CreateAssistanceType(ctx, db, &t)
		} else {
			err = database.UpdateAssistanceType(ctx, db, &t)
		}
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		saved, err := database.GetAssistanceType(ctx, db, t.ID)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, statusFor(create), saved)
	}
}

// Budgets

type budgetInput struct {
	Libelle          string  `json:"libelle"`
	Annee            int     `json:"annee"`
	Montant          float64 `json:"montant"`
	TypeAssistanceID *int64  `json:"typeAssistanceId"`
	Description      string  `json:"description"`
}

func (in *budgetInput) validate(ctx context.Context, db database.DBTX) (model.ValidationErrors, error) {
	errs := model.ValidationErrors{}
	in.Libelle = strings.TrimSpace(in.Libelle)
	if in.Libelle == "" {
		errs.Add("libelle", "Le libellé est obligatoire.")
	}
	if in.Annee < 2000 || in.Annee > 2100 {
		errs.Add("annee", "L'année doit être comprise entre 2000 et 2100.")
	}
	if in.Montant < 0 {
		errs.Add("montant", "Le montant ne peut pas être négatif.")
	}
	if in.TypeAssistanceID != nil {
		if _, err := database.GetAssistanceType(ctx, db, *in.TypeAssistanceID); err != nil {
			if !errors.Is(err, database.ErrNotFound) {
				return nil, err
			}
			errs.Add("typeAssistanceId", "Type d'assistance introuvable.")
		}
	}
	return errs, nil
}

func ListBudgetsHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		budgets, err := database.ListBudgets(r.Context(), db, r.URL.Query().Get("q"), int(respond.QueryInt64(r, "annee")))
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, pageOf(budgets, respond.Paging(r)))
	}
}

func GetBudgetHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ID(w, r, "id")
		if !ok {
			return
		}
		b, err := database.GetBudget(r.Context(), db, id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, b)
	}
}

func SaveBudgetHandler(db *sqlx.DB, create bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var b model.Budget
		if !create {
			id, ok := respond.ID(w, r, "id")
			if !ok {
				return
			}
			b.ID = id
		}
		var in budgetInput
		if !respond.Decode(w, r, &in) {
			return
		}
		errs, err := in.validate(ctx, db)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		if errs.HasErrors() {
			respond.Validation(w, errs)
			return
		}
		b.Libelle, b.Annee, b.Montant, b.TypeAssistanceID, b.Description = in.Libelle, in.Annee, in.Montant, in.TypeAssistanceID, in.Description

		if create {
			err = database.CreateBudget(ctx, db, &b)
		} else {
			err = database.UpdateBudget(ctx, db, &b)
		}
		if err != nil {
			respond.Error(w, r, fmt.Errorf("save budget: %w", err))
			return
		}
		saved, err := database.GetBudget(ctx, db, b.ID)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, statusFor(create), saved)
	}
}

func statusFor(create bool) int {
	if create {
		return http.StatusCreated
	}
	return http.StatusOK
}
