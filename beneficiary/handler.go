package beneficiary

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"medassist/campaign"
	"medassist/database"
	"medassist/mappers"
	"medassist/model"
	"medassist/respond"
)

type beneficiaryInput struct {
	CampagneID       int64   `json:"campagneId"`
	TypeAssistanceID *int64  `json:"typeAssistanceId"`
	SituationID      *int64  `json:"situationId"`
	Nom              string  `json:"nom"`
	Prenom           string  `json:"prenom"`
	Sexe             string  `json:"sexe"`
	DateNaissance    *string `json:"dateNaissance"`
	Cin              string  `json:"cin"`
	Telephone        string  `json:"telephone"`
	Adresse          string  `json:"adresse"`
	Ville            string  `json:"ville"`
	Decision         string  `json:"decision"`
	Cote             string  `json:"cote"`
	Remarques        string  `json:"remarques"`
}

// apply copies the posted fields onto b. An omitted decision leaves the
// current one in place.
func (in beneficiaryInput) apply(b *model.Beneficiary) {
	b.TypeAssistanceID = in.TypeAssistanceID
	b.SituationID = in.SituationID
	b.Nom = in.Nom
	b.Prenom = in.Prenom
	b.Sexe = in.Sexe
	b.DateNaissance = in.DateNaissance
	b.Cin = in.Cin
	b.Telephone = in.Telephone
	b.Adresse = in.Adresse
	b.Ville = in.Ville
	if in.Decision != "" {
		b.Decision = model.Decision(in.Decision)
	}
	b.Cote = in.Cote
	b.Remarques = in.Remarques
}

func today() time.Time {
	t, _ := time.Parse("2006-01-02", campaign.CurrentDay())
	return t
}

func listHandler(db *sqlx.DB, fromPath bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := model.BeneficiaryFilters{
			CampagneID:  respond.QueryInt64(r, "campagneId"),
			Decision:    q.Get("decision"),
			Sexe:        q.Get("sexe"),
			SituationID: respond.QueryInt64(r, "situationId"),
			Query:       q.Get("q"),
			Paging:      respond.Paging(r),
		}
		if fromPath {
			id, ok := respond.ID(w, r, "id")
			if !ok {
				return
			}
			if _, err := database.GetCampaign(r.Context(), db, id); err != nil {
				respond.Error(w, r, err)
				return
			}
			f.CampagneID = id
		}
		if f.Decision != "" && !model.Decision(f.Decision).Valid() {
			respond.Message(w, http.StatusBadRequest, "Décision inconnue : "+f.Decision)
			return
		}

		rows, total, err := database.ListBeneficiaries(r.Context(), db, f)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, model.NewPage(mappers.ToBeneficiaryViews(rows, today()), total, f.Paging))
	}
}

// ListBeneficiariesHandler lists across campaigns, filtered by the campagneId query parameter.
func ListBeneficiariesHandler(db *sqlx.DB) http.HandlerFunc { return listHandler(db, false) }

// ListCampaignBeneficiariesHandler lists the beneficiaries of the {id} campaign.
func ListCampaignBeneficiariesHandler(db *sqlx.DB) http.HandlerFunc { return listHandler(db, true) }

func GetBeneficiaryHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ID(w, r, "id")
		if !ok {
			return
		}
		row, err := database.GetBeneficiary(r.Context(), db, id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, mappers.ToBeneficiaryView(*row, today()))
	}
}

func CreateBeneficiaryHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var in beneficiaryInput
		if !respond.Decode(w, r, &in) {
			return
		}
		if in.CampagneID <= 0 {
			respond.Validation(w, model.ValidationErrors{"campagneId": "La campagne est obligatoire."})
			return
		}

		c, err := campaign.LoadOpen(ctx, db, in.CampagneID)
		if errors.Is(err, campaign.ErrClosed) {
			campaign.WriteClosed(w, c)
			return
		}
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		b := model.Beneficiary{CampagneID: c.ID}
		in.apply(&b)
		errs, err := Validate(ctx, db, &b, c.TypeAssistanceID, campaign.CurrentDay())
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		if errs.HasErrors() {
			respond.Validation(w, errs)
			return
		}
		if err := database.CreateBeneficiary(ctx, db, &b); err != nil {
			respond.Error(w, r, err)
			return
		}

		row, err := database.GetBeneficiary(ctx, db, b.ID)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusCreated, mappers.ToBeneficiaryView(*row, today()))
	}
}

func UpdateBeneficiaryHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, ok := respond.ID(w, r, "id")
		if !ok {
			return
		}
		var in beneficiaryInput
		if !respond.Decode(w, r, &in) {
			return
		}

		existing, err := database.GetBeneficiary(ctx, db, id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		c, err := database.GetCampaign(ctx, db, existing.CampagneID)
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		b := existing.Beneficiary
		in.apply(&b)
		errs, err := Validate(ctx, db, &b, c.TypeAssistanceID, campaign.CurrentDay())
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		if errs.HasErrors() {
			respond.Validation(w, errs)
			return
		}
		if err := database.UpdateBeneficiary(ctx, db, &b); err != nil {
			respond.Error(w, r, err)
			return
		}

		row, err := database.GetBeneficiary(ctx, db, id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, mappers.ToBeneficiaryView(*row, today()))
	}
}

func SetDecisionHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ID(w, r, "id")
		if !ok {
			return
		}
		var payload struct {
			Decision model.Decision `json:"decision"`
		}
		if !respond.Decode(w, r, &payload) {
			return
		}
		if !payload.Decision.Valid() {
			respond.Validation(w, model.ValidationErrors{"decision": "Décision inconnue."})
			return
		}
		n, err := database.SetDecision(r.Context(), db, []int64{id}, payload.Decision)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		if n == 0 {
			respond.Error(w, r, database.ErrNotFound)
			return
		}
		respond.Message(w, http.StatusOK, "Décision enregistrée : "+mappers.DecisionLabel(payload.Decision)+".")
	}
}

// BulkDecisionHandler applies one decision to a list of beneficiaries in a single transaction.
func BulkDecisionHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload struct {
			IDs      []int64        `json:"ids"`
			Decision model.Decision `json:"decision"`
		}
		if !respond.Decode(w, r, &payload) {
			return
		}
		if !payload.Decision.Valid() {
			respond.Validation(w, model.ValidationErrors{"decision": "Décision inconnue."})
			return
		}
		if len(payload.IDs) == 0 {
			respond.Message(w, http.StatusOK, "Aucun bénéficiaire sélectionné.")
			return
		}

		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		defer tx.Rollback()

		n, err := database.SetDecision(ctx, tx, payload.IDs, payload.Decision)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		if err := tx.Commit(); err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, map[string]interface{}{
			"message":  fmt.Sprintf("%d bénéficiaire(s) passés à « %s ».", n, mappers.DecisionLabel(payload.Decision)),
			"modifies": n,
		})
	}
}

func DeleteBeneficiaryHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ID(w, r, "id")
		if !ok {
			return
		}
		if err := database.SoftDelete(r.Context(), db, "beneficiaires", id); err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Message(w, http.StatusOK, "Bénéficiaire supprimé.")
	}
}

func BulkDeleteBeneficiariesHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload struct {
			IDs []int64 `json:"ids"`
		}
		if !respond.Decode(w, r, &payload) {
			return
		}
		if len(payload.IDs) == 0 {
			respond.Message(w, http.StatusOK, "Aucun bénéficiaire sélectionné.")
			return
		}

		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		defer tx.Rollback()

		n, err := database.SoftDeleteMany(ctx, tx, "beneficiaires", payload.IDs)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		if err := tx.Commit(); err != nil {
			respond.Error(w, r, err)
			return
		}
		zap.L().Info("beneficiaries deleted", zap.Int64("count", n))
		respond.JSON(w, http.StatusOK, map[string]interface{}{
			"message":   fmt.Sprintf("%d bénéficiaire(s) supprimé(s).", n),
			"supprimes": n,
		})
	}
}

func RestoreBeneficiaryHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ID(w, r, "id")
		if !ok {
			return
		}
		if err := database.Restore(r.Context(), db, "beneficiaires", id); err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Message(w, http.StatusOK, "Bénéficiaire restauré.")
	}
}
