// Package participant serves the outreach call center: people contacted by
// phone before they are enrolled as beneficiaries.
package participant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"medassist/beneficiary"
	"medassist/campaign"
	"medassist/database"
	"medassist/mappers"
	"medassist/model"
	"medassist/parsers"
	"medassist/respond"
)

type participantInput struct {
	CampagneID  int64  `json:"campagneId"`
	Nom         string `json:"nom"`
	Prenom      string `json:"prenom"`
	Telephone   string `json:"telephone"`
	Adresse     string `json:"adresse"`
	Ville       string `json:"ville"`
	StatutAppel string `json:"statutAppel"`
	Commentaire string `json:"commentaire"`
}

// Validate normalizes p in place.
func Validate(p *model.Participant) model.ValidationErrors {
	errs := model.ValidationErrors{}
	p.Nom = strings.TrimSpace(p.Nom)
	p.Prenom = strings.TrimSpace(p.Prenom)
	p.Adresse = strings.TrimSpace(p.Adresse)
	p.Ville = strings.TrimSpace(p.Ville)
	if p.Nom == "" {
		errs.Add("nom", "Le nom est obligatoire.")
	}
	tel, err := parsers.NormalizePhone(p.Telephone)
	switch {
	case err != nil:
		errs.Add("telephone", "Numéro de téléphone invalide.")
	case tel == "":
		errs.Add("telephone", "Le téléphone est obligatoire.")
	default:
		p.Telephone = tel
	}
	if p.StatutAppel == "" {
		p.StatutAppel = model.CallPending
	} else if !p.StatutAppel.Valid() {
		errs.Add("statutAppel", "Statut d'appel inconnu.")
	}
	return errs
}

func listHandler(db *sqlx.DB, fromPath bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := model.ParticipantFilters{
			CampagneID:  respond.QueryInt64(r, "campagneId"),
			StatutAppel: q.Get("statutAppel"),
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
		if f.StatutAppel != "" && !model.CallStatus(f.StatutAppel).Valid() {
			respond.Message(w, http.StatusBadRequest, "Statut d'appel inconnu : "+f.StatutAppel)
			return
		}
		ps, total, err := database.ListParticipants(r.Context(), db, f)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, model.NewPage(mappers.ToParticipantViews(ps), total, f.Paging))
	}
}

func ListParticipantsHandler(db *sqlx.DB) http.HandlerFunc         { return listHandler(db, false) }
func ListCampaignParticipantsHandler(db *sqlx.DB) http.HandlerFunc { return listHandler(db, true) }

func GetParticipantHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ID(w, r, "id")
		if !ok {
			return
		}
		p, err := database.GetParticipant(r.Context(), db, id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, mappers.ToParticipantView(*p))
	}
}

func CreateParticipantHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var in participantInput
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

		p := model.Participant{
			CampagneID: c.ID, Nom: in.Nom, Prenom: in.Prenom, Telephone: in.Telephone,
			Adresse: in.Adresse, Ville: in.Ville, StatutAppel: model.CallStatus(in.StatutAppel), Commentaire: in.Commentaire,
		}
		if errs := Validate(&p); errs.HasErrors() {
			respond.Validation(w, errs)
			return
		}
		if err := database.CreateParticipant(ctx, db, &p); err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusCreated, mappers.ToParticipantView(p))
	}
}

func UpdateParticipantHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, ok := respond.ID(w, r, "id")
		if !ok {
			return
		}
		var in participantInput
		if !respond.Decode(w, r, &in) {
			return
		}
		p, err := database.GetParticipant(ctx, db, id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		p.Nom, p.Prenom, p.Telephone = in.Nom, in.Prenom, in.Telephone
		p.Adresse, p.Ville, p.Commentaire = in.Adresse, in.Ville, in.Commentaire
		if in.StatutAppel != "" {
			p.StatutAppel = model.CallStatus(in.StatutAppel)
		}
		if errs := Validate(p); errs.HasErrors() {
			respond.Validation(w, errs)
			return
		}
		if err := database.UpdateParticipant(ctx, db, p); err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, mappers.ToParticipantView(*p))
	}
}

// RecordCallHandler logs one call: the status and comment are replaced, the
// call counter incremented and the call date stamped.
func RecordCallHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ID(w, r, "id")
		if !ok {
			return
		}
		var payload struct {
			StatutAppel model.CallStatus `json:"statutAppel"`
			Commentaire string           `json:"commentaire"`
		}
		if !respond.Decode(w, r, &payload) {
			return
		}
		if !payload.StatutAppel.Valid() {
			respond.Validation(w, model.ValidationErrors{"statutAppel": "Statut d'appel inconnu."})
			return
		}
		p, err := database.RecordCall(r.Context(), db, id, payload.StatutAppel, strings.TrimSpace(payload.Commentaire))
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, mappers.ToParticipantView(*p))
	}
}

var (
	errNotConvertible   = errors.New("participant not convertible")
	errAlreadyConverted = errors.New("participant already converted")
)

// Convert enrols the participant as a waiting beneficiary of the same
// campaign, links both rows and marks the participant confirmed. A
// beneficiary already holding the same phone and name is linked instead of
// duplicated; linked reports that case.
func Convert(ctx context.Context, tx *sqlx.Tx, id, campaignTypeID int64, today string) (b *model.Beneficiary, linked bool, err error) {
	p, err := database.GetParticipant(ctx, tx, id)
	if err != nil {
		return nil, false, err
	}
	if p.BeneficiaireID != nil {
		return nil, false, errAlreadyConverted
	}
	if !p.StatutAppel.Convertible() {
		return nil, false, errNotConvertible
	}

	tel, err := parsers.NormalizePhone(p.Telephone)
	if err != nil {
		tel = p.Telephone
	}
	b, err = database.FindBeneficiaryByNaturalKey(ctx, tx, p.CampagneID, "", tel, p.Nom, p.Prenom)
	switch {
	case err == nil:
		linked = true
		if b.ParticipantID == nil {
			b.ParticipantID = &p.ID
			if err := database.UpdateBeneficiary(ctx, tx, b); err != nil {
				return nil, false, err
			}
		}
	case errors.Is(err, database.ErrNotFound):
		b = &model.Beneficiary{
			CampagneID:    p.CampagneID,
			ParticipantID: &p.ID,
			Nom:           p.Nom,
			Prenom:        p.Prenom,
			Telephone:     p.Telephone,
			Adresse:       p.Adresse,
			Ville:         p.Ville,
			Decision:      model.DecisionWaiting,
			Remarques:     p.Commentaire,
		}
		errs, err := beneficiary.Validate(ctx, tx, b, campaignTypeID, today)
		if err != nil {
			return nil, false, err
		}
		if errs.HasErrors() {
			return nil, false, errs
		}
		if err := database.CreateBeneficiary(ctx, tx, b); err != nil {
			return nil, false, err
		}
	default:
		return nil, false, err
	}

	p.BeneficiaireID = &b.ID
	p.StatutAppel = model.CallConfirmed
	if err := database.UpdateParticipant(ctx, tx, p); err != nil {
		return nil, false, err
	}
	return b, linked, nil
}

func ConvertParticipantHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, ok := respond.ID(w, r, "id")
		if !ok {
			return
		}
		p, err := database.GetParticipant(ctx, db, id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		c, err := campaign.LoadOpen(ctx, db, p.CampagneID)
		if errors.Is(err, campaign.ErrClosed) {
			campaign.WriteClosed(w, c)
			return
		}
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		defer tx.Rollback()

		b, linked, err := Convert(ctx, tx, id, c.TypeAssistanceID, campaign.CurrentDay())
		switch {
		case errors.Is(err, errAlreadyConverted):
			respond.Message(w, http.StatusConflict, "Ce participant a déjà été converti en bénéficiaire.")
			return
		case errors.Is(err, errNotConvertible):
			respond.Message(w, http.StatusConflict,
				fmt.Sprintf("Conversion impossible depuis le statut « %s » : le participant doit avoir répondu ou confirmé.",
					mappers.CallStatusLabel(p.StatutAppel)))
			return
		case err != nil:
			respond.Error(w, r, err)
			return
		}
		if err := tx.Commit(); err != nil {
			respond.Error(w, r, err)
			return
		}
		zap.L().Info("participant converted", zap.Int64("participantId", id), zap.Int64("beneficiaireId", b.ID), zap.Bool("linked", linked))
		if linked {
			respond.JSON(w, http.StatusOK, map[string]interface{}{
				"message":        "Participant rattaché au bénéficiaire existant.",
				"beneficiaireId": b.ID,
			})
			return
		}
		respond.JSON(w, http.StatusCreated, map[string]interface{}{
			"message":        "Participant converti en bénéficiaire (en attente).",
			"beneficiaireId": b.ID,
		})
	}
}

func DeleteParticipantHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ID(w, r, "id")
		if !ok {
			return
		}
		if err := database.SoftDelete(r.Context(), db, "participants", id); err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Message(w, http.StatusOK, "Participant supprimé.")
	}
}

func RestoreParticipantHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ID(w, r, "id")
		if !ok {
			return
		}
		if err := database.Restore(r.Context(), db, "participants", id); err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Message(w, http.StatusOK, "Participant restauré.")
	}
}
