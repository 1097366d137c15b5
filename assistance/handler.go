// Package assistance records the devices actually handed over to beneficiaries.
package assistance

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"

	"medassist/beneficiary"
	"medassist/campaign"
	"medassist/credit"
	"medassist/database"
	"medassist/model"
	"medassist/parsers"
	"medassist/respond"
)

type assistanceInput struct {
	BeneficiaireID   int64    `json:"beneficiaireId"`
	CampagneID       *int64   `json:"campagneId"`
	TypeAssistanceID *int64   `json:"typeAssistanceId"`
	DateAssistance   string   `json:"dateAssistance"`
	Quantite         int      `json:"quantite"`
	PrixUnitaire     *float64 `json:"prixUnitaire"`
	Cote             string   `json:"cote"`
	TypeAppareil     string   `json:"typeAppareil"`
	CorrectionOd     string   `json:"correctionOd"`
	CorrectionOg     string   `json:"correctionOg"`
	Observations     string   `json:"observations"`
}

// resolve turns the input into a record: it fills the defaults taken from the
// beneficiary and its campaign, then applies the per-type field rules.
func (in assistanceInput) resolve(ctx context.Context, db database.DBTX, today string) (*model.Assistance, model.ValidationErrors, error) {
	errs := model.ValidationErrors{}
	if in.BeneficiaireID <= 0 {
		errs.Add("beneficiaireId", "Le bénéficiaire est obligatoire.")
		return nil, errs, nil
	}
	b, err := database.GetBeneficiary(ctx, db, in.BeneficiaireID)
	if errors.Is(err, database.ErrNotFound) {
		errs.Add("beneficiaireId", "Bénéficiaire introuvable.")
		return nil, errs, nil
	}
	if err != nil {
		return nil, nil, err
	}
	if in.CampagneID != nil && *in.CampagneID != b.CampagneID {
		errs.Add("campagneId", "La campagne doit être celle du bénéficiaire.")
	}
	c, err := database.GetCampaign(ctx, db, b.CampagneID)
	if err != nil {
		return nil, nil, err
	}

	typeID := c.TypeAssistanceID
	if b.TypeAssistanceID != nil {
		typeID = *b.TypeAssistanceID
	}
	if in.TypeAssistanceID != nil {
		typeID = *in.TypeAssistanceID
	}
	typ, err := database.GetAssistanceType(ctx, db, typeID)
	if errors.Is(err, database.ErrNotFound) {
		errs.Add("typeAssistanceId", "Type d'assistance introuvable.")
		return nil, errs, nil
	}
	if err != nil {
		return nil, nil, err
	}

	a := &model.Assistance{
		BeneficiaireID:   b.ID,
		CampagneID:       &b.CampagneID,
		TypeAssistanceID: typ.ID,
		Quantite:         in.Quantite,
		Cote:             strings.ToLower(strings.TrimSpace(in.Cote)),
		TypeAppareil:     strings.TrimSpace(in.TypeAppareil),
		CorrectionOd:     strings.TrimSpace(in.CorrectionOd),
		CorrectionOg:     strings.TrimSpace(in.CorrectionOg),
		Observations:     strings.TrimSpace(in.Observations),
	}

	a.DateAssistance = today
	if strings.TrimSpace(in.DateAssistance) != "" {
		d, err := parsers.ParseDate(in.DateAssistance)
		switch {
		case err != nil:
			errs.Add("dateAssistance", "Date d'assistance invalide.")
		case d > today:
			errs.Add("dateAssistance", "La date d'assistance ne peut pas être dans le futur.")
		default:
			a.DateAssistance = d
		}
	}

	if a.Quantite == 0 {
		a.Quantite = 1
	} else if a.Quantite < 1 {
		errs.Add("quantite", "La quantité doit être au moins 1.")
	}
	a.PrixUnitaire = credit.UnitPrice(c.Campaign, typ.PrixUnitaire)
	if in.PrixUnitaire != nil {
		if *in.PrixUnitaire < 0 {
			errs.Add("prixUnitaire", "Le prix unitaire ne peut pas être négatif.")
		}
		a.PrixUnitaire = *in.PrixUnitaire
	}
	a.Montant = float64(a.Quantite) * a.PrixUnitaire

	checkTypeFields(typ.Code, a, errs)
	return a, errs, nil
}

func checkTypeFields(code string, a *model.Assistance, errs model.ValidationErrors) {
	if code == model.TypeHearingAid {
		if a.Cote == "" {
			errs.Add("cote", "Le côté est obligatoire pour un appareil auditif.")
		} else if !beneficiary.ValidSide(a.Cote) {
			errs.Add("cote", "Côté invalide (gauche, droite ou bilateral).")
		}
	} else if a.Cote != "" {
		errs.Add("cote", "Le côté ne s'applique qu'aux appareils auditifs.")
	}

	if code == model.TypeOrthopedic {
		if a.TypeAppareil == "" {
			errs.Add("typeAppareil", "Le type d'appareil est obligatoire en orthopédie.")
		}
	} else if a.TypeAppareil != "" {
		errs.Add("typeAppareil", "Le type d'appareil ne s'applique qu'à l'orthopédie.")
	}

	if code != model.TypeEyewear {
		if a.CorrectionOd != "" {
			errs.Add("correctionOd", "La correction ne s'applique qu'aux lunettes.")
		}
		if a.CorrectionOg != "" {
			errs.Add("correctionOg", "La correction ne s'applique qu'aux lunettes.")
		}
	}
}

func ListAssistancesHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := model.AssistanceFilters{
			BeneficiaireID:   respond.QueryInt64(r, "beneficiaireId"),
			CampagneID:       respond.QueryInt64(r, "campagneId"),
			TypeAssistanceID: respond.QueryInt64(r, "typeAssistanceId"),
			Paging:           respond.Paging(r),
		}
		for name, dst := range map[string]*string{"du": &f.From, "au": &f.To} {
			raw := q.Get(name)
			if raw == "" {
				continue
			}
			d, err := parsers.ParseDate(raw)
			if err != nil {
				respond.Message(w, http.StatusBadRequest, "Date invalide pour « "+name+" » : "+raw)
				return
			}
			*dst = d
		}
		rows, total, err := database.ListAssistances(r.Context(), db, f)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, model.NewPage(rows, total, f.Paging))
	}
}

func GetAssistanceHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ID(w, r, "id")
		if !ok {
			return
		}
		row, err := database.GetAssistance(r.Context(), db, id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, row)
	}
}

func CreateAssistanceHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var in assistanceInput
		if !respond.Decode(w, r, &in) {
			return
		}
		a, errs, err := in.resolve(ctx, db, campaign.CurrentDay())
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		if errs.HasErrors() {
			respond.Validation(w, errs)
			return
		}
		if err := database.CreateAssistance(ctx, db, a); err != nil {
			respond.Error(w, r, err)
			return
		}
		row, err := database.GetAssistance(ctx, db, a.ID)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusCreated, row)
	}
}

func UpdateAssistanceHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, ok := respond.ID(w, r, "id")
		if !ok {
			return
		}
		current, err := database.GetAssistance(ctx, db, id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		var in assistanceInput
		if !respond.Decode(w, r, &in) {
			return
		}
		// the beneficiary of a record never changes
		in.BeneficiaireID = current.BeneficiaireID
		a, errs, err := in.resolve(ctx, db, campaign.CurrentDay())
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		if errs.HasErrors() {
			respond.Validation(w, errs)
			return
		}
		a.ID = id
		if err := database.UpdateAssistance(ctx, db, a); err != nil {
			respond.Error(w, r, err)
			return
		}
		row, err := database.GetAssistance(ctx, db, id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, row)
	}
}

func DeleteAssistanceHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ID(w, r, "id")
		if !ok {
			return
		}
		if err := database.SoftDelete(r.Context(), db, "assistances", id); err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Message(w, http.StatusOK, "Assistance supprimée.")
	}
}
