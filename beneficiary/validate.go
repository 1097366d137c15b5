package beneficiary

import (
	"context"
	"errors"
	"strings"

	"medassist/database"
	"medassist/model"
	"medassist/parsers"
)

// Validate normalizes b in place and checks it against the business rules.
// campaignTypeID is the type used when b carries none.
func Validate(ctx context.Context, db database.DBTX, b *model.Beneficiary, campaignTypeID int64, today string) (model.ValidationErrors, error) {
	errs := model.ValidationErrors{}

	b.Nom = strings.TrimSpace(b.Nom)
	b.Prenom = strings.TrimSpace(b.Prenom)
	b.Adresse = strings.TrimSpace(b.Adresse)
	b.Ville = strings.TrimSpace(b.Ville)
	if b.Nom == "" {
		errs.Add("nom", "Le nom est obligatoire.")
	}
	if b.Prenom == "" {
		errs.Add("prenom", "Le prénom est obligatoire.")
	}

	if cin, err := parsers.NormalizeCIN(b.Cin); err != nil {
		errs.Add("cin", "Format de CIN invalide.")
	} else {
		b.Cin = cin
	}
	if tel, err := parsers.NormalizePhone(b.Telephone); err != nil {
		errs.Add("telephone", "Numéro de téléphone invalide.")
	} else {
		b.Telephone = tel
	}
	if b.Cin == "" && b.Telephone == "" && errs["cin"] == "" && errs["telephone"] == "" {
		errs.Add("cin", "La CIN ou le téléphone est obligatoire.")
	}

	if sexe, err := parsers.NormalizeSexe(b.Sexe); err != nil {
		errs.Add("sexe", "Le sexe doit être M ou F.")
	} else {
		b.Sexe = sexe
	}

	if b.DateNaissance != nil {
		d, err := parsers.ParseDate(*b.DateNaissance)
		switch {
		case err != nil:
			errs.Add("dateNaissance", "Date de naissance invalide.")
		case d == "":
			b.DateNaissance = nil
		case d > today:
			errs.Add("dateNaissance", "La date de naissance ne peut pas être dans le futur.")
		default:
			b.DateNaissance = &d
		}
	}

	if b.Decision == "" {
		b.Decision = model.DecisionWaiting
	} else if !b.Decision.Valid() {
		errs.Add("decision", "Décision inconnue.")
	}

	if b.SituationID != nil {
		if _, err := database.GetSituation(ctx, db, *b.SituationID); err != nil {
			if !errors.Is(err, database.ErrNotFound) {
				return nil, err
			}
			errs.Add("situationId", "Situation introuvable.")
		}
	}

	typeID := campaignTypeID
	if b.TypeAssistanceID != nil {
		typeID = *b.TypeAssistanceID
	}
	typ, err := database.GetAssistanceType(ctx, db, typeID)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			return nil, err
		}
		errs.Add("typeAssistanceId", "Type d'assistance introuvable.")
	}

	b.Cote = strings.ToLower(strings.TrimSpace(b.Cote))
	if b.Cote != "" && typ != nil {
		switch {
		case typ.Code != model.TypeHearingAid:
			errs.Add("cote", "Le côté ne s'applique qu'aux appareils auditifs.")
		case !ValidSide(b.Cote):
			errs.Add("cote", "Côté invalide (gauche, droite ou bilateral).")
		}
	}
	return errs, nil
}

// ValidSide reports whether s is a hearing aid side.
func ValidSide(s string) bool {
	return s == model.SideLeft || s == model.SideRight || s == model.SideBilateral
}
