package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"medassist/beneficiary"
	"medassist/campaign"
	"medassist/database"
	"medassist/model"
	"medassist/parsers"
)

func importBeneficiaries(ctx context.Context, tx *sqlx.Tx, campagneID, campaignTypeID int64, sheet *parsers.Sheet) (*Result, error) {
	cols, ignored, err := parsers.MapHeader(sheet.Header, beneficiaryAliases, []string{"nom", "prenom"})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFile, err)
	}
	_, hasCin := cols["cin"]
	_, hasTel := cols["telephone"]
	if !hasCin && !hasTel {
		return nil, fmt.Errorf("%w: colonnes obligatoires manquantes : cin ou telephone", ErrBadFile)
	}

	situations, err := database.SituationIDsByLabel(ctx, tx)
	if err != nil {
		return nil, err
	}
	types, err := typeIDsByName(ctx, tx)
	if err != nil {
		return nil, err
	}

	today := campaign.CurrentDay()
	res := newResult(ignored)
	seen := map[string]int{}

	for _, row := range sheet.Rows {
		if row.Blank() {
			continue
		}
		errs := model.ValidationErrors{}
		b, decisionGiven := beneficiaryFromRow(cols, row.Cells, situations, types, errs)
		verrs, err := beneficiary.Validate(ctx, tx, &b, campaignTypeID, today)
		if err != nil {
			return nil, err
		}
		for f, msg := range verrs {
			errs.Add(f, msg)
		}
		if errs.HasErrors() {
			res.reject(row.Line, errs)
			continue
		}

		key, field := beneficiaryKey(b)
		if first, dup := seen[key]; dup {
			res.reject(row.Line, model.ValidationErrors{field: dupMessage(first)})
			continue
		}
		seen[key] = row.Line

		existing, err := findBeneficiary(ctx, tx, campagneID, b)
		if errors.Is(err, database.ErrNotFound) {
			b.CampagneID = campagneID
			err = database.CreateBeneficiary(ctx, tx, &b)
			if errors.Is(err, database.ErrConflict) {
				res.reject(row.Line, model.ValidationErrors{"cin": "CIN déjà utilisée dans cette campagne."})
				continue
			}
			if err != nil {
				return nil, err
			}
			res.Inseres++
			continue
		}
		if err != nil {
			return nil, err
		}

		mergeBeneficiary(existing, b, decisionGiven)
		verrs, err = beneficiary.Validate(ctx, tx, existing, campaignTypeID, today)
		if err != nil {
			return nil, err
		}
		if verrs.HasErrors() {
			res.reject(row.Line, verrs)
			continue
		}
		err = database.UpdateBeneficiary(ctx, tx, existing)
		if errors.Is(err, database.ErrConflict) {
			res.reject(row.Line, model.ValidationErrors{"cin": "CIN déjà utilisée dans cette campagne."})
			continue
		}
		if err != nil {
			return nil, err
		}
		res.MisAJour++
	}
	return res, nil
}

// beneficiaryFromRow maps the cells of one row. Lookup failures go to errs;
// the returned flag tells whether the row carried a decision.
func beneficiaryFromRow(cols parsers.HeaderMap, cells []string, situations, types map[string]int64, errs model.ValidationErrors) (model.Beneficiary, bool) {
	b := model.Beneficiary{
		Nom:       cols.Get(cells, "nom"),
		Prenom:    cols.Get(cells, "prenom"),
		Sexe:      cols.Get(cells, "sexe"),
		Cin:       cols.Get(cells, "cin"),
		Telephone: cols.Get(cells, "telephone"),
		Adresse:   cols.Get(cells, "adresse"),
		Ville:     cols.Get(cells, "ville"),
		Cote:      cols.Get(cells, "cote"),
		Remarques: cols.Get(cells, "remarques"),
	}
	if d := cols.Get(cells, "dateNaissance"); d != "" {
		b.DateNaissance = &d
	}
	if s := cols.Get(cells, "situation"); s != "" {
		if id, ok := situations[parsers.NormalizeHeader(s)]; ok {
			b.SituationID = &id
		} else {
			errs.Add("situation", fmt.Sprintf("Situation inconnue : %q.", s))
		}
	}
	if t := cols.Get(cells, "typeAssistance"); t != "" {
		if id, ok := types[parsers.NormalizeHeader(t)]; ok {
			b.TypeAssistanceID = &id
		} else {
			errs.Add("typeAssistance", fmt.Sprintf("Type d'assistance inconnu : %q.", t))
		}
	}

	raw := cols.Get(cells, "decision")
	d, err := parsers.NormalizeDecision(raw)
	if err != nil {
		errs.Add("decision", fmt.Sprintf("Décision inconnue : %q.", raw))
	}
	b.Decision = model.Decision(d)
	return b, d != ""
}

// typeIDsByName indexes active assistance types by code and by folded label.
func typeIDsByName(ctx context.Context, db database.DBTX) (map[string]int64, error) {
	types, err := database.ListAssistanceTypes(ctx, db, "")
	if err != nil {
		return nil, err
	}
	m := make(map[string]int64, 2*len(types))
	for _, t := range types {
		m[parsers.NormalizeHeader(t.Libelle)] = t.ID
		m[parsers.NormalizeHeader(t.Code)] = t.ID
		m[t.Code] = t.ID
	}
	return m, nil
}

func beneficiaryKey(b model.Beneficiary) (key, field string) {
	if b.Cin != "" {
		return "cin:" + b.Cin, "cin"
	}
	return "tel:" + b.Telephone + "|" + parsers.NormalizeHeader(b.Nom) + "|" + parsers.NormalizeHeader(b.Prenom), "telephone"
}

// findBeneficiary matches by CIN first, then by telephone and names. A
// telephone match carrying a different CIN is another person.
func findBeneficiary(ctx context.Context, db database.DBTX, campagneID int64, b model.Beneficiary) (*model.Beneficiary, error) {
	if b.Cin != "" {
		found, err := database.FindBeneficiaryByNaturalKey(ctx, db, campagneID, b.Cin, "", "", "")
		if !errors.Is(err, database.ErrNotFound) {
			return found, err
		}
	}
	if b.Telephone == "" {
		return nil, database.ErrNotFound
	}
	found, err := database.FindBeneficiaryByNaturalKey(ctx, db, campagneID, "", b.Telephone, b.Nom, b.Prenom)
	if err != nil {
		return nil, err
	}
	if found.Cin != "" && b.Cin != "" && found.Cin != b.Cin {
		return nil, database.ErrNotFound
	}
	return found, nil
}

// mergeBeneficiary copies the non-empty values of src onto dst.
func mergeBeneficiary(dst *model.Beneficiary, src model.Beneficiary, decisionGiven bool) {
	set := func(d *string, s string) {
		if s != "" {
			*d = s
		}
	}
	set(&dst.Nom, src.Nom)
	set(&dst.Prenom, src.Prenom)
	set(&dst.Sexe, src.Sexe)
	set(&dst.Cin, src.Cin)
	set(&dst.Telephone, src.Telephone)
	set(&dst.Adresse, src.Adresse)
	set(&dst.Ville, src.Ville)
	set(&dst.Cote, src.Cote)
	set(&dst.Remarques, src.Remarques)
	if src.DateNaissance != nil {
		dst.DateNaissance = src.DateNaissance
	}
	if src.SituationID != nil {
		dst.SituationID = src.SituationID
	}
	if src.TypeAssistanceID != nil {
		dst.TypeAssistanceID = src.TypeAssistanceID
	}
	if decisionGiven {
		dst.Decision = src.Decision
	}
}
