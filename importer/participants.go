package importer

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"medassist/database"
	"medassist/model"
	"medassist/parsers"
	"medassist/participant"
)

func importParticipants(ctx context.Context, tx *sqlx.Tx, campagneID int64, sheet *parsers.Sheet) (*Result, error) {
	cols, ignored, err := parsers.MapHeader(sheet.Header, participantAliases, []string{"nom", "telephone"})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFile, err)
	}

	res := newResult(ignored)
	seen := map[string]int{}
	for _, row := range sheet.Rows {
		if row.Blank() {
			continue
		}
		p := model.Participant{
			CampagneID:  campagneID,
			Nom:         cols.Get(row.Cells, "nom"),
			Prenom:      cols.Get(row.Cells, "prenom"),
			Telephone:   cols.Get(row.Cells, "telephone"),
			Adresse:     cols.Get(row.Cells, "adresse"),
			Ville:       cols.Get(row.Cells, "ville"),
			Commentaire: cols.Get(row.Cells, "commentaire"),
		}
		errs := model.ValidationErrors{}
		raw := cols.Get(row.Cells, "statutAppel")
		status, err := parsers.NormalizeCallStatus(raw)
		if err != nil {
			errs.Add("statutAppel", fmt.Sprintf("Statut d'appel inconnu : %q.", raw))
		}
		p.StatutAppel = model.CallStatus(status)
		for f, msg := range participant.Validate(&p) {
			errs.Add(f, msg)
		}
		if errs.HasErrors() {
			res.reject(row.Line, errs)
			continue
		}

		if first, dup := seen[p.Telephone]; dup {
			res.reject(row.Line, model.ValidationErrors{"telephone": dupMessage(first)})
			continue
		}
		seen[p.Telephone] = row.Line

		existing, err := database.FindParticipantByPhone(ctx, tx, campagneID, p.Telephone)
		if errors.Is(err, database.ErrNotFound) {
			if err := database.CreateParticipant(ctx, tx, &p); err != nil {
				return nil, err
			}
			res.Inseres++
			continue
		}
		if err != nil {
			return nil, err
		}

		set := func(d *string, s string) {
			if s != "" {
				*d = s
			}
		}
		set(&existing.Nom, p.Nom)
		set(&existing.Prenom, p.Prenom)
		set(&existing.Adresse, p.Adresse)
		set(&existing.Ville, p.Ville)
		set(&existing.Commentaire, p.Commentaire)
		if status != "" {
			existing.StatutAppel = p.StatutAppel
		}
		if err := database.UpdateParticipant(ctx, tx, existing); err != nil {
			return nil, err
		}
		res.MisAJour++
	}
	return res, nil
}
