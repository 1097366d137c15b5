package database

import (
	"context"
	"fmt"
	"strings"

	"medassist/model"
)

const participantColumns = `id, campagne_id, beneficiaire_id, nom, prenom, telephone, adresse, ville, statut_appel,
	nombre_appels, date_dernier_appel, commentaire, created_at, updated_at, date_suppression`

func ListParticipants(ctx context.Context, db DBTX, f model.ParticipantFilters) ([]model.Participant, int, error) {
	where := &whereClause{}
	where.add("date_suppression IS NULL")
	if f.CampagneID > 0 {
		where.add("campagne_id = ?", f.CampagneID)
	}
	if f.StatutAppel != "" {
		where.add("statut_appel = ?", f.StatutAppel)
	}
	if strings.TrimSpace(f.Query) != "" {
		p := likePattern(f.Query)
		where.add(`(nom LIKE ? ESCAPE '\' OR prenom LIKE ? ESCAPE '\' OR telephone LIKE ? ESCAPE '\')`, p, p, p)
	}

	var total int
	if err := db.GetContext(ctx, &total, `SELECT COUNT(*) FROM participants`+where.String(), where.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count participants: %w", err)
	}

	participants := []model.Participant{}
	q := `SELECT ` + participantColumns + ` FROM participants` + where.String() + ` ORDER BY nom, prenom, id LIMIT ? OFFSET ?`
	args := append(where.args, f.PerPage, f.Offset())
	if err := db.SelectContext(ctx, &participants, q, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list participants: %w", err)
	}
	return participants, total, nil
}

func GetParticipant(ctx context.Context, db DBTX, id int64) (*model.Participant, error) {
	var p model.Participant
	if err := db.GetContext(ctx, &p, `SELECT `+participantColumns+` FROM participants WHERE id = ? AND date_suppression IS NULL`, id); err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func FindParticipantByPhone(ctx context.Context, db DBTX, campagneID int64, telephone string) (*model.Participant, error) {
	var p model.Participant
	err := db.GetContext(ctx, &p, `SELECT `+participantColumns+` FROM participants
		WHERE campagne_id = ? AND telephone = ? AND date_suppression IS NULL`, campagneID, telephone)
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func CreateParticipant(ctx context.Context, db DBTX, p *model.Participant) error {
	now := timestamp()
	p.CreatedAt, p.UpdatedAt = now, now
	if p.StatutAppel == "" {
		p.StatutAppel = model.CallPending
	}
	res, err := db.NamedExecContext(ctx, `
		INSERT INTO participants (campagne_id, beneficiaire_id, nom, prenom, telephone, adresse, ville, statut_appel,
			nombre_appels, date_dernier_appel, commentaire, created_at, updated_at)
		VALUES (:campagne_id, :beneficiaire_id, :nom, :prenom, :telephone, :adresse, :ville, :statut_appel,
			:nombre_appels, :date_dernier_appel, :commentaire, :created_at, :updated_at)`, p)
	if err != nil {
		return fmt.Errorf("CreateParticipant (Tel: %s) failed: %w", p.Telephone, translate(err))
	}
	p.ID, err = lastInsertID(res)
	return err
}

func UpdateParticipant(ctx context.Context, db DBTX, p *model.Participant) error {
	p.UpdatedAt = timestamp()
	res, err := db.NamedExecContext(ctx, `
		UPDATE participants SET beneficiaire_id = :beneficiaire_id, nom = :nom, prenom = :prenom,
			telephone = :telephone, adresse = :adresse, ville = :ville, statut_appel = :statut_appel,
			nombre_appels = :nombre_appels, date_dernier_appel = :date_dernier_appel,
			commentaire = :commentaire, updated_at = :updated_at
		WHERE id = :id AND date_suppression IS NULL`, p)
	if err != nil {
		return fmt.Errorf("UpdateParticipant (ID: %d) failed: %w", p.ID, translate(err))
	}
	return requireAffected(res)
}

// RecordCall stores the outcome of one outreach call.
func RecordCall(ctx context.Context, db DBTX, id int64, status model.CallStatus, comment string) (*model.Participant, error) {
	now := timestamp()
	res, err := db.ExecContext(ctx, `
		UPDATE participants SET statut_appel = ?, commentaire = ?, nombre_appels = nombre_appels + 1,
			date_dernier_appel = ?, updated_at = ?
		WHERE id = ? AND date_suppression IS NULL`, string(status), comment, now, now, id)
	if err != nil {
		return nil, fmt.Errorf("RecordCall (ID: %d) failed: %w", id, err)
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}
	return GetParticipant(ctx, db, id)
}
