package database

import (
	"context"
	"fmt"

	"medassist/model"
)

const assistanceRowSelect = `
	SELECT a.id, a.beneficiaire_id, a.campagne_id, a.type_assistance_id, a.date_assistance, a.quantite,
		a.prix_unitaire, a.montant, a.cote, a.type_appareil, a.correction_od, a.correction_og, a.observations,
		a.created_at, a.updated_at, a.date_suppression,
		COALESCE(t.code, '') AS type_assistance_code,
		COALESCE(t.libelle, '') AS type_assistance_libelle,
		COALESCE(b.nom, '') AS beneficiaire_nom,
		COALESCE(b.prenom, '') AS beneficiaire_prenom
	FROM assistances a
	LEFT JOIN types_assistance t ON t.id = a.type_assistance_id
	LEFT JOIN beneficiaires b ON b.id = a.beneficiaire_id`

func ListAssistances(ctx context.Context, db DBTX, f model.AssistanceFilters) ([]model.AssistanceRow, int, error) {
	where := &whereClause{}
	where.add("a.date_suppression IS NULL")
	if f.BeneficiaireID > 0 {
		where.add("a.beneficiaire_id = ?", f.BeneficiaireID)
	}
	if f.CampagneID > 0 {
		where.add("a.campagne_id = ?", f.CampagneID)
	}
	if f.TypeAssistanceID > 0 {
		where.add("a.type_assistance_id = ?", f.TypeAssistanceID)
	}
	if f.From != "" {
		where.add("a.date_assistance >= ?", f.From)
	}
	if f.To != "" {
		where.add("a.date_assistance <= ?", f.To)
	}

	var total int
	if err := db.GetContext(ctx, &total, `SELECT COUNT(*) FROM assistances a`+where.String(), where.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count assistances: %w", err)
	}

	rows := []model.AssistanceRow{}
	q := assistanceRowSelect + where.String() + ` ORDER BY a.date_assistance DESC, a.id DESC LIMIT ? OFFSET ?`
	args := append(where.args, f.PerPage, f.Offset())
	if err := db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list assistances: %w", err)
	}
	return rows, total, nil
}

func GetAssistance(ctx context.Context, db DBTX, id int64) (*model.AssistanceRow, error) {
	var row model.AssistanceRow
	if err := db.GetContext(ctx, &row, assistanceRowSelect+` WHERE a.id = ? AND a.date_suppression IS NULL`, id); err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

func CreateAssistance(ctx context.Context, db DBTX, a *model.Assistance) error {
	now := timestamp()
	a.CreatedAt, a.UpdatedAt = now, now
	res, err := db.NamedExecContext(ctx, `
		INSERT INTO assistances (beneficiaire_id, campagne_id, type_assistance_id, date_assistance, quantite,
			prix_unitaire, montant, cote, type_appareil, correction_od, correction_og, observations, created_at, updated_at)
		VALUES (:beneficiaire_id, :campagne_id, :type_assistance_id, :date_assistance, :quantite,
			:prix_unitaire, :montant, :cote, :type_appareil, :correction_od, :correction_og, :observations, :created_at, :updated_at)`, a)
	if err != nil {
		return fmt.Errorf("CreateAssistance (Beneficiaire: %d) failed: %w", a.BeneficiaireID, translate(err))
	}
	a.ID, err = lastInsertID(res)
	return err
}

func UpdateAssistance(ctx context.Context, db DBTX, a *model.Assistance) error {
	a.UpdatedAt = timestamp()
	res, err := db.NamedExecContext(ctx, `
		UPDATE assistances SET type_assistance_id = :type_assistance_id, date_assistance = :date_assistance,
			quantite = :quantite, prix_unitaire = :prix_unitaire, montant = :montant, cote = :cote,
			type_appareil = :type_appareil, correction_od = :correction_od, correction_og = :correction_og,
			observations = :observations, updated_at = :updated_at
		WHERE id = :id AND date_suppression IS NULL`, a)
	if err != nil {
		return fmt.Errorf("UpdateAssistance (ID: %d) failed: %w", a.ID, translate(err))
	}
	return requireAffected(res)
}
