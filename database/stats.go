package database

import (
	"context"
	"fmt"

	"medassist/model"
)

// CreditLines groups the accepted and waitlisted active beneficiaries of a
// campaign by effective assistance type and resolves the unit price.
func CreditLines(ctx context.Context, db DBTX, campagneID int64) ([]model.CreditLine, error) {
	lines := []model.CreditLine{}
	err := db.SelectContext(ctx, &lines, `
		SELECT t.id AS type_assistance_id, t.code, t.libelle,
			CASE WHEN COALESCE(c.prix_unitaire, 0) > 0 THEN c.prix_unitaire ELSE t.prix_unitaire END AS prix_unitaire,
			SUM(CASE WHEN b.decision = 'accepte' THEN 1 ELSE 0 END) AS nombre,
			SUM(CASE WHEN b.decision = 'en_attente' THEN 1 ELSE 0 END) AS nombre_en_attente
		FROM beneficiaires b
		JOIN campagnes c ON c.id = b.campagne_id
		JOIN types_assistance t ON t.id = COALESCE(b.type_assistance_id, c.type_assistance_id)
		WHERE b.campagne_id = ? AND b.date_suppression IS NULL AND b.decision IN ('accepte', 'en_attente')
		GROUP BY t.id, t.code, t.libelle, c.prix_unitaire, t.prix_unitaire
		ORDER BY t.libelle`, campagneID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute credit lines of campaign %d: %w", campagneID, err)
	}
	return lines, nil
}

func countBy(ctx context.Context, db DBTX, query string, args ...interface{}) ([]model.CountByKey, error) {
	counts := []model.CountByKey{}
	if err := db.SelectContext(ctx, &counts, query, args...); err != nil {
		return nil, err
	}
	return counts, nil
}

func CampaignsByStatus(ctx context.Context, db DBTX) ([]model.CountByKey, error) {
	return countBy(ctx, db, `SELECT statut AS cle, COUNT(*) AS nombre FROM campagnes
		WHERE date_suppression IS NULL GROUP BY statut ORDER BY statut`)
}

// BeneficiariesByDecision counts active beneficiaries, optionally within one campaign.
func BeneficiariesByDecision(ctx context.Context, db DBTX, campagneID int64) ([]model.CountByKey, error) {
	if campagneID > 0 {
		return countBy(ctx, db, `SELECT decision AS cle, COUNT(*) AS nombre FROM beneficiaires
			WHERE date_suppression IS NULL AND campagne_id = ? GROUP BY decision ORDER BY decision`, campagneID)
	}
	return countBy(ctx, db, `SELECT b.decision AS cle, COUNT(*) AS nombre FROM beneficiaires b
		JOIN campagnes c ON c.id = b.campagne_id AND c.date_suppression IS NULL
		WHERE b.date_suppression IS NULL GROUP BY b.decision ORDER BY b.decision`)
}

func BeneficiariesBySex(ctx context.Context, db DBTX, campagneID int64) ([]model.CountByKey, error) {
	return countBy(ctx, db, `SELECT CASE WHEN sexe = '' THEN 'inconnu' ELSE sexe END AS cle, COUNT(*) AS nombre
		FROM beneficiaires WHERE date_suppression IS NULL AND campagne_id = ? GROUP BY cle ORDER BY cle`, campagneID)
}

func ParticipantsByCallStatus(ctx context.Context, db DBTX, campagneID int64) ([]model.CountByKey, error) {
	if campagneID > 0 {
		return countBy(ctx, db, `SELECT statut_appel AS cle, COUNT(*) AS nombre FROM participants
			WHERE date_suppression IS NULL AND campagne_id = ? GROUP BY statut_appel ORDER BY statut_appel`, campagneID)
	}
	return countBy(ctx, db, `SELECT p.statut_appel AS cle, COUNT(*) AS nombre FROM participants p
		JOIN campagnes c ON c.id = p.campagne_id AND c.date_suppression IS NULL
		WHERE p.date_suppression IS NULL GROUP BY p.statut_appel ORDER BY p.statut_appel`)
}

// ParticipantTotals returns the active participants of a campaign and how
// many of them were converted into beneficiaries.
func ParticipantTotals(ctx context.Context, db DBTX, campagneID int64) (total, converted int, err error) {
	var row struct {
		Total     int `db:"total"`
		Converted int `db:"convertis"`
	}
	err = db.GetContext(ctx, &row, `
		SELECT COUNT(*) AS total, COALESCE(SUM(CASE WHEN beneficiaire_id IS NOT NULL THEN 1 ELSE 0 END), 0) AS convertis
		FROM participants WHERE date_suppression IS NULL AND campagne_id = ?`, campagneID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count participants of campaign %d: %w", campagneID, err)
	}
	return row.Total, row.Converted, nil
}

func AssistanceTotalsByType(ctx context.Context, db DBTX) ([]model.AssistanceTotals, error) {
	totals := []model.AssistanceTotals{}
	err := db.SelectContext(ctx, &totals, `
		SELECT t.code, t.libelle, COUNT(a.id) AS nombre, COALESCE(SUM(a.montant), 0) AS montant
		FROM assistances a
		JOIN types_assistance t ON t.id = a.type_assistance_id
		WHERE a.date_suppression IS NULL
		GROUP BY t.code, t.libelle ORDER BY t.libelle`)
	if err != nil {
		return nil, fmt.Errorf("failed to total assistances: %w", err)
	}
	return totals, nil
}

func CountKafalas(ctx context.Context, db DBTX) (int, error) {
	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM kafalas WHERE date_suppression IS NULL`); err != nil {
		return 0, fmt.Errorf("failed to count kafalas: %w", err)
	}
	return n, nil
}
