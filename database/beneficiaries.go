package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"medassist/model"
)

const beneficiaryColumns = `id, campagne_id, type_assistance_id, situation_id, participant_id, nom, prenom, sexe,
	date_naissance, cin, telephone, adresse, ville, decision, cote, remarques,
	created_at, updated_at, date_suppression`

const beneficiaryRowSelect = `
	SELECT b.id, b.campagne_id, b.type_assistance_id, b.situation_id, b.participant_id, b.nom, b.prenom, b.sexe,
		b.date_naissance, b.cin, b.telephone, b.adresse, b.ville, b.decision, b.cote, b.remarques,
		b.created_at, b.updated_at, b.date_suppression,
		COALESCE(s.libelle, '') AS situation_libelle,
		COALESCE(t.code, '') AS type_assistance_code,
		COALESCE(t.libelle, '') AS type_assistance_libelle
	FROM beneficiaires b
	JOIN campagnes c ON c.id = b.campagne_id
	LEFT JOIN situations s ON s.id = b.situation_id
	LEFT JOIN types_assistance t ON t.id = COALESCE(b.type_assistance_id, c.type_assistance_id)`

func beneficiaryWhere(f model.BeneficiaryFilters) *whereClause {
	where := &whereClause{}
	where.add("b.date_suppression IS NULL")
	if f.CampagneID > 0 {
		where.add("b.campagne_id = ?", f.CampagneID)
	}
	if f.Decision != "" {
		where.add("b.decision = ?", f.Decision)
	}
	if f.Sexe != "" {
		where.add("b.sexe = ?", f.Sexe)
	}
	if f.SituationID > 0 {
		where.add("b.situation_id = ?", f.SituationID)
	}
	if strings.TrimSpace(f.Query) != "" {
		p := likePattern(f.Query)
		where.add(`(b.nom LIKE ? ESCAPE '\' OR b.prenom LIKE ? ESCAPE '\' OR b.cin LIKE ? ESCAPE '\' OR b.telephone LIKE ? ESCAPE '\')`, p, p, p, p)
	}
	return where
}

func ListBeneficiaries(ctx context.Context, db DBTX, f model.BeneficiaryFilters) ([]model.BeneficiaryRow, int, error) {
	where := beneficiaryWhere(f)

	var total int
	if err := db.GetContext(ctx, &total, `SELECT COUNT(*) FROM beneficiaires b`+where.String(), where.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count beneficiaries: %w", err)
	}

	rows := []model.BeneficiaryRow{}
	q := beneficiaryRowSelect + where.String() + ` ORDER BY b.nom, b.prenom, b.id LIMIT ? OFFSET ?`
	args := append(where.args, f.PerPage, f.Offset())
	if err := db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list beneficiaries: %w", err)
	}
	return rows, total, nil
}

// ListCampaignBeneficiaries returns every active beneficiary of a campaign, for exports.
func ListCampaignBeneficiaries(ctx context.Context, db DBTX, campagneID int64, decision string) ([]model.BeneficiaryRow, error) {
	where := beneficiaryWhere(model.BeneficiaryFilters{CampagneID: campagneID, Decision: decision})
	rows := []model.BeneficiaryRow{}
	if err := db.SelectContext(ctx, &rows, beneficiaryRowSelect+where.String()+` ORDER BY b.nom, b.prenom, b.id`, where.args...); err != nil {
		return nil, fmt.Errorf("failed to list beneficiaries of campaign %d: %w", campagneID, err)
	}
	return rows, nil
}

func GetBeneficiary(ctx context.Context, db DBTX, id int64) (*model.BeneficiaryRow, error) {
	var row model.BeneficiaryRow
	if err := db.GetContext(ctx, &row, beneficiaryRowSelect+` WHERE b.id = ? AND b.date_suppression IS NULL`, id); err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

func CreateBeneficiary(ctx context.Context, db DBTX, b *model.Beneficiary) error {
	now := timestamp()
	b.CreatedAt, b.UpdatedAt = now, now
	if b.Decision == "" {
		b.Decision = model.DecisionWaiting
	}
	res, err := db.NamedExecContext(ctx, `
		INSERT INTO beneficiaires (campagne_id, type_assistance_id, situation_id, participant_id, nom, prenom, sexe,
			date_naissance, cin, telephone, adresse, ville, decision, cote, remarques, created_at, updated_at)
		VALUES (:campagne_id, :type_assistance_id, :situation_id, :participant_id, :nom, :prenom, :sexe,
			:date_naissance, :cin, :telephone, :adresse, :ville, :decision, :cote, :remarques, :created_at, :updated_at)`, b)
	if err != nil {
		return fmt.Errorf("CreateBeneficiary (Nom: %s %s) failed: %w", b.Nom, b.Prenom, translate(err))
	}
	b.ID, err = lastInsertID(res)
	return err
}

func UpdateBeneficiary(ctx context.Context, db DBTX, b *model.Beneficiary) error {
	b.UpdatedAt = timestamp()
	res, err := db.NamedExecContext(ctx, `
		UPDATE beneficiaires SET type_assistance_id = :type_assistance_id, situation_id = :situation_id,
			participant_id = :participant_id, nom = :nom, prenom = :prenom, sexe = :sexe,
			date_naissance = :date_naissance, cin = :cin, telephone = :telephone, adresse = :adresse,
			ville = :ville, decision = :decision, cote = :cote, remarques = :remarques, updated_at = :updated_at
		WHERE id = :id AND date_suppression IS NULL`, b)
	if err != nil {
		return fmt.Errorf("UpdateBeneficiary (ID: %d) failed: %w", b.ID, translate(err))
	}
	return requireAffected(res)
}

// SetDecision applies one decision to every listed active beneficiary.
func SetDecision(ctx context.Context, db DBTX, ids []int64, decision model.Decision) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q, args, err := sqlx.In(`UPDATE beneficiaires SET decision = ?, updated_at = ? WHERE date_suppression IS NULL AND id IN (?)`,
		string(decision), timestamp(), ids)
	if err != nil {
		return 0, err
	}
	res, err := db.ExecContext(ctx, db.Rebind(q), args...)
	if err != nil {
		return 0, fmt.Errorf("SetDecision failed: %w", err)
	}
	return res.RowsAffected()
}

// FindBeneficiaryByNaturalKey looks up an active beneficiary of the campaign
// by CIN, or by telephone + nom + prenom when the CIN is blank.
func FindBeneficiaryByNaturalKey(ctx context.Context, db DBTX, campagneID int64, cin, telephone, nom, prenom string) (*model.Beneficiary, error) {
	var b model.Beneficiary
	var err error
	switch {
	case cin != "":
		err = db.GetContext(ctx, &b, `SELECT `+beneficiaryColumns+` FROM beneficiaires
			WHERE campagne_id = ? AND cin = ? AND date_suppression IS NULL`, campagneID, cin)
	case telephone != "":
		err = db.GetContext(ctx, &b, `SELECT `+beneficiaryColumns+` FROM beneficiaires
			WHERE campagne_id = ? AND telephone = ? AND nom = ? COLLATE NOCASE AND prenom = ? COLLATE NOCASE
			AND date_suppression IS NULL ORDER BY id LIMIT 1`, campagneID, telephone, nom, prenom)
	default:
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, translate(err)
	}
	return &b, nil
}
