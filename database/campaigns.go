package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"medassist/model"
)

const campaignColumns = `id, reference, nom, type_assistance_id, budget_id, date_debut, date_fin, statut,
	lieu, description, montant_budget, prix_unitaire, nombre_beneficiaires_prevu,
	created_at, updated_at, date_suppression`

const campaignRowSelect = `
	SELECT c.id, c.reference, c.nom, c.type_assistance_id, c.budget_id, c.date_debut, c.date_fin, c.statut,
		c.lieu, c.description, c.montant_budget, c.prix_unitaire, c.nombre_beneficiaires_prevu,
		c.created_at, c.updated_at, c.date_suppression,
		COALESCE(t.code, '') AS type_assistance_code,
		COALESCE(t.libelle, '') AS type_assistance_libelle,
		(SELECT COUNT(*) FROM beneficiaires b WHERE b.campagne_id = c.id AND b.date_suppression IS NULL) AS nombre_beneficiaires,
		(SELECT COUNT(*) FROM participants p WHERE p.campagne_id = c.id AND p.date_suppression IS NULL) AS nombre_participants
	FROM campagnes c
	LEFT JOIN types_assistance t ON t.id = c.type_assistance_id`

func campaignWhere(f model.CampaignFilters) *whereClause {
	where := &whereClause{}
	where.add("c.date_suppression IS NULL")
	if f.Statut != "" {
		where.add("c.statut = ?", f.Statut)
	}
	if f.TypeAssistanceID > 0 {
		where.add("c.type_assistance_id = ?", f.TypeAssistanceID)
	}
	if strings.TrimSpace(f.Query) != "" {
		p := likePattern(f.Query)
		where.add(`(c.nom LIKE ? ESCAPE '\' OR c.reference LIKE ? ESCAPE '\' OR c.lieu LIKE ? ESCAPE '\')`, p, p, p)
	}
	return where
}

// ListCampaigns returns one page of active campaigns and the total match count.
func ListCampaigns(ctx context.Context, db DBTX, f model.CampaignFilters) ([]model.CampaignRow, int, error) {
	where := campaignWhere(f)

	var total int
	if err := db.GetContext(ctx, &total, `SELECT COUNT(*) FROM campagnes c`+where.String(), where.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count campaigns: %w", err)
	}

	rows := []model.CampaignRow{}
	q := campaignRowSelect + where.String() + ` ORDER BY COALESCE(c.date_debut, '9999-12-31') DESC, c.id DESC LIMIT ? OFFSET ?`
	args := append(where.args, f.PerPage, f.Offset())
	if err := db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list campaigns: %w", err)
	}
	return rows, total, nil
}

func GetCampaign(ctx context.Context, db DBTX, id int64) (*model.CampaignRow, error) {
	var row model.CampaignRow
	if err := db.GetContext(ctx, &row, campaignRowSelect+` WHERE c.id = ? AND c.date_suppression IS NULL`, id); err != nil {
		return nil, translate(err)
	}
	return &row, nil
}

// GetCampaignIncludingDeleted is used by restore.
func GetCampaignIncludingDeleted(ctx context.Context, db DBTX, id int64) (*model.Campaign, error) {
	var c model.Campaign
	if err := db.GetContext(ctx, &c, `SELECT `+campaignColumns+` FROM campagnes WHERE id = ?`, id); err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

// ListActiveCampaigns returns every active campaign without joins.
func ListActiveCampaigns(ctx context.Context, db DBTX) ([]model.Campaign, error) {
	campaigns := []model.Campaign{}
	if err := db.SelectContext(ctx, &campaigns, `SELECT `+campaignColumns+` FROM campagnes WHERE date_suppression IS NULL ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list active campaigns: %w", err)
	}
	return campaigns, nil
}

// CreateCampaignInTx issues the reference and inserts the campaign.
func CreateCampaignInTx(ctx context.Context, tx *sqlx.Tx, c *model.Campaign) error {
	ref, err := CampaignReferenceInTx(ctx, tx)
	if err != nil {
		return err
	}
	now := timestamp()
	c.Reference = ref
	c.CreatedAt, c.UpdatedAt = now, now

	res, err := tx.NamedExecContext(ctx, `
		INSERT INTO campagnes (reference, nom, type_assistance_id, budget_id, date_debut, date_fin, statut,
			lieu, description, montant_budget, prix_unitaire, nombre_beneficiaires_prevu, created_at, updated_at)
		VALUES (:reference, :nom, :type_assistance_id, :budget_id, :date_debut, :date_fin, :statut,
			:lieu, :description, :montant_budget, :prix_unitaire, :nombre_beneficiaires_prevu, :created_at, :updated_at)`, c)
	if err != nil {
		return fmt.Errorf("CreateCampaignInTx (Nom: %s) failed: %w", c.Nom, translate(err))
	}
	c.ID, err = lastInsertID(res)
	return err
}

func UpdateCampaign(ctx context.Context, db DBTX, c *model.Campaign) error {
	c.UpdatedAt = timestamp()
	res, err := db.NamedExecContext(ctx, `
		UPDATE campagnes SET nom = :nom, type_assistance_id = :type_assistance_id, budget_id = :budget_id,
			date_debut = :date_debut, date_fin = :date_fin, statut = :statut, lieu = :lieu,
			description = :description, montant_budget = :montant_budget, prix_unitaire = :prix_unitaire,
			nombre_beneficiaires_prevu = :nombre_beneficiaires_prevu, updated_at = :updated_at
		WHERE id = :id AND date_suppression IS NULL`, c)
	if err != nil {
		return fmt.Errorf("UpdateCampaign (ID: %d) failed: %w", c.ID, translate(err))
	}
	return requireAffected(res)
}

func SetCampaignStatus(ctx context.Context, db DBTX, id int64, status model.CampaignStatus) error {
	res, err := db.ExecContext(ctx, `UPDATE campagnes SET statut = ?, updated_at = ? WHERE id = ? AND date_suppression IS NULL`,
		string(status), timestamp(), id)
	if err != nil {
		return fmt.Errorf("SetCampaignStatus (ID: %d) failed: %w", id, err)
	}
	return requireAffected(res)
}

// SoftDeleteCampaignInTx deletes the campaign with its active beneficiaries
// and participants, all stamped with the same timestamp.
func SoftDeleteCampaignInTx(ctx context.Context, tx *sqlx.Tx, id int64) (int64, error) {
	now := timestamp()
	res, err := tx.ExecContext(ctx, `UPDATE campagnes SET date_suppression = ?, updated_at = ? WHERE id = ? AND date_suppression IS NULL`, now, now, id)
	if err != nil {
		return 0, fmt.Errorf("soft delete campaign %d: %w", id, err)
	}
	if err := requireAffected(res); err != nil {
		return 0, err
	}

	var cascaded int64
	for _, table := range []string{"beneficiaires", "participants"} {
		res, err := tx.ExecContext(ctx,
			`UPDATE `+table+` SET date_suppression = ?, updated_at = ? WHERE campagne_id = ? AND date_suppression IS NULL`, now, now, id)
		if err != nil {
			return 0, fmt.Errorf("soft delete %s of campaign %d: %w", table, id, err)
		}
		n, _ := res.RowsAffected()
		cascaded += n
	}
	return cascaded, nil
}

// RestoreCampaignInTx restores the campaign and the rows its deletion cascaded to.
func RestoreCampaignInTx(ctx context.Context, tx *sqlx.Tx, id int64) error {
	c, err := GetCampaignIncludingDeleted(ctx, tx, id)
	if err != nil {
		return err
	}
	if !c.IsDeleted() {
		return ErrNotFound
	}
	stamp := *c.DateSuppression
	now := timestamp()

	if _, err := tx.ExecContext(ctx, `UPDATE campagnes SET date_suppression = NULL, updated_at = ? WHERE id = ?`, now, id); err != nil {
		return fmt.Errorf("restore campaign %d: %w", id, translate(err))
	}
	for _, table := range []string{"beneficiaires", "participants"} {
		_, err := tx.ExecContext(ctx,
			`UPDATE `+table+` SET date_suppression = NULL, updated_at = ? WHERE campagne_id = ? AND date_suppression = ?`, now, id, stamp)
		if err != nil {
			return fmt.Errorf("restore %s of campaign %d: %w", table, id, translate(err))
		}
	}
	return nil
}
