package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"medassist/model"
)

const assistanceTypeColumns = `id, code, libelle, prix_unitaire, description, created_at, updated_at, date_suppression`

func ListAssistanceTypes(ctx context.Context, db DBTX, q string) ([]model.AssistanceType, error) {
	where := &whereClause{}
	where.add("date_suppression IS NULL")
	if strings.TrimSpace(q) != "" {
		p := likePattern(q)
		where.add(`(libelle LIKE ? ESCAPE '\' OR code LIKE ? ESCAPE '\')`, p, p)
	}
	types := []model.AssistanceType{}
	err := db.SelectContext(ctx, &types, `SELECT `+assistanceTypeColumns+` FROM types_assistance`+where.String()+` ORDER BY libelle`, where.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list assistance types: %w", err)
	}
	return types, nil
}

func GetAssistanceType(ctx context.Context, db DBTX, id int64) (*model.AssistanceType, error) {
	var t model.AssistanceType
	err := db.GetContext(ctx, &t, `SELECT `+assistanceTypeColumns+` FROM types_assistance WHERE id = ? AND date_suppression IS NULL`, id)
	if err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func GetAssistanceTypeByCode(ctx context.Context, db DBTX, code string) (*model.AssistanceType, error) {
	var t model.AssistanceType
	err := db.GetContext(ctx, &t, `SELECT `+assistanceTypeColumns+` FROM types_assistance WHERE code = ? AND date_suppression IS NULL`, code)
	if err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func CreateAssistanceType(ctx context.Context, db DBTX, t *model.AssistanceType) error {
	now := timestamp()
	res, err := db.ExecContext(ctx,
		`INSERT INTO types_assistance (code, libelle, prix_unitaire, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		t.Code, t.Libelle, t.PrixUnitaire, t.Description, now, now)
	if err != nil {
		return fmt.Errorf("CreateAssistanceType (Code: %s) failed: %w", t.Code, translate(err))
	}
	if t.ID, err = lastInsertID(res); err != nil {
		return err
	}
	t.CreatedAt, t.UpdatedAt = now, now
	return nil
}

func UpdateAssistanceType(ctx context.Context, db DBTX, t *model.AssistanceType) error {
	now := timestamp()
	res, err := db.ExecContext(ctx,
		`UPDATE types_assistance SET code = ?, libelle = ?, prix_unitaire = ?, description = ?, updated_at = ?
		 WHERE id = ? AND date_suppression IS NULL`,
		t.Code, t.Libelle, t.PrixUnitaire, t.Description, now, t.ID)
	if err != nil {
		return fmt.Errorf("UpdateAssistanceType (ID: %d) failed: %w", t.ID, translate(err))
	}
	t.UpdatedAt = now
	return requireAffected(res)
}

// UpsertAssistanceTypeByCode inserts the type when no row, soft deleted or
// not, carries its code. An active type only gets its price filled when it is
// still zero.
func UpsertAssistanceTypeByCode(ctx context.Context, db DBTX, t model.AssistanceType) (bool, error) {
	var existing struct {
		ID              int64   `db:"id"`
		PrixUnitaire    float64 `db:"prix_unitaire"`
		DateSuppression *string `db:"date_suppression"`
	}
	err := db.GetContext(ctx, &existing, `SELECT id, prix_unitaire, date_suppression FROM types_assistance
		WHERE code = ? ORDER BY date_suppression IS NOT NULL, id LIMIT 1`, t.Code)
	if errors.Is(err, sql.ErrNoRows) {
		return true, CreateAssistanceType(ctx, db, &t)
	}
	if err != nil {
		return false, err
	}
	if existing.DateSuppression == nil && existing.PrixUnitaire == 0 && t.PrixUnitaire > 0 {
		_, err := db.ExecContext(ctx, `UPDATE types_assistance SET prix_unitaire = ?, updated_at = ? WHERE id = ?`,
			t.PrixUnitaire, timestamp(), existing.ID)
		return false, err
	}
	return false, nil
}

// AssistanceTypeInUse reports whether an active campaign, beneficiary or
// assistance record references the type.
func AssistanceTypeInUse(ctx context.Context, db DBTX, id int64) (bool, error) {
	var n int
	err := db.GetContext(ctx, &n, `
		SELECT (SELECT COUNT(*) FROM campagnes WHERE type_assistance_id = ? AND date_suppression IS NULL)
		     + (SELECT COUNT(*) FROM beneficiaires WHERE type_assistance_id = ? AND date_suppression IS NULL)
		     + (SELECT COUNT(*) FROM assistances WHERE type_assistance_id = ? AND date_suppression IS NULL)`,
		id, id, id)
	return n > 0, err
}
