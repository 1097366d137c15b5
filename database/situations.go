package database

import (
	"context"
	"fmt"
	"strings"

	"medassist/model"
	"medassist/parsers"
)

const situationColumns = `id, libelle, description, created_at, updated_at, date_suppression`

func ListSituations(ctx context.Context, db DBTX, q string) ([]model.Situation, error) {
	where := &whereClause{}
	where.add("date_suppression IS NULL")
	if strings.TrimSpace(q) != "" {
		where.add(`libelle LIKE ? ESCAPE '\'`, likePattern(q))
	}
	situations := []model.Situation{}
	err := db.SelectContext(ctx, &situations, `SELECT `+situationColumns+` FROM situations`+where.String()+` ORDER BY libelle`, where.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list situations: %w", err)
	}
	return situations, nil
}

func GetSituation(ctx context.Context, db DBTX, id int64) (*model.Situation, error) {
	var s model.Situation
	err := db.GetContext(ctx, &s, `SELECT `+situationColumns+` FROM situations WHERE id = ? AND date_suppression IS NULL`, id)
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

// SituationIDsByLabel maps labels folded by parsers.NormalizeHeader to ids, for imports.
func SituationIDsByLabel(ctx context.Context, db DBTX) (map[string]int64, error) {
	situations, err := ListSituations(ctx, db, "")
	if err != nil {
		return nil, err
	}
	m := make(map[string]int64, len(situations))
	for _, s := range situations {
		m[parsers.NormalizeHeader(s.Libelle)] = s.ID
	}
	return m, nil
}

func CreateSituation(ctx context.Context, db DBTX, s *model.Situation) error {
	now := timestamp()
	res, err := db.ExecContext(ctx,
		`INSERT INTO situations (libelle, description, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		s.Libelle, s.Description, now, now)
	if err != nil {
		return fmt.Errorf("CreateSituation failed: %w", translate(err))
	}
	if s.ID, err = lastInsertID(res); err != nil {
		return err
	}
	s.CreatedAt, s.UpdatedAt = now, now
	return nil
}

func UpdateSituation(ctx context.Context, db DBTX, s *model.Situation) error {
	now := timestamp()
	res, err := db.ExecContext(ctx,
		`UPDATE situations SET libelle = ?, description = ?, updated_at = ? WHERE id = ? AND date_suppression IS NULL`,
		s.Libelle, s.Description, now, s.ID)
	if err != nil {
		return fmt.Errorf("UpdateSituation (ID: %d) failed: %w", s.ID, translate(err))
	}
	s.UpdatedAt = now
	return requireAffected(res)
}

// UpsertSituationByLabel inserts the situation unless one with the same label
// exists, soft deleted or not. It reports whether a row was inserted.
func UpsertSituationByLabel(ctx context.Context, db DBTX, libelle, description string) (bool, error) {
	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM situations WHERE libelle = ? COLLATE NOCASE`, libelle); err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	return true, CreateSituation(ctx, db, &model.Situation{Libelle: libelle, Description: description})
}

// SituationInUse reports whether an active beneficiary references the situation.
func SituationInUse(ctx context.Context, db DBTX, id int64) (bool, error) {
	var n int
	err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM beneficiaires WHERE situation_id = ? AND date_suppression IS NULL`, id)
	return n > 0, err
}
