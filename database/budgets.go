package database

import (
	"context"
	"fmt"
	"strings"

	"medassist/model"
)

const budgetColumns = `id, libelle, annee, montant, type_assistance_id, description, created_at, updated_at, date_suppression`

func ListBudgets(ctx context.Context, db DBTX, q string, annee int) ([]model.Budget, error) {
	where := &whereClause{}
	where.add("date_suppression IS NULL")
	if strings.TrimSpace(q) != "" {
		where.add(`libelle LIKE ? ESCAPE '\'`, likePattern(q))
	}
	if annee > 0 {
		where.add("annee = ?", annee)
	}
	budgets := []model.Budget{}
	err := db.SelectContext(ctx, &budgets, `SELECT `+budgetColumns+` FROM budgets`+where.String()+` ORDER BY annee DESC, libelle`, where.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	return budgets, nil
}

func GetBudget(ctx context.Context, db DBTX, id int64) (*model.Budget, error) {
	var b model.Budget
	err := db.GetContext(ctx, &b, `SELECT `+budgetColumns+` FROM budgets WHERE id = ? AND date_suppression IS NULL`, id)
	if err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func CreateBudget(ctx context.Context, db DBTX, b *model.Budget) error {
	now := timestamp()
	res, err := db.ExecContext(ctx,
		`INSERT INTO budgets (libelle, annee, montant, type_assistance_id, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.Libelle, b.Annee, b.Montant, b.TypeAssistanceID, b.Description, now, now)
	if err != nil {
		return fmt.Errorf("CreateBudget failed: %w", translate(err))
	}
	if b.ID, err = lastInsertID(res); err != nil {
		return err
	}
	b.CreatedAt, b.UpdatedAt = now, now
	return nil
}

func UpdateBudget(ctx context.Context, db DBTX, b *model.Budget) error {
	now := timestamp()
	res, err := db.ExecContext(ctx,
		`UPDATE budgets SET libelle = ?, annee = ?, montant = ?, type_assistance_id = ?, description = ?, updated_at = ?
		 WHERE id = ? AND date_suppression IS NULL`,
		b.Libelle, b.Annee, b.Montant, b.TypeAssistanceID, b.Description, now, b.ID)
	if err != nil {
		return fmt.Errorf("UpdateBudget (ID: %d) failed: %w", b.ID, translate(err))
	}
	b.UpdatedAt = now
	return requireAffected(res)
}

// UpsertBudgetByLabel inserts the budget unless one with the same label and
// year exists, soft deleted or not.
func UpsertBudgetByLabel(ctx context.Context, db DBTX, b model.Budget) (bool, error) {
	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM budgets WHERE libelle = ? AND annee = ?`, b.Libelle, b.Annee); err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	return true, CreateBudget(ctx, db, &b)
}

// BudgetInUse reports whether an active campaign is attached to the budget.
func BudgetInUse(ctx context.Context, db DBTX, id int64) (bool, error) {
	var n int
	err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM campagnes WHERE budget_id = ? AND date_suppression IS NULL`, id)
	return n > 0, err
}

// CampaignsForBudget returns the active campaigns attached to a budget.
func CampaignsForBudget(ctx context.Context, db DBTX, budgetID int64) ([]model.Campaign, error) {
	campaigns := []model.Campaign{}
	err := db.SelectContext(ctx, &campaigns, `SELECT `+campaignColumns+` FROM campagnes WHERE budget_id = ? AND date_suppression IS NULL ORDER BY reference`, budgetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns for budget %d: %w", budgetID, err)
	}
	return campaigns, nil
}
