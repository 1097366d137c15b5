package database

import (
	"context"
	"fmt"
)

// softDeletable lists the tables that carry date_suppression.
var softDeletable = map[string]bool{
	"situations":       true,
	"types_assistance": true,
	"budgets":          true,
	"campagnes":        true,
	"beneficiaires":    true,
	"participants":     true,
	"assistances":      true,
	"kafalas":          true,
}

// SoftDelete stamps date_suppression on an active row.
func SoftDelete(ctx context.Context, db DBTX, table string, id int64) error {
	if !softDeletable[table] {
		return fmt.Errorf("table %s does not support soft delete", table)
	}
	now := timestamp()
	res, err := db.ExecContext(ctx,
		`UPDATE `+table+` SET date_suppression = ?, updated_at = ? WHERE id = ? AND date_suppression IS NULL`,
		now, now, id)
	if err != nil {
		return fmt.Errorf("soft delete %s %d: %w", table, id, err)
	}
	return requireAffected(res)
}

// SoftDeleteMany stamps date_suppression on every listed active row and
// returns how many rows changed.
func SoftDeleteMany(ctx context.Context, db DBTX, table string, ids []int64) (int64, error) {
	var total int64
	for _, id := range ids {
		err := SoftDelete(ctx, db, table, id)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return total, err
		}
		total++
	}
	return total, nil
}

// Restore clears date_suppression. Restoring a row whose natural key has
// been reused by an active row fails with ErrConflict.
func Restore(ctx context.Context, db DBTX, table string, id int64) error {
	if !softDeletable[table] {
		return fmt.Errorf("table %s does not support soft delete", table)
	}
	res, err := db.ExecContext(ctx,
		`UPDATE `+table+` SET date_suppression = NULL, updated_at = ? WHERE id = ? AND date_suppression IS NOT NULL`,
		timestamp(), id)
	if err != nil {
		return fmt.Errorf("restore %s %d: %w", table, id, translate(err))
	}
	return requireAffected(res)
}

// IsActive reports whether id exists in table and is not soft deleted.
func IsActive(ctx context.Context, db DBTX, table string, id int64) (bool, error) {
	if !softDeletable[table] {
		return false, fmt.Errorf("table %s does not support soft delete", table)
	}
	var n int
	if err := db.GetContext(ctx, &n, `SELECT COUNT(*) FROM `+table+` WHERE id = ? AND date_suppression IS NULL`, id); err != nil {
		return false, err
	}
	return n > 0, nil
}
