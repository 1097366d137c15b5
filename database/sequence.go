package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// NextSequenceInTx increments the named counter and formats it as
// <prefix><zero padded number>. Counters are created on first use.
func NextSequenceInTx(ctx context.Context, tx *sqlx.Tx, name, prefix string, padding int) (string, error) {
	if _, err := tx.ExecContext(ctx, `INSERT INTO code_sequences (name, last_no) VALUES (?, 0) ON CONFLICT(name) DO NOTHING`, name); err != nil {
		return "", fmt.Errorf("failed to create sequence '%s': %w", name, err)
	}

	var lastNo int
	if err := tx.GetContext(ctx, &lastNo, `SELECT last_no FROM code_sequences WHERE name = ?`, name); err != nil {
		return "", fmt.Errorf("failed to get sequence '%s': %w", name, err)
	}

	newNo := lastNo + 1
	if _, err := tx.ExecContext(ctx, `UPDATE code_sequences SET last_no = ? WHERE name = ?`, newNo, name); err != nil {
		return "", fmt.Errorf("failed to update sequence '%s': %w", name, err)
	}

	format := fmt.Sprintf("%s%%0%dd", prefix, padding)
	newCode := fmt.Sprintf(format, newNo)
	zap.L().Debug("sequence issued", zap.String("sequence", name), zap.String("code", newCode))
	return newCode, nil
}

// CampaignReferenceInTx issues CAMP-<year>-0001 style references.
func CampaignReferenceInTx(ctx context.Context, tx *sqlx.Tx) (string, error) {
	year := Now().Year()
	return NextSequenceInTx(ctx, tx, fmt.Sprintf("CAMP%d", year), fmt.Sprintf("CAMP-%d-", year), 4)
}

// KafalaReferenceInTx issues KAF-<year>-00001 style references.
func KafalaReferenceInTx(ctx context.Context, tx *sqlx.Tx) (string, error) {
	year := Now().Year()
	return NextSequenceInTx(ctx, tx, fmt.Sprintf("KAF%d", year), fmt.Sprintf("KAF-%d-", year), 5)
}
