package campaign

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"medassist/database"
	"medassist/model"
)

const dayLayout = "2006-01-02"

// Today is the current calendar day in loc.
func Today(now time.Time, loc *time.Location) string {
	return now.In(loc).Format(dayLayout)
}

// DeriveStatus computes the status of a campaign from its dates on the
// calendar day today (YYYY-MM-DD). A cancelled campaign stays cancelled.
func DeriveStatus(start, end *string, current model.CampaignStatus, today string) model.CampaignStatus {
	if current == model.StatusCancelled {
		return model.StatusCancelled
	}
	if start == nil || *start == "" {
		return model.StatusDraft
	}
	if today < *start {
		return model.StatusPlanned
	}
	if end != nil && *end != "" && today > *end {
		return model.StatusFinished
	}
	return model.StatusActive
}

// RefreshStatuses re-derives the status of every active campaign and
// persists the ones that changed.
func RefreshStatuses(ctx context.Context, db database.DBTX, today string) (int, error) {
	campaigns, err := database.ListActiveCampaigns(ctx, db)
	if err != nil {
		return 0, err
	}
	changed := 0
	for _, c := range campaigns {
		next := DeriveStatus(c.DateDebut, c.DateFin, c.Statut, today)
		if next == c.Statut {
			continue
		}
		if err := database.SetCampaignStatus(ctx, db, c.ID, next); err != nil {
			return changed, fmt.Errorf("refresh status of campaign %d: %w", c.ID, err)
		}
		zap.L().Info("campaign status changed",
			zap.Int64("campagneId", c.ID), zap.String("from", string(c.Statut)), zap.String("to", string(next)))
		changed++
	}
	return changed, nil
}
