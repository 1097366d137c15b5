// Package stats serves the dashboard counters.
package stats

import (
	"context"
	"math"
	"net/http"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"medassist/campaign"
	"medassist/database"
	"medassist/model"
	"medassist/respond"
)

// Dashboard runs the global counters concurrently.
func Dashboard(ctx context.Context, db *sqlx.DB) (*model.Dashboard, error) {
	var d model.Dashboard
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.CampagnesParStatut, err = database.CampaignsByStatus(ctx, db)
		return err
	})
	g.Go(func() (err error) {
		d.BeneficiairesParDecision, err = database.BeneficiariesByDecision(ctx, db, 0)
		return err
	})
	g.Go(func() (err error) {
		d.ParticipantsParStatutAppel, err = database.ParticipantsByCallStatus(ctx, db, 0)
		return err
	})
	g.Go(func() (err error) {
		d.AssistancesParType, err = database.AssistanceTotalsByType(ctx, db)
		return err
	})
	g.Go(func() (err error) {
		d.NombreKafalas, err = database.CountKafalas(ctx, db)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}

// percent returns part/total in percent with two decimals, 0 when total is 0.
func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*10000) / 100
}

// CampaignStats gathers the roster counters of one campaign.
func CampaignStats(ctx context.Context, db *sqlx.DB, campagneID int64) (*model.CampaignStats, error) {
	s := model.CampaignStats{CampagneID: campagneID}
	var converted int
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		s.BeneficiairesParDecision, err = database.BeneficiariesByDecision(ctx, db, campagneID)
		return err
	})
	g.Go(func() (err error) {
		s.BeneficiairesParSexe, err = database.BeneficiariesBySex(ctx, db, campagneID)
		return err
	})
	g.Go(func() (err error) {
		s.ParticipantsParStatutAppel, err = database.ParticipantsByCallStatus(ctx, db, campagneID)
		return err
	})
	g.Go(func() (err error) {
		s.NombreParticipants, converted, err = database.ParticipantTotals(ctx, db, campagneID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	contacted := 0
	for _, c := range s.ParticipantsParStatutAppel {
		if c.Key != string(model.CallPending) {
			contacted += c.Count
		}
	}
	s.NombreConvertis = converted
	s.TauxContact = percent(contacted, s.NombreParticipants)
	s.TauxConversion = percent(converted, s.NombreParticipants)
	return &s, nil
}

func DashboardHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := Dashboard(r.Context(), db)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, d)
	}
}

func CampaignStatsHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ID(w, r, "id")
		if !ok {
			return
		}
		if _, err := campaign.Load(r.Context(), db, id); err != nil {
			respond.Error(w, r, err)
			return
		}
		s, err := CampaignStats(r.Context(), db, id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, s)
	}
}
