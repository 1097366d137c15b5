// Package credit computes how much of its budget a campaign consumes.
package credit

import (
	"context"
	"errors"
	"fmt"
	"math"

	"medassist/database"
	"medassist/model"
)

// UnitPrice is the campaign override when positive, else the type price.
func UnitPrice(c model.Campaign, typePrice float64) float64 {
	if c.PrixUnitaire != nil && *c.PrixUnitaire > 0 {
		return *c.PrixUnitaire
	}
	return typePrice
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Build assembles the credit of a campaign from its grouped lines.
// linkedBudget is the amount of the dictionary budget attached to the
// campaign, nil when there is none.
func Build(c model.Campaign, typePrice float64, lines []model.CreditLine, linkedBudget *float64, currency string) model.CampaignCredit {
	cc := model.CampaignCredit{CampagneID: c.ID, Lignes: []model.CreditLine{}, Devise: currency}

	accepted, waiting := 0, 0
	for _, l := range lines {
		l.Montant = round2(l.PrixUnitaire * float64(l.Nombre))
		cc.Total += l.Montant
		cc.Previsionnel += l.PrixUnitaire * float64(l.Nombre+l.NombreEnAttente)
		accepted += l.Nombre
		waiting += l.NombreEnAttente
		cc.Lignes = append(cc.Lignes, l)
	}
	cc.Total = round2(cc.Total)
	cc.Previsionnel = round2(cc.Previsionnel)

	switch {
	case c.MontantBudget > 0:
		b := c.MontantBudget
		cc.Budget = &b
	case linkedBudget != nil:
		b := *linkedBudget
		cc.Budget = &b
	}

	price := UnitPrice(c, typePrice)
	if cc.Budget != nil {
		restant := round2(*cc.Budget - cc.Total)
		cc.Restant = &restant
		if *cc.Budget > 0 {
			taux := round2(cc.Total / *cc.Budget * 100)
			cc.TauxUtilisation = &taux
		}
		if restant > 0 && price > 0 {
			cc.CapaciteRestante = int(math.Floor(restant / price))
		}
	}

	cc.Recommandations = recommend(cc, c.NombreBeneficiairesPrevu, accepted, waiting)
	return cc
}

func money(v float64, currency string) string {
	return fmt.Sprintf("%.2f %s", v, currency)
}

func recommend(cc model.CampaignCredit, planned, accepted, waiting int) []string {
	recs := []string{}
	if cc.Budget == nil {
		recs = append(recs, "Aucun budget n'est défini pour cette campagne : renseignez un montant ou rattachez un budget.")
	} else {
		switch {
		case *cc.Restant < 0:
			recs = append(recs, fmt.Sprintf("Dépassement de budget de %s : réduisez les acceptations ou augmentez le budget.",
				money(-*cc.Restant, cc.Devise)))
		case cc.TauxUtilisation != nil && *cc.TauxUtilisation >= 90:
			recs = append(recs, fmt.Sprintf("%.1f %% du budget est déjà consommé.", *cc.TauxUtilisation))
		}
		if cc.CapaciteRestante > 0 {
			recs = append(recs, fmt.Sprintf("Le crédit restant (%s) permet d'accepter encore %d bénéficiaire(s).",
				money(*cc.Restant, cc.Devise), cc.CapaciteRestante))
		}
		if waiting > 0 {
			fit := waiting
			if cc.CapaciteRestante < fit {
				fit = cc.CapaciteRestante
			}
			if fit > 0 {
				recs = append(recs, fmt.Sprintf("%d bénéficiaire(s) en attente sur %d peuvent être acceptés avec le crédit restant.", fit, waiting))
			} else {
				recs = append(recs, fmt.Sprintf("Les %d bénéficiaire(s) en attente ne peuvent pas être financés avec le crédit restant.", waiting))
			}
		}
	}
	if planned > 0 {
		if accepted >= planned {
			recs = append(recs, fmt.Sprintf("Objectif atteint : %d bénéficiaire(s) acceptés pour %d prévus.", accepted, planned))
		} else {
			recs = append(recs, fmt.Sprintf("%d/%d bénéficiaires prévus acceptés (%.0f %%).",
				accepted, planned, float64(accepted)/float64(planned)*100))
		}
	}
	return recs
}

// Compute loads everything Build needs for one active campaign.
func Compute(ctx context.Context, db database.DBTX, campagneID int64, currency string) (*model.CampaignCredit, error) {
	row, err := database.GetCampaign(ctx, db, campagneID)
	if err != nil {
		return nil, err
	}
	return computeFor(ctx, db, row.Campaign, currency)
}

func computeFor(ctx context.Context, db database.DBTX, c model.Campaign, currency string) (*model.CampaignCredit, error) {
	typ, err := database.GetAssistanceType(ctx, db, c.TypeAssistanceID)
	if err != nil && !errors.Is(err, database.ErrNotFound) {
		return nil, err
	}
	typePrice := 0.0
	if typ != nil {
		typePrice = typ.PrixUnitaire
	}

	lines, err := database.CreditLines(ctx, db, c.ID)
	if err != nil {
		return nil, err
	}

	var linked *float64
	if c.BudgetID != nil {
		b, err := database.GetBudget(ctx, db, *c.BudgetID)
		switch {
		case err == nil:
			linked = &b.Montant
		case !errors.Is(err, database.ErrNotFound):
			return nil, err
		}
	}

	cc := Build(c, typePrice, lines, linked, currency)
	return &cc, nil
}

// BudgetConsumption sums the credit of every active campaign attached to a budget.
func BudgetConsumption(ctx context.Context, db database.DBTX, budgetID int64, currency string) (*model.BudgetConsumption, error) {
	b, err := database.GetBudget(ctx, db, budgetID)
	if err != nil {
		return nil, err
	}
	campaigns, err := database.CampaignsForBudget(ctx, db, budgetID)
	if err != nil {
		return nil, err
	}

	bc := &model.BudgetConsumption{Budget: *b, Campagnes: []model.BudgetCampaignCredit{}, Devise: currency}
	for _, c := range campaigns {
		cc, err := computeFor(ctx, db, c, currency)
		if err != nil {
			return nil, fmt.Errorf("credit of campaign %d: %w", c.ID, err)
		}
		bc.Consomme += cc.Total
		bc.Campagnes = append(bc.Campagnes, model.BudgetCampaignCredit{
			CampagneID: c.ID, Reference: c.Reference, Nom: c.Nom, Montant: cc.Total,
		})
	}
	bc.Consomme = round2(bc.Consomme)
	bc.Restant = round2(b.Montant - bc.Consomme)
	if b.Montant > 0 {
		bc.TauxUtilisation = round2(bc.Consomme / b.Montant * 100)
	}
	return bc, nil
}
