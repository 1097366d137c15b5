package credit

import (
	"net/http"

	"github.com/jmoiron/sqlx"

	"medassist/config"
	"medassist/respond"
)

func CampaignCreditHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ID(w, r, "id")
		if !ok {
			return
		}
		cc, err := Compute(r.Context(), db, id, config.GetConfig().Currency)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, cc)
	}
}

func BudgetConsumptionHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ID(w, r, "id")
		if !ok {
			return
		}
		bc, err := BudgetConsumption(r.Context(), db, id, config.GetConfig().Currency)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, bc)
	}
}
