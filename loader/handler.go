package loader

import (
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"medassist/config"
	"medassist/respond"
)

// ReloadSeedsHandler reapplies the dictionary seed file.
func ReloadSeedsHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seedPath := config.GetConfig().SeedPath
		zap.L().Info("reloading dictionary seeds", zap.String("seedPath", seedPath))

		res, err := LoadSeeds(r.Context(), db, seedPath)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, map[string]interface{}{
			"message": fmt.Sprintf("Dictionnaires rechargés : %d situation(s), %d type(s), %d budget(s) ajoutés.",
				res.Situations, res.TypesAssistance, res.Budgets),
			"ajouts": res,
		})
	}
}
