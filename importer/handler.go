package importer

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/jmoiron/sqlx"

	"medassist/campaign"
	"medassist/config"
	"medassist/respond"
)

/**
 * ImportHandler receives a roster file for a campaign.
 * Multipart fields: fichier (csv or xlsx), feuille (optional sheet name),
 * dryRun (true to validate only).
 */
func ImportHandler(db *sqlx.DB, kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, ok := respond.ID(w, r, "id")
		if !ok {
			return
		}
		c, err := campaign.LoadOpen(ctx, db, id)
		if errors.Is(err, campaign.ErrClosed) {
			campaign.WriteClosed(w, c)
			return
		}
		if err != nil {
			respond.Error(w, r, err)
			return
		}

		cfg := config.GetConfig()
		r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxUploadBytes()+1<<20)
		file, header, err := r.FormFile("fichier")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				respond.Message(w, http.StatusRequestEntityTooLarge, "Le fichier dépasse la taille maximale autorisée.")
				return
			}
			respond.Message(w, http.StatusBadRequest, "Le champ « fichier » est manquant.")
			return
		}
		defer file.Close()

		dryRun, _ := strconv.ParseBool(r.FormValue("dryRun"))
		res, err := Import(ctx, db, kind, c.ID, header.Filename, file, Options{
			SheetName: r.FormValue("feuille"),
			DryRun:    dryRun,
		})
		if errors.Is(err, ErrBadFile) {
			respond.Message(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, res)
	}
}
