package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"medassist/assistance"
	"medassist/auth"
	"medassist/automation"
	"medassist/beneficiary"
	"medassist/campaign"
	"medassist/config"
	"medassist/credit"
	"medassist/database"
	"medassist/dictionary"
	"medassist/importer"
	"medassist/kafala"
	"medassist/loader"
	"medassist/logging"
	"medassist/metrics"
	"medassist/participant"
	"medassist/respond"
	"medassist/stats"
)

// SetupRoutes builds the HTTP surface. printPDF renders kafala fiches.
func SetupRoutes(dbConn *sqlx.DB, printPDF automation.Printer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(zap.L()))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbConn.PingContext(r.Context()); err != nil {
			respond.Message(w, http.StatusServiceUnavailable, "Base de données indisponible.")
			return
		}
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(func() string { return config.GetConfig().JWTSecret }))

		r.Get("/config", GetConfigHandler())
		r.Post("/config", SaveConfigHandler())
		r.Get("/tableau-de-bord", stats.DashboardHandler(dbConn))

		r.Route("/dictionnaires", func(r chi.Router) {
			r.Post("/recharger", loader.ReloadSeedsHandler(dbConn))

			r.Get("/situations", dictionary.ListSituationsHandler(dbConn))
			r.Post("/situations", dictionary.SaveSituationHandler(dbConn, true))
			r.Get("/situations/{id}", dictionary.GetSituationHandler(dbConn))
			r.Put("/situations/{id}", dictionary.SaveSituationHandler(dbConn, false))
			r.Delete("/situations/{id}", dictionary.DeleteHandler(dbConn, "situations", database.SituationInUse))
			r.Post("/situations/{id}/restaurer", dictionary.RestoreHandler(dbConn, "situations"))

			r.Get("/types-assistance", dictionary.ListAssistanceTypesHandler(dbConn))
			r.Post("/types-assistance", dictionary.SaveAssistanceTypeHandler(dbConn, true))
			r.Get("/types-assistance/{id}", dictionary.GetAssistanceTypeHandler(dbConn))
			r.Put("/types-assistance/{id}", dictionary.SaveAssistanceTypeHandler(dbConn, false))
			r.Delete("/types-assistance/{id}", dictionary.DeleteHandler(dbConn, "types_assistance", database.AssistanceTypeInUse))
			r.Post("/types-assistance/{id}/restaurer", dictionary.RestoreHandler(dbConn, "types_assistance"))

			r.Get("/budgets", dictionary.ListBudgetsHandler(dbConn))
			r.Post("/budgets", dictionary.SaveBudgetHandler(dbConn, true))
			r.Get("/budgets/{id}", dictionary.GetBudgetHandler(dbConn))
			r.Put("/budgets/{id}", dictionary.SaveBudgetHandler(dbConn, false))
			r.Delete("/budgets/{id}", dictionary.DeleteHandler(dbConn, "budgets", database.BudgetInUse))
			r.Post("/budgets/{id}/restaurer", dictionary.RestoreHandler(dbConn, "budgets"))
			r.Get("/budgets/{id}/consommation", credit.BudgetConsumptionHandler(dbConn))
		})

		r.Route("/campagnes", func(r chi.Router) {
			r.Get("/", campaign.ListCampaignsHandler(dbConn))
			r.Post("/", campaign.CreateCampaignHandler(dbConn))
			r.Post("/statuts/rafraichir", campaign.RefreshStatusesHandler(dbConn))

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", campaign.GetCampaignHandler(dbConn))
				r.Put("/", campaign.UpdateCampaignHandler(dbConn))
				r.Delete("/", campaign.DeleteCampaignHandler(dbConn))
				r.Post("/annuler", campaign.CancelCampaignHandler(dbConn))
				r.Post("/reactiver", campaign.ReopenCampaignHandler(dbConn))
				r.Post("/restaurer", campaign.RestoreCampaignHandler(dbConn))

				r.Get("/credit", credit.CampaignCreditHandler(dbConn))
				r.Get("/statistiques", stats.CampaignStatsHandler(dbConn))

				r.Get("/beneficiaires", beneficiary.ListCampaignBeneficiariesHandler(dbConn))
				r.Get("/beneficiaires/export", beneficiary.ExportBeneficiariesHandler(dbConn))
				r.Post("/beneficiaires/import", importer.ImportHandler(dbConn, importer.KindBeneficiaries))
				r.Get("/participants", participant.ListCampaignParticipantsHandler(dbConn))
				r.Post("/participants/import", importer.ImportHandler(dbConn, importer.KindParticipants))
			})
		})

		r.Route("/beneficiaires", func(r chi.Router) {
			r.Get("/", beneficiary.ListBeneficiariesHandler(dbConn))
			r.Post("/", beneficiary.CreateBeneficiaryHandler(dbConn))
			r.Post("/decision", beneficiary.BulkDecisionHandler(dbConn))
			r.Post("/supprimer", beneficiary.BulkDeleteBeneficiariesHandler(dbConn))
			r.Get("/{id}", beneficiary.GetBeneficiaryHandler(dbConn))
			r.Put("/{id}", beneficiary.UpdateBeneficiaryHandler(dbConn))
			r.Delete("/{id}", beneficiary.DeleteBeneficiaryHandler(dbConn))
			r.Patch("/{id}/decision", beneficiary.SetDecisionHandler(dbConn))
			r.Post("/{id}/restaurer", beneficiary.RestoreBeneficiaryHandler(dbConn))
		})

		r.Route("/participants", func(r chi.Router) {
			r.Get("/", participant.ListParticipantsHandler(dbConn))
			r.Post("/", participant.CreateParticipantHandler(dbConn))
			r.Get("/{id}", participant.GetParticipantHandler(dbConn))
			r.Put("/{id}", participant.UpdateParticipantHandler(dbConn))
			r.Delete("/{id}", participant.DeleteParticipantHandler(dbConn))
			r.Patch("/{id}/appel", participant.RecordCallHandler(dbConn))
			r.Post("/{id}/convertir", participant.ConvertParticipantHandler(dbConn))
			r.Post("/{id}/restaurer", participant.RestoreParticipantHandler(dbConn))
		})

		r.Route("/assistances", func(r chi.Router) {
			r.Get("/", assistance.ListAssistancesHandler(dbConn))
			r.Post("/", assistance.CreateAssistanceHandler(dbConn))
			r.Get("/{id}", assistance.GetAssistanceHandler(dbConn))
			r.Put("/{id}", assistance.UpdateAssistanceHandler(dbConn))
			r.Delete("/{id}", assistance.DeleteAssistanceHandler(dbConn))
		})

		r.Route("/kafalas", func(r chi.Router) {
			r.Get("/", kafala.ListKafalasHandler(dbConn))
			r.Post("/", kafala.CreateKafalaHandler(dbConn))
			r.Get("/{id}", kafala.GetKafalaHandler(dbConn))
			r.Put("/{id}", kafala.UpdateKafalaHandler(dbConn))
			r.Delete("/{id}", kafala.DeleteKafalaHandler(dbConn))
			r.Post("/{id}/restaurer", kafala.RestoreKafalaHandler(dbConn))
			r.Post("/{id}/document", kafala.UploadDocumentHandler(dbConn))
			r.Get("/{id}/document", kafala.DownloadDocumentHandler(dbConn))
			r.Get("/{id}/fiche", kafala.FicheHandler(dbConn, printPDF))
		})
	})

	return r
}
