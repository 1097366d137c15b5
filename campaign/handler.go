package campaign

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"medassist/config"
	"medassist/database"
	"medassist/mappers"
	"medassist/model"
	"medassist/parsers"
	"medassist/respond"
)

// ErrClosed is returned when a campaign no longer accepts beneficiaries.
var ErrClosed = errors.New("campaign closed")

// CurrentDay is today's date in the configured time zone.
func CurrentDay() string {
	return Today(database.Now(), config.GetConfig().Location())
}

type campaignInput struct {
	Nom                      string   `json:"nom"`
	TypeAssistanceID         int64    `json:"typeAssistanceId"`
	BudgetID                 *int64   `json:"budgetId"`
	DateDebut                *string  `json:"dateDebut"`
	DateFin                  *string  `json:"dateFin"`
	Lieu                     string   `json:"lieu"`
	Description              string   `json:"description"`
	MontantBudget            float64  `json:"montantBudget"`
	PrixUnitaire             *float64 `json:"prixUnitaire"`
	NombreBeneficiairesPrevu int      `json:"nombreBeneficiairesPrevu"`
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func (in *campaignInput) validate(ctx context.Context, db database.DBTX) (model.ValidationErrors, error) {
	errs := model.ValidationErrors{}
	in.Nom = strings.TrimSpace(in.Nom)
	in.DateDebut = blankToNil(in.DateDebut)
	in.DateFin = blankToNil(in.DateFin)

	if in.Nom == "" {
		errs.Add("nom", "Le nom est obligatoire.")
	}
	if in.TypeAssistanceID <= 0 {
		errs.Add("typeAssistanceId", "Le type d'assistance est obligatoire.")
	} else if _, err := database.GetAssistanceType(ctx, db, in.TypeAssistanceID); err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			return nil, err
		}
		errs.Add("typeAssistanceId", "Type d'assistance introuvable.")
	}
	if in.BudgetID != nil {
		if _, err := database.GetBudget(ctx, db, *in.BudgetID); err != nil {
			if !errors.Is(err, database.ErrNotFound) {
				return nil, err
			}
			errs.Add("budgetId", "Budget introuvable.")
		}
	}
	if in.DateDebut != nil && !parsers.IsISODate(*in.DateDebut) {
		errs.Add("dateDebut", "Date de début invalide (AAAA-MM-JJ).")
	}
	if in.DateFin != nil && !parsers.IsISODate(*in.DateFin) {
		errs.Add("dateFin", "Date de fin invalide (AAAA-MM-JJ).")
	}
	if in.DateFin != nil && in.DateDebut == nil {
		errs.Add("dateDebut", "Une date de fin exige une date de début.")
	}
	if in.DateDebut != nil && in.DateFin != nil && *in.DateFin < *in.DateDebut {
		errs.Add("dateFin", "La date de fin doit être postérieure ou égale à la date de début.")
	}
	if in.MontantBudget < 0 {
		errs.Add("montantBudget", "Le montant du budget ne peut pas être négatif.")
	}
	if in.PrixUnitaire != nil && *in.PrixUnitaire < 0 {
		errs.Add("prixUnitaire", "Le prix unitaire ne peut pas être négatif.")
	}
	if in.NombreBeneficiairesPrevu < 0 {
		errs.Add("nombreBeneficiairesPrevu", "Le nombre prévu ne peut pas être négatif.")
	}
	return errs, nil
}

func (in campaignInput) apply(c *model.Campaign) {
	c.Nom = in.Nom
	c.TypeAssistanceID = in.TypeAssistanceID
	c.BudgetID = in.BudgetID
	c.DateDebut = in.DateDebut
	c.DateFin = in.DateFin
	c.Lieu = strings.TrimSpace(in.Lieu)
	c.Description = in.Description
	c.MontantBudget = in.MontantBudget
	c.PrixUnitaire = in.PrixUnitaire
	c.NombreBeneficiairesPrevu = in.NombreBeneficiairesPrevu
}

// Load returns an active campaign with its status brought up to date.
func Load(ctx context.Context, db database.DBTX, id int64) (*model.CampaignRow, error) {
	row, err := database.GetCampaign(ctx, db, id)
	if err != nil {
		return nil, err
	}
	next := DeriveStatus(row.DateDebut, row.DateFin, row.Statut, CurrentDay())
	if next != row.Statut {
		if err := database.SetCampaignStatus(ctx, db, id, next); err != nil {
			return nil, err
		}
		row.Statut = next
	}
	return row, nil
}

// LoadOpen is Load for writes that enrol people: it fails with ErrClosed
// when the campaign is cancelled or finished.
func LoadOpen(ctx context.Context, db database.DBTX, id int64) (*model.CampaignRow, error) {
	row, err := Load(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if !row.Statut.AcceptsEnrolment() {
		return row, fmt.Errorf("%w: %s", ErrClosed, row.Statut)
	}
	return row, nil
}

// WriteClosed answers 409 for a campaign that no longer accepts enrolment.
func WriteClosed(w http.ResponseWriter, row *model.CampaignRow) {
	respond.Message(w, http.StatusConflict,
		fmt.Sprintf("La campagne %s est %s : aucun ajout n'est possible.", row.Reference, strings.ToLower(mappers.CampaignStatusLabel(row.Statut))))
}

/**
 * ListCampaignsHandler refreshes statuses then returns one page of campaigns.
 * Filters: statut, typeAssistanceId, q.
 */
func ListCampaignsHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if _, err := RefreshStatuses(ctx, db, CurrentDay()); err != nil {
			respond.Error(w, r, err)
			return
		}

		q := r.URL.Query()
		f := model.CampaignFilters{
			Statut:           q.Get("statut"),
			TypeAssistanceID: respond.QueryInt64(r, "typeAssistanceId"),
			Query:            q.Get("q"),
			Paging:           respond.Paging(r),
		}
		if f.Statut != "" && !model.CampaignStatus(f.Statut).Valid() {
			respond.Message(w, http.StatusBadRequest, "Statut inconnu : "+f.Statut)
			return
		}

		rows, total, err := database.ListCampaigns(ctx, db, f)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, model.NewPage(mappers.ToCampaignViews(rows), total, f.Paging))
	}
}

func GetCampaignHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := respond.ID(w, r, "id")
		if !ok {
			return
		}
		row, err := Load(r.Context(), db, id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, mappers.ToCampaignView(*row))
	}
}

func CreateCampaignHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var in campaignInput
		if !respond.Decode(w, r, &in) {
			return
		}
		errs, err := in.validate(ctx, db)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		if errs.HasErrors() {
			respond.Validation(w, errs)
			return
		}

		var c model.Campaign
		in.apply(&c)
		c.Statut = DeriveStatus(c.DateDebut, c.DateFin, model.StatusDraft, CurrentDay())

		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		defer tx.Rollback()

		if err := database.CreateCampaignInTx(ctx, tx, &c); err != nil {
			respond.Error(w, r, err)
			return
		}
		if err := tx.Commit(); err != nil {
			respond.Error(w, r, err)
			return
		}

		row, err := database.GetCampaign(ctx, db, c.ID)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		zap.L().Info("campaign created", zap.Int64("campagneId", c.ID), zap.String("reference", c.Reference))
		respond.JSON(w, http.StatusCreated, mappers.ToCampaignView(*row))
	}
}

func UpdateCampaignHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, ok := respond.ID(w, r, "id")
		if !ok {
			return
		}
		var in campaignInput
		if !respond.Decode(w, r, &in) {
			return
		}

		existing, err := database.GetCampaign(ctx, db, id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		errs, err := in.validate(ctx, db)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		if errs.HasErrors() {
			respond.Validation(w, errs)
			return
		}

		c := existing.Campaign
		in.apply(&c)
		c.Statut = DeriveStatus(c.DateDebut, c.DateFin, existing.Statut, CurrentDay())
		if err := database.UpdateCampaign(ctx, db, &c); err != nil {
			respond.Error(w, r, err)
			return
		}

		row, err := database.GetCampaign(ctx, db, id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, mappers.ToCampaignView(*row))
	}
}

// CancelCampaignHandler marks the campaign annulee. Date changes no longer affect it.
func CancelCampaignHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, ok := respond.ID(w, r, "id")
		if !ok {
			return
		}
		row, err := database.GetCampaign(ctx, db, id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		if row.Statut == model.StatusCancelled {
			respond.Message(w, http.StatusConflict, "La campagne est déjà annulée.")
			return
		}
		if err := database.SetCampaignStatus(ctx, db, id, model.StatusCancelled); err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Message(w, http.StatusOK, fmt.Sprintf("La campagne %s a été annulée.", row.Reference))
	}
}

// ReopenCampaignHandler lifts a cancellation and re-derives the status from the dates.
func ReopenCampaignHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, ok := respond.ID(w, r, "id")
		if !ok {
			return
		}
		row, err := database.GetCampaign(ctx, db, id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		if row.Statut != model.StatusCancelled {
			respond.Message(w, http.StatusConflict, "Seule une campagne annulée peut être réactivée.")
			return
		}
		next := DeriveStatus(row.DateDebut, row.DateFin, model.StatusDraft, CurrentDay())
		if err := database.SetCampaignStatus(ctx, db, id, next); err != nil {
			respond.Error(w, r, err)
			return
		}
		row.Statut = next
		respond.JSON(w, http.StatusOK, mappers.ToCampaignView(*row))
	}
}

func DeleteCampaignHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, ok := respond.ID(w, r, "id")
		if !ok {
			return
		}

		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		defer tx.Rollback()

		cascaded, err := database.SoftDeleteCampaignInTx(ctx, tx, id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		if err := tx.Commit(); err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.Message(w, http.StatusOK,
			fmt.Sprintf("Campagne supprimée avec %d bénéficiaire(s) et participant(s) rattachés.", cascaded))
	}
}

func RestoreCampaignHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		id, ok := respond.ID(w, r, "id")
		if !ok {
			return
		}

		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		defer tx.Rollback()

		if err := database.RestoreCampaignInTx(ctx, tx, id); err != nil {
			respond.Error(w, r, err)
			return
		}
		if err := tx.Commit(); err != nil {
			respond.Error(w, r, err)
			return
		}

		row, err := Load(ctx, db, id)
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, mappers.ToCampaignView(*row))
	}
}

func RefreshStatusesHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := RefreshStatuses(r.Context(), db, CurrentDay())
		if err != nil {
			respond.Error(w, r, err)
			return
		}
		respond.JSON(w, http.StatusOK, map[string]interface{}{
			"message":   fmt.Sprintf("%d statut(s) de campagne mis à jour.", n),
			"modifiees": n,
		})
	}
}
