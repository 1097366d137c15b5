package model

// CampaignStatus is the lifecycle state of a campaign.
type CampaignStatus string

const (
	StatusDraft     CampaignStatus = "brouillon"
	StatusPlanned   CampaignStatus = "planifiee"
	StatusActive    CampaignStatus = "en_cours"
	StatusFinished  CampaignStatus = "terminee"
	StatusCancelled CampaignStatus = "annulee"
)

// CampaignStatuses lists every status in display order.
var CampaignStatuses = []CampaignStatus{StatusDraft, StatusPlanned, StatusActive, StatusFinished, StatusCancelled}

func (s CampaignStatus) Valid() bool {
	for _, known := range CampaignStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// AcceptsEnrolment reports whether beneficiaries may still be added.
func (s CampaignStatus) AcceptsEnrolment() bool {
	return s != StatusCancelled && s != StatusFinished
}

type Campaign struct {
	ID                       int64          `db:"id" json:"id"`
	Reference                string         `db:"reference" json:"reference"`
	Nom                      string         `db:"nom" json:"nom"`
	TypeAssistanceID         int64          `db:"type_assistance_id" json:"typeAssistanceId"`
	BudgetID                 *int64         `db:"budget_id" json:"budgetId"`
	DateDebut                *string        `db:"date_debut" json:"dateDebut"`
	DateFin                  *string        `db:"date_fin" json:"dateFin"`
	Statut                   CampaignStatus `db:"statut" json:"statut"`
	Lieu                     string         `db:"lieu" json:"lieu"`
	Description              string         `db:"description" json:"description"`
	MontantBudget            float64        `db:"montant_budget" json:"montantBudget"`
	PrixUnitaire             *float64       `db:"prix_unitaire" json:"prixUnitaire"`
	NombreBeneficiairesPrevu int            `db:"nombre_beneficiaires_prevu" json:"nombreBeneficiairesPrevu"`
	Audit
}

// CampaignRow is a campaign joined with its type and roster counts.
type CampaignRow struct {
	Campaign
	TypeAssistanceCode    string `db:"type_assistance_code" json:"typeAssistanceCode"`
	TypeAssistanceLibelle string `db:"type_assistance_libelle" json:"typeAssistanceLibelle"`
	NombreBeneficiaires   int    `db:"nombre_beneficiaires" json:"nombreBeneficiaires"`
	NombreParticipants    int    `db:"nombre_participants" json:"nombreParticipants"`
}

type CampaignFilters struct {
	Statut           string
	TypeAssistanceID int64
	Query            string
	Paging
}
