package model

// CreditLine is the credit consumed by one assistance type inside a campaign.
type CreditLine struct {
	TypeAssistanceID int64   `db:"type_assistance_id" json:"typeAssistanceId"`
	Code             string  `db:"code" json:"code"`
	Libelle          string  `db:"libelle" json:"libelle"`
	PrixUnitaire     float64 `db:"prix_unitaire" json:"prixUnitaire"`
	Nombre           int     `db:"nombre" json:"nombre"`
	NombreEnAttente  int     `db:"nombre_en_attente" json:"nombreEnAttente"`
	Montant          float64 `json:"montant"`
}

// CampaignCredit summarizes the credit position of a campaign.
type CampaignCredit struct {
	CampagneID       int64        `json:"campagneId"`
	Lignes           []CreditLine `json:"lignes"`
	Total            float64      `json:"total"`
	Previsionnel     float64      `json:"previsionnel"`
	Budget           *float64     `json:"budget"`
	Restant          *float64     `json:"restant"`
	TauxUtilisation  *float64     `json:"tauxUtilisation"`
	CapaciteRestante int          `json:"capaciteRestante"`
	Devise           string       `json:"devise"`
	Recommandations  []string     `json:"recommandations"`
}

// BudgetConsumption shows how much of a dictionary budget the attached campaigns use.
type BudgetConsumption struct {
	Budget          Budget                 `json:"budget"`
	Consomme        float64                `json:"consomme"`
	Restant         float64                `json:"restant"`
	TauxUtilisation float64                `json:"tauxUtilisation"`
	Campagnes       []BudgetCampaignCredit `json:"campagnes"`
	Devise          string                 `json:"devise"`
}

type BudgetCampaignCredit struct {
	CampagneID int64   `json:"campagneId"`
	Reference  string  `json:"reference"`
	Nom        string  `json:"nom"`
	Montant    float64 `json:"montant"`
}
