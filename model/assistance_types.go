package model

// Assistance is one delivered piece of assistance (a pair of glasses, a hearing aid, a device).
type Assistance struct {
	ID               int64   `db:"id" json:"id"`
	BeneficiaireID   int64   `db:"beneficiaire_id" json:"beneficiaireId"`
	CampagneID       *int64  `db:"campagne_id" json:"campagneId"`
	TypeAssistanceID int64   `db:"type_assistance_id" json:"typeAssistanceId"`
	DateAssistance   string  `db:"date_assistance" json:"dateAssistance"`
	Quantite         int     `db:"quantite" json:"quantite"`
	PrixUnitaire     float64 `db:"prix_unitaire" json:"prixUnitaire"`
	Montant          float64 `db:"montant" json:"montant"`
	Cote             string  `db:"cote" json:"cote"`
	TypeAppareil     string  `db:"type_appareil" json:"typeAppareil"`
	CorrectionOd     string  `db:"correction_od" json:"correctionOd"`
	CorrectionOg     string  `db:"correction_og" json:"correctionOg"`
	Observations     string  `db:"observations" json:"observations"`
	Audit
}

type AssistanceRow struct {
	Assistance
	TypeAssistanceCode    string `db:"type_assistance_code" json:"typeAssistanceCode"`
	TypeAssistanceLibelle string `db:"type_assistance_libelle" json:"typeAssistanceLibelle"`
	BeneficiaireNom       string `db:"beneficiaire_nom" json:"beneficiaireNom"`
	BeneficiairePrenom    string `db:"beneficiaire_prenom" json:"beneficiairePrenom"`
}

type AssistanceFilters struct {
	BeneficiaireID   int64
	CampagneID       int64
	TypeAssistanceID int64
	From             string
	To               string
	Paging
}
