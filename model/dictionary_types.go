package model

// Assistance type codes known to the business rules.
const (
	TypeEyewear    = "lunettes"
	TypeHearingAid = "appareils_auditifs"
	TypeOrthopedic = "orthopedie"
	TypeOther      = "autre"
)

type Situation struct {
	ID          int64  `db:"id" json:"id"`
	Libelle     string `db:"libelle" json:"libelle"`
	Description string `db:"description" json:"description"`
	Audit
}

type AssistanceType struct {
	ID           int64   `db:"id" json:"id"`
	Code         string  `db:"code" json:"code"`
	Libelle      string  `db:"libelle" json:"libelle"`
	PrixUnitaire float64 `db:"prix_unitaire" json:"prixUnitaire"`
	Description  string  `db:"description" json:"description"`
	Audit
}

type Budget struct {
	ID               int64   `db:"id" json:"id"`
	Libelle          string  `db:"libelle" json:"libelle"`
	Annee            int     `db:"annee" json:"annee"`
	Montant          float64 `db:"montant" json:"montant"`
	TypeAssistanceID *int64  `db:"type_assistance_id" json:"typeAssistanceId"`
	Description      string  `db:"description" json:"description"`
	Audit
}
