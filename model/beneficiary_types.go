package model

// Decision is the enrolment outcome of a beneficiary.
type Decision string

const (
	DecisionAccepted Decision = "accepte"
	DecisionWaiting  Decision = "en_attente"
	DecisionRefused  Decision = "refuse"
)

var Decisions = []Decision{DecisionAccepted, DecisionWaiting, DecisionRefused}

func (d Decision) Valid() bool {
	return d == DecisionAccepted || d == DecisionWaiting || d == DecisionRefused
}

// Hearing aid sides.
const (
	SideLeft      = "gauche"
	SideRight     = "droite"
	SideBilateral = "bilateral"
)

type Beneficiary struct {
	ID               int64    `db:"id" json:"id"`
	CampagneID       int64    `db:"campagne_id" json:"campagneId"`
	TypeAssistanceID *int64   `db:"type_assistance_id" json:"typeAssistanceId"`
	SituationID      *int64   `db:"situation_id" json:"situationId"`
	ParticipantID    *int64   `db:"participant_id" json:"participantId"`
	Nom              string   `db:"nom" json:"nom"`
	Prenom           string   `db:"prenom" json:"prenom"`
	Sexe             string   `db:"sexe" json:"sexe"`
	DateNaissance    *string  `db:"date_naissance" json:"dateNaissance"`
	Cin              string   `db:"cin" json:"cin"`
	Telephone        string   `db:"telephone" json:"telephone"`
	Adresse          string   `db:"adresse" json:"adresse"`
	Ville            string   `db:"ville" json:"ville"`
	Decision         Decision `db:"decision" json:"decision"`
	Cote             string   `db:"cote" json:"cote"`
	Remarques        string   `db:"remarques" json:"remarques"`
	Audit
}

// BeneficiaryRow is a beneficiary joined with its labels.
type BeneficiaryRow struct {
	Beneficiary
	SituationLibelle      string `db:"situation_libelle" json:"situationLibelle"`
	TypeAssistanceCode    string `db:"type_assistance_code" json:"typeAssistanceCode"`
	TypeAssistanceLibelle string `db:"type_assistance_libelle" json:"typeAssistanceLibelle"`
}

type BeneficiaryFilters struct {
	CampagneID  int64
	Decision    string
	Sexe        string
	SituationID int64
	Query       string
	Paging
}
