package model

// CallStatus is the outcome of the latest outreach call.
type CallStatus string

const (
	CallPending     CallStatus = "a_appeler"
	CallAnswered    CallStatus = "repondu"
	CallNoAnswer    CallStatus = "ne_repond_pas"
	CallUnreachable CallStatus = "injoignable"
	CallBack        CallStatus = "rappeler"
	CallRefused     CallStatus = "refuse"
	CallConfirmed   CallStatus = "confirme"
)

var CallStatuses = []CallStatus{CallPending, CallAnswered, CallNoAnswer, CallUnreachable, CallBack, CallRefused, CallConfirmed}

func (s CallStatus) Valid() bool {
	for _, known := range CallStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Convertible reports whether a participant in this status may become a beneficiary.
func (s CallStatus) Convertible() bool {
	return s == CallAnswered || s == CallConfirmed
}

type Participant struct {
	ID               int64      `db:"id" json:"id"`
	CampagneID       int64      `db:"campagne_id" json:"campagneId"`
	BeneficiaireID   *int64     `db:"beneficiaire_id" json:"beneficiaireId"`
	Nom              string     `db:"nom" json:"nom"`
	Prenom           string     `db:"prenom" json:"prenom"`
	Telephone        string     `db:"telephone" json:"telephone"`
	Adresse          string     `db:"adresse" json:"adresse"`
	Ville            string     `db:"ville" json:"ville"`
	StatutAppel      CallStatus `db:"statut_appel" json:"statutAppel"`
	NombreAppels     int        `db:"nombre_appels" json:"nombreAppels"`
	DateDernierAppel *string    `db:"date_dernier_appel" json:"dateDernierAppel"`
	Commentaire      string     `db:"commentaire" json:"commentaire"`
	Audit
}

type ParticipantFilters struct {
	CampagneID  int64
	StatutAppel string
	Query       string
	Paging
}
