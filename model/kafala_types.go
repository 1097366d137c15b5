package model

type Kafala struct {
	ID                  int64   `db:"id" json:"id"`
	Reference           string  `db:"reference" json:"reference"`
	EnfantNom           string  `db:"enfant_nom" json:"enfantNom"`
	EnfantPrenom        string  `db:"enfant_prenom" json:"enfantPrenom"`
	EnfantSexe          string  `db:"enfant_sexe" json:"enfantSexe"`
	EnfantDateNaissance *string `db:"enfant_date_naissance" json:"enfantDateNaissance"`
	KafilNom            string  `db:"kafil_nom" json:"kafilNom"`
	KafilPrenom         string  `db:"kafil_prenom" json:"kafilPrenom"`
	KafilCin            string  `db:"kafil_cin" json:"kafilCin"`
	KafilTelephone      string  `db:"kafil_telephone" json:"kafilTelephone"`
	KafilAdresse        string  `db:"kafil_adresse" json:"kafilAdresse"`
	NumeroJugement      string  `db:"numero_jugement" json:"numeroJugement"`
	DateJugement        *string `db:"date_jugement" json:"dateJugement"`
	Tribunal            string  `db:"tribunal" json:"tribunal"`
	DocumentChemin      string  `db:"document_chemin" json:"-"`
	DocumentNom         string  `db:"document_nom" json:"documentNom"`
	DocumentTaille      int64   `db:"document_taille" json:"documentTaille"`
	Observations        string  `db:"observations" json:"observations"`
	Audit
}

func (k Kafala) HasDocument() bool {
	return k.DocumentChemin != ""
}

type KafalaFilters struct {
	Query string
	Paging
}
