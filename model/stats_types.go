package model

type AssistanceTotals struct {
	Code    string  `db:"code" json:"code"`
	Libelle string  `db:"libelle" json:"libelle"`
	Nombre  int     `db:"nombre" json:"nombre"`
	Montant float64 `db:"montant" json:"montant"`
}

type Dashboard struct {
	CampagnesParStatut         []CountByKey       `json:"campagnesParStatut"`
	BeneficiairesParDecision   []CountByKey       `json:"beneficiairesParDecision"`
	ParticipantsParStatutAppel []CountByKey       `json:"participantsParStatutAppel"`
	AssistancesParType         []AssistanceTotals `json:"assistancesParType"`
	NombreKafalas              int                `json:"nombreKafalas"`
}

type CampaignStats struct {
	CampagneID                 int64        `json:"campagneId"`
	BeneficiairesParDecision   []CountByKey `json:"beneficiairesParDecision"`
	BeneficiairesParSexe       []CountByKey `json:"beneficiairesParSexe"`
	ParticipantsParStatutAppel []CountByKey `json:"participantsParStatutAppel"`
	NombreParticipants         int          `json:"nombreParticipants"`
	NombreConvertis            int          `json:"nombreConvertis"`
	TauxContact                float64      `json:"tauxContact"`
	TauxConversion             float64      `json:"tauxConversion"`
}
