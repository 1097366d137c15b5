package mappers

import (
	"time"

	"medassist/model"
)

// Label and badge color shown next to an enum value.
type badge struct {
	label string
	color string
}

var campaignBadges = map[model.CampaignStatus]badge{
	model.StatusDraft:     {"Brouillon", "secondary"},
	model.StatusPlanned:   {"Planifiée", "info"},
	model.StatusActive:    {"En cours", "primary"},
	model.StatusFinished:  {"Terminée", "success"},
	model.StatusCancelled: {"Annulée", "danger"},
}

var decisionBadges = map[model.Decision]badge{
	model.DecisionAccepted: {"Accepté", "success"},
	model.DecisionWaiting:  {"En attente", "warning"},
	model.DecisionRefused:  {"Refusé", "danger"},
}

var callBadges = map[model.CallStatus]badge{
	model.CallPending:     {"À appeler", "secondary"},
	model.CallAnswered:    {"A répondu", "info"},
	model.CallNoAnswer:    {"Ne répond pas", "warning"},
	model.CallUnreachable: {"Injoignable", "dark"},
	model.CallBack:        {"À rappeler", "warning"},
	model.CallRefused:     {"Refus", "danger"},
	model.CallConfirmed:   {"Confirmé", "success"},
}

func CampaignStatusLabel(s model.CampaignStatus) string { return campaignBadges[s].label }
func DecisionLabel(d model.Decision) string             { return decisionBadges[d].label }
func CallStatusLabel(s model.CallStatus) string         { return callBadges[s].label }

type CampaignView struct {
	model.CampaignRow
	StatutLibelle string `json:"statutLibelle"`
	StatutCouleur string `json:"statutCouleur"`
}

func ToCampaignView(row model.CampaignRow) CampaignView {
	b := campaignBadges[row.Statut]
	return CampaignView{CampaignRow: row, StatutLibelle: b.label, StatutCouleur: b.color}
}

func ToCampaignViews(rows []model.CampaignRow) []CampaignView {
	views := make([]CampaignView, 0, len(rows))
	for _, row := range rows {
		views = append(views, ToCampaignView(row))
	}
	return views
}

type BeneficiaryView struct {
	model.BeneficiaryRow
	DecisionLibelle string `json:"decisionLibelle"`
	DecisionCouleur string `json:"decisionCouleur"`
	Age             *int   `json:"age"`
}

// ToBeneficiaryView computes the age in whole years at today.
func ToBeneficiaryView(row model.BeneficiaryRow, today time.Time) BeneficiaryView {
	b := decisionBadges[row.Decision]
	return BeneficiaryView{
		BeneficiaryRow:  row,
		DecisionLibelle: b.label,
		DecisionCouleur: b.color,
		Age:             Age(row.DateNaissance, today),
	}
}

func ToBeneficiaryViews(rows []model.BeneficiaryRow, today time.Time) []BeneficiaryView {
	views := make([]BeneficiaryView, 0, len(rows))
	for _, row := range rows {
		views = append(views, ToBeneficiaryView(row, today))
	}
	return views
}

type ParticipantView struct {
	model.Participant
	StatutLibelle string `json:"statutLibelle"`
	StatutCouleur string `json:"statutCouleur"`
}

func ToParticipantView(p model.Participant) ParticipantView {
	b := callBadges[p.StatutAppel]
	return ParticipantView{Participant: p, StatutLibelle: b.label, StatutCouleur: b.color}
}

func ToParticipantViews(ps []model.Participant) []ParticipantView {
	views := make([]ParticipantView, 0, len(ps))
	for _, p := range ps {
		views = append(views, ToParticipantView(p))
	}
	return views
}

type KafalaView struct {
	model.Kafala
	ADocument bool `json:"aDocument"`
}

func ToKafalaView(k model.Kafala) KafalaView {
	return KafalaView{Kafala: k, ADocument: k.HasDocument()}
}

func ToKafalaViews(ks []model.Kafala) []KafalaView {
	views := make([]KafalaView, 0, len(ks))
	for _, k := range ks {
		views = append(views, ToKafalaView(k))
	}
	return views
}

// Age returns nil when the birth date is missing or unparsable.
func Age(birth *string, today time.Time) *int {
	if birth == nil || *birth == "" {
		return nil
	}
	d, err := time.Parse("2006-01-02", *birth)
	if err != nil {
		return nil
	}
	age := today.Year() - d.Year()
	if today.Month() < d.Month() || (today.Month() == d.Month() && today.Day() < d.Day()) {
		age--
	}
	if age < 0 {
		return nil
	}
	return &age
}
