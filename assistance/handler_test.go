package assistance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medassist/config"
	"medassist/database"
	"medassist/model"
)

type env struct {
	db         *sqlx.DB
	h          http.Handler
	eyewear    int64
	hearing    int64
	orthopedic int64
	campaign   int64
}

func setup(t *testing.T, campaignPrice *float64) env {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	ctx := context.Background()
	require.NoError(t, database.ApplyMigrations(ctx, db))

	prev := database.Now
	database.Now = func() time.Time { return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { database.Now = prev })
	cfg := config.Default()
	cfg.TimeZone = "UTC"
	config.Set(cfg)

	types := map[string]*model.AssistanceType{
		model.TypeEyewear:    {Code: model.TypeEyewear, Libelle: "Lunettes", PrixUnitaire: 150},
		model.TypeHearingAid: {Code: model.TypeHearingAid, Libelle: "Appareils auditifs", PrixUnitaire: 2500},
		model.TypeOrthopedic: {Code: model.TypeOrthopedic, Libelle: "Orthopédie", PrixUnitaire: 1200},
	}
	for _, typ := range types {
		require.NoError(t, database.CreateAssistanceType(ctx, db, typ))
	}
	c := &model.Campaign{Nom: "Caravane Oujda", TypeAssistanceID: types[model.TypeEyewear].ID,
		Statut: model.StatusDraft, PrixUnitaire: campaignPrice}
	require.NoError(t, database.WithTx(ctx, db, func(tx *sqlx.Tx) error { return database.CreateCampaignInTx(ctx, tx, c) }))

	r := chi.NewRouter()
	r.Get("/assistances", ListAssistancesHandler(db))
	r.Post("/assistances", CreateAssistanceHandler(db))
	r.Get("/assistances/{id}", GetAssistanceHandler(db))
	r.Put("/assistances/{id}", UpdateAssistanceHandler(db))
	r.Delete("/assistances/{id}", DeleteAssistanceHandler(db))
	return env{db: db, h: r, eyewear: types[model.TypeEyewear].ID, hearing: types[model.TypeHearingAid].ID,
		orthopedic: types[model.TypeOrthopedic].ID, campaign: c.ID}
}

func (e env) beneficiary(t *testing.T, typeID *int64) int64 {
	t.Helper()
	b := &model.Beneficiary{CampagneID: e.campaign, TypeAssistanceID: typeID, Nom: "Tazi", Prenom: "Amina",
		Telephone: "0612345678", Decision: model.DecisionAccepted}
	require.NoError(t, database.CreateBeneficiary(context.Background(), e.db, b))
	return b.ID
}

func (e env) do(method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.h.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func decodeRow(t *testing.T, rec *httptest.ResponseRecorder) model.AssistanceRow {
	t.Helper()
	var row model.AssistanceRow
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &row))
	return row
}

func id(v int64) string { return strconv.FormatInt(v, 10) }

func TestCreateDefaults(t *testing.T) {
	e := setup(t, nil)
	b := e.beneficiary(t, nil)

	rec := e.do(http.MethodPost, "/assistances", `{"beneficiaireId":`+id(b)+`,"correctionOd":"-1.25","correctionOg":"-0.75"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	row := decodeRow(t, rec)
	assert.Equal(t, e.eyewear, row.TypeAssistanceID)
	require.NotNil(t, row.CampagneID)
	assert.Equal(t, e.campaign, *row.CampagneID)
	assert.Equal(t, 1, row.Quantite)
	assert.Equal(t, 150.0, row.PrixUnitaire)
	assert.Equal(t, 150.0, row.Montant)
	assert.Equal(t, "2025-06-15", row.DateAssistance)
	assert.Equal(t, "lunettes", row.TypeAssistanceCode)
	assert.Equal(t, "Tazi", row.BeneficiaireNom)
}

func TestCampaignPriceAndQuantity(t *testing.T) {
	price := 120.0
	e := setup(t, &price)
	b := e.beneficiary(t, nil)

	rec := e.do(http.MethodPost, "/assistances", `{"beneficiaireId":`+id(b)+`,"quantite":2,"dateAssistance":"01/06/2025"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	row := decodeRow(t, rec)
	assert.Equal(t, 120.0, row.PrixUnitaire)
	assert.Equal(t, 240.0, row.Montant)
	assert.Equal(t, "2025-06-01", row.DateAssistance)
}

func TestTypeSpecificFields(t *testing.T) {
	e := setup(t, nil)
	hearing := e.beneficiary(t, &e.hearing)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"hearing without side", `{"beneficiaireId":` + id(hearing) + `}`, "cote"},
		{"hearing bad side", `{"beneficiaireId":` + id(hearing) + `,"cote":"haut"}`, "cote"},
		{"hearing with correction", `{"beneficiaireId":` + id(hearing) + `,"cote":"gauche","correctionOd":"-1"}`, "correctionOd"},
		{"orthopedic without device", `{"beneficiaireId":` + id(hearing) + `,"typeAssistanceId":` + id(e.orthopedic) + `}`, "typeAppareil"},
		{"eyewear with side", `{"beneficiaireId":` + id(hearing) + `,"typeAssistanceId":` + id(e.eyewear) + `,"cote":"droite"}`, "cote"},
		{"future date", `{"beneficiaireId":` + id(hearing) + `,"cote":"gauche","dateAssistance":"2030-01-01"}`, "dateAssistance"},
		{"negative quantity", `{"beneficiaireId":` + id(hearing) + `,"cote":"gauche","quantite":-1}`, "quantite"},
		{"unknown beneficiary", `{"beneficiaireId":999}`, "beneficiaireId"},
		{"foreign campaign", `{"beneficiaireId":` + id(hearing) + `,"cote":"gauche","campagneId":999}`, "campagneId"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := e.do(http.MethodPost, "/assistances", tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), `"`+tt.field+`"`)
		})
	}

	rec := e.do(http.MethodPost, "/assistances", `{"beneficiaireId":`+id(hearing)+`,"cote":"Bilateral"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	row := decodeRow(t, rec)
	assert.Equal(t, "bilateral", row.Cote)
	assert.Equal(t, 2500.0, row.Montant)

	rec = e.do(http.MethodPost, "/assistances",
		`{"beneficiaireId":`+id(hearing)+`,"typeAssistanceId":`+id(e.orthopedic)+`,"typeAppareil":"Fauteuil roulant"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 1200.0, decodeRow(t, rec).Montant)
}

func TestUpdateListDelete(t *testing.T) {
	e := setup(t, nil)
	b := e.beneficiary(t, nil)
	rec := e.do(http.MethodPost, "/assistances", `{"beneficiaireId":`+id(b)+`,"dateAssistance":"2025-05-10"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeRow(t, rec)
	e.do(http.MethodPost, "/assistances", `{"beneficiaireId":`+id(b)+`,"dateAssistance":"2025-06-10"}`)

	rec = e.do(http.MethodPut, "/assistances/"+id(created.ID), `{"beneficiaireId":999,"quantite":3,"dateAssistance":"2025-05-10"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeRow(t, rec)
	assert.Equal(t, b, updated.BeneficiaireID)
	assert.Equal(t, 450.0, updated.Montant)

	rec = e.do(http.MethodGet, "/assistances?beneficiaireId="+id(b)+"&du=2025-06-01&au=2025-06-30", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page model.Page[model.AssistanceRow]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, "2025-06-10", page.Data[0].DateAssistance)

	assert.Equal(t, http.StatusBadRequest, e.do(http.MethodGet, "/assistances?du=hier", "").Code)

	assert.Equal(t, http.StatusOK, e.do(http.MethodDelete, "/assistances/"+id(created.ID), "").Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/assistances/"+id(created.ID), "").Code)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodPut, "/assistances/"+id(created.ID), `{}`).Code)
}
