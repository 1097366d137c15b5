package database

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medassist/model"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, ApplyMigrations(context.Background(), db))
	return db
}

func fixedClock(t *testing.T, ts string) {
	t.Helper()
	when, err := time.Parse(timestampLayout, ts)
	require.NoError(t, err)
	prev := Now
	Now = func() time.Time { return when }
	t.Cleanup(func() { Now = prev })
}

func ptr[T any](v T) *T { return &v }

type fixture struct {
	typeID     int64
	campaignID int64
}

func seedCampaign(t *testing.T, db *sqlx.DB) fixture {
	t.Helper()
	ctx := context.Background()
	typ := &model.AssistanceType{Code: model.TypeEyewear, Libelle: "Lunettes", PrixUnitaire: 150}
	require.NoError(t, CreateAssistanceType(ctx, db, typ))

	c := &model.Campaign{Nom: "Caravane Rabat", TypeAssistanceID: typ.ID, Statut: model.StatusDraft}
	require.NoError(t, WithTx(ctx, db, func(tx *sqlx.Tx) error {
		return CreateCampaignInTx(ctx, tx, c)
	}))
	return fixture{typeID: typ.ID, campaignID: c.ID}
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, ApplyMigrations(context.Background(), db))

	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM schema_migrations`))
	assert.Equal(t, 1, n)
}

func TestExtractUp(t *testing.T) {
	sql := "-- +migrate Up\nCREATE TABLE a (id INT);\n-- +migrate Down\nDROP TABLE a;\n"
	assert.Equal(t, "\nCREATE TABLE a (id INT);\n", extractUp(sql))
	assert.Equal(t, "SELECT 1;", extractUp("SELECT 1;"))
}

func TestCampaignReferencesFollowSequence(t *testing.T) {
	db := newTestDB(t)
	fixedClock(t, "2025-03-01 10:00:00")
	ctx := context.Background()

	var refs []string
	for i := 0; i < 2; i++ {
		require.NoError(t, WithTx(ctx, db, func(tx *sqlx.Tx) error {
			ref, err := CampaignReferenceInTx(ctx, tx)
			refs = append(refs, ref)
			return err
		}))
	}
	assert.Equal(t, []string{"CAMP-2025-0001", "CAMP-2025-0002"}, refs)

	require.NoError(t, WithTx(ctx, db, func(tx *sqlx.Tx) error {
		ref, err := KafalaReferenceInTx(ctx, tx)
		assert.Equal(t, "KAF-2025-00001", ref)
		return err
	}))
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := WithTx(ctx, db, func(tx *sqlx.Tx) error {
		if err := CreateSituation(ctx, tx, &model.Situation{Libelle: "Orphelin"}); err != nil {
			return err
		}
		return ErrConflict
	})
	require.ErrorIs(t, err, ErrConflict)

	situations, err := ListSituations(ctx, db, "")
	require.NoError(t, err)
	assert.Empty(t, situations)
}

func TestSituationSoftDeleteAndUniqueness(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	s := &model.Situation{Libelle: "Veuve"}
	require.NoError(t, CreateSituation(ctx, db, s))

	err := CreateSituation(ctx, db, &model.Situation{Libelle: "VEUVE"})
	require.ErrorIs(t, err, ErrConflict)

	require.NoError(t, SoftDelete(ctx, db, "situations", s.ID))
	_, err = GetSituation(ctx, db, s.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, SoftDelete(ctx, db, "situations", s.ID), ErrNotFound)

	// The label is free again once the first row is deleted.
	again := &model.Situation{Libelle: "Veuve"}
	require.NoError(t, CreateSituation(ctx, db, again))

	err = Restore(ctx, db, "situations", s.ID)
	require.ErrorIs(t, err, ErrConflict)
}

func TestSoftDeleteRejectsUnknownTable(t *testing.T) {
	db := newTestDB(t)
	err := SoftDelete(context.Background(), db, "code_sequences", 1)
	require.Error(t, err)
}

func TestSearchEscapesWildcards(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, CreateSituation(ctx, db, &model.Situation{Libelle: "Handicap 100%"}))
	require.NoError(t, CreateSituation(ctx, db, &model.Situation{Libelle: "Handicap partiel"}))

	found, err := ListSituations(ctx, db, "100%")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Handicap 100%", found[0].Libelle)
}

func TestUpsertAssistanceTypeKeepsEdits(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	inserted, err := UpsertAssistanceTypeByCode(ctx, db, model.AssistanceType{Code: "orthopedie", Libelle: "Orthopédie"})
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = UpsertAssistanceTypeByCode(ctx, db, model.AssistanceType{Code: "orthopedie", Libelle: "Autre libellé", PrixUnitaire: 900})
	require.NoError(t, err)
	assert.False(t, inserted)

	typ, err := GetAssistanceTypeByCode(ctx, db, "orthopedie")
	require.NoError(t, err)
	assert.Equal(t, "Orthopédie", typ.Libelle)
	assert.Equal(t, 900.0, typ.PrixUnitaire)
}

func TestAssistanceTypeInUse(t *testing.T) {
	db := newTestDB(t)
	f := seedCampaign(t, db)
	ctx := context.Background()

	used, err := AssistanceTypeInUse(ctx, db, f.typeID)
	require.NoError(t, err)
	assert.True(t, used)

	_, err = softDeleteCampaign(t, db, f.campaignID)
	require.NoError(t, err)
	used, err = AssistanceTypeInUse(ctx, db, f.typeID)
	require.NoError(t, err)
	assert.False(t, used)
}

func softDeleteCampaign(t *testing.T, db *sqlx.DB, id int64) (int64, error) {
	t.Helper()
	var n int64
	err := WithTx(context.Background(), db, func(tx *sqlx.Tx) error {
		var err error
		n, err = SoftDeleteCampaignInTx(context.Background(), tx, id)
		return err
	})
	return n, err
}

func TestCampaignDeleteCascadesAndRestores(t *testing.T) {
	db := newTestDB(t)
	f := seedCampaign(t, db)
	ctx := context.Background()

	kept := &model.Beneficiary{CampagneID: f.campaignID, Nom: "Alaoui", Prenom: "Sara", Cin: "AB1234"}
	require.NoError(t, CreateBeneficiary(ctx, db, kept))
	gone := &model.Beneficiary{CampagneID: f.campaignID, Nom: "Bennani", Prenom: "Omar", Cin: "CD5678"}
	require.NoError(t, CreateBeneficiary(ctx, db, gone))
	require.NoError(t, CreateParticipant(ctx, db, &model.Participant{CampagneID: f.campaignID, Nom: "Idrissi", Telephone: "+212612345678"}))

	fixedClock(t, "2025-01-01 09:00:00")
	require.NoError(t, SoftDelete(ctx, db, "beneficiaires", gone.ID))

	fixedClock(t, "2025-02-01 09:00:00")
	n, err := softDeleteCampaign(t, db, f.campaignID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	_, err = GetCampaign(ctx, db, f.campaignID)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, WithTx(ctx, db, func(tx *sqlx.Tx) error {
		return RestoreCampaignInTx(ctx, tx, f.campaignID)
	}))

	row, err := GetCampaign(ctx, db, f.campaignID)
	require.NoError(t, err)
	assert.Equal(t, 1, row.NombreBeneficiaires)
	assert.Equal(t, 1, row.NombreParticipants)

	_, err = GetBeneficiary(ctx, db, gone.ID)
	require.ErrorIs(t, err, ErrNotFound, "rows deleted before the campaign stay deleted")
}

func TestListCampaignsFiltersAndPages(t *testing.T) {
	db := newTestDB(t)
	f := seedCampaign(t, db)
	ctx := context.Background()

	for _, nom := range []string{"Tanger", "Fès"} {
		c := &model.Campaign{Nom: nom, TypeAssistanceID: f.typeID, Statut: model.StatusActive, DateDebut: ptr("2025-05-01")}
		require.NoError(t, WithTx(ctx, db, func(tx *sqlx.Tx) error { return CreateCampaignInTx(ctx, tx, c) }))
	}

	rows, total, err := ListCampaigns(ctx, db, model.CampaignFilters{Statut: string(model.StatusActive), Paging: model.Paging{Page: 1, PerPage: 1}})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, rows, 1)
	assert.Equal(t, "Lunettes", rows[0].TypeAssistanceLibelle)

	rows, total, err = ListCampaigns(ctx, db, model.CampaignFilters{Query: "raba", Paging: model.Paging{Page: 1, PerPage: 25}})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Caravane Rabat", rows[0].Nom)
}

func TestBeneficiaryCinUniquePerCampaign(t *testing.T) {
	db := newTestDB(t)
	f := seedCampaign(t, db)
	ctx := context.Background()

	require.NoError(t, CreateBeneficiary(ctx, db, &model.Beneficiary{CampagneID: f.campaignID, Nom: "A", Prenom: "B", Cin: "X1234"}))
	err := CreateBeneficiary(ctx, db, &model.Beneficiary{CampagneID: f.campaignID, Nom: "C", Prenom: "D", Cin: "X1234"})
	require.ErrorIs(t, err, ErrConflict)

	// Blank CINs never collide.
	require.NoError(t, CreateBeneficiary(ctx, db, &model.Beneficiary{CampagneID: f.campaignID, Nom: "E", Prenom: "F", Telephone: "0600000001"}))
	require.NoError(t, CreateBeneficiary(ctx, db, &model.Beneficiary{CampagneID: f.campaignID, Nom: "G", Prenom: "H", Telephone: "0600000002"}))
}

func TestFindBeneficiaryByNaturalKey(t *testing.T) {
	db := newTestDB(t)
	f := seedCampaign(t, db)
	ctx := context.Background()

	withCin := &model.Beneficiary{CampagneID: f.campaignID, Nom: "Alaoui", Prenom: "Sara", Cin: "AB1234"}
	require.NoError(t, CreateBeneficiary(ctx, db, withCin))
	byPhone := &model.Beneficiary{CampagneID: f.campaignID, Nom: "Bennani", Prenom: "Omar", Telephone: "+212600000000"}
	require.NoError(t, CreateBeneficiary(ctx, db, byPhone))

	found, err := FindBeneficiaryByNaturalKey(ctx, db, f.campaignID, "AB1234", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, withCin.ID, found.ID)

	found, err = FindBeneficiaryByNaturalKey(ctx, db, f.campaignID, "", "+212600000000", "BENNANI", "omar")
	require.NoError(t, err)
	assert.Equal(t, byPhone.ID, found.ID)

	_, err = FindBeneficiaryByNaturalKey(ctx, db, f.campaignID, "", "", "Bennani", "Omar")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSetDecisionBulk(t *testing.T) {
	db := newTestDB(t)
	f := seedCampaign(t, db)
	ctx := context.Background()

	var ids []int64
	for _, cin := range []string{"A1000", "A1001", "A1002"} {
		b := &model.Beneficiary{CampagneID: f.campaignID, Nom: "N", Prenom: cin, Cin: cin}
		require.NoError(t, CreateBeneficiary(ctx, db, b))
		ids = append(ids, b.ID)
	}
	require.NoError(t, SoftDelete(ctx, db, "beneficiaires", ids[2]))

	n, err := SetDecision(ctx, db, ids, model.DecisionAccepted)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	counts, err := BeneficiariesByDecision(ctx, db, f.campaignID)
	require.NoError(t, err)
	assert.Equal(t, []model.CountByKey{{Key: "accepte", Count: 2}}, counts)
}

func TestCreditLinesUseEffectiveTypeAndPrice(t *testing.T) {
	db := newTestDB(t)
	f := seedCampaign(t, db)
	ctx := context.Background()

	hearing := &model.AssistanceType{Code: model.TypeHearingAid, Libelle: "Appareils auditifs", PrixUnitaire: 2000}
	require.NoError(t, CreateAssistanceType(ctx, db, hearing))

	for i, d := range []model.Decision{model.DecisionAccepted, model.DecisionAccepted, model.DecisionWaiting, model.DecisionRefused} {
		b := &model.Beneficiary{CampagneID: f.campaignID, Nom: "N", Prenom: string(rune('a' + i)), Telephone: "06000000" + string(rune('0'+i)), Decision: d}
		require.NoError(t, CreateBeneficiary(ctx, db, b))
	}
	b := &model.Beneficiary{CampagneID: f.campaignID, TypeAssistanceID: &hearing.ID, Nom: "H", Prenom: "H", Telephone: "0611111111", Decision: model.DecisionAccepted}
	require.NoError(t, CreateBeneficiary(ctx, db, b))

	lines, err := CreditLines(ctx, db, f.campaignID)
	require.NoError(t, err)
	require.Len(t, lines, 2)

	assert.Equal(t, "appareils_auditifs", lines[0].Code)
	assert.Equal(t, 1, lines[0].Nombre)
	assert.Equal(t, 2000.0, lines[0].PrixUnitaire)

	assert.Equal(t, "lunettes", lines[1].Code)
	assert.Equal(t, 2, lines[1].Nombre)
	assert.Equal(t, 1, lines[1].NombreEnAttente)
	assert.Equal(t, 150.0, lines[1].PrixUnitaire)

	c, err := GetCampaignIncludingDeleted(ctx, db, f.campaignID)
	require.NoError(t, err)
	c.PrixUnitaire = ptr(120.0)
	require.NoError(t, UpdateCampaign(ctx, db, c))

	lines, err = CreditLines(ctx, db, f.campaignID)
	require.NoError(t, err)
	assert.Equal(t, 120.0, lines[1].PrixUnitaire)
	assert.Equal(t, 120.0, lines[0].PrixUnitaire)
}

func TestRecordCallAndTotals(t *testing.T) {
	db := newTestDB(t)
	f := seedCampaign(t, db)
	ctx := context.Background()

	p := &model.Participant{CampagneID: f.campaignID, Nom: "Idrissi", Telephone: "+212612345678"}
	require.NoError(t, CreateParticipant(ctx, db, p))
	assert.Equal(t, model.CallPending, p.StatutAppel)

	err := CreateParticipant(ctx, db, &model.Participant{CampagneID: f.campaignID, Nom: "Autre", Telephone: "+212612345678"})
	require.ErrorIs(t, err, ErrConflict)

	fixedClock(t, "2025-04-02 14:30:00")
	updated, err := RecordCall(ctx, db, p.ID, model.CallAnswered, "rappeler lundi")
	require.NoError(t, err)
	assert.Equal(t, 1, updated.NombreAppels)
	assert.Equal(t, model.CallAnswered, updated.StatutAppel)
	require.NotNil(t, updated.DateDernierAppel)
	assert.Equal(t, "2025-04-02 14:30:00", *updated.DateDernierAppel)

	_, err = RecordCall(ctx, db, 999, model.CallAnswered, "")
	require.ErrorIs(t, err, ErrNotFound)

	total, converted, err := ParticipantTotals(ctx, db, f.campaignID)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, 0, converted)
}

func TestKafalaDocument(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	fixedClock(t, "2025-06-01 08:00:00")

	k := &model.Kafala{EnfantNom: "Amrani", EnfantPrenom: "Yassine", KafilNom: "Amrani", KafilPrenom: "Said", KafilCin: "BK99887"}
	require.NoError(t, WithTx(ctx, db, func(tx *sqlx.Tx) error { return CreateKafalaInTx(ctx, tx, k) }))
	assert.Equal(t, "KAF-2025-00001", k.Reference)

	require.NoError(t, SetKafalaDocument(ctx, db, k.ID, "uploads/kafala/x.pdf", "jugement.pdf", 1024))
	got, err := GetKafala(ctx, db, k.ID)
	require.NoError(t, err)
	assert.True(t, got.HasDocument())
	assert.Equal(t, "jugement.pdf", got.DocumentNom)

	list, total, err := ListKafalas(ctx, db, model.KafalaFilters{Query: "bk998", Paging: model.Paging{Page: 1, PerPage: 10}})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, list, 1)

	n, err := CountKafalas(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAssistanceRowsJoinLabels(t *testing.T) {
	db := newTestDB(t)
	f := seedCampaign(t, db)
	ctx := context.Background()

	b := &model.Beneficiary{CampagneID: f.campaignID, Nom: "Alaoui", Prenom: "Sara", Cin: "AB1234"}
	require.NoError(t, CreateBeneficiary(ctx, db, b))
	a := &model.Assistance{BeneficiaireID: b.ID, CampagneID: &f.campaignID, TypeAssistanceID: f.typeID,
		DateAssistance: "2025-03-10", Quantite: 2, PrixUnitaire: 150, Montant: 300}
	require.NoError(t, CreateAssistance(ctx, db, a))

	rows, total, err := ListAssistances(ctx, db, model.AssistanceFilters{From: "2025-03-01", To: "2025-03-31", Paging: model.Paging{Page: 1, PerPage: 10}})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Alaoui", rows[0].BeneficiaireNom)
	assert.Equal(t, "Lunettes", rows[0].TypeAssistanceLibelle)

	totals, err := AssistanceTotalsByType(ctx, db)
	require.NoError(t, err)
	assert.Equal(t, []model.AssistanceTotals{{Code: "lunettes", Libelle: "Lunettes", Nombre: 1, Montant: 300}}, totals)
}
