package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medassist/database"
)

func TestInitDatabaseLoadsDefaultsOnce(t *testing.T) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	require.NoError(t, InitDatabase(ctx, db, ""))
	types, err := database.ListAssistanceTypes(ctx, db, "")
	require.NoError(t, err)
	assert.Len(t, types, 4)

	// A price edited after the first load survives a reload.
	hearing, err := database.GetAssistanceTypeByCode(ctx, db, "appareils_auditifs")
	require.NoError(t, err)
	hearing.PrixUnitaire = 3100
	require.NoError(t, database.UpdateAssistanceType(ctx, db, hearing))

	res, err := LoadSeeds(ctx, db, "")
	require.NoError(t, err)
	assert.Equal(t, SeedResult{}, res)

	hearing, err = database.GetAssistanceTypeByCode(ctx, db, "appareils_auditifs")
	require.NoError(t, err)
	assert.Equal(t, 3100.0, hearing.PrixUnitaire)
}

func TestLoadSeedsFromFile(t *testing.T) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()
	require.NoError(t, database.ApplyMigrations(ctx, db))

	path := filepath.Join(t.TempDir(), "seeds.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
situations:
  - libelle: Veuve
  - libelle: veuve
typesAssistance:
  - code: lunettes
    libelle: Lunettes
    prixUnitaire: 120
budgets:
  - libelle: Dotation lunettes
    annee: 2025
    montant: 50000
    typeAssistance: lunettes
`), 0o600))

	res, err := LoadSeeds(ctx, db, path)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{Situations: 1, TypesAssistance: 1, Budgets: 1}, res)

	budgets, err := database.ListBudgets(ctx, db, "", 2025)
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	require.NotNil(t, budgets[0].TypeAssistanceID)
}

func TestLoadSeedsRejectsUnknownBudgetType(t *testing.T) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()
	require.NoError(t, database.ApplyMigrations(ctx, db))

	path := filepath.Join(t.TempDir(), "seeds.yaml")
	require.NoError(t, os.WriteFile(path, []byte("budgets:\n  - libelle: X\n    annee: 2025\n    typeAssistance: inconnu\n"), 0o600))

	_, err = LoadSeeds(ctx, db, path)
	require.ErrorIs(t, err, database.ErrNotFound)

	_, err = LoadSeeds(ctx, db, filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestReloadKeepsSoftDeletedSeedRows(t *testing.T) {
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()
	require.NoError(t, InitDatabase(ctx, db, ""))

	situations, err := database.ListSituations(ctx, db, "Famille")
	require.NoError(t, err)
	require.Len(t, situations, 1)
	require.NoError(t, database.SoftDelete(ctx, db, "situations", situations[0].ID))

	other, err := database.GetAssistanceTypeByCode(ctx, db, "autre")
	require.NoError(t, err)
	require.NoError(t, database.SoftDelete(ctx, db, "types_assistance", other.ID))

	res, err := LoadSeeds(ctx, db, "")
	require.NoError(t, err)
	assert.Equal(t, SeedResult{}, res)

	situations, err = database.ListSituations(ctx, db, "")
	require.NoError(t, err)
	assert.Len(t, situations, 5)
	types, err := database.ListAssistanceTypes(ctx, db, "")
	require.NoError(t, err)
	assert.Len(t, types, 3)
}
