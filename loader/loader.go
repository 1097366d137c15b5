package loader

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"medassist/database"
	"medassist/model"
)

//go:embed seeds/default.yaml
var defaultSeeds []byte

// Seeds is the YAML layout of the dictionary seed file.
type Seeds struct {
	Situations []struct {
		Libelle     string `yaml:"libelle"`
		Description string `yaml:"description"`
	} `yaml:"situations"`
	TypesAssistance []struct {
		Code         string  `yaml:"code"`
		Libelle      string  `yaml:"libelle"`
		PrixUnitaire float64 `yaml:"prixUnitaire"`
		Description  string  `yaml:"description"`
	} `yaml:"typesAssistance"`
	Budgets []struct {
		Libelle            string  `yaml:"libelle"`
		Annee              int     `yaml:"annee"`
		Montant            float64 `yaml:"montant"`
		TypeAssistanceCode string  `yaml:"typeAssistance"`
		Description        string  `yaml:"description"`
	} `yaml:"budgets"`
}

// SeedResult counts the rows inserted by LoadSeeds.
type SeedResult struct {
	Situations      int `json:"situations"`
	TypesAssistance int `json:"typesAssistance"`
	Budgets         int `json:"budgets"`
}

// InitDatabase applies the schema migrations then loads the dictionary seeds.
func InitDatabase(ctx context.Context, db *sqlx.DB, seedPath string) error {
	zap.L().Info("applying database migrations")
	if err := database.ApplyMigrations(ctx, db); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	res, err := LoadSeeds(ctx, db, seedPath)
	if err != nil {
		return err
	}
	zap.L().Info("dictionary seeds loaded",
		zap.Int("situations", res.Situations), zap.Int("typesAssistance", res.TypesAssistance), zap.Int("budgets", res.Budgets))
	return nil
}

// ReadSeeds parses path, or the embedded defaults when path is empty.
func ReadSeeds(path string) (*Seeds, error) {
	data := defaultSeeds
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("could not read seed file %s: %w", path, err)
		}
		data = b
	}
	var s Seeds
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("invalid seed file: %w", err)
	}
	return &s, nil
}

// LoadSeeds upserts the seed rows in one transaction. Rows edited since a
// previous load are left alone.
func LoadSeeds(ctx context.Context, db *sqlx.DB, path string) (SeedResult, error) {
	var res SeedResult
	seeds, err := ReadSeeds(path)
	if err != nil {
		return res, err
	}

	err = database.WithTx(ctx, db, func(tx *sqlx.Tx) error {
		for _, s := range seeds.Situations {
			if strings.TrimSpace(s.Libelle) == "" {
				continue
			}
			inserted, err := database.UpsertSituationByLabel(ctx, tx, strings.TrimSpace(s.Libelle), s.Description)
			if err != nil {
				return fmt.Errorf("seed situation %q: %w", s.Libelle, err)
			}
			if inserted {
				res.Situations++
			}
		}

		for _, t := range seeds.TypesAssistance {
			if t.Code == "" || t.Libelle == "" {
				continue
			}
			inserted, err := database.UpsertAssistanceTypeByCode(ctx, tx, model.AssistanceType{
				Code: t.Code, Libelle: t.Libelle, PrixUnitaire: t.PrixUnitaire, Description: t.Description,
			})
			if err != nil {
				return fmt.Errorf("seed type %q: %w", t.Code, err)
			}
			if inserted {
				res.TypesAssistance++
			}
		}

		for _, b := range seeds.Budgets {
			if b.Libelle == "" {
				continue
			}
			budget := model.Budget{Libelle: b.Libelle, Annee: b.Annee, Montant: b.Montant, Description: b.Description}
			if b.TypeAssistanceCode != "" {
				typ, err := database.GetAssistanceTypeByCode(ctx, tx, b.TypeAssistanceCode)
				if err != nil {
					return fmt.Errorf("seed budget %q: type %q: %w", b.Libelle, b.TypeAssistanceCode, err)
				}
				budget.TypeAssistanceID = &typ.ID
			}
			inserted, err := database.UpsertBudgetByLabel(ctx, tx, budget)
			if err != nil {
				return fmt.Errorf("seed budget %q: %w", b.Libelle, err)
			}
			if inserted {
				res.Budgets++
			}
		}
		return nil
	})
	return res, err
}
