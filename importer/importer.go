// Package importer loads beneficiary and participant rosters from Excel or
// CSV files into a campaign.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"medassist/campaign"
	"medassist/metrics"
	"medassist/model"
	"medassist/parsers"
)

// Kind selects the roster a file is imported into.
type Kind string

const (
	KindBeneficiaries Kind = "beneficiaires"
	KindParticipants  Kind = "participants"
)

func (k Kind) Valid() bool {
	return k == KindBeneficiaries || k == KindParticipants
}

// ErrBadFile wraps every reason a whole file is refused before any row is read.
var ErrBadFile = errors.New("fichier refusé")

type RowError struct {
	Ligne   int    `json:"ligne"`
	Champ   string `json:"champ"`
	Message string `json:"message"`
}

type Result struct {
	Message          string     `json:"message"`
	Inseres          int        `json:"inseres"`
	MisAJour         int        `json:"misAJour"`
	Rejetes          int        `json:"rejetes"`
	Erreurs          []RowError `json:"erreurs"`
	ColonnesIgnorees []string   `json:"colonnesIgnorees"`
	DryRun           bool       `json:"dryRun"`
}

func (res *Result) reject(line int, errs model.ValidationErrors) {
	fields := make([]string, 0, len(errs))
	for f := range errs {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		res.Erreurs = append(res.Erreurs, RowError{Ligne: line, Champ: f, Message: errs[f]})
	}
	res.Rejetes++
}

func (res *Result) summarize(kind Kind) {
	prefix := "Import terminé"
	if res.DryRun {
		prefix = "Simulation terminée (aucune donnée enregistrée)"
	}
	res.Message = fmt.Sprintf("%s : %d ajout(s), %d mise(s) à jour, %d ligne(s) rejetée(s).",
		prefix, res.Inseres, res.MisAJour, res.Rejetes)
	if res.DryRun {
		return
	}
	metrics.ImportRows.WithLabelValues(string(kind), "inserted").Add(float64(res.Inseres))
	metrics.ImportRows.WithLabelValues(string(kind), "updated").Add(float64(res.MisAJour))
	metrics.ImportRows.WithLabelValues(string(kind), "rejected").Add(float64(res.Rejetes))
}

// Options carries the request-level switches of an import.
type Options struct {
	SheetName string
	DryRun    bool
}

// Import reads filename from r and upserts its rows into campagneID. The
// whole file is written in one transaction, rolled back when DryRun is set.
func Import(ctx context.Context, db *sqlx.DB, kind Kind, campagneID int64, filename string, r io.Reader, opts Options) (*Result, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: type d'import inconnu %q", ErrBadFile, kind)
	}
	c, err := campaign.LoadOpen(ctx, db, campagneID)
	if err != nil {
		return nil, err
	}
	sheet, err := parsers.ReadSheet(filename, r, opts.SheetName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFile, err)
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var res *Result
	switch kind {
	case KindBeneficiaries:
		res, err = importBeneficiaries(ctx, tx, c.ID, c.TypeAssistanceID, sheet)
	case KindParticipants:
		res, err = importParticipants(ctx, tx, c.ID, sheet)
	}
	if err != nil {
		return nil, err
	}
	res.DryRun = opts.DryRun
	if !opts.DryRun {
		if err := tx.Commit(); err != nil {
			return nil, err
		}
	}
	res.summarize(kind)

	zap.L().Info("import finished",
		zap.String("kind", string(kind)), zap.Int64("campagneId", c.ID), zap.String("file", filename),
		zap.Bool("dryRun", opts.DryRun), zap.Int("inseres", res.Inseres), zap.Int("misAJour", res.MisAJour),
		zap.Int("rejetes", res.Rejetes))
	return res, nil
}

func newResult(ignored []string) *Result {
	if ignored == nil {
		ignored = []string{}
	}
	return &Result{Erreurs: []RowError{}, ColonnesIgnorees: ignored}
}

func dupMessage(line int) string {
	return fmt.Sprintf("Doublon de la ligne %d dans le fichier.", line)
}
