package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"medassist/model"
)

const kafalaColumns = `id, reference, enfant_nom, enfant_prenom, enfant_sexe, enfant_date_naissance,
	kafil_nom, kafil_prenom, kafil_cin, kafil_telephone, kafil_adresse, numero_jugement, date_jugement,
	tribunal, document_chemin, document_nom, document_taille, observations,
	created_at, updated_at, date_suppression`

func ListKafalas(ctx context.Context, db DBTX, f model.KafalaFilters) ([]model.Kafala, int, error) {
	where := &whereClause{}
	where.add("date_suppression IS NULL")
	if strings.TrimSpace(f.Query) != "" {
		p := likePattern(f.Query)
		where.add(`(reference LIKE ? ESCAPE '\' OR enfant_nom LIKE ? ESCAPE '\' OR enfant_prenom LIKE ? ESCAPE '\'
			OR kafil_nom LIKE ? ESCAPE '\' OR kafil_prenom LIKE ? ESCAPE '\' OR kafil_cin LIKE ? ESCAPE '\')`, p, p, p, p, p, p)
	}

	var total int
	if err := db.GetContext(ctx, &total, `SELECT COUNT(*) FROM kafalas`+where.String(), where.args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count kafalas: %w", err)
	}

	kafalas := []model.Kafala{}
	q := `SELECT ` + kafalaColumns + ` FROM kafalas` + where.String() + ` ORDER BY reference DESC LIMIT ? OFFSET ?`
	args := append(where.args, f.PerPage, f.Offset())
	if err := db.SelectContext(ctx, &kafalas, q, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list kafalas: %w", err)
	}
	return kafalas, total, nil
}

func GetKafala(ctx context.Context, db DBTX, id int64) (*model.Kafala, error) {
	var k model.Kafala
	if err := db.GetContext(ctx, &k, `SELECT `+kafalaColumns+` FROM kafalas WHERE id = ? AND date_suppression IS NULL`, id); err != nil {
		return nil, translate(err)
	}
	return &k, nil
}

func CreateKafalaInTx(ctx context.Context, tx *sqlx.Tx, k *model.Kafala) error {
	ref, err := KafalaReferenceInTx(ctx, tx)
	if err != nil {
		return err
	}
	now := timestamp()
	k.Reference = ref
	k.CreatedAt, k.UpdatedAt = now, now
	res, err := tx.NamedExecContext(ctx, `
		INSERT INTO kafalas (reference, enfant_nom, enfant_prenom, enfant_sexe, enfant_date_naissance,
			kafil_nom, kafil_prenom, kafil_cin, kafil_telephone, kafil_adresse, numero_jugement, date_jugement,
			tribunal, observations, created_at, updated_at)
		VALUES (:reference, :enfant_nom, :enfant_prenom, :enfant_sexe, :enfant_date_naissance,
			:kafil_nom, :kafil_prenom, :kafil_cin, :kafil_telephone, :kafil_adresse, :numero_jugement, :date_jugement,
			:tribunal, :observations, :created_at, :updated_at)`, k)
	if err != nil {
		return fmt.Errorf("CreateKafalaInTx failed: %w", translate(err))
	}
	k.ID, err = lastInsertID(res)
	return err
}

func UpdateKafala(ctx context.Context, db DBTX, k *model.Kafala) error {
	k.UpdatedAt = timestamp()
	res, err := db.NamedExecContext(ctx, `
		UPDATE kafalas SET enfant_nom = :enfant_nom, enfant_prenom = :enfant_prenom, enfant_sexe = :enfant_sexe,
			enfant_date_naissance = :enfant_date_naissance, kafil_nom = :kafil_nom, kafil_prenom = :kafil_prenom,
			kafil_cin = :kafil_cin, kafil_telephone = :kafil_telephone, kafil_adresse = :kafil_adresse,
			numero_jugement = :numero_jugement, date_jugement = :date_jugement, tribunal = :tribunal,
			observations = :observations, updated_at = :updated_at
		WHERE id = :id AND date_suppression IS NULL`, k)
	if err != nil {
		return fmt.Errorf("UpdateKafala (ID: %d) failed: %w", k.ID, translate(err))
	}
	return requireAffected(res)
}

// SetKafalaDocument records the stored PDF for a kafala.
func SetKafalaDocument(ctx context.Context, db DBTX, id int64, path, name string, size int64) error {
	res, err := db.ExecContext(ctx, `
		UPDATE kafalas SET document_chemin = ?, document_nom = ?, document_taille = ?, updated_at = ?
		WHERE id = ? AND date_suppression IS NULL`, path, name, size, timestamp(), id)
	if err != nil {
		return fmt.Errorf("SetKafalaDocument (ID: %d) failed: %w", id, err)
	}
	return requireAffected(res)
}
